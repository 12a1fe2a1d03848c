// Package retry implements exponential backoff for the one place this
// module talks to something outside its own process: cmd/arqbench
// reading a CSV of records that may live on a flaky mount.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cloudsecuritygroup/arq/errors"
)

// A Policy abstracts a retry schedule. Callers do not usually invoke
// Retry directly; Wait and Do use it to decide how long to sleep between
// attempts.
type Policy interface {
	// Retry reports whether another attempt should be made after the
	// given retry number, and how long to wait before making it.
	Retry(retry int) (bool, time.Duration)
}

// Wait queries policy at the given retry number and sleeps until the
// next attempt should be made. It returns an error if the policy has
// exhausted its attempts, if ctx's deadline would elapse before the wait
// completes, or if ctx is canceled.
func Wait(ctx context.Context, policy Policy, retry int) error {
	keepgoing, wait := policy.Retry(retry)
	if !keepgoing {
		return errors.E(errors.Precondition, fmt.Sprintf("retry: gave up after %d attempts", retry))
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
		return errors.E(errors.Precondition, "retry: deadline would elapse before the next attempt")
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do calls fn until it succeeds or policy gives up, waiting between
// attempts as Wait describes. It returns nil on the first successful
// call, fn's last error once policy refuses another attempt, or ctx's
// error if it is canceled while waiting.
func Do(ctx context.Context, policy Policy, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if waitErr := Wait(ctx, policy, attempt); waitErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}
	}
}

type backoff struct {
	factor       float64
	initial, max time.Duration
}

// maxInt64Convertible bounds Backoff's max parameter so the exponential
// computation, done in float64, can't overflow when converted back to an
// int64 duration. It was produced with:
//
//	math.Nextafter(float64(math.MaxInt64), 0)
const maxInt64Convertible = int64(float64(9223372036854774784))

// MaxBackoffMax is the largest duration Backoff accepts as max.
const MaxBackoffMax = time.Duration(maxInt64Convertible)

// Backoff returns a Policy that waits initial on the first retry,
// multiplying by factor on each subsequent one, capped at max. It never
// refuses a retry on its own; pair it with MaxRetries to bound the
// number of attempts.
func Backoff(initial, max time.Duration, factor float64) Policy {
	if max > MaxBackoffMax {
		panic("retry.Backoff: max > MaxBackoffMax")
	}
	return &backoff{initial: initial, max: max, factor: factor}
}

func (b *backoff) Retry(retries int) (bool, time.Duration) {
	if retries < 0 {
		panic("retry.Backoff: retries < 0")
	}
	ns := math.Min(float64(b.initial)*math.Pow(b.factor, float64(retries)), float64(b.max))
	return true, time.Duration(int64(ns))
}

type maxtries struct {
	policy Policy
	max    int
}

// MaxRetries returns a policy that enforces a maximum number of
// attempts, deferring to policy for the wait duration of each attempt
// within that limit. cmd/arqbench wires this around Backoff so a
// permanently missing records file fails instead of retrying forever.
func MaxRetries(policy Policy, n int) Policy {
	if n < 1 {
		panic("retry.MaxRetries: n < 1")
	}
	return &maxtries{policy, n - 1}
}

func (m *maxtries) Retry(retries int) (bool, time.Duration) {
	if retries > m.max {
		return false, time.Duration(0)
	}
	if m.policy != nil {
		return m.policy.Retry(retries)
	}
	return true, time.Duration(0)
}
