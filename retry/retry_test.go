package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cloudsecuritygroup/arq/errors"
)

func TestBackoff(t *testing.T) {
	policy := Backoff(time.Second, 10*time.Second, 2)
	expect := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for retries, wait := range expect {
		keepgoing, dur := policy.Retry(retries)
		if !keepgoing {
			t.Fatal("!keepgoing")
		}
		if got, want := dur, wait; got != want {
			t.Errorf("retry %d: got %v, want %v", retries, got, want)
		}
	}
}

// TestBackoffOverflow tests the behavior of exponential backoff for large
// numbers of retries.
func TestBackoffOverflow(t *testing.T) {
	policy := Backoff(time.Second, 10*time.Second, 2)
	expect := []time.Duration{
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
		10 * time.Second,
	}
	for retries, wait := range expect {
		// Use a large number of retries that might overflow exponential
		// calculations.
		keepgoing, dur := policy.Retry(1000 + retries)
		if !keepgoing {
			t.Fatal("!keepgoing")
		}
		if got, want := dur, wait; got != want {
			t.Errorf("retry %d: got %v, want %v", retries, got, want)
		}
	}
}

func TestMaxRetries(t *testing.T) {
	policy := MaxRetries(Backoff(0, 0, 0), 3)
	for i := 0; i < 3; i++ {
		if keepgoing, _ := policy.Retry(i); !keepgoing {
			t.Fatalf("retry %d: expected keepgoing", i)
		}
	}
	if keepgoing, _ := policy.Retry(3); keepgoing {
		t.Error("expected policy to give up after its attempt limit")
	}
}

func TestWaitCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Backoff(time.Hour, time.Hour, 1)
	cancel()
	if got, want := Wait(ctx, policy, 0), context.Canceled; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWaitDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	policy := Backoff(time.Hour, time.Hour, 1)
	if got, want := Wait(ctx, policy, 0), errors.E(errors.Precondition); !errors.Match(want, got) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestDo models cmd/arqbench's records-file read: a transient failure
// that clears up after a couple of attempts should succeed, and a
// permanent failure should surface fn's own error once the attempt
// budget runs out.
func TestDo(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), MaxRetries(Backoff(time.Millisecond, time.Millisecond, 1), 5), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("records: transient read failure")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("got %d attempts, want 3", attempts)
	}

	permanentErr := fmt.Errorf("records: file does not exist")
	err = Do(context.Background(), MaxRetries(Backoff(time.Millisecond, time.Millisecond, 1), 2), func() error {
		return permanentErr
	})
	if err != permanentErr {
		t.Errorf("got %v, want %v", err, permanentErr)
	}
}
