// Package errorreporter accumulates errors raised from multiple
// goroutines. traverse.Traverse.DoRange uses one internally to capture
// the first error out of whichever worker goroutine hits one first
// while encrypting an EDX or EMM dictionary in parallel, or while
// Composer.Query resolves a round's auxiliary keys through the same
// traverse machinery.
package errorreporter

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// T accumulates errors across multiple threads.  Thread safe.
//
// Example:
//  e := errorreporter.T{}
//  e.Set(errors.E(errors.NotExist, "edx: label missing from store"))
type T struct {
	// Ignored is a list of errors that will be dropped in Set(). Ignored
	// typically includes io.EOF.
	Ignored []error
	mu      sync.Mutex
	err     unsafe.Pointer // stores *error
}

// Err returns the first non-nil error passed to Set.  Calling Err is cheap
// (~1ns).
func (e *T) Err() error {
	p := atomic.LoadPointer(&e.err) // Acquire load
	if p == nil {
		return nil
	}
	return *(*error)(p)
}

// Set sets an error. If called multiple times, only the first error is
// remembered.
func (e *T) Set(err error) {
	if err != nil {
		for _, ignored := range e.Ignored {
			if err == ignored {
				return
			}
		}
		e.mu.Lock()
		if e.err == nil && err != nil {
			atomic.StorePointer(&e.err, unsafe.Pointer(&err)) // Release store
		}
		e.mu.Unlock()
	}
}

// Reset clears any previously recorded error, so a single T can be
// reused across successive rounds of a multi-round Composer.Query
// instead of allocating a fresh one each round.
func (e *T) Reset() {
	e.mu.Lock()
	atomic.StorePointer(&e.err, nil)
	e.mu.Unlock()
}
