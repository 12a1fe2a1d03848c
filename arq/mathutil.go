// Package arq implements the plaintext aggregate range-query data model
// and schemes: domains, range queries, tables, the generic scheme
// interfaces, and the composer that wires a scheme to a structured
// encryption store.
package arq

import (
	"math/bits"

	"github.com/cloudsecuritygroup/arq/errors"
)

// Log2Floor returns floor(log2(x)) for x >= 1. It is undefined for x <= 0.
func Log2Floor(x int) int {
	return bits.Len(uint(x)) - 1
}

// Log2Ceil returns ceil(log2(x)) for x >= 1. It is undefined for x <= 0.
func Log2Ceil(x int) int {
	if x <= 1 {
		return 0
	}
	return bits.Len(uint(x - 1))
}

// NextPowerOfTwo returns the smallest power of two that is >= x. It
// requires x >= 1.
func NextPowerOfTwo(x int) (int, error) {
	if x <= 0 {
		return 0, errors.E(errors.Invalid, "NextPowerOfTwo: x must be positive")
	}
	return 1 << uint(Log2Ceil(x)), nil
}
