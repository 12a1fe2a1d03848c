package arq

import (
	"fmt"
	"math/big"
)

// NumberKind discriminates the concrete representation a Number holds.
type NumberKind int

const (
	// KindInt marks a Number holding an exact integer, the representation
	// every integer-valued scheme (sum, min, mode) resolves to.
	KindInt NumberKind = iota
	// KindRational marks a Number holding an exact fraction.
	KindRational
	// KindDecimal marks a Number holding an arbitrary-precision decimal
	// string, the representation the median scheme resolves to.
	KindDecimal
)

// Number is the sum type every aggregate scheme's resolver returns: an
// exact integer, an exact rational, or a decimal, so that R can pick
// whichever representation its combiner naturally produces without
// forcing every scheme through a lossy common type.
type Number struct {
	kind    NumberKind
	i       int64
	num, den int64
	decimal string
}

// Int constructs an exact-integer Number.
func Int(v int64) Number {
	return Number{kind: KindInt, i: v}
}

// Rational constructs an exact num/den Number. den must be non-zero.
func Rational(num, den int64) Number {
	return Number{kind: KindRational, num: num, den: den}
}

// Decimal constructs a Number from a pre-formatted decimal string, used
// for the median scheme's "exact decimal" result.
func Decimal(s string) Number {
	return Number{kind: KindDecimal, decimal: s}
}

// Kind reports which representation the Number holds.
func (n Number) Kind() NumberKind {
	return n.kind
}

// Int64 returns the integer value. It panics if Kind() != KindInt.
func (n Number) Int64() int64 {
	if n.kind != KindInt {
		panic("arq: Number.Int64 called on non-integer Number")
	}
	return n.i
}

// Rat returns the value as an exact rational, valid for KindInt and
// KindRational.
func (n Number) Rat() *big.Rat {
	switch n.kind {
	case KindInt:
		return new(big.Rat).SetInt64(n.i)
	case KindRational:
		return big.NewRat(n.num, n.den)
	default:
		panic("arq: Number.Rat called on a Decimal Number")
	}
}

// String renders the Number for logging and test assertions.
func (n Number) String() string {
	switch n.kind {
	case KindInt:
		return fmt.Sprintf("%d", n.i)
	case KindRational:
		return fmt.Sprintf("%d/%d", n.num, n.den)
	case KindDecimal:
		return n.decimal
	default:
		return "<invalid Number>"
	}
}
