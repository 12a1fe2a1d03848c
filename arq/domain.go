package arq

import "github.com/cloudsecuritygroup/arq/errors"

// Domain is the half-open integer interval [Start, End) over which a Table
// is defined. It is immutable once constructed.
type Domain struct {
	Start, End int
}

// NewDomain constructs a Domain, rejecting empty or inverted intervals.
func NewDomain(start, end int) (Domain, error) {
	if start >= end {
		return Domain{}, errors.E(errors.Invalid, "Domain: start must be < end")
	}
	return Domain{Start: start, End: end}, nil
}

// Size returns the number of integer points in the domain.
func (d Domain) Size() int {
	return d.End - d.Start
}

// Contains reports whether p lies within the domain.
func (d Domain) Contains(p int) bool {
	return p >= d.Start && p < d.End
}
