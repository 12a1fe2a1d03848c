package arq

import "github.com/cloudsecuritygroup/arq/errors"

// Table is an immutable mapping from domain points to a multiset of
// integer record values. Points absent from Entries are treated as mapping
// to the empty multiset.
type Table struct {
	Entries map[int][]int
	Domain  Domain
}

// Record is a single (domain point, value) pair, the input shape Make
// builds a Table from.
type Record struct {
	Point int
	Value int
}

// Make builds a Table from an arbitrary list of records. The domain is
// derived as [min point, max point + 1). Make requires at least one
// record.
func Make(records []Record) (Table, error) {
	if len(records) == 0 {
		return Table{}, errors.E(errors.Empty, "Table.Make: records must be non-empty")
	}
	start, end := records[0].Point, records[0].Point
	entries := make(map[int][]int)
	for _, r := range records {
		if r.Point < start {
			start = r.Point
		}
		if r.Point > end {
			end = r.Point
		}
		entries[r.Point] = append(entries[r.Point], r.Value)
	}
	domain, err := NewDomain(start, end+1)
	if err != nil {
		return Table{}, err
	}
	return Table{Entries: entries, Domain: domain}, nil
}

// MakeFromList builds a Table from a plain list of values, treating it as
// enumerate(values): point i holds values[i].
func MakeFromList(values []int) (Table, error) {
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = Record{Point: i, Value: v}
	}
	return Make(records)
}

// NumberOfFilledDomainPoints returns the count of domain points with at
// least one record.
func (t Table) NumberOfFilledDomainPoints() int {
	return len(t.Entries)
}

// NumberOfRecords returns the total count of records across all domain
// points.
func (t Table) NumberOfRecords() int {
	n := 0
	for _, vs := range t.Entries {
		n += len(vs)
	}
	return n
}

// Filter returns the multiset of values at domainValue, or nil if empty.
// The returned slice is not in any defined order.
func (t Table) Filter(domainValue int) []int {
	return t.Entries[domainValue]
}

// FilterRange returns the concatenation of Filter over every point in
// [rq.Start, rq.End). The returned slice is not in any defined order.
func (t Table) FilterRange(rq RangeQuery) []int {
	var result []int
	for p := rq.Start; p < rq.End; p++ {
		result = append(result, t.Filter(p)...)
	}
	return result
}

// Disambiguator collapses the multiset of values at one domain point to a
// single representative integer, e.g. a minimum-by-point scheme's min().
type Disambiguator func([]int) int

// IterateOverUniqueDomainPoints applies disambiguator to the multiset at
// each domain point in order, producing one integer per point.
func (t Table) IterateOverUniqueDomainPoints(disambiguator Disambiguator) []int {
	out := make([]int, 0, t.Domain.Size())
	for p := t.Domain.Start; p < t.Domain.End; p++ {
		out = append(out, disambiguator(t.Filter(p)))
	}
	return out
}
