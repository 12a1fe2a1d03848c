// Package sumprefix implements the exact range-sum scheme: a running
// prefix sum precomputed once at setup, resolved by at most a subtraction
// of two prefix values at query time.
package sumprefix

import (
	"github.com/cloudsecuritygroup/arq"
)

// DS is the plaintext data structure sum-prefix's Setup produces: the
// running sum up to and including each domain point.
type DS map[int]int

// Scheme implements arq.RangeAggregateScheme[DS, int, int].
type Scheme struct{}

// New returns a sum-prefix scheme.
func New() Scheme {
	return Scheme{}
}

// Setup computes the running prefix sum over table's domain.
func (Scheme) Setup(table arq.Table) (DS, error) {
	ds := make(DS, table.Domain.Size())
	running := 0
	for p := table.Domain.Start; p < table.Domain.End; p++ {
		for _, v := range table.Filter(p) {
			running += v
		}
		ds[p] = running
	}
	return ds, nil
}

// GenerateQuerier builds the querier for rq over domain.
func (Scheme) GenerateQuerier(domain arq.Domain, rq arq.RangeQuery) (arq.RangeAggregateQuerier[int, int], error) {
	return &querier{domain: domain, initial: rq}, nil
}

type querier struct {
	domain  arq.Domain
	initial arq.RangeQuery
}

// Query returns up to two prefix-sum indices: start-1 and end-1, dropping
// any index below the domain's start.
func (q *querier) Query() []int {
	start := q.initial.Start - 1
	end := q.initial.End - 1

	var keys []int
	if start >= q.domain.Start {
		keys = append(keys, start)
	}
	if end >= q.domain.Start {
		keys = append(keys, end)
	}
	return keys
}

// Resolve subtracts the two prefix sums, or returns the lone prefix value
// when the range starts at the domain's first point.
func (q *querier) Resolve(responses []int) (arq.ResolveResult[int], error) {
	keys := q.Query()
	if len(keys) > 1 {
		return arq.Done[int](arq.Int(int64(responses[1] - responses[0]))), nil
	}
	return arq.Done[int](arq.Int(int64(responses[0]))), nil
}
