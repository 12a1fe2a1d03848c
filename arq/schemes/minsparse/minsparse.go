// Package minsparse implements the one-dimensional sparse-table technique
// for range-minimum queries from [BFPSS05]: O(n log n) precomputed window
// minimums answered by a pair of O(1) table lookups.
package minsparse

import (
	"github.com/cloudsecuritygroup/arq"
	"github.com/cloudsecuritygroup/arq/errors"
	"github.com/cloudsecuritygroup/arq/serialize"
)

// Key addresses a sparse-table entry by (power, index): the minimum of the
// window of size 2^power ending at table position index.
type Key struct {
	Power, Index int
}

// DS is the plaintext data structure minsparse's Setup produces.
type DS map[Key]int

// Scheme implements arq.RangeAggregateScheme[DS, Key, int].
type Scheme struct{}

// New returns a sparse-table minimum scheme.
func New() Scheme {
	return Scheme{}
}

// Setup computes, for every power p in [0, ceil(log2 n)) and every table
// position i, the minimum of the left-hanging window [i-2^p+1, i].
func (Scheme) Setup(table arq.Table) (DS, error) {
	n := table.Domain.Size()
	endingPower := arq.Log2Ceil(n)
	tablePoints := table.IterateOverUniqueDomainPoints(func(vs []int) int {
		if len(vs) == 0 {
			return 0
		}
		m := vs[0]
		for _, v := range vs[1:] {
			if v < m {
				m = v
			}
		}
		return m
	})

	ds := make(DS)
	for power := 0; power < endingPower; power++ {
		windowSize := 1 << uint(power)
		for index, minimum := range slidingWindowMinimum(windowSize, tablePoints) {
			ds[Key{Power: power, Index: index}] = minimum
		}
	}
	return ds, nil
}

// slidingWindowMinimum returns, for each position i in lst, the minimum of
// lst[max(i-windowSize+1, 0) : i+1], computed with a monotonic deque in
// amortized O(1) per element.
func slidingWindowMinimum(windowSize int, lst []int) []int {
	type entry struct{ value, index int }
	var window []entry
	out := make([]int, len(lst))
	for i, x := range lst {
		for len(window) > 0 && window[len(window)-1].value >= x {
			window = window[:len(window)-1]
		}
		window = append(window, entry{value: x, index: i})
		for len(window) > 0 && window[0].index <= i-windowSize {
			window = window[1:]
		}
		out[i] = window[0].value
	}
	return out
}

// GenerateQuerier builds the querier for rq over domain.
func (Scheme) GenerateQuerier(domain arq.Domain, rq arq.RangeQuery) (arq.RangeAggregateQuerier[Key, int], error) {
	return &querier{domain: domain, initial: rq}, nil
}

type querier struct {
	domain  arq.Domain
	initial arq.RangeQuery
}

// Query returns the (power, index) keys for the two (possibly
// overlapping) windows of size 2^power that cover the query range:
// one left-aligned with the query's start, one right-aligned with its end.
func (q *querier) Query() []Key {
	power := arq.Log2Floor(q.initial.End - q.initial.Start)
	windowSize := 1 << uint(power)

	k1 := Key{Power: power, Index: q.initial.Start + windowSize - 1}
	k2 := Key{Power: power, Index: q.initial.End - 1}
	if k1 == k2 {
		return []Key{k1}
	}
	return []Key{k1, k2}
}

// Resolve returns the minimum of the responses.
func (q *querier) Resolve(responses []int) (arq.ResolveResult[Key], error) {
	if len(responses) == 0 {
		return arq.ResolveResult[Key]{}, errors.E(errors.Empty, "minsparse: responses cannot be empty")
	}
	m := responses[0]
	for _, v := range responses[1:] {
		if v < m {
			m = v
		}
	}
	return arq.Done[Key](arq.Int(int64(m))), nil
}

// KeySerializer packs a Key as serialize.Tuple2Serializer's (power, index)
// pair, for use as the EDX key serializer when composing this scheme.
type KeySerializer struct{}

// Save implements serialize.Serializer.
func (KeySerializer) Save(k Key) ([]byte, error) {
	return serialize.Tuple2Serializer{}.Save(serialize.Tuple2{A: k.Power, B: k.Index})
}

// Load implements serialize.Serializer.
func (KeySerializer) Load(b []byte) (Key, error) {
	t, err := serialize.Tuple2Serializer{}.Load(b)
	if err != nil {
		return Key{}, err
	}
	return Key{Power: t.A, Index: t.B}, nil
}
