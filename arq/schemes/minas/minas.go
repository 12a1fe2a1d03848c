// Package minas implements the one-dimensional range-minimum scheme built
// on the [AS87] interval-selection technique: every domain point stores a
// running minimum towards the two halves of its enclosing dyadic segment
// at every level, so any range is answered by looking up exactly the pair
// of levels/points implied by its endpoints' highest differing bit.
package minas

import (
	"math/bits"

	"github.com/cloudsecuritygroup/arq"
	"github.com/cloudsecuritygroup/arq/errors"
	"github.com/cloudsecuritygroup/arq/serialize"
)

// Key addresses an AS-table entry by (level, index).
type Key struct {
	Level, Index int
}

// DS is the plaintext data structure minas's Setup produces.
type DS map[Key]int

// Scheme implements arq.RangeAggregateScheme[DS, Key, int].
type Scheme struct{}

// New returns an AS-table minimum scheme.
func New() Scheme {
	return Scheme{}
}

// Setup computes, for every level in [0, ceil(log2 n)] and every dyadic
// segment of size 2^level at that level, the running minimum from each
// half of the segment towards its midpoint.
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
	for level := 0; level <= endingPower; level++ {
		rangeSize := 1 << uint(level)
		numSegments := (n + rangeSize - 1) / rangeSize

		for segment := 0; segment < numSegments; segment++ {
			start := segment * rangeSize
			end := start + rangeSize
			if end > n {
				end = n
			}
			halfway := start + rangeSize/2
			if halfway > end {
				halfway = end
			}

			runningMinimumDescending(ds, tablePoints, level, start, halfway)
			runningMinimumAscending(ds, tablePoints, level, halfway, end)
		}
	}
	return ds, nil
}

func runningMinimumDescending(ds DS, tablePoints []int, level, start, halfway int) {
	current, has := 0, false
	for i := halfway - 1; i >= start; i-- {
		value := tablePoints[i]
		if !has || value < current {
			current, has = value, true
		}
		ds[Key{Level: level, Index: i}] = current
	}
}

func runningMinimumAscending(ds DS, tablePoints []int, level, halfway, end int) {
	current, has := 0, false
	for i := halfway; i < end; i++ {
		value := tablePoints[i]
		if !has || value < current {
			current, has = value, true
		}
		ds[Key{Level: level, Index: i}] = current
	}
}

// GenerateQuerier builds the querier for rq over domain.
func (Scheme) GenerateQuerier(domain arq.Domain, rq arq.RangeQuery) (arq.RangeAggregateQuerier[Key, int], error) {
	return &querier{domain: domain, initial: rq}, nil
}

type querier struct {
	domain  arq.Domain
	initial arq.RangeQuery
}

// Query returns the level implied by the highest bit at which start and
// end-1 differ, along with the (level, start) and (level, end-1) keys.
func (q *querier) Query() []Key {
	start := q.initial.Start
	end := q.initial.End - 1
	level := bits.Len(uint(start ^ end))

	k1 := Key{Level: level, Index: start}
	k2 := Key{Level: level, Index: end}
	if k1 == k2 {
		return []Key{k1}
	}
	return []Key{k1, k2}
}

// Resolve returns the minimum of the responses.
func (q *querier) Resolve(responses []int) (arq.ResolveResult[Key], error) {
	if len(responses) == 0 {
		return arq.ResolveResult[Key]{}, errors.E(errors.Empty, "minas: responses cannot be empty")
	}
	m := responses[0]
	for _, v := range responses[1:] {
		if v < m {
			m = v
		}
	}
	return arq.Done[Key](arq.Int(int64(m))), nil
}

// KeySerializer packs a Key as serialize.Tuple2Serializer's (level, index)
// pair, for use as the EDX key serializer when composing this scheme.
type KeySerializer struct{}

// Save implements serialize.Serializer.
func (KeySerializer) Save(k Key) ([]byte, error) {
	return serialize.Tuple2Serializer{}.Save(serialize.Tuple2{A: k.Level, B: k.Index})
}

// Load implements serialize.Serializer.
func (KeySerializer) Load(b []byte) (Key, error) {
	t, err := serialize.Tuple2Serializer{}.Load(b)
	if err != nil {
		return Key{}, err
	}
	return Key{Level: t.A, Index: t.B}, nil
}
