// Package modeas implements the approximate range-mode scheme from
// [BKMT05]: the same AS-table dyadic-segment structure minas uses, but
// each entry tracks a running (mode, count) pair instead of a running
// minimum. The result is a 1/2-approximate mode: its count is at least
// half the true mode's count.
package modeas

import (
	"math/bits"

	"github.com/cloudsecuritygroup/arq"
	"github.com/cloudsecuritygroup/arq/errors"
	"github.com/cloudsecuritygroup/arq/serialize"
)

// Key addresses a mode-table entry by (level, index).
type Key struct {
	Level, Index int
}

// ModeCount is the running (mode, count) pair stored at each mode-table
// entry.
type ModeCount struct {
	Mode, Count int
}

// DS is the plaintext data structure modeas's Setup produces.
type DS map[Key]ModeCount

// Scheme implements arq.RangeAggregateScheme[DS, Key, ModeCount].
type Scheme struct{}

// New returns an AS-table approximate-mode scheme.
func New() Scheme {
	return Scheme{}
}

// Setup computes, for every level and every dyadic segment at that level,
// the running (mode, count) from each half of the segment towards its
// midpoint.
//
// The per-point disambiguator collapses each domain point's multiset to
// its own exact mode before the table is built; the table then tracks
// approximate running counts over those per-point modes, not over the
// raw record counts. This is a known source of the scheme's 1/2-factor
// inexactness, inherited as-is.
func (Scheme) Setup(table arq.Table) (DS, error) {
	n := table.Domain.Size()
	endingPower := arq.Log2Ceil(n)
	tablePoints := table.IterateOverUniqueDomainPoints(exactMode)

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

			runningModeDescending(ds, tablePoints, level, start, halfway)
			runningModeAscending(ds, tablePoints, level, halfway, end)
		}
	}
	return ds, nil
}

// exactMode returns the most frequent value in vs, breaking ties in favor
// of whichever value reached the highest count first, or 0 for an empty
// multiset.
func exactMode(vs []int) int {
	if len(vs) == 0 {
		return 0
	}
	counts := make(map[int]int, len(vs))
	mode, modeCount := vs[0], 0
	for _, v := range vs {
		counts[v]++
		if counts[v] > modeCount {
			mode, modeCount = v, counts[v]
		}
	}
	return mode
}

func runningModeDescending(ds DS, tablePoints []int, level, start, halfway int) {
	counts := make(map[int]int)
	mode, count := 0, 0
	for i := halfway - 1; i >= start; i-- {
		value := tablePoints[i]
		counts[value]++
		if counts[value] > count {
			mode, count = value, counts[value]
		}
		ds[Key{Level: level, Index: i}] = ModeCount{Mode: mode, Count: count}
	}
}

func runningModeAscending(ds DS, tablePoints []int, level, halfway, end int) {
	counts := make(map[int]int)
	mode, count := 0, 0
	for i := halfway; i < end; i++ {
		value := tablePoints[i]
		counts[value]++
		if counts[value] > count {
			mode, count = value, counts[value]
		}
		ds[Key{Level: level, Index: i}] = ModeCount{Mode: mode, Count: count}
	}
}

// GenerateQuerier builds the querier for rq over domain.
func (Scheme) GenerateQuerier(domain arq.Domain, rq arq.RangeQuery) (arq.RangeAggregateQuerier[Key, ModeCount], error) {
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

// Resolve returns the mode of whichever response has the highest count.
func (q *querier) Resolve(responses []ModeCount) (arq.ResolveResult[Key], error) {
	if len(responses) == 0 {
		return arq.ResolveResult[Key]{}, errors.E(errors.Empty, "modeas: responses cannot be empty")
	}
	best := responses[0]
	for _, r := range responses[1:] {
		if r.Count > best.Count {
			best = r
		}
	}
	return arq.Done[Key](arq.Int(int64(best.Mode))), nil
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

// ModeCountSerializer packs a ModeCount as serialize.Tuple2Serializer's
// (mode, count) pair, for use as the EDX value serializer when composing
// this scheme.
type ModeCountSerializer struct{}

// Save implements serialize.Serializer.
func (ModeCountSerializer) Save(v ModeCount) ([]byte, error) {
	return serialize.Tuple2Serializer{}.Save(serialize.Tuple2{A: v.Mode, B: v.Count})
}

// Load implements serialize.Serializer.
func (ModeCountSerializer) Load(b []byte) (ModeCount, error) {
	t, err := serialize.Tuple2Serializer{}.Load(b)
	if err != nil {
		return ModeCount{}, err
	}
	return ModeCount{Mode: t.A, Count: t.B}, nil
}
