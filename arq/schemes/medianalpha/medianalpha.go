// Package medianalpha implements the alpha-approximate range-median
// scheme from [BKMT05]. For a sufficiently long query, the influence of a
// small prefix/suffix of the interval on the median is bounded, so the
// scheme only precomputes a bounded-width family of candidate medians per
// dyadic block instead of one exact median per possible range.
package medianalpha

import (
	"math"
	"sort"
	"strconv"

	"github.com/cloudsecuritygroup/arq"
	"github.com/cloudsecuritygroup/arq/errors"
	"github.com/cloudsecuritygroup/arq/serialize"
)

// Key addresses a median-table entry by (level, block).
type Key struct {
	Level, Block int
}

// DS is the plaintext data structure medianalpha's Setup produces: the
// list of P candidate medians stored at each (level, block) key.
type DS map[Key][]int

// Scheme implements arq.RangeAggregateScheme[DS, Key, []int], parameterized
// by the approximation factor Alpha.
type Scheme struct {
	// Alpha is the approximation factor, required to satisfy 0 < Alpha < 1.
	// Accuracy improves as Alpha tends to 1, at the cost of a larger P and
	// proportionally larger storage.
	Alpha float64
}

// New returns an alpha-approximate median scheme. It rejects alpha values
// outside (0, 1).
func New(alpha float64) (Scheme, error) {
	if !(0 < alpha && alpha < 1) {
		return Scheme{}, errors.E(errors.Invalid, "medianalpha: alpha must satisfy 0 < alpha < 1")
	}
	return Scheme{Alpha: alpha}, nil
}

// maxP returns P = ceil(2(1+alpha)/(1-alpha)), the number of candidate
// medians tracked per block.
func (s Scheme) maxP() int {
	return int(math.Ceil((2 * (1 + s.Alpha)) / (1 - s.Alpha)))
}

// Setup computes, for every level in [1, K] (block = 2^(K-level)) and
// every block index j, the list of P exact medians of the ranges
// [start, start+p*block) for p in [1, P].
func (s Scheme) Setup(table arq.Table) (DS, error) {
	n := table.Domain.Size()
	k := arq.Log2Ceil(n)
	maxP := s.maxP()

	ds := make(DS)
	for level := 1; level <= k; level++ {
		blockSize := 1 << uint(k-level)
		numBlocks := ceilDiv(n, blockSize)

		for j := 1; j <= numBlocks; j++ {
			medians := make([]int, 0, maxP)
			for p := 1; p <= maxP; p++ {
				start := (j - 1) * blockSize
				if start > table.Domain.End-1 {
					start = table.Domain.End - 1
				}
				end := start + p*blockSize
				if end > table.Domain.End {
					end = table.Domain.End
				}
				entries := table.FilterRange(arq.RangeQuery{Start: start, End: end})
				medians = append(medians, exactMedian(entries))
			}
			ds[Key{Level: level, Block: j}] = medians
		}
	}
	return ds, nil
}

// exactMedian returns the element at rank ceil(n/2) (1-indexed) of the
// sorted multiset, or 0 for an empty multiset.
func exactMedian(vs []int) int {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]int(nil), vs...)
	sort.Ints(sorted)
	midpoint := (len(sorted)+1)/2 - 1
	return sorted[midpoint]
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// GenerateQuerier builds the querier for rq over domain.
func (s Scheme) GenerateQuerier(domain arq.Domain, rq arq.RangeQuery) (arq.RangeAggregateQuerier[Key, []int], error) {
	maxBlocks := 2 * int(math.Ceil((2*s.Alpha)/(1-s.Alpha)))

	maximumLevel := arq.Log2Ceil(domain.Size())
	initialLevel := maximumLevel - arq.Log2Floor(rq.Length()) + 1

	levelOffset := arq.Log2Floor(maxBlocks+2) - 2
	level := initialLevel + levelOffset
	if level > maximumLevel {
		level = maximumLevel
	}

	blockSize := 1 << uint(maximumLevel-level)
	startBlockIndex := ceilDiv(rq.Start, blockSize) + 1
	endBlockIndex := rq.End / blockSize

	return &querier{
		key: Key{Level: level, Block: startBlockIndex},
		p:   endBlockIndex - startBlockIndex,
	}, nil
}

type querier struct {
	key Key
	p   int
}

// Query returns the single (level, block) key whose candidate-median list
// contains this range's approximate median.
func (q *querier) Query() []Key {
	return []Key{q.key}
}

// Resolve returns the p-th candidate median from the single response,
// wrapped as an exact decimal.
func (q *querier) Resolve(responses [][]int) (arq.ResolveResult[Key], error) {
	if len(responses) == 0 {
		return arq.ResolveResult[Key]{}, errors.E(errors.Empty, "medianalpha: responses cannot be empty")
	}
	candidates := responses[0]
	if q.p < 0 || q.p >= len(candidates) {
		return arq.ResolveResult[Key]{}, errors.E(errors.Integrity, "medianalpha: candidate index out of range")
	}
	return arq.Done[Key](arq.Decimal(strconv.Itoa(candidates[q.p]))), nil
}

// KeySerializer packs a Key as serialize.Tuple2Serializer's (level, block)
// pair, for use as the EDX key serializer when composing this scheme.
type KeySerializer struct{}

// Save implements serialize.Serializer.
func (KeySerializer) Save(k Key) ([]byte, error) {
	return serialize.Tuple2Serializer{}.Save(serialize.Tuple2{A: k.Level, B: k.Block})
}

// Load implements serialize.Serializer.
func (KeySerializer) Load(b []byte) (Key, error) {
	t, err := serialize.Tuple2Serializer{}.Load(b)
	if err != nil {
		return Key{}, err
	}
	return Key{Level: t.A, Block: t.B}, nil
}
