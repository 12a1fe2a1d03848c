// Package minlinearemt implements the linear-space range-minimum scheme
// from [EMT22]: the domain is divided into blocks of size ceil(log2 n),
// each block carries a prefix-min and suffix-min lookup table, and a
// sparse table over the block minimums answers whatever whole blocks lie
// strictly between the query's boundary blocks. Storage is O(n); queries
// shorter than one block are rejected.
package minlinearemt

import (
	"github.com/cloudsecuritygroup/arq"
	"github.com/cloudsecuritygroup/arq/errors"
	"github.com/cloudsecuritygroup/arq/schemes/minsparse"
	"github.com/cloudsecuritygroup/arq/serialize"
)

// Tag identifies which of the scheme's three sub-tables a Key addresses.
type Tag int

const (
	// TagLookupLeft marks a prefix-min-within-block entry.
	TagLookupLeft Tag = iota
	// TagLookupRight marks a suffix-min-within-block entry.
	TagLookupRight
	// TagSparseTable marks an entry of the block-minimum sparse table.
	TagSparseTable
)

// Key addresses an entry in one of minlinearemt's three sub-tables. For
// TagLookupLeft/TagLookupRight only A (the domain index) is meaningful; B
// is always 0. For TagSparseTable, (A, B) is the underlying sparse table's
// (power, index) pair.
type Key struct {
	Tag  Tag
	A, B int
}

// DS is the plaintext data structure minlinearemt's Setup produces.
type DS map[Key]int

// Scheme implements arq.RangeAggregateScheme[DS, Key, int].
type Scheme struct {
	sparse minsparse.Scheme
}

// New returns a linear-EMT minimum scheme.
func New() Scheme {
	return Scheme{sparse: minsparse.New()}
}

// BlockSize returns the block size minlinearemt uses for a domain of the
// given size: ceil(log2 n), floored at 1.
func BlockSize(domainSize int) int {
	bs := arq.Log2Ceil(domainSize)
	if bs < 1 {
		return 1
	}
	return bs
}

// Setup computes the per-block prefix/suffix minimum lookup tables and a
// sparse table over the block minimums.
func (s Scheme) Setup(table arq.Table) (DS, error) {
	n := table.Domain.Size()
	blockSize := BlockSize(n)
	numBlocks := (n + blockSize - 1) / blockSize

	blocks := make([][]int, numBlocks)
	blockMinimums := make([]int, numBlocks)
	for i := 0; i < numBlocks; i++ {
		start := i * blockSize
		end := start + blockSize
		if end > n {
			end = n
		}
		rq, err := arq.NewRangeQuery(start, end)
		if err != nil {
			return nil, err
		}
		block := table.FilterRange(rq)
		blocks[i] = block
		if len(block) == 0 {
			blockMinimums[i] = 0
			continue
		}
		m := block[0]
		for _, v := range block[1:] {
			if v < m {
				m = v
			}
		}
		blockMinimums[i] = m
	}

	blockMinimumTable, err := arq.MakeFromList(blockMinimums)
	if err != nil {
		return nil, err
	}
	sparseDS, err := s.sparse.Setup(blockMinimumTable)
	if err != nil {
		return nil, err
	}

	ds := make(DS, len(sparseDS)+2*n)
	for key, value := range sparseDS {
		ds[Key{Tag: TagSparseTable, A: key.Power, B: key.Index}] = value
	}

	lookupLeft := make([]int, n)
	lookupRight := make([]int, n)
	for i, block := range blocks {
		start := i * blockSize
		running := 0
		for j, v := range block {
			if j == 0 || v < running {
				running = v
			}
			lookupLeft[start+j] = running
		}
		running = 0
		for j := len(block) - 1; j >= 0; j-- {
			v := block[j]
			if j == len(block)-1 || v < running {
				running = v
			}
			lookupRight[start+j] = running
		}
	}
	for index, value := range lookupLeft {
		ds[Key{Tag: TagLookupLeft, A: index}] = value
	}
	for index, value := range lookupRight {
		ds[Key{Tag: TagLookupRight, A: index}] = value
	}

	return ds, nil
}

// GenerateQuerier builds the querier for rq over domain. It returns a
// Precondition error if rq does not span at least one full block — this
// scheme's minimum supported query length.
func (s Scheme) GenerateQuerier(domain arq.Domain, rq arq.RangeQuery) (arq.RangeAggregateQuerier[Key, int], error) {
	blockSize := BlockSize(domain.Size())
	startBlockIndex := rq.Start / blockSize
	endBlockIndex := rq.End / blockSize
	if rq.Length() < blockSize {
		return nil, errors.E(errors.Precondition, "minlinearemt: query too small")
	}

	var sparseKeys []Key
	if endBlockIndex-startBlockIndex > 1 {
		sparseRQ, err := arq.NewRangeQuery(startBlockIndex+1, endBlockIndex)
		if err != nil {
			return nil, err
		}
		sparseQuerier, err := s.sparse.GenerateQuerier(domain, sparseRQ)
		if err != nil {
			return nil, err
		}
		for _, k := range sparseQuerier.Query() {
			sparseKeys = append(sparseKeys, Key{Tag: TagSparseTable, A: k.Power, B: k.Index})
		}
	}

	return &querier{initial: rq, sparseKeys: sparseKeys}, nil
}

type querier struct {
	initial    arq.RangeQuery
	sparseKeys []Key
}

// Query returns the two boundary lookup-table keys, plus — when the query
// spans more than one whole block — the sparse-table keys covering the
// blocks strictly between the boundary blocks.
func (q *querier) Query() []Key {
	queries := []Key{
		{Tag: TagLookupRight, A: q.initial.Start},
		{Tag: TagLookupLeft, A: q.initial.End - 1},
	}
	return append(queries, q.sparseKeys...)
}

// Resolve returns the minimum of the responses.
func (q *querier) Resolve(responses []int) (arq.ResolveResult[Key], error) {
	if len(responses) == 0 {
		return arq.ResolveResult[Key]{}, errors.E(errors.Empty, "minlinearemt: responses cannot be empty")
	}
	m := responses[0]
	for _, v := range responses[1:] {
		if v < m {
			m = v
		}
	}
	return arq.Done[Key](arq.Int(int64(m))), nil
}

// KeySerializer packs a Key as serialize.Tuple3Serializer's (tag, a, b)
// triple, for use as the EDX key serializer when composing this scheme.
type KeySerializer struct{}

// Save implements serialize.Serializer.
func (KeySerializer) Save(k Key) ([]byte, error) {
	return serialize.Tuple3Serializer{}.Save(serialize.Tuple3{Tag: int(k.Tag), A: k.A, B: k.B})
}

// Load implements serialize.Serializer.
func (KeySerializer) Load(b []byte) (Key, error) {
	t, err := serialize.Tuple3Serializer{}.Load(b)
	if err != nil {
		return Key{}, err
	}
	return Key{Tag: Tag(t.Tag), A: t.A, B: t.B}, nil
}
