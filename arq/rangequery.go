package arq

import (
	"crypto/rand"
	"math"
	"math/big"

	"github.com/cloudsecuritygroup/arq/errors"
)

// RangeQuery is a half-open sub-interval [Start, End) of a Domain.
type RangeQuery struct {
	Start, End int
}

// NewRangeQuery constructs a RangeQuery, rejecting empty or inverted
// intervals.
func NewRangeQuery(start, end int) (RangeQuery, error) {
	if start >= end {
		return RangeQuery{}, errors.E(errors.Invalid, "RangeQuery: start must be < end")
	}
	return RangeQuery{Start: start, End: end}, nil
}

// Length returns the number of domain points the query spans.
func (q RangeQuery) Length() int {
	return q.End - q.Start
}

// EnumerateAll yields every RangeQuery contained in domain, in increasing
// order of start and then end.
func EnumerateAll(domain Domain) []RangeQuery {
	var out []RangeQuery
	for start := domain.Start; start < domain.End; start++ {
		for end := start + 1; end <= domain.End; end++ {
			out = append(out, RangeQuery{Start: start, End: end})
		}
	}
	return out
}

// PercentileSample pairs a sampled RangeQuery with the percentile-of-domain
// bucket it was sampled from.
type PercentileSample struct {
	Percentile int
	Query      RangeQuery
}

// EnumerateSamplesFromBuckets draws numSamplesPerBucket random queries from
// each percentile-of-domain-size bucket, where buckets are spaced
// bucketSize percentiles apart (e.g. bucketSize=10 produces buckets at the
// 10th, 20th, ..., 100th percentile of the domain's size). Buckets whose
// length rounds down to zero are skipped.
func EnumerateSamplesFromBuckets(domain Domain, bucketSize, numSamplesPerBucket int) ([]PercentileSample, error) {
	if bucketSize <= 0 || bucketSize > 100 {
		return nil, errors.E(errors.Invalid, "EnumerateSamplesFromBuckets: bucketSize must be in (0, 100]")
	}
	numberOfBuckets := int(math.Ceil(100.0 / float64(bucketSize)))

	var out []PercentileSample
	for bucket := 0; bucket < numberOfBuckets; bucket++ {
		percentile := (bucket + 1) * bucketSize
		bucketLength := int(math.Floor(float64(percentile) / 100.0 * float64(domain.Size())))
		if bucketLength < 1 {
			continue
		}
		startUpperBound := domain.End - bucketLength - 1
		if startUpperBound < domain.Start {
			startUpperBound = domain.Start
		}
		for i := 0; i < numSamplesPerBucket; i++ {
			start, err := randIntn(domain.Start, startUpperBound)
			if err != nil {
				return nil, err
			}
			end := start + bucketLength
			if end > domain.End {
				end = domain.End
			}
			out = append(out, PercentileSample{Percentile: percentile, Query: RangeQuery{Start: start, End: end}})
		}
	}
	return out, nil
}

// randIntn returns a uniformly random integer in [lo, hi], inclusive.
func randIntn(lo, hi int) (int, error) {
	if hi < lo {
		return lo, nil
	}
	span := int64(hi-lo) + 1
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, errors.E(errors.Integrity, "sampling random range start", err)
	}
	return lo + int(n.Int64()), nil
}
