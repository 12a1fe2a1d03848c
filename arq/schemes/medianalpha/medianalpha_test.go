package medianalpha

import (
	"strconv"
	"testing"

	"github.com/cloudsecuritygroup/arq"
)

func run(t *testing.T, s Scheme, tbl arq.Table, rq arq.RangeQuery) int64 {
	t.Helper()
	ds, err := s.Setup(tbl)
	if err != nil {
		t.Fatal(err)
	}
	q, err := s.GenerateQuerier(tbl.Domain, rq)
	if err != nil {
		t.Fatal(err)
	}
	keys := q.Query()
	responses := make([][]int, len(keys))
	for i, k := range keys {
		responses[i] = ds[k]
	}
	result, err := q.Resolve(responses)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsDone() {
		t.Fatal("expected Done result")
	}
	n, err := strconv.ParseInt(result.Aggregate().String(), 10, 64)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestNewRejectsOutOfRangeAlpha(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("expected error for alpha == 0")
	}
	if _, err := New(1); err == nil {
		t.Error("expected error for alpha == 1")
	}
}

func TestMedianAlphaApproximatesExactMedian(t *testing.T) {
	s, err := New(0.5)
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := arq.MakeFromList([]int{0, 1, 2, 3, 4, 5, 6, 7})
	if err != nil {
		t.Fatal(err)
	}
	rq, err := arq.NewRangeQuery(0, 7)
	if err != nil {
		t.Fatal(err)
	}

	got := run(t, s, tbl, rq)
	if got < 1 || got > 6 {
		t.Errorf("got %d, want a value in [1, 6] (alpha-approximate median band)", got)
	}
}
