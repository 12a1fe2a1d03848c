package minsparse

import (
	"testing"

	"github.com/cloudsecuritygroup/arq"
)

func run(t *testing.T, tbl arq.Table, rq arq.RangeQuery) int64 {
	t.Helper()
	s := New()
	ds, err := s.Setup(tbl)
	if err != nil {
		t.Fatal(err)
	}
	q, err := s.GenerateQuerier(tbl.Domain, rq)
	if err != nil {
		t.Fatal(err)
	}
	keys := q.Query()
	responses := make([]int, len(keys))
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
	return result.Aggregate().Int64()
}

func TestMinSparseScenario(t *testing.T) {
	tbl, err := arq.MakeFromList([]int{5, 3, 8, 1, 9, 2, 7})
	if err != nil {
		t.Fatal(err)
	}
	rq, err := arq.NewRangeQuery(0, 6)
	if err != nil {
		t.Fatal(err)
	}
	if got := run(t, tbl, rq); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestMinSparseSinglePoint(t *testing.T) {
	tbl, err := arq.MakeFromList([]int{5, 3, 8})
	if err != nil {
		t.Fatal(err)
	}
	rq, err := arq.NewRangeQuery(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := run(t, tbl, rq); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}
