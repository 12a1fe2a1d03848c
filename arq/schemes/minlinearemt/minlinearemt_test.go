package minlinearemt

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

func thirtyTwoDistinctInts() []int {
	vals := make([]int, 32)
	for i := range vals {
		vals[i] = (i*7 + 3) % 97
	}
	return vals
}

func TestMinLinearEMTScenario(t *testing.T) {
	vals := thirtyTwoDistinctInts()
	tbl, err := arq.MakeFromList(vals)
	if err != nil {
		t.Fatal(err)
	}
	rq, err := arq.NewRangeQuery(3, 14)
	if err != nil {
		t.Fatal(err)
	}
	want := vals[3]
	for _, v := range vals[4:14] {
		if v < want {
			want = v
		}
	}
	if got := run(t, tbl, rq); got != int64(want) {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestMinLinearEMTRejectsTooSmallQuery(t *testing.T) {
	tbl, err := arq.MakeFromList(thirtyTwoDistinctInts())
	if err != nil {
		t.Fatal(err)
	}
	s := New()
	rq, err := arq.NewRangeQuery(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.GenerateQuerier(tbl.Domain, rq); err == nil {
		t.Error("expected precondition error for a too-small query")
	}
}
