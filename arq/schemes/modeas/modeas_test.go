package modeas

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
	responses := make([]ModeCount, len(keys))
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

func TestModeASApproximatesExactMode(t *testing.T) {
	tbl, err := arq.MakeFromList([]int{0, 1, 1, 1, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	rq, err := arq.NewRangeQuery(0, 6)
	if err != nil {
		t.Fatal(err)
	}

	exactModeCount := map[int]int{0: 1, 1: 3, 2: 2}
	wantMinCount := 2 // ceil(0.5 * 3)

	got := run(t, tbl, rq)
	if count, ok := exactModeCount[int(got)]; !ok || count < wantMinCount {
		t.Errorf("result %d has count %d, want count >= %d", got, count, wantMinCount)
	}
}
