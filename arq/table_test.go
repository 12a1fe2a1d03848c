package arq

import "testing"

func TestMakeFromList(t *testing.T) {
	tbl, err := MakeFromList([]int{10, 20, 30})
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Domain != (Domain{Start: 0, End: 3}) {
		t.Errorf("domain = %v, want [0,3)", tbl.Domain)
	}
	if got := tbl.Filter(1); len(got) != 1 || got[0] != 20 {
		t.Errorf("Filter(1) = %v, want [20]", got)
	}
	if got := tbl.Filter(5); len(got) != 0 {
		t.Errorf("Filter(5) = %v, want empty", got)
	}
}

func TestMakeDerivesSmallestContainingDomain(t *testing.T) {
	tbl, err := Make([]Record{{Point: 3, Value: 1}, {Point: 7, Value: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Domain != (Domain{Start: 3, End: 8}) {
		t.Errorf("domain = %v, want [3,8)", tbl.Domain)
	}
	if got := tbl.Filter(5); len(got) != 0 {
		t.Errorf("Filter(5) = %v, want empty (missing interior point)", got)
	}
}

func TestMakeAllowsDuplicatePoints(t *testing.T) {
	tbl, err := Make([]Record{{Point: 1, Value: 5}, {Point: 1, Value: 9}})
	if err != nil {
		t.Fatal(err)
	}
	got := tbl.Filter(1)
	if len(got) != 2 {
		t.Fatalf("Filter(1) = %v, want 2 values", got)
	}
}

func TestMakeRejectsEmpty(t *testing.T) {
	if _, err := Make(nil); err == nil {
		t.Error("expected error for empty records")
	}
}

func TestFilterRange(t *testing.T) {
	tbl, err := MakeFromList([]int{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatal(err)
	}
	rq, err := NewRangeQuery(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	got := tbl.FilterRange(rq)
	want := map[int]bool{2: true, 3: true, 4: true}
	if len(got) != 3 {
		t.Fatalf("FilterRange = %v, want 3 elements", got)
	}
	for _, v := range got {
		if !want[v] {
			t.Errorf("unexpected value %d in FilterRange result", v)
		}
	}
}

func TestIterateOverUniqueDomainPoints(t *testing.T) {
	tbl, err := Make([]Record{{Point: 0, Value: 5}, {Point: 0, Value: 1}, {Point: 1, Value: 9}})
	if err != nil {
		t.Fatal(err)
	}
	min := func(vs []int) int {
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
	}
	got := tbl.IterateOverUniqueDomainPoints(min)
	want := []int{1, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d: got %d, want %d", i, got[i], want[i])
		}
	}
}
