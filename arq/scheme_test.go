package arq

import "testing"

func TestResolveResultDone(t *testing.T) {
	r := Done[int](Int(42))
	if !r.IsDone() {
		t.Fatal("expected Done result")
	}
	if r.Aggregate().Int64() != 42 {
		t.Errorf("Aggregate() = %v, want 42", r.Aggregate())
	}
}

func TestResolveResultContinue(t *testing.T) {
	r := Continue[int]([]int{1, 2, 3})
	if r.IsDone() {
		t.Fatal("expected non-Done result")
	}
	if len(r.NextKeys()) != 3 {
		t.Errorf("NextKeys() = %v, want 3 elements", r.NextKeys())
	}
}
