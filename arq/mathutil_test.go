package arq

import "testing"

func TestLog2Floor(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 3: 1, 4: 2, 5: 2, 7: 2, 8: 3, 1023: 9, 1024: 10}
	for x, want := range cases {
		if got := Log2Floor(x); got != want {
			t.Errorf("Log2Floor(%d) = %d, want %d", x, got, want)
		}
	}
}

func TestLog2Ceil(t *testing.T) {
	cases := map[int]int{1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 9: 4, 1024: 10, 1025: 11}
	for x, want := range cases {
		if got := Log2Ceil(x); got != want {
			t.Errorf("Log2Ceil(%d) = %d, want %d", x, got, want)
		}
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1000: 1024, 1024: 1024}
	for x, want := range cases {
		got, err := NextPowerOfTwo(x)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", x, got, want)
		}
	}
}

func TestNextPowerOfTwoRejectsNonPositive(t *testing.T) {
	if _, err := NextPowerOfTwo(0); err == nil {
		t.Error("expected error for x=0")
	}
	if _, err := NextPowerOfTwo(-5); err == nil {
		t.Error("expected error for x<0")
	}
}
