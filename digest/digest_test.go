package digest

import (
	"bytes"
	"encoding/gob"
	"testing"
)

func TestDigest(t *testing.T) {
	d := SHA512.FromString("hello, world!")
	want := "sha512:6c2618358da07c830b88c5af8c3535080e8e603c88b891028a259ccdb9ac802d0fc0170c99d58affcf00786ce188fc5d753e8c6628af2071c3270d50445c4b1c"
	if got := d.String(); got != want {
		t.Fatalf("got %v want %v", got, want)
	}
	dd, err := Parse(want)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if dd != d {
		t.Fatalf("got %v want %v", dd, d)
	}
	dd, err = SHA512.Parse(d.Hex())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if dd != d {
		t.Fatalf("got %v want %v", dd, d)
	}
}

func TestDigestEqualAndComparable(t *testing.T) {
	a := SHA512.FromString("one")
	b := SHA512.FromString("one")
	c := SHA512.FromString("two")
	if a != b {
		t.Error("equal inputs should produce equal digests")
	}
	if !Equal(a, b) {
		t.Error("Equal should agree with ==")
	}
	if a == c {
		t.Error("distinct inputs should not collide")
	}
	m := map[Digest]int{a: 1}
	m[b] = 2
	if len(m) != 1 {
		t.Errorf("expected a and b to collapse to one map key, got %d", len(m))
	}
}

func TestWriter(t *testing.T) {
	w := SHA512.NewWriter()
	if _, err := w.Write([]byte("hello, ")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("world!")); err != nil {
		t.Fatal(err)
	}
	if got, want := w.Digest(), SHA512.FromString("hello, world!"); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestGob(t *testing.T) {
	id := SHA512.FromString("round trip me")
	var b bytes.Buffer
	if err := gob.NewEncoder(&b).Encode(id); err != nil {
		t.Fatal(err)
	}
	var id2 Digest
	if err := gob.NewDecoder(&b).Decode(&id2); err != nil {
		t.Fatal(err)
	}
	if id2 != id {
		t.Errorf("got %v, want %v", id2, id)
	}
}

func TestParseZero(t *testing.T) {
	for _, s := range []string{"", "<zero>"} {
		h, err := Parse(s)
		if err != nil {
			t.Fatal(err)
		}
		if h != (Digest{}) {
			t.Errorf("got %v, want zero digest", h)
		}
		if !h.IsZero() {
			t.Error("expected IsZero")
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"nope", "sha512", "md5:deadbeef", "sha512:zz"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q): expected error", s)
		}
	}
}
