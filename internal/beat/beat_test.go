package beat

import "testing"

func TestCompare(t *testing.T) {
	half := MustNew(1, 2)
	one := MustNew(1, 1)
	alsoHalf := MustNew(2, 4)

	if !Less(half, one) {
		t.Fatalf("expected 1/2 < 1/1")
	}
	if !Equal(half, alsoHalf) {
		t.Fatalf("expected 1/2 == 2/4")
	}
	if Compare(one, half) <= 0 {
		t.Fatalf("expected 1/1 > 1/2")
	}
}

func TestAddSub(t *testing.T) {
	a := MustNew(1, 2)
	b := MustNew(1, 3)

	sum := Add(a, b)
	if sum.N != 5 || sum.D != 6 {
		t.Fatalf("1/2 + 1/3 = %v, want 5/6", sum)
	}

	diff := Sub(sum, b)
	if !Equal(diff, a) {
		t.Fatalf("(1/2+1/3)-1/3 = %v, want 1/2", diff)
	}
}

func TestReduceOnConstruction(t *testing.T) {
	b := MustNew(4, 8)
	if b.N != 1 || b.D != 2 {
		t.Fatalf("4/8 should reduce to 1/2, got %v", b)
	}
}

func TestFloor(t *testing.T) {
	if got := MustNew(7, 2).Floor(); got != 3 {
		t.Fatalf("floor(7/2) = %d, want 3", got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	w := NewWriter(0)
	if err := w.WriteString("hello"); err != nil {
		t.Fatal(err)
	}
	r := NewReader(w.Bytes())
	s, err := r.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Fatalf("got %q", s)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected reader exhausted, %d bytes left", r.Remaining())
	}
}

func TestStringNotTerminated(t *testing.T) {
	r := NewReader([]byte("no terminator"))
	if _, err := r.ReadString(); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestFloat16SignedZero(t *testing.T) {
	posZero := ToFloat16(0)
	negZero := ToFloat16(0).Negate()

	if posZero.Negative() {
		t.Fatalf("+0 should not be negative")
	}
	if !negZero.Negative() {
		t.Fatalf("-0 should be negative")
	}
	if negZero.Float64() != 0 {
		t.Fatalf("-0 should widen to 0, got %v", negZero.Float64())
	}
}

func TestFloat16RoundTrip(t *testing.T) {
	cases := []float64{0, 0.5, 1, 1.5, 0.25, 100, -0.5}
	for _, c := range cases {
		got := ToFloat16(c).Float64()
		if got != c {
			t.Errorf("ToFloat16(%v).Float64() = %v", c, got)
		}
	}
}
