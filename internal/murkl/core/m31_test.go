package core

import (
	"math/rand"
	"testing"
)

func TestM31Reduction(t *testing.T) {
	cases := []struct {
		in   uint64
		want uint32
	}{
		{0, 0},
		{1, 1},
		{uint64(Prime), 0},
		{uint64(Prime) + 1, 1},
		{2 * uint64(Prime), 0},
		{10610209857723, 1640641543},
		// 2^31 = 1 mod p, so 2^64 - 1 = 2^2 - 1 = 3 mod p.
		{^uint64(0), 3},
	}

	for _, tc := range cases {
		if got := Reduce(tc.in).Value(); got != tc.want {
			t.Errorf("Reduce(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestM31Canonical(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		a := NewM31FromUint64(rng.Uint64())
		b := NewM31FromUint64(rng.Uint64())

		for _, v := range []M31{a.Add(b), a.Sub(b), a.Mul(b), a.Square(), a.Neg()} {
			if v.Value() >= Prime {
				t.Fatalf("non-canonical result %d from a=%d b=%d", v.Value(), a.Value(), b.Value())
			}
		}
	}
}

func TestM31FieldLaws(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		a := NewM31(rng.Uint32())
		b := NewM31(rng.Uint32())
		c := NewM31(rng.Uint32())

		if a.Add(b) != b.Add(a) {
			t.Fatalf("addition not commutative for %d, %d", a, b)
		}
		if a.Add(b).Add(c) != a.Add(b.Add(c)) {
			t.Fatalf("addition not associative for %d, %d, %d", a, b, c)
		}
		if a.Mul(b) != b.Mul(a) {
			t.Fatalf("multiplication not commutative for %d, %d", a, b)
		}
		if a.Mul(b.Add(c)) != a.Mul(b).Add(a.Mul(c)) {
			t.Fatalf("distributivity fails for %d, %d, %d", a, b, c)
		}
		if a.Sub(a) != M31Zero {
			t.Fatalf("a - a != 0 for %d", a)
		}
		if a.Add(a.Neg()) != M31Zero {
			t.Fatalf("a + (-a) != 0 for %d", a)
		}
	}
}

func TestM31Inverse(t *testing.T) {
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 200; i++ {
		a := NewM31(rng.Uint32())
		if a.IsZero() {
			continue
		}

		inv := a.Inv()
		if a.Mul(inv) != M31One {
			t.Fatalf("a * a^-1 != 1 for a=%d", a.Value())
		}
		// Fermat: a^(p-1) = 1 and a^p = a.
		if a.Pow(Prime-1) != M31One {
			t.Fatalf("a^(p-1) != 1 for a=%d", a.Value())
		}
		if a.Pow(Prime) != a {
			t.Fatalf("a^p != a for a=%d", a.Value())
		}
	}
}

func TestM31InverseMatchesPow(t *testing.T) {
	// The addition chain must agree with the naive exponent.
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		a := NewM31(rng.Uint32())
		if a.IsZero() {
			continue
		}
		if a.Inv() != a.Pow(Prime-2) {
			t.Fatalf("inversion chain disagrees with a^(p-2) for a=%d", a.Value())
		}
	}
}

func TestM31InvZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when inverting zero")
		}
	}()
	_ = M31Zero.Inv()
}

func TestM31Div(t *testing.T) {
	a := NewM31(1000)
	b := NewM31(8)
	q := a.Div(b)
	if q.Mul(b) != a {
		t.Fatalf("(a/b)*b != a: got %d", q.Mul(b).Value())
	}
}

func TestM31Bytes(t *testing.T) {
	a := NewM31(0x12345678)
	round := M31FromBytes(a.Bytes())
	if round != a {
		t.Fatalf("byte round-trip failed: %d != %d", round.Value(), a.Value())
	}

	bytes := NewM31(0x01020304).Bytes()
	want := [4]byte{0x04, 0x03, 0x02, 0x01}
	if bytes != want {
		t.Fatalf("little-endian encoding wrong: %v", bytes)
	}
}

func TestBatchInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(17))

	values := make([]M31, 64)
	for i := range values {
		v := NewM31(rng.Uint32())
		for v.IsZero() {
			v = NewM31(rng.Uint32())
		}
		values[i] = v
	}

	inverses := BatchInverse(values)
	if len(inverses) != len(values) {
		t.Fatalf("length mismatch: %d != %d", len(inverses), len(values))
	}
	for i := range values {
		if values[i].Mul(inverses[i]) != M31One {
			t.Fatalf("batch inverse wrong at %d", i)
		}
		if inverses[i] != values[i].Inv() {
			t.Fatalf("batch inverse disagrees with single inverse at %d", i)
		}
	}
}

func TestBatchInverseEmpty(t *testing.T) {
	if BatchInverse(nil) != nil {
		t.Fatal("empty batch should return nil")
	}
}

func TestBatchInverseZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero in batch")
		}
	}()
	_ = BatchInverse([]M31{M31One, M31Zero})
}
