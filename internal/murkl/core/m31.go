package core

import "fmt"

// Prime is the Mersenne-31 prime: 2^31 - 1.
const Prime uint32 = (1 << 31) - 1

// ModulusBits is the number of bits in the modulus.
const ModulusBits = 31

// M31 is an element of the Mersenne-31 field.
//
// The value is always kept in canonical form, i.e. in the range [0, Prime).
// All constructors reduce their input; arithmetic preserves canonicity.
type M31 uint32

// M31Zero is the additive identity.
const M31Zero M31 = 0

// M31One is the multiplicative identity.
const M31One M31 = 1

// NewM31 creates a field element from any uint32, reducing modulo the prime.
func NewM31(value uint32) M31 {
	return Reduce(uint64(value))
}

// NewM31FromUint64 creates a field element from any uint64, reducing modulo
// the prime.
func NewM31FromUint64(value uint64) M31 {
	return Reduce(value)
}

// Reduce performs the fast Mersenne reduction x mod (2^31 - 1).
//
// Uses the identity x mod (2^31 - 1) = (x & p) + (x >> 31), folded twice so
// that any 64-bit input ends up canonical after a single conditional
// subtraction.
func Reduce(x uint64) M31 {
	x = (x & uint64(Prime)) + (x >> 31)
	x = (x & uint64(Prime)) + (x >> 31)
	if x >= uint64(Prime) {
		x -= uint64(Prime)
	}
	return M31(x)
}

// PartialReduce reduces a value known to be in [0, 2p).
func PartialReduce(val uint32) M31 {
	if val >= Prime {
		val -= Prime
	}
	return M31(val)
}

// Add returns a + b in the field.
func (a M31) Add(b M31) M31 {
	return PartialReduce(uint32(a) + uint32(b))
}

// Sub returns a - b in the field.
func (a M31) Sub(b M31) M31 {
	// Add p before subtracting to avoid underflow.
	return PartialReduce(uint32(a) + Prime - uint32(b))
}

// Mul returns a * b in the field.
func (a M31) Mul(b M31) M31 {
	return Reduce(uint64(a) * uint64(b))
}

// Square returns a * a in the field.
func (a M31) Square() M31 {
	return Reduce(uint64(a) * uint64(a))
}

// Double returns a + a in the field.
func (a M31) Double() M31 {
	return a.Add(a)
}

// Neg returns the additive inverse.
func (a M31) Neg() M31 {
	if a == 0 {
		return a
	}
	return M31(Prime - uint32(a))
}

// Pow computes a^exp using square-and-multiply.
func (a M31) Pow(exp uint32) M31 {
	base := a
	result := M31One
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Square()
		exp >>= 1
	}
	return result
}

// Inv computes the multiplicative inverse via a^(p-2).
//
// Inverting zero is a programmer error and panics.
func (a M31) Inv() M31 {
	if a.IsZero() {
		panic("core: cannot invert zero")
	}
	return pow2147483645(a)
}

// Div returns a / b. Panics when b is zero.
func (a M31) Div(b M31) M31 {
	return a.Mul(b.Inv())
}

// IsZero reports whether the element is zero.
func (a M31) IsZero() bool {
	return a == 0
}

// Value returns the canonical integer value.
func (a M31) Value() uint32 {
	return uint32(a)
}

// Bytes returns the 4-byte little-endian encoding of the canonical value.
func (a M31) Bytes() [4]byte {
	return [4]byte{
		byte(a),
		byte(a >> 8),
		byte(a >> 16),
		byte(a >> 24),
	}
}

// M31FromBytes decodes a 4-byte little-endian encoding, reducing modulo the
// prime.
func M31FromBytes(b [4]byte) M31 {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return NewM31(v)
}

// String returns the decimal representation of the canonical value.
func (a M31) String() string {
	return fmt.Sprintf("%d", uint32(a))
}

// pow2147483645 computes v^(2^31 - 3), the inverse exponent for M31.
//
// Uses an addition chain with 37 multiplications instead of the naive 60.
func pow2147483645(v M31) M31 {
	t0 := sqn(v, 2).Mul(v)
	t1 := sqn(t0, 1).Mul(t0)
	t2 := sqn(t1, 3).Mul(t0)
	t3 := sqn(t2, 1).Mul(t0)
	t4 := sqn(t3, 8).Mul(t3)
	t5 := sqn(t4, 8).Mul(t3)
	return sqn(t5, 7).Mul(t2)
}

// sqn squares v n times.
func sqn(v M31, n int) M31 {
	for i := 0; i < n; i++ {
		v = v.Square()
	}
	return v
}
