package core

import "fmt"

// QM31 is an element of the degree-4 extension of M31.
//
// QM31 = M31[i][j] with i^2 = -1 and j^2 = i + 2. An element is represented
// on the fixed basis (1, i, j, ij) as a + b*i + c*j + d*ij with each
// coefficient canonical in M31.
type QM31 struct {
	// A is the coefficient of 1.
	A M31
	// B is the coefficient of i.
	B M31
	// C is the coefficient of j.
	C M31
	// D is the coefficient of ij.
	D M31
}

// QM31Zero is the additive identity.
var QM31Zero = QM31{}

// QM31One is the multiplicative identity.
var QM31One = QM31{A: M31One}

// NewQM31 creates an extension element from its four coefficients.
func NewQM31(a, b, c, d M31) QM31 {
	return QM31{A: a, B: b, C: c, D: d}
}

// QM31FromUint32 creates an extension element from raw uint32 coefficients,
// reducing each modulo the prime.
func QM31FromUint32(a, b, c, d uint32) QM31 {
	return QM31{A: NewM31(a), B: NewM31(b), C: NewM31(c), D: NewM31(d)}
}

// QM31FromM31 embeds a base-field element as the real part.
func QM31FromM31(x M31) QM31 {
	return QM31{A: x}
}

// IsZero reports whether all four coefficients are zero.
func (x QM31) IsZero() bool {
	return x.A.IsZero() && x.B.IsZero() && x.C.IsZero() && x.D.IsZero()
}

// Add returns x + y componentwise.
func (x QM31) Add(y QM31) QM31 {
	return QM31{
		A: x.A.Add(y.A),
		B: x.B.Add(y.B),
		C: x.C.Add(y.C),
		D: x.D.Add(y.D),
	}
}

// Sub returns x - y componentwise.
func (x QM31) Sub(y QM31) QM31 {
	return QM31{
		A: x.A.Sub(y.A),
		B: x.B.Sub(y.B),
		C: x.C.Sub(y.C),
		D: x.D.Sub(y.D),
	}
}

// Neg returns the additive inverse.
func (x QM31) Neg() QM31 {
	return QM31{A: x.A.Neg(), B: x.B.Neg(), C: x.C.Neg(), D: x.D.Neg()}
}

// Mul multiplies two extension elements.
//
// Writing x = x1 + y1*j and y = x2 + y2*j with x1, y1, x2, y2 in M31[i],
// the product is x1*x2 + y1*y2*(i+2) + (x1*y2 + y1*x2)*j.
func (x QM31) Mul(y QM31) QM31 {
	x1 := cm31{x.A, x.B}
	y1 := cm31{x.C, x.D}
	x2 := cm31{y.A, y.B}
	y2 := cm31{y.C, y.D}

	x1x2 := x1.mul(x2)
	y1y2 := y1.mul(y2)
	cross := x1.mul(y2).add(y1.mul(x2))

	// y1*y2*(i+2) = (2*re - im) + (2*im + re)i
	shifted := cm31{
		re: y1y2.re.Double().Sub(y1y2.im),
		im: y1y2.im.Double().Add(y1y2.re),
	}

	head := x1x2.add(shifted)
	return QM31{A: head.re, B: head.im, C: cross.re, D: cross.im}
}

// MulM31 scales the element by a base-field scalar.
func (x QM31) MulM31(s M31) QM31 {
	return QM31{
		A: x.A.Mul(s),
		B: x.B.Mul(s),
		C: x.C.Mul(s),
		D: x.D.Mul(s),
	}
}

// Inv computes the multiplicative inverse.
//
// With x = u + v*j (u, v in M31[i]), the inverse is
// (u - v*j) / (u^2 - v^2*(i+2)); the remaining M31[i] inversion is
// conjugate over norm. Inverting zero panics.
func (x QM31) Inv() QM31 {
	if x.IsZero() {
		panic("core: cannot invert zero")
	}

	u := cm31{x.A, x.B}
	v := cm31{x.C, x.D}

	v2 := v.mul(v)
	v2w := cm31{
		re: v2.re.Double().Sub(v2.im),
		im: v2.im.Double().Add(v2.re),
	}
	denom := u.mul(u).sub(v2w)
	denomInv := denom.inv()

	top := u.mul(denomInv)
	bottom := v.neg().mul(denomInv)
	return QM31{A: top.re, B: top.im, C: bottom.re, D: bottom.im}
}

// Conjugate maps a + bi + cj + dij to a - bi + cj - dij.
func (x QM31) Conjugate() QM31 {
	return QM31{A: x.A, B: x.B.Neg(), C: x.C, D: x.D.Neg()}
}

// NormSquared returns x * conj(x), which lies in the M31[i] subfield
// (c and d of the result are zero).
func (x QM31) NormSquared() QM31 {
	realPart := x.A.Mul(x.A).Add(x.B.Mul(x.B)).Add(x.C.Mul(x.C)).Add(x.D.Mul(x.D))
	imagPart := x.A.Mul(x.B.Double()).Add(x.C.Mul(x.D.Double()))
	return QM31{A: realPart, B: imagPart}
}

// Bytes returns the 16-byte encoding: four little-endian M31 values in
// a, b, c, d order.
func (x QM31) Bytes() [16]byte {
	var out [16]byte
	a := x.A.Bytes()
	b := x.B.Bytes()
	c := x.C.Bytes()
	d := x.D.Bytes()
	copy(out[0:4], a[:])
	copy(out[4:8], b[:])
	copy(out[8:12], c[:])
	copy(out[12:16], d[:])
	return out
}

// QM31FromBytes decodes the 16-byte little-endian encoding.
func QM31FromBytes(b [16]byte) QM31 {
	return QM31{
		A: M31FromBytes([4]byte(b[0:4])),
		B: M31FromBytes([4]byte(b[4:8])),
		C: M31FromBytes([4]byte(b[8:12])),
		D: M31FromBytes([4]byte(b[12:16])),
	}
}

// String formats the element on the (1, i, j, ij) basis.
func (x QM31) String() string {
	return fmt.Sprintf("(%d + %di + %dj + %dij)",
		x.A.Value(), x.B.Value(), x.C.Value(), x.D.Value())
}

// cm31 is an element of the intermediate extension M31[i], i^2 = -1.
// It only exists to keep the QM31 product and inverse readable.
type cm31 struct {
	re M31
	im M31
}

func (x cm31) add(y cm31) cm31 {
	return cm31{x.re.Add(y.re), x.im.Add(y.im)}
}

func (x cm31) sub(y cm31) cm31 {
	return cm31{x.re.Sub(y.re), x.im.Sub(y.im)}
}

func (x cm31) neg() cm31 {
	return cm31{x.re.Neg(), x.im.Neg()}
}

func (x cm31) mul(y cm31) cm31 {
	return cm31{
		re: x.re.Mul(y.re).Sub(x.im.Mul(y.im)),
		im: x.re.Mul(y.im).Add(x.im.Mul(y.re)),
	}
}

func (x cm31) inv() cm31 {
	norm := x.re.Square().Add(x.im.Square())
	normInv := norm.Inv()
	return cm31{x.re.Mul(normInv), x.im.Neg().Mul(normInv)}
}
