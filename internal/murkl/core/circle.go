package core

import "fmt"

// CirclePoint is a point on the circle x^2 + y^2 = 1 over M31.
//
// The points form a cyclic group of order p + 1 = 2^31 under complex
// multiplication on the unit circle; the power-of-two order is what makes
// the circle usable as an FFT-friendly evaluation domain.
type CirclePoint struct {
	X M31
	Y M31
}

// CircleIdentity is the group identity (1, 0).
var CircleIdentity = CirclePoint{X: M31One, Y: M31Zero}

// CircleGenerator generates the full circle group of order 2^31.
//
// G = (2, y) with y = sqrt(1 - 4) = sqrt(-3) in M31; sqrt(-3) mod (2^31 - 1)
// is 1268011823.
var CircleGenerator = CirclePoint{X: M31(2), Y: M31(1268011823)}

// LogCircleOrder is log2 of the full circle group order.
const LogCircleOrder uint32 = 31

// NewCirclePoint creates a point, verifying it lies on the circle.
func NewCirclePoint(x, y M31) (CirclePoint, error) {
	p := CirclePoint{X: x, Y: y}
	if !p.IsOnCircle() {
		return CirclePoint{}, fmt.Errorf("core: point (%d, %d) is not on the circle", x.Value(), y.Value())
	}
	return p, nil
}

// IsOnCircle reports whether x^2 + y^2 = 1.
func (p CirclePoint) IsOnCircle() bool {
	return p.X.Square().Add(p.Y.Square()) == M31One
}

// Add applies the circle group law:
// (x1, y1) + (x2, y2) = (x1*x2 - y1*y2, x1*y2 + y1*x2).
func (p CirclePoint) Add(q CirclePoint) CirclePoint {
	return CirclePoint{
		X: p.X.Mul(q.X).Sub(p.Y.Mul(q.Y)),
		Y: p.X.Mul(q.Y).Add(p.Y.Mul(q.X)),
	}
}

// Neg returns the group inverse (x, -y).
func (p CirclePoint) Neg() CirclePoint {
	return CirclePoint{X: p.X, Y: p.Y.Neg()}
}

// Sub returns p + (-q).
func (p CirclePoint) Sub(q CirclePoint) CirclePoint {
	return p.Add(q.Neg())
}

// Double returns 2p = (2x^2 - 1, 2xy), derived from the addition formula
// with both operands equal.
func (p CirclePoint) Double() CirclePoint {
	two := M31(2)
	return CirclePoint{
		X: two.Mul(p.X.Square()).Sub(M31One),
		Y: two.Mul(p.X).Mul(p.Y),
	}
}

// Mul computes scalar multiplication using double-and-add.
func (p CirclePoint) Mul(scalar uint32) CirclePoint {
	result := CircleIdentity
	base := p
	for scalar > 0 {
		if scalar&1 == 1 {
			result = result.Add(base)
		}
		base = base.Double()
		scalar >>= 1
	}
	return result
}

// RepeatedDouble returns 2^n * p by doubling n times.
func (p CirclePoint) RepeatedDouble(n uint32) CirclePoint {
	for i := uint32(0); i < n; i++ {
		p = p.Double()
	}
	return p
}

// Antipodal returns the opposite point (-x, -y).
func (p CirclePoint) Antipodal() CirclePoint {
	return CirclePoint{X: p.X.Neg(), Y: p.Y.Neg()}
}

// Bytes returns the 8-byte encoding (x then y, little-endian) for hashing.
func (p CirclePoint) Bytes() [8]byte {
	var out [8]byte
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[0:4], x[:])
	copy(out[4:8], y[:])
	return out
}

// String formats the point coordinates.
func (p CirclePoint) String() string {
	return fmt.Sprintf("CirclePoint(%d, %d)", p.X.Value(), p.Y.Value())
}

// SubgroupGenerator returns a generator for the subgroup of order
// 2^logSize, computed as G doubled (31 - logSize) times.
//
// Panics when logSize exceeds the full group order; a subgroup larger than
// the group is a programmer error.
func SubgroupGenerator(logSize uint32) CirclePoint {
	if logSize > LogCircleOrder {
		panic("core: subgroup order exceeds group order")
	}
	if logSize == 0 {
		return CircleIdentity
	}
	return CircleGenerator.RepeatedDouble(LogCircleOrder - logSize)
}

// ComputeDomain returns the ordered orbit of the identity under the
// subgroup generator of order 2^logSize: [0*g, 1*g, ..., (2^logSize - 1)*g].
func ComputeDomain(logSize uint32) []CirclePoint {
	size := 1 << logSize
	g := SubgroupGenerator(logSize)

	domain := make([]CirclePoint, 0, size)
	current := CircleIdentity
	for i := 0; i < size; i++ {
		domain = append(domain, current)
		current = current.Add(g)
	}
	return domain
}

// ComputeTwiddles projects the standard domain of size 2^logSize to its
// x-coordinates.
func ComputeTwiddles(logSize uint32) []M31 {
	domain := ComputeDomain(logSize)
	twiddles := make([]M31, len(domain))
	for i, p := range domain {
		twiddles[i] = p.X
	}
	return twiddles
}

// Coset is a shifted subgroup used as an evaluation domain: the points
// Initial + i*Step for i in [0, 2^LogSize).
type Coset struct {
	// Initial is the starting point of the coset.
	Initial CirclePoint
	// Step is the subgroup generator used to walk the coset.
	Step CirclePoint
	// LogSize is log2 of the coset size.
	LogSize uint32
}

// NewCoset creates the standard coset of size 2^logSize starting at the
// identity.
func NewCoset(logSize uint32) Coset {
	return Coset{
		Initial: CircleIdentity,
		Step:    SubgroupGenerator(logSize),
		LogSize: logSize,
	}
}

// NewShiftedCoset creates a coset of size 2^logSize starting at shift.
func NewShiftedCoset(logSize uint32, shift CirclePoint) Coset {
	return Coset{
		Initial: shift,
		Step:    SubgroupGenerator(logSize),
		LogSize: logSize,
	}
}

// Size returns the number of points in the coset.
func (c Coset) Size() int {
	return 1 << c.LogSize
}

// At returns the i-th coset element Initial + i*Step.
func (c Coset) At(i int) CirclePoint {
	return c.Initial.Add(c.Step.Mul(uint32(i)))
}

// Points materialises all coset elements in order.
func (c Coset) Points() []CirclePoint {
	points := make([]CirclePoint, 0, c.Size())
	current := c.Initial
	for i := 0; i < c.Size(); i++ {
		points = append(points, current)
		current = current.Add(c.Step)
	}
	return points
}

// XCoordinates returns the twiddle factors of the coset.
func (c Coset) XCoordinates() []M31 {
	points := c.Points()
	xs := make([]M31, len(points))
	for i, p := range points {
		xs[i] = p.X
	}
	return xs
}

// CircleDomain is an evaluation domain backed by a coset, with the point
// set cached after first use.
type CircleDomain struct {
	// Coset is the underlying coset.
	Coset Coset

	points []CirclePoint
}

// NewCircleDomain creates a domain of size 2^logSize over the standard
// coset.
func NewCircleDomain(logSize uint32) *CircleDomain {
	return &CircleDomain{Coset: NewCoset(logSize)}
}

// Size returns the domain size.
func (d *CircleDomain) Size() int {
	return d.Coset.Size()
}

// LogSize returns log2 of the domain size.
func (d *CircleDomain) LogSize() uint32 {
	return d.Coset.LogSize
}

// Points returns all domain points, computing and caching them on first
// call.
func (d *CircleDomain) Points() []CirclePoint {
	if d.points == nil {
		d.points = d.Coset.Points()
	}
	return d.points
}

// At returns the i-th domain point without touching the cache.
func (d *CircleDomain) At(i int) CirclePoint {
	return d.Coset.At(i)
}
