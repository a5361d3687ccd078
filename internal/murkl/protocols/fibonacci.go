package protocols

import "github.com/exidz/murkl/internal/murkl/core"

// FibonacciAir proves a Fibonacci-style recurrence over a single trace
// column: f[i+2] = f[i+1] + f[i].
type FibonacciAir struct {
	// NumRows is the trace length.
	NumRows int
}

// NewFibonacciAir creates the AIR for a trace of the given length.
func NewFibonacciAir(numRows int) *FibonacciAir {
	return &FibonacciAir{NumRows: numRows}
}

// GenerateTrace builds the trace from the two initial values.
func (f *FibonacciAir) GenerateTrace(a, b core.M31) *Trace {
	values := make([]core.M31, 0, f.NumRows)
	values = append(values, a, b)
	for i := 2; i < f.NumRows; i++ {
		values = append(values, values[i-1].Add(values[i-2]))
	}
	return NewTrace([]TraceColumn{NewTraceColumn(0, values)})
}

// Constraints declares the single transition constraint.
func (f *FibonacciAir) Constraints() []Constraint {
	return []Constraint{NewConstraint("fibonacci", 1, []int{0})}
}

// Evaluate computes f[i+2] - f[i+1] - f[i] at the given row.
func (f *FibonacciAir) Evaluate(trace *Trace, row int) []core.M31 {
	col := &trace.Columns[0]
	v := col.AtOffset(row, 2).Sub(col.AtOffset(row, 1)).Sub(col.At(row))
	return []core.M31{v}
}

// MaxDegree returns the maximum constraint degree.
func (f *FibonacciAir) MaxDegree() int {
	return MaxDegree(f.Constraints())
}
