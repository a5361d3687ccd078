// Package protocols implements the proof machinery: AIR and trace
// containers, the Fibonacci and membership constraint systems, the
// Fiat-Shamir transcript, the FRI low-degree test, and the prover and
// verifier pipelines with their canonical proof serialization.
package protocols

import (
	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/utils"
)

// TraceColumn is a single column of the execution trace.
type TraceColumn struct {
	// Index is the column position in the trace.
	Index int
	// Values holds one field element per row.
	Values []core.M31
}

// NewTraceColumn creates a column.
func NewTraceColumn(index int, values []core.M31) TraceColumn {
	return TraceColumn{Index: index, Values: values}
}

// At returns the value at a row, wrapping modulo the column length.
func (c *TraceColumn) At(row int) core.M31 {
	return c.Values[row%len(c.Values)]
}

// AtOffset returns the value at row+offset with wrapping arithmetic, so
// multi-row transition constraints stay defined near the trace boundary.
func (c *TraceColumn) AtOffset(row, offset int) core.M31 {
	n := len(c.Values)
	idx := ((row+offset)%n + n) % n
	return c.Values[idx]
}

// Trace is a rectangular table of field elements stored as columns.
type Trace struct {
	// Columns are the trace columns.
	Columns []TraceColumn
	// NumRows is the shared column length.
	NumRows int
}

// NewTrace creates a trace from columns.
func NewTrace(columns []TraceColumn) *Trace {
	numRows := 0
	if len(columns) > 0 {
		numRows = len(columns[0].Values)
	}
	return &Trace{Columns: columns, NumRows: numRows}
}

// TraceFromRows creates a trace from row-major data.
func TraceFromRows(rows [][]core.M31) *Trace {
	if len(rows) == 0 {
		return &Trace{}
	}

	numCols := len(rows[0])
	columns := make([]TraceColumn, numCols)
	for col := 0; col < numCols; col++ {
		values := make([]core.M31, len(rows))
		for row := range rows {
			values[row] = rows[row][col]
		}
		columns[col] = NewTraceColumn(col, values)
	}

	return &Trace{Columns: columns, NumRows: len(rows)}
}

// NumColumns returns the number of columns.
func (t *Trace) NumColumns() int {
	return len(t.Columns)
}

// Get returns the cell at (row, column).
func (t *Trace) Get(row, col int) core.M31 {
	return t.Columns[col].At(row)
}

// LogNumRows returns log2 of the trace length.
func (t *Trace) LogNumRows() uint32 {
	return uint32(utils.Log2(t.NumRows))
}

// Validate checks the structural trace invariants: at least one column,
// power-of-two length, and equal column lengths.
func (t *Trace) Validate() error {
	if len(t.Columns) == 0 || t.NumRows == 0 {
		return invalidTrace("trace has no columns or rows")
	}
	if !utils.IsPowerOfTwo(t.NumRows) {
		return invalidTrace("trace length %d is not a power of two", t.NumRows)
	}
	for i := range t.Columns {
		if len(t.Columns[i].Values) != t.NumRows {
			return invalidTrace("column %d has %d rows, want %d", i, len(t.Columns[i].Values), t.NumRows)
		}
	}
	return nil
}

// Extend returns a trace whose columns repeat periodically on a domain
// blown up by 2^logBlowup. The extended columns are what gets committed
// and what the composition polynomial is evaluated over.
func (t *Trace) Extend(logBlowup uint32) *Trace {
	if logBlowup == 0 {
		return t
	}

	extSize := t.NumRows << logBlowup
	columns := make([]TraceColumn, len(t.Columns))
	for i := range t.Columns {
		values := make([]core.M31, extSize)
		for row := 0; row < extSize; row++ {
			values[row] = t.Columns[i].Values[row%t.NumRows]
		}
		columns[i] = NewTraceColumn(i, values)
	}

	return &Trace{Columns: columns, NumRows: extSize}
}

// Constraint is a named polynomial predicate of bounded degree over a
// subset of columns.
type Constraint struct {
	// Name identifies the constraint in diagnostics.
	Name string
	// Degree is the degree bound of the constraint polynomial; the
	// verifier sizes the composition domain from it.
	Degree int
	// Columns lists the trace columns the constraint reads.
	Columns []int
}

// NewConstraint creates a constraint descriptor.
func NewConstraint(name string, degree int, columns []int) Constraint {
	return Constraint{Name: name, Degree: degree, Columns: columns}
}

// ConstraintEvaluator is the AIR contract: declare constraints, evaluate
// them row by row, and report the maximum degree.
type ConstraintEvaluator interface {
	// Constraints returns the declared constraint set. Its length fixes
	// how many combiners the transcript squeezes.
	Constraints() []Constraint

	// Evaluate returns one element per declared constraint at the given
	// row; every element is zero on a valid trace.
	Evaluate(trace *Trace, row int) []core.M31

	// MaxDegree returns the maximum declared constraint degree.
	MaxDegree() int
}

// Boundary binds a public input value to a trace column: the verifier
// checks the opened column value at every query position against Value.
type Boundary struct {
	// Column is the bound trace column.
	Column int
	// Value is the expected public value.
	Value core.M31
}

// BoundaryChecker is implemented by AIRs whose public inputs pin trace
// columns to constants.
type BoundaryChecker interface {
	// Boundaries maps public inputs to column bindings.
	Boundaries(pub PublicInputs) []Boundary
}

// MaxDegree computes the maximum degree of a constraint set.
func MaxDegree(constraints []Constraint) int {
	max := 0
	for _, c := range constraints {
		if c.Degree > max {
			max = c.Degree
		}
	}
	return max
}

// ComposeConstraints combines per-row constraint evaluations into the
// composition column using per-constraint combiners.
func ComposeConstraints(constraintEvals [][]core.M31, coefficients []core.M31) []core.M31 {
	composition := make([]core.M31, len(constraintEvals))
	for row, evals := range constraintEvals {
		acc := core.M31Zero
		for i, eval := range evals {
			coeff := core.M31One
			if i < len(coefficients) {
				coeff = coefficients[i]
			}
			acc = acc.Add(eval.Mul(coeff))
		}
		composition[row] = acc
	}
	return composition
}

// VerifyConstraints checks that every declared constraint vanishes on the
// trace. Rows within the wrap window of the last transition are skipped,
// matching the offset convention of AtOffset.
func VerifyConstraints(evaluator ConstraintEvaluator, trace *Trace) error {
	constraints := evaluator.Constraints()
	lastRow := trace.NumRows - 2
	if lastRow < 0 {
		lastRow = 0
	}

	for row := 0; row < lastRow; row++ {
		evals := evaluator.Evaluate(trace, row)
		for i, eval := range evals {
			if !eval.IsZero() {
				name := "unnamed"
				if i < len(constraints) {
					name = constraints[i].Name
				}
				return constraintViolation(name, row)
			}
		}
	}
	return nil
}
