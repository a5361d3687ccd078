package protocols

import (
	"fmt"

	"github.com/exidz/murkl/internal/murkl/merkle"
)

// ErrorCode identifies a proof generation or verification failure class.
type ErrorCode int

const (
	// ErrInvalidWitness flags witness dimensions or values that disagree
	// with the claim.
	ErrInvalidWitness ErrorCode = iota

	// ErrConstraintViolation flags a declared constraint evaluating to a
	// non-zero value on the trace.
	ErrConstraintViolation

	// ErrInvalidTrace flags trace columns of unequal or non-power-of-two
	// length.
	ErrInvalidTrace

	// ErrFri flags a FRI failure; see FriErrorKind.
	ErrFri

	// ErrMerkle flags a Merkle opening failure; see merkle.ErrorKind.
	ErrMerkle

	// ErrSerialization flags truncated, over-long, or malformed proof
	// bytes.
	ErrSerialization

	// ErrPublicInputsMismatch flags declared public inputs that disagree
	// with the openings.
	ErrPublicInputsMismatch

	// ErrInvalidConfig flags prover parameters that cannot produce a
	// sound proof.
	ErrInvalidConfig
)

// FriErrorKind refines ErrFri.
type FriErrorKind int

const (
	// FriFinalPolyTooLarge flags a final polynomial above the degree
	// bound.
	FriFinalPolyTooLarge FriErrorKind = iota
	// FriMerkleFailure flags a failed layer opening.
	FriMerkleFailure
	// FriFoldingInconsistent flags a folded value that disagrees with the
	// next layer.
	FriFoldingInconsistent
	// FriStructureInvalid flags a proof whose layer shape does not match
	// the configuration.
	FriStructureInvalid
)

// ProofError is the closed error type surfaced by the prover and
// verifier.
type ProofError struct {
	Code    ErrorCode
	Message string
	Cause   error

	// Constraint and Row are set for ErrConstraintViolation.
	Constraint string
	Row        int

	// FriKind and Layer are set for ErrFri.
	FriKind FriErrorKind
	Layer   int

	// Column is set for ErrMerkle root mismatches.
	Column int
}

// Error returns the error message.
func (e *ProofError) Error() string {
	switch e.Code {
	case ErrConstraintViolation:
		return fmt.Sprintf("constraint violation: %q at row %d", e.Constraint, e.Row)
	case ErrFri:
		switch e.FriKind {
		case FriFinalPolyTooLarge:
			return "fri: final polynomial exceeds degree bound"
		case FriMerkleFailure:
			return fmt.Sprintf("fri: merkle opening failed at layer %d", e.Layer)
		case FriFoldingInconsistent:
			return fmt.Sprintf("fri: folding inconsistent at layer %d", e.Layer)
		default:
			return fmt.Sprintf("fri: %s", e.Message)
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped cause.
func (e *ProofError) Unwrap() error {
	return e.Cause
}

// Is matches on the error code (and FRI kind when both sides set one).
func (e *ProofError) Is(target error) bool {
	t, ok := target.(*ProofError)
	if !ok {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	if e.Code == ErrFri {
		return e.FriKind == t.FriKind
	}
	return true
}

func invalidWitness(format string, args ...interface{}) *ProofError {
	return &ProofError{Code: ErrInvalidWitness, Message: "invalid witness: " + fmt.Sprintf(format, args...)}
}

func invalidTrace(format string, args ...interface{}) *ProofError {
	return &ProofError{Code: ErrInvalidTrace, Message: "invalid trace: " + fmt.Sprintf(format, args...)}
}

func constraintViolation(name string, row int) *ProofError {
	return &ProofError{Code: ErrConstraintViolation, Constraint: name, Row: row}
}

func friError(kind FriErrorKind, layer int) *ProofError {
	return &ProofError{Code: ErrFri, FriKind: kind, Layer: layer}
}

func friStructure(format string, args ...interface{}) *ProofError {
	return &ProofError{Code: ErrFri, FriKind: FriStructureInvalid, Message: fmt.Sprintf(format, args...)}
}

func merkleFailure(kind merkle.ErrorKind, index, column int) *ProofError {
	return &ProofError{
		Code:   ErrMerkle,
		Column: column,
		Cause:  &merkle.Error{Kind: kind, Index: index, Column: column},
		Message: fmt.Sprintf("merkle opening failed at index %d (column %d)",
			index, column),
	}
}

func serializationError(format string, args ...interface{}) *ProofError {
	return &ProofError{Code: ErrSerialization, Message: "serialization: " + fmt.Sprintf(format, args...)}
}

func publicInputsMismatch(format string, args ...interface{}) *ProofError {
	return &ProofError{Code: ErrPublicInputsMismatch, Message: "public inputs mismatch: " + fmt.Sprintf(format, args...)}
}

func invalidConfig(format string, args ...interface{}) *ProofError {
	return &ProofError{Code: ErrInvalidConfig, Message: "invalid config: " + fmt.Sprintf(format, args...)}
}
