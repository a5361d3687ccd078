package murkl

import "github.com/exidz/murkl/internal/murkl/protocols"

// ProofError is the closed error type surfaced by proving and
// verification.
type ProofError = protocols.ProofError

// ErrorCode identifies a failure class.
type ErrorCode = protocols.ErrorCode

// Failure classes. Every prover and verifier error carries exactly one.
const (
	ErrInvalidWitness       = protocols.ErrInvalidWitness
	ErrConstraintViolation  = protocols.ErrConstraintViolation
	ErrInvalidTrace         = protocols.ErrInvalidTrace
	ErrFri                  = protocols.ErrFri
	ErrMerkle               = protocols.ErrMerkle
	ErrSerialization        = protocols.ErrSerialization
	ErrPublicInputsMismatch = protocols.ErrPublicInputsMismatch
	ErrInvalidConfig        = protocols.ErrInvalidConfig
)

// CodeOf extracts the failure class of an error returned by this package,
// reporting false for foreign errors.
func CodeOf(err error) (ErrorCode, bool) {
	pe, ok := err.(*ProofError)
	if !ok {
		return 0, false
	}
	return pe.Code, true
}
