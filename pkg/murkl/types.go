package murkl

import (
	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/hashing"
	"github.com/exidz/murkl/internal/murkl/merkle"
	"github.com/exidz/murkl/internal/murkl/protocols"
)

// M31 is an element of the Mersenne-31 field.
type M31 = core.M31

// QM31 is an element of the quartic extension of M31.
type QM31 = core.QM31

// Hash32 is a 32-byte Keccak-256 output.
type Hash32 = hashing.Hash32

// NewM31 creates a field element, reducing modulo the prime.
func NewM31(value uint32) M31 {
	return core.NewM31(value)
}

// CommitmentSet is the sparse M31-node Merkle tree holding deposited
// commitments.
type CommitmentSet = merkle.SetTree

// NewCommitmentSet creates an empty commitment set of the given depth.
func NewCommitmentSet(depth int) *CommitmentSet {
	return merkle.NewSetTree(depth)
}

// Trace is a columnar execution trace.
type Trace = protocols.Trace

// PublicInputs are the boundary values a proof commits to.
type PublicInputs = protocols.PublicInputs

// NewPublicInputs creates public inputs from the two boundary vectors.
func NewPublicInputs(initial, final []M31) PublicInputs {
	return protocols.NewPublicInputs(initial, final)
}

// Proof is a complete STARK proof.
type Proof = protocols.Proof

// ConstraintEvaluator is the AIR contract consumed by Prove and Verify.
type ConstraintEvaluator = protocols.ConstraintEvaluator

// FibonacciAir is the single-column Fibonacci constraint system.
type FibonacciAir = protocols.FibonacciAir

// NewFibonacciAir creates the Fibonacci AIR for the given trace length.
func NewFibonacciAir(numRows int) *FibonacciAir {
	return protocols.NewFibonacciAir(numRows)
}

// MembershipAir is the Merkle membership + nullifier constraint system.
type MembershipAir = protocols.MembershipAir

// NewMembershipAir creates the membership AIR for the given set depth.
func NewMembershipAir(treeDepth int) *MembershipAir {
	return protocols.NewMembershipAir(treeDepth)
}

// MembershipClaim pairs membership public inputs with their witness.
type MembershipClaim = protocols.MembershipClaim

// NewMembershipClaim assembles a claim from the commitment set and the
// holder's secrets.
func NewMembershipClaim(set *CommitmentSet, identifier, secret M31, leafIndex uint32, recipient M31) (*MembershipClaim, error) {
	return protocols.NewMembershipClaim(set, identifier, secret, leafIndex, recipient)
}

// Config bundles the prover and FRI parameters.
type Config = protocols.ProverConfig

// DefaultConfig returns the standard parameters: 50 queries, 16x blowup.
func DefaultConfig() Config {
	return protocols.DefaultProverConfig()
}

// FastConfig is the development setting: 25 queries, 8x blowup. Validate
// production deployments with Config.ValidateSecurity instead.
func FastConfig() Config {
	return protocols.FastProverConfig()
}

// HighSecurityConfig doubles the query count.
func HighSecurityConfig() Config {
	return protocols.HighSecurityProverConfig()
}
