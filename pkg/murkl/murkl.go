package murkl

import (
	"github.com/exidz/murkl/internal/murkl/hashing"
	"github.com/exidz/murkl/internal/murkl/protocols"
)

// HashIdentifier derives the M31 projection of a social identifier.
// Identifiers are case-insensitive.
func HashIdentifier(identifier string) M31 {
	return hashing.HashIdentifier(identifier)
}

// HashPassword derives the secret scalar from a password.
func HashPassword(password string) M31 {
	return hashing.HashPassword(password)
}

// Commitment derives the leaf commitment for an (identifier hash, secret)
// pair: the 32-byte hash for on-chain storage and its M31 projection for
// the commitment set.
func Commitment(idHash, secret M31) (Hash32, M31) {
	return hashing.Commitment(idHash, secret)
}

// Nullifier derives the double-spend tag for (secret, leaf index).
func Nullifier(secret M31, leafIndex uint32) (Hash32, M31) {
	return hashing.Nullifier(secret, leafIndex)
}

// Prove generates a proof for an arbitrary AIR and trace.
func Prove(cfg Config, air ConstraintEvaluator, trace *Trace, publicInputs PublicInputs) (*Proof, error) {
	return protocols.NewProver(cfg).Prove(air, trace, publicInputs)
}

// Verify checks a proof against the AIR it was generated for.
func Verify(cfg Config, air ConstraintEvaluator, proof *Proof) error {
	return protocols.NewVerifier(cfg).Verify(air, proof)
}

// ProveMembership proves that the commitment of (identifier, secret) sits
// in the set at leafIndex, binding the proof to the recipient. The
// witness assembled along the way is zeroised before returning.
func ProveMembership(set *CommitmentSet, identifier, secret M31, leafIndex uint32, recipient M31, cfg Config) (*Proof, error) {
	claim, err := NewMembershipClaim(set, identifier, secret, leafIndex, recipient)
	if err != nil {
		return nil, err
	}
	defer claim.Witness.Zeroize()

	air := NewMembershipAir(set.Depth())
	trace, err := air.GenerateTrace(claim)
	if err != nil {
		return nil, err
	}

	return Prove(cfg, air, trace, claim.PublicInputs.ToPublicInputs())
}

// VerifyMembership checks a membership proof for a set of the given
// depth.
func VerifyMembership(setDepth int, proof *Proof, cfg Config) error {
	return Verify(cfg, NewMembershipAir(setDepth), proof)
}

// SerializeProof encodes a proof into the canonical byte layout.
func SerializeProof(proof *Proof) []byte {
	return proof.Serialize()
}

// DeserializeProof is the exact inverse of SerializeProof; truncated or
// malformed input is a hard error.
func DeserializeProof(data []byte) (*Proof, error) {
	return protocols.Deserialize(data)
}
