// Package murkl provides the Circle STARK proof engine of the Murkl
// anonymous-transfer protocol.
//
// A holder of a secret proves, without disclosure, that a commitment
// derived from a social identifier and the secret lies in a public Merkle
// set, and that a fresh nullifier tied to the secret has never been used.
// The output is a compact transcript a thin on-chain verifier can check.
//
// # Features
//
// - Mersenne-31 field with its QM31 quartic extension
// - Circle-group evaluation domains and cosets
// - Keccak-256 Merkle commitments with domain separation
// - FRI low-degree test with Fiat-Shamir transcript
// - Fibonacci and Merkle-membership constraint systems
// - Canonical proof serialization for the on-chain verifier
//
// # Quick Start
//
// Proving membership of a commitment in the set:
//
//	set := murkl.NewCommitmentSet(16)
//	id := murkl.HashIdentifier("@alice")
//	secret := murkl.HashPassword("correct horse battery staple")
//	_, leaf := murkl.Commitment(id, secret)
//	index, _ := set.Insert(leaf)
//
//	proof, err := murkl.ProveMembership(set, id, secret, index, recipient, murkl.FastConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Verifying:
//
//	if err := murkl.VerifyMembership(set.Depth(), proof, murkl.FastConfig()); err != nil {
//		log.Fatal(err)
//	}
//
// The command-line tooling, deposit workflow, and on-chain program live
// outside this module and consume it through these entry points.
package murkl
