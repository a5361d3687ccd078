// Package hashing provides the Keccak-256 primitives and the
// domain-separated derivations used across the protocol: identifier and
// password projection, leaf commitments, and nullifiers.
//
// Every derivation prepends a distinct domain tag so the same byte content
// can never be reinterpreted across uses.
package hashing

import (
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/exidz/murkl/internal/murkl/core"
)

// Hash32 is a 32-byte Keccak-256 output.
type Hash32 = [32]byte

// Domain tags. Version suffixes exist so a future tag bump cannot collide
// with old derivations.
const (
	tagIdentifier = "identifier_v1"
	tagPassword   = "password_v1"
	tagCommitment = "commitment_v1"
	tagNullifier  = "nullifier_v1"
)

// Keccak hashes the concatenation of all inputs with Keccak-256.
func Keccak(inputs ...[]byte) Hash32 {
	h := sha3.NewLegacyKeccak256()
	for _, input := range inputs {
		h.Write(input)
	}
	var out Hash32
	copy(out[:], h.Sum(nil))
	return out
}

// ToM31 projects a hash to M31 by reducing its first 4 little-endian bytes
// modulo the prime.
func ToM31(hash Hash32) core.M31 {
	v := uint32(hash[0]) | uint32(hash[1])<<8 | uint32(hash[2])<<16 | uint32(hash[3])<<24
	return core.NewM31(v % core.Prime)
}

// HashIdentifier derives the M31 projection of a social identifier.
// Identifiers are case-insensitive: the input is lowercased before hashing.
func HashIdentifier(identifier string) core.M31 {
	normalized := strings.ToLower(identifier)
	return ToM31(Keccak([]byte(tagIdentifier), []byte(normalized)))
}

// HashPassword derives the secret scalar from a password.
func HashPassword(password string) core.M31 {
	return ToM31(Keccak([]byte(tagPassword), []byte(password)))
}

// Commitment derives the leaf commitment for an (identifier hash, secret)
// pair: the full 32-byte hash for on-chain storage and its M31 projection
// for the in-circuit set.
func Commitment(idHash, secret core.M31) (Hash32, core.M31) {
	id := idHash.Bytes()
	sec := secret.Bytes()
	h := Keccak([]byte(tagCommitment), id[:], sec[:])
	return h, ToM31(h)
}

// Nullifier derives the double-spend tag for (secret, leaf index): the full
// 32-byte hash and its M31 projection. The same pair always yields the same
// nullifier; a different leaf index yields an unrelated one.
func Nullifier(secret core.M31, leafIndex uint32) (Hash32, core.M31) {
	sec := secret.Bytes()
	idx := [4]byte{
		byte(leafIndex),
		byte(leafIndex >> 8),
		byte(leafIndex >> 16),
		byte(leafIndex >> 24),
	}
	h := Keccak([]byte(tagNullifier), sec[:], idx[:])
	return h, ToM31(h)
}

// NodeM31 is the node hash of the in-circuit Merkle chain: the M31
// projection of Keccak over the two 4-byte child encodings in fixed order.
func NodeM31(left, right core.M31) core.M31 {
	l := left.Bytes()
	r := right.Bytes()
	return ToM31(Keccak(l[:], r[:]))
}
