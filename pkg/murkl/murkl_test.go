package murkl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exidz/murkl/internal/murkl/core"
)

// Scenario 1: Fibonacci end to end with the development configuration.
func TestFibonacciEndToEnd(t *testing.T) {
	cfg := FastConfig()
	air := NewFibonacciAir(64)
	trace := air.GenerateTrace(core.M31One, core.M31One)

	// The 64th value reduced into the field.
	want := core.NewM31FromUint64(10610209857723)
	require.Equal(t, want, trace.Get(63, 0))

	pub := NewPublicInputs(
		[]M31{core.M31One, core.M31One},
		[]M31{trace.Get(63, 0)},
	)

	proof, err := Prove(cfg, air, trace, pub)
	require.NoError(t, err)
	require.NoError(t, Verify(cfg, air, proof))
}

func TestFibonacciCorruptedTraceRejected(t *testing.T) {
	cfg := FastConfig()
	air := NewFibonacciAir(64)
	trace := air.GenerateTrace(core.M31One, core.M31One)

	trace.Columns[0].Values[5] = trace.Columns[0].Values[5].Add(core.M31One)

	_, err := Prove(cfg, air, trace, PublicInputs{})
	require.Error(t, err)

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, ErrConstraintViolation, code)
}

func TestFibonacciTamperedProofRejected(t *testing.T) {
	cfg := FastConfig()
	air := NewFibonacciAir(64)
	trace := air.GenerateTrace(core.M31One, core.M31One)

	proof, err := Prove(cfg, air, trace, NewPublicInputs([]M31{core.M31One}, nil))
	require.NoError(t, err)

	data := SerializeProof(proof)
	data[5] ^= 1 // inside the first trace root

	tampered, err := DeserializeProof(data)
	require.NoError(t, err)
	require.Error(t, Verify(cfg, air, tampered))
}

// buildStandardSet inserts the five standard leaves into a depth-16 set:
// values (0, 1000, commitment(12345, 98765), 3000, 4000).
func buildStandardSet(t *testing.T) (*CommitmentSet, M31, M31) {
	t.Helper()

	identifier := NewM31(12345)
	secret := NewM31(98765)
	_, leaf := Commitment(identifier, secret)

	set := NewCommitmentSet(16)
	for i := uint32(0); i < 5; i++ {
		v := NewM31(i * 1000)
		if i == 2 {
			v = leaf
		}
		_, err := set.Insert(v)
		require.NoError(t, err)
	}

	return set, identifier, secret
}

// Scenario 2: membership at index 2 of a depth-16 set.
func TestMembershipEndToEnd(t *testing.T) {
	set, identifier, secret := buildStandardSet(t)
	cfg := FastConfig()

	proof, err := ProveMembership(set, identifier, secret, 2, NewM31(777), cfg)
	require.NoError(t, err)
	require.NoError(t, VerifyMembership(16, proof, cfg))

	// Flipping one bit of the claimed root must reject with a
	// public-inputs mismatch.
	proof.PublicInputs.InitialState[0] = NewM31(proof.PublicInputs.InitialState[0].Value() ^ 1)
	err = VerifyMembership(16, proof, cfg)
	require.Error(t, err)

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, ErrPublicInputsMismatch, code)
}

func TestMembershipWrongIndexRejected(t *testing.T) {
	set, identifier, secret := buildStandardSet(t)

	// Index 3 holds a different commitment.
	_, err := ProveMembership(set, identifier, secret, 3, NewM31(777), FastConfig())
	require.Error(t, err)

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, ErrInvalidWitness, code)
}

// Scenario 3: nullifier replay semantics.
func TestNullifierReplay(t *testing.T) {
	secret := NewM31(98765)

	h1, n1 := Nullifier(secret, 2)
	h2, n2 := Nullifier(secret, 2)
	require.True(t, bytes.Equal(h1[:], h2[:]), "same (secret, index) must give identical bytes")
	require.Equal(t, n1, n2)

	h3, n3 := Nullifier(secret, 3)
	require.False(t, bytes.Equal(h1[:], h3[:]))
	require.NotEqual(t, n1, n3)
}

// Scenario 4: identifiers are case-insensitive.
func TestIdentifierCaseInsensitive(t *testing.T) {
	a := HashIdentifier("@Alice")
	b := HashIdentifier("@alice")
	c := HashIdentifier("@ALICE")
	require.Equal(t, a, b)
	require.Equal(t, b, c)
}

// Scenario 5: proof serialization round-trips.
func TestProofSerializationRoundTrip(t *testing.T) {
	set, identifier, secret := buildStandardSet(t)
	proof, err := ProveMembership(set, identifier, secret, 2, NewM31(777), FastConfig())
	require.NoError(t, err)

	data := SerializeProof(proof)
	restored, err := DeserializeProof(data)
	require.NoError(t, err)
	require.True(t, proof.Equal(restored))

	_, err = DeserializeProof(data[:len(data)-1])
	require.Error(t, err)

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, ErrSerialization, code)
}

// Scenario 6: independent prover runs are byte-identical.
func TestProofDeterminism(t *testing.T) {
	run := func() []byte {
		set, identifier, secret := buildStandardSet(t)
		proof, err := ProveMembership(set, identifier, secret, 2, NewM31(777), FastConfig())
		require.NoError(t, err)
		return SerializeProof(proof)
	}

	require.Equal(t, run(), run(), "independent runs must be byte-identical")
}

func TestCommitmentHelpers(t *testing.T) {
	id := HashIdentifier("@alice")
	secret := HashPassword("testpass123")

	h, m := Commitment(id, secret)
	h2, m2 := Commitment(id, secret)
	require.Equal(t, h, h2)
	require.Equal(t, m, m2)
	require.Less(t, m.Value(), core.Prime)

	// Identifiers with and without the sigil are distinct.
	require.NotEqual(t, HashIdentifier("@alice"), HashIdentifier("alice"))
}
