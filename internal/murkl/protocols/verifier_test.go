package protocols

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exidz/murkl/internal/murkl/core"
)

// proveFibonacci generates a small Fibonacci proof for verifier tests.
func proveFibonacci(t *testing.T) (ProverConfig, *FibonacciAir, *Proof) {
	t.Helper()

	cfg := NewProverConfig(4, 2)
	air := NewFibonacciAir(64)
	trace := air.GenerateTrace(core.M31One, core.M31One)
	pub := NewPublicInputs(
		[]core.M31{core.M31One, core.M31One},
		[]core.M31{trace.Get(63, 0)},
	)

	proof, err := NewProver(cfg).Prove(air, trace, pub)
	require.NoError(t, err)
	return cfg, air, proof
}

// proveMembership generates a small membership proof for verifier tests.
func proveMembership(t *testing.T) (ProverConfig, *MembershipAir, *Proof) {
	t.Helper()

	cfg := NewProverConfig(4, 2)
	_, claim := buildTestClaim(t, 8)

	air := NewMembershipAir(8)
	air.LogNumRows = 4
	trace, err := air.GenerateTrace(claim)
	require.NoError(t, err)

	proof, err := NewProver(cfg).Prove(air, trace, claim.PublicInputs.ToPublicInputs())
	require.NoError(t, err)
	return cfg, air, proof
}

func TestVerifyFibonacci(t *testing.T) {
	cfg, air, proof := proveFibonacci(t)
	require.NoError(t, NewVerifier(cfg).Verify(air, proof))
}

func TestVerifyMembership(t *testing.T) {
	cfg, air, proof := proveMembership(t)
	require.NoError(t, NewVerifier(cfg).Verify(air, proof))
}

func TestVerifyRejectsTamperedOpening(t *testing.T) {
	cfg, air, proof := proveFibonacci(t)

	proof.QueryProofs[0].TraceOpenings[0].Value =
		proof.QueryProofs[0].TraceOpenings[0].Value.Add(core.M31One)

	err := NewVerifier(cfg).Verify(air, proof)
	require.Error(t, err)

	var pe *ProofError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, ErrMerkle, pe.Code)
}

func TestVerifyRejectsTamperedCompositionOpening(t *testing.T) {
	cfg, air, proof := proveFibonacci(t)

	proof.QueryProofs[1].Composition.Value =
		proof.QueryProofs[1].Composition.Value.Add(core.M31One)

	require.Error(t, NewVerifier(cfg).Verify(air, proof))
}

func TestVerifyRejectsTamperedTraceRoot(t *testing.T) {
	cfg, air, proof := proveFibonacci(t)

	proof.TraceRoots[0][3] ^= 0x40

	require.Error(t, NewVerifier(cfg).Verify(air, proof))
}

func TestVerifyRejectsTamperedOODS(t *testing.T) {
	cfg, air, proof := proveFibonacci(t)

	proof.TraceOODS = proof.TraceOODS.Add(core.QM31One)

	// The OODS sample is absorbed before the FRI challenges, so every
	// later challenge diverges.
	require.Error(t, NewVerifier(cfg).Verify(air, proof))
}

func TestVerifyRejectsWrongPublicRoot(t *testing.T) {
	cfg, air, proof := proveMembership(t)

	// Flip one bit of the declared set root.
	proof.PublicInputs.InitialState[0] = core.NewM31(
		proof.PublicInputs.InitialState[0].Value() ^ 1)

	err := NewVerifier(cfg).Verify(air, proof)
	require.Error(t, err)

	var pe *ProofError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, ErrPublicInputsMismatch, pe.Code)
}

func TestVerifyRejectsWrongNullifier(t *testing.T) {
	cfg, air, proof := proveMembership(t)

	proof.PublicInputs.FinalState[0] = proof.PublicInputs.FinalState[0].Add(core.M31One)

	err := NewVerifier(cfg).Verify(air, proof)
	require.Error(t, err)

	var pe *ProofError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, ErrPublicInputsMismatch, pe.Code)
}

func TestVerifyRejectsQueryCountMismatch(t *testing.T) {
	cfg, air, proof := proveFibonacci(t)

	proof.QueryProofs = proof.QueryProofs[:len(proof.QueryProofs)-1]

	require.Error(t, NewVerifier(cfg).Verify(air, proof))
}

func TestVerifySerializedRoundTrip(t *testing.T) {
	cfg, air, proof := proveMembership(t)

	restored, err := Deserialize(proof.Serialize())
	require.NoError(t, err)
	require.NoError(t, NewVerifier(cfg).Verify(air, restored))
}

func TestVerifyRejectsTamperedSerializedProof(t *testing.T) {
	cfg, air, proof := proveFibonacci(t)

	data := proof.Serialize()
	// Flip a bit inside the first trace root.
	data[7] ^= 1

	restored, err := Deserialize(data)
	require.NoError(t, err)
	require.Error(t, NewVerifier(cfg).Verify(air, restored))
}
