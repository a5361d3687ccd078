package protocols

import (
	"time"

	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/logger"
	"github.com/exidz/murkl/internal/murkl/merkle"
)

// Verifier checks STARK proofs against the same configuration the prover
// used.
type Verifier struct {
	config ProverConfig
}

// NewVerifier creates a verifier with the given configuration.
func NewVerifier(config ProverConfig) *Verifier {
	return &Verifier{config: config}
}

// NewDefaultVerifier creates a verifier with the default configuration.
func NewDefaultVerifier() *Verifier {
	return NewVerifier(DefaultProverConfig())
}

// Verify replays the transcript in lockstep with the prover, re-derives
// every challenge, and checks all Merkle openings, the FRI folding chain,
// and the public-input bindings. Any mismatch fails closed.
func (v *Verifier) Verify(evaluator ConstraintEvaluator, proof *Proof) error {
	start := time.Now()
	log := logger.Logger()

	if err := v.config.Validate(); err != nil {
		return err
	}
	if len(proof.TraceRoots) == 0 {
		return serializationError("proof has no trace roots")
	}
	if proof.Fri == nil || len(proof.Fri.LayerCommitments) == 0 {
		return friStructure("proof has no FRI layers")
	}

	// Public-input bindings come first: they are independent of the
	// transcript, and a mismatch there is the precise failure to report
	// even when the diverged transcript would break every later check.
	if err := v.verifyBoundaries(evaluator, proof); err != nil {
		return err
	}

	// Rebuild the transcript exactly as the prover drove it.
	transcript := NewTranscript()
	transcript.Absorb(proof.PublicInputs.Bytes())
	for i := range proof.TraceRoots {
		transcript.Absorb(proof.TraceRoots[i][:])
	}

	_ = transcript.SqueezeScalars(len(evaluator.Constraints()))

	transcript.Absorb(proof.CompositionRoot[:])

	// The out-of-domain point is drawn before the claimed samples are
	// bound, so tampering with either invalidates every later challenge.
	_ = transcript.SqueezeExtensionScalar()
	transcript.AbsorbQM31(proof.TraceOODS)
	transcript.AbsorbQM31(proof.CompositionOODS)

	numLayers := len(proof.Fri.LayerCommitments)
	alphas := make([]core.QM31, 0, numLayers-1)
	for i := range proof.Fri.LayerCommitments {
		transcript.Absorb(proof.Fri.LayerCommitments[i].Root[:])
		if i < numLayers-1 {
			alphas = append(alphas, transcript.SqueezeExtensionScalar())
		}
	}
	for _, coeff := range proof.Fri.FinalPoly {
		transcript.AbsorbQM31(coeff)
	}

	initialLogSize := proof.Fri.LayerCommitments[0].LogSize
	if initialLogSize > core.LogCircleOrder {
		return friStructure("domain 2^%d exceeds the circle order", initialLogSize)
	}
	domainSize := 1 << initialLogSize

	queryIndices, err := transcript.SqueezeIndices(v.config.NumQueries, domainSize)
	if err != nil {
		return err
	}

	if len(proof.QueryProofs) != len(queryIndices) {
		return serializationError("proof answers %d queries, transcript demands %d",
			len(proof.QueryProofs), len(queryIndices))
	}

	for qi := range proof.QueryProofs {
		if err := v.verifyQuery(&proof.QueryProofs[qi], proof, queryIndices[qi], int(initialLogSize)); err != nil {
			return err
		}
	}

	friVerifier := NewFriVerifier(v.config.Fri)
	if err := friVerifier.Verify(proof.Fri, alphas, initialLogSize, queryIndices); err != nil {
		return err
	}

	// The FRI layer-zero openings must carry the very values the
	// composition commitment opened to.
	for qi := range proof.QueryProofs {
		q := &proof.QueryProofs[qi]
		friQuery := &proof.Fri.QueryProofs[qi]
		pos := q.Index % uint32(v.config.Fri.FoldingFactor())
		want := core.QM31FromM31(q.Composition.Value)
		if friQuery.LayerValues[0].Siblings[pos] != want {
			return friError(FriFoldingInconsistent, 0)
		}
	}

	log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("queries", len(queryIndices)).
		Msg("proof verified")

	return nil
}

// verifyQuery checks the trace and composition openings of one query.
func (v *Verifier) verifyQuery(query *QueryProof, proof *Proof, expectedIndex uint32, expectedDepth int) error {
	if query.Index != expectedIndex {
		return serializationError("query opened index %d, transcript demands %d",
			query.Index, expectedIndex)
	}
	if len(query.TraceOpenings) != len(proof.TraceRoots) {
		return serializationError("query opens %d trace columns, proof commits %d",
			len(query.TraceOpenings), len(proof.TraceRoots))
	}

	for col := range query.TraceOpenings {
		opening := &query.TraceOpenings[col]
		if err := verifyOpening(opening, proof.TraceRoots[col], query.Index, expectedDepth, col); err != nil {
			return err
		}
	}

	return verifyOpening(&query.Composition, proof.CompositionRoot, query.Index, expectedDepth, -1)
}

// verifyOpening checks one value+path pair against a committed root.
func verifyOpening(opening *Opening, root merkle.Hash, index uint32, expectedDepth, column int) error {
	if opening.Path == nil {
		return merkleFailure(merkle.MerklePathLengthMismatch, int(index), column)
	}
	if opening.Path.Depth() != expectedDepth {
		return merkleFailure(merkle.MerklePathLengthMismatch, int(index), column)
	}
	if opening.Path.LeafIndex != index {
		return merkleFailure(merkle.MerkleRootMismatch, int(index), column)
	}
	if !opening.Path.Verify(merkle.HashLeaf(opening.Value), root) {
		return merkleFailure(merkle.MerkleRootMismatch, int(index), column)
	}
	return nil
}

// verifyBoundaries checks the AIR's public-input bindings at every query
// position.
func (v *Verifier) verifyBoundaries(evaluator ConstraintEvaluator, proof *Proof) error {
	checker, ok := evaluator.(BoundaryChecker)
	if !ok {
		return nil
	}

	for _, boundary := range checker.Boundaries(proof.PublicInputs) {
		for qi := range proof.QueryProofs {
			q := &proof.QueryProofs[qi]
			if boundary.Column >= len(q.TraceOpenings) {
				return publicInputsMismatch("binding targets column %d, trace has %d",
					boundary.Column, len(q.TraceOpenings))
			}
			if q.TraceOpenings[boundary.Column].Value != boundary.Value {
				return publicInputsMismatch("column %d opened %d at query %d, declared %d",
					boundary.Column,
					q.TraceOpenings[boundary.Column].Value.Value(),
					q.Index,
					boundary.Value.Value())
			}
		}
	}
	return nil
}
