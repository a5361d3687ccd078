package protocols

import (
	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/logger"
	"github.com/exidz/murkl/internal/murkl/merkle"
	"github.com/exidz/murkl/internal/murkl/utils"
)

// FriConfig holds the parameters of the low-degree test.
type FriConfig struct {
	// LogBlowupFactor is log2 of the Reed-Solomon blowup.
	LogBlowupFactor uint32
	// NumQueries is the number of query repetitions.
	NumQueries int
	// LogFoldingFactor is log2 of the per-round folding arity. The wire
	// format fixes it at 2 (fold by 4).
	LogFoldingFactor uint32
	// LogFinalPolyDegree is log2 of the final polynomial length.
	LogFinalPolyDegree uint32
}

// DefaultFriConfig returns the standard parameters: 16x blowup, 50
// queries, fold by 4, final polynomial of length 4.
func DefaultFriConfig() FriConfig {
	return FriConfig{
		LogBlowupFactor:    4,
		NumQueries:         50,
		LogFoldingFactor:   2,
		LogFinalPolyDegree: 2,
	}
}

// NewFriConfig creates a config with custom parameters.
func NewFriConfig(logBlowup uint32, numQueries int, logFolding, logFinalPoly uint32) FriConfig {
	return FriConfig{
		LogBlowupFactor:    logBlowup,
		NumQueries:         numQueries,
		LogFoldingFactor:   logFolding,
		LogFinalPolyDegree: logFinalPoly,
	}
}

// FoldingFactor returns the per-round folding arity.
func (c FriConfig) FoldingFactor() int {
	return 1 << c.LogFoldingFactor
}

// SecurityBits approximates the soundness of the query phase: each query
// contributes log_blowup bits, halved as a conservative margin.
func (c FriConfig) SecurityBits() uint32 {
	return uint32(c.NumQueries) * c.LogBlowupFactor / 2
}

// NumRounds returns how many folds bring a codeword of the given log size
// down to the final polynomial.
func (c FriConfig) NumRounds(logDegree uint32) int {
	if logDegree <= c.LogFinalPolyDegree {
		return 0
	}
	return int((logDegree - c.LogFinalPolyDegree) / c.LogFoldingFactor)
}

// Validate rejects parameter combinations the protocol cannot support.
func (c FriConfig) Validate() error {
	if c.NumQueries <= 0 {
		return invalidConfig("number of queries must be positive")
	}
	if c.LogFoldingFactor == 0 {
		return invalidConfig("folding factor must be at least 2")
	}
	if c.LogFinalPolyDegree < c.LogFoldingFactor {
		return invalidConfig("final polynomial must span at least one folding group")
	}
	return nil
}

// FinalLogSize returns log2 of the layer the folding schedule actually
// stops at. When the folding factor does not divide the schedule evenly
// the last fold is skipped, so the final layer can be up to one folding
// factor above the configured target; both sides derive the same bound.
func (c FriConfig) FinalLogSize(logDomainSize uint32) uint32 {
	return logDomainSize - uint32(c.NumRounds(logDomainSize))*c.LogFoldingFactor
}

// ValidateForDomain additionally checks the folding schedule against a
// concrete codeword size.
func (c FriConfig) ValidateForDomain(logDomainSize uint32) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if logDomainSize < c.LogFinalPolyDegree {
		return invalidConfig("domain 2^%d smaller than final polynomial 2^%d",
			logDomainSize, c.LogFinalPolyDegree)
	}
	return nil
}

// FriLayerCommitment is the commitment to one FRI layer.
type FriLayerCommitment struct {
	// Root is the Merkle root over the layer's folding groups.
	Root merkle.Hash
	// LogSize is log2 of the layer's codeword length.
	LogSize uint32
}

// FriLayerValue carries the opened folding group of one layer at one
// query: the sibling values needed to fold, and the path authenticating
// the group leaf.
type FriLayerValue struct {
	Siblings   []core.QM31
	MerklePath *merkle.Path
}

// FriQueryProof is the per-query opening across all layers.
type FriQueryProof struct {
	QueryIndex  uint32
	LayerValues []FriLayerValue
}

// FriProof is the complete output of the commit and query phases.
type FriProof struct {
	// LayerCommitments lists every committed layer, initial codeword
	// first.
	LayerCommitments []FriLayerCommitment
	// QueryProofs holds one opening chain per query.
	QueryProofs []FriQueryProof
	// FinalPoly is the final layer in coefficient form, interpolated over
	// the index domain x_i = i.
	FinalPoly []core.QM31
}

// FriProver runs the commit and fold phases and answers queries.
type FriProver struct {
	config      FriConfig
	layers      [][]core.QM31
	commitments []*merkle.Commitment
}

// NewFriProver creates a prover with the given configuration.
func NewFriProver(config FriConfig) *FriProver {
	return &FriProver{config: config}
}

// Commit installs the initial codeword as layer zero and commits it.
func (p *FriProver) Commit(evaluations []core.QM31, logDomainSize uint32) error {
	if len(evaluations) != 1<<logDomainSize {
		return friStructure("codeword length %d does not match domain 2^%d",
			len(evaluations), logDomainSize)
	}
	if err := p.config.ValidateForDomain(logDomainSize); err != nil {
		return err
	}

	p.layers = append(p.layers, evaluations)
	p.commitments = append(p.commitments, p.commitLayer(evaluations))
	return nil
}

// Fold folds the last layer with the transcript-drawn coefficient and
// commits the result.
func (p *FriProver) Fold(alpha core.QM31) {
	last := p.layers[len(p.layers)-1]
	factor := p.config.FoldingFactor()

	next := make([]core.QM31, len(last)/factor)
	for i := range next {
		next[i] = FoldChunk(last[i*factor:(i+1)*factor], alpha)
	}

	p.layers = append(p.layers, next)
	p.commitments = append(p.commitments, p.commitLayer(next))
}

// commitLayer builds the Merkle commitment whose leaves are the layer's
// folding groups.
func (p *FriProver) commitLayer(values []core.QM31) *merkle.Commitment {
	factor := p.config.FoldingFactor()
	numGroups := len(values) / factor
	leaves := make([]merkle.Hash, numGroups)
	for g := 0; g < numGroups; g++ {
		leaves[g] = merkle.HashQM31Group(values[g*factor : (g+1)*factor])
	}
	return merkle.CommitLeaves(leaves)
}

// LayerRoots returns the commitment roots of every layer in order.
func (p *FriProver) LayerRoots() []merkle.Hash {
	roots := make([]merkle.Hash, len(p.commitments))
	for i, c := range p.commitments {
		roots[i] = c.Root()
	}
	return roots
}

// NumLayers returns the number of committed layers.
func (p *FriProver) NumLayers() int {
	return len(p.layers)
}

// FinalPoly interpolates the last layer into coefficient form over the
// index domain.
func (p *FriProver) FinalPoly() []core.QM31 {
	return InterpolateIndexDomain(p.layers[len(p.layers)-1])
}

// Prove opens every layer at the given query positions.
func (p *FriProver) Prove(queryIndices []uint32) (*FriProof, error) {
	if len(p.layers) == 0 {
		return nil, friStructure("no committed layers")
	}
	factor := uint32(p.config.FoldingFactor())

	queryProofs := make([]FriQueryProof, 0, len(queryIndices))
	for _, base := range queryIndices {
		layerValues := make([]FriLayerValue, 0, len(p.layers))
		index := base

		for layerIdx, layer := range p.layers {
			group := index / factor
			start := group * factor
			if int(start+factor) > len(layer) {
				return nil, friStructure("query %d out of range at layer %d", base, layerIdx)
			}

			siblings := make([]core.QM31, factor)
			copy(siblings, layer[start:start+factor])

			path, err := p.commitments[layerIdx].Open(group)
			if err != nil {
				return nil, friError(FriMerkleFailure, layerIdx)
			}

			layerValues = append(layerValues, FriLayerValue{
				Siblings:   siblings,
				MerklePath: path,
			})
			index = group
		}

		queryProofs = append(queryProofs, FriQueryProof{
			QueryIndex:  base,
			LayerValues: layerValues,
		})
	}

	commitments := make([]FriLayerCommitment, len(p.layers))
	for i := range p.layers {
		commitments[i] = FriLayerCommitment{
			Root:    p.commitments[i].Root(),
			LogSize: uint32(utils.Log2(len(p.layers[i]))),
		}
	}

	log := logger.Logger()
	log.Debug().
		Int("layers", len(p.layers)).
		Int("queries", len(queryIndices)).
		Msg("fri proof assembled")

	return &FriProof{
		LayerCommitments: commitments,
		QueryProofs:      queryProofs,
		FinalPoly:        p.FinalPoly(),
	}, nil
}

// FriVerifier checks the commit and query phases.
type FriVerifier struct {
	config FriConfig
}

// NewFriVerifier creates a verifier with the given configuration.
func NewFriVerifier(config FriConfig) *FriVerifier {
	return &FriVerifier{config: config}
}

// Verify checks the whole FRI proof against the replayed folding
// coefficients and query positions.
func (v *FriVerifier) Verify(proof *FriProof, alphas []core.QM31, initialLogSize uint32, queryIndices []uint32) error {
	if len(proof.LayerCommitments) == 0 {
		return friStructure("proof has no layers")
	}
	if err := v.config.ValidateForDomain(initialLogSize); err != nil {
		return err
	}

	numLayers := v.config.NumRounds(initialLogSize) + 1
	if len(proof.LayerCommitments) != numLayers {
		return friStructure("expected %d layers, proof has %d", numLayers, len(proof.LayerCommitments))
	}
	if len(alphas) != numLayers-1 {
		return friStructure("expected %d folding coefficients, got %d", numLayers-1, len(alphas))
	}

	// Layer sizes must chain down by the folding factor.
	for i, lc := range proof.LayerCommitments {
		want := initialLogSize - uint32(i)*v.config.LogFoldingFactor
		if lc.LogSize != want {
			return friError(FriFoldingInconsistent, i)
		}
	}

	if len(proof.FinalPoly) > 1<<v.config.FinalLogSize(initialLogSize) {
		return friError(FriFinalPolyTooLarge, len(proof.LayerCommitments)-1)
	}

	if len(proof.QueryProofs) != len(queryIndices) {
		return friStructure("expected %d query proofs, got %d", len(queryIndices), len(proof.QueryProofs))
	}

	for qi, query := range proof.QueryProofs {
		if query.QueryIndex != queryIndices[qi] {
			return friStructure("query %d opened index %d, transcript demands %d",
				qi, query.QueryIndex, queryIndices[qi])
		}
		if err := v.verifyQuery(&query, proof, alphas); err != nil {
			return err
		}
	}

	return nil
}

// verifyQuery walks one query's opening chain through every layer.
func (v *FriVerifier) verifyQuery(query *FriQueryProof, proof *FriProof, alphas []core.QM31) error {
	factor := uint32(v.config.FoldingFactor())
	numLayers := len(proof.LayerCommitments)

	if len(query.LayerValues) != numLayers {
		return friStructure("query %d opens %d layers, want %d",
			query.QueryIndex, len(query.LayerValues), numLayers)
	}

	index := query.QueryIndex
	for layerIdx := 0; layerIdx < numLayers; layerIdx++ {
		lv := &query.LayerValues[layerIdx]
		group := index / factor

		if len(lv.Siblings) != int(factor) {
			return friStructure("layer %d group has %d siblings, want %d",
				layerIdx, len(lv.Siblings), factor)
		}
		if lv.MerklePath == nil || lv.MerklePath.LeafIndex != group {
			return friError(FriMerkleFailure, layerIdx)
		}

		wantDepth := int(proof.LayerCommitments[layerIdx].LogSize - v.config.LogFoldingFactor)
		if lv.MerklePath.Depth() != wantDepth {
			return friError(FriMerkleFailure, layerIdx)
		}

		leafHash := merkle.HashQM31Group(lv.Siblings)
		if !lv.MerklePath.Verify(leafHash, proof.LayerCommitments[layerIdx].Root) {
			return friError(FriMerkleFailure, layerIdx)
		}

		if layerIdx < numLayers-1 {
			// The folded group value must reappear in the next layer's
			// opened group.
			folded := FoldChunk(lv.Siblings, alphas[layerIdx])
			next := &query.LayerValues[layerIdx+1]
			pos := group % factor
			if len(next.Siblings) != int(factor) {
				return friStructure("layer %d group has %d siblings, want %d",
					layerIdx+1, len(next.Siblings), factor)
			}
			if next.Siblings[pos] != folded {
				return friError(FriFoldingInconsistent, layerIdx)
			}
		} else {
			// Final layer: the opened values must match the emitted
			// polynomial evaluated at their positions.
			for s := uint32(0); s < factor; s++ {
				x := core.QM31FromM31(core.NewM31(group*factor + s))
				if EvaluatePolynomial(proof.FinalPoly, x) != lv.Siblings[s] {
					return friError(FriFoldingInconsistent, layerIdx)
				}
			}
		}

		index = group
	}

	return nil
}

// FoldChunk folds one group of evaluations with the coefficient alpha:
// sum of values[i] * alpha^i.
func FoldChunk(values []core.QM31, alpha core.QM31) core.QM31 {
	result := core.QM31Zero
	power := core.QM31One
	for _, v := range values {
		result = result.Add(v.Mul(power))
		power = power.Mul(alpha)
	}
	return result
}

// EvaluatePolynomial evaluates a coefficient vector at x using Horner's
// method.
func EvaluatePolynomial(coeffs []core.QM31, x core.QM31) core.QM31 {
	if len(coeffs) == 0 {
		return core.QM31Zero
	}
	result := coeffs[len(coeffs)-1]
	for i := len(coeffs) - 2; i >= 0; i-- {
		result = result.Mul(x).Add(coeffs[i])
	}
	return result
}

// InterpolateIndexDomain returns the coefficients of the unique polynomial
// of degree < n through the points (i, values[i]) for i in [0, n).
//
// The Lagrange denominators live in the base field; they are inverted in
// one batch.
func InterpolateIndexDomain(values []core.QM31) []core.QM31 {
	n := len(values)
	if n == 0 {
		return nil
	}

	// Denominators: prod_{j != i} (x_i - x_j) over M31.
	denoms := make([]core.M31, n)
	for i := 0; i < n; i++ {
		d := core.M31One
		xi := core.NewM31(uint32(i))
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d = d.Mul(xi.Sub(core.NewM31(uint32(j))))
		}
		denoms[i] = d
	}
	denomInvs := core.BatchInverse(denoms)

	coeffs := make([]core.QM31, n)
	basis := make([]core.M31, n)
	for i := 0; i < n; i++ {
		// Basis polynomial prod_{j != i} (x - x_j), coefficients in M31.
		for k := range basis {
			basis[k] = core.M31Zero
		}
		basis[0] = core.M31One
		deg := 0
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			xj := core.NewM31(uint32(j))
			for k := deg + 1; k > 0; k-- {
				basis[k] = basis[k-1].Sub(xj.Mul(basis[k]))
			}
			basis[0] = basis[0].Mul(xj).Neg()
			deg++
		}

		scale := denomInvs[i]
		for k := 0; k <= deg; k++ {
			coeffs[k] = coeffs[k].Add(values[i].MulM31(basis[k].Mul(scale)))
		}
	}

	return coeffs
}
