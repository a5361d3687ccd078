package protocols

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/logger"
	"github.com/exidz/murkl/internal/murkl/merkle"
)

// ProverConfig bundles the parameters of a proving run.
type ProverConfig struct {
	// Fri configures the low-degree test.
	Fri FriConfig
	// NumQueries is the number of opened positions.
	NumQueries int
	// LogBlowupFactor is log2 of the evaluation-domain blowup.
	LogBlowupFactor uint32
	// SelfCheck makes the prover verify all constraints on the trace
	// before committing anything.
	SelfCheck bool
}

// DefaultProverConfig returns the standard configuration: 50 queries,
// 16x blowup, self-check on.
func DefaultProverConfig() ProverConfig {
	return NewProverConfig(50, 4)
}

// HighSecurityProverConfig doubles the query count.
func HighSecurityProverConfig() ProverConfig {
	return NewProverConfig(100, 4)
}

// FastProverConfig is the development setting: 25 queries, 8x blowup.
// Production deployments must validate SecurityBits against their target
// instead.
func FastProverConfig() ProverConfig {
	return NewProverConfig(25, 3)
}

// NewProverConfig creates a configuration with the given query count and
// blowup, folding by 4 down to a final polynomial of length 4.
func NewProverConfig(numQueries int, logBlowupFactor uint32) ProverConfig {
	return ProverConfig{
		Fri:             NewFriConfig(logBlowupFactor, numQueries, 2, 2),
		NumQueries:      numQueries,
		LogBlowupFactor: logBlowupFactor,
		SelfCheck:       true,
	}
}

// WithNumQueries sets the query count on both the prover and FRI.
func (c ProverConfig) WithNumQueries(n int) ProverConfig {
	c.NumQueries = n
	c.Fri.NumQueries = n
	return c
}

// WithLogBlowupFactor sets the blowup on both the prover and FRI.
func (c ProverConfig) WithLogBlowupFactor(logBlowup uint32) ProverConfig {
	c.LogBlowupFactor = logBlowup
	c.Fri.LogBlowupFactor = logBlowup
	return c
}

// WithSelfCheck toggles the prover-side constraint check.
func (c ProverConfig) WithSelfCheck(enabled bool) ProverConfig {
	c.SelfCheck = enabled
	return c
}

// Validate rejects inconsistent parameters.
func (c ProverConfig) Validate() error {
	if err := c.Fri.Validate(); err != nil {
		return err
	}
	if c.NumQueries <= 0 {
		return invalidConfig("number of queries must be positive")
	}
	if c.NumQueries != c.Fri.NumQueries {
		return invalidConfig("prover and FRI query counts disagree")
	}
	if c.LogBlowupFactor != c.Fri.LogBlowupFactor {
		return invalidConfig("prover and FRI blowup factors disagree")
	}
	return nil
}

// ValidateSecurity additionally checks the soundness arithmetic against a
// target bit level.
func (c ProverConfig) ValidateSecurity(targetBits uint32) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if bits := c.Fri.SecurityBits(); bits < targetBits {
		return invalidConfig("configuration provides %d bits, target is %d", bits, targetBits)
	}
	return nil
}

// Prover generates STARK proofs.
type Prover struct {
	config ProverConfig
}

// NewProver creates a prover with the given configuration.
func NewProver(config ProverConfig) *Prover {
	return &Prover{config: config}
}

// NewDefaultProver creates a prover with the default configuration.
func NewDefaultProver() *Prover {
	return NewProver(DefaultProverConfig())
}

// Config returns the prover configuration.
func (p *Prover) Config() ProverConfig {
	return p.config
}

// Prove runs the full pipeline: commit the trace, compose the
// constraints, drive FRI, and open all commitments at the transcript's
// query positions.
func (p *Prover) Prove(evaluator ConstraintEvaluator, trace *Trace, publicInputs PublicInputs) (*Proof, error) {
	start := time.Now()
	log := logger.Logger()

	if err := p.config.Validate(); err != nil {
		return nil, err
	}
	if err := trace.Validate(); err != nil {
		return nil, err
	}

	if p.config.SelfCheck {
		if err := VerifyConstraints(evaluator, trace); err != nil {
			return nil, err
		}
	}

	// The composition domain must dominate the constraint degree.
	maxDegree := evaluator.MaxDegree()
	if maxDegree > 1<<p.config.LogBlowupFactor {
		return nil, invalidConfig("constraint degree %d exceeds blowup 2^%d",
			maxDegree, p.config.LogBlowupFactor)
	}

	logDomainSize := trace.LogNumRows() + p.config.LogBlowupFactor
	if err := p.config.Fri.ValidateForDomain(logDomainSize); err != nil {
		return nil, err
	}
	domainSize := 1 << logDomainSize

	extended := trace.Extend(p.config.LogBlowupFactor)

	// Step 1: commit every trace column on the evaluation domain. The
	// commitments are independent, so they build in parallel; the group
	// joins before anything is absorbed so the transcript sees a fixed
	// order.
	traceCommitments := make([]*merkle.Commitment, extended.NumColumns())
	var group errgroup.Group
	for i := range extended.Columns {
		i := i
		group.Go(func() error {
			traceCommitments[i] = commitColumn(extended.Columns[i].Values)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, &ProofError{Code: ErrMerkle, Message: "trace commitment failed", Cause: err}
	}

	transcript := NewTranscript()
	transcript.Absorb(publicInputs.Bytes())

	traceRoots := make([]merkle.Hash, len(traceCommitments))
	for i, c := range traceCommitments {
		traceRoots[i] = c.Root()
		transcript.Absorb(traceRoots[i][:])
	}
	log.Debug().Int("columns", len(traceRoots)).Msg("trace committed")

	// Step 2: one combiner per declared constraint.
	coefficients := transcript.SqueezeScalars(len(evaluator.Constraints()))

	// Step 3: compose constraints over the evaluation domain.
	constraintEvals := make([][]core.M31, domainSize)
	for row := 0; row < domainSize; row++ {
		constraintEvals[row] = evaluator.Evaluate(extended, row)
	}
	composition := ComposeConstraints(constraintEvals, coefficients)

	compositionCommitment := commitColumn(composition)
	compositionRoot := compositionCommitment.Root()
	transcript.Absorb(compositionRoot[:])

	// Step 4: out-of-domain samples at a transcript-drawn point.
	z := transcript.SqueezeExtensionScalar()
	lifted := liftColumn(composition)
	traceOODS := sampleTraceOODS(extended, z)
	compositionOODS := EvaluatePolynomial(lifted, z)
	transcript.AbsorbQM31(traceOODS)
	transcript.AbsorbQM31(compositionOODS)

	// Step 5: FRI over the lifted composition codeword.
	friProver := NewFriProver(p.config.Fri)
	if err := friProver.Commit(lifted, logDomainSize); err != nil {
		return nil, err
	}
	roots := friProver.LayerRoots()
	transcript.Absorb(roots[0][:])

	numRounds := p.config.Fri.NumRounds(logDomainSize)
	for round := 0; round < numRounds; round++ {
		alpha := transcript.SqueezeExtensionScalar()
		friProver.Fold(alpha)
		roots = friProver.LayerRoots()
		last := roots[len(roots)-1]
		transcript.Absorb(last[:])
	}

	for _, coeff := range friProver.FinalPoly() {
		transcript.AbsorbQM31(coeff)
	}

	// Step 6: query positions over the composition domain.
	queryIndices, err := transcript.SqueezeIndices(p.config.NumQueries, domainSize)
	if err != nil {
		return nil, err
	}

	friProof, err := friProver.Prove(queryIndices)
	if err != nil {
		return nil, err
	}

	// Step 7: open trace and composition at every query position.
	queryProofs := make([]QueryProof, len(queryIndices))
	for qi, index := range queryIndices {
		openings := make([]Opening, len(traceCommitments))
		for col, commitment := range traceCommitments {
			path, err := commitment.Open(index)
			if err != nil {
				return nil, merkleFailure(merkle.MerkleOutOfBounds, int(index), col)
			}
			openings[col] = Opening{Value: extended.Columns[col].Values[index], Path: path}
		}

		compPath, err := compositionCommitment.Open(index)
		if err != nil {
			return nil, merkleFailure(merkle.MerkleOutOfBounds, int(index), -1)
		}

		queryProofs[qi] = QueryProof{
			Index:         index,
			TraceOpenings: openings,
			Composition:   Opening{Value: composition[index], Path: compPath},
		}
	}

	log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("queries", len(queryIndices)).
		Uint32("log_domain", logDomainSize).
		Msg("proof generated")

	return &Proof{
		TraceRoots:      traceRoots,
		CompositionRoot: compositionRoot,
		TraceOODS:       traceOODS,
		CompositionOODS: compositionOODS,
		Fri:             friProof,
		QueryProofs:     queryProofs,
		PublicInputs:    publicInputs,
	}, nil
}

// commitColumn commits a column of field elements leaf by leaf.
func commitColumn(values []core.M31) *merkle.Commitment {
	leaves := make([]merkle.Hash, len(values))
	for i, v := range values {
		leaves[i] = merkle.HashLeaf(v)
	}
	return merkle.CommitLeaves(leaves)
}

// liftColumn embeds a base-field column into the extension field.
func liftColumn(values []core.M31) []core.QM31 {
	out := make([]core.QM31, len(values))
	for i, v := range values {
		out[i] = core.QM31FromM31(v)
	}
	return out
}

// sampleTraceOODS folds the first trace row with powers of the
// out-of-domain point: sum of z^j * trace[0][j].
func sampleTraceOODS(trace *Trace, z core.QM31) core.QM31 {
	acc := core.QM31Zero
	power := core.QM31One
	for col := range trace.Columns {
		acc = acc.Add(power.MulM31(trace.Columns[col].Values[0]))
		power = power.Mul(z)
	}
	return acc
}
