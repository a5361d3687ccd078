package protocols

import (
	"strconv"

	"github.com/bits-and-blooms/bitset"

	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/hashing"
	"github.com/exidz/murkl/internal/murkl/merkle"
)

// MembershipColsPerLevel is the number of trace columns per Merkle level:
// current, sibling, path bit, next.
const MembershipColsPerLevel = 4

// MembershipLogNumRows is the default trace height for membership proofs.
const MembershipLogNumRows uint32 = 10

// MembershipPublicInputs are the public values of a membership claim.
type MembershipPublicInputs struct {
	// MerkleRoot is the root of the commitment set.
	MerkleRoot core.M31
	// Nullifier prevents double-claims.
	Nullifier core.M31
	// Recipient is the identifier hash funds are released to.
	Recipient core.M31
}

// ToPublicInputs flattens into the generic proof representation: the root
// as initial state, nullifier and recipient as final state.
func (p MembershipPublicInputs) ToPublicInputs() PublicInputs {
	return PublicInputs{
		InitialState: []core.M31{p.MerkleRoot},
		FinalState:   []core.M31{p.Nullifier, p.Recipient},
	}
}

// MembershipWitness is the private side of a claim. None of these values
// appear in the proof.
type MembershipWitness struct {
	// Leaf is the commitment stored in the set.
	Leaf core.M31
	// Secret is the scalar derived from the password.
	Secret core.M31
	// Identifier is the hashed social identifier.
	Identifier core.M31
	// LeafIndex is the position of the leaf in the set.
	LeafIndex uint32
	// Siblings is the authentication path, bottom up.
	Siblings []core.M31
	// PathBits selects the hashing order per level.
	PathBits *bitset.BitSet
}

// NewMembershipWitness creates a zero witness for the given tree depth.
func NewMembershipWitness(treeDepth int) *MembershipWitness {
	return &MembershipWitness{
		Siblings: make([]core.M31, treeDepth),
		PathBits: bitset.New(uint(treeDepth)),
	}
}

// Zeroize wipes all secret material. Call it as soon as the witness is no
// longer needed.
func (w *MembershipWitness) Zeroize() {
	w.Leaf = core.M31Zero
	w.Secret = core.M31Zero
	w.Identifier = core.M31Zero
	w.LeafIndex = 0
	for i := range w.Siblings {
		w.Siblings[i] = core.M31Zero
	}
	if w.PathBits != nil {
		w.PathBits.ClearAll()
	}
}

// MembershipClaim pairs public inputs with the witness that satisfies
// them.
type MembershipClaim struct {
	PublicInputs MembershipPublicInputs
	Witness      *MembershipWitness
}

// NewMembershipClaim assembles a claim from the commitment set and the
// holder's secrets, deriving the leaf, path, and nullifier.
func NewMembershipClaim(tree *merkle.SetTree, identifier, secret core.M31, leafIndex uint32, recipient core.M31) (*MembershipClaim, error) {
	path, err := tree.GetPath(leafIndex)
	if err != nil {
		return nil, invalidWitness("leaf index %d out of range", leafIndex)
	}

	_, nullifier := hashing.Nullifier(secret, leafIndex)

	claim := &MembershipClaim{
		PublicInputs: MembershipPublicInputs{
			MerkleRoot: tree.Root(),
			Nullifier:  nullifier,
			Recipient:  recipient,
		},
		Witness: &MembershipWitness{
			Leaf:       tree.GetLeaf(leafIndex),
			Secret:     secret,
			Identifier: identifier,
			LeafIndex:  leafIndex,
			Siblings:   path.Siblings,
			PathBits:   path.PathBits,
		},
	}

	if err := claim.VerifyConsistency(); err != nil {
		return nil, err
	}
	return claim, nil
}

// VerifyConsistency checks the witness against the public inputs: the leaf
// must be the commitment of (identifier, secret), the hash chain must
// reach the declared root, and the nullifier must rederive. The in-circuit
// hash is deliberately validated here rather than inlined as constraints.
func (c *MembershipClaim) VerifyConsistency() error {
	w := c.Witness
	if w == nil {
		return invalidWitness("missing witness")
	}
	if len(w.Siblings) == 0 {
		return invalidWitness("empty authentication path")
	}

	_, leaf := hashing.Commitment(w.Identifier, w.Secret)
	if leaf != w.Leaf {
		return invalidWitness("leaf is not the commitment of (identifier, secret)")
	}

	_, nullifier := hashing.Nullifier(w.Secret, w.LeafIndex)
	if nullifier != c.PublicInputs.Nullifier {
		return invalidWitness("nullifier does not rederive from (secret, leaf index)")
	}

	path := &merkle.SetPath{Siblings: w.Siblings, PathBits: w.PathBits}
	if path.LeafIndex() != w.LeafIndex {
		return invalidWitness("path bits disagree with leaf index")
	}
	if !path.Verify(w.Leaf, c.PublicInputs.MerkleRoot) {
		return invalidWitness("authentication path does not reach the declared root")
	}

	return nil
}

// MembershipAir is the constraint system for Merkle membership plus
// nullifier consistency.
//
// Columns: identifier, secret, leaf, then per level (current, sibling,
// path_bit, next), then root, then (null_secret, leaf_index, nullifier).
type MembershipAir struct {
	// TreeDepth is the number of Merkle levels.
	TreeDepth int
	// LogNumRows is log2 of the trace height.
	LogNumRows uint32
}

// NewMembershipAir creates the AIR for the given set depth.
func NewMembershipAir(treeDepth int) *MembershipAir {
	return &MembershipAir{TreeDepth: treeDepth, LogNumRows: MembershipLogNumRows}
}

// NumColumns returns the total trace width.
func (a *MembershipAir) NumColumns() int {
	return 3 + a.TreeDepth*MembershipColsPerLevel + 4
}

// Column offsets within a level block and the tail block.
func (a *MembershipAir) levelBase(level int) int {
	return 3 + level*MembershipColsPerLevel
}

func (a *MembershipAir) rootColumn() int {
	return 3 + a.TreeDepth*MembershipColsPerLevel
}

// GenerateTrace encodes the claim into a trace. The claim is repeated on
// every row so that all row-local constraints and boundary bindings hold
// at any query position.
func (a *MembershipAir) GenerateTrace(claim *MembershipClaim) (*Trace, error) {
	if err := claim.VerifyConsistency(); err != nil {
		return nil, err
	}
	w := claim.Witness
	if len(w.Siblings) != a.TreeDepth {
		return nil, invalidWitness("path has %d levels, tree depth is %d", len(w.Siblings), a.TreeDepth)
	}

	row := make([]core.M31, a.NumColumns())
	col := 0
	row[col] = w.Identifier
	col++
	row[col] = w.Secret
	col++
	row[col] = w.Leaf
	col++

	current := w.Leaf
	for level := 0; level < a.TreeDepth; level++ {
		sibling := w.Siblings[level]
		bit := w.PathBits.Test(uint(level))

		row[col] = current
		col++
		row[col] = sibling
		col++
		if bit {
			row[col] = core.M31One
		}
		col++

		var next core.M31
		if bit {
			next = hashing.NodeM31(sibling, current)
		} else {
			next = hashing.NodeM31(current, sibling)
		}
		row[col] = next
		col++

		current = next
	}

	row[col] = claim.PublicInputs.MerkleRoot
	col++
	row[col] = w.Secret
	col++
	row[col] = core.NewM31(w.LeafIndex)
	col++
	row[col] = claim.PublicInputs.Nullifier

	numRows := 1 << a.LogNumRows
	columns := make([]TraceColumn, len(row))
	for c := range row {
		values := make([]core.M31, numRows)
		for r := range values {
			values[r] = row[c]
		}
		columns[c] = NewTraceColumn(c, values)
	}

	return NewTrace(columns), nil
}

// Constraints declares the constraint set: per-level path-bit booleanity,
// the hash-chain linkage, the root boundary, and nullifier-secret
// consistency.
func (a *MembershipAir) Constraints() []Constraint {
	constraints := make([]Constraint, 0, 2*a.TreeDepth+3)

	for level := 0; level < a.TreeDepth; level++ {
		bitCol := a.levelBase(level) + 2
		constraints = append(constraints, NewConstraint(
			boolName(level), 2, []int{bitCol}))
	}

	constraints = append(constraints, NewConstraint(
		"chain_start", 1, []int{2, a.levelBase(0)}))

	for level := 0; level+1 < a.TreeDepth; level++ {
		constraints = append(constraints, NewConstraint(
			linkName(level), 1,
			[]int{a.levelBase(level) + 3, a.levelBase(level + 1)}))
	}

	constraints = append(constraints, NewConstraint(
		"chain_root", 1,
		[]int{a.levelBase(a.TreeDepth-1) + 3, a.rootColumn()}))

	constraints = append(constraints, NewConstraint(
		"secret_consistency", 1, []int{1, a.rootColumn() + 1}))

	return constraints
}

// Evaluate computes every constraint at the given row, in declaration
// order.
func (a *MembershipAir) Evaluate(trace *Trace, row int) []core.M31 {
	out := make([]core.M31, 0, 2*a.TreeDepth+3)

	for level := 0; level < a.TreeDepth; level++ {
		bit := trace.Get(row, a.levelBase(level)+2)
		out = append(out, bit.Mul(core.M31One.Sub(bit)))
	}

	leaf := trace.Get(row, 2)
	out = append(out, trace.Get(row, a.levelBase(0)).Sub(leaf))

	for level := 0; level+1 < a.TreeDepth; level++ {
		next := trace.Get(row, a.levelBase(level)+3)
		current := trace.Get(row, a.levelBase(level+1))
		out = append(out, current.Sub(next))
	}

	lastNext := trace.Get(row, a.levelBase(a.TreeDepth-1)+3)
	out = append(out, trace.Get(row, a.rootColumn()).Sub(lastNext))

	secret := trace.Get(row, 1)
	nullSecret := trace.Get(row, a.rootColumn()+1)
	out = append(out, nullSecret.Sub(secret))

	return out
}

// MaxDegree returns the maximum constraint degree (the booleanity
// constraints, degree 2).
func (a *MembershipAir) MaxDegree() int {
	return MaxDegree(a.Constraints())
}

// Boundaries binds the root and nullifier columns to the declared public
// inputs.
func (a *MembershipAir) Boundaries(pub PublicInputs) []Boundary {
	boundaries := make([]Boundary, 0, 2)
	if len(pub.InitialState) > 0 {
		boundaries = append(boundaries, Boundary{Column: a.rootColumn(), Value: pub.InitialState[0]})
	}
	if len(pub.FinalState) > 0 {
		boundaries = append(boundaries, Boundary{Column: a.rootColumn() + 3, Value: pub.FinalState[0]})
	}
	return boundaries
}

func boolName(level int) string {
	return "path_bit_boolean_" + strconv.Itoa(level)
}

func linkName(level int) string {
	return "chain_link_" + strconv.Itoa(level)
}
