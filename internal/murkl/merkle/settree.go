package merkle

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/hashing"
)

// SetTreeDepth is the depth of the commitment set proven by the membership
// circuit: 2^16 leaves.
const SetTreeDepth = 16

// EmptySetLeaf is the value of an unpopulated set leaf.
func EmptySetLeaf() core.M31 {
	return core.M31Zero
}

// EmptySetRoots returns the empty-subtree roots per level for a set tree
// of the given depth: roots[0] is the empty leaf, roots[k] the root of an
// empty subtree of depth k.
func EmptySetRoots(depth int) []core.M31 {
	roots := make([]core.M31, depth+1)
	roots[0] = EmptySetLeaf()
	for i := 1; i <= depth; i++ {
		roots[i] = hashing.NodeM31(roots[i-1], roots[i-1])
	}
	return roots
}

// EmptySetRoot returns the root of a fully empty set tree of the given
// depth.
func EmptySetRoot(depth int) core.M31 {
	roots := EmptySetRoots(depth)
	return roots[depth]
}

// SetPath is an authentication path through the M31 set tree: sibling
// values bottom-up plus the left/right bit at each level (set bit means the
// authenticated node is the right child).
type SetPath struct {
	// Siblings holds one M31 node value per level.
	Siblings []core.M31
	// PathBits selects the hashing order at each level.
	PathBits *bitset.BitSet
}

// ComputeRoot folds the path upward from a leaf value.
func (p *SetPath) ComputeRoot(leaf core.M31) core.M31 {
	current := leaf
	for i, sibling := range p.Siblings {
		if p.PathBits.Test(uint(i)) {
			current = hashing.NodeM31(sibling, current)
		} else {
			current = hashing.NodeM31(current, sibling)
		}
	}
	return current
}

// Verify reports whether the path connects the leaf to the root.
func (p *SetPath) Verify(leaf, root core.M31) bool {
	return p.ComputeRoot(leaf) == root
}

// LeafIndex reconstructs the leaf index encoded by the path bits.
func (p *SetPath) LeafIndex() uint32 {
	var index uint32
	for i := range p.Siblings {
		if p.PathBits.Test(uint(i)) {
			index |= 1 << i
		}
	}
	return index
}

// Depth returns the number of levels in the path.
func (p *SetPath) Depth() int {
	return len(p.Siblings)
}

// SetTree is the sparse M31-node commitment set the membership circuit
// proves against. Node hashing is the M31 projection of Keccak over the
// child encodings, so the arithmetic chain can be replayed inside the
// trace.
type SetTree struct {
	depth      int
	leaves     map[uint32]core.M31
	leafCount  uint32
	emptyRoots []core.M31
}

// NewSetTree creates an empty set tree of the given depth.
func NewSetTree(depth int) *SetTree {
	return &SetTree{
		depth:      depth,
		leaves:     make(map[uint32]core.M31),
		emptyRoots: EmptySetRoots(depth),
	}
}

// NewDefaultSetTree creates a set tree with the standard depth.
func NewDefaultSetTree() *SetTree {
	return NewSetTree(SetTreeDepth)
}

// Depth returns the tree depth.
func (t *SetTree) Depth() int {
	return t.depth
}

// LeafCount returns the number of inserted leaves.
func (t *SetTree) LeafCount() uint32 {
	return t.leafCount
}

// Insert appends a leaf value at the next free position and returns its
// index.
func (t *SetTree) Insert(leaf core.M31) (uint32, error) {
	if t.leafCount >= 1<<t.depth {
		return 0, newMerkleError(MerkleOutOfBounds, int(t.leafCount), -1)
	}
	index := t.leafCount
	t.leaves[index] = leaf
	t.leafCount++
	return index, nil
}

// GetLeaf returns the leaf at an index, or the empty leaf when
// unpopulated.
func (t *SetTree) GetLeaf(index uint32) core.M31 {
	if v, ok := t.leaves[index]; ok {
		return v
	}
	return EmptySetLeaf()
}

// Root computes the current root.
func (t *SetTree) Root() core.M31 {
	return t.computeSubtree(0, t.depth)
}

// computeSubtree computes the root of the subtree of the given depth
// starting at startIndex, short-circuiting fully empty subtrees.
func (t *SetTree) computeSubtree(startIndex uint32, depth int) core.M31 {
	if depth == 0 {
		return t.GetLeaf(startIndex)
	}

	if startIndex >= t.leafCount {
		return t.emptyRoots[depth]
	}

	half := uint32(1) << (depth - 1)
	left := t.computeSubtree(startIndex, depth-1)
	var right core.M31
	if startIndex+half >= t.leafCount {
		right = t.emptyRoots[depth-1]
	} else {
		right = t.computeSubtree(startIndex+half, depth-1)
	}

	return hashing.NodeM31(left, right)
}

// GetPath returns the authentication path for a leaf index.
func (t *SetTree) GetPath(index uint32) (*SetPath, error) {
	if index >= 1<<t.depth {
		return nil, newMerkleError(MerkleOutOfBounds, int(index), -1)
	}

	siblings := make([]core.M31, t.depth)
	bits := bitset.New(uint(t.depth))
	current := index

	for level := 0; level < t.depth; level++ {
		if current&1 == 1 {
			bits.Set(uint(level))
		}
		siblingIndex := current ^ 1
		siblings[level] = t.computeSubtree(siblingIndex<<level, level)
		current >>= 1
	}

	return &SetPath{Siblings: siblings, PathBits: bits}, nil
}
