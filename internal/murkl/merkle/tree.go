// Package merkle implements the Keccak-256 Merkle commitments used by the
// proof system: a sparse byte-hash tree for on-chain commitment sets, a
// dense commit-once/open-many vector commitment for codewords, and an
// M31-node tree backing the in-circuit membership argument.
package merkle

import (
	"fmt"

	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/hashing"
)

// DefaultTreeDepth supports 2^20 leaves.
const DefaultTreeDepth = 20

// HashSize is the node hash size in bytes.
const HashSize = 32

// Hash is a 32-byte node value.
type Hash = [HashSize]byte

// ZeroHash is the all-zero hash value.
var ZeroHash = Hash{}

// HashPair hashes two child hashes into their parent.
func HashPair(left, right Hash) Hash {
	return hashing.Keccak(left[:], right[:])
}

// HashLeaf hashes a single M31 leaf value (its 4-byte little-endian
// encoding).
func HashLeaf(value core.M31) Hash {
	b := value.Bytes()
	return hashing.Keccak(b[:])
}

// HashQM31Group hashes a group of extension elements into one leaf,
// concatenating their 16-byte encodings in order.
func HashQM31Group(values []core.QM31) Hash {
	h := make([]byte, 0, len(values)*16)
	for _, v := range values {
		b := v.Bytes()
		h = append(h, b[:]...)
	}
	return hashing.Keccak(h)
}

// HashBytes hashes arbitrary bytes.
func HashBytes(data []byte) Hash {
	return hashing.Keccak(data)
}

// EmptyHashes returns the empty-subtree hash chain for a tree of the given
// depth: out[0] = Keccak(empty leaf), out[k] = Keccak(out[k-1] || out[k-1]).
func EmptyHashes(depth int) []Hash {
	hashes := make([]Hash, depth+1)
	hashes[0] = HashBytes(nil)
	for i := 1; i <= depth; i++ {
		hashes[i] = HashPair(hashes[i-1], hashes[i-1])
	}
	return hashes
}

// Path is a Merkle authentication path: the sibling hashes from the leaf
// level upward, plus the leaf index that selects left/right at each level.
type Path struct {
	// Siblings holds one hash per level, bottom up.
	Siblings []Hash
	// LeafIndex is the index of the authenticated leaf.
	LeafIndex uint32
}

// Depth returns the number of levels in the path.
func (p *Path) Depth() int {
	return len(p.Siblings)
}

// ComputeRoot folds the path upward from the given leaf hash.
func (p *Path) ComputeRoot(leafHash Hash) Hash {
	current := leafHash
	index := p.LeafIndex
	for _, sibling := range p.Siblings {
		if index&1 == 0 {
			current = HashPair(current, sibling)
		} else {
			current = HashPair(sibling, current)
		}
		index >>= 1
	}
	return current
}

// Verify reports whether the path connects the leaf hash to the root.
func (p *Path) Verify(leafHash, root Hash) bool {
	return p.ComputeRoot(leafHash) == root
}

// Equal reports whether two paths are identical.
func (p *Path) Equal(other *Path) bool {
	if p.LeafIndex != other.LeafIndex || len(p.Siblings) != len(other.Siblings) {
		return false
	}
	for i := range p.Siblings {
		if p.Siblings[i] != other.Siblings[i] {
			return false
		}
	}
	return true
}

// Tree is a sparse binary Merkle tree of fixed depth.
//
// Only populated leaves are stored; fully empty subtrees resolve to the
// cached empty-subtree hash of their level, so the root is a pure function
// of the non-empty leaves.
type Tree struct {
	depth       int
	leaves      map[uint32]Hash
	emptyHashes []Hash
	leafCount   uint32
}

// NewTree creates an empty tree of the given depth.
func NewTree(depth int) *Tree {
	return &Tree{
		depth:       depth,
		leaves:      make(map[uint32]Hash),
		emptyHashes: EmptyHashes(depth),
	}
}

// NewDefaultTree creates an empty tree with the default depth.
func NewDefaultTree() *Tree {
	return NewTree(DefaultTreeDepth)
}

// Depth returns the tree depth.
func (t *Tree) Depth() int {
	return t.depth
}

// LeafCount returns the number of leaves inserted so far.
func (t *Tree) LeafCount() uint32 {
	return t.leafCount
}

// Capacity returns the maximum number of leaves the tree can hold.
func (t *Tree) Capacity() uint32 {
	return 1 << t.depth
}

// Insert appends a leaf hash at the next free position and returns its
// index.
func (t *Tree) Insert(leafHash Hash) (uint32, error) {
	if t.leafCount >= t.Capacity() {
		return 0, newMerkleError(MerkleOutOfBounds, int(t.leafCount), -1)
	}
	index := t.leafCount
	t.leaves[index] = leafHash
	t.leafCount++
	return index, nil
}

// InsertM31 hashes an M31 value and inserts it as a leaf.
func (t *Tree) InsertM31(value core.M31) (uint32, error) {
	return t.Insert(HashLeaf(value))
}

// Set places a leaf hash at a specific index.
func (t *Tree) Set(index uint32, leafHash Hash) error {
	if index >= t.Capacity() {
		return newMerkleError(MerkleOutOfBounds, int(index), -1)
	}
	t.leaves[index] = leafHash
	if index >= t.leafCount {
		t.leafCount = index + 1
	}
	return nil
}

// GetLeaf returns the leaf hash at the index, or the empty-leaf hash for
// unpopulated slots.
func (t *Tree) GetLeaf(index uint32) Hash {
	if h, ok := t.leaves[index]; ok {
		return h
	}
	return t.emptyHashes[0]
}

// Root computes the tree root, descending only into subtrees that
// intersect populated leaves.
func (t *Tree) Root() Hash {
	return t.computeNode(0, t.depth)
}

// computeNode computes the hash of the node at the given index within its
// level, where level 0 is the leaves.
func (t *Tree) computeNode(index uint32, level int) Hash {
	if level == 0 {
		return t.GetLeaf(index)
	}

	subtreeStart := index << level
	if subtreeStart >= t.leafCount {
		return t.emptyHashes[level]
	}

	left := t.computeNode(index*2, level-1)

	rightIndex := index*2 + 1
	var right Hash
	if rightIndex<<(level-1) >= t.leafCount {
		right = t.emptyHashes[level-1]
	} else {
		right = t.computeNode(rightIndex, level-1)
	}

	return HashPair(left, right)
}

// GetPath returns the authentication path for a leaf, consulting the
// cached empty hashes for levels with no populated sibling.
func (t *Tree) GetPath(leafIndex uint32) (*Path, error) {
	if leafIndex >= t.Capacity() {
		return nil, newMerkleError(MerkleOutOfBounds, int(leafIndex), -1)
	}

	siblings := make([]Hash, 0, t.depth)
	index := leafIndex
	for level := 0; level < t.depth; level++ {
		siblingIndex := index ^ 1
		if siblingIndex<<level >= t.leafCount {
			siblings = append(siblings, t.emptyHashes[level])
		} else {
			siblings = append(siblings, t.computeNode(siblingIndex, level))
		}
		index >>= 1
	}

	return &Path{Siblings: siblings, LeafIndex: leafIndex}, nil
}

// Verify checks a leaf hash at the given index against the current root.
func (t *Tree) Verify(leafIndex uint32, leafHash Hash) bool {
	path, err := t.GetPath(leafIndex)
	if err != nil {
		return false
	}
	return path.Verify(leafHash, t.Root())
}

// ErrorKind enumerates Merkle failure classes.
type ErrorKind int

const (
	// MerkleOutOfBounds flags an index outside the tree capacity.
	MerkleOutOfBounds ErrorKind = iota
	// MerklePathLengthMismatch flags a path whose depth disagrees with the
	// committed tree.
	MerklePathLengthMismatch
	// MerkleRootMismatch flags an opening that does not connect to the
	// committed root.
	MerkleRootMismatch
)

// Error is a typed Merkle failure. Column is the index of the offending
// commitment when several are checked side by side, -1 otherwise.
type Error struct {
	Kind   ErrorKind
	Index  int
	Column int
}

func newMerkleError(kind ErrorKind, index, column int) *Error {
	return &Error{Kind: kind, Index: index, Column: column}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case MerkleOutOfBounds:
		return fmt.Sprintf("merkle: index %d out of bounds", e.Index)
	case MerklePathLengthMismatch:
		return fmt.Sprintf("merkle: path length mismatch at index %d", e.Index)
	case MerkleRootMismatch:
		return fmt.Sprintf("merkle: root mismatch (column %d)", e.Column)
	default:
		return "merkle: unknown error"
	}
}

// Is matches on the failure kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
