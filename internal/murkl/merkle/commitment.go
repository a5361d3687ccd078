package merkle

// BuildLevels builds a dense Merkle tree bottom-up from leaf hashes,
// padding to the next power of two with the empty-leaf hash. It returns
// the root and all levels, leaves first.
func BuildLevels(leaves []Hash) (Hash, [][]Hash) {
	if len(leaves) == 0 {
		return ZeroHash, nil
	}

	paddedSize := 1
	for paddedSize < len(leaves) {
		paddedSize <<= 1
	}

	current := make([]Hash, paddedSize)
	copy(current, leaves)
	empty := HashBytes(nil)
	for i := len(leaves); i < paddedSize; i++ {
		current[i] = empty
	}

	levels := [][]Hash{current}
	for len(current) > 1 {
		next := make([]Hash, len(current)/2)
		for i := range next {
			next[i] = HashPair(current[2*i], current[2*i+1])
		}
		levels = append(levels, next)
		current = next
	}

	return current[0], levels
}

// Commitment is a commit-once/open-many vector commitment: the full
// interior tree is memoised so any leaf can be opened later.
type Commitment struct {
	root   Hash
	levels [][]Hash
}

// CommitLeaves commits to a vector of precomputed leaf hashes.
func CommitLeaves(leaves []Hash) *Commitment {
	root, levels := BuildLevels(leaves)
	return &Commitment{root: root, levels: levels}
}

// Root returns the committed root.
func (c *Commitment) Root() Hash {
	return c.root
}

// Size returns the number of committed leaves (after padding).
func (c *Commitment) Size() int {
	if len(c.levels) == 0 {
		return 0
	}
	return len(c.levels[0])
}

// Depth returns the path length of every opening.
func (c *Commitment) Depth() int {
	if len(c.levels) == 0 {
		return 0
	}
	return len(c.levels) - 1
}

// Open returns the authentication path for the given leaf index.
func (c *Commitment) Open(index uint32) (*Path, error) {
	if len(c.levels) == 0 || int(index) >= len(c.levels[0]) {
		return nil, newMerkleError(MerkleOutOfBounds, int(index), -1)
	}

	numSiblings := len(c.levels) - 1
	siblings := make([]Hash, 0, numSiblings)
	idx := index
	for level := 0; level < numSiblings; level++ {
		siblings = append(siblings, c.levels[level][idx^1])
		idx >>= 1
	}

	return &Path{Siblings: siblings, LeafIndex: index}, nil
}

// VerifyOpening checks a leaf hash and path against the committed root.
func (c *Commitment) VerifyOpening(leafHash Hash, path *Path) bool {
	if path.Depth() != c.Depth() {
		return false
	}
	return path.Verify(leafHash, c.root)
}
