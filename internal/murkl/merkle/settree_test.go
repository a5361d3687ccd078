package merkle

import (
	"testing"

	"github.com/exidz/murkl/internal/murkl/core"
	"github.com/exidz/murkl/internal/murkl/hashing"
)

func TestEmptySetTreeRoot(t *testing.T) {
	tree := NewSetTree(8)
	if tree.Root() != EmptySetRoot(8) {
		t.Fatal("empty set tree root disagrees with precomputed root")
	}

	roots := EmptySetRoots(8)
	if roots[0] != EmptySetLeaf() {
		t.Fatal("level 0 is not the empty leaf")
	}
	for i := 1; i < len(roots); i++ {
		if roots[i] != hashing.NodeM31(roots[i-1], roots[i-1]) {
			t.Fatalf("empty root chain broken at %d", i)
		}
	}
}

func TestSetTreeSingleLeaf(t *testing.T) {
	tree := NewSetTree(8)
	index, err := tree.Insert(core.NewM31(12345))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if index != 0 {
		t.Fatalf("first index should be 0, got %d", index)
	}
	if tree.GetLeaf(0).Value() != 12345 {
		t.Fatal("leaf not stored")
	}
}

func TestSetTreePathVerification(t *testing.T) {
	tree := NewSetTree(8)
	for i := uint32(0); i < 10; i++ {
		if _, err := tree.Insert(core.NewM31(i*1000 + 123)); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	root := tree.Root()
	for i := uint32(0); i < 10; i++ {
		path, err := tree.GetPath(i)
		if err != nil {
			t.Fatalf("path %d failed: %v", i, err)
		}
		if !path.Verify(tree.GetLeaf(i), root) {
			t.Fatalf("path verification failed for leaf %d", i)
		}
		if path.LeafIndex() != i {
			t.Fatalf("path bits encode %d, want %d", path.LeafIndex(), i)
		}
	}
}

func TestSetTreeWrongLeafRejected(t *testing.T) {
	tree := NewSetTree(8)
	for i := uint32(0); i < 4; i++ {
		_, _ = tree.Insert(core.NewM31(i + 1))
	}

	root := tree.Root()
	path, err := tree.GetPath(2)
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	if path.Verify(core.NewM31(9999), root) {
		t.Fatal("wrong leaf accepted")
	}
}

func TestSetTreeDifferentRoots(t *testing.T) {
	tree1 := NewSetTree(8)
	tree2 := NewSetTree(8)
	_, _ = tree1.Insert(core.NewM31(100))
	_, _ = tree2.Insert(core.NewM31(200))
	if tree1.Root() == tree2.Root() {
		t.Fatal("different trees share a root")
	}
}

func TestSetTreeBounds(t *testing.T) {
	tree := NewSetTree(2)
	for i := 0; i < 4; i++ {
		if _, err := tree.Insert(core.NewM31(uint32(i))); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	if _, err := tree.Insert(core.NewM31(4)); err == nil {
		t.Fatal("insert into a full tree accepted")
	}
	if _, err := tree.GetPath(4); err == nil {
		t.Fatal("out-of-bounds path accepted")
	}
}

func TestSetTreeDefaultDepth(t *testing.T) {
	tree := NewDefaultSetTree()
	if tree.Depth() != SetTreeDepth {
		t.Fatalf("default depth wrong: %d", tree.Depth())
	}
}
