// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import (
	"git.lukeshu.com/bang-cluster/lib/containers"
)

// directoryEntry is a node of the binary directory tree (spec.md §3).
// Its shape is grounded on the teacher's containers.RBNode[V]
// (lib/containers/rbtree.go): owning Left/Right children plus a
// non-owning parent back-reference, generalized from a balanced-tree
// node that always carries a value to a buddy-split node whose payload
// is optional (containers.Optional, grounded on
// lib/containers/optional.go).
type directoryEntry struct {
	region containers.Optional[GridRegion]

	left, right *directoryEntry // owning
	back        *directoryEntry // non-owning; nil at the root
}

func newRootEntry(code RegionCode, level uint32) *directoryEntry {
	return &directoryEntry{
		region: containers.Optional[GridRegion]{OK: true, Val: *newGridRegion(code, level)},
	}
}

func (e *directoryEntry) hasRegion() bool { return e.region.OK }

// regionPtr returns an addressable pointer into this entry's region,
// so callers can mutate fields (e.g. Density, Tuples) in place.  Only
// valid when hasRegion() is true.
func (e *directoryEntry) regionPtr() *GridRegion { return &e.region.Val }

// createBuddySplit performs the structural half of spec.md §4.3's
// buddy split: the entry must already carry a region R at level L,
// code c.  Two empty children are created: left gets (code=c,
// level=L+1), right gets (code=c|(1<<L), level=L+1).  The entry's own
// region and tuples are left untouched -- the caller
// (Engine.manageBuddySplit) re-inserts the old tuples, and its callers
// (splitRegion, redistribute) decide what becomes of the entry's copy.
func (e *directoryEntry) createBuddySplit() {
	r := e.region.Val
	leftCode := r.Code
	rightCode := r.Code | (RegionCode(1) << r.Level)
	e.left = &directoryEntry{
		region: containers.Optional[GridRegion]{OK: true, Val: *newGridRegion(leftCode, r.Level+1)},
		back:   e,
	}
	e.right = &directoryEntry{
		region: containers.Optional[GridRegion]{OK: true, Val: *newGridRegion(rightCode, r.Level+1)},
		back:   e,
	}
}

func (e *directoryEntry) clearBuddySplit() {
	e.left = nil
	e.right = nil
}

// moveToRight rotates a dangling entry (one that holds a region while
// its left child also holds one and its right child does not) by
// demoting this entry's region one level deeper into the right child,
// clearing it from this entry.  Any region already in the right child
// is overwritten.
func (e *directoryEntry) moveToRight() {
	e.moveTo(true)
}

// moveToLeft is the mirror of moveToRight.
func (e *directoryEntry) moveToLeft() {
	e.moveTo(false)
}

func (e *directoryEntry) moveTo(right bool) {
	r := e.region.Val
	e.region.OK = false

	var target **directoryEntry
	var code RegionCode
	if right {
		target = &e.right
		code = r.Code | (RegionCode(1) << r.Level)
	} else {
		target = &e.left
		code = r.Code
	}
	if *target == nil {
		*target = &directoryEntry{back: e}
	}
	moved := r
	moved.Code = code
	moved.Level = r.Level + 1
	(*target).region = containers.Optional[GridRegion]{OK: true, Val: moved}
}

// childrenByPopulation identifies the sparser and denser of this
// entry's two children, breaking ties by choosing left as sparse
// (spec.md §4.2's "source chooses left"); sparseEntry and denseEntry
// are exposed separately below, grounded directly on spec.md §4.3's
// naming, but share this single implementation so they always name
// complementary children.
func (e *directoryEntry) childrenByPopulation() (sparse, dense *directoryEntry) {
	if e.left.region.Val.Population <= e.right.region.Val.Population {
		return e.left, e.right
	}
	return e.right, e.left
}

func (e *directoryEntry) sparseEntry() *directoryEntry {
	sparse, _ := e.childrenByPopulation()
	return sparse
}

func (e *directoryEntry) denseEntry() *directoryEntry {
	_, dense := e.childrenByPopulation()
	return dense
}

// clearSucceedingEntry detaches child from e if child has no further
// descendants of its own.
func (e *directoryEntry) clearSucceedingEntry(child *directoryEntry) {
	if child == nil || child.left != nil || child.right != nil {
		return
	}
	if e.left == child {
		e.left = nil
	}
	if e.right == child {
		e.right = nil
	}
}

// calculateDensity recomputes region.Density for every regioned entry
// in this subtree and returns the effective (claimed) geometric size
// of the subtree, per spec.md §4.3: effective_size(e) = 2^-level minus
// the effective size already claimed by descendant regions.  Entries
// without a region of their own (interior nodes left behind by
// redistribution) simply pass their children's claimed area upward
// without adding their own nominal size.
func (e *directoryEntry) calculateDensity() float64 {
	var childrenClaimed float64
	if e.left != nil {
		childrenClaimed += e.left.calculateDensity()
	}
	if e.right != nil {
		childrenClaimed += e.right.calculateDensity()
	}
	if !e.region.OK {
		return childrenClaimed
	}
	claimed := e.region.Val.size() - childrenClaimed
	e.region.Val.Density = float64(e.region.Val.Population) / claimed
	return claimed
}

// collectRegions appends every region reachable from e into out, in
// tree traversal order (spec.md §3 invariant (c); order is otherwise
// unspecified until Engine.Build's descending-density sort).
func (e *directoryEntry) collectRegions(out *[]*GridRegion) {
	if e == nil {
		return
	}
	if e.region.OK {
		*out = append(*out, e.regionPtr())
	}
	e.left.collectRegions(out)
	e.right.collectRegions(out)
}
