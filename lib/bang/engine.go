// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bang implements a BANG-file grid index: it partitions the
// unit hypercube [0,1]^d by successive binary bisections on cyclically
// rotating dimensions, stores inserted tuples in leaf regions, keeps
// the directory balanced under overflow, and derives clusters from a
// density-ordered neighborhood walk over the resulting regions.
package bang

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"

	"git.lukeshu.com/bang-cluster/lib/containers"
)

// Engine is a BANG-file (the "BANGFile" of spec.md §2): it owns the
// directory tree, enforces the bucket-size invariant via split and
// redistribute, and -- once Build is called -- produces sorted
// regions, a dendrogram, and clusters.
//
// An Engine is single-threaded and non-blocking (spec.md §5): it is
// the caller's responsibility not to interleave Insert with Build or
// ClusterOf from another goroutine. Distinct Engines are independent.
type Engine struct {
	*coder

	bucketsize        uint32
	neighborMargin    uint32
	neighborCondition uint32
	clusterPercent    uint32

	root        *directoryEntry
	tuplesCount uint32
	built       bool

	dendrogram []*GridRegion
	clusters   []*Cluster

	inconsistencies int
	ctx             context.Context
}

// New constructs an Engine for d-dimensional tuples.  bucketsize is
// the maximum population of a region before it must split (>= 4).
// neighborMargin controls how strict neighborhood is for dendrogram
// construction: two regions are neighbors when at most d-neighborMargin
// dimensions differ by one grid step (and none by more), so 1 is the
// most permissive setting and d admits no two distinct same-level
// regions as neighbors. clusterPercent (0..100) is the population-percentage
// target used to cut clusters from the dendrogram.
func New(d, bucketsize, neighborMargin, clusterPercent uint32) (*Engine, error) {
	return NewWithContext(context.Background(), d, bucketsize, neighborMargin, clusterPercent)
}

// NewWithContext is New, but diagnostics logged during directory-tree
// maintenance (spec.md §4.7's internal-inconsistency warning) are
// logged against ctx via dlog instead of context.Background().
func NewWithContext(ctx context.Context, d, bucketsize, neighborMargin, clusterPercent uint32) (*Engine, error) {
	switch {
	case d == 0:
		return nil, fmt.Errorf("%w: dimensions must be >= 1", ErrInvalidParameter)
	case bucketsize < 4:
		return nil, fmt.Errorf("%w: bucketsize must be >= 4, got %d", ErrInvalidParameter, bucketsize)
	case neighborMargin < 1 || neighborMargin > d:
		return nil, fmt.Errorf("%w: neighbor_margin must be in [1,%d], got %d", ErrInvalidParameter, d, neighborMargin)
	case clusterPercent > 100:
		return nil, fmt.Errorf("%w: cluster_percent must be in [0,100], got %d", ErrInvalidParameter, clusterPercent)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	en := &Engine{
		coder:             newCoder(d),
		bucketsize:        bucketsize,
		neighborMargin:    neighborMargin,
		neighborCondition: d - neighborMargin,
		clusterPercent:    clusterPercent,
		ctx:               ctx,
	}
	en.root = newRootEntry(0, 0)
	return en, nil
}

// NumberOfTuples returns the number of tuples inserted so far.
func (en *Engine) NumberOfTuples() uint32 { return en.tuplesCount }

// NumberOfClusters returns the number of clusters produced by Build.
// It is zero until Build has run.
func (en *Engine) NumberOfClusters() uint32 { return uint32(len(en.clusters)) }

// Insert adds a tuple to the engine.  tuple must have exactly d
// components, each in [0,1].  Insert after Build returns
// ErrUseAfterBuild (spec.md §4.9).
func (en *Engine) Insert(tuple []float64) error {
	if en.built {
		return ErrUseAfterBuild
	}
	if err := en.place(tuple); err != nil {
		return err
	}
	en.tuplesCount++
	return nil
}

// place implements spec.md §4.4's insertion protocol. It recurses
// through splits/redistributes triggered by overflow, but does not
// itself touch tuplesCount -- that happens exactly once, in Insert,
// and must not double-count tuples re-inserted by manageBuddySplit.
func (en *Engine) place(tuple []float64) error {
	code, err := en.coder.mapRegion(tuple)
	if err != nil {
		return err
	}
	entry := en.findRegion(code)
	if entry == nil {
		return fmt.Errorf("bang: internal error: no enclosing region for tuple")
	}
	region := entry.regionPtr()
	if region.Population < en.bucketsize {
		region.insertTuple(tuple)
		return nil
	}

	enclosing := en.nearestNonEmptyAncestor(entry)
	switch {
	case enclosing == nil:
		en.splitRegion(entry)
	case !en.redistribute(entry, enclosing):
		code2, err := en.coder.mapRegion(tuple)
		if err != nil {
			return err
		}
		entry = en.findRegion(code2)
		en.splitRegion(entry)
	}
	return en.place(tuple)
}

// findRegion descends from the root consuming one bit of code per
// step (right on 1, left on 0), stopping when the next child is
// absent or the level budget is exhausted, then walks back (following
// non-owning parent references) until a region-carrying ancestor is
// found (spec.md §4.4).
func (en *Engine) findRegion(code RegionCode) *directoryEntry {
	cur := en.root
	total := en.dimensionLevels[0]
	for k := uint32(0); k < total; k++ {
		var next *directoryEntry
		if (uint64(code)>>k)&1 == 1 {
			next = cur.right
		} else {
			next = cur.left
		}
		if next == nil {
			break
		}
		cur = next
	}
	for cur != nil && !cur.hasRegion() {
		cur = cur.back
	}
	return cur
}

// nearestNonEmptyAncestor walks entry.back until it finds an ancestor
// whose region is present and non-empty (spec.md §4.4's "enclosing
// region").
func (en *Engine) nearestNonEmptyAncestor(entry *directoryEntry) *directoryEntry {
	cur := entry.back
	for cur != nil {
		if cur.hasRegion() && cur.region.Val.Population > 0 {
			return cur
		}
		cur = cur.back
	}
	return nil
}

// manageBuddySplit performs the structural buddy split of entry
// (spec.md §4.3, §4.5 step 1) and re-inserts its old tuples into the
// freshly created children. entry's own region/tuples are left
// untouched by this step -- callers (splitRegion, redistribute)
// decide afterward what becomes of entry's stale copy. It reports
// whether dimensionLevels was advanced (entry.region.Level was the
// deepest level in use), which callers must undo on rollback.
func (en *Engine) manageBuddySplit(entry *directoryEntry) bool {
	region := entry.regionPtr()
	level := region.Level
	oldTuples := region.Tuples

	entry.createBuddySplit()

	inc := false
	if level == en.dimensionLevels[0] {
		next := (en.dimensionLevels[0] % en.d) + 1
		en.dimensionLevels[next]++
		en.dimensionLevels[0]++
		inc = true
	}

	for _, t := range oldTuples {
		if err := en.place(t); err != nil {
			// Tuples were validated on first insertion; a
			// failure here indicates a coder inconsistency,
			// not bad input. Surface it as a diagnostic
			// rather than silently dropping the tuple.
			dlog.Errorf(en.ctx, "bang: re-insert during buddy split failed: %v", err)
		}
	}
	return inc
}

// splitRegion implements spec.md §4.5.
func (en *Engine) splitRegion(entry *directoryEntry) {
	en.manageBuddySplit(entry)

	sparse, dense := entry.childrenByPopulation()

	entryRegion := entry.regionPtr()
	sparseRegion := sparse.regionPtr()
	entryRegion.Tuples = sparseRegion.Tuples
	entryRegion.Population = sparseRegion.Population

	sparse.region = containers.Optional[GridRegion]{}
	entry.clearSucceedingEntry(sparse)

	dense = en.checkTree(dense)
	en.redistribute(dense, entry)
	en.checkTree(entry)
}

// redistribute implements spec.md §4.6: it merges a sparser buddy into
// the enclosing region when doing so reduces total "bumpiness",
// rolling back the buddy split otherwise.
func (en *Engine) redistribute(entry, enclosing *directoryEntry) bool {
	inc := en.manageBuddySplit(entry)
	sparse, dense := entry.childrenByPopulation()

	enclosingRegion := enclosing.regionPtr()
	denseRegion := dense.regionPtr()

	if enclosingRegion.Population < denseRegion.Population {
		entry.region = containers.Optional[GridRegion]{}

		sparseRegion := sparse.regionPtr()
		enclosingRegion.Tuples = append(enclosingRegion.Tuples, sparseRegion.Tuples...)
		enclosingRegion.Population += sparseRegion.Population
		sparse.region = containers.Optional[GridRegion]{}
		entry.clearSucceedingEntry(sparse)

		dense = en.checkTree(dense)
		denseRegion = dense.regionPtr()
		if enclosingRegion.Population < denseRegion.Population {
			en.redistribute(dense, enclosing)
		}
		return true
	}

	if inc {
		prevTotal := en.dimensionLevels[0] - 1
		dim := (prevTotal % en.d) + 1
		en.dimensionLevels[dim]--
		en.dimensionLevels[0]--
	}
	entry.clearBuddySplit()
	return false
}

// checkTree implements spec.md §4.7: it rotates a dangling entry (one
// that holds a region while exactly one child also holds one) so the
// buddy invariant is restored, recursing into the child that received
// the rotated region. Both children holding a region simultaneously is
// reported as an internal inconsistency and left unchanged.
func (en *Engine) checkTree(entry *directoryEntry) *directoryEntry {
	if entry == nil || !entry.hasRegion() {
		return entry
	}
	leftHas := entry.left != nil && entry.left.hasRegion()
	rightHas := entry.right != nil && entry.right.hasRegion()

	switch {
	case leftHas && rightHas:
		en.inconsistencies++
		dlog.Warnf(en.ctx, "bang: directory entry (code=%v level=%d) has two regioned children; leaving tree unchanged", entry.region.Val.Code, entry.region.Val.Level)
		return entry
	case leftHas:
		entry.moveToRight()
		return en.checkTree(entry.right)
	case rightHas:
		entry.moveToLeft()
		return en.checkTree(entry.left)
	default:
		return entry
	}
}

// Build finalizes the engine: it computes densities, sorts regions by
// descending density, builds the dendrogram, and cuts clusters from
// it (spec.md §4.8). Calling Insert afterward is undefined; the engine
// enforces ErrUseAfterBuild instead of leaving it to undefined
// behavior.
func (en *Engine) Build(ctx context.Context) error {
	if ctx != nil {
		en.ctx = ctx
	}
	en.root.calculateDensity()

	var sorted []*GridRegion
	en.root.collectRegions(&sorted)
	sortRegions(sorted)
	for i, r := range sorted {
		r.Position = uint32(i + 1)
	}

	var total uint32
	for _, r := range sorted {
		total += r.Population
	}
	en.tuplesCount = total

	en.dendrogram = en.createDendogram(sorted)
	en.clusters = en.createClusters(sorted)
	en.built = true

	if en.inconsistencies > 0 {
		return &InternalInconsistencyError{Count: en.inconsistencies}
	}
	return nil
}

// ClusterOf maps a tuple to the index of the cluster containing its
// region, or -1 if no cluster claims it (spec.md §4.8, §7 -- this is a
// normal outcome, not an error).
func (en *Engine) ClusterOf(tuple []float64) (int, error) {
	if !en.built {
		return 0, ErrNotBuilt
	}
	code, err := en.coder.mapRegion(tuple)
	if err != nil {
		return 0, err
	}
	entry := en.findRegion(code)
	if entry == nil || !entry.hasRegion() {
		return -1, nil
	}
	region := entry.regionPtr()
	for idx, cluster := range en.clusters {
		for _, r := range cluster.Regions {
			if r == region {
				return idx, nil
			}
		}
	}
	return -1, nil
}

// TuplesOf returns every tuple belonging to the regions of the given
// cluster.
func (en *Engine) TuplesOf(clusterIndex int) ([][]float64, error) {
	if !en.built {
		return nil, ErrNotBuilt
	}
	if clusterIndex < 0 || clusterIndex >= len(en.clusters) {
		return nil, ErrClusterIndexOutOfRange
	}
	var out [][]float64
	for _, r := range en.clusters[clusterIndex].Regions {
		out = append(out, r.Tuples...)
	}
	return out, nil
}
