// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import (
	"math"

	"git.lukeshu.com/bang-cluster/lib/fmtutil"
)

// RegionCode is the integer identifier of a region within its level;
// bits encode the sequence of binary choices along the cyclic split
// order (spec.md §3, §4.1).
type RegionCode uint64

// String renders the code in hex followed by the indices of its set
// bits (bit k is the k-th split decision, counting from the LSB), for
// debug output.
func (c RegionCode) String() string {
	return fmtutil.BitfieldString(uint64(c), nil, fmtutil.HexLower)
}

// GridRegion is a single populated grid cell: the leaf payload of a
// DirectoryEntry.
type GridRegion struct {
	Code       RegionCode
	Level      uint32
	Population uint32
	Tuples     [][]float64

	// Density is population / effective_size, stale until Build
	// (Engine.Build) recomputes it via calculateDensity.
	Density float64

	// Position is the 1-based rank after descending-density sort;
	// used as a deterministic tiebreaker in dendrogram insertion.
	Position uint32

	// Aliases is unused by clustering logic (spec.md §3, §9): no
	// operation populates or reads it.  Preserved as a reserved
	// hook rather than invented semantics.
	Aliases []string
}

func newGridRegion(code RegionCode, level uint32) *GridRegion {
	return &GridRegion{Code: code, Level: level}
}

func (r *GridRegion) insertTuple(t []float64) {
	r.Tuples = append(r.Tuples, t)
	r.Population++
}

func (r *GridRegion) clearTuples() {
	r.Tuples = nil
	r.Population = 0
}

// size is the region's nominal geometric size, 1/2^level.  Build uses
// the *effective* size (calculateDensity), which subtracts the area
// claimed by deeper descendant regions.
func (r *GridRegion) size() float64 {
	return 1 / math.Exp2(float64(r.Level))
}

// regionLess is the strict total order (-density, code, level) that
// spec.md §4.2 and §9 recommend in place of the source's tie-collapsing
// comparator, grounded on the teacher's containers.Ordered[T] pattern
// (lib/containers/ordered.go) generalized to a three-key tiebreak.
func regionLess(a, b *GridRegion) bool {
	if a.Density != b.Density {
		return a.Density > b.Density
	}
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	return a.Level < b.Level
}
