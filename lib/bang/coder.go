// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import (
	"math"
)

// coder holds the mutable mapping state described by spec.md §3: the
// cyclic per-dimension split schedule (dimensionLevels) and a scratch
// buffer (scaleCoords) recomputed on each mapRegion call.  It is
// embedded in Engine rather than modeled as a free-standing value type,
// matching spec.md §3's placement of these fields directly on the
// engine state.
type coder struct {
	d uint32

	// dimensionLevels[0] is the total split depth; dimensionLevels[i]
	// for i in [1,d] is the number of splits applied in dimension i.
	dimensionLevels []uint32

	// scaleCoords is scratch space reused across mapRegion calls,
	// indexed the same way as dimensionLevels.
	scaleCoords []uint64
}

func newCoder(d uint32) *coder {
	return &coder{
		d:               d,
		dimensionLevels: make([]uint32, d+1),
		scaleCoords:     make([]uint64, d+1),
	}
}

// gridCoord is the result of unmapRegion: per-dimension grid
// coordinates at the region's level, with g[0] holding the level
// itself per spec.md §4.1.
type gridCoord struct {
	g []uint64 // g[0] = level, g[1..d] = per-dimension coordinates
}

func (gc gridCoord) level() uint32 { return uint32(gc.g[0]) }

// mapRegion maps a tuple to the RegionCode of its deepest existing
// region at the engine's current granularity (spec.md §4.1).
func (c *coder) mapRegion(tuple []float64) (RegionCode, error) {
	if uint32(len(tuple)) != c.d {
		return 0, ErrDimensionMismatch
	}
	for i := uint32(1); i <= c.d; i++ {
		x := tuple[i-1]
		if x < 0 || x > 1 {
			return 0, ErrDomainViolation
		}
		level := c.dimensionLevels[i]
		scaled := uint64(math.Floor(x * math.Exp2(float64(level))))
		// Boundary policy (spec.md §9 open question): x==1.0 maps
		// to 2^level, which must be clamped to 2^level-1.
		if max := (uint64(1) << level) - 1; scaled > max {
			scaled = max
		}
		c.scaleCoords[i] = scaled
	}

	total := c.dimensionLevels[0]
	var code RegionCode
	emitted := uint32(0)
	for k := uint32(0); emitted < total; k++ {
		i := (k % c.d) + 1
		j := k / c.d
		level := c.dimensionLevels[i]
		if j >= level {
			continue
		}
		bit := (c.scaleCoords[i] >> (level - j - 1)) & 1
		code |= RegionCode(bit) << emitted
		emitted++
	}
	return code, nil
}

// unmapRegion inverts a (code, level) pair into per-dimension grid
// coordinates (spec.md §4.1). The bit order matches mapRegion's
// assembly: the k-th split decision (cyclic dimension (k mod d)+1) is
// bit k of code, counting from the LSB.
func (c *coder) unmapRegion(code RegionCode, level uint32) gridCoord {
	g := make([]uint64, c.d+1)
	g[0] = uint64(level)
	for k := uint32(0); k < level; k++ {
		i := (k % c.d) + 1
		bit := (uint64(code) >> k) & 1
		g[i] = (g[i] << 1) | bit
	}
	return gridCoord{g: g}
}

func absDeltaU64(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// isNeighbor decides whether two regions, possibly at different
// levels, are neighbors under the given condition (spec.md §4.1).
func (c *coder) isNeighbor(aCode RegionCode, aLevel uint32, bCode RegionCode, bLevel uint32, condition uint32) bool {
	A := c.unmapRegion(aCode, aLevel)
	B := c.unmapRegion(bCode, bLevel)

	if aLevel == bLevel {
		diff := uint32(0)
		for i := uint32(1); i <= c.d; i++ {
			delta := absDeltaU64(A.g[i], B.g[i])
			if delta > 1 {
				return false
			}
			if delta == 1 {
				diff++
			}
		}
		return diff <= condition
	}

	// Different level: C is the deeper grid, S the shallower one.
	var deep, shallow gridCoord
	var deltaLevel, shallowLevel uint32
	if aLevel > bLevel {
		deep, shallow = A, B
		deltaLevel, shallowLevel = aLevel-bLevel, bLevel
	} else {
		deep, shallow = B, A
		deltaLevel, shallowLevel = bLevel-aLevel, aLevel
	}

	// Replay the cyclic split schedule for deltaLevel steps starting
	// at shallowLevel mod d, counting how many additional splits
	// each dimension picked up between the two levels.
	extraSplits := make([]uint32, c.d+1)
	for k := uint32(0); k < deltaLevel; k++ {
		step := shallowLevel + k
		i := (step % c.d) + 1
		extraSplits[i]++
	}

	diff := uint32(0)
	for i := uint32(1); i <= c.d; i++ {
		delta := extraSplits[i]
		lo := shallow.g[i] << delta
		hi := lo + (uint64(1) << delta) - 1
		ci := deep.g[i]

		if ci >= lo && ci <= hi {
			continue // shallow region's range contains this coordinate
		}
		distLo := absDeltaU64(ci, lo)
		distHi := absDeltaU64(ci, hi)
		if minU64(distLo, distHi) > 1 {
			return false
		}
		diff++
	}
	return diff <= condition
}
