// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func twoDimCoder() *coder {
	c := newCoder(2)
	c.dimensionLevels = []uint32{3, 2, 1}
	return c
}

func TestMapRegion(t *testing.T) {
	t.Parallel()
	c := twoDimCoder()

	testcases := map[string]struct {
		tuple []float64
		want  RegionCode
	}{
		"origin":  {tuple: []float64{0.1, 0.1}, want: 0},
		"x-third": {tuple: []float64{0.3, 0.1}, want: 4},
		"x-half":  {tuple: []float64{0.6, 0.1}, want: 1},
	}
	for name, tc := range testcases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := c.mapRegion(tc.tuple)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMapRegionRejectsWrongDimension(t *testing.T) {
	t.Parallel()
	c := twoDimCoder()
	_, err := c.mapRegion([]float64{0.1})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMapRegionRejectsOutOfRange(t *testing.T) {
	t.Parallel()
	c := twoDimCoder()
	_, err := c.mapRegion([]float64{1.5, 0.1})
	require.ErrorIs(t, err, ErrDomainViolation)
}

func TestMapRegionClampsUpperBoundary(t *testing.T) {
	t.Parallel()
	c := twoDimCoder()
	got, err := c.mapRegion([]float64{1.0, 1.0})
	require.NoError(t, err)
	want, err := c.mapRegion([]float64{0.999999, 0.999999})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestUnmapRegionInvertsMapRegion(t *testing.T) {
	t.Parallel()
	c := twoDimCoder()
	for _, tuple := range [][]float64{
		{0.1, 0.1},
		{0.3, 0.1},
		{0.6, 0.1},
		{0.9, 0.9},
	} {
		code, err := c.mapRegion(tuple)
		require.NoError(t, err)
		gc := c.unmapRegion(code, c.dimensionLevels[0])
		recode, err := c.mapRegion(centerOf(c, gc))
		require.NoError(t, err)
		require.Equal(t, code, recode)
	}
}

// centerOf returns a tuple at the center of the cell identified by gc,
// used to re-derive a region code from unmapRegion's output.
func centerOf(c *coder, gc gridCoord) []float64 {
	out := make([]float64, c.d)
	for i := uint32(1); i <= c.d; i++ {
		n := float64(uint64(1) << c.dimensionLevels[i])
		out[i-1] = (float64(gc.g[i]) + 0.5) / n
	}
	return out
}

func TestIsNeighborSameLevel(t *testing.T) {
	t.Parallel()
	c := twoDimCoder()

	aCode, err := c.mapRegion([]float64{0.1, 0.1})
	require.NoError(t, err)
	bCode, err := c.mapRegion([]float64{0.3, 0.1})
	require.NoError(t, err)

	require.True(t, c.isNeighbor(aCode, 3, bCode, 3, 2))
	require.True(t, c.isNeighbor(aCode, 3, bCode, 3, 1))
}

func TestIsNeighborRejectsDistantRegions(t *testing.T) {
	t.Parallel()
	c := twoDimCoder()

	aCode, err := c.mapRegion([]float64{0.05, 0.05})
	require.NoError(t, err)
	bCode, err := c.mapRegion([]float64{0.95, 0.95})
	require.NoError(t, err)

	require.False(t, c.isNeighbor(aCode, 3, bCode, 3, 2))
}

// fourLevelCoder gives each of its two dimensions two splits (total
// depth 4), enough room to exercise isNeighbor's cross-level branch at
// more than one level of depth difference.
func fourLevelCoder() *coder {
	c := newCoder(2)
	c.dimensionLevels = []uint32{4, 2, 2}
	return c
}

// TestIsNeighborCrossLevelAdjacentCell covers the deep-shallower-level
// branch of isNeighbor (coder.go's "different level" path): a level-1
// region (code 0, grid coord g1=0) and a level-3 region (code 1, grid
// coord g1=2, g2=0) whose dim-1 range [0,1] (after replaying the one
// extra split dim 1 picks up between level 1 and level 3) sits exactly
// one grid step away from the deep region's g1=2, and whose dim-2
// range [0,1] contains the deep region's g2=0 -- hand-verified against mapRegion/
// unmapRegion's bit assembly.
func TestIsNeighborCrossLevelAdjacentCell(t *testing.T) {
	t.Parallel()
	c := twoDimCoder()

	require.True(t, c.isNeighbor(0, 1, 1, 3, 1))
	require.False(t, c.isNeighbor(0, 1, 5, 3, 1))
	require.False(t, c.isNeighbor(0, 1, 5, 3, 2))
}

// TestIsNeighborCrossLevelBothDimensionsOffByOne exercises the
// condition threshold itself in the cross-level path: a level-2 region
// (g1=0, g2=0) and a level-4 region (g1=2, g2=2) where both dimensions'
// extra-split ranges miss by exactly one grid step, so the pair is a
// neighbor only once the neighbor condition allows both dimensions to
// differ.
func TestIsNeighborCrossLevelBothDimensionsOffByOne(t *testing.T) {
	t.Parallel()
	c := fourLevelCoder()

	require.False(t, c.isNeighbor(0, 2, 3, 4, 1))
	require.True(t, c.isNeighbor(0, 2, 3, 4, 2))
}
