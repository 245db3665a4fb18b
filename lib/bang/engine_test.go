// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import (
	"context"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesParameters(t *testing.T) {
	t.Parallel()

	_, err := New(2, 3, 1, 50)
	require.ErrorIs(t, err, ErrInvalidParameter, "bucketsize below 4")

	_, err = New(2, 4, 0, 50)
	require.ErrorIs(t, err, ErrInvalidParameter, "neighborMargin below 1")

	_, err = New(2, 4, 3, 50)
	require.ErrorIs(t, err, ErrInvalidParameter, "neighborMargin above d")

	_, err = New(2, 4, 1, 101)
	require.ErrorIs(t, err, ErrInvalidParameter, "clusterPercent above 100")

	en, err := New(2, 4, 1, 50)
	require.NoError(t, err)
	require.NotNil(t, en)
}

func TestEngineInsertWithinBucketDoesNotSplit(t *testing.T) {
	t.Parallel()
	en, err := New(2, 4, 1, 50)
	require.NoError(t, err)

	for _, tuple := range [][]float64{{0.1, 0.1}, {0.1, 0.2}, {0.1, 0.3}} {
		require.NoError(t, en.Insert(tuple))
	}
	require.Equal(t, uint32(3), en.NumberOfTuples())
	require.Nil(t, en.root.left, "no split expected while under bucketsize")
	require.Nil(t, en.root.right)
}

func TestEngineInsertRejectsBadTuples(t *testing.T) {
	t.Parallel()
	en, err := New(2, 4, 1, 50)
	require.NoError(t, err)

	require.ErrorIs(t, en.Insert([]float64{0.1}), ErrDimensionMismatch)
	require.ErrorIs(t, en.Insert([]float64{0.1, 1.5}), ErrDomainViolation)
}

func TestEngineInsertAfterBuildFails(t *testing.T) {
	t.Parallel()
	en, err := New(2, 4, 1, 50)
	require.NoError(t, err)
	require.NoError(t, en.Insert([]float64{0.1, 0.1}))
	require.NoError(t, en.Build(context.Background()))
	require.ErrorIs(t, en.Insert([]float64{0.2, 0.2}), ErrUseAfterBuild)
}

// countTreeConflicts walks the directory tree and counts entries that
// hold a region while both children also hold one -- the internal
// inconsistency checkTree is meant to prevent.
func countTreeConflicts(e *directoryEntry) int {
	if e == nil {
		return 0
	}
	n := 0
	if e.hasRegion() && e.left != nil && e.left.hasRegion() && e.right != nil && e.right.hasRegion() {
		n++
	}
	return n + countTreeConflicts(e.left) + countTreeConflicts(e.right)
}

func TestEngineBulkInsertMaintainsInvariants(t *testing.T) {
	t.Parallel()
	en, err := New(3, 8, 1, 40)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	const n = 2000
	for i := 0; i < n; i++ {
		tuple := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		require.NoError(t, en.Insert(tuple))
	}
	require.Equal(t, uint32(n), en.NumberOfTuples())

	var regions []*GridRegion
	en.root.collectRegions(&regions)
	var total uint32
	for _, r := range regions {
		total += r.Population
	}
	require.Equal(t, uint32(n), total)

	if conflicts := countTreeConflicts(en.root); conflicts != 0 {
		cfg := spew.NewDefaultConfig()
		cfg.DisablePointerAddresses = true
		cfg.MaxDepth = 6
		cfg.Dump(en.root)
		t.Fatalf("%d region-holding entries had two region-holding children", conflicts)
	}

	require.NoError(t, en.Build(context.Background()))
	require.LessOrEqual(t, int(en.NumberOfClusters()), len(regions))

	var clusteredTuples int
	for i := 0; i < int(en.NumberOfClusters()); i++ {
		tuples, err := en.TuplesOf(i)
		require.NoError(t, err)
		clusteredTuples += len(tuples)
	}
	require.LessOrEqual(t, clusteredTuples, n)
}

func TestEngineQueriesAfterBuildStayInRange(t *testing.T) {
	t.Parallel()
	en, err := New(2, 4, 1, 100)
	require.NoError(t, err)

	tuples := [][]float64{
		{0.05, 0.05}, {0.06, 0.05}, {0.05, 0.06}, {0.06, 0.06}, {0.07, 0.05},
		{0.9, 0.9}, {0.91, 0.9},
	}
	for _, tuple := range tuples {
		require.NoError(t, en.Insert(tuple))
	}
	require.NoError(t, en.Build(context.Background()))

	for _, tuple := range tuples {
		idx, err := en.ClusterOf(tuple)
		require.NoError(t, err)
		require.GreaterOrEqual(t, idx, -1)
	}

	_, err = en.TuplesOf(-1)
	require.ErrorIs(t, err, ErrClusterIndexOutOfRange)
	_, err = en.TuplesOf(int(en.NumberOfClusters()))
	require.ErrorIs(t, err, ErrClusterIndexOutOfRange)
}

func TestEngineQueriesBeforeBuildReturnErrNotBuilt(t *testing.T) {
	t.Parallel()
	en, err := New(2, 4, 1, 50)
	require.NoError(t, err)
	require.NoError(t, en.Insert([]float64{0.1, 0.1}))

	_, err = en.ClusterOf([]float64{0.1, 0.1})
	require.ErrorIs(t, err, ErrNotBuilt)

	_, err = en.TuplesOf(0)
	require.ErrorIs(t, err, ErrNotBuilt)

	require.ErrorIs(t, en.RenderReport(nopWriter{}), ErrNotBuilt)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
