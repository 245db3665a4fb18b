// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package datasetio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.lukeshu.com/bang-cluster/internal/datasetio"
)

func TestCacheMemoizesByPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "tuples.txt")
	require.NoError(t, os.WriteFile(path, []byte("0.1 0.2\n"), 0o644))

	rd := datasetio.NewReader(context.Background(), time.Hour)
	cache := datasetio.NewCache(4)

	first, err := cache.GetOrRead(rd, path)
	require.NoError(t, err)

	// Mutate the file on disk; a cache hit must not re-read it.
	require.NoError(t, os.WriteFile(path, []byte("0.9 0.9\n"), 0o644))

	second, err := cache.GetOrRead(rd, path)
	require.NoError(t, err)
	require.Same(t, first, second)

	cache.Purge()
	third, err := cache.GetOrRead(rd, path)
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, []float64{0.9, 0.9}, third.Tuples[0])
}
