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

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tuples.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReaderParsesWhitespaceDelimitedTuples(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "0.1 0.2 0.3\n0.4 0.5 0.6\n")

	rd := datasetio.NewReader(context.Background(), time.Hour)
	ds, err := rd.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, ds.Tuples, 2)
	require.Equal(t, []float64{0.1, 0.2, 0.3}, ds.Tuples[0])
}

func TestReaderParsesCommaDelimitedTuplesAndSkipsComments(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "# comment\n0.1,0.2\n\n0.3,0.4\n")

	rd := datasetio.NewReader(context.Background(), time.Hour)
	ds, err := rd.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, ds.Tuples, 2)
	require.Equal(t, []float64{0.3, 0.4}, ds.Tuples[1])
}

func TestReaderCapturesHeaderRow(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "x,y\n0.1,0.2\n")

	rd := datasetio.NewReader(context.Background(), time.Hour)
	ds, err := rd.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, ds.Columns)
	require.Len(t, ds.Tuples, 1)
}

func TestReaderRejectsNonNumericTuples(t *testing.T) {
	t.Parallel()
	path := writeTempFile(t, "x,y\nfoo,bar\n")

	rd := datasetio.NewReader(context.Background(), time.Hour)
	_, err := rd.ReadFile(path)
	require.Error(t, err)
}
