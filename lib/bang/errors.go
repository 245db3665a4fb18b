// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the public Engine surface.  Callers should
// use errors.Is to test for them, since they may be wrapped with
// additional context.
var (
	// ErrInvalidParameter is returned by New when bucketsize,
	// neighborMargin, or clusterPercent are out of range.
	ErrInvalidParameter = errors.New("bang: invalid parameter")

	// ErrDimensionMismatch is returned by Insert when a tuple's
	// length does not equal the engine's dimensionality.
	ErrDimensionMismatch = errors.New("bang: tuple dimension mismatch")

	// ErrDomainViolation is returned by Insert when a tuple
	// component lies outside [0,1].
	ErrDomainViolation = errors.New("bang: tuple component outside [0,1]")

	// ErrUseAfterBuild is returned by Insert once Build has been
	// called.
	ErrUseAfterBuild = errors.New("bang: insert after build")

	// ErrClusterIndexOutOfRange is returned by TuplesOf.
	ErrClusterIndexOutOfRange = errors.New("bang: cluster index out of range")

	// ErrNotBuilt is returned by queries that require Build to have
	// run first.
	ErrNotBuilt = errors.New("bang: build has not been called")
)

// InternalInconsistencyError is reported (not fatal) when checkTree
// observes a directory entry whose two children both carry regions --
// a state spec.md §9 notes should be unreachable from the public API.
// Build proceeds after logging it; the returned error from Build (if
// any) aggregates the count of occurrences.
type InternalInconsistencyError struct {
	Count int
}

func (e *InternalInconsistencyError) Error() string {
	return fmt.Sprintf("bang: %d internal directory-tree conflict(s) detected during checkTree", e.Count)
}
