// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package datasetio

import "fmt"

// NormalizeMinMax rescales each column of tuples into [0,1] by its
// observed min/max, standing in for the toolkit's attribute
// normalization filter (spec.md §1) that is expected to run before
// tuples reach bang.Engine.Insert. Columns with a zero range (every
// row has the same value) normalize to 0.
//
// The returned slice is new; tuples is not modified in place.
func NormalizeMinMax(tuples [][]float64) ([][]float64, error) {
	if len(tuples) == 0 {
		return nil, nil
	}
	d := len(tuples[0])
	mins := make([]float64, d)
	maxs := make([]float64, d)
	copy(mins, tuples[0])
	copy(maxs, tuples[0])

	for _, t := range tuples {
		if len(t) != d {
			return nil, fmt.Errorf("datasetio: inconsistent tuple width: want %d, got %d", d, len(t))
		}
		for i, v := range t {
			if v < mins[i] {
				mins[i] = v
			}
			if v > maxs[i] {
				maxs[i] = v
			}
		}
	}

	out := make([][]float64, len(tuples))
	for row, t := range tuples {
		norm := make([]float64, d)
		for i, v := range t {
			span := maxs[i] - mins[i]
			if span == 0 {
				norm[i] = 0
				continue
			}
			norm[i] = (v - mins[i]) / span
		}
		out[row] = norm
	}
	return out, nil
}
