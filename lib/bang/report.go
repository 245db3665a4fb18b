// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import (
	"io"

	"git.lukeshu.com/bang-cluster/lib/textui"
)

// RenderReport writes a human-readable summary of a built engine:
// its tuning parameters, the resulting region count, and each
// cluster's population (spec.md §6). Calling it before Build returns
// ErrNotBuilt.
func (en *Engine) RenderReport(w io.Writer) error {
	if !en.built {
		return ErrNotBuilt
	}

	var all []*GridRegion
	en.root.collectRegions(&all)
	regions := len(all)

	if _, err := textui.Fprintf(w, "dimensions:       %d\n", en.d); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "bucketsize:       %d\n", en.bucketsize); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "neighbor margin:  %d\n", en.neighborMargin); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "cluster percent:  %d%%\n", en.clusterPercent); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "tuples:           %d\n", en.tuplesCount); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "regions:          %d\n", regions); err != nil {
		return err
	}
	if _, err := textui.Fprintf(w, "clusters:         %d\n", len(en.clusters)); err != nil {
		return err
	}
	for i, cluster := range en.clusters {
		pop := cluster.Population()
		if _, err := textui.Fprintf(w, "  cluster %-4d regions=%-6d population=%v\n",
			i, len(cluster.Regions), textui.Portion[uint32]{N: pop, D: en.tuplesCount}); err != nil {
			return err
		}
	}
	return nil
}
