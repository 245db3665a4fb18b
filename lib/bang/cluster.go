// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package bang

import "sort"

// Cluster is a set of regions grouped together by Engine.Build's
// dendrogram cut (spec.md §4.8).
type Cluster struct {
	Regions []*GridRegion
}

// Population is the total tuple count across the cluster's regions.
func (c *Cluster) Population() uint32 {
	var p uint32
	for _, r := range c.Regions {
		p += r.Population
	}
	return p
}

// sortRegions orders regions by the strict total order regionLess
// documents (descending density, then code, then level).
func sortRegions(regions []*GridRegion) {
	sort.SliceStable(regions, func(i, j int) bool {
		return regionLess(regions[i], regions[j])
	})
}

// createDendogram implements spec.md §4.8's neighborhood walk: starting
// from the densest region, it repeatedly finds neighbors of each
// already-placed region among the not-yet-placed ones and inserts them
// immediately after the run of regions already known to neighbor an
// earlier core, ordered by descending density.
//
// Regions never reached by this walk (the neighbor graph induced by
// isNeighbor is disconnected) are appended at the end in their
// sorted order, so no tuple's region is silently dropped from the
// dendrogram; spec.md does not promise a single connected component.
func (en *Engine) createDendogram(sorted []*GridRegion) []*GridRegion {
	if len(sorted) == 0 {
		return nil
	}

	dendrogram := make([]*GridRegion, 1, len(sorted))
	dendrogram[0] = sorted[0]
	remaining := append([]*GridRegion(nil), sorted[1:]...)

	for dendoPos := 0; len(remaining) > 0 && dendoPos < len(dendrogram); dendoPos++ {
		core := dendrogram[dendoPos]
		startSearchPos := dendoPos + 1

		i := 0
		for i < len(remaining) {
			r := remaining[i]
			if !en.coder.isNeighbor(core.Code, core.Level, r.Code, r.Level, en.neighborCondition) {
				i++
				continue
			}

			idx := startSearchPos
			for idx < len(dendrogram) && dendrogram[idx].Density > r.Density {
				idx++
			}
			for idx < len(dendrogram) && dendrogram[idx].Density == r.Density && dendrogram[idx].Position < r.Position {
				idx++
			}
			dendrogram = append(dendrogram, nil)
			copy(dendrogram[idx+1:], dendrogram[idx:len(dendrogram)-1])
			dendrogram[idx] = r

			remaining = append(remaining[:i], remaining[i+1:]...)
			startSearchPos++
		}
	}

	if len(remaining) > 0 {
		dendrogram = append(dendrogram, remaining...)
	}
	return dendrogram
}

// createClusters implements spec.md §4.8's cut: it first decides how
// many of the densest regions (by sorted rank) count as "clustered",
// targeting clusterPercent of all tuples, then walks the dendrogram
// grouping consecutive runs of clustered regions into Clusters.
func (en *Engine) createClusters(sorted []*GridRegion) []*Cluster {
	clusteredGoal := (en.clusterPercent*en.tuplesCount + 50) / 100

	var clusteredPop uint32
	clusteredRegions := 0
	for _, r := range sorted {
		if clusteredPop >= clusteredGoal {
			break
		}
		remainingNeed := clusteredGoal - clusteredPop
		if r.Population > remainingNeed {
			if r.Population-remainingNeed <= remainingNeed {
				clusteredPop += r.Population
				clusteredRegions++
			}
			break
		}
		clusteredPop += r.Population
		clusteredRegions++
	}

	var clusters []*Cluster
	var current *Cluster
	inRun := false
	for _, r := range en.dendrogram {
		if int(r.Position) <= clusteredRegions {
			if current == nil {
				current = &Cluster{}
			}
			current.Regions = append(current.Regions, r)
			inRun = true
			continue
		}
		if inRun && current != nil {
			clusters = append(clusters, current)
			current = nil
			inRun = false
		}
	}
	if current != nil {
		clusters = append(clusters, current)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		pi, pj := clusters[i].Population(), clusters[j].Population()
		if pi != pj {
			return pi > pj
		}
		return clusters[i].Regions[0].Position < clusters[j].Regions[0].Position
	})
	return clusters
}
