package recurring

import (
	"math"
	"sort"
)

// similar reports whether two absolute amounts deviate from each other by at
// most tolerance relative to their mean.
func similar(a, b, tolerance float64) bool {
	mean := (a + b) / 2
	if mean == 0 {
		return a == b
	}
	return math.Abs(a-b)/mean <= tolerance
}

// sortByDate orders a counterparty group by booking date, then id.
func sortByDate(group []Input) {
	sort.SliceStable(group, func(i, j int) bool {
		di, dj := group[i].Transaction.Date, group[j].Transaction.Date
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return group[i].Transaction.ID < group[j].Transaction.ID
	})
}

// greedyClusters partitions a date-sorted group in a single first-fit pass.
// Each unassigned transaction in turn anchors a cluster and absorbs every
// later unassigned transaction whose amount is similar to all members so far.
// The result depends on input order and is not a globally optimal partition.
func greedyClusters(group []Input, tolerance float64) [][]Input {
	assigned := make([]bool, len(group))
	var clusters [][]Input

	for i := range group {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		cluster := []Input{group[i]}

		for j := i + 1; j < len(group); j++ {
			if assigned[j] {
				continue
			}
			if fits(cluster, group[j], tolerance) {
				assigned[j] = true
				cluster = append(cluster, group[j])
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters
}

// fits reports whether candidate is similar to every member, the anchor
// included. Checking all members keeps each cluster pairwise within tolerance.
func fits(cluster []Input, candidate Input, tolerance float64) bool {
	amount := candidate.Transaction.AbsAmount()
	for _, member := range cluster {
		if !similar(member.Transaction.AbsAmount(), amount, tolerance) {
			return false
		}
	}
	return true
}
