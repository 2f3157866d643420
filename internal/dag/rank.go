package dag

import "sort"

// RankedNode is one correct block with its declared rank. Equal ranks are
// ties: mutually orderable, neither depending on the other.
type RankedNode struct {
	Tag  string
	Rank int
}

// BuildRanked normalizes a total-order-with-ties into the dependency model:
// listed in ascending rank, every block depends on the full tag set of the
// previous distinct rank. The result grades through the same prefix and
// edit-distance machinery as a hand-declared graph.
func BuildRanked(nodes []RankedNode) (*Graph, error) {
	byRank := append([]RankedNode(nil), nodes...)
	sort.SliceStable(byRank, func(i, j int) bool { return byRank[i].Rank < byRank[j].Rank })

	var (
		out      = make([]Node, 0, len(byRank))
		prevTier []string
		curTier  []string
		prevRank int
		havePrev bool
	)
	for _, n := range byRank {
		if havePrev && n.Rank != prevRank {
			prevTier = curTier
			curTier = nil
		}
		out = append(out, Node{Tag: n.Tag, Depends: prevTier})
		curTier = append(curTier, n.Tag)
		prevRank = n.Rank
		havePrev = true
	}
	return Build(out)
}
