package dag

// EditDistance computes the minimum number of single-block insertions and
// deletions needed to transform the submission into some valid order of the
// graph. Unmatched submitted blocks cost a deletion each; required blocks the
// submission never places in a usable position cost an insertion each.
//
// Rather than enumerating linearizations, a memoized search aligns submission
// positions against the set of nodes already accounted for: at every state it
// may drop the current submitted block, or place any currently ready node —
// matching the submitted block when possible. The maximum match count over
// all alignments is the longest common subsequence with the best-aligned
// valid order.
func (g *Graph) EditDistance(sub []BlockRef) int {
	a := &aligner{g: g, sub: sub, memo: map[alignKey]int{}}
	matched := a.best(0, newPlacedSet(len(g.order)))
	return (len(sub) - matched) + (len(g.order) - matched)
}

type alignKey struct {
	pos    int
	placed string
}

type aligner struct {
	g    *Graph
	sub  []BlockRef
	memo map[alignKey]int
}

func (a *aligner) best(pos int, placed placedSet) int {
	if pos == len(a.sub) {
		return 0
	}
	key := alignKey{pos, placed.key()}
	if v, ok := a.memo[key]; ok {
		return v
	}

	g := a.g
	isDone := func(tag string) bool { return placed.has(g.index[tag]) }
	open := ""
	for grp, mem := range g.members {
		n := 0
		for _, m := range mem {
			if isDone(m) {
				n++
			}
		}
		if n > 0 && n < len(mem) {
			open = grp
			break
		}
	}

	// dropping the current submitted block is always an option
	best := a.best(pos+1, placed)

	cur := a.sub[pos]
	for i, tag := range g.order {
		if placed.has(i) || !g.placeable(tag, isDone, open) {
			continue
		}
		next := placed.with(i)
		if cur.Known && cur.Tag == tag {
			if v := 1 + a.best(pos+1, next); v > best {
				best = v
			}
		} else if v := a.best(pos, next); v > best {
			best = v
		}
	}
	a.memo[key] = best
	return best
}

// placedSet is a small bitset over block declaration indices; its string form
// doubles as the memo key.
type placedSet []byte

func newPlacedSet(n int) placedSet { return make(placedSet, (n+7)/8) }

func (p placedSet) has(i int) bool { return p[i/8]&(1<<uint(i%8)) != 0 }

func (p placedSet) with(i int) placedSet {
	q := make(placedSet, len(p))
	copy(q, p)
	q[i/8] |= 1 << uint(i%8)
	return q
}

func (p placedSet) key() string { return string(p) }
