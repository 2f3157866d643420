package dag

// Solve returns one concrete valid order over all block tags: every
// dependency edge respected, grouped blocks emitted contiguously, and ties
// among mutually independent nodes broken by declaration order. The result is
// used as the canonical reference answer; it is not the only order that
// grades as correct.
//
// Groups are collapsed into single scheduling units first, because a greedy
// walk over raw blocks can enter a group whose remaining members still need
// an outside block, and contiguity would then wedge it.
func (g *Graph) Solve() ([]string, error) {
	units, unitDeps := g.condense()

	emitted := map[string]bool{}           // units emitted
	done := map[string]bool{}              // blocks emitted
	out := make([]string, 0, len(g.order)) // result order

	for len(emitted) < len(units) {
		progress := false
		for _, u := range units {
			if emitted[u] || !unitReady(unitDeps[u], emitted) {
				continue
			}
			if mem, grouped := g.members[u]; grouped {
				ordered, ok := g.orderMembers(mem, done)
				if !ok {
					return nil, ErrUnsolvable
				}
				out = append(out, ordered...)
			} else {
				done[u] = true
				out = append(out, u)
			}
			emitted[u] = true
			progress = true
			break
		}
		if !progress {
			return nil, ErrUnsolvable
		}
	}
	return out, nil
}

// condense collapses each group into one unit and lifts dependencies on a
// group member up to the group itself. Unit order follows first declaration.
func (g *Graph) condense() (units []string, unitDeps map[string]map[string]bool) {
	unitOf := func(tag string) string {
		if grp, ok := g.groupOf[tag]; ok && grp != "" {
			return grp
		}
		return tag // ungrouped block or group tag
	}

	seen := map[string]bool{}
	for _, tag := range g.order {
		u := unitOf(tag)
		if !seen[u] {
			seen[u] = true
			units = append(units, u)
		}
	}

	unitDeps = make(map[string]map[string]bool, len(units))
	for _, u := range units {
		unitDeps[u] = map[string]bool{}
	}
	addDep := func(u, dep string) {
		if d := unitOf(dep); d != u {
			unitDeps[u][d] = true
		}
	}
	for _, tag := range g.order {
		u := unitOf(tag)
		for _, d := range g.deps[tag] {
			addDep(u, d)
		}
	}
	for grp := range g.members {
		for _, d := range g.deps[grp] {
			addDep(grp, d)
		}
	}
	return units, unitDeps
}

func unitReady(deps map[string]bool, emitted map[string]bool) bool {
	for d := range deps {
		if !emitted[d] {
			return false
		}
	}
	return true
}

// orderMembers linearizes one group's members by their intra-group edges,
// declaration order first. External dependencies are already satisfied by the
// time the group's unit is scheduled.
func (g *Graph) orderMembers(members []string, done map[string]bool) ([]string, bool) {
	isDone := func(tag string) bool { return done[tag] }
	out := make([]string, 0, len(members))
	placed := map[string]bool{}
	for len(out) < len(members) {
		progress := false
		for _, m := range members {
			if placed[m] {
				continue
			}
			ok := true
			for _, d := range g.deps[m] {
				// only intra-group edges can still be pending here
				if g.groupOf[d] == g.groupOf[m] && !g.satisfied(d, isDone) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			placed[m] = true
			done[m] = true
			out = append(out, m)
			progress = true
			break
		}
		if !progress {
			return nil, false
		}
	}
	return out, true
}
