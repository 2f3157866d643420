package dag

// GradePrefix walks the submission left to right and returns the number of
// leading positions that are valid with no prior invalidity, plus the total
// number of correct blocks (the scoring denominator).
//
// A position is valid iff its content matched a known block, that block has
// not already been placed, every effective dependency is satisfied by the
// blocks placed so far, and group contiguity holds. The first invalid index
// is numInitialCorrect itself; when numInitialCorrect == len(sub) there is no
// invalid position (a short but clean submission is "incomplete", not wrong).
func (g *Graph) GradePrefix(sub []BlockRef) (numInitialCorrect, total int) {
	done := make(map[string]bool, len(g.order))
	isDone := func(tag string) bool { return done[tag] }
	open := ""
	for i, ref := range sub {
		if !ref.Known || !g.placeable(ref.Tag, isDone, open) {
			return i, len(g.order)
		}
		done[ref.Tag] = true
		open = g.openAfter(ref.Tag, isDone)
	}
	return len(sub), len(g.order)
}
