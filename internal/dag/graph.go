// Package dag is the ordering engine behind ranking- and dependency-graded
// block questions. It builds a dependency model from block declarations,
// produces a canonical valid order, and scores submitted permutations by
// prefix correctness and by edit distance to the nearest valid order.
//
// All operations are pure and read-only over an immutable Graph, so a single
// Graph may be shared across concurrent grading calls.
package dag

import (
	"errors"
	"fmt"
)

// ErrUnsolvable is returned when no ordering can satisfy the declared
// dependencies, either because of a cycle or because group contiguity makes
// the declared edges impossible to honor.
var ErrUnsolvable = errors.New("dag: no valid order exists")

// Node is one correct block, in declaration order. Grouped blocks carry their
// group's tag; GroupDepends is non-nil only when the group itself declares a
// depends list (an empty non-nil slice counts as declared).
type Node struct {
	Tag          string
	Depends      []string
	GroupTag     string
	GroupDepends []string
}

// BlockRef is one slot of a submission. Submitted content that matches no
// correct block (altered content, or a block nulled by the indentation gate)
// has Known=false and can never satisfy a dependency.
type BlockRef struct {
	Tag   string
	Known bool
}

// Graph is the immutable dependency model: block and group nodes, the
// prerequisites of each, and group membership. Build once per question
// instance; grading never mutates it.
type Graph struct {
	order   []string            // block tags, declaration order
	index   map[string]int      // block tag -> position in order
	deps    map[string][]string // node (block or group) -> prerequisites
	groupOf map[string]string   // block tag -> group tag, "" when ungrouped
	members map[string][]string // group tag -> member tags, declaration order
}

// Build converts block declarations into a Graph. Every depends reference
// must name a declared block or group, and the result must admit at least one
// valid order; violations are configuration errors, reported here so they
// surface at preparation time rather than mid-grading.
func Build(nodes []Node) (*Graph, error) {
	g := &Graph{
		index:   make(map[string]int, len(nodes)),
		deps:    make(map[string][]string, len(nodes)),
		groupOf: make(map[string]string, len(nodes)),
		members: map[string][]string{},
	}
	for _, n := range nodes {
		if _, dup := g.index[n.Tag]; dup {
			return nil, fmt.Errorf("dag: duplicate tag %q", n.Tag)
		}
		g.index[n.Tag] = len(g.order)
		g.order = append(g.order, n.Tag)
		g.deps[n.Tag] = n.Depends
		g.groupOf[n.Tag] = n.GroupTag
		if n.GroupTag != "" {
			g.members[n.GroupTag] = append(g.members[n.GroupTag], n.Tag)
			if n.GroupDepends != nil {
				if _, ok := g.deps[n.GroupTag]; !ok {
					g.deps[n.GroupTag] = n.GroupDepends
				}
			}
		}
	}
	for node, deps := range g.deps {
		for _, d := range deps {
			if !g.known(d) {
				return nil, fmt.Errorf("dag: %q depends on undeclared tag %q", node, d)
			}
		}
	}
	if _, err := g.Solve(); err != nil {
		return nil, err
	}
	return g, nil
}

// Len is the number of block nodes; the scoring denominator.
func (g *Graph) Len() int { return len(g.order) }

func (g *Graph) known(tag string) bool {
	if _, ok := g.index[tag]; ok {
		return true
	}
	_, ok := g.members[tag]
	return ok
}

// satisfied reports whether dependency d is met given the done set. A group
// dependency is met only when every member of the group is done.
func (g *Graph) satisfied(d string, done func(string) bool) bool {
	if mem, ok := g.members[d]; ok {
		for _, m := range mem {
			if !done(m) {
				return false
			}
		}
		return true
	}
	return done(d)
}

// placeable reports whether tag may legally come next: it must be a declared,
// unplaced block whose effective dependencies (its own plus its group's) are
// all satisfied, and placing it must not break group contiguity. open is the
// tag of the partially consumed group, "" when none.
func (g *Graph) placeable(tag string, done func(string) bool, open string) bool {
	if _, ok := g.index[tag]; !ok || done(tag) {
		return false
	}
	if open != "" && g.groupOf[tag] != open {
		return false
	}
	for _, d := range g.deps[tag] {
		if !g.satisfied(d, done) {
			return false
		}
	}
	if grp := g.groupOf[tag]; grp != "" {
		for _, d := range g.deps[grp] {
			if !g.satisfied(d, done) {
				return false
			}
		}
	}
	return true
}

// openAfter returns the partially consumed group after placing tag, or "".
func (g *Graph) openAfter(tag string, done func(string) bool) string {
	grp := g.groupOf[tag]
	if grp == "" {
		return ""
	}
	for _, m := range g.members[grp] {
		if !done(m) {
			return grp
		}
	}
	return ""
}
