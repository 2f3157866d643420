package dag

import (
	"errors"
	"reflect"
	"testing"
)

func chain() []Node {
	return []Node{
		{Tag: "a"},
		{Tag: "b", Depends: []string{"a"}},
		{Tag: "c", Depends: []string{"b"}},
	}
}

// g1={x,y}, g2={z}, g2 depends on g1
func grouped() []Node {
	return []Node{
		{Tag: "x", GroupTag: "g1", GroupDepends: []string{}},
		{Tag: "y", GroupTag: "g1"},
		{Tag: "z", GroupTag: "g2", GroupDepends: []string{"g1"}},
	}
}

func TestBuildRejectsDanglingDepends(t *testing.T) {
	_, err := Build([]Node{{Tag: "a", Depends: []string{"ghost"}}})
	if err == nil {
		t.Fatal("expected error for undeclared dependency")
	}
}

func TestBuildRejectsDuplicateTags(t *testing.T) {
	_, err := Build([]Node{{Tag: "a"}, {Tag: "a"}})
	if err == nil {
		t.Fatal("expected error for duplicate tag")
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	_, err := Build([]Node{
		{Tag: "a", Depends: []string{"b"}},
		{Tag: "b", Depends: []string{"a"}},
	})
	if !errors.Is(err, ErrUnsolvable) {
		t.Fatalf("want ErrUnsolvable, got %v", err)
	}
}

func TestSolveDeclarationOrderTieBreak(t *testing.T) {
	g, err := Build([]Node{{Tag: "c"}, {Tag: "a"}, {Tag: "b"}})
	if err != nil {
		t.Fatal(err)
	}
	order, err := g.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"c", "a", "b"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestSolveChain(t *testing.T) {
	g, err := Build(chain())
	if err != nil {
		t.Fatal(err)
	}
	order, err := g.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestSolveKeepsGroupsContiguous(t *testing.T) {
	// y needs the ungrouped a; declaration order alone would enter g1 first
	// and wedge on contiguity.
	g, err := Build([]Node{
		{Tag: "x", GroupTag: "g1"},
		{Tag: "a"},
		{Tag: "y", Depends: []string{"a"}, GroupTag: "g1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	order, err := g.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "x", "y"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestSolveGroupDepends(t *testing.T) {
	g, err := Build(grouped())
	if err != nil {
		t.Fatal(err)
	}
	order, err := g.Solve()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"x", "y", "z"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestBuildRankedTiesShareNoEdges(t *testing.T) {
	g, err := BuildRanked([]RankedNode{
		{Tag: "a", Rank: 1},
		{Tag: "b", Rank: 2},
		{Tag: "c", Rank: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, sub := range [][]BlockRef{
		{{Tag: "a", Known: true}, {Tag: "b", Known: true}, {Tag: "c", Known: true}},
		{{Tag: "a", Known: true}, {Tag: "c", Known: true}, {Tag: "b", Known: true}},
	} {
		n, total := g.GradePrefix(sub)
		if n != 3 || total != 3 {
			t.Fatalf("GradePrefix(%v) = (%d,%d), want (3,3)", sub, n, total)
		}
	}
	// b before a violates the rank order
	n, _ := g.GradePrefix([]BlockRef{{Tag: "b", Known: true}})
	if n != 0 {
		t.Fatalf("rank violation accepted at position 0, got prefix %d", n)
	}
}

func TestBuildRankedThreeTiers(t *testing.T) {
	g, err := BuildRanked([]RankedNode{
		{Tag: "a", Rank: 1},
		{Tag: "b", Rank: 2},
		{Tag: "c", Rank: 2},
		{Tag: "d", Rank: 5}, // gaps between ranks are fine
	})
	if err != nil {
		t.Fatal(err)
	}
	// d needs both b and c, not a directly
	n, _ := g.GradePrefix([]BlockRef{
		{Tag: "a", Known: true}, {Tag: "b", Known: true}, {Tag: "d", Known: true},
	})
	if n != 2 {
		t.Fatalf("d placed before c, want prefix 2, got %d", n)
	}
}
