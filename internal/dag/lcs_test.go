package dag

import "testing"

func TestEditDistance(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		sub   []BlockRef
		want  int
	}{
		{"exact", chain(), refs("a", "b", "c"), 0},
		{"missing first of chain", chain(), refs("b", "c"), 1},
		{"empty submission", chain(), nil, 3},
		{"all unmatched", chain(), refs("?", "?"), 5},
		{"swap in chain", chain(), refs("b", "a", "c"), 2},
		{"unmatched extra", chain(), refs("a", "?", "b", "c"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.nodes)
			if err != nil {
				t.Fatal(err)
			}
			if got := g.EditDistance(tt.sub); got != tt.want {
				t.Fatalf("EditDistance = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEditDistanceAcceptsAnyValidLinearization(t *testing.T) {
	// a before b and c; b,c mutually orderable
	g, err := Build([]Node{
		{Tag: "a"},
		{Tag: "b", Depends: []string{"a"}},
		{Tag: "c", Depends: []string{"a"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.EditDistance(refs("a", "c", "b")); got != 0 {
		t.Fatalf("valid alternative order scored edit distance %d", got)
	}
	if got := g.EditDistance(refs("b", "a", "c")); got < 1 {
		t.Fatalf("invalid order scored edit distance %d", got)
	}
}

func TestEditDistanceGroupContiguity(t *testing.T) {
	g, err := Build(grouped())
	if err != nil {
		t.Fatal(err)
	}
	// x z y: the best alignment drops either z or y (the whole-group edge
	// forbids x..z..y in any valid order), so one delete plus one insert.
	if got := g.EditDistance(refs("x", "z", "y")); got != 2 {
		t.Fatalf("EditDistance = %d, want 2", got)
	}
	if got := g.EditDistance(refs("y", "x", "z")); got != 0 {
		t.Fatalf("free intra-group order scored %d", got)
	}
}
