package question

import (
	"math/rand"
	"strings"
	"testing"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func blockEl(html, tag string, deps ...string) Element {
	return Element{Block: &BlockSpec{HTML: html, Tag: tag, Depends: deps}}
}

func dagSpec() Spec {
	return Spec{
		Name:          "3-chain",
		GradingMethod: "dag",
		Elements: []Element{
			blockEl("line a", "a"),
			blockEl("line b", "b", "a"),
			blockEl("line c", "c", "b"),
		},
	}
}

func mustPrepare(t *testing.T, s Spec, seed int64) *Instance {
	t.Helper()
	inst, err := Prepare(Question{ID: "q1", Spec: s}, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return inst
}

func TestPrepareRejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{
			"duplicate tags",
			Spec{GradingMethod: "dag", Elements: []Element{blockEl("x", "a"), blockEl("y", "a")}},
			"multiple places",
		},
		{
			"dangling depends",
			Spec{GradingMethod: "dag", Elements: []Element{blockEl("x", "a", "ghost")}},
			"undeclared",
		},
		{
			"dependency cycle",
			Spec{GradingMethod: "dag", Elements: []Element{blockEl("x", "a", "b"), blockEl("y", "b", "a")}},
			"no valid order",
		},
		{
			"partial credit outside dag/ranking",
			Spec{GradingMethod: "ordered", PartialCredit: "lcs", Elements: []Element{blockEl("x", "a")}},
			"partial-credit",
		},
		{
			"feedback outside dag/ranking",
			Spec{GradingMethod: "ordered", Feedback: "first-wrong", Elements: []Element{blockEl("x", "a")}},
			"feedback",
		},
		{
			"groups outside dag",
			Spec{GradingMethod: "ordered", Elements: []Element{
				{Group: &GroupSpec{Tag: "g", Blocks: []BlockSpec{{HTML: "x", Tag: "a"}}}},
			}},
			"block groups",
		},
		{
			"indent while indentation disabled",
			Spec{GradingMethod: "ordered", Elements: []Element{
				{Block: &BlockSpec{HTML: "x", Tag: "a", Indent: intPtr(1)}},
			}},
			"indentation is disabled",
		},
		{
			"distractor_for on a correct block",
			Spec{GradingMethod: "dag", Elements: []Element{
				{Block: &BlockSpec{HTML: "x", Tag: "a", DistractorFor: "a"}},
			}},
			"correct=false",
		},
		{
			"unresolved distractor_for",
			Spec{GradingMethod: "dag", Elements: []Element{
				blockEl("x", "a"),
				{Block: &BlockSpec{HTML: "y", Correct: boolPtr(false), DistractorFor: "ghost"}},
			}},
			"no matching correct block",
		},
		{
			"no correct blocks",
			Spec{GradingMethod: "dag", Elements: []Element{
				{Block: &BlockSpec{HTML: "x", Correct: boolPtr(false)}},
			}},
			"no correct blocks",
		},
		{
			"negative min_incorrect",
			Spec{GradingMethod: "dag", MinIncorrect: intPtr(-5), MaxIncorrect: intPtr(-5), Elements: []Element{
				blockEl("x", "a"),
				{Block: &BlockSpec{HTML: "y", Correct: boolPtr(false)}},
			}},
			"may not be negative",
		},
		{
			"min exceeds available distractors",
			Spec{GradingMethod: "dag", MinIncorrect: intPtr(2), MaxIncorrect: intPtr(2), Elements: []Element{
				blockEl("x", "a"),
				{Block: &BlockSpec{HTML: "y", Correct: boolPtr(false)}},
			}},
			"may not exceed",
		},
		{
			"unknown grading method",
			Spec{GradingMethod: "psychic", Elements: []Element{blockEl("x", "a")}},
			"unknown method",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prepare(Question{ID: "q", Spec: tt.spec}, rand.New(rand.NewSource(1)))
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestPrepareDeterministicForSeed(t *testing.T) {
	spec := dagSpec()
	spec.SourceOrder = "random"
	for i := 0; i < 4; i++ {
		spec.Elements = append(spec.Elements, Element{Block: &BlockSpec{
			HTML: "distractor " + strings.Repeat("x", i+1), Correct: boolPtr(false),
		}})
	}
	spec.MinIncorrect = intPtr(1)
	spec.MaxIncorrect = intPtr(3)

	a := mustPrepare(t, spec, 42)
	b := mustPrepare(t, spec, 42)
	if len(a.Blocks) != len(b.Blocks) {
		t.Fatalf("same seed, different block counts: %d vs %d", len(a.Blocks), len(b.Blocks))
	}
	for i := range a.Blocks {
		if a.Blocks[i].HTML != b.Blocks[i].HTML {
			t.Fatalf("same seed, different order at %d: %q vs %q", i, a.Blocks[i].HTML, b.Blocks[i].HTML)
		}
	}
}

func TestPrepareSourceOrderAlphabetized(t *testing.T) {
	spec := dagSpec()
	spec.SourceOrder = "alphabetized"
	inst := mustPrepare(t, spec, 1)
	for i := 1; i < len(inst.Blocks); i++ {
		if inst.Blocks[i-1].HTML > inst.Blocks[i].HTML {
			t.Fatalf("blocks not alphabetized: %q after %q", inst.Blocks[i].HTML, inst.Blocks[i-1].HTML)
		}
	}
}

func TestPrepareDistractorBins(t *testing.T) {
	spec := dagSpec()
	spec.Elements = append(spec.Elements, Element{Block: &BlockSpec{
		HTML: "fake b", Correct: boolPtr(false), DistractorFor: "b",
	}})
	inst := mustPrepare(t, spec, 1)

	var correctBin, distractorBin string
	for _, blk := range inst.Blocks {
		switch {
		case blk.Tag == "b" && blk.Correct:
			correctBin = blk.DistractorBin
		case blk.DistractorFor == "b":
			distractorBin = blk.DistractorBin
		}
	}
	if correctBin == "" || correctBin != distractorBin {
		t.Fatalf("distractor pair not binned together: %q vs %q", correctBin, distractorBin)
	}
}

func TestCanonicalAnswerSelfCheck(t *testing.T) {
	// declared order c,b,a contradicts the edges; the stored answer must be
	// replaced by a solver order that grades 1.0
	spec := Spec{
		GradingMethod: "dag",
		Elements: []Element{
			blockEl("line c", "c", "b"),
			blockEl("line b", "b", "a"),
			blockEl("line a", "a"),
		},
	}
	inst := mustPrepare(t, spec, 1)

	tags := make([]string, len(inst.Answer))
	for i, b := range inst.Answer {
		tags[i] = b.Tag
	}
	if tags[0] != "a" || tags[1] != "b" || tags[2] != "c" {
		t.Fatalf("canonical answer = %v, want [a b c]", tags)
	}

	sub, err := ParseSubmission(inst, answerAsRaw(inst))
	if err != nil {
		t.Fatal(err)
	}
	res, err := gradeInstance(inst, sub)
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 1 {
		t.Fatalf("canonical answer scores %v against itself", res.Score)
	}
}

func TestCanonicalAnswerRankingTiesKeepDeclarationOrder(t *testing.T) {
	spec := Spec{
		GradingMethod: "ranking",
		Elements: []Element{
			{Block: &BlockSpec{HTML: "A", Tag: "a", Rank: 1}},
			{Block: &BlockSpec{HTML: "B", Tag: "b", Rank: 2}},
			{Block: &BlockSpec{HTML: "C", Tag: "c", Rank: 2}},
		},
	}
	inst := mustPrepare(t, spec, 1)
	if inst.Answer[0].Tag != "a" || inst.Answer[1].Tag != "b" || inst.Answer[2].Tag != "c" {
		t.Fatalf("ranking answer reordered: %v %v %v",
			inst.Answer[0].Tag, inst.Answer[1].Tag, inst.Answer[2].Tag)
	}
}

func TestPrepareGroupedQuestion(t *testing.T) {
	spec := Spec{
		GradingMethod: "dag",
		Elements: []Element{
			{Group: &GroupSpec{Tag: "g1", Blocks: []BlockSpec{
				{HTML: "X", Tag: "x"},
				{HTML: "Y", Tag: "y"},
			}}},
			{Group: &GroupSpec{Tag: "g2", Depends: []string{"g1"}, Blocks: []BlockSpec{
				{HTML: "Z", Tag: "z"},
			}}},
		},
	}
	inst := mustPrepare(t, spec, 1)
	if len(inst.Answer) != 3 {
		t.Fatalf("answer has %d blocks, want 3", len(inst.Answer))
	}
	if inst.Answer[2].Tag != "z" {
		t.Fatalf("g2 must come after g1, answer ends with %q", inst.Answer[2].Tag)
	}
}
