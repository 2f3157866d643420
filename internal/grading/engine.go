// Package grading scores ordered-block submissions against a prepared
// question: exact and unordered set comparison directly, ranking and DAG
// questions through the dependency engine in internal/dag. Every call is a
// pure function of its inputs; Results are built fresh and never mutated.
package grading

import (
	"fmt"
	"math"

	"github.com/parsonslab/orderblocks/internal/dag"
)

// IndentAny marks a correct block whose indentation is not checked.
const IndentAny = -1

// Group names the block group a correct block belongs to, with the group's
// own dependency list (nil when the group declares none).
type Group struct {
	Tag     string   `json:"tag"`
	Depends []string `json:"depends"`
}

// Block is the minimal view of one correct block needed for grading.
type Block struct {
	ID      string   `json:"id"`
	HTML    string   `json:"html"`
	Tag     string   `json:"tag"`
	Indent  int      `json:"indent"`
	Rank    int      `json:"ranking"`
	Depends []string `json:"depends"`
	Group   *Group   `json:"group,omitempty"`
}

// Submitted is one block the student placed, in order. Tag/Known are resolved
// against the correct set at parse time; Known is false when the submitted
// content matched no correct block.
type Submitted struct {
	ID     string `json:"id"`
	HTML   string `json:"html"`
	Indent int    `json:"indent"`
	Tag    string `json:"tag,omitempty"`
	Known  bool   `json:"known"`
}

// Policy is the grading configuration of one question.
type Policy struct {
	Method        Method
	PartialCredit PartialCredit
	Feedback      FeedbackType
	CheckIndent   bool
	Weight        int
}

// Result is the outcome of grading a single submission.
type Result struct {
	Score    float64   `json:"score"` // in [0,1], rounded to 2 decimals
	Weight   int       `json:"weight"`
	Feedback *Feedback `json:"feedback,omitempty"`
	Deferred bool      `json:"deferred,omitempty"` // external hand-off, no score here
}

// Grade scores a submission under the policy. The answer slice is the
// canonical correct set in its reference order; submission order is the
// student's. Graph construction errors can only arise from a malformed
// question and are returned as-is.
func Grade(p Policy, answer []Block, submission []Submitted) (Result, error) {
	res := Result{Weight: p.Weight}

	sub := append([]Submitted(nil), submission...)
	if p.CheckIndent {
		gateIndentation(answer, sub)
	}

	var score float64
	switch p.Method {
	case Unordered:
		score = scoreUnordered(answer, sub)
	case Ordered:
		score = scoreOrdered(answer, sub)
	case Ranking, DAG:
		g, err := buildGraph(p.Method, answer)
		if err != nil {
			return Result{}, err
		}
		var fw feedbackInput
		score, fw = scoreGraph(p, g, sub)
		if score < 1 && p.Feedback == FeedbackFirstWrong {
			res.Feedback = assembleFeedback(fw, p.CheckIndent, hasGroups(answer))
		}
	case External:
		res.Deferred = true
		return res, nil
	default:
		return Result{}, fmt.Errorf("grading: unhandled method %v", p.Method)
	}

	res.Score = round2(score)
	if res.Score < 0 || res.Score > 1 || math.IsNaN(res.Score) {
		return Result{}, fmt.Errorf("grading: malformed score %v", res.Score)
	}
	return res, nil
}

// gateIndentation nulls every submitted block whose indentation differs from
// the recorded correct indent (unless that indent is the wildcard). A nulled
// block can no longer satisfy any dependency or match any content.
func gateIndentation(answer []Block, sub []Submitted) {
	want := make(map[string]int, len(answer))
	for _, b := range answer {
		want[b.ID] = b.Indent
	}
	for i := range sub {
		indent, ok := want[sub[i].ID]
		if !ok || indent == IndentAny {
			continue
		}
		if sub[i].Indent != indent {
			sub[i].Tag = ""
			sub[i].Known = false
			sub[i].HTML = ""
		}
	}
}

func scoreUnordered(answer []Block, sub []Submitted) float64 {
	ids := make(map[string]bool, len(answer))
	for _, b := range answer {
		ids[b.ID] = true
	}
	// set intersection: a correct block counts once, repeats are charged as
	// incorrect selections
	matched := make(map[string]bool, len(sub))
	for _, s := range sub {
		if ids[s.ID] {
			matched[s.ID] = true
		}
	}
	correct := len(matched)
	incorrect := len(sub) - correct
	score := float64(correct-incorrect) / float64(len(answer))
	return math.Max(0, score)
}

func scoreOrdered(answer []Block, sub []Submitted) float64 {
	if len(sub) != len(answer) {
		return 0
	}
	for i := range answer {
		if sub[i].HTML != answer[i].HTML {
			return 0
		}
	}
	return 1
}

func buildGraph(m Method, answer []Block) (*dag.Graph, error) {
	if m == Ranking {
		nodes := make([]dag.RankedNode, len(answer))
		for i, b := range answer {
			nodes[i] = dag.RankedNode{Tag: b.Tag, Rank: b.Rank}
		}
		return dag.BuildRanked(nodes)
	}
	nodes := make([]dag.Node, len(answer))
	for i, b := range answer {
		nodes[i] = dag.Node{Tag: b.Tag, Depends: b.Depends}
		if b.Group != nil {
			nodes[i].GroupTag = b.Group.Tag
			nodes[i].GroupDepends = b.Group.Depends
		}
	}
	return dag.Build(nodes)
}

type feedbackInput struct {
	firstWrong int // index of first invalid position, -1 when none
}

func scoreGraph(p Policy, g *dag.Graph, sub []Submitted) (float64, feedbackInput) {
	refs := make([]dag.BlockRef, len(sub))
	for i, s := range sub {
		refs[i] = dag.BlockRef{Tag: s.Tag, Known: s.Known}
	}

	numCorrect, total := g.GradePrefix(refs)
	fw := feedbackInput{firstWrong: -1}
	if numCorrect != len(refs) {
		fw.firstWrong = numCorrect
	}

	switch p.PartialCredit {
	case PartialNone:
		if numCorrect == total {
			return 1, fw
		}
		return 0, fw
	case PartialLCS:
		edit := g.EditDistance(refs)
		return math.Max(0, float64(total-edit)/float64(total)), fw
	default:
		// unreachable for parsed policies; grade as all-or-nothing
		if numCorrect == total {
			return 1, fw
		}
		return 0, fw
	}
}

func hasGroups(answer []Block) bool {
	for _, b := range answer {
		if b.Group != nil && b.Group.Tag != "" {
			return true
		}
	}
	return false
}

// round2 rounds half-to-even so .005 ties (e.g. 5/8 = 0.625) land the same
// way Python's round() lands them.
func round2(x float64) float64 { return math.RoundToEven(x*100) / 100 }
