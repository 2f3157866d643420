package question

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/parsonslab/orderblocks/internal/dag"
	"github.com/parsonslab/orderblocks/internal/grading"
)

const (
	defaultMaxIndent = 4
	defaultWeight    = 1
	defaultFileName  = "user_code.py"
)

// SourceOrder is the closed set of source-panel orderings.
type SourceOrder int

const (
	SourceAlphabetized SourceOrder = iota
	SourceRandom
	SourceDeclared
)

func ParseSourceOrder(s string) (SourceOrder, error) {
	switch s {
	case "alphabetized", "":
		return SourceAlphabetized, nil
	case "random":
		return SourceRandom, nil
	case "ordered":
		return SourceDeclared, nil
	default:
		return 0, fmt.Errorf("question: unknown source-blocks-order %q", s)
	}
}

// Prepare validates a spec and materializes one instance. All randomness
// (distractor count, distractor sampling, source shuffling) draws from rng
// only, so a fixed seed reproduces the instance exactly. Every returned error
// is a configuration error: fatal to instance generation, never retried.
func Prepare(q Question, rng *rand.Rand) (*Instance, error) {
	policy, err := parsePolicy(q.Spec)
	if err != nil {
		return nil, err
	}
	srcOrder, err := ParseSourceOrder(q.Spec.SourceOrder)
	if err != nil {
		return nil, err
	}

	correct, incorrect, err := collectBlocks(q.Spec, policy)
	if err != nil {
		return nil, err
	}
	if len(correct) == 0 && policy.Method != grading.External {
		return nil, errors.New("question: no correct blocks specified")
	}
	if err := checkDistractorRefs(correct, incorrect); err != nil {
		return nil, err
	}

	sampled, err := sampleIncorrect(q.Spec, incorrect, rng)
	if err != nil {
		return nil, err
	}

	all := make([]Block, 0, len(correct)+len(sampled))
	all = append(all, correct...)
	all = append(all, sampled...)

	switch srcOrder {
	case SourceRandom:
		rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	case SourceAlphabetized:
		sort.SliceStable(all, func(i, j int) bool { return all[i].HTML < all[j].HTML })
	case SourceDeclared:
		sort.SliceStable(all, func(i, j int) bool { return all[i].Index < all[j].Index })
	default:
		return nil, fmt.Errorf("question: unhandled source order %v", srcOrder)
	}

	assignDistractorBins(all)

	answer, err := canonicalAnswer(policy, correct)
	if err != nil {
		return nil, err
	}

	maxIndent := q.Spec.MaxIndent
	if maxIndent == 0 {
		maxIndent = defaultMaxIndent
	}
	fileName := q.Spec.FileName
	if fileName == "" {
		fileName = defaultFileName
	}

	return &Instance{
		ID:         newID(),
		QuestionID: q.ID,
		Blocks:     all,
		Answer:     answer,
		Policy:     policy,
		AllowBlank: q.Spec.AllowBlank,
		MaxIndent:  maxIndent,
		FileName:   fileName,
	}, nil
}

func parsePolicy(s Spec) (grading.Policy, error) {
	method, err := grading.ParseMethod(s.GradingMethod)
	if err != nil {
		return grading.Policy{}, err
	}
	feedback, err := grading.ParseFeedbackType(s.Feedback)
	if err != nil {
		return grading.Policy{}, err
	}
	partial, err := grading.ParsePartialCredit(s.PartialCredit)
	if err != nil {
		return grading.Policy{}, err
	}

	graphMethod := method == grading.Ranking || method == grading.DAG
	if s.PartialCredit != "" && !graphMethod {
		return grading.Policy{}, errors.New("question: partial-credit options are only valid with the dag and ranking grading methods")
	}
	if feedback != grading.FeedbackNone && !graphMethod {
		return grading.Policy{}, fmt.Errorf("question: feedback type %q is not available with the %q grading method", s.Feedback, method)
	}

	weight := s.Weight
	if weight == 0 {
		weight = defaultWeight
	}
	return grading.Policy{
		Method:        method,
		PartialCredit: partial,
		Feedback:      feedback,
		CheckIndent:   s.Indentation,
		Weight:        weight,
	}, nil
}

// collectBlocks flattens the spec into correct and incorrect block lists.
// Tag bookkeeping is a pure pass: seen tags accumulate in a local set and
// duplicates come back as errors rather than via shared mutable state.
func collectBlocks(s Spec, policy grading.Policy) (correct, incorrect []Block, err error) {
	seen := map[string]bool{}
	claim := func(tag string) error {
		if seen[tag] {
			return fmt.Errorf("question: tag %q used in multiple places; block and group tags must be unique", tag)
		}
		seen[tag] = true
		return nil
	}

	index := 0
	addBlock := func(b BlockSpec, group *grading.Group) error {
		isCorrect := b.Correct == nil || *b.Correct
		if b.DistractorFor != "" && isCorrect {
			return errors.New("question: distractor_for may only be used on blocks with correct=false")
		}
		if b.Indent != nil && !policy.CheckIndent {
			return errors.New("question: blocks may not specify indent while indentation is disabled")
		}

		tag := b.Tag
		if tag == "" {
			tag = newID()
		}
		if isCorrect {
			if err := claim(tag); err != nil {
				return err
			}
		}

		indent := grading.IndentAny
		if b.Indent != nil {
			indent = *b.Indent
		}
		blk := Block{
			Block: grading.Block{
				ID:      newID(),
				HTML:    b.HTML,
				Tag:     tag,
				Indent:  indent,
				Rank:    b.Rank,
				Depends: b.Depends,
				Group:   group,
			},
			Index:         index,
			Correct:       isCorrect,
			DistractorFor: b.DistractorFor,
		}
		index++
		if isCorrect {
			correct = append(correct, blk)
		} else {
			incorrect = append(incorrect, blk)
		}
		return nil
	}

	for _, el := range s.Elements {
		switch {
		case el.Group != nil:
			if policy.Method != grading.DAG {
				return nil, nil, errors.New("question: block groups are only supported with the dag grading method")
			}
			tag := el.Group.Tag
			if tag == "" {
				tag = newID()
			}
			if err := claim(tag); err != nil {
				return nil, nil, err
			}
			group := &grading.Group{Tag: tag, Depends: el.Group.Depends}
			for _, b := range el.Group.Blocks {
				if err := addBlock(b, group); err != nil {
					return nil, nil, err
				}
			}
		case el.Block != nil:
			if err := addBlock(*el.Block, nil); err != nil {
				return nil, nil, err
			}
		default:
			return nil, nil, errors.New("question: element must contain a block or a group")
		}
	}
	return correct, incorrect, nil
}

func checkDistractorRefs(correct, incorrect []Block) error {
	tags := make(map[string]bool, len(correct))
	for _, b := range correct {
		tags[b.Tag] = true
	}
	for _, b := range incorrect {
		if b.DistractorFor != "" && !tags[b.DistractorFor] {
			return fmt.Errorf("question: distractor_for tag %q has no matching correct block", b.DistractorFor)
		}
	}
	return nil
}

func sampleIncorrect(s Spec, incorrect []Block, rng *rand.Rand) ([]Block, error) {
	minN, maxN := len(incorrect), len(incorrect)
	if s.MinIncorrect != nil {
		minN = *s.MinIncorrect
	}
	if s.MaxIncorrect != nil {
		maxN = *s.MaxIncorrect
	}
	if minN < 0 || maxN < 0 {
		return nil, errors.New("question: min_incorrect and max_incorrect may not be negative")
	}
	if minN > len(incorrect) || maxN > len(incorrect) {
		return nil, errors.New("question: min_incorrect and max_incorrect may not exceed the number of incorrect blocks")
	}
	if minN > maxN {
		return nil, errors.New("question: min_incorrect must not exceed max_incorrect")
	}

	n := minN + rng.Intn(maxN-minN+1)
	out := make([]Block, 0, n)
	for _, i := range rng.Perm(len(incorrect))[:n] {
		out = append(out, incorrect[i])
	}
	return out, nil
}

// assignDistractorBins pairs each correct block with the distractors that
// name it, sharing one bin id. Purely cosmetic for the source panel.
func assignDistractorBins(all []Block) {
	for i := range all {
		if all[i].DistractorFor != "" || all[i].Tag == "" {
			continue
		}
		bin := ""
		for j := range all {
			if all[j].DistractorFor != all[i].Tag {
				continue
			}
			if bin == "" {
				bin = newID()
				all[i].DistractorBin = bin
			}
			all[j].DistractorBin = bin
		}
	}
}

// canonicalAnswer grades the declared order against itself and, if it does
// not score perfectly (ranking ties, reorderable dependencies), replaces it
// with an order the solver guarantees to be valid. The displayed reference
// answer therefore always scores 1.0 under its own policy.
func canonicalAnswer(policy grading.Policy, correct []Block) ([]Block, error) {
	answer := gradingView(correct)

	switch policy.Method {
	case grading.Unordered, grading.Ordered, grading.External:
		return correct, nil
	case grading.Ranking, grading.DAG:
		selfCheck := policy
		selfCheck.Feedback = grading.FeedbackNone
		res, err := grading.Grade(selfCheck, answer, asSubmission(correct))
		if err != nil {
			return nil, err
		}
		if res.Score == 1 {
			return correct, nil
		}
		return solveOrder(policy.Method, correct)
	default:
		return nil, fmt.Errorf("question: unhandled grading method %v", policy.Method)
	}
}

func solveOrder(method grading.Method, correct []Block) ([]Block, error) {
	if method == grading.Ranking {
		out := append([]Block(nil), correct...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
		return out, nil
	}

	nodes := make([]dag.Node, len(correct))
	for i, b := range correct {
		nodes[i] = dag.Node{Tag: b.Tag, Depends: b.Depends}
		if b.Group != nil {
			nodes[i].GroupTag = b.Group.Tag
			nodes[i].GroupDepends = b.Group.Depends
		}
	}
	g, err := dag.Build(nodes)
	if err != nil {
		return nil, err
	}
	order, err := g.Solve()
	if err != nil {
		return nil, err
	}
	pos := make(map[string]int, len(order))
	for i, tag := range order {
		pos[tag] = i
	}
	out := append([]Block(nil), correct...)
	sort.SliceStable(out, func(i, j int) bool { return pos[out[i].Tag] < pos[out[j].Tag] })
	return out, nil
}

// gradingView projects prepared blocks onto the grading core's block type.
func gradingView(blocks []Block) []grading.Block {
	out := make([]grading.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Block
	}
	return out
}

// asSubmission renders the correct list as if a student had submitted it
// verbatim; used by the canonical-answer self-check.
func asSubmission(blocks []Block) []grading.Submitted {
	out := make([]grading.Submitted, len(blocks))
	for i, b := range blocks {
		out[i] = grading.Submitted{
			ID:     b.ID,
			HTML:   b.HTML,
			Indent: b.Indent,
			Tag:    b.Tag,
			Known:  true,
		}
	}
	return out
}
