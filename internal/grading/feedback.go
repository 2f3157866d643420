package grading

import "fmt"

// FeedbackKind classifies where a submission diverged.
type FeedbackKind int

const (
	// FeedbackIncomplete: every submitted position was valid but the answer
	// is shorter than the correct set; there is no divergence to point at.
	FeedbackIncomplete FeedbackKind = iota
	// FeedbackWrongAtBlock: the submission first became invalid at Block
	// (1-based).
	FeedbackWrongAtBlock
)

// Feedback describes the first divergence of an imperfect submission.
// IndentHint and GroupHint flag additional likely causes: they are set from
// the question's configuration, not from the specific failure, mirroring the
// advisory hints shown to students.
type Feedback struct {
	Kind       FeedbackKind `json:"kind"`
	Block      int          `json:"block,omitempty"` // 1-based, FeedbackWrongAtBlock only
	IndentHint bool         `json:"indent_hint,omitempty"`
	GroupHint  bool         `json:"group_hint,omitempty"`
}

func assembleFeedback(in feedbackInput, checkIndent, hasGroups bool) *Feedback {
	if in.firstWrong < 0 {
		return &Feedback{Kind: FeedbackIncomplete}
	}
	return &Feedback{
		Kind:       FeedbackWrongAtBlock,
		Block:      in.firstWrong + 1,
		IndentHint: checkIndent,
		GroupHint:  hasGroups,
	}
}

// Message renders the student-facing text for this feedback.
func (f *Feedback) Message() string {
	switch f.Kind {
	case FeedbackIncomplete:
		return "Your answer is correct so far, but it is incomplete."
	case FeedbackWrongAtBlock:
		msg := fmt.Sprintf("Your answer is incorrect starting at block number %d. "+
			"The problem is most likely one of the following: "+
			"this block is not a part of the correct solution; "+
			"this block needs to come after a block that did not appear before it", f.Block)
		if f.IndentHint {
			msg += "; this line is indented incorrectly"
		}
		if f.GroupHint {
			msg += "; you have attempted to start a new section of the answer without finishing the previous section"
		}
		return msg + "."
	default:
		return ""
	}
}
