package grading

import "fmt"

// Method is the closed set of grading methods. Dispatch sites switch over
// every variant and error from default, so a new variant fails the first
// grading call instead of silently scoring zero.
type Method int

const (
	Unordered Method = iota
	Ordered
	Ranking
	DAG
	External
)

func ParseMethod(s string) (Method, error) {
	switch s {
	case "unordered":
		return Unordered, nil
	case "ordered", "":
		return Ordered, nil
	case "ranking":
		return Ranking, nil
	case "dag":
		return DAG, nil
	case "external":
		return External, nil
	default:
		return 0, fmt.Errorf("grading: unknown method %q", s)
	}
}

func (m Method) String() string {
	switch m {
	case Unordered:
		return "unordered"
	case Ordered:
		return "ordered"
	case Ranking:
		return "ranking"
	case DAG:
		return "dag"
	case External:
		return "external"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// PartialCredit selects how DAG/ranking submissions earn fractional scores.
type PartialCredit int

const (
	PartialNone PartialCredit = iota
	PartialLCS
)

func ParsePartialCredit(s string) (PartialCredit, error) {
	switch s {
	case "none":
		return PartialNone, nil
	case "lcs", "":
		return PartialLCS, nil
	default:
		return 0, fmt.Errorf("grading: unknown partial-credit policy %q", s)
	}
}

func (p PartialCredit) String() string {
	switch p {
	case PartialNone:
		return "none"
	case PartialLCS:
		return "lcs"
	default:
		return fmt.Sprintf("PartialCredit(%d)", int(p))
	}
}

// FeedbackType selects what divergence feedback accompanies imperfect scores.
type FeedbackType int

const (
	FeedbackNone FeedbackType = iota
	FeedbackFirstWrong
)

func ParseFeedbackType(s string) (FeedbackType, error) {
	switch s {
	case "none", "":
		return FeedbackNone, nil
	case "first-wrong":
		return FeedbackFirstWrong, nil
	default:
		return 0, fmt.Errorf("grading: unknown feedback type %q", s)
	}
}

func (f FeedbackType) String() string {
	switch f {
	case FeedbackNone:
		return "none"
	case FeedbackFirstWrong:
		return "first-wrong"
	default:
		return fmt.Sprintf("FeedbackType(%d)", int(f))
	}
}
