package question

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/parsonslab/orderblocks/internal/grading"
)

// ErrBlankSubmission is a format error: the student dragged no blocks into
// the answer area and the question does not allow blank submissions.
var ErrBlankSubmission = errors.New("question: submitted answer was blank; no blocks were placed in the answer area")

// RawBlock is one slot of a submission as posted by the UI.
type RawBlock struct {
	ID     string `json:"id"`
	HTML   string `json:"html"`
	Indent int    `json:"indent"`
}

// ParseSubmission resolves raw submitted blocks against the instance's
// correct set. Content that matches no correct block (altered, or a pure
// distractor) yields an entry with Known=false; that is not an error, the
// validator treats it as guaranteed-invalid. A blank submission is a format
// error unless the question allows it.
func ParseSubmission(inst *Instance, raw []RawBlock) ([]grading.Submitted, error) {
	if len(raw) == 0 && !inst.AllowBlank {
		return nil, ErrBlankSubmission
	}

	byHTML := make(map[string]*Block, len(inst.Answer))
	for i := range inst.Answer {
		byHTML[inst.Answer[i].HTML] = &inst.Answer[i]
	}

	out := make([]grading.Submitted, len(raw))
	for i, r := range raw {
		s := grading.Submitted{ID: r.ID, HTML: r.HTML, Indent: r.Indent}
		if match, ok := byHTML[r.HTML]; ok {
			s.Tag = match.Tag
			s.Known = true
		}
		out[i] = s
	}
	return out, nil
}

// ExternalFile is the hand-off payload for externally graded questions: the
// submission reconstructed as an indentation-expanded text file.
type ExternalFile struct {
	Name       string `json:"name"`
	ContentB64 string `json:"contents"`
}

// BuildExternalFile assembles the submitted blocks into a code file, four
// spaces per indent level, base64-encoded for transport. An empty result is
// a format error.
func BuildExternalFile(inst *Instance, sub []grading.Submitted) (ExternalFile, error) {
	var b strings.Builder
	for _, s := range sub {
		indent := s.Indent
		if indent < 0 {
			indent = 0
		}
		b.WriteString(strings.Repeat("    ", indent))
		b.WriteString(s.HTML)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return ExternalFile{}, errors.New("question: the submitted file was empty")
	}
	return ExternalFile{
		Name:       inst.FileName,
		ContentB64: base64.StdEncoding.EncodeToString([]byte(b.String())),
	}, nil
}
