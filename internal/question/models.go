// Package question is the preparation layer around the grading core: it
// validates authored question specs, samples distractors with an explicit
// random source, materializes immutable per-seed instances, and parses raw
// student submissions into the form the grader consumes.
package question

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/parsonslab/orderblocks/internal/grading"
)

// BlockSpec is one authored answer block.
type BlockSpec struct {
	HTML          string   `json:"html"`
	Correct       *bool    `json:"correct,omitempty"` // default true
	Tag           string   `json:"tag,omitempty"`     // generated when empty
	Depends       []string `json:"depends,omitempty"`
	Indent        *int     `json:"indent,omitempty"`
	Rank          int      `json:"ranking,omitempty"`
	DistractorFor string   `json:"distractor_for,omitempty"`
}

// GroupSpec is a contiguous block group; only valid with the dag method.
type GroupSpec struct {
	Tag     string      `json:"tag,omitempty"`
	Depends []string    `json:"depends,omitempty"`
	Blocks  []BlockSpec `json:"blocks"`
}

// Element is one top-level child of a question: a block or a group of blocks.
// Exactly one field is set.
type Element struct {
	Block *BlockSpec `json:"block,omitempty"`
	Group *GroupSpec `json:"group,omitempty"`
}

// Spec is an authored question as uploaded by a teacher.
type Spec struct {
	Name          string    `json:"name"`
	GradingMethod string    `json:"grading_method,omitempty"`      // unordered|ordered|ranking|dag|external
	Indentation   bool      `json:"indentation,omitempty"`         // enable the indentation gate
	MaxIndent     int       `json:"max_indent,omitempty"`          // UI bound, default 4
	Feedback      string    `json:"feedback,omitempty"`            // none|first-wrong
	PartialCredit string    `json:"partial_credit,omitempty"`      // none|lcs, dag/ranking only
	SourceOrder   string    `json:"source_blocks_order,omitempty"` // random|alphabetized|ordered
	MinIncorrect  *int      `json:"min_incorrect,omitempty"`
	MaxIncorrect  *int      `json:"max_incorrect,omitempty"`
	Weight        int       `json:"weight,omitempty"` // default 1
	AllowBlank    bool      `json:"allow_blank,omitempty"`
	FileName      string    `json:"file_name,omitempty"` // external method, default user_code.py
	Elements      []Element `json:"elements"`
}

// Question is a stored spec with identity.
type Question struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Spec      Spec   `json:"spec"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Block is one prepared block of an instance: a grading.Block plus the fields
// the source panel and distractor pairing need.
type Block struct {
	grading.Block
	Index         int    `json:"index"` // declaration position
	Correct       bool   `json:"correct"`
	DistractorFor string `json:"distractor_for,omitempty"`
	DistractorBin string `json:"distractor_bin,omitempty"`
}

// Instance is one prepared, immutable rendition of a question: the sampled
// source blocks in presentation order and the canonical answer. Submissions
// are graded read-only against it.
type Instance struct {
	ID         string         `json:"id"`
	QuestionID string         `json:"question_id"`
	Seed       int64          `json:"seed"`
	Blocks     []Block        `json:"blocks"` // source panel: correct + sampled distractors
	Answer     []Block        `json:"answer"` // canonical correct order (post self-check)
	Policy     grading.Policy `json:"policy"`
	AllowBlank bool           `json:"allow_blank"`
	MaxIndent  int            `json:"max_indent"`
	FileName   string         `json:"file_name,omitempty"`
	CreatedAt  int64          `json:"created_at,omitempty"`
}

// Submission is a graded student submission as stored. External is set only
// for externally graded questions, where Result carries no score.
type Submission struct {
	ID         string              `json:"id"`
	InstanceID string              `json:"instance_id"`
	UserID     string              `json:"user_id"`
	Blocks     []grading.Submitted `json:"blocks"`
	Result     grading.Result      `json:"result"`
	External   *ExternalFile       `json:"external,omitempty"`
	CreatedAt  int64               `json:"created_at,omitempty"`
}

// newID returns a 128-bit hex id for blocks, instances and submissions.
func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("question: id entropy unavailable: %v", err))
	}
	return hex.EncodeToString(b[:])
}
