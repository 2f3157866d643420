package question

import (
	"context"
	"errors"
	"math/rand"

	"github.com/parsonslab/orderblocks/internal/grading"
)

// Store persists questions, prepared instances and graded submissions.
type Store interface {
	PutQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	ListQuestions(ctx context.Context, limit, offset int) ([]Question, error)
	PutInstance(ctx context.Context, inst *Instance) error
	GetInstance(ctx context.Context, id string) (*Instance, error)
	PutSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, instanceID, userID string) ([]Submission, error)
}

// Service ties preparation, parsing and grading together over a Store.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// CreateQuestion validates and stores a question spec. Validation runs a full
// dry-run preparation so configuration errors (duplicate tags, cycles, policy
// mismatches) surface at upload time, not when the first student asks for an
// instance.
func (s *Service) CreateQuestion(ctx context.Context, spec Spec) (Question, error) {
	q := Question{ID: newID(), Name: spec.Name, Spec: spec}
	if _, err := Prepare(q, rand.New(rand.NewSource(0))); err != nil {
		return Question{}, err
	}
	if err := s.store.PutQuestion(ctx, q); err != nil {
		return Question{}, err
	}
	return q, nil
}

// NewInstance prepares one instance of a question from an explicit seed.
// The same question and seed always produce the same instance.
func (s *Service) NewInstance(ctx context.Context, questionID string, seed int64) (*Instance, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	inst, err := Prepare(q, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	inst.Seed = seed
	if err := s.store.PutInstance(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// GradeSubmission parses and grades one submission against a prepared
// instance and stores the outcome. For externally graded questions no score
// is computed; the submission is packaged into the hand-off file instead.
func (s *Service) GradeSubmission(ctx context.Context, instanceID, userID string, raw []RawBlock) (Submission, error) {
	inst, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		return Submission{}, err
	}
	sub, err := ParseSubmission(inst, raw)
	if err != nil {
		return Submission{}, err
	}

	res, err := grading.Grade(inst.Policy, gradingView(inst.Answer), sub)
	if err != nil {
		return Submission{}, err
	}

	rec := Submission{
		ID:         newID(),
		InstanceID: inst.ID,
		UserID:     userID,
		Blocks:     sub,
		Result:     res,
	}
	if res.Deferred {
		file, err := BuildExternalFile(inst, sub)
		if err != nil {
			return Submission{}, err
		}
		rec.External = &file
	}
	if err := s.store.PutSubmission(ctx, rec); err != nil {
		return Submission{}, err
	}
	return rec, nil
}

// IsFormatError reports whether err should surface as a bad submission
// rather than a server failure.
func IsFormatError(err error) bool { return errors.Is(err, ErrBlankSubmission) }
