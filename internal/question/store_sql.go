package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/parsonslab/orderblocks/internal/grading"
)

// ErrNotFound covers lookups of questions, instances and submissions alike.
var ErrNotFound = errors.New("question: not found")

// SQLStore persists over database/sql; works against both the sqlite and
// pgx drivers ($1 placeholders are portable across the two).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	spec, err := json.Marshal(q.Spec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id,name,spec_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, spec_json=EXCLUDED.spec_json`,
		q.ID, q.Name, string(spec), time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,spec_json,created_at FROM questions WHERE id=$1`, id)
	var q Question
	var spec string
	if err := row.Scan(&q.ID, &q.Name, &spec, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, fmt.Errorf("question %q: %w", id, ErrNotFound)
		}
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(spec), &q.Spec); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, limit, offset int) ([]Question, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,name,spec_json,created_at FROM questions ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		var spec string
		if err := rows.Scan(&q.ID, &q.Name, &spec, &q.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(spec), &q.Spec); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutInstance(ctx context.Context, inst *Instance) error {
	blocks, err := json.Marshal(inst.Blocks)
	if err != nil {
		return err
	}
	answer, err := json.Marshal(inst.Answer)
	if err != nil {
		return err
	}
	policy, err := json.Marshal(policyRecord{
		Method:        inst.Policy.Method.String(),
		PartialCredit: inst.Policy.PartialCredit.String(),
		Feedback:      inst.Policy.Feedback.String(),
		CheckIndent:   inst.Policy.CheckIndent,
		Weight:        inst.Policy.Weight,
		AllowBlank:    inst.AllowBlank,
		MaxIndent:     inst.MaxIndent,
		FileName:      inst.FileName,
	})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO instances (id,question_id,seed,blocks_json,answer_json,policy_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		inst.ID, inst.QuestionID, inst.Seed, string(blocks), string(answer), string(policy), time.Now().Unix())
	return err
}

func (s *SQLStore) GetInstance(ctx context.Context, id string) (*Instance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,question_id,seed,blocks_json,answer_json,policy_json,created_at FROM instances WHERE id=$1`, id)
	var inst Instance
	var blocks, answer, policy string
	if err := row.Scan(&inst.ID, &inst.QuestionID, &inst.Seed, &blocks, &answer, &policy, &inst.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("instance %q: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(blocks), &inst.Blocks); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answer), &inst.Answer); err != nil {
		return nil, err
	}
	var rec policyRecord
	if err := json.Unmarshal([]byte(policy), &rec); err != nil {
		return nil, err
	}
	if err := rec.apply(&inst); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (s *SQLStore) PutSubmission(ctx context.Context, sub Submission) error {
	blocks, err := json.Marshal(sub.Blocks)
	if err != nil {
		return err
	}
	result, err := json.Marshal(sub.Result)
	if err != nil {
		return err
	}
	external := ""
	if sub.External != nil {
		buf, err := json.Marshal(sub.External)
		if err != nil {
			return err
		}
		external = string(buf)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions (id,instance_id,user_id,blocks_json,result_json,external_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sub.ID, sub.InstanceID, sub.UserID, string(blocks), string(result), external, time.Now().Unix())
	return err
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,instance_id,user_id,blocks_json,result_json,external_json,created_at FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, fmt.Errorf("submission %q: %w", id, ErrNotFound)
		}
		return Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) ListSubmissions(ctx context.Context, instanceID, userID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,instance_id,user_id,blocks_json,result_json,external_json,created_at FROM submissions
		 WHERE instance_id=$1 AND ($2='' OR user_id=$2) ORDER BY created_at DESC`,
		instanceID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubmission(scan func(dest ...any) error) (Submission, error) {
	var sub Submission
	var blocks, result, external string
	if err := scan(&sub.ID, &sub.InstanceID, &sub.UserID, &blocks, &result, &external, &sub.CreatedAt); err != nil {
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(blocks), &sub.Blocks); err != nil {
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(result), &sub.Result); err != nil {
		return Submission{}, err
	}
	if external != "" {
		sub.External = &ExternalFile{}
		if err := json.Unmarshal([]byte(external), sub.External); err != nil {
			return Submission{}, err
		}
	}
	return sub, nil
}

// policyRecord is the serialized form of an instance's policy; enums travel
// as their string names so stored rows stay readable.
type policyRecord struct {
	Method        string `json:"method"`
	PartialCredit string `json:"partial_credit"`
	Feedback      string `json:"feedback"`
	CheckIndent   bool   `json:"check_indent"`
	Weight        int    `json:"weight"`
	AllowBlank    bool   `json:"allow_blank"`
	MaxIndent     int    `json:"max_indent"`
	FileName      string `json:"file_name"`
}

func (r policyRecord) apply(inst *Instance) error {
	method, err := grading.ParseMethod(r.Method)
	if err != nil {
		return err
	}
	partial, err := grading.ParsePartialCredit(r.PartialCredit)
	if err != nil {
		return err
	}
	feedback, err := grading.ParseFeedbackType(r.Feedback)
	if err != nil {
		return err
	}
	inst.Policy = grading.Policy{
		Method:        method,
		PartialCredit: partial,
		Feedback:      feedback,
		CheckIndent:   r.CheckIndent,
		Weight:        r.Weight,
	}
	inst.AllowBlank = r.AllowBlank
	inst.MaxIndent = r.MaxIndent
	inst.FileName = r.FileName
	return nil
}
