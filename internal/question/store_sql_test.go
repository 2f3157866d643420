package question

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/parsonslab/orderblocks/internal/db"
	"github.com/parsonslab/orderblocks/internal/grading"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return NewSQLStore(dbh)
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	spec := dagSpec()
	spec.PartialCredit = "lcs"
	spec.Feedback = "first-wrong"
	q := Question{ID: "q1", Name: spec.Name, Spec: spec}
	if err := store.PutQuestion(ctx, q); err != nil {
		t.Fatalf("PutQuestion: %v", err)
	}
	got, err := store.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Name != spec.Name || len(got.Spec.Elements) != len(spec.Elements) {
		t.Fatalf("question round trip lost data: %+v", got)
	}

	inst, err := Prepare(q, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	inst.Seed = 3
	if err := store.PutInstance(ctx, inst); err != nil {
		t.Fatalf("PutInstance: %v", err)
	}
	loaded, err := store.GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if loaded.Seed != 3 || len(loaded.Answer) != 3 || loaded.Policy.Method != grading.DAG {
		t.Fatalf("instance round trip lost data: %+v", loaded)
	}
	if loaded.Policy.PartialCredit != grading.PartialLCS || loaded.Policy.Feedback != grading.FeedbackFirstWrong {
		t.Fatalf("policy round trip lost data: %+v", loaded.Policy)
	}

	sub := Submission{
		ID:         "s1",
		InstanceID: inst.ID,
		UserID:     "stu",
		Blocks:     asSubmission(inst.Answer),
		Result:     grading.Result{Score: 1, Weight: 1},
	}
	if err := store.PutSubmission(ctx, sub); err != nil {
		t.Fatalf("PutSubmission: %v", err)
	}
	back, err := store.GetSubmission(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if back.Result.Score != 1 || back.UserID != "stu" || len(back.Blocks) != 3 {
		t.Fatalf("submission round trip lost data: %+v", back)
	}

	list, err := store.ListSubmissions(ctx, inst.ID, "stu")
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListSubmissions returned %d rows, want 1", len(list))
	}
}

func TestSQLStoreNotFound(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.GetQuestion(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetQuestion: %v, want ErrNotFound", err)
	}
	if _, err := store.GetInstance(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetInstance: %v, want ErrNotFound", err)
	}
	if _, err := store.GetSubmission(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetSubmission: %v, want ErrNotFound", err)
	}
}
