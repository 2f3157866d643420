package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/parsonslab/orderblocks/internal/question"
)

// POST /questions — upload an authored question spec. Configuration errors
// (duplicate tags, dependency cycles, incompatible policies) come back 400.
func CreateQuestionHandler(svc *question.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec question.Spec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		q, err := svc.CreateQuestion(r.Context(), spec)
		if err != nil {
			http.Error(w, "create question: "+err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(q)
	}
}

// GET /questions/{questionID}
func GetQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "questionID"))
		if id == "" {
			http.Error(w, "questionID required", http.StatusBadRequest)
			return
		}
		q, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			httpStatusFor(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(q)
	}
}

// GET /questions?limit=&offset=
func ListQuestionsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		qs, err := store.ListQuestions(r.Context(), limit, offset)
		if err != nil {
			http.Error(w, "list questions: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(qs)
	}
}

// POST /questions/{questionID}/instances  { "seed": 12345 }
func CreateInstanceHandler(svc *question.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "questionID"))
		if id == "" {
			http.Error(w, "questionID required", http.StatusBadRequest)
			return
		}
		var req struct {
			Seed int64 `json:"seed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		inst, err := svc.NewInstance(r.Context(), id, req.Seed)
		if err != nil {
			httpStatusFor(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(studentView(inst))
	}
}

// GET /instances/{instanceID} — student-safe: source blocks only, no
// dependency or correctness data.
func GetInstanceHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "instanceID"))
		if id == "" {
			http.Error(w, "instanceID required", http.StatusBadRequest)
			return
		}
		inst, err := store.GetInstance(r.Context(), id)
		if err != nil {
			httpStatusFor(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(studentView(inst))
	}
}

// GET /instances/{instanceID}/answer — teacher-only: the canonical correct
// order for reference-solution display.
func GetInstanceAnswerHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "instanceID"))
		if id == "" {
			http.Error(w, "instanceID required", http.StatusBadRequest)
			return
		}
		inst, err := store.GetInstance(r.Context(), id)
		if err != nil {
			httpStatusFor(w, err)
			return
		}
		type answerBlock struct {
			HTML   string `json:"html"`
			Indent int    `json:"indent"`
		}
		out := make([]answerBlock, len(inst.Answer))
		for i, b := range inst.Answer {
			indent := b.Indent
			if indent < 0 {
				indent = 0
			}
			out[i] = answerBlock{HTML: b.HTML, Indent: indent}
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

// instanceView is what students see: enough to render the source panel and
// dropzone, nothing that reveals the solution order.
type instanceView struct {
	ID          string      `json:"id"`
	QuestionID  string      `json:"question_id"`
	Method      string      `json:"grading_method"`
	CheckIndent bool        `json:"indentation"`
	MaxIndent   int         `json:"max_indent"`
	Blocks      []blockView `json:"blocks"`
}

type blockView struct {
	ID            string `json:"id"`
	HTML          string `json:"html"`
	DistractorBin string `json:"distractor_bin,omitempty"`
}

func studentView(inst *question.Instance) instanceView {
	v := instanceView{
		ID:          inst.ID,
		QuestionID:  inst.QuestionID,
		Method:      inst.Policy.Method.String(),
		CheckIndent: inst.Policy.CheckIndent,
		MaxIndent:   inst.MaxIndent,
		Blocks:      make([]blockView, len(inst.Blocks)),
	}
	for i, b := range inst.Blocks {
		v.Blocks[i] = blockView{ID: b.ID, HTML: b.HTML, DistractorBin: b.DistractorBin}
	}
	return v
}

func httpStatusFor(w http.ResponseWriter, err error) {
	if errors.Is(err, question.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
