package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/parsonslab/orderblocks/internal/auth/middleware"
	"github.com/parsonslab/orderblocks/internal/question"
)

type submitReq struct {
	Blocks []question.RawBlock `json:"blocks"`
}

type submitResp struct {
	ID       string                 `json:"id"`
	Score    float64                `json:"score"`
	Weight   int                    `json:"weight"`
	Feedback string                 `json:"feedback,omitempty"`
	Deferred bool                   `json:"deferred,omitempty"`
	External *question.ExternalFile `json:"external,omitempty"`
}

// POST /instances/{instanceID}/submissions — grade one submission. Blank
// submissions are format errors (400); a malformed score is a server fault
// and must never silently default to zero.
func SubmitHandler(svc *question.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instanceID := strings.TrimSpace(chi.URLParam(r, "instanceID"))
		if instanceID == "" {
			http.Error(w, "instanceID required", http.StatusBadRequest)
			return
		}
		var req submitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		userID := authmw.SubjectFromContext(r.Context())

		sub, err := svc.GradeSubmission(r.Context(), instanceID, userID, req.Blocks)
		if err != nil {
			if question.IsFormatError(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			httpStatusFor(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(toSubmitResp(sub))
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "submissionID"))
		if id == "" {
			http.Error(w, "submissionID required", http.StatusBadRequest)
			return
		}
		sub, err := store.GetSubmission(r.Context(), id)
		if err != nil {
			httpStatusFor(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(toSubmitResp(sub))
	}
}

// GET /instances/{instanceID}/submissions?user=
func ListSubmissionsHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instanceID := strings.TrimSpace(chi.URLParam(r, "instanceID"))
		if instanceID == "" {
			http.Error(w, "instanceID required", http.StatusBadRequest)
			return
		}
		subs, err := store.ListSubmissions(r.Context(), instanceID, r.URL.Query().Get("user"))
		if err != nil {
			http.Error(w, "list submissions: "+err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]submitResp, len(subs))
		for i, s := range subs {
			out[i] = toSubmitResp(s)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}

func toSubmitResp(sub question.Submission) submitResp {
	resp := submitResp{
		ID:       sub.ID,
		Score:    sub.Result.Score,
		Weight:   sub.Result.Weight,
		Deferred: sub.Result.Deferred,
		External: sub.External,
	}
	if fb := sub.Result.Feedback; fb != nil {
		resp.Feedback = fb.Message()
	}
	return resp
}
