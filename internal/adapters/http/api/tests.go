package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/assess/internal/app"
	"github.com/okian/assess/internal/domain/catalog"
)

// TestsDependencies defines the interface for catalog and scoring operations.
type TestsDependencies interface {
	Tests(ctx context.Context) ([]catalog.Summary, error)
	Definition(ctx context.Context, key string) (*catalog.Definition, error)
	Assess(ctx context.Context, sub service.Submission) (service.Assessment, error)
	AssessBatch(ctx context.Context, key string, subs []service.Submission) ([]service.BatchItem, error)
}

// TestsHandler handles /tests requests.
type TestsHandler struct {
	deps TestsDependencies
}

// NewTestsHandler creates a new tests handler.
func NewTestsHandler(deps TestsDependencies) *TestsHandler {
	return &TestsHandler{deps: deps}
}

// resultRequest is the body of POST /tests/{key}/results. A null answer
// marks a skipped question.
type resultRequest struct {
	Nickname string `json:"nickname"`
	Answers  []*int `json:"answers"`
}

type batchRequest struct {
	Submissions []resultRequest `json:"submissions"`
}

type batchResponse struct {
	TestKey string              `json:"testKey"`
	Items   []service.BatchItem `json:"items"`
}

type testsResponse struct {
	Tests []catalog.Summary `json:"tests"`
}

// HandleList handles GET /tests requests.
func (h *TestsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tests, err := h.deps.Tests(r.Context())
	if err != nil {
		writeFailure(w, Wrap("api.list_tests", err))
		return
	}
	writeJSON(w, http.StatusOK, testsResponse{Tests: tests})
}

// HandleGet handles GET /tests/{key} requests.
func (h *TestsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_test"
	key, err := pathKey(r, op)
	if err != nil {
		writeFailure(w, err)
		return
	}
	def, err := h.deps.Definition(r.Context(), key)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// HandleAssess handles POST /tests/{key}/results requests.
func (h *TestsHandler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	const op = "api.assess"
	key, err := pathKey(r, op)
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req resultRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	a, err := h.deps.Assess(r.Context(), service.Submission{
		TestKey:  key,
		Nickname: req.Nickname,
		Answers:  req.Answers,
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleBatch handles POST /tests/{key}/batch requests.
func (h *TestsHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.assess_batch"
	key, err := pathKey(r, op)
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req batchRequest
	if err := decodeBody(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	subs := make([]service.Submission, len(req.Submissions))
	for i, s := range req.Submissions {
		subs[i] = service.Submission{TestKey: key, Nickname: s.Nickname, Answers: s.Answers}
	}
	items, err := h.deps.AssessBatch(r.Context(), key, subs)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{TestKey: key, Items: items})
}

func pathKey(r *http.Request, op string) (string, error) {
	key := strings.TrimSpace(r.PathValue("key"))
	if key == "" {
		return "", WrapKind(op, ErrBadRequest, ErrMissingPath)
	}
	return key, nil
}
