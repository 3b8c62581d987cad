package api

import (
	"context"
	"net/http"

	service "github.com/okian/assess/internal/app"
	"github.com/okian/assess/internal/domain/share"
)

// ShareDependencies defines the interface for reopening shared results.
type ShareDependencies interface {
	Open(ctx context.Context, tokenOrLink string) (service.Assessment, error)
}

// ShareHandler handles /share requests.
type ShareHandler struct {
	deps ShareDependencies
}

// NewShareHandler creates a new share handler.
func NewShareHandler(deps ShareDependencies) *ShareHandler {
	return &ShareHandler{deps: deps}
}

// HandleOpen handles GET /share/{token} and GET /share?token= requests. The
// query form also accepts a full share link.
func (h *ShareHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.open_share"
	token := r.PathValue("token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeFailure(w, WrapKind(op, share.ErrUnreadableShare, share.ErrMalformedToken))
		return
	}
	a, err := h.deps.Open(r.Context(), token)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
