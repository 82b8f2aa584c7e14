// Package handler wires the session endpoints to the credential verifier.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hoopwatch/pkg/platform/httputil"
	"hoopwatch/pkg/requestcontext"
)

// Revoker invalidates a credential ahead of its natural expiry.
type Revoker interface {
	Revoke(ctx context.Context, rawCredential string) error
}

type Handler struct {
	revoker Revoker
	logger  *slog.Logger
}

func New(revoker Revoker, logger *slog.Logger) *Handler {
	return &Handler{revoker: revoker, logger: logger}
}

// Register mounts session endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/logout", h.HandleLogout)
}

// HandleLogout handles POST /api/auth/logout requests. The bearer credential
// on the request itself is what gets revoked.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.revoker.Revoke(ctx, r.Header.Get("Authorization")); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
