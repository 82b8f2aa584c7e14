// Package handler wires the watchlist endpoints to the watchlist service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"hoopwatch/internal/watchlist"
	dErrors "hoopwatch/pkg/domain-errors"
	"hoopwatch/pkg/platform/httputil"
	"hoopwatch/pkg/requestcontext"
)

// Service defines the watchlist operations the handler delegates to.
type Service interface {
	Add(ctx context.Context, ownerID, subjectKey string) (watchlist.Entry, error)
	Remove(ctx context.Context, ownerID, subjectKey string) error
	Contains(ctx context.Context, ownerID, subjectKey string) bool
	List(ctx context.Context, ownerID string) ([]watchlist.Entry, error)
}

// DetailLister builds the enriched view; satisfied by the orchestrator.
type DetailLister interface {
	Details(ctx context.Context, ownerID string) ([]watchlist.DetailedEntry, error)
}

type Handler struct {
	service Service
	details DetailLister
	logger  *slog.Logger
}

func New(service Service, details DetailLister, logger *slog.Logger) *Handler {
	return &Handler{service: service, details: details, logger: logger}
}

// Register mounts watchlist endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/watchlist", h.HandleAdd)
	r.Delete("/watchlist/{player}", h.HandleRemove)
	r.Get("/watchlist", h.HandleList)
	r.Get("/watchlist/check", h.HandleCheck)
	r.Get("/watchlist/details", h.HandleDetails)
}

type addRequest struct {
	Player string `json:"player"`
}

// HandleAdd handles POST /api/watchlist requests.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := requestcontext.UserID(ctx)

	var req addRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	player := strings.TrimSpace(req.Player)
	if player == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "player is required"))
		return
	}

	entry, err := h.service.Add(ctx, ownerID, player)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

// HandleRemove handles DELETE /api/watchlist/{player} requests.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := requestcontext.UserID(ctx)

	player, err := url.PathUnescape(chi.URLParam(r, "player"))
	if err != nil || strings.TrimSpace(player) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "player is required"))
		return
	}

	if err := h.service.Remove(ctx, ownerID, player); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /api/watchlist requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.service.List(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list watchlist",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// HandleCheck handles GET /api/watchlist/check?player= requests.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	player := strings.TrimSpace(r.URL.Query().Get("player"))
	if player == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "player query parameter is required"))
		return
	}

	tracked := h.service.Contains(ctx, requestcontext.UserID(ctx), player)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"tracked": tracked})
}

// HandleDetails handles GET /api/watchlist/details requests.
func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detailed, err := h.details.Details(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build watchlist details",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": detailed})
}
