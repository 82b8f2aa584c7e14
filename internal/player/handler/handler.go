// Package handler wires the player read endpoints to the player service.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hoopwatch/internal/provider"
	dErrors "hoopwatch/pkg/domain-errors"
	"hoopwatch/pkg/platform/httputil"
	"hoopwatch/pkg/platform/sentinel"
)

// Service defines the player reads the handler delegates to.
type Service interface {
	GetIdentity(ctx context.Context, name string) (*provider.PlayerIdentity, error)
	GetStats(ctx context.Context, name string) (*provider.PlayerStats, error)
	GetHistory(ctx context.Context, name string, limit int) ([]provider.GameLogEntry, error)
	Trending(ctx context.Context) ([]provider.PlayerIdentity, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts player endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/players/trending", h.HandleTrending)
	r.Get("/players/{name}", h.HandleIdentity)
	r.Get("/players/{name}/stats", h.HandleStats)
	r.Get("/players/{name}/games", h.HandleGames)
}

// HandleTrending handles GET /api/players/trending requests.
func (h *Handler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.Trending(r.Context())
	if err != nil {
		httputil.WriteError(w, translateRead(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"players": players})
}

// HandleIdentity handles GET /api/players/{name} requests.
func (h *Handler) HandleIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := playerName(w, r)
	if !ok {
		return
	}

	identity, err := h.service.GetIdentity(ctx, name)
	if err != nil {
		httputil.WriteError(w, translateRead(err))
		return
	}
	if identity == nil {
		// Upstream degraded with nothing cached; an empty body would lie.
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "player data temporarily unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identity)
}

// HandleStats handles GET /api/players/{name}/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := playerName(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetStats(ctx, name)
	if err != nil {
		httputil.WriteError(w, translateRead(err))
		return
	}
	if stats == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "player data temporarily unavailable"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleGames handles GET /api/players/{name}/games?limit= requests.
func (h *Handler) HandleGames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := playerName(w, r)
	if !ok {
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer"))
			return
		}
		limit = parsed
	}
	if limit < 1 || limit > provider.MaxHistoryLimit {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 82"))
		return
	}

	games, err := h.service.GetHistory(ctx, name, limit)
	if err != nil {
		httputil.WriteError(w, translateRead(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"games": games})
}

func playerName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || strings.TrimSpace(name) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "player name is required"))
		return "", false
	}
	return name, true
}

// translateRead maps upstream read failures to the caller-facing taxonomy.
func translateRead(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "player not found")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(dErrors.CodeInternal, "failed to read player data", err)
}
