// Package httpapi serves health, metrics and read-only leaderboard endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hunterjsb/scrimbot/internal/store"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// LeaderboardSource is the store surface the API reads from
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, guildID string, minGames, limit int) ([]store.LeaderboardEntry, error)
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API
type Handler struct {
	source LeaderboardSource
	logger *zap.SugaredLogger
}

// New creates a handler over source
func New(source LeaderboardSource, logger *zap.Logger) *Handler {
	return &Handler{
		source: source,
		logger: logger.Sugar(),
	}
}

// Router builds the chi router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Get("/guilds/{guildID}/leaderboard", h.GetLeaderboard)
	})
	return r
}

// Health reports liveness and database reachability
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := h.source.Ping(r.Context()); err != nil {
		h.logger.Warnw("health check failed", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	h.jsonResponse(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

// GetLeaderboard returns the guild's win-rate leaderboard
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")

	minGames, err := intParam(r, "min_games", 1)
	if err != nil || minGames < 1 {
		h.errorResponse(w, http.StatusBadRequest, "min_games must be a positive integer")
		return
	}
	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil || limit < 1 {
		h.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	entries, err := h.source.Leaderboard(r.Context(), guildID, minGames, limit)
	if err != nil {
		h.logger.Errorw("leaderboard query failed", "guild", guildID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"guildId":  guildID,
		"minGames": minGames,
		"entries":  entries,
	})
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warnw("error encoding response", "error", err)
	}
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// Serve runs the HTTP server on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
