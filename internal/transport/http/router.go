package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"study-session-service/internal/app"
	"study-session-service/internal/domain"
)

// NewRouter mounts the websocket endpoint and the read-only REST routes.
func NewRouter(service *app.StudyService, ws *WSHandler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Get("/collections/{collectionID}", func(w http.ResponseWriter, r *http.Request) {
		c, err := service.Collection(r.Context(), chi.URLParam(r, "collectionID"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	})

	r.Get("/sessions/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
		session, err := service.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, session.Snapshot())
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound), errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNetwork):
		status = http.StatusBadGateway
	default:
		logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
