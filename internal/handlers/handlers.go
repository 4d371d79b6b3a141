// Package handlers is the local presentation bridge: a small HTTP surface,
// bound to loopback, that the device UI talks to. It translates UI actions
// into session calls and streams engine events back as datastar signals
// over SSE. It never talks to the document store directly.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tuttifrutti/internal/config"
	"tuttifrutti/internal/game"
	"tuttifrutti/internal/peer"
	"tuttifrutti/internal/prefs"
)

// Handler holds the bridge's dependencies.
type Handler struct {
	session *peer.Session
	prefs   *prefs.Store
	cfg     *config.Config
}

// New creates the bridge handler.
func New(session *peer.Session, p *prefs.Store, cfg *config.Config) *Handler {
	return &Handler{
		session: session,
		prefs:   p,
		cfg:     cfg,
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("bridge: writing response failed: %v", err)
	}
}

// respondError maps engine errors onto HTTP statuses. Unknown errors are
// logged server-side and reported generically.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
	case errors.Is(err, game.ErrAlreadyJoined):
		respondJSON(w, http.StatusConflict, map[string]string{"error": "already joined"})
	case errors.Is(err, game.ErrNoCategories):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "room has no categories"})
	default:
		log.Printf("bridge: request failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// decodeBody decodes a JSON request body into dst. An empty body is fine;
// dst keeps its zero values.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
