package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tuttifrutti/internal/prefs"
)

// CreateRoom creates a room and joins it as creator.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name"`
		Language        string `json:"language"`
		DurationSeconds int    `json:"durationSeconds"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Language == "" {
		req.Language, _ = h.prefs.Get(prefs.KeyLanguage)
	}

	room, err := h.session.CreateRoom(r.Context(), req.Name, req.Language,
		time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, room)
}

// JoinRoom joins an existing room by code.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	room, err := h.session.JoinRoom(r.Context(), code)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}

// LeaveRoom removes the local player from the current room.
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.session.LeaveRoom(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// StartGame starts a round in the current room.
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	if err := h.session.StartRound(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// StopGame ends the running round and moves the room to voting.
func (h *Handler) StopGame(w http.ResponseWriter, r *http.Request) {
	if err := h.session.StopRound(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SetAnswer records the local player's answer for one category.
func (h *Handler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		Text     string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil || req.Category == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "category is required"})
		return
	}
	if err := h.session.SetAnswer(r.Context(), req.Category, req.Text); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// CastVote records a live vote preview on one ballot answer.
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key     string `json:"key"`
		Approve bool   `json:"approve"`
	}
	if err := decodeBody(r, &req); err != nil || req.Key == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}
	h.session.CastVote(r.Context(), req.Key, req.Approve)
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SubmitVotes finalizes the local ballot for the open category.
func (h *Handler) SubmitVotes(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SubmitCategoryVotes(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ExtendVote adds time to the local vote countdown.
func (h *Handler) ExtendVote(w http.ResponseWriter, r *http.Request) {
	extended := h.session.ExtendVoteTime()
	respondJSON(w, http.StatusOK, map[string]bool{"extended": extended})
}

// NextRound returns a finished room to the lobby for another letter.
func (h *Handler) NextRound(w http.ResponseWriter, r *http.Request) {
	if err := h.session.NextRound(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ShuffleCategories reorders the lobby's category list.
func (h *Handler) ShuffleCategories(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ShuffleCategories(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ResetRoom wipes scores and history and returns the room to the lobby.
func (h *Handler) ResetRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ResetRoom(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteRoom closes the room for everyone.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteRoom(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// CurrentRoom returns the last observed snapshot of the joined room.
func (h *Handler) CurrentRoom(w http.ResponseWriter, r *http.Request) {
	room := h.session.CurrentRoom()
	if room == nil {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "not in a room"})
		return
	}
	respondJSON(w, http.StatusOK, room)
}

// Profile returns the local identity and stored preferences.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	lang, _ := h.prefs.Get(prefs.KeyLanguage)
	theme, _ := h.prefs.Get(prefs.KeyTheme)
	respondJSON(w, http.StatusOK, map[string]string{
		"uid":      h.session.UID(),
		"name":     h.session.Name(),
		"language": lang,
		"theme":    theme,
	})
}

// UpdateProfile stores display name and preferences. The name takes effect
// on the next join; it is not pushed into a joined room.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Language string `json:"language"`
		Theme    string `json:"theme"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		h.session.SetName(name)
		h.prefs.Set(prefs.KeyName, name)
	}
	if req.Language != "" {
		h.prefs.Set(prefs.KeyLanguage, req.Language)
	}
	if req.Theme != "" {
		h.prefs.Set(prefs.KeyTheme, req.Theme)
	}
	h.Profile(w, r)
}
