package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/repository"
	"studyhall-backend/internal/session"
)

type NoteHandler struct {
	engine *session.Engine
	notes  *repository.NoteRepo
}

func NewNoteHandler(engine *session.Engine, notes *repository.NoteRepo) *NoteHandler {
	return &NoteHandler{engine: engine, notes: notes}
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	note, err := h.notes.Get(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]string{"body": ""})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load note", r))
		return
	}

	writeJSON(w, http.StatusOK, note)
}

// Put buffers the note body on the live session. With flush set the save
// happens immediately instead of waiting for the autosave cadence.
func (h *NoteHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	var req struct {
		Body  string `json:"body"`
		Flush bool   `json:"flush"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.engine.UpdateNote(userID, id, req.Body, req.Flush); err != nil {
		// Without a live session the note persists directly.
		if errors.Is(err, session.ErrNoSession) {
			if err := h.notes.Save(r.Context(), userID, id, req.Body); err != nil {
				writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save note", r))
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
