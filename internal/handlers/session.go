package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/session"
	"studyhall-backend/internal/syncer"
)

type SessionHandler struct {
	engine *session.Engine
	sync   *syncer.Syncer
}

func NewSessionHandler(engine *session.Engine, sync *syncer.Syncer) *SessionHandler {
	return &SessionHandler{engine: engine, sync: sync}
}

func lessonID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "lessonID"))
	return id, err == nil
}

// Start opens a live session for the lesson, restoring prior progress and the
// last surface snapshot.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	var req struct {
		DeviceClass string `json:"device_class"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.DeviceClass == "" {
		req.DeviceClass = "desktop"
	}

	result, err := h.engine.Start(r.Context(), userID, id, req.DeviceClass)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	if err := h.engine.End(userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Session ended"})
}

func (h *SessionHandler) Pause(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	if err := h.engine.Pause(userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.writeState(w, r, userID, id)
}

func (h *SessionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	if err := h.engine.Resume(userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.writeState(w, r, userID, id)
}

// Connectivity receives the client's reported link state. With auto-pause
// enabled on the account, offline pauses and online resumes.
func (h *SessionHandler) Connectivity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	var req struct {
		Online *bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Online == nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "online is required", r))
		return
	}

	if err := h.engine.Connectivity(userID, id, *req.Online); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.writeState(w, r, userID, id)
}

// Surface records the scroll position and active tool tab for the next
// snapshot.
func (h *SessionHandler) Surface(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	var req struct {
		ScrollPosition float64 `json:"scroll_position"`
		ActiveToolTab  string  `json:"active_tool_tab"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.engine.UpdateSurface(userID, id, req.ScrollPosition, req.ActiveToolTab); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Score(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	score, err := h.engine.Score(userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, score)
}

func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}
	quizID, err := uuid.Parse(chi.URLParam(r, "quizID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	var req struct {
		OptionID string `json:"option_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	optionID, err := uuid.Parse(req.OptionID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid option_id", r))
		return
	}

	result, err := h.engine.Submit(userID, id, quizID, optionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ForceSync runs a manual reconciliation and returns the log entry it
// produced.
func (h *SessionHandler) ForceSync(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	entry := h.sync.Force(r.Context(), userID, id, "manual")
	writeJSON(w, http.StatusOK, entry)
}

// SyncLog returns the most recent reconciliation entries, newest first.
func (h *SessionHandler) SyncLog(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	entries, err := h.sync.Recent(r.Context(), userID, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load sync log", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *SessionHandler) writeState(w http.ResponseWriter, r *http.Request, userID, lessonID uuid.UUID) {
	state, err := h.engine.State(userID, lessonID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": state})
}
