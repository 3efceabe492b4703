package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyhall-backend/internal/annotations"
	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/models"
	"studyhall-backend/internal/session"
)

type AnnotationHandler struct {
	engine  *session.Engine
	service *annotations.Service
}

func NewAnnotationHandler(engine *session.Engine, service *annotations.Service) *AnnotationHandler {
	return &AnnotationHandler{engine: engine, service: service}
}

// Highlights

func (h *AnnotationHandler) CreateHighlight(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	var req struct {
		Text     string `json:"text"`
		Category string `json:"category"`
		Color    string `json:"color"`
		IsPublic bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	sc, err := h.engine.SessionContext(userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	highlight := &models.Highlight{
		UserID:     userID,
		LessonID:   id,
		ModuleID:   sc.ModuleID,
		CourseID:   sc.CourseID,
		Text:       req.Text,
		Category:   req.Category,
		Color:      req.Color,
		IsPublic:   req.IsPublic,
		AuthorName: sc.AuthorName,
	}
	// The durable write runs on the session loop so a pause can never land
	// between the check and the insert.
	err = h.engine.Gated(userID, id, func() error {
		return h.service.CreateHighlight(r.Context(), highlight)
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, highlight)
}

func (h *AnnotationHandler) ListHighlights(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	highlights, err := h.service.LessonHighlights(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"highlights": highlights})
}

func (h *AnnotationHandler) DeleteHighlight(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "highlightID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid highlight ID", r))
		return
	}

	if err := h.service.DeleteHighlight(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Bookmark draft lifecycle

func (h *AnnotationHandler) BeginDraft(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	var req struct {
		TextSnippet    string  `json:"text_snippet"`
		ScrollPosition float64 `json:"scroll_position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	draft, err := h.engine.BeginBookmarkDraft(userID, id, req.TextSnippet, req.ScrollPosition)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

func (h *AnnotationHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	var update session.DraftUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	draft, err := h.engine.UpdateBookmarkDraft(userID, id, update)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

func (h *AnnotationHandler) AttachDraftTag(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	var req struct {
		Tag string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tag == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "tag is required", r))
		return
	}

	draft, err := h.engine.AttachDraftTag(userID, id, req.Tag)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

// EditBookmark loads an existing bookmark into the draft slot so the next
// commit replaces it.
func (h *AnnotationHandler) EditBookmark(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}
	bookmarkID, err := uuid.Parse(chi.URLParam(r, "bookmarkID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid bookmark ID", r))
		return
	}

	bookmark, err := h.service.GetBookmark(r.Context(), userID, bookmarkID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	draft, err := h.engine.SetDraftFromBookmark(userID, id, bookmark)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

func (h *AnnotationHandler) CommitDraft(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	draft, err := h.engine.Draft(userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	sc, err := h.engine.SessionContext(userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Committing is a durable mutation, so it runs on the session loop where
	// pause transitions also run; a pause cannot slip in between.
	var bookmark *models.Bookmark
	err = h.engine.Gated(userID, id, func() error {
		var commitErr error
		bookmark, commitErr = h.service.Commit(r.Context(), annotations.BookmarkContext{
			UserID:   userID,
			LessonID: id,
			ModuleID: sc.ModuleID,
			CourseID: sc.CourseID,
		}, draft)
		return commitErr
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.engine.ClearDraft(userID, id)
	writeJSON(w, http.StatusCreated, bookmark)
}

func (h *AnnotationHandler) CancelDraft(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	if err := h.engine.ClearDraft(userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Bookmarks

func (h *AnnotationHandler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "bookmarkID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid bookmark ID", r))
		return
	}

	if err := h.service.DeleteBookmark(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Anchors returns one grouped marker per distinct snippet in the lesson.
func (h *AnnotationHandler) Anchors(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	anchors, err := h.service.LessonAnchors(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"anchors": anchors})
}

// Aggregate returns the user's bookmarks across all lessons, filtered and
// sorted by query params.
func (h *AnnotationHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	filter := models.BookmarkFilter{
		Query:       r.URL.Query().Get("q"),
		LessonTitle: r.URL.Query().Get("lesson"),
		Sort:        r.URL.Query().Get("sort"),
	}
	if from, err := parseDate(r.URL.Query().Get("from")); err == nil && from != nil {
		filter.From = from
	}
	if to, err := parseDateEnd(r.URL.Query().Get("to")); err == nil && to != nil {
		filter.To = to
	}

	bookmarks, err := h.service.Aggregate(r.Context(), userID, filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"bookmarks": bookmarks})
}

// Labels

func (h *AnnotationHandler) ListLabels(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	labels, err := h.service.Labels(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"labels": labels})
}

func (h *AnnotationHandler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.service.RegisterLabel(r.Context(), userID, req.Label); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseDateEnd is parseDate for upper bounds: a date-only value means the
// whole day, so it resolves to the last instant of that day rather than
// midnight.
func parseDateEnd(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	t = t.Add(24*time.Hour - time.Nanosecond)
	return &t, nil
}
