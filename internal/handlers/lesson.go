package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/services"
)

type LessonHandler struct {
	catalog *services.Catalog
}

func NewLessonHandler(catalog *services.Catalog) *LessonHandler {
	return &LessonHandler{catalog: catalog}
}

func (h *LessonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	lesson, err := h.catalog.Lesson(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lesson)
}

// quizView strips the correct answers and explanations; those only come back
// through answer submission.
type quizView struct {
	ID       uuid.UUID        `json:"id"`
	Pool     string           `json:"pool"`
	Prompt   string           `json:"prompt"`
	Position int              `json:"position"`
	Options  []quizOptionView `json:"options"`
}

type quizOptionView struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Position int       `json:"position"`
}

func (h *LessonHandler) Quizzes(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	quizzes, err := h.catalog.Quizzes(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	views := make([]quizView, 0, len(quizzes))
	for _, q := range quizzes {
		view := quizView{ID: q.ID, Pool: q.Pool, Prompt: q.Prompt, Position: q.Position}
		for _, opt := range q.Options {
			view.Options = append(view.Options, quizOptionView{ID: opt.ID, Text: opt.Text, Position: opt.Position})
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": views})
}

// Neighbors returns prev/next navigation for the lesson. The last lesson of a
// module reports the pathway as fulfilled instead of a next pointer.
func (h *LessonHandler) Neighbors(w http.ResponseWriter, r *http.Request) {
	id, ok := lessonID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return
	}

	neighbors, err := h.catalog.Neighbors(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, neighbors)
}

func (h *LessonHandler) Module(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "moduleID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid module ID", r))
		return
	}

	module, err := h.catalog.Module(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, module)
}

// ModuleProgress reports how far the learner is through a module.
func (h *LessonHandler) ModuleProgress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "moduleID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid module ID", r))
		return
	}

	module, err := h.catalog.Module(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	completed, err := h.catalog.ModuleCompletedLessons(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"module_id":         module.ID,
		"lesson_count":      module.LessonCount,
		"completed_lessons": completed,
		"fulfilled":         module.LessonCount > 0 && completed >= module.LessonCount,
	})
}

func (h *LessonHandler) Course(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	course, err := h.catalog.Course(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, course)
}
