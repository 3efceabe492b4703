package models

import (
	"time"

	"github.com/google/uuid"
)

// Quiz pools. A lesson carries two independently-authored pools that count
// as a single pool for completion purposes.
const (
	QuizPoolPrimary    = "primary"
	QuizPoolContextual = "contextual"
)

type Course struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Module struct {
	ID          uuid.UUID  `json:"id"`
	CourseID    *uuid.UUID `json:"course_id,omitempty"`
	Title       string     `json:"title"`
	Position    int        `json:"position"`
	LessonCount int        `json:"lesson_count"`
}

type Lesson struct {
	ID       uuid.UUID  `json:"id"`
	ModuleID uuid.UUID  `json:"module_id"`
	CourseID *uuid.UUID `json:"course_id,omitempty"`
	Title    string     `json:"title"`
	Position int        `json:"position"`
	// NoteAutosave toggles the periodic note flush driven by the session clock.
	NoteAutosave bool      `json:"note_autosave"`
	CreatedAt    time.Time `json:"created_at"`
}

type Quiz struct {
	ID          uuid.UUID    `json:"id"`
	LessonID    uuid.UUID    `json:"lesson_id"`
	Pool        string       `json:"pool"`
	Prompt      string       `json:"prompt"`
	Explanation string       `json:"explanation"`
	Position    int          `json:"position"`
	Options     []QuizOption `json:"options"`
}

type QuizOption struct {
	ID        uuid.UUID `json:"id"`
	QuizID    uuid.UUID `json:"quiz_id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"is_correct"`
	Position  int       `json:"position"`
}

// LessonRef is the lightweight shape used for prev/next navigation.
type LessonRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// LessonNeighbors degrades gracefully: a missing neighbor is nil, and a lesson
// with no next neighbor reports the pathway as fulfilled instead of erroring.
type LessonNeighbors struct {
	Prev             *LessonRef `json:"prev,omitempty"`
	Next             *LessonRef `json:"next,omitempty"`
	PathwayFulfilled bool       `json:"pathway_fulfilled"`
}
