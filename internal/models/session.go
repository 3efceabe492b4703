package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionState is the single "where was I" record per (user, lesson). Writes
// replace the row wholesale; RecordedAt arbitrates concurrent writers
// (last-write-wins, an older write never supersedes a newer one).
type SessionState struct {
	UserID             uuid.UUID `json:"user_id"`
	LessonID           uuid.UUID `json:"lesson_id"`
	LastScrollPosition float64   `json:"last_scroll_position"`
	ActiveToolTab      string    `json:"active_tool_tab"`
	IsPaused           bool      `json:"is_paused"`
	DeviceClass        string    `json:"device_class"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// LessonProgress holds the monotonic elapsed counter and the completion flag
// for one (user, lesson).
type LessonProgress struct {
	UserID         uuid.UUID  `json:"user_id"`
	LessonID       uuid.UUID  `json:"lesson_id"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// QuizAttempt is write-once per (user, lesson, quiz). Correctness is captured
// at answer time so later edits to the quiz cannot rewrite history.
type QuizAttempt struct {
	UserID           uuid.UUID `json:"user_id"`
	LessonID         uuid.UUID `json:"lesson_id"`
	QuizID           uuid.UUID `json:"quiz_id"`
	SelectedOptionID uuid.UUID `json:"selected_option_id"`
	IsCorrect        bool      `json:"is_correct"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// ScoreSnapshot is the running (correct, answered, total) view consumed by
// summary dashboards.
type ScoreSnapshot struct {
	Correct   int  `json:"correct"`
	Answered  int  `json:"answered"`
	Total     int  `json:"total"`
	Completed bool `json:"completed"`
}

const (
	SyncStatusSuccess = "SUCCESS"
	SyncStatusFailure = "FAILURE"
)

// SyncLogEntry is an append-only diagnostic record of one reconciliation
// attempt. The log view is display-capped; rows are never rewritten.
type SyncLogEntry struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	LessonID uuid.UUID `json:"lesson_id"`
	Action   string    `json:"action"`
	Status   string    `json:"status"`
	LoggedAt time.Time `json:"logged_at"`
}

// Note is the free-form per-lesson reflection round-tripped via get/save.
type Note struct {
	UserID    uuid.UUID `json:"user_id"`
	LessonID  uuid.UUID `json:"lesson_id"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
