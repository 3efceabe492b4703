package models

import (
	"time"

	"github.com/google/uuid"
)

// Highlight is immutable except delete. IDs are globally unique so the
// cross-lesson aggregate never collides.
type Highlight struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	LessonID   uuid.UUID  `json:"lesson_id"`
	ModuleID   uuid.UUID  `json:"module_id"`
	CourseID   *uuid.UUID `json:"course_id,omitempty"`
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Color      string     `json:"color"`
	IsPublic   bool       `json:"is_public"`
	AuthorName string     `json:"author_name"`
	CreatedAt  time.Time  `json:"created_at"`
}

type Bookmark struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	LessonID       uuid.UUID  `json:"lesson_id"`
	ModuleID       uuid.UUID  `json:"module_id"`
	CourseID       *uuid.UUID `json:"course_id,omitempty"`
	Title          string     `json:"title"`
	TextSnippet    string     `json:"text_snippet"`
	ScrollPosition float64    `json:"scroll_position"`
	Tags           []string   `json:"tags"`
	Color          string     `json:"color"`
	Note           *string    `json:"note,omitempty"`
	Type           string     `json:"type"`
	CreatedAt      time.Time  `json:"created_at"`

	// LessonTitle is populated on aggregate reads for filtering and display;
	// it is not a stored column of the bookmark row.
	LessonTitle string `json:"lesson_title,omitempty"`
}

// BookmarkDraft is the in-progress bookmark held by the live session between
// the selection step and commit. EditID is set when the draft replaces an
// existing bookmark instead of inserting a new one.
type BookmarkDraft struct {
	Title          string     `json:"title"`
	TextSnippet    string     `json:"text_snippet"`
	ScrollPosition float64    `json:"scroll_position"`
	Tags           []string   `json:"tags"`
	Color          string     `json:"color"`
	Note           *string    `json:"note,omitempty"`
	EditID         *uuid.UUID `json:"edit_id,omitempty"`
}

// Anchor is one visual marker for every bookmark in a lesson that shares the
// same snippet, positioned at the first member's scroll offset.
type Anchor struct {
	TextSnippet    string     `json:"text_snippet"`
	ScrollPosition float64    `json:"scroll_position"`
	Count          int        `json:"count"`
	Members        []Bookmark `json:"members"`
}

// BookmarkFilter describes one query over the user-global aggregate. All set
// fields AND together; the sort applies once, after filtering.
type BookmarkFilter struct {
	Query       string     `json:"query"`
	LessonTitle string     `json:"lesson_title"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	Sort        string     `json:"sort"`
}

const (
	BookmarkSortAlpha  = "alpha"
	BookmarkSortRecent = "recent"
)
