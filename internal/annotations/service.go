// Package annotations implements highlights, bookmarks, anchors, and the
// label registry over row-level storage. Per-lesson lists and the user-global
// aggregate are read-side queries; nothing here rewrites whole collections.
package annotations

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/services"
)

type Repo interface {
	InsertHighlight(ctx context.Context, h *models.Highlight) error
	DeleteHighlight(ctx context.Context, userID, id uuid.UUID) error
	ListHighlights(ctx context.Context, userID, lessonID uuid.UUID) ([]models.Highlight, error)

	InsertBookmark(ctx context.Context, b *models.Bookmark) error
	UpdateBookmark(ctx context.Context, b *models.Bookmark) error
	DeleteBookmark(ctx context.Context, userID, id uuid.UUID) error
	GetBookmark(ctx context.Context, userID, id uuid.UUID) (*models.Bookmark, error)
	ListBookmarksByLesson(ctx context.Context, userID, lessonID uuid.UUID) ([]models.Bookmark, error)
	ListBookmarksByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error)

	ListLabels(ctx context.Context, userID uuid.UUID) ([]string, error)
	AddLabels(ctx context.Context, userID uuid.UUID, labels []string) error
}

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Highlights

func (s *Service) CreateHighlight(ctx context.Context, h *models.Highlight) error {
	fieldErrors := make(map[string]string)
	if strings.TrimSpace(h.Text) == "" {
		fieldErrors["text"] = "Selection is empty"
	}
	if h.Category == "" {
		fieldErrors["category"] = "Category is required"
	}
	if len(fieldErrors) > 0 {
		return &services.ValidationError{Fields: fieldErrors}
	}

	return s.repo.InsertHighlight(ctx, h)
}

func (s *Service) DeleteHighlight(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteHighlight(ctx, userID, id)
}

func (s *Service) LessonHighlights(ctx context.Context, userID, lessonID uuid.UUID) ([]models.Highlight, error) {
	return s.repo.ListHighlights(ctx, userID, lessonID)
}

// Bookmarks

// BookmarkContext carries the structural ids a commit stamps onto new rows.
type BookmarkContext struct {
	UserID   uuid.UUID
	LessonID uuid.UUID
	ModuleID uuid.UUID
	CourseID *uuid.UUID
}

// Commit turns a draft into a durable bookmark. Insert by default; when the
// draft carries an edit id the matching row is replaced instead, so editing
// never produces a second row. Tags used on the draft are unioned into the
// label registry.
func (s *Service) Commit(ctx context.Context, bc BookmarkContext, draft models.BookmarkDraft) (*models.Bookmark, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, &services.ValidationError{Fields: map[string]string{"title": "Title is required"}}
	}

	tags := normalizeTags(draft.Tags)

	var b *models.Bookmark
	if draft.EditID != nil {
		existing, err := s.repo.GetBookmark(ctx, bc.UserID, *draft.EditID)
		if err != nil {
			return nil, err
		}
		existing.Title = title
		existing.TextSnippet = draft.TextSnippet
		existing.ScrollPosition = draft.ScrollPosition
		existing.Tags = tags
		existing.Color = draft.Color
		existing.Note = draft.Note
		if err := s.repo.UpdateBookmark(ctx, existing); err != nil {
			return nil, err
		}
		b = existing
	} else {
		b = &models.Bookmark{
			UserID:         bc.UserID,
			LessonID:       bc.LessonID,
			ModuleID:       bc.ModuleID,
			CourseID:       bc.CourseID,
			Title:          title,
			TextSnippet:    draft.TextSnippet,
			ScrollPosition: draft.ScrollPosition,
			Tags:           tags,
			Color:          draft.Color,
			Note:           draft.Note,
			Type:           "selection",
		}
		if err := s.repo.InsertBookmark(ctx, b); err != nil {
			return nil, err
		}
	}

	if len(tags) > 0 {
		if err := s.repo.AddLabels(ctx, bc.UserID, tags); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *Service) DeleteBookmark(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteBookmark(ctx, userID, id)
}

func (s *Service) GetBookmark(ctx context.Context, userID, id uuid.UUID) (*models.Bookmark, error) {
	return s.repo.GetBookmark(ctx, userID, id)
}

// LessonAnchors groups a lesson's bookmarks into anchors.
func (s *Service) LessonAnchors(ctx context.Context, userID, lessonID uuid.UUID) ([]models.Anchor, error) {
	bookmarks, err := s.repo.ListBookmarksByLesson(ctx, userID, lessonID)
	if err != nil {
		return nil, err
	}
	return GroupAnchors(bookmarks), nil
}

// Aggregate returns the user's filtered, sorted cross-lesson bookmark view.
func (s *Service) Aggregate(ctx context.Context, userID uuid.UUID, filter models.BookmarkFilter) ([]models.Bookmark, error) {
	bookmarks, err := s.repo.ListBookmarksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(bookmarks, filter), nil
}

// Labels

func (s *Service) Labels(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.repo.ListLabels(ctx, userID)
}

func (s *Service) RegisterLabel(ctx context.Context, userID uuid.UUID, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return &services.ValidationError{Fields: map[string]string{"label": "Label is required"}}
	}
	return s.repo.AddLabels(ctx, userID, []string{label})
}

// GroupAnchors collapses bookmarks sharing an identical snippet into one
// anchor positioned at the first member's scroll offset. Input order is
// creation order, so "first member" is the oldest.
func GroupAnchors(bookmarks []models.Bookmark) []models.Anchor {
	var anchors []models.Anchor
	index := make(map[string]int)

	for _, b := range bookmarks {
		if i, ok := index[b.TextSnippet]; ok {
			anchors[i].Members = append(anchors[i].Members, b)
			anchors[i].Count++
			continue
		}
		index[b.TextSnippet] = len(anchors)
		anchors = append(anchors, models.Anchor{
			TextSnippet:    b.TextSnippet,
			ScrollPosition: b.ScrollPosition,
			Count:          1,
			Members:        []models.Bookmark{b},
		})
	}
	return anchors
}

// ApplyFilter applies the aggregate filter: free text against title OR
// snippet OR any tag (case-insensitive), exact lesson title, inclusive date
// range. Set filters AND together; the sort runs once, after filtering.
func ApplyFilter(bookmarks []models.Bookmark, filter models.BookmarkFilter) []models.Bookmark {
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	matched := make([]models.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if query != "" && !matchesQuery(b, query) {
			continue
		}
		if filter.LessonTitle != "" && b.LessonTitle != filter.LessonTitle {
			continue
		}
		if filter.From != nil && b.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && b.CreatedAt.After(*filter.To) {
			continue
		}
		matched = append(matched, b)
	}

	switch filter.Sort {
	case models.BookmarkSortAlpha:
		sort.SliceStable(matched, func(i, j int) bool {
			return strings.ToLower(matched[i].Title) < strings.ToLower(matched[j].Title)
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
	}
	return matched
}

func matchesQuery(b models.Bookmark, query string) bool {
	if strings.Contains(strings.ToLower(b.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(b.TextSnippet), query) {
		return true
	}
	for _, tag := range b.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
