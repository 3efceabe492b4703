package annotations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/services"
)

// memRepo is an in-memory Repo for exercising the service without Postgres.
type memRepo struct {
	highlights []models.Highlight
	bookmarks  []models.Bookmark
	labels     map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{labels: make(map[string]bool)}
}

func (m *memRepo) InsertHighlight(_ context.Context, h *models.Highlight) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	m.highlights = append([]models.Highlight{*h}, m.highlights...)
	return nil
}

func (m *memRepo) DeleteHighlight(_ context.Context, _, id uuid.UUID) error {
	for i, h := range m.highlights {
		if h.ID == id {
			m.highlights = append(m.highlights[:i], m.highlights[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memRepo) ListHighlights(_ context.Context, _, lessonID uuid.UUID) ([]models.Highlight, error) {
	var out []models.Highlight
	for _, h := range m.highlights {
		if h.LessonID == lessonID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memRepo) InsertBookmark(_ context.Context, b *models.Bookmark) error {
	b.ID = uuid.New()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	m.bookmarks = append(m.bookmarks, *b)
	return nil
}

func (m *memRepo) UpdateBookmark(_ context.Context, b *models.Bookmark) error {
	for i, existing := range m.bookmarks {
		if existing.ID == b.ID {
			created := existing.CreatedAt
			m.bookmarks[i] = *b
			m.bookmarks[i].CreatedAt = created
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memRepo) DeleteBookmark(_ context.Context, _, id uuid.UUID) error {
	for i, b := range m.bookmarks {
		if b.ID == id {
			m.bookmarks = append(m.bookmarks[:i], m.bookmarks[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memRepo) GetBookmark(_ context.Context, _, id uuid.UUID) (*models.Bookmark, error) {
	for _, b := range m.bookmarks {
		if b.ID == id {
			found := b
			return &found, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *memRepo) ListBookmarksByLesson(_ context.Context, _, lessonID uuid.UUID) ([]models.Bookmark, error) {
	var out []models.Bookmark
	for _, b := range m.bookmarks {
		if b.LessonID == lessonID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memRepo) ListBookmarksByUser(_ context.Context, _ uuid.UUID) ([]models.Bookmark, error) {
	return append([]models.Bookmark(nil), m.bookmarks...), nil
}

func (m *memRepo) ListLabels(_ context.Context, _ uuid.UUID) ([]string, error) {
	var out []string
	for l := range m.labels {
		out = append(out, l)
	}
	return out, nil
}

func (m *memRepo) AddLabels(_ context.Context, _ uuid.UUID, labels []string) error {
	for _, l := range labels {
		if l != "" {
			m.labels[l] = true
		}
	}
	return nil
}

func testContext() BookmarkContext {
	return BookmarkContext{
		UserID:   uuid.New(),
		LessonID: uuid.New(),
		ModuleID: uuid.New(),
	}
}

func TestCommit_EmptyTitleRejected(t *testing.T) {
	svc := NewService(newMemRepo())

	_, err := svc.Commit(context.Background(), testContext(), models.BookmarkDraft{
		Title:       "   ",
		TextSnippet: "some text",
	})

	var vErr *services.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.Fields["title"]; !ok {
		t.Error("expected a title field error")
	}
}

func TestCommit_EditReplacesInsteadOfInserting(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	bc := testContext()

	created, err := svc.Commit(context.Background(), bc, models.BookmarkDraft{
		Title:       "Ref A",
		TextSnippet: "passage",
		Tags:        []string{"Exam"},
	})
	if err != nil {
		t.Fatalf("initial commit: %v", err)
	}

	id := created.ID
	updated, err := svc.Commit(context.Background(), bc, models.BookmarkDraft{
		Title:       "Ref A",
		TextSnippet: "passage",
		Tags:        []string{"Exam", "Revise"},
		EditID:      &id,
	})
	if err != nil {
		t.Fatalf("edit commit: %v", err)
	}

	if len(repo.bookmarks) != 1 {
		t.Fatalf("expected exactly one bookmark row, got %d", len(repo.bookmarks))
	}
	if updated.ID != id {
		t.Error("edit produced a new id")
	}
	if len(updated.Tags) != 2 {
		t.Fatalf("expected tags {Exam, Revise}, got %v", updated.Tags)
	}
	if !repo.labels["Exam"] || !repo.labels["Revise"] {
		t.Error("tags were not unioned into the label registry")
	}
}

func TestGroupAnchors(t *testing.T) {
	lessonID := uuid.New()
	shared := "the shared passage"
	b1 := models.Bookmark{ID: uuid.New(), LessonID: lessonID, TextSnippet: shared, ScrollPosition: 120}
	b2 := models.Bookmark{ID: uuid.New(), LessonID: lessonID, TextSnippet: shared, ScrollPosition: 450}
	b3 := models.Bookmark{ID: uuid.New(), LessonID: lessonID, TextSnippet: "another", ScrollPosition: 900}

	anchors := GroupAnchors([]models.Bookmark{b1, b2, b3})
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	if anchors[0].Count != 2 {
		t.Errorf("expected shared anchor count 2, got %d", anchors[0].Count)
	}
	// Positioned at the first member's offset, not the second's.
	if anchors[0].ScrollPosition != 120 {
		t.Errorf("expected anchor at 120, got %v", anchors[0].ScrollPosition)
	}

	// Deleting one member shrinks the anchor; deleting both removes it.
	anchors = GroupAnchors([]models.Bookmark{b1, b3})
	if anchors[0].Count != 1 {
		t.Errorf("expected count 1 after delete, got %d", anchors[0].Count)
	}
	anchors = GroupAnchors([]models.Bookmark{b3})
	if len(anchors) != 1 || anchors[0].TextSnippet != "another" {
		t.Errorf("expected the shared anchor to disappear, got %v", anchors)
	}
}

func TestApplyFilter_DateRangeInclusiveRegardlessOfSort(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 3, d, 12, 0, 0, 0, time.UTC)
	}
	bookmarks := []models.Bookmark{
		{ID: uuid.New(), Title: "c", CreatedAt: day(1)},
		{ID: uuid.New(), Title: "a", CreatedAt: day(5)},
		{ID: uuid.New(), Title: "b", CreatedAt: day(10)},
		{ID: uuid.New(), Title: "d", CreatedAt: day(20)},
	}

	from, to := day(5), day(10)
	for _, sortMode := range []string{models.BookmarkSortAlpha, models.BookmarkSortRecent} {
		got := ApplyFilter(bookmarks, models.BookmarkFilter{From: &from, To: &to, Sort: sortMode})
		if len(got) != 2 {
			t.Fatalf("sort %s: expected 2 results, got %d", sortMode, len(got))
		}
		for _, b := range got {
			if b.CreatedAt.Before(from) || b.CreatedAt.After(to) {
				t.Errorf("sort %s: %s outside [from,to]", sortMode, b.CreatedAt)
			}
		}
	}
}

func TestApplyFilter_QueryMatchesTitleSnippetOrTag(t *testing.T) {
	bookmarks := []models.Bookmark{
		{ID: uuid.New(), Title: "Thermodynamics recap"},
		{ID: uuid.New(), Title: "x", TextSnippet: "entropy always increases"},
		{ID: uuid.New(), Title: "y", Tags: []string{"Entropy"}},
		{ID: uuid.New(), Title: "unrelated"},
	}

	got := ApplyFilter(bookmarks, models.BookmarkFilter{Query: "ENTROPY"})
	if len(got) != 2 {
		t.Fatalf("expected snippet and tag matches, got %d", len(got))
	}
}

func TestApplyFilter_FiltersANDTogether(t *testing.T) {
	day5 := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	bookmarks := []models.Bookmark{
		{ID: uuid.New(), Title: "match", LessonTitle: "Lesson One", CreatedAt: day5},
		{ID: uuid.New(), Title: "match", LessonTitle: "Lesson Two", CreatedAt: day5},
	}

	got := ApplyFilter(bookmarks, models.BookmarkFilter{Query: "match", LessonTitle: "Lesson One"})
	if len(got) != 1 || got[0].LessonTitle != "Lesson One" {
		t.Fatalf("expected only the Lesson One bookmark, got %v", got)
	}
}

func TestApplyFilter_AlphaSortIgnoresCase(t *testing.T) {
	bookmarks := []models.Bookmark{
		{ID: uuid.New(), Title: "banana"},
		{ID: uuid.New(), Title: "Apple"},
	}

	got := ApplyFilter(bookmarks, models.BookmarkFilter{Sort: models.BookmarkSortAlpha})
	if got[0].Title != "Apple" {
		t.Errorf("expected Apple first, got %s", got[0].Title)
	}
}

func TestCreateHighlight_Validation(t *testing.T) {
	svc := NewService(newMemRepo())

	err := svc.CreateHighlight(context.Background(), &models.Highlight{Text: "  ", Category: ""})
	var vErr *services.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(vErr.Fields) != 2 {
		t.Errorf("expected text and category errors, got %v", vErr.Fields)
	}
}

func TestRegisterLabel(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	userID := uuid.New()

	if err := svc.RegisterLabel(context.Background(), userID, "  Midterm  "); err != nil {
		t.Fatalf("register label: %v", err)
	}
	if !repo.labels["Midterm"] {
		t.Error("label was not trimmed and registered")
	}

	if err := svc.RegisterLabel(context.Background(), userID, ""); err == nil {
		t.Error("expected empty label to be rejected")
	}
}
