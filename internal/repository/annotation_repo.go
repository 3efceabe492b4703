package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyhall-backend/internal/models"
)

// AnnotationRepo stores highlights, bookmarks, and the user's label registry.
// Rows are keyed by globally-unique id; the per-lesson lists and the
// user-global aggregate are read-side queries, not stored collections.
type AnnotationRepo struct {
	pool *pgxpool.Pool
}

func NewAnnotationRepo(pool *pgxpool.Pool) *AnnotationRepo {
	return &AnnotationRepo{pool: pool}
}

// Highlights

func (r *AnnotationRepo) InsertHighlight(ctx context.Context, h *models.Highlight) error {
	h.ID = uuid.New()
	query := `INSERT INTO highlights (id, user_id, lesson_id, module_id, course_id, text, category, color, is_public, author_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		h.ID, h.UserID, h.LessonID, h.ModuleID, h.CourseID, h.Text, h.Category, h.Color, h.IsPublic, h.AuthorName,
	).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert highlight: %w", err)
	}
	return nil
}

func (r *AnnotationRepo) DeleteHighlight(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM highlights WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListHighlights returns the lesson's highlights newest first, matching the
// prepend-on-create presentation order.
func (r *AnnotationRepo) ListHighlights(ctx context.Context, userID, lessonID uuid.UUID) ([]models.Highlight, error) {
	query := `SELECT id, user_id, lesson_id, module_id, course_id, text, category, color, is_public, author_name, created_at
		FROM highlights WHERE user_id = $1 AND lesson_id = $2 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	defer rows.Close()

	var highlights []models.Highlight
	for rows.Next() {
		var h models.Highlight
		if err := rows.Scan(&h.ID, &h.UserID, &h.LessonID, &h.ModuleID, &h.CourseID,
			&h.Text, &h.Category, &h.Color, &h.IsPublic, &h.AuthorName, &h.CreatedAt); err != nil {
			return nil, err
		}
		highlights = append(highlights, h)
	}
	return highlights, nil
}

// Bookmarks

func (r *AnnotationRepo) InsertBookmark(ctx context.Context, b *models.Bookmark) error {
	b.ID = uuid.New()
	query := `INSERT INTO bookmarks (id, user_id, lesson_id, module_id, course_id, title, text_snippet, scroll_position, tags, color, note, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		b.ID, b.UserID, b.LessonID, b.ModuleID, b.CourseID, b.Title, b.TextSnippet,
		b.ScrollPosition, b.Tags, b.Color, b.Note, b.Type,
	).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// UpdateBookmark replaces the mutable fields of the row matching the id.
// CreatedAt is preserved so edits do not reorder chronological views.
func (r *AnnotationRepo) UpdateBookmark(ctx context.Context, b *models.Bookmark) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookmarks
		SET title = $1, text_snippet = $2, scroll_position = $3, tags = $4, color = $5, note = $6
		WHERE id = $7 AND user_id = $8
	`, b.Title, b.TextSnippet, b.ScrollPosition, b.Tags, b.Color, b.Note, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AnnotationRepo) DeleteBookmark(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM bookmarks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AnnotationRepo) GetBookmark(ctx context.Context, userID, id uuid.UUID) (*models.Bookmark, error) {
	b := &models.Bookmark{}
	query := `SELECT id, user_id, lesson_id, module_id, course_id, title, text_snippet, scroll_position, tags, color, note, type, created_at
		FROM bookmarks WHERE id = $1 AND user_id = $2`

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&b.ID, &b.UserID, &b.LessonID, &b.ModuleID, &b.CourseID, &b.Title, &b.TextSnippet,
		&b.ScrollPosition, &b.Tags, &b.Color, &b.Note, &b.Type, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return b, nil
}

// ListBookmarksByLesson returns the per-lesson list ordered oldest first so
// anchor grouping lands on the first member's scroll offset.
func (r *AnnotationRepo) ListBookmarksByLesson(ctx context.Context, userID, lessonID uuid.UUID) ([]models.Bookmark, error) {
	query := `SELECT id, user_id, lesson_id, module_id, course_id, title, text_snippet, scroll_position, tags, color, note, type, created_at
		FROM bookmarks WHERE user_id = $1 AND lesson_id = $2 ORDER BY created_at`

	return r.scanBookmarks(ctx, query, userID, lessonID)
}

// ListBookmarksByUser returns the cross-lesson aggregate with lesson titles
// joined in for filtering and display.
func (r *AnnotationRepo) ListBookmarksByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error) {
	query := `SELECT b.id, b.user_id, b.lesson_id, b.module_id, b.course_id, b.title, b.text_snippet,
			b.scroll_position, b.tags, b.color, b.note, b.type, b.created_at, l.title
		FROM bookmarks b
		JOIN lessons l ON l.id = b.lesson_id
		WHERE b.user_id = $1 ORDER BY b.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.LessonID, &b.ModuleID, &b.CourseID, &b.Title, &b.TextSnippet,
			&b.ScrollPosition, &b.Tags, &b.Color, &b.Note, &b.Type, &b.CreatedAt, &b.LessonTitle); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}

func (r *AnnotationRepo) scanBookmarks(ctx context.Context, query string, args ...interface{}) ([]models.Bookmark, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.LessonID, &b.ModuleID, &b.CourseID, &b.Title, &b.TextSnippet,
			&b.ScrollPosition, &b.Tags, &b.Color, &b.Note, &b.Type, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}

// Labels

func (r *AnnotationRepo) ListLabels(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT label FROM user_labels WHERE user_id = $1 ORDER BY label", userID)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// AddLabels unions the given tags into the registry; duplicates are dropped
// by the primary key.
func (r *AnnotationRepo) AddLabels(ctx context.Context, userID uuid.UUID, labels []string) error {
	for _, label := range labels {
		if label == "" {
			continue
		}
		_, err := r.pool.Exec(ctx, `
			INSERT INTO user_labels (user_id, label) VALUES ($1, $2)
			ON CONFLICT (user_id, label) DO NOTHING
		`, userID, label)
		if err != nil {
			return fmt.Errorf("add label %q: %w", label, err)
		}
	}
	return nil
}
