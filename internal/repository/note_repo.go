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

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

func (r *NoteRepo) Get(ctx context.Context, userID, lessonID uuid.UUID) (*models.Note, error) {
	n := &models.Note{}
	query := `SELECT user_id, lesson_id, body, updated_at
		FROM notes WHERE user_id = $1 AND lesson_id = $2`

	err := r.pool.QueryRow(ctx, query, userID, lessonID).Scan(&n.UserID, &n.LessonID, &n.Body, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (r *NoteRepo) Save(ctx context.Context, userID, lessonID uuid.UUID, body string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notes (user_id, lesson_id, body, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, lesson_id)
		DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
	`, userID, lessonID, body)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}
