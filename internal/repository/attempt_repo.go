package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyhall-backend/internal/models"
)

type AttemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Record inserts a quiz attempt. Attempts are write-once per
// (user, lesson, quiz): a second insert for the same quiz hits the primary
// key and is dropped. Returns whether the row was actually written.
func (r *AttemptRepo) Record(ctx context.Context, a models.QuizAttempt) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_attempts (user_id, lesson_id, quiz_id, selected_option_id, is_correct, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, lesson_id, quiz_id) DO NOTHING
	`, a.UserID, a.LessonID, a.QuizID, a.SelectedOptionID, a.IsCorrect, a.AnsweredAt)
	if err != nil {
		return false, fmt.Errorf("record attempt: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AttemptRepo) ListByLesson(ctx context.Context, userID, lessonID uuid.UUID) ([]models.QuizAttempt, error) {
	query := `SELECT user_id, lesson_id, quiz_id, selected_option_id, is_correct, answered_at
		FROM quiz_attempts WHERE user_id = $1 AND lesson_id = $2 ORDER BY answered_at`

	rows, err := r.pool.Query(ctx, query, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.QuizAttempt
	for rows.Next() {
		var a models.QuizAttempt
		if err := rows.Scan(&a.UserID, &a.LessonID, &a.QuizID, &a.SelectedOptionID, &a.IsCorrect, &a.AnsweredAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}
