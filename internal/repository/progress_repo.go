package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyhall-backend/internal/models"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

// Get returns the progress row for (user, lesson), or a zero-value row when
// the learner has never visited the lesson.
func (r *ProgressRepo) Get(ctx context.Context, userID, lessonID uuid.UUID) (models.LessonProgress, error) {
	p := models.LessonProgress{UserID: userID, LessonID: lessonID}
	query := `SELECT elapsed_seconds, completed, completed_at
		FROM lesson_progress WHERE user_id = $1 AND lesson_id = $2`

	err := r.pool.QueryRow(ctx, query, userID, lessonID).Scan(&p.ElapsedSeconds, &p.Completed, &p.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("get lesson progress: %w", err)
	}
	return p, nil
}

// SaveElapsed upserts the elapsed counter. GREATEST keeps the counter
// monotonic even if a stale flush lands after a fresher one.
func (r *ProgressRepo) SaveElapsed(ctx context.Context, userID, lessonID uuid.UUID, seconds int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lesson_progress (user_id, lesson_id, elapsed_seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, lesson_id)
		DO UPDATE SET elapsed_seconds = GREATEST(lesson_progress.elapsed_seconds, EXCLUDED.elapsed_seconds)
	`, userID, lessonID, seconds)
	if err != nil {
		return fmt.Errorf("save elapsed: %w", err)
	}
	return nil
}

// MarkCompleted flags the lesson complete and bumps the module-level counter.
// Completing an already-complete lesson is a no-op.
func (r *ProgressRepo) MarkCompleted(ctx context.Context, userID, lessonID, moduleID uuid.UUID, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO lesson_progress (user_id, lesson_id, completed, completed_at)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (user_id, lesson_id)
		DO UPDATE SET completed = TRUE, completed_at = COALESCE(lesson_progress.completed_at, EXCLUDED.completed_at)
		WHERE lesson_progress.completed = FALSE
	`, userID, lessonID, at)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	if tag.RowsAffected() > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO module_progress (user_id, module_id, completed_lessons)
			VALUES ($1, $2, 1)
			ON CONFLICT (user_id, module_id)
			DO UPDATE SET completed_lessons = module_progress.completed_lessons + 1
		`, userID, moduleID)
		if err != nil {
			return fmt.Errorf("bump module progress: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *ProgressRepo) ModuleCompletedLessons(ctx context.Context, userID, moduleID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT completed_lessons FROM module_progress WHERE user_id = $1 AND module_id = $2",
		userID, moduleID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("module progress: %w", err)
	}
	return count, nil
}
