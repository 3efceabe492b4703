package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyhall-backend/internal/models"
)

type SyncLogRepo struct {
	pool *pgxpool.Pool
}

func NewSyncLogRepo(pool *pgxpool.Pool) *SyncLogRepo {
	return &SyncLogRepo{pool: pool}
}

func (r *SyncLogRepo) Append(ctx context.Context, e *models.SyncLogEntry) error {
	e.ID = uuid.New()
	query := `INSERT INTO sync_log (id, user_id, lesson_id, action, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING logged_at`

	err := r.pool.QueryRow(ctx, query, e.ID, e.UserID, e.LessonID, e.Action, e.Status).Scan(&e.LoggedAt)
	if err != nil {
		return fmt.Errorf("append sync log: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for (user, lesson), newest first.
func (r *SyncLogRepo) Recent(ctx context.Context, userID, lessonID uuid.UUID, limit int) ([]models.SyncLogEntry, error) {
	query := `SELECT id, user_id, lesson_id, action, status, logged_at
		FROM sync_log WHERE user_id = $1 AND lesson_id = $2
		ORDER BY logged_at DESC LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, lessonID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sync log: %w", err)
	}
	defer rows.Close()

	var entries []models.SyncLogEntry
	for rows.Next() {
		var e models.SyncLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.LessonID, &e.Action, &e.Status, &e.LoggedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
