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

type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Save upserts the single session-state row per (user, lesson). The row is
// replaced wholesale; a write carrying an older recorded_at than the stored
// row loses the race and becomes a no-op.
func (r *SnapshotRepo) Save(ctx context.Context, s models.SessionState) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_states (user_id, lesson_id, last_scroll_position, active_tool_tab, is_paused, device_class, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, lesson_id)
		DO UPDATE SET
			last_scroll_position = EXCLUDED.last_scroll_position,
			active_tool_tab = EXCLUDED.active_tool_tab,
			is_paused = EXCLUDED.is_paused,
			device_class = EXCLUDED.device_class,
			recorded_at = EXCLUDED.recorded_at
		WHERE session_states.recorded_at <= EXCLUDED.recorded_at
	`, s.UserID, s.LessonID, s.LastScrollPosition, s.ActiveToolTab, s.IsPaused, s.DeviceClass, s.RecordedAt)
	if err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func (r *SnapshotRepo) Get(ctx context.Context, userID, lessonID uuid.UUID) (*models.SessionState, error) {
	s := &models.SessionState{}
	query := `SELECT user_id, lesson_id, last_scroll_position, active_tool_tab, is_paused, device_class, recorded_at
		FROM session_states WHERE user_id = $1 AND lesson_id = $2`

	err := r.pool.QueryRow(ctx, query, userID, lessonID).Scan(
		&s.UserID, &s.LessonID, &s.LastScrollPosition, &s.ActiveToolTab, &s.IsPaused, &s.DeviceClass, &s.RecordedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session state: %w", err)
	}
	return s, nil
}
