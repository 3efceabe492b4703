// Package syncer implements best-effort reconciliation against the remote
// authority. Local persisted state is the source of truth; a sync confirms it
// is visible remotely and never rolls anything back.
package syncer

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyhall-backend/internal/models"
)

// DisplayLimit caps how many log entries the reconciliation view returns.
const DisplayLimit = 20

type Log interface {
	Append(ctx context.Context, e *models.SyncLogEntry) error
	Recent(ctx context.Context, userID, lessonID uuid.UUID, limit int) ([]models.SyncLogEntry, error)
}

type Syncer struct {
	ping    func(ctx context.Context) error
	syncLog Log
}

func New(client *redis.Client, syncLog Log) *Syncer {
	return &Syncer{
		ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		syncLog: syncLog,
	}
}

// NewWithPing injects the remote-authority check directly. Used in tests.
func NewWithPing(ping func(ctx context.Context) error, syncLog Log) *Syncer {
	return &Syncer{ping: ping, syncLog: syncLog}
}

// Force runs one reconciliation attempt and always appends exactly one log
// entry. The returned entry reports the outcome; Force itself never fails.
func (s *Syncer) Force(ctx context.Context, userID, lessonID uuid.UUID, action string) models.SyncLogEntry {
	status := models.SyncStatusSuccess

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.ping(pingCtx); err != nil {
		log.Printf("sync %s failed for user %s lesson %s: %v", action, userID, lessonID, err)
		status = models.SyncStatusFailure
	}

	entry := models.SyncLogEntry{
		UserID:   userID,
		LessonID: lessonID,
		Action:   action,
		Status:   status,
		LoggedAt: time.Now(),
	}
	if err := s.syncLog.Append(ctx, &entry); err != nil {
		// The log itself is diagnostic; losing an entry is not fatal.
		log.Printf("sync log append failed: %v", err)
	}
	return entry
}

// RecordFailure appends a FAILURE entry without pinging. The session engine
// uses it when a local persistence call fails.
func (s *Syncer) RecordFailure(ctx context.Context, userID, lessonID uuid.UUID, action string) {
	entry := models.SyncLogEntry{
		UserID:   userID,
		LessonID: lessonID,
		Action:   action,
		Status:   models.SyncStatusFailure,
		LoggedAt: time.Now(),
	}
	if err := s.syncLog.Append(ctx, &entry); err != nil {
		log.Printf("sync log append failed: %v", err)
	}
}

func (s *Syncer) Recent(ctx context.Context, userID, lessonID uuid.UUID) ([]models.SyncLogEntry, error) {
	return s.syncLog.Recent(ctx, userID, lessonID, DisplayLimit)
}
