package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
)

type memLog struct {
	entries []models.SyncLogEntry
}

func (m *memLog) Append(_ context.Context, e *models.SyncLogEntry) error {
	e.ID = uuid.New()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memLog) Recent(_ context.Context, _, _ uuid.UUID, limit int) ([]models.SyncLogEntry, error) {
	out := make([]models.SyncLogEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func TestForce_AppendsExactlyOneEntry(t *testing.T) {
	syncLog := &memLog{}
	userID, lessonID := uuid.New(), uuid.New()

	tests := []struct {
		name       string
		pingErr    error
		wantStatus string
	}{
		{"success", nil, models.SyncStatusSuccess},
		{"failure", errors.New("connection refused"), models.SyncStatusFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := len(syncLog.entries)
			s := NewWithPing(func(ctx context.Context) error { return tc.pingErr }, syncLog)

			entry := s.Force(context.Background(), userID, lessonID, "resume")

			if entry.Status != tc.wantStatus {
				t.Errorf("Expected status %s, got %s", tc.wantStatus, entry.Status)
			}
			if len(syncLog.entries) != before+1 {
				t.Errorf("Expected exactly one new entry, got %d", len(syncLog.entries)-before)
			}
		})
	}
}

func TestRecent_NewestFirstAndCapped(t *testing.T) {
	syncLog := &memLog{}
	userID, lessonID := uuid.New(), uuid.New()
	s := NewWithPing(func(ctx context.Context) error { return nil }, syncLog)

	for i := 0; i < DisplayLimit+5; i++ {
		s.Force(context.Background(), userID, lessonID, "manual")
	}

	entries, err := s.Recent(context.Background(), userID, lessonID)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != DisplayLimit {
		t.Fatalf("Expected %d entries, got %d", DisplayLimit, len(entries))
	}
	// Newest first: the last appended entry leads.
	if entries[0].ID != syncLog.entries[len(syncLog.entries)-1].ID {
		t.Error("Expected newest entry first")
	}
}

func TestRecordFailure_DoesNotPing(t *testing.T) {
	syncLog := &memLog{}
	pinged := false
	s := NewWithPing(func(ctx context.Context) error { pinged = true; return nil }, syncLog)

	s.RecordFailure(context.Background(), uuid.New(), uuid.New(), "flush-elapsed")

	if pinged {
		t.Error("RecordFailure must not contact the remote authority")
	}
	if len(syncLog.entries) != 1 || syncLog.entries[0].Status != models.SyncStatusFailure {
		t.Fatalf("Expected one FAILURE entry, got %+v", syncLog.entries)
	}
}
