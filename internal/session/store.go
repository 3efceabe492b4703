package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/repository"
)

// Store is the durable state the engine reads and writes for one
// (user, lesson). Production wiring backs it with the pgx repositories;
// tests inject an in-memory fake.
type Store interface {
	Progress(ctx context.Context, userID, lessonID uuid.UUID) (models.LessonProgress, error)
	SaveElapsed(ctx context.Context, userID, lessonID uuid.UUID, seconds int) error
	MarkCompleted(ctx context.Context, userID, lessonID, moduleID uuid.UUID, at time.Time) error
	SaveSnapshot(ctx context.Context, s models.SessionState) error
	Snapshot(ctx context.Context, userID, lessonID uuid.UUID) (*models.SessionState, error)
	RecordAttempt(ctx context.Context, a models.QuizAttempt) (bool, error)
	Attempts(ctx context.Context, userID, lessonID uuid.UUID) ([]models.QuizAttempt, error)
	SaveNote(ctx context.Context, userID, lessonID uuid.UUID, body string) error
	Note(ctx context.Context, userID, lessonID uuid.UUID) (*models.Note, error)
}

// Catalog resolves the read-only inputs: lesson definition, quiz pools, and
// the identity of the learner.
type Catalog interface {
	Lesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	Quizzes(ctx context.Context, lessonID uuid.UUID) ([]models.Quiz, error)
	Module(ctx context.Context, id uuid.UUID) (*models.Module, error)
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
	ModuleCompletedLessons(ctx context.Context, userID, moduleID uuid.UUID) (int, error)
}

// Reconciler is the sync subsystem as the engine sees it.
type Reconciler interface {
	Force(ctx context.Context, userID, lessonID uuid.UUID, action string) models.SyncLogEntry
	RecordFailure(ctx context.Context, userID, lessonID uuid.UUID, action string)
}

// Notifier pushes notices to the learner's live connections.
type Notifier interface {
	Publish(userID uuid.UUID, n models.Notice)
}

// pgStore adapts the repositories to the Store interface.
type pgStore struct {
	progress  *repository.ProgressRepo
	snapshots *repository.SnapshotRepo
	attempts  *repository.AttemptRepo
	notes     *repository.NoteRepo
}

func NewStore(progress *repository.ProgressRepo, snapshots *repository.SnapshotRepo, attempts *repository.AttemptRepo, notes *repository.NoteRepo) Store {
	return &pgStore{progress: progress, snapshots: snapshots, attempts: attempts, notes: notes}
}

func (s *pgStore) Progress(ctx context.Context, userID, lessonID uuid.UUID) (models.LessonProgress, error) {
	return s.progress.Get(ctx, userID, lessonID)
}

func (s *pgStore) SaveElapsed(ctx context.Context, userID, lessonID uuid.UUID, seconds int) error {
	return s.progress.SaveElapsed(ctx, userID, lessonID, seconds)
}

func (s *pgStore) MarkCompleted(ctx context.Context, userID, lessonID, moduleID uuid.UUID, at time.Time) error {
	return s.progress.MarkCompleted(ctx, userID, lessonID, moduleID, at)
}

func (s *pgStore) SaveSnapshot(ctx context.Context, state models.SessionState) error {
	return s.snapshots.Save(ctx, state)
}

func (s *pgStore) Snapshot(ctx context.Context, userID, lessonID uuid.UUID) (*models.SessionState, error) {
	return s.snapshots.Get(ctx, userID, lessonID)
}

func (s *pgStore) RecordAttempt(ctx context.Context, a models.QuizAttempt) (bool, error) {
	return s.attempts.Record(ctx, a)
}

func (s *pgStore) Attempts(ctx context.Context, userID, lessonID uuid.UUID) ([]models.QuizAttempt, error) {
	return s.attempts.ListByLesson(ctx, userID, lessonID)
}

func (s *pgStore) SaveNote(ctx context.Context, userID, lessonID uuid.UUID, body string) error {
	return s.notes.Save(ctx, userID, lessonID, body)
}

func (s *pgStore) Note(ctx context.Context, userID, lessonID uuid.UUID) (*models.Note, error) {
	return s.notes.Get(ctx, userID, lessonID)
}
