package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/quiz"
)

// Pause controller states.
const (
	StateRunning = "RUNNING"
	StatePaused  = "PAUSED"
)

// Clock cadence: the elapsed counter and snapshot flush every K ticks, note
// autosave every M ticks. Worst-case loss on abrupt termination is K-1 ticks.
const (
	snapshotEveryTicks = 5
	autosaveEveryTicks = 30
)

var (
	ErrNoSession    = errors.New("no live session for this lesson")
	ErrPaused       = errors.New("session is paused")
	ErrNoDraft      = errors.New("no bookmark draft in progress")
	ErrSessionEnded = errors.New("session has ended")
)

type command struct {
	fn   func()
	done chan struct{}
}

// Session is the live state for one (user, lesson) visit. All mutations run
// on the session's own goroutine, so the independently-triggered event
// sources (ticker, pause actions, connectivity reports, quiz answers)
// interleave one at a time, never concurrently.
type Session struct {
	eng *Engine

	userID      uuid.UUID
	lessonID    uuid.UUID
	moduleID    uuid.UUID
	courseID    *uuid.UUID
	lessonTitle string
	moduleTitle string
	authorName  string
	deviceClass string

	autoPause    bool
	noteAutosave bool

	// Loop-owned state. Touched only from run().
	state           string
	elapsed         int
	ticks           int
	completed       bool
	tracker         *quiz.Tracker
	quizzes         []models.Quiz
	draft           *models.BookmarkDraft
	noteBody        string
	noteDirty       bool
	scroll          float64
	toolTab         string
	completionTimer *time.Timer

	cmds    chan command
	quit    chan struct{}
	stopped chan struct{}
	endOnce sync.Once
}

type SubmitResult struct {
	Accepted    bool                 `json:"accepted"`
	Reason      string               `json:"reason,omitempty"`
	IsCorrect   *bool                `json:"is_correct,omitempty"`
	Explanation string               `json:"explanation,omitempty"`
	Score       models.ScoreSnapshot `json:"score"`
}

type StartResult struct {
	State          string               `json:"state"`
	Resuming       bool                 `json:"resuming"`
	Snapshot       *models.SessionState `json:"snapshot,omitempty"`
	ElapsedSeconds int                  `json:"elapsed_seconds"`
	Completed      bool                 `json:"completed"`
	Score          models.ScoreSnapshot `json:"score"`
	Note           string               `json:"note"`
}

// Context is the structural context handlers need when building annotations.
type Context struct {
	ModuleID    uuid.UUID
	CourseID    *uuid.UUID
	ModuleTitle string
	LessonTitle string
	AuthorName  string
}

// do runs fn on the session goroutine and waits for it to finish.
func (s *Session) do(fn func()) error {
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-s.stopped:
		return ErrSessionEnded
	}
	select {
	case <-cmd.done:
		return nil
	case <-s.stopped:
		return ErrSessionEnded
	}
}

func (s *Session) run(tickInterval time.Duration) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			s.teardown()
			close(s.stopped)
			return
		case cmd := <-s.cmds:
			cmd.fn()
			close(cmd.done)
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick advances the telemetry clock by one unit. Frozen while paused and
// after completion.
func (s *Session) tick() {
	if s.state != StateRunning || s.completed {
		return
	}

	s.elapsed++
	s.ticks++

	if s.ticks%snapshotEveryTicks == 0 {
		s.flushAsync("tick-flush")
	}
	if s.noteAutosave && s.noteDirty && s.ticks%autosaveEveryTicks == 0 {
		s.saveNoteAsync()
	}
}

func (s *Session) snapshotState() models.SessionState {
	return models.SessionState{
		UserID:             s.userID,
		LessonID:           s.lessonID,
		LastScrollPosition: s.scroll,
		ActiveToolTab:      s.toolTab,
		IsPaused:           s.state == StatePaused,
		DeviceClass:        s.deviceClass,
		RecordedAt:         time.Now(),
	}
}

// flushAsync persists the elapsed counter and a snapshot without blocking the
// loop. Failures land in the sync log and never interrupt the clock.
func (s *Session) flushAsync(action string) {
	elapsed := s.elapsed
	snap := s.snapshotState()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.eng.store.SaveElapsed(ctx, s.userID, s.lessonID, elapsed); err != nil {
			log.Printf("session %s/%s: elapsed flush failed: %v", s.userID, s.lessonID, err)
			s.eng.sync.RecordFailure(ctx, s.userID, s.lessonID, action)
		}
		if err := s.eng.store.SaveSnapshot(ctx, snap); err != nil {
			log.Printf("session %s/%s: snapshot failed: %v", s.userID, s.lessonID, err)
			s.eng.sync.RecordFailure(ctx, s.userID, s.lessonID, "snapshot")
		}
	}()
}

func (s *Session) saveNoteAsync() {
	body := s.noteBody
	s.noteDirty = false

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.eng.store.SaveNote(ctx, s.userID, s.lessonID, body); err != nil {
			log.Printf("session %s/%s: note save failed: %v", s.userID, s.lessonID, err)
			s.eng.sync.RecordFailure(ctx, s.userID, s.lessonID, "save-note")
		}
	}()
}

func (s *Session) notify(noticeType, reason string, payload interface{}) {
	s.eng.notifier.Publish(s.userID, models.Notice{
		Type:     noticeType,
		LessonID: s.lessonID,
		Reason:   reason,
		Payload:  payload,
		At:       time.Now(),
	})
}

// pause freezes the clock, flushes the note, captures a snapshot, and emits a
// reason-carrying notice. No-op when already paused.
func (s *Session) pause(reason string) {
	if s.state == StatePaused {
		return
	}
	s.state = StatePaused

	if s.noteDirty {
		s.saveNoteAsync()
	}
	s.flushAsync("pause-flush")
	s.notify(models.NoticeSessionPaused, reason, nil)
}

// resume unfreezes the clock, runs exactly one reconciliation sync, and emits
// a resuming notice. No-op when already running.
func (s *Session) resume(reason string) {
	if s.state == StateRunning {
		return
	}
	s.state = StateRunning

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		entry := s.eng.sync.Force(ctx, s.userID, s.lessonID, "resume")
		s.notify(models.NoticeSyncResult, "", entry)
	}()
	s.notify(models.NoticeSessionResumed, reason, nil)
}

// connectivity reacts to a reported link change. Auto-pause must be enabled
// for the session to react at all.
func (s *Session) connectivity(online bool) {
	if !s.autoPause {
		return
	}
	if online {
		s.resume("connectivity-restored")
	} else {
		s.pause("connectivity-lost")
	}
}

// submit records a quiz answer. Rejected as a no-op while paused, for a quiz
// that already has an attempt, and for unknown quizzes or options.
func (s *Session) submit(quizID, optionID uuid.UUID) SubmitResult {
	if s.state == StatePaused {
		return SubmitResult{Reason: "paused", Score: s.tracker.Score()}
	}
	if s.tracker.Answered(quizID) {
		return SubmitResult{Reason: "already-answered", Score: s.tracker.Score()}
	}

	isCorrect, ok := s.tracker.Record(quizID, optionID)
	if !ok {
		return SubmitResult{Reason: "unknown-quiz-or-option", Score: s.tracker.Score()}
	}

	attempt := models.QuizAttempt{
		UserID:           s.userID,
		LessonID:         s.lessonID,
		QuizID:           quizID,
		SelectedOptionID: optionID,
		IsCorrect:        isCorrect,
		AnsweredAt:       time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.eng.store.RecordAttempt(ctx, attempt); err != nil {
			log.Printf("session %s/%s: attempt persist failed: %v", s.userID, s.lessonID, err)
			s.eng.sync.RecordFailure(ctx, s.userID, s.lessonID, "record-attempt")
		}
	}()

	if s.tracker.Complete() && !s.completed {
		s.complete()
	}

	result := SubmitResult{Accepted: true, IsCorrect: &isCorrect, Score: s.tracker.Score()}
	for _, q := range s.quizzes {
		if q.ID == quizID {
			result.Explanation = q.Explanation
			break
		}
	}
	return result
}

// complete permanently stops the clock for this visit, persists the
// completion, and schedules the delayed completion signal external consumers
// subscribe to.
func (s *Session) complete() {
	s.completed = true
	now := time.Now()
	score := s.tracker.Score()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.eng.store.MarkCompleted(ctx, s.userID, s.lessonID, s.moduleID, now); err != nil {
			log.Printf("session %s/%s: completion persist failed: %v", s.userID, s.lessonID, err)
			s.eng.sync.RecordFailure(ctx, s.userID, s.lessonID, "mark-completed")
			return
		}
		s.checkModuleFulfilled(ctx)
	}()

	s.completionTimer = time.AfterFunc(s.eng.completionDelay, func() {
		s.notify(models.NoticeLessonCompleted, "", score)
	})
}

// checkModuleFulfilled is the downstream certificate-eligibility check. Its
// failure is surfaced as a blocking alert and never touches session state.
func (s *Session) checkModuleFulfilled(ctx context.Context) {
	module, err := s.eng.catalog.Module(ctx, s.moduleID)
	if err != nil {
		log.Printf("session %s/%s: module lookup failed: %v", s.userID, s.lessonID, err)
		s.notify(models.NoticeAlert, "eligibility-check-failed", nil)
		return
	}

	completed, err := s.eng.catalog.ModuleCompletedLessons(ctx, s.userID, s.moduleID)
	if err != nil {
		log.Printf("session %s/%s: eligibility check failed: %v", s.userID, s.lessonID, err)
		s.notify(models.NoticeAlert, "eligibility-check-failed", nil)
		return
	}

	if module.LessonCount > 0 && completed >= module.LessonCount {
		s.notify(models.NoticeModuleFulfilled, "", map[string]interface{}{
			"module_id":    s.moduleID,
			"module_title": s.moduleTitle,
		})
	}
}

// teardown runs once on the loop goroutine when the session ends: cancel the
// pending completion signal if unfired and perform the final flush. In-flight
// asynchronous writes are neither awaited nor cancelled.
func (s *Session) teardown() {
	if s.completionTimer != nil {
		s.completionTimer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.eng.store.SaveElapsed(ctx, s.userID, s.lessonID, s.elapsed); err != nil {
		log.Printf("session %s/%s: final elapsed flush failed: %v", s.userID, s.lessonID, err)
		s.eng.sync.RecordFailure(ctx, s.userID, s.lessonID, "final-flush")
	}
	if err := s.eng.store.SaveSnapshot(ctx, s.snapshotState()); err != nil {
		log.Printf("session %s/%s: final snapshot failed: %v", s.userID, s.lessonID, err)
		s.eng.sync.RecordFailure(ctx, s.userID, s.lessonID, "final-snapshot")
	}
	if s.noteDirty {
		if err := s.eng.store.SaveNote(ctx, s.userID, s.lessonID, s.noteBody); err != nil {
			log.Printf("session %s/%s: final note save failed: %v", s.userID, s.lessonID, err)
			s.eng.sync.RecordFailure(ctx, s.userID, s.lessonID, "save-note")
		}
	}
}

func (s *Session) end() {
	s.endOnce.Do(func() { close(s.quit) })
	<-s.stopped
}
