package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/quiz"
	"studyhall-backend/internal/repository"
)

var ErrEmptySelection = errors.New("selection is empty")

type sessionKey struct {
	userID   uuid.UUID
	lessonID uuid.UUID
}

// Engine owns every live session. One session per (user, lesson): starting a
// second one supersedes the first (last-write-wins, no merge).
type Engine struct {
	store    Store
	catalog  Catalog
	sync     Reconciler
	notifier Notifier

	tickInterval    time.Duration
	completionDelay time.Duration

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

func NewEngine(store Store, catalog Catalog, sync Reconciler, notifier Notifier, tickInterval, completionDelay time.Duration) *Engine {
	return &Engine{
		store:           store,
		catalog:         catalog,
		sync:            sync,
		notifier:        notifier,
		tickInterval:    tickInterval,
		completionDelay: completionDelay,
		sessions:        make(map[sessionKey]*Session),
	}
}

// Start opens a live session for (user, lesson), restoring accumulated
// elapsed time, prior attempts, the last snapshot, and the note. A lesson
// with zero quizzes completes immediately through this path.
func (e *Engine) Start(ctx context.Context, userID, lessonID uuid.UUID, deviceClass string) (*StartResult, error) {
	user, err := e.catalog.User(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	lesson, err := e.catalog.Lesson(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	quizzes, err := e.catalog.Quizzes(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load quizzes: %w", err)
	}
	attempts, err := e.store.Attempts(ctx, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	progress, err := e.store.Progress(ctx, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}

	// Advisory restore data; absence is not an error.
	snapshot, err := e.store.Snapshot(ctx, userID, lessonID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	noteBody := ""
	if note, err := e.store.Note(ctx, userID, lessonID); err == nil {
		noteBody = note.Body
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load note: %w", err)
	}

	moduleTitle := ""
	if module, err := e.catalog.Module(ctx, lesson.ModuleID); err == nil {
		moduleTitle = module.Title
	}

	s := &Session{
		eng:          e,
		userID:       userID,
		lessonID:     lessonID,
		moduleID:     lesson.ModuleID,
		courseID:     lesson.CourseID,
		lessonTitle:  lesson.Title,
		moduleTitle:  moduleTitle,
		authorName:   user.FullName,
		deviceClass:  deviceClass,
		autoPause:    user.AutoPause,
		noteAutosave: lesson.NoteAutosave,
		state:        StateRunning,
		elapsed:      progress.ElapsedSeconds,
		completed:    progress.Completed,
		tracker:      quiz.NewTracker(quizzes, attempts),
		quizzes:      quizzes,
		noteBody:     noteBody,
		cmds:         make(chan command),
		quit:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	if snapshot != nil {
		s.scroll = snapshot.LastScrollPosition
		s.toolTab = snapshot.ActiveToolTab
	}

	// Trivial completion on load for quiz-less lessons, before the loop
	// starts so nothing can interleave.
	if !s.completed && s.tracker.Complete() {
		s.complete()
	}

	// Swap under one lock so two racing starts can never both miss the
	// prior session; whichever loses the swap is stopped, not leaked.
	key := sessionKey{userID, lessonID}
	e.mu.Lock()
	prior := e.sessions[key]
	e.sessions[key] = s
	e.mu.Unlock()
	if prior != nil {
		prior.end()
	}

	go s.run(e.tickInterval)

	return &StartResult{
		State:          s.state,
		Resuming:       snapshot != nil,
		Snapshot:       snapshot,
		ElapsedSeconds: s.elapsed,
		Completed:      s.completed,
		Score:          s.tracker.Score(),
		Note:           noteBody,
	}, nil
}

func (e *Engine) get(userID, lessonID uuid.UUID) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionKey{userID, lessonID}]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// End tears the session down: cancels the clock, deregisters its listeners,
// and performs the final flush.
func (e *Engine) End(userID, lessonID uuid.UUID) error {
	key := sessionKey{userID, lessonID}
	e.mu.Lock()
	s, ok := e.sessions[key]
	delete(e.sessions, key)
	e.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	s.end()
	return nil
}

// Stop ends every live session. Called on server shutdown.
func (e *Engine) Stop() {
	e.mu.Lock()
	sessions := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.sessions = make(map[sessionKey]*Session)
	e.mu.Unlock()

	for _, s := range sessions {
		s.end()
	}
}

func (e *Engine) Pause(userID, lessonID uuid.UUID) error {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return err
	}
	return s.do(func() { s.pause("user-paused") })
}

func (e *Engine) Resume(userID, lessonID uuid.UUID) error {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return err
	}
	return s.do(func() { s.resume("user-resumed") })
}

// Connectivity feeds a client-reported link change into the pause controller.
func (e *Engine) Connectivity(userID, lessonID uuid.UUID, online bool) error {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return err
	}
	return s.do(func() { s.connectivity(online) })
}

func (e *Engine) Submit(userID, lessonID, quizID, optionID uuid.UUID) (SubmitResult, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return SubmitResult{}, err
	}
	var result SubmitResult
	doErr := s.do(func() { result = s.submit(quizID, optionID) })
	return result, doErr
}

func (e *Engine) Score(userID, lessonID uuid.UUID) (models.ScoreSnapshot, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return models.ScoreSnapshot{}, err
	}
	var score models.ScoreSnapshot
	doErr := s.do(func() { score = s.tracker.Score() })
	return score, doErr
}

func (e *Engine) State(userID, lessonID uuid.UUID) (string, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return "", err
	}
	var state string
	doErr := s.do(func() { state = s.state })
	return state, doErr
}

// Gated runs a durable mutation on the session loop, rejecting it while
// paused. Because the pause transition runs on the same loop, no pause can
// slip between the check and fn; annotation writes go through here the same
// way quiz answers go through submit.
func (e *Engine) Gated(userID, lessonID uuid.UUID, fn func() error) error {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return err
	}
	var opErr error
	doErr := s.do(func() {
		if s.state == StatePaused {
			opErr = ErrPaused
			return
		}
		opErr = fn()
	})
	if doErr != nil {
		return doErr
	}
	return opErr
}

// Gate rejects mutations while paused. Read-side handlers consult it before
// assembling responses; durable writes use Gated instead.
func (e *Engine) Gate(userID, lessonID uuid.UUID) error {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return err
	}
	var gateErr error
	doErr := s.do(func() {
		if s.state == StatePaused {
			gateErr = ErrPaused
		}
	})
	if doErr != nil {
		return doErr
	}
	return gateErr
}

// UpdateSurface records the client's scroll position and active tool tab;
// both land in the next snapshot.
func (e *Engine) UpdateSurface(userID, lessonID uuid.UUID, scroll float64, toolTab string) error {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return err
	}
	return s.do(func() {
		s.scroll = scroll
		if toolTab != "" {
			s.toolTab = toolTab
		}
	})
}

// UpdateNote buffers the note body. With flush the save happens now;
// otherwise the clock's autosave cadence picks it up.
func (e *Engine) UpdateNote(userID, lessonID uuid.UUID, body string, flush bool) error {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return err
	}
	return s.do(func() {
		s.noteBody = body
		s.noteDirty = true
		if flush {
			s.saveNoteAsync()
		}
	})
}

func (e *Engine) SessionContext(userID, lessonID uuid.UUID) (Context, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return Context{}, err
	}
	return Context{
		ModuleID:    s.moduleID,
		CourseID:    s.courseID,
		ModuleTitle: s.moduleTitle,
		LessonTitle: s.lessonTitle,
		AuthorName:  s.authorName,
	}, nil
}

// Bookmark draft lifecycle. The draft lives in the session and is cleared on
// teardown; only commit touches durable state.

type DraftUpdate struct {
	Title *string  `json:"title,omitempty"`
	Tags  []string `json:"tags,omitempty"`
	Note  *string  `json:"note,omitempty"`
	Color *string  `json:"color,omitempty"`
}

func (e *Engine) BeginBookmarkDraft(userID, lessonID uuid.UUID, snippet string, scroll float64) (models.BookmarkDraft, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return models.BookmarkDraft{}, err
	}
	if strings.TrimSpace(snippet) == "" {
		return models.BookmarkDraft{}, ErrEmptySelection
	}

	var draft models.BookmarkDraft
	var opErr error
	doErr := s.do(func() {
		if s.state == StatePaused {
			opErr = ErrPaused
			return
		}
		title := s.lessonTitle
		if s.moduleTitle != "" {
			title = s.moduleTitle + " / " + s.lessonTitle
		}
		s.draft = &models.BookmarkDraft{
			Title:          title,
			TextSnippet:    snippet,
			ScrollPosition: scroll,
		}
		draft = *s.draft
	})
	if doErr != nil {
		return models.BookmarkDraft{}, doErr
	}
	return draft, opErr
}

func (e *Engine) UpdateBookmarkDraft(userID, lessonID uuid.UUID, update DraftUpdate) (models.BookmarkDraft, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return models.BookmarkDraft{}, err
	}

	var draft models.BookmarkDraft
	var opErr error
	doErr := s.do(func() {
		if s.draft == nil {
			opErr = ErrNoDraft
			return
		}
		if update.Title != nil {
			s.draft.Title = *update.Title
		}
		if update.Tags != nil {
			s.draft.Tags = update.Tags
		}
		if update.Note != nil {
			s.draft.Note = update.Note
		}
		if update.Color != nil {
			s.draft.Color = *update.Color
		}
		draft = *s.draft
	})
	if doErr != nil {
		return models.BookmarkDraft{}, doErr
	}
	return draft, opErr
}

// AttachDraftTag adds a tag to the in-progress draft, skipping duplicates.
func (e *Engine) AttachDraftTag(userID, lessonID uuid.UUID, tag string) (models.BookmarkDraft, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return models.BookmarkDraft{}, err
	}

	var draft models.BookmarkDraft
	var opErr error
	doErr := s.do(func() {
		if s.draft == nil {
			opErr = ErrNoDraft
			return
		}
		for _, existing := range s.draft.Tags {
			if existing == tag {
				draft = *s.draft
				return
			}
		}
		s.draft.Tags = append(s.draft.Tags, tag)
		draft = *s.draft
	})
	if doErr != nil {
		return models.BookmarkDraft{}, doErr
	}
	return draft, opErr
}

// SetDraftFromBookmark enters edit mode: the existing bookmark's fields
// become the draft and commit will replace that row instead of inserting.
func (e *Engine) SetDraftFromBookmark(userID, lessonID uuid.UUID, b *models.Bookmark) (models.BookmarkDraft, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return models.BookmarkDraft{}, err
	}

	var draft models.BookmarkDraft
	var opErr error
	doErr := s.do(func() {
		if s.state == StatePaused {
			opErr = ErrPaused
			return
		}
		id := b.ID
		s.draft = &models.BookmarkDraft{
			Title:          b.Title,
			TextSnippet:    b.TextSnippet,
			ScrollPosition: b.ScrollPosition,
			Tags:           append([]string(nil), b.Tags...),
			Color:          b.Color,
			Note:           b.Note,
			EditID:         &id,
		}
		draft = *s.draft
	})
	if doErr != nil {
		return models.BookmarkDraft{}, doErr
	}
	return draft, opErr
}

// Draft returns the current draft without clearing it.
func (e *Engine) Draft(userID, lessonID uuid.UUID) (models.BookmarkDraft, error) {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return models.BookmarkDraft{}, err
	}

	var draft models.BookmarkDraft
	var opErr error
	doErr := s.do(func() {
		if s.draft == nil {
			opErr = ErrNoDraft
			return
		}
		draft = *s.draft
	})
	if doErr != nil {
		return models.BookmarkDraft{}, doErr
	}
	return draft, opErr
}

func (e *Engine) ClearDraft(userID, lessonID uuid.UUID) error {
	s, err := e.get(userID, lessonID)
	if err != nil {
		return err
	}
	return s.do(func() { s.draft = nil })
}
