// Package quiz tracks a learner's answers for one lesson visit and decides
// completion. The two authored pools (primary and contextual) count as a
// single pool: the lesson is complete when every quiz in either pool has an
// attempt, regardless of correctness.
package quiz

import (
	"github.com/google/uuid"

	"studyhall-backend/internal/models"
)

type Tracker struct {
	total    int
	correct  int
	answered map[uuid.UUID]bool
	// correctOption maps each quiz to its correct option.
	correctOption map[uuid.UUID]uuid.UUID
	options       map[uuid.UUID]map[uuid.UUID]bool
}

// NewTracker builds the tracker from the lesson's quiz pools and any attempts
// recorded on earlier visits. Prior attempts keep their lock: a quiz answered
// last week is still write-once today.
func NewTracker(quizzes []models.Quiz, prior []models.QuizAttempt) *Tracker {
	t := &Tracker{
		total:         len(quizzes),
		answered:      make(map[uuid.UUID]bool),
		correctOption: make(map[uuid.UUID]uuid.UUID),
		options:       make(map[uuid.UUID]map[uuid.UUID]bool),
	}

	for _, q := range quizzes {
		opts := make(map[uuid.UUID]bool, len(q.Options))
		for _, o := range q.Options {
			opts[o.ID] = true
			if o.IsCorrect {
				t.correctOption[q.ID] = o.ID
			}
		}
		t.options[q.ID] = opts
	}

	for _, a := range prior {
		if _, known := t.options[a.QuizID]; !known || t.answered[a.QuizID] {
			continue
		}
		t.answered[a.QuizID] = true
		if a.IsCorrect {
			t.correct++
		}
	}

	return t
}

func (t *Tracker) Answered(quizID uuid.UUID) bool {
	return t.answered[quizID]
}

// Record registers an answer. It returns (isCorrect, ok); ok is false when
// the quiz is unknown, the option does not belong to it, or the quiz already
// has an attempt — all rejected no-ops.
func (t *Tracker) Record(quizID, optionID uuid.UUID) (bool, bool) {
	opts, known := t.options[quizID]
	if !known || t.answered[quizID] || !opts[optionID] {
		return false, false
	}

	t.answered[quizID] = true
	isCorrect := t.correctOption[quizID] == optionID
	if isCorrect {
		t.correct++
	}
	return isCorrect, true
}

// Complete reports whether every quiz has an attempt. A lesson with zero
// quizzes is trivially complete.
func (t *Tracker) Complete() bool {
	return len(t.answered) >= t.total
}

func (t *Tracker) Score() models.ScoreSnapshot {
	return models.ScoreSnapshot{
		Correct:   t.correct,
		Answered:  len(t.answered),
		Total:     t.total,
		Completed: t.Complete(),
	}
}
