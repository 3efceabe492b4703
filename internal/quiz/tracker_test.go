package quiz

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"studyhall-backend/internal/models"
)

func makeQuiz(pool string) (models.Quiz, uuid.UUID, uuid.UUID) {
	q := models.Quiz{ID: uuid.New(), Pool: pool}
	correct := models.QuizOption{ID: uuid.New(), QuizID: q.ID, IsCorrect: true}
	wrong := models.QuizOption{ID: uuid.New(), QuizID: q.ID}
	q.Options = []models.QuizOption{correct, wrong}
	return q, correct.ID, wrong.ID
}

func TestTracker_ZeroQuizzesCompleteImmediately(t *testing.T) {
	tr := NewTracker(nil, nil)

	if !tr.Complete() {
		t.Fatal("expected lesson with zero quizzes to be complete")
	}

	score := tr.Score()
	if score.Total != 0 || score.Answered != 0 || !score.Completed {
		t.Fatalf("unexpected score %+v", score)
	}
}

func TestTracker_WriteOnce(t *testing.T) {
	q, correct, wrong := makeQuiz(models.QuizPoolPrimary)
	tr := NewTracker([]models.Quiz{q}, nil)

	isCorrect, ok := tr.Record(q.ID, correct)
	if !ok || !isCorrect {
		t.Fatalf("first answer: ok=%v correct=%v", ok, isCorrect)
	}

	// A second answer for the same quiz must change nothing.
	if _, ok := tr.Record(q.ID, wrong); ok {
		t.Fatal("second answer was accepted")
	}

	score := tr.Score()
	if score.Correct != 1 || score.Answered != 1 {
		t.Fatalf("score changed by locked answer: %+v", score)
	}
}

func TestTracker_RejectsUnknownQuizAndOption(t *testing.T) {
	q, correct, _ := makeQuiz(models.QuizPoolPrimary)
	tr := NewTracker([]models.Quiz{q}, nil)

	if _, ok := tr.Record(uuid.New(), correct); ok {
		t.Fatal("unknown quiz was accepted")
	}
	if _, ok := tr.Record(q.ID, uuid.New()); ok {
		t.Fatal("foreign option was accepted")
	}
	if tr.Score().Answered != 0 {
		t.Fatal("rejected answers were counted")
	}
}

func TestTracker_BothPoolsCountAsOne(t *testing.T) {
	q1, c1, _ := makeQuiz(models.QuizPoolPrimary)
	q2, _, w2 := makeQuiz(models.QuizPoolContextual)
	tr := NewTracker([]models.Quiz{q1, q2}, nil)

	tr.Record(q1.ID, c1)
	if tr.Complete() {
		t.Fatal("complete after answering one of two quizzes")
	}

	// A wrong answer still counts toward completion.
	tr.Record(q2.ID, w2)
	if !tr.Complete() {
		t.Fatal("not complete after answering both pools")
	}

	score := tr.Score()
	if score.Correct != 1 || score.Answered != 2 || score.Total != 2 {
		t.Fatalf("unexpected score %+v", score)
	}
}

func TestTracker_PriorAttemptsKeepTheirLock(t *testing.T) {
	q, correct, wrong := makeQuiz(models.QuizPoolPrimary)
	prior := []models.QuizAttempt{{
		QuizID:           q.ID,
		SelectedOptionID: correct,
		IsCorrect:        true,
		AnsweredAt:       time.Now().Add(-24 * time.Hour),
	}}
	tr := NewTracker([]models.Quiz{q}, prior)

	if !tr.Answered(q.ID) {
		t.Fatal("prior attempt not restored")
	}
	if _, ok := tr.Record(q.ID, wrong); ok {
		t.Fatal("quiz answered on an earlier visit accepted a new answer")
	}
	if !tr.Complete() {
		t.Fatal("expected completion from prior attempts alone")
	}
}
