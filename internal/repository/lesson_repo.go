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

// LessonRepo reads the lesson catalogue. The catalogue is an external input
// here: this service never mutates lessons, modules, courses, or quizzes.
type LessonRepo struct {
	pool *pgxpool.Pool
}

func NewLessonRepo(pool *pgxpool.Pool) *LessonRepo {
	return &LessonRepo{pool: pool}
}

func (r *LessonRepo) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	l := &models.Lesson{}
	query := `SELECT id, module_id, course_id, title, position, note_autosave, created_at
		FROM lessons WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.ModuleID, &l.CourseID, &l.Title, &l.Position, &l.NoteAutosave, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

func (r *LessonRepo) GetModule(ctx context.Context, id uuid.UUID) (*models.Module, error) {
	m := &models.Module{}
	query := `SELECT m.id, m.course_id, m.title, m.position,
			(SELECT COUNT(*) FROM lessons l WHERE l.module_id = m.id)
		FROM modules m WHERE m.id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.CourseID, &m.Title, &m.Position, &m.LessonCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	return m, nil
}

func (r *LessonRepo) GetCourse(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c := &models.Course{}
	query := `SELECT id, title, description, created_at FROM courses WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// ListQuizzes returns both quiz pools for a lesson with their options, ordered
// by pool then position.
func (r *LessonRepo) ListQuizzes(ctx context.Context, lessonID uuid.UUID) ([]models.Quiz, error) {
	query := `SELECT id, lesson_id, pool, prompt, explanation, position
		FROM quizzes WHERE lesson_id = $1 ORDER BY pool, position`

	rows, err := r.pool.Query(ctx, query, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []models.Quiz
	byID := map[uuid.UUID]int{}
	for rows.Next() {
		var q models.Quiz
		if err := rows.Scan(&q.ID, &q.LessonID, &q.Pool, &q.Prompt, &q.Explanation, &q.Position); err != nil {
			return nil, err
		}
		byID[q.ID] = len(quizzes)
		quizzes = append(quizzes, q)
	}
	if len(quizzes) == 0 {
		return nil, nil
	}

	optQuery := `SELECT o.id, o.quiz_id, o.text, o.is_correct, o.position
		FROM quiz_options o
		JOIN quizzes q ON q.id = o.quiz_id
		WHERE q.lesson_id = $1 ORDER BY o.position`

	optRows, err := r.pool.Query(ctx, optQuery, lessonID)
	if err != nil {
		return nil, fmt.Errorf("list quiz options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var o models.QuizOption
		if err := optRows.Scan(&o.ID, &o.QuizID, &o.Text, &o.IsCorrect, &o.Position); err != nil {
			return nil, err
		}
		if idx, ok := byID[o.QuizID]; ok {
			quizzes[idx].Options = append(quizzes[idx].Options, o)
		}
	}
	return quizzes, nil
}

// Neighbors finds the previous and next lessons within the same module by
// position. Either side may be absent; both absent on the next side marks the
// pathway as fulfilled.
func (r *LessonRepo) Neighbors(ctx context.Context, lessonID uuid.UUID) (*models.LessonNeighbors, error) {
	lesson, err := r.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	n := &models.LessonNeighbors{}

	var prev models.LessonRef
	err = r.pool.QueryRow(ctx, `SELECT id, title FROM lessons
		WHERE module_id = $1 AND position < $2 ORDER BY position DESC LIMIT 1`,
		lesson.ModuleID, lesson.Position).Scan(&prev.ID, &prev.Title)
	if err == nil {
		n.Prev = &prev
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("prev lesson: %w", err)
	}

	var next models.LessonRef
	err = r.pool.QueryRow(ctx, `SELECT id, title FROM lessons
		WHERE module_id = $1 AND position > $2 ORDER BY position ASC LIMIT 1`,
		lesson.ModuleID, lesson.Position).Scan(&next.ID, &next.Title)
	if err == nil {
		n.Next = &next
	} else if errors.Is(err, pgx.ErrNoRows) {
		n.PathwayFulfilled = true
	} else {
		return nil, fmt.Errorf("next lesson: %w", err)
	}

	return n, nil
}
