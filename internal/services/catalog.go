package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"studyhall-backend/internal/models"
	"studyhall-backend/internal/repository"
)

// Catalog fronts the read-only lesson catalogue. Module and course rows are
// stable enough to cache; lessons and quizzes are read through so a catalogue
// update is visible on the next session start.
type Catalog struct {
	lessons  *repository.LessonRepo
	users    *repository.UserRepo
	progress *repository.ProgressRepo
	cache    *gocache.Cache
}

func NewCatalog(lessons *repository.LessonRepo, users *repository.UserRepo, progress *repository.ProgressRepo, ttl time.Duration) *Catalog {
	return &Catalog{
		lessons:  lessons,
		users:    users,
		progress: progress,
		cache:    gocache.New(ttl, 2*ttl),
	}
}

func (c *Catalog) Lesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	return c.lessons.GetLesson(ctx, id)
}

func (c *Catalog) Quizzes(ctx context.Context, lessonID uuid.UUID) ([]models.Quiz, error) {
	return c.lessons.ListQuizzes(ctx, lessonID)
}

func (c *Catalog) Module(ctx context.Context, id uuid.UUID) (*models.Module, error) {
	key := "module:" + id.String()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*models.Module), nil
	}

	module, err := c.lessons.GetModule(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, module)
	return module, nil
}

func (c *Catalog) Course(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	key := "course:" + id.String()
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*models.Course), nil
	}

	course, err := c.lessons.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, course)
	return course, nil
}

func (c *Catalog) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return c.users.GetByID(ctx, id)
}

func (c *Catalog) ModuleCompletedLessons(ctx context.Context, userID, moduleID uuid.UUID) (int, error) {
	return c.progress.ModuleCompletedLessons(ctx, userID, moduleID)
}

func (c *Catalog) Neighbors(ctx context.Context, lessonID uuid.UUID) (*models.LessonNeighbors, error) {
	neighbors, err := c.lessons.Neighbors(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("lesson neighbors: %w", err)
	}
	return neighbors, nil
}
