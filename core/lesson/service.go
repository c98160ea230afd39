package lesson

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tmwangi/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("lesson not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateLesson(ctx context.Context, les Lesson) (Lesson, error)
		// QueryLessons returns lessons assigned to the given username,
		// newest first; an empty assignee returns all lessons.
		QueryLessons(ctx context.Context, assignee string) ([]Lesson, error)
		GetLessonByID(ctx context.Context, id string) (Lesson, error)
		// RecordCompletion atomically adds the lesson to the user's completed
		// set and upserts the (user, lesson) mistake record: completion is
		// idempotent and at most one mistake record can exist per pair, the
		// latest count winning.
		RecordCompletion(ctx context.Context, userID, lessonID string, mistakes int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nl NewLesson) (Lesson, error)
		Query(ctx context.Context, assignee string) ([]Lesson, error)
		GetByID(ctx context.Context, id string) (Lesson, error)
		Complete(ctx context.Context, userID, lessonID string, mistakes int) error
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nl NewLesson) (Lesson, error) {
	date := nl.Date.Time
	if date.IsZero() {
		date = nowFunc().UTC()
	}
	les := Lesson{
		Title:       nl.Title,
		Description: nl.Description,
		Slides:      nl.Slides,
		AssignedTo:  nl.AssignedTo,
		Date:        date,
		Thumb:       nl.Thumb,
		Notes:       nl.Notes,
	}
	return svc.repo.CreateLesson(ctx, les)
}

func (svc *service) Query(ctx context.Context, assignee string) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, core.CleanString(assignee, true /* lower */))
}

func (svc *service) GetByID(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *service) Complete(ctx context.Context, userID, lessonID string, mistakes int) error {
	if mistakes < 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "mistakes", Error: "must not be negative"})
	}
	if _, err := svc.repo.GetLessonByID(ctx, lessonID); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.RecordCompletion(ctx, userID, lessonID, mistakes), "recording completion")
}
