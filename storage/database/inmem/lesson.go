package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tmwangi/darasa/core/lesson"
	"github.com/tmwangi/darasa/core/user"
)

type lessonRepository struct {
	db *DB
}

func NewLessonRepository(db *DB) lesson.Repository {
	return &lessonRepository{db: db}
}

func (repo *lessonRepository) CreateLesson(ctx context.Context, les lesson.Lesson) (lesson.Lesson, error) {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	if les.ID == "" {
		les.ID = uuid.NewString()
	}
	repo.db.lessons[les.ID] = les
	repo.db.lessonIDs = append(repo.db.lessonIDs, les.ID)
	return les, nil
}

func (repo *lessonRepository) QueryLessons(ctx context.Context, assignee string) ([]lesson.Lesson, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	lessons := make([]lesson.Lesson, 0, len(repo.db.lessonIDs))
	for _, id := range repo.db.lessonIDs {
		les := repo.db.lessons[id]
		if assignee != "" && !les.IsAssignedTo(assignee) {
			continue
		}
		lessons = append(lessons, les)
	}
	// newest first, matching the SQL repository
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].Date.After(lessons[j].Date) })
	return lessons, nil
}

func (repo *lessonRepository) GetLessonByID(ctx context.Context, id string) (lesson.Lesson, error) {
	repo.db.mut.RLock()
	defer repo.db.mut.RUnlock()

	les, ok := repo.db.lessons[id]
	if !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	return les, nil
}

func (repo *lessonRepository) RecordCompletion(ctx context.Context, userID, lessonID string, mistakes int) error {
	repo.db.mut.Lock()
	defer repo.db.mut.Unlock()

	prog := repo.db.progressFor(userID)

	var completed bool
	for _, id := range prog.completed {
		if id == lessonID {
			completed = true
			break
		}
	}
	if !completed {
		prog.completed = append(prog.completed, lessonID)
	}

	for i, rec := range prog.mistakes {
		if rec.LessonID == lessonID {
			prog.mistakes[i].Mistakes = mistakes
			return nil
		}
	}
	prog.mistakes = append(prog.mistakes, user.MistakeRecord{LessonID: lessonID, Mistakes: mistakes})
	return nil
}
