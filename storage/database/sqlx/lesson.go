package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tmwangi/darasa/core/lesson"
)

type lessonRepository struct {
	db *sqlx.DB
}

func NewLessonRepository(db *sqlx.DB) lesson.Repository {
	return &lessonRepository{db: db}
}

// lessonRow mirrors the lesson table; slides are a JSONB document, the
// assignment list and notes are text arrays.
type lessonRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Slides      []byte         `db:"slides"`
	AssignedTo  pq.StringArray `db:"assigned_to"`
	Date        time.Time      `db:"date"`
	Thumb       string         `db:"thumb"`
	Notes       pq.StringArray `db:"notes"`
}

func (r lessonRow) toLesson() (lesson.Lesson, error) {
	les := lesson.Lesson{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		AssignedTo:  r.AssignedTo,
		Date:        r.Date,
		Thumb:       r.Thumb,
		Notes:       r.Notes,
	}
	if err := json.Unmarshal(r.Slides, &les.Slides); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "decoding slides")
	}
	return les, nil
}

const selectLesson = `
SELECT id, title, description, slides, assigned_to, date, thumb, notes
FROM lesson`

func (repo *lessonRepository) CreateLesson(ctx context.Context, les lesson.Lesson) (lesson.Lesson, error) {
	if les.ID == "" {
		les.ID = uuid.NewString()
	}
	slides, err := json.Marshal(les.Slides)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "encoding slides")
	}

	_, err = repo.db.ExecContext(
		ctx, `
INSERT INTO lesson (id, title, description, slides, assigned_to, date, thumb, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		les.ID, les.Title, les.Description, slides,
		pq.Array(les.AssignedTo), les.Date, les.Thumb, pq.Array(les.Notes),
	)
	if err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return les, nil
}

func (repo *lessonRepository) QueryLessons(ctx context.Context, assignee string) ([]lesson.Lesson, error) {
	q := selectLesson
	var args []interface{}
	if assignee != "" {
		q += ` WHERE $1 = ANY (assigned_to)`
		args = append(args, assignee)
	}
	q += ` ORDER BY date DESC`

	var rows []lessonRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}

	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, row := range rows {
		les, err := row.toLesson()
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, les)
	}
	return lessons, nil
}

func (repo *lessonRepository) GetLessonByID(ctx context.Context, id string) (lesson.Lesson, error) {
	if _, err := uuid.Parse(id); err != nil {
		return lesson.Lesson{}, lesson.ErrNotFound
	}

	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, selectLesson+` WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return lesson.Lesson{}, lesson.ErrNotFound
		}
		return lesson.Lesson{}, errors.Wrap(err, "getting lesson")
	}
	return row.toLesson()
}

// RecordCompletion runs both progress writes in one transaction: completion
// is an idempotent insert, the mistake record an upsert keyed by
// (user, lesson) so duplicates cannot occur.
func (repo *lessonRepository) RecordCompletion(ctx context.Context, userID, lessonID string, mistakes int) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx, `
INSERT INTO user_completed_lesson (user_id, lesson_id)
VALUES ($1, $2)
ON CONFLICT (user_id, lesson_id) DO NOTHING`,
		userID, lessonID,
	)
	if err != nil {
		return errors.Wrap(err, "marking lesson completed")
	}

	_, err = tx.ExecContext(
		ctx, `
INSERT INTO user_lesson_mistake (user_id, lesson_id, mistakes)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, lesson_id) DO UPDATE SET mistakes = EXCLUDED.mistakes`,
		userID, lessonID, mistakes,
	)
	if err != nil {
		return errors.Wrap(err, "recording mistakes")
	}

	return errors.Wrap(tx.Commit(), "committing completion")
}
