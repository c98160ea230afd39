package lesson_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/tmwangi/darasa/core"
	"github.com/tmwangi/darasa/core/lesson"
	"github.com/tmwangi/darasa/core/user"
	inmemdb "github.com/tmwangi/darasa/storage/database/inmem"
	testutil "github.com/tmwangi/darasa/tests"
)

func setup() (lesson.ServiceInterface, lesson.Repository, user.Repository) {
	db := inmemdb.NewDB()
	lesRepo := inmemdb.NewLessonRepository(db)
	return lesson.NewService(lesRepo), lesRepo, inmemdb.NewUserRepository(db)
}

func Test_service_Create(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	nl := lesson.NewLesson{
		Title:       "Fractions",
		Description: "Adding fractions",
		Slides:      testutil.Slides(2),
		AssignedTo:  []string{"alice"},
	}
	les, err := svc.Create(ctx, nl)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.NotEmpty(t, les.ID)
	assert.Equal(t, "Fractions", les.Title)
	assert.Len(t, les.Slides, 2)
	assert.False(t, les.Date.IsZero()) // defaults to now

	got, err := svc.GetByID(ctx, les.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	assert.Equal(t, les.ID, got.ID)
}

func Test_service_Query(t *testing.T) {
	svc, lesRepo, _ := setup()
	ctx := context.Background()

	fractions := testutil.CreateLesson(t, lesRepo, "Fractions", testutil.Slides(4), "alice")
	orphan := testutil.CreateLesson(t, lesRepo, "Unassigned", testutil.Slides(2))
	decimals := testutil.CreateLesson(t, lesRepo, "Decimals", testutil.Slides(3), "bob")

	tests := []struct {
		name     string
		assignee string
		want     []string // lesson IDs
	}{
		{name: "all, newest first", assignee: "", want: []string{decimals.ID, orphan.ID, fractions.ID}},
		{name: "assignee filter", assignee: "alice", want: []string{fractions.ID}},
		{name: "assignee is case-insensitive", assignee: "ALICE", want: []string{fractions.ID}},
		{name: "unassigned lesson is in nobody's list", assignee: "carol", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lessons, err := svc.Query(ctx, tt.assignee)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			ids := make([]string, 0, len(lessons))
			for _, les := range lessons {
				ids = append(ids, les.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func Test_service_GetByID_notFound(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.GetByID(context.Background(), "b5bb4cc7-3e16-4453-9153-cc9a1c4e33a0")
	assert.Equal(t, lesson.ErrNotFound, errors.Cause(err))
}

func Test_service_Complete(t *testing.T) {
	svc, lesRepo, usrRepo := setup()
	ctx := context.Background()

	alice := testutil.CreateUser(t, usrRepo, "Alice W", "alice", "alice@test.cd", "", user.RoleUser)
	les := testutil.CreateLesson(t, lesRepo, "Fractions", testutil.Slides(4), "alice")

	t.Run("negative mistakes", func(t *testing.T) {
		err := svc.Complete(ctx, alice.ID, les.ID, -1)
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		err := svc.Complete(ctx, alice.ID, "b5bb4cc7-3e16-4453-9153-cc9a1c4e33a0", 0)
		assert.Equal(t, lesson.ErrNotFound, errors.Cause(err))
	})

	t.Run("records completion and mistakes", func(t *testing.T) {
		if err := svc.Complete(ctx, alice.ID, les.ID, 1); err != nil {
			t.Fatalf("Complete() failed: %v", err)
		}
		refreshed, err := usrRepo.GetUserByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		assert.Equal(t, []string{les.ID}, refreshed.CompletedLessons)
		assert.Equal(t, []user.MistakeRecord{{LessonID: les.ID, Mistakes: 1}}, refreshed.LessonMistakes)
	})

	t.Run("repeat completion leaves one record", func(t *testing.T) {
		if err := svc.Complete(ctx, alice.ID, les.ID, 3); err != nil {
			t.Fatalf("Complete() failed: %v", err)
		}
		refreshed, err := usrRepo.GetUserByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		assert.Equal(t, []string{les.ID}, refreshed.CompletedLessons)
		assert.Equal(t, []user.MistakeRecord{{LessonID: les.ID, Mistakes: 3}}, refreshed.LessonMistakes)
	})
}
