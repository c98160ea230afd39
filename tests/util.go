package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tmwangi/darasa/core/lesson"
	"github.com/tmwangi/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

var lessonSeq int64

func CreateLesson(
	t *testing.T,
	repo lesson.Repository,
	title string,
	slides []lesson.Slide,
	assignees ...string,
) lesson.Lesson {
	// strictly increasing dates so newest-first listings are deterministic
	date := time.Now().UTC().Add(time.Duration(atomic.AddInt64(&lessonSeq, 1)) * time.Millisecond)
	les := lesson.Lesson{
		Title:      title,
		Slides:     slides,
		AssignedTo: assignees,
		Date:       date,
		Notes:      []string{},
	}
	les, err := repo.CreateLesson(context.Background(), les)
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return les
}

// Slides returns n identical two-option slides with "yes" as the correct
// answer, enough for completion and accuracy scenarios.
func Slides(n int) []lesson.Slide {
	slides := make([]lesson.Slide, 0, n)
	for i := 0; i < n; i++ {
		slides = append(slides, lesson.Slide{
			ID:            i,
			Content:       "Is this the right answer?",
			QuestionType:  "text",
			Options:       []string{"yes", "no"},
			CorrectAnswer: "yes",
		})
	}
	return slides
}
