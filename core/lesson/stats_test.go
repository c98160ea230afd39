package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmwangi/darasa/core/user"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name       string
		slideCount int
		mistakes   int
		want       int
		wantOK     bool
	}{
		{name: "no slides is not applicable", slideCount: 0, mistakes: 0, wantOK: false},
		{name: "perfect", slideCount: 4, mistakes: 0, want: 100, wantOK: true},
		{name: "4 slides 1 mistake", slideCount: 4, mistakes: 1, want: 75, wantOK: true},
		{name: "rounds to nearest", slideCount: 3, mistakes: 1, want: 67, wantOK: true},
		{name: "more mistakes than slides", slideCount: 2, mistakes: 4, want: -100, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Accuracy(tt.slideCount, tt.mistakes)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func slides(n int) []Slide {
	s := make([]Slide, n)
	for i := range s {
		s[i] = Slide{ID: i, Content: "?", Options: []string{"a", "b"}, CorrectAnswer: "a"}
	}
	return s
}

func TestBuildDashboard(t *testing.T) {
	fractions := Lesson{ID: "l1", Title: "Fractions", Slides: slides(4)}
	decimals := Lesson{ID: "l2", Title: "Decimals", Slides: slides(2)}
	reading := Lesson{ID: "l3", Title: "Reading", Slides: []Slide{}}

	t.Run("nothing completed", func(t *testing.T) {
		dash := BuildDashboard(user.User{}, []Lesson{fractions, decimals})
		assert.Equal(t, 2, dash.TotalLessons)
		assert.Equal(t, 0, dash.CompletedLessons)
		assert.Equal(t, 0, dash.CompletionPercent)
		assert.Equal(t, 100, dash.AccuracyPercent) // no slides completed
		assert.Empty(t, dash.Lessons)
	})

	t.Run("4 slides 1 mistake is 75%", func(t *testing.T) {
		usr := user.User{
			CompletedLessons: []string{"l1"},
			LessonMistakes:   []user.MistakeRecord{{LessonID: "l1", Mistakes: 1}},
		}
		dash := BuildDashboard(usr, []Lesson{fractions, decimals})
		assert.Equal(t, 1, dash.CompletedLessons)
		assert.Equal(t, 50, dash.CompletionPercent)
		assert.Equal(t, 75, dash.AccuracyPercent)
		if assert.Len(t, dash.Lessons, 1) {
			stat := dash.Lessons[0]
			assert.Equal(t, "l1", stat.LessonID)
			assert.Equal(t, 4, stat.SlideCount)
			assert.Equal(t, 1, stat.Mistakes)
			if assert.NotNil(t, stat.AccuracyPercent) {
				assert.Equal(t, 75, *stat.AccuracyPercent)
			}
		}
	})

	t.Run("aggregate spans completed lessons", func(t *testing.T) {
		usr := user.User{
			CompletedLessons: []string{"l1", "l2"},
			LessonMistakes: []user.MistakeRecord{
				{LessonID: "l1", Mistakes: 1},
				{LessonID: "l2", Mistakes: 2},
			},
		}
		dash := BuildDashboard(usr, []Lesson{fractions, decimals})
		assert.Equal(t, 100, dash.CompletionPercent)
		assert.Equal(t, 50, dash.AccuracyPercent) // (6-3)/6
	})

	t.Run("zero-slide lesson has no per-lesson accuracy", func(t *testing.T) {
		usr := user.User{CompletedLessons: []string{"l3"}}
		dash := BuildDashboard(usr, []Lesson{reading})
		assert.Equal(t, 100, dash.CompletionPercent)
		assert.Equal(t, 100, dash.AccuracyPercent) // aggregate defaults to 100
		if assert.Len(t, dash.Lessons, 1) {
			assert.Nil(t, dash.Lessons[0].AccuracyPercent)
		}
	})
}
