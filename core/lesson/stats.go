package lesson

import (
	"math"

	"github.com/tmwangi/darasa/core/user"
)

// Accuracy returns the percent accuracy for one completed lesson.
// A lesson with no slides has no meaningful accuracy; ok is false and the
// caller should report "not applicable" rather than a number.
func Accuracy(slideCount, mistakes int) (percent int, ok bool) {
	if slideCount == 0 {
		return 0, false
	}
	return int(math.Round(100 * float64(slideCount-mistakes) / float64(slideCount))), true
}

// LessonStat is the per-lesson breakdown served on the dashboard.
type LessonStat struct {
	LessonID        string `json:"lesson_id"`
	Title           string `json:"title"`
	SlideCount      int    `json:"slide_count"`
	Mistakes        int    `json:"mistakes"`
	AccuracyPercent *int   `json:"accuracy_percent"` // nil when not applicable
}

// Dashboard aggregates a user's progress across all lessons.
type Dashboard struct {
	TotalLessons      int          `json:"total_lessons"`
	CompletedLessons  int          `json:"completed_lessons"`
	CompletionPercent int          `json:"completion_percent"`
	AccuracyPercent   int          `json:"accuracy_percent"`
	Lessons           []LessonStat `json:"lessons"`
}

// BuildDashboard derives completion and accuracy aggregates from the user's
// progress snapshot and the lessons visible to them. Aggregate accuracy is
// (total slides - total mistakes) / total slides over completed lessons,
// defaulting to 100% when no completed lesson has any slides.
func BuildDashboard(usr user.User, lessons []Lesson) Dashboard {
	dash := Dashboard{
		TotalLessons: len(lessons),
		Lessons:      make([]LessonStat, 0, len(lessons)),
	}

	var totalSlides, totalMistakes int
	for _, les := range lessons {
		if !usr.HasCompleted(les.ID) {
			continue
		}
		dash.CompletedLessons++

		mistakes, _ := usr.MistakesFor(les.ID)
		stat := LessonStat{
			LessonID:   les.ID,
			Title:      les.Title,
			SlideCount: len(les.Slides),
			Mistakes:   mistakes,
		}
		if pct, ok := Accuracy(len(les.Slides), mistakes); ok {
			stat.AccuracyPercent = &pct
		}
		dash.Lessons = append(dash.Lessons, stat)

		totalSlides += len(les.Slides)
		totalMistakes += mistakes
	}

	if dash.TotalLessons > 0 {
		dash.CompletionPercent = int(math.Round(100 * float64(dash.CompletedLessons) / float64(dash.TotalLessons)))
	}
	if totalSlides > 0 {
		dash.AccuracyPercent = int(math.Round(100 * float64(totalSlides-totalMistakes) / float64(totalSlides)))
	} else {
		dash.AccuracyPercent = 100
	}
	return dash
}
