package lesson

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/tmwangi/darasa/core"
)

// noteSanitizer strips unsafe markup from lesson notes before storage;
// notes are rendered as rich text by clients.
var noteSanitizer = bluemonday.UGCPolicy()

type (
	// Slide is one multiple-choice question within a lesson.
	Slide struct {
		ID            int      `json:"id"` // ordinal within the lesson
		Content       string   `json:"content" validate:"required"`
		QuestionType  string   `json:"question_type"`
		Options       []string `json:"options" validate:"min=2,dive,required"`
		CorrectAnswer string   `json:"correct_answer" validate:"required"`
	}

	Lesson struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		Slides      []Slide   `json:"slides"`
		AssignedTo  []string  `json:"for"` // assignee usernames
		Date        time.Time `json:"date"`
		Thumb       string    `json:"thumb,omitempty"`
		Notes       []string  `json:"notes"`
	}
)

// IsAssignedTo reports whether the lesson is visible to the given username.
// A lesson with an empty assignment list is visible to no student.
func (l *Lesson) IsAssignedTo(username string) bool {
	for _, uname := range l.AssignedTo {
		if uname == username {
			return true
		}
	}
	return false
}

// Date accepts either a plain RFC 3339 string or the externally-tagged
// `{"$date": "..."}` wrapper that exported lesson documents carry.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	}

	var wrapper struct {
		Date string `json:"$date"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if wrapper.Date == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, wrapper.Date)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time)
}

// NewLesson contains information needed to create a new Lesson.
// Client-supplied identifiers are ignored.
type NewLesson struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Slides      []Slide  `json:"slides" validate:"required,min=1,dive"`
	AssignedTo  []string `json:"for"`
	Date        Date     `json:"date"`
	Thumb       string   `json:"thumb"`
	Notes       []string `json:"notes"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	nl.AssignedTo = core.CleanStrings(nl.AssignedTo, true /* lower */)
	for i, note := range nl.Notes {
		nl.Notes[i] = noteSanitizer.Sanitize(note)
	}
	return validate.Struct(nl)
}
