// Package quiz implements the lesson-taking state machine: one slide at a
// time, exact-match answers, retry on a wrong answer and a local mistake
// tally reported once the run finishes. Reveal delays, audio cues and other
// presentation concerns belong to clients, not to this package.
package quiz

import (
	"github.com/pkg/errors"

	"github.com/tmwangi/darasa/core/lesson"
)

type State int

const (
	// StateAwaitingAnswer accepts option selection and submission.
	StateAwaitingAnswer State = iota
	// StateRevealing shows the verdict; Advance moves the run along.
	StateRevealing
	// StateFinished is terminal: every slide was answered correctly.
	StateFinished
	// StateAbandoned is terminal: the run was exited early and no
	// completion is reported.
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateAwaitingAnswer:
		return "awaiting-answer"
	case StateRevealing:
		return "revealing"
	case StateFinished:
		return "finished"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

var (
	// errors
	ErrNoSlides      = errors.New("lesson has no slides")
	ErrNotAwaiting   = errors.New("not awaiting an answer")
	ErrNotRevealing  = errors.New("no verdict to advance from")
	ErrNoSelection   = errors.New("no option selected")
	ErrUnknownOption = errors.New("option is not one of the slide's options")
	ErrTerminal      = errors.New("run is over")
)

// Run is a single user's pass through one lesson.
// It is not safe for concurrent use.
type Run struct {
	les      lesson.Lesson
	slideIdx int
	state    State

	selected    string
	hasSelected bool
	correct     bool // verdict of the current reveal

	mistakes int
}

// NewRun starts a run at the lesson's first slide.
func NewRun(les lesson.Lesson) (*Run, error) {
	if len(les.Slides) == 0 {
		return nil, ErrNoSlides
	}
	return &Run{les: les}, nil
}

func (r *Run) State() State  { return r.state }
func (r *Run) Mistakes() int { return r.mistakes }

// Slide returns the slide currently in play.
func (r *Run) Slide() lesson.Slide {
	return r.les.Slides[r.slideIdx]
}

// Selected returns the currently selected option, if any.
func (r *Run) Selected() (string, bool) {
	return r.selected, r.hasSelected
}

// Select picks an option on the current slide. Only accepted while awaiting
// an answer; reselecting replaces the previous pick.
func (r *Run) Select(option string) error {
	if r.state != StateAwaitingAnswer {
		return r.stateErr(ErrNotAwaiting)
	}
	for _, opt := range r.Slide().Options {
		if opt == option {
			r.selected = option
			r.hasSelected = true
			return nil
		}
	}
	return ErrUnknownOption
}

// Submit compares the selection to the slide's designated correct option
// (exact string match) and enters the reveal state. A wrong answer counts
// one mistake.
func (r *Run) Submit() (correct bool, err error) {
	if r.state != StateAwaitingAnswer {
		return false, r.stateErr(ErrNotAwaiting)
	}
	if !r.hasSelected {
		return false, ErrNoSelection
	}

	r.correct = r.selected == r.Slide().CorrectAnswer
	if !r.correct {
		r.mistakes++
	}
	r.state = StateRevealing
	return r.correct, nil
}

// Advance leaves the reveal state: after a correct answer the run moves to
// the next slide, or finishes if this was the last one; after a wrong answer
// the same slide is retried.
func (r *Run) Advance() error {
	if r.state != StateRevealing {
		return r.stateErr(ErrNotRevealing)
	}

	r.selected = ""
	r.hasSelected = false

	if !r.correct {
		r.state = StateAwaitingAnswer
		return nil
	}
	if r.slideIdx == len(r.les.Slides)-1 {
		r.state = StateFinished
		return nil
	}
	r.slideIdx++
	r.state = StateAwaitingAnswer
	return nil
}

// Exit abandons the run; nothing is reported. A finished run cannot be
// abandoned.
func (r *Run) Exit() error {
	if r.state == StateFinished || r.state == StateAbandoned {
		return ErrTerminal
	}
	r.state = StateAbandoned
	return nil
}

// Result returns the accumulated mistake count to report for the whole
// lesson; ok is false unless the run finished.
func (r *Run) Result() (mistakes int, ok bool) {
	if r.state != StateFinished {
		return 0, false
	}
	return r.mistakes, true
}

func (r *Run) stateErr(err error) error {
	if r.state == StateFinished || r.state == StateAbandoned {
		return ErrTerminal
	}
	return err
}
