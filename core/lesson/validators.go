package lesson

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/tmwangi/darasa/core"
)

var (
	correctAnswerTag  = "correctanswer"
	correctAnswerText = "the correct answer must be one of the slide's options"
)

// InitValidators registers lesson validators. Must be called once on app init.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(slideStructValidation, Slide{})
	core.RegisterCustomTranslation(validate, translator, correctAnswerTag, correctAnswerText)
}

// slideStructValidation checks that a slide's designated correct answer is
// present in its options sequence.
func slideStructValidation(sl validator.StructLevel) {
	slide, ok := sl.Current().Interface().(Slide)
	if !ok {
		return
	}
	if slide.CorrectAnswer == "" {
		return // `required` reports this one
	}
	for _, opt := range slide.Options {
		if opt == slide.CorrectAnswer {
			return
		}
	}
	sl.ReportError(slide.CorrectAnswer, "correct_answer", "CorrectAnswer", correctAnswerTag, "")
}
