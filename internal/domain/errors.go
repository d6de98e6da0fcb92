package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a required parameter is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidAnswer is returned when a submitted answer is not A-D or 0-3.
	ErrInvalidAnswer = errors.New("user_answer must be A, B, C, D or 0-3")
	// ErrUserNotFound indicates the username has no profile record.
	ErrUserNotFound = errors.New("user not found")
	// ErrQuizNotFound indicates the quiz record could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates no question exists at the requested ordinal.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionAlreadyGraded rejects a second grade of the same ordinal.
	ErrQuestionAlreadyGraded = errors.New("question already graded")
	// ErrCertNotFound indicates the certification has no info record.
	ErrCertNotFound = errors.New("certification not found")
	// ErrGenerationFailed indicates the model produced no usable questions.
	ErrGenerationFailed = errors.New("failed to generate questions")
)

type validationError string

func (e validationError) Error() string { return string(e) }

func (e validationError) Is(target error) bool { return target == ErrValidation }

// Validationf builds a user-facing validation error that matches
// ErrValidation under errors.Is while keeping the message clean.
func Validationf(format string, args ...interface{}) error {
	return validationError(fmt.Sprintf(format, args...))
}
