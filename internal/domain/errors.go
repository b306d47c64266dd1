package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session id has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrCatalogNotFound indicates the question catalog could not be loaded.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrQuestionNotFound indicates an answered question id is not the current one.
	ErrQuestionNotFound = errors.New("question not found at current step")
	// ErrOptionNotFound indicates a submitted value matches no option of the question.
	ErrOptionNotFound = errors.New("option value not found for question")
	// ErrInvalidTransition guards against events arriving in the wrong step.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrInvalidEmail is the inline validation error on the email-capture step.
	ErrInvalidEmail = errors.New("please enter a valid email address")
)
