package domain

import (
	"errors"
	"fmt"
)

// ErrorKind tags which collaborator a submission failure came from
type ErrorKind string

const (
	ErrorKindAuthorization ErrorKind = "authorization"
	ErrorKindStorage       ErrorKind = "storage"
	ErrorKindMarketplace   ErrorKind = "marketplace"
	ErrorKindCancelled     ErrorKind = "cancelled"
)

// GenericFailureMessage is reported when a failure carries no message of its own.
const GenericFailureMessage = "submission failed"

var (
	ErrAuthorization = errors.New("authorization failed")
	ErrStorage       = errors.New("content store failed")
	ErrMarketplace   = errors.New("marketplace failed")
	ErrCancelled     = errors.New("submission cancelled")

	ErrInvalidInput         = errors.New("invalid submission input")
	ErrSubmissionInProgress = errors.New("submission already in progress")
)

var kindSentinels = map[ErrorKind]error{
	ErrorKindAuthorization: ErrAuthorization,
	ErrorKindStorage:       ErrStorage,
	ErrorKindMarketplace:   ErrMarketplace,
	ErrorKindCancelled:     ErrCancelled,
}

// SubmissionError is a failure of one orchestration step.
type SubmissionError struct {
	Kind ErrorKind
	Step string
	Err  error
}

// NewSubmissionError tags err with the kind and step that produced it.
func NewSubmissionError(kind ErrorKind, step string, err error) *SubmissionError {
	return &SubmissionError{Kind: kind, Step: step, Err: err}
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Step, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *SubmissionError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// Message returns the human-readable text reported to the consumer: the
// underlying cause's message, or GenericFailureMessage if there is none.
func (e *SubmissionError) Message() string {
	if e.Err == nil || e.Err.Error() == "" {
		return GenericFailureMessage
	}
	return e.Err.Error()
}

// FailureResult converts err into the result stored with an error status.
func FailureResult(err error) *SubmissionResult {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return &SubmissionResult{Message: subErr.Message(), ErrorKind: subErr.Kind}
	}
	if err == nil || err.Error() == "" {
		return &SubmissionResult{Message: GenericFailureMessage}
	}
	return &SubmissionResult{Message: err.Error()}
}
