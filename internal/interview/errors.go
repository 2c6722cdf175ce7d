package interview

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamGeneration means the generative backend call failed.
	ErrUpstreamGeneration = errors.New("upstream generation failure")
	// ErrMalformedResponse means the backend answered with text that does not
	// have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrValidation means required input fields are missing or invalid.
	ErrValidation = errors.New("validation failure")
	// ErrMediaAccess means a camera or microphone could not be used.
	ErrMediaAccess = errors.New("media access failure")
	// ErrUnsupportedCapability means a speech capability is absent.
	ErrUnsupportedCapability = errors.New("unsupported capability")
	ErrNotFound              = errors.New("not found")
)

// Failure texts shown in place of a question or report when generation fails.
const (
	QuestionFailureText     = "Failed to load question. Please try again."
	NextQuestionFailureText = "Failed to load next question. Please try again."
	ReportFailureText       = "Failed to generate report. Please try again."
)

// Validationf builds an ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Upstream tags err as an upstream generation failure while keeping the cause.
func Upstream(err error) error {
	if err == nil || errors.Is(err, ErrUpstreamGeneration) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamGeneration, err)
}

// IsGenerationFailure reports whether err is recoverable by retrying the
// same generation request.
func IsGenerationFailure(err error) bool {
	return errors.Is(err, ErrUpstreamGeneration) || errors.Is(err, ErrMalformedResponse)
}
