package convert

import (
	"errors"
	"net/http"

	"videoconverter/internal/services"
)

// FailureKind classifies why a conversion did not produce a result.
type FailureKind string

const (
	InvalidInput          FailureKind = "invalid_input"
	ConversionFailed      FailureKind = "conversion_failed"
	AudioExtractionFailed FailureKind = "audio_extraction_failed"
	DependencyUnavailable FailureKind = "dependency_unavailable"
	TranscriptionFailed   FailureKind = "transcription_failed"
	InternalFault         FailureKind = "internal_fault"
)

// HTTPStatus returns the response status for the kind.
func (k FailureKind) HTTPStatus() int {
	if k == InvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Failure is the error every pipeline operation returns. Message is safe to
// show to a client; Err carries the detail that belongs in logs.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return string(f.Kind) + ": " + f.Message + ": " + f.Err.Error()
	}
	return string(f.Kind) + ": " + f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

func newFailure(kind FailureKind, message string, err error) *Failure {
	if err == nil {
		switch kind {
		case InvalidInput:
			err = services.ErrValidation
		case DependencyUnavailable:
			err = services.ErrDependency
		}
	}
	return &Failure{Kind: kind, Message: message, Err: err}
}

// AsFailure extracts a *Failure from err. Anything else becomes an
// InternalFault with a generic message.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}
	return &Failure{Kind: InternalFault, Message: msgInternal, Err: err}
}

// KindOf returns the failure kind of err, or "" for nil.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	return AsFailure(err).Kind
}
