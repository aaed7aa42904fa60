package services

import (
	"errors"
	"strings"
)

// Markers classify failures without string matching. Every error produced by
// Wrap matches exactly one of them through errors.Is.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrDependency    = errors.New("dependency unavailable")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// markers is ordered by precedence for Marker.
var markers = []error{ErrValidation, ErrDependency, ErrTimeout, ErrExternalTool, ErrConfiguration, ErrNotFound, ErrTransient}

// ServiceError is a classified failure raised at a named pipeline stage.
type ServiceError struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Err       error
}

// Wrap tags err with marker and the stage/operation it came from. A nil
// marker means ErrTransient. err may be nil.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &ServiceError{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// Error renders "marker: stage: operation: message: cause", skipping blanks.
func (e *ServiceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Marker.Error())
	b.WriteString(": ")
	detail := false
	for _, part := range []string{e.Stage, e.Operation, e.Message} {
		if part == "" {
			continue
		}
		if detail {
			b.WriteString(": ")
		}
		b.WriteString(part)
		detail = true
	}
	if !detail {
		b.WriteString("service failure")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the marker so errors.Is(err, ErrValidation) works through wrapping.
func (e *ServiceError) Is(target error) bool { return target == e.Marker }

func (e *ServiceError) Unwrap() error { return e.Err }

// Marker returns the sentinel the error was tagged with, or nil when the error
// carries none of the known markers.
func Marker(err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range markers {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}
