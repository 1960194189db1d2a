package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedEnvironment means the host cannot run the engine at all.
	ErrUnsupportedEnvironment = errors.New("unsupported environment")

	// ErrEngineUnavailable means no candidate source produced a working engine.
	ErrEngineUnavailable = errors.New("encoding engine unavailable")
)

// RemediationMessage is shown to users when the engine cannot be loaded.
const RemediationMessage = "Video compression is unavailable. Try uploading without compression or use a different browser."

// FailureKind classifies why a single source failed.
type FailureKind string

const (
	// FailureNotFound means the source had nothing at its location.
	FailureNotFound FailureKind = "not_found"
	// FailureNetwork covers transport errors and non-200 responses.
	FailureNetwork FailureKind = "network"
	// FailureIntegrity means the fetched bytes did not match the expected digest.
	FailureIntegrity FailureKind = "integrity"
	// FailureUnsupportedFormat means the binary could not be run as ffmpeg.
	FailureUnsupportedFormat FailureKind = "unsupported_format"
)

// SourceError records one failed source.
type SourceError struct {
	Source string
	Kind   FailureKind
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// UnavailableError is returned when the engine could not be loaded.
type UnavailableError struct {
	// Message is safe to show to end users.
	Message string
	// Attempts lists every source that was tried, in order.
	Attempts []*SourceError
	// Cause is set when initialization was cut short, e.g. by a deadline.
	Cause error
}

func (e *UnavailableError) Error() string {
	var b strings.Builder
	b.WriteString(ErrEngineUnavailable.Error())
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Attempts) > 0 {
		parts := make([]string, len(e.Attempts))
		for i, a := range e.Attempts {
			parts[i] = a.Error()
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, "; "))
	}
	return b.String()
}

// Unwrap exposes ErrEngineUnavailable and the cause to errors.Is.
func (e *UnavailableError) Unwrap() []error {
	errs := []error{ErrEngineUnavailable}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
