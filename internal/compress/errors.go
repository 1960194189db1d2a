package compress

import (
	"errors"

	"vidcompress/internal/engine"
	"vidcompress/internal/probe"
)

var (
	// ErrExecution means the encode job failed inside the engine.
	ErrExecution = errors.New("encode failed")

	// ErrEmptyOutput means the encode reported success but produced nothing.
	ErrEmptyOutput = errors.New("encode produced no output")

	// ErrTimeout means the encode did not finish within its time bound.
	ErrTimeout = errors.New("encode timed out")

	// ErrBelowThreshold means the input is too small to be worth compressing.
	// It is a skip rather than a failure.
	ErrBelowThreshold = errors.New("below compression threshold")
)

// Outcome labels.
const (
	ReasonSuccess                = "success"
	ReasonBelowThreshold         = "below_threshold"
	ReasonUnsupportedEnvironment = "unsupported_environment"
	ReasonEngineUnavailable      = "engine_unavailable"
	ReasonTimeout                = "timeout"
	ReasonMetadataRead           = "metadata_read"
	ReasonExecution              = "execution"
	ReasonEmptyOutput            = "empty_output"
	ReasonError                  = "error"
)

// Reason maps err to an outcome label. A nil error is a success.
func Reason(err error) string {
	switch {
	case err == nil:
		return ReasonSuccess
	case errors.Is(err, ErrBelowThreshold):
		return ReasonBelowThreshold
	case errors.Is(err, engine.ErrUnsupportedEnvironment):
		return ReasonUnsupportedEnvironment
	case errors.Is(err, engine.ErrEngineUnavailable):
		return ReasonEngineUnavailable
	case errors.Is(err, probe.ErrMetadataRead):
		return ReasonMetadataRead
	case errors.Is(err, ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrExecution):
		return ReasonExecution
	case errors.Is(err, ErrEmptyOutput):
		return ReasonEmptyOutput
	default:
		return ReasonError
	}
}
