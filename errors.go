package colormatch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned by Match when the catalog holds no readable record.
	ErrNoMatch = errors.New("no match: catalog is empty")

	// ErrClosed is returned when operating on a closed Matcher.
	ErrClosed = errors.New("matcher is closed")
)

// DegradeError records why the matcher fell back to the streaming scan.
//
// It is never returned to callers; it is passed to loggers and metrics
// collectors. The underlying error can be accessed via errors.Unwrap.
type DegradeError struct {
	Stage string
	cause error
}

func (e *DegradeError) Error() string {
	return fmt.Sprintf("degraded to fallback at %s: %v", e.Stage, e.cause)
}

func (e *DegradeError) Unwrap() error { return e.cause }

// Degrade stages.
const (
	StageHeadroom = "headroom"
	StageLoad     = "load"
	StageSizing   = "sizing"
	StageBuild    = "build"
)
