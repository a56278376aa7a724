package engine

import (
	"errors"
	"io"
)

// Engines wrap their native errors so that errors.Is matches these.
var (
	ErrNotFound          = errors.New("source not found")
	ErrConnectionRefused = errors.New("connection refused")
	ErrTimeout           = errors.New("timed out")

	// ErrTryAgain means no data is available right now (non-blocking sources).
	ErrTryAgain = errors.New("resource temporarily unavailable")

	// ErrEndOfStream is io.EOF, so code checking either keeps working.
	ErrEndOfStream = io.EOF
)
