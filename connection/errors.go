package connection

import (
	"errors"
	"fmt"

	"github.com/xaionaro-go/streamreader/engine"
)

type OpenErrorKind int

const (
	OpenErrorKindUnknown = OpenErrorKind(iota)
	OpenErrorKindNotFound
	OpenErrorKindConnectionRefused
)

func (k OpenErrorKind) String() string {
	switch k {
	case OpenErrorKindUnknown:
		return "unknown"
	case OpenErrorKindNotFound:
		return "not found"
	case OpenErrorKindConnectionRefused:
		return "connection refused"
	default:
		return fmt.Sprintf("OpenErrorKind(%d)", int(k))
	}
}

// OpenError is returned when a source cannot be opened.
type OpenError struct {
	Kind OpenErrorKind
	URL  string
	Err  error
}

func (e OpenError) Error() string {
	return fmt.Sprintf("unable to open '%s' (%s): %v", e.URL, e.Kind, e.Err)
}

func (e OpenError) Unwrap() error {
	return e.Err
}

func classifyOpenError(err error) OpenErrorKind {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return OpenErrorKindNotFound
	case errors.Is(err, engine.ErrConnectionRefused):
		return OpenErrorKindConnectionRefused
	default:
		return OpenErrorKindUnknown
	}
}
