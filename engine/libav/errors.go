package libav

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/streamreader/engine"
)

var (
	errNoEntry           = astiav.Error(-int(syscall.ENOENT))
	errConnectionRefused = astiav.Error(-int(syscall.ECONNREFUSED))
	errIO                = astiav.Error(-int(syscall.EIO))
)

// ErrAstiav is a libav failure of operation Op. It matches (errors.Is)
// both the libav error and the engine sentinel it was classified as.
type ErrAstiav struct {
	Op   string
	Kind error
	Err  error
}

func (e ErrAstiav) Error() string {
	if e.Kind == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e ErrAstiav) Unwrap() []error {
	if e.Kind == nil {
		return []error{e.Err}
	}
	return []error{e.Kind, e.Err}
}

func classifyOpenError(err error, timedOut bool) error {
	var kind error
	switch {
	case timedOut || errors.Is(err, astiav.ErrExit):
		kind = engine.ErrTimeout
	case errors.Is(err, errNoEntry),
		errors.Is(err, astiav.ErrHttpNotFound),
		errors.Is(err, astiav.ErrProtocolNotFound),
		errors.Is(err, astiav.ErrDemuxerNotFound):
		kind = engine.ErrNotFound
	case errors.Is(err, errConnectionRefused):
		kind = engine.ErrConnectionRefused
	}
	return ErrAstiav{Op: "open input", Kind: kind, Err: err}
}

func classifyReadError(err error, timedOut bool) error {
	var kind error
	switch {
	case errors.Is(err, astiav.ErrEof), errors.Is(err, errIO):
		kind = engine.ErrEndOfStream
	case errors.Is(err, astiav.ErrEagain):
		kind = engine.ErrTryAgain
	case timedOut || errors.Is(err, astiav.ErrExit):
		kind = engine.ErrTimeout
	case errors.Is(err, errConnectionRefused):
		kind = engine.ErrConnectionRefused
	}
	return ErrAstiav{Op: "read frame", Kind: kind, Err: err}
}

func classifyDecodeError(op string, err error) error {
	var kind error
	switch {
	case errors.Is(err, astiav.ErrEof):
		kind = engine.ErrEndOfStream
	case errors.Is(err, astiav.ErrEagain):
		kind = engine.ErrTryAgain
	}
	return ErrAstiav{Op: op, Kind: kind, Err: err}
}
