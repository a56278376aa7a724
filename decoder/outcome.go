package decoder

import (
	"fmt"

	"github.com/xaionaro-go/streamreader/frame"
)

type Outcome int

const (
	// OutcomeFrame means a new video frame was decoded.
	OutcomeFrame = Outcome(iota)

	// OutcomeNoFrame means the unit carried nothing to show (audio, no
	// pts, or the decoder needs more input). The stream is healthy.
	OutcomeNoFrame

	// OutcomeEndOfStream means the engine has no more data. It is not an error.
	OutcomeEndOfStream

	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFrame:
		return "frame"
	case OutcomeNoFrame:
		return "no_frame"
	case OutcomeEndOfStream:
		return "end_of_stream"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type Result struct {
	Outcome Outcome
	Frame   *frame.Frame
	Err     error
}

func (r Result) String() string {
	switch r.Outcome {
	case OutcomeFrame:
		return fmt.Sprintf("%s: %s", r.Outcome, r.Frame)
	case OutcomeError:
		return fmt.Sprintf("%s: %v", r.Outcome, r.Err)
	default:
		return r.Outcome.String()
	}
}
