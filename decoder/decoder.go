// Package decoder pulls encoded units from an engine handle and turns
// video units into BGR24 frames.
package decoder

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/streamreader/engine"
	"github.com/xaionaro-go/streamreader/frame"
	"github.com/xaionaro-go/streamreader/logger"
	"github.com/xaionaro-go/streamreader/types"
)

// Decoder reads one unit per ReadNext call. It is not safe for
// concurrent use, except for reading FrameNumber.
type Decoder struct {
	// FrameRate overrides the rate guessed by the engine when not zero.
	FrameRate types.Rational

	index *FrameIndex
}

func New() *Decoder {
	return &Decoder{
		index: NewFrameIndex(),
	}
}

// FrameNumber is the estimated index of the last returned frame, or
// FrameIndexUnknown.
func (d *Decoder) FrameNumber() int64 {
	return d.index.Load()
}

// Reset forgets the frame index, to be called when a new source is opened.
func (d *Decoder) Reset() {
	d.index.reset()
}

// ReadNext pulls the next unit from h and decodes it if it is a video
// unit with a timestamp.
//
// Only the first frame a unit decodes into is returned, the others are
// released. The pull blocks for up to the read timeout of h; ctx is not
// used for cancellation.
func (d *Decoder) ReadNext(
	ctx context.Context,
	h engine.Handle,
) (_ret Result) {
	logger.Tracef(ctx, "ReadNext")
	defer func() { logger.Tracef(ctx, "/ReadNext: %s", _ret) }()

	if h == nil {
		return Result{Outcome: OutcomeError, Err: fmt.Errorf("the source is not open")}
	}

	unit, err := h.NextUnit(ctx)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrEndOfStream):
		logger.Debugf(ctx, "end of stream")
		return Result{Outcome: OutcomeEndOfStream}
	case errors.Is(err, engine.ErrTryAgain):
		return Result{Outcome: OutcomeNoFrame}
	default:
		err = fmt.Errorf("unable to read the next unit: %w", err)
		logger.Errorf(ctx, "%v", err)
		return Result{Outcome: OutcomeError, Err: err}
	}
	defer unit.Release()

	pts, hasPTS := unit.PTS()
	ctx = belt.WithField(ctx, "stream_index", unit.StreamIndex())
	ctx = belt.WithField(ctx, "pts", pts)
	ctx = belt.WithField(ctx, "time_base", unit.TimeBase().String())

	switch {
	case unit.MediaType() == types.MediaTypeAudio:
		logger.Tracef(ctx, "skipping an audio unit")
		return Result{Outcome: OutcomeNoFrame}
	case unit.MediaType() != types.MediaTypeVideo:
		logger.Tracef(ctx, "skipping a %s unit", unit.MediaType())
		return Result{Outcome: OutcomeNoFrame}
	case !hasPTS:
		logger.Tracef(ctx, "skipping a video unit without pts")
		return Result{Outcome: OutcomeNoFrame}
	}

	return d.decode(ctx, h, unit)
}

func (d *Decoder) decode(
	ctx context.Context,
	h engine.Handle,
	unit engine.Unit,
) Result {
	rawFrames, err := h.DecodeUnit(ctx, unit)
	defer func() {
		for _, f := range rawFrames {
			f.Release()
		}
	}()
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrEndOfStream):
		logger.Debugf(ctx, "the decoder is drained")
		return Result{Outcome: OutcomeEndOfStream}
	case errors.Is(err, engine.ErrTryAgain):
		return Result{Outcome: OutcomeNoFrame}
	default:
		err = fmt.Errorf("unable to decode the unit: %w", err)
		logger.Errorf(ctx, "%v", err)
		return Result{Outcome: OutcomeError, Err: err}
	}
	if len(rawFrames) == 0 {
		return Result{Outcome: OutcomeNoFrame}
	}
	if len(rawFrames) > 1 {
		logger.Tracef(ctx, "dropping %d extra frames of the unit", len(rawFrames)-1)
	}

	raw := rawFrames[0]
	pixels, err := raw.ToBGR24(ctx)
	if err != nil {
		err = fmt.Errorf("unable to convert the frame to BGR24: %w", err)
		logger.Errorf(ctx, "%v", err)
		return Result{Outcome: OutcomeError, Err: err}
	}

	pts, hasPTS := raw.PTS()
	timeBase := raw.TimeBase()
	if !hasPTS {
		pts, hasPTS = unit.PTS()
	}
	if timeBase.IsZero() {
		timeBase = unit.TimeBase()
	}

	f := &frame.Frame{
		Pixels:   pixels,
		Width:    raw.Width(),
		Height:   raw.Height(),
		PTS:      pts,
		HasPTS:   hasPTS,
		TimeBase: timeBase,
	}
	if err := f.Validate(); err != nil {
		err = fmt.Errorf("the engine produced an invalid frame: %w", err)
		logger.Errorf(ctx, "%v", err)
		return Result{Outcome: OutcomeError, Err: err}
	}
	f.Number = d.nextIndex(ctx, unit, pts, timeBase)
	return Result{Outcome: OutcomeFrame, Frame: f}
}

func (d *Decoder) nextIndex(
	ctx context.Context,
	unit engine.Unit,
	pts int64,
	timeBase types.Rational,
) int64 {
	rate := d.FrameRate
	if rate.IsZero() {
		rate = unit.GuessedRate()
	}
	estimate, ok := EstimateFrameIndex(rate, pts, timeBase)
	if !ok {
		logger.Tracef(ctx, "the rate is unknown, counting frames")
		return d.index.increment()
	}
	return d.index.set(estimate)
}
