// Package enginetest provides a scripted engine.Engine for tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/xaionaro-go/streamreader/engine"
	"github.com/xaionaro-go/streamreader/types"
)

// Step is what one NextUnit call yields: either a unit (plus what decoding
// it yields) or an error.
type Step struct {
	Unit      *Unit
	Err       error
	Frames    []*RawFrame
	DecodeErr error
}

// Engine opens Handles that replay Steps. Once the steps are exhausted
// NextUnit returns Exhausted (engine.ErrEndOfStream if nil).
type Engine struct {
	Locker    sync.Mutex
	OpenErr   error
	Steps     []Step
	Exhausted error
	CloseErr  error

	Requests []engine.OpenRequest
	Handles  []*Handle
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) Open(
	ctx context.Context,
	req engine.OpenRequest,
) (engine.Handle, error) {
	e.Locker.Lock()
	defer e.Locker.Unlock()
	e.Requests = append(e.Requests, req)
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	h := &Handle{
		Steps:     e.Steps,
		Exhausted: e.Exhausted,
		CloseErr:  e.CloseErr,
	}
	e.Handles = append(e.Handles, h)
	return h, nil
}

func (e *Engine) LastHandle() *Handle {
	e.Locker.Lock()
	defer e.Locker.Unlock()
	if len(e.Handles) == 0 {
		return nil
	}
	return e.Handles[len(e.Handles)-1]
}

type Handle struct {
	Steps      []Step
	Exhausted  error
	CloseErr   error
	Position   int
	CloseCount int
	Decoded    int
}

var _ engine.Handle = (*Handle)(nil)

func (h *Handle) NextUnit(ctx context.Context) (engine.Unit, error) {
	if h.CloseCount > 0 {
		return nil, fmt.Errorf("the handle is closed")
	}
	if h.Position >= len(h.Steps) {
		if h.Exhausted != nil {
			return nil, h.Exhausted
		}
		return nil, engine.ErrEndOfStream
	}
	step := &h.Steps[h.Position]
	h.Position++
	if step.Err != nil {
		return nil, step.Err
	}
	step.Unit.step = step
	return step.Unit, nil
}

func (h *Handle) DecodeUnit(ctx context.Context, in engine.Unit) ([]engine.RawFrame, error) {
	u, ok := in.(*Unit)
	if !ok || u.step == nil {
		return nil, fmt.Errorf("foreign unit %T", in)
	}
	h.Decoded++
	if u.step.DecodeErr != nil {
		return nil, u.step.DecodeErr
	}
	frames := make([]engine.RawFrame, 0, len(u.step.Frames))
	for _, f := range u.step.Frames {
		frames = append(frames, f)
	}
	return frames, nil
}

func (h *Handle) Close(ctx context.Context) error {
	h.CloseCount++
	return h.CloseErr
}

type Unit struct {
	Stream   int
	Type     types.MediaType
	Pts      int64
	HasPts   bool
	Base     types.Rational
	Rate     types.Rational
	Released bool

	step *Step
}

var _ engine.Unit = (*Unit)(nil)

func (u *Unit) StreamIndex() int            { return u.Stream }
func (u *Unit) MediaType() types.MediaType  { return u.Type }
func (u *Unit) PTS() (int64, bool)          { return u.Pts, u.HasPts }
func (u *Unit) TimeBase() types.Rational    { return u.Base }
func (u *Unit) GuessedRate() types.Rational { return u.Rate }
func (u *Unit) Release()                    { u.Released = true }

type RawFrame struct {
	W, H       int
	Pts        int64
	HasPts     bool
	Base       types.Rational
	Pixels     []byte
	ConvertErr error
	Released   bool
}

var _ engine.RawFrame = (*RawFrame)(nil)

func (f *RawFrame) Width() int               { return f.W }
func (f *RawFrame) Height() int              { return f.H }
func (f *RawFrame) PTS() (int64, bool)       { return f.Pts, f.HasPts }
func (f *RawFrame) TimeBase() types.Rational { return f.Base }
func (f *RawFrame) Release()                 { f.Released = true }

func (f *RawFrame) ToBGR24(ctx context.Context) ([]byte, error) {
	if f.ConvertErr != nil {
		return nil, f.ConvertErr
	}
	if f.Pixels != nil {
		return append([]byte(nil), f.Pixels...), nil
	}
	return make([]byte, f.W*f.H*3), nil
}

// VideoStep is a video unit at pts (time base tb, guessed rate) decoding into one frame.
func VideoStep(pts int64, tb, rate types.Rational) Step {
	return Step{
		Unit: &Unit{Type: types.MediaTypeVideo, Pts: pts, HasPts: true, Base: tb, Rate: rate},
		Frames: []*RawFrame{
			{W: 4, H: 2, Pts: pts, HasPts: true, Base: tb},
		},
	}
}

func AudioStep(pts int64) Step {
	return Step{
		Unit: &Unit{Stream: 1, Type: types.MediaTypeAudio, Pts: pts, HasPts: true, Base: types.Rational{Num: 1, Den: 48000}},
	}
}

func ErrStep(err error) Step {
	return Step{Err: err}
}
