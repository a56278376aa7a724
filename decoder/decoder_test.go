package decoder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/streamreader/engine"
	"github.com/xaionaro-go/streamreader/engine/enginetest"
	"github.com/xaionaro-go/streamreader/types"
)

var (
	rate30 = types.Rational{Num: 30, Den: 1}
	tb30   = types.Rational{Num: 1, Den: 30}
)

func open(t *testing.T, e *enginetest.Engine) *enginetest.Handle {
	h, err := e.Open(context.Background(), engine.OpenRequest{URL: "test://"})
	require.NoError(t, err)
	return h.(*enginetest.Handle)
}

func TestReadNextFrame(t *testing.T) {
	ctx := context.Background()
	step := enginetest.VideoStep(2, tb30, rate30)
	step.Frames[0].Pixels = []byte{
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12,
		13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24,
	}
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{step}})

	d := New()
	require.Equal(t, FrameIndexUnknown, d.FrameNumber())

	res := d.ReadNext(ctx, h)
	require.Equal(t, OutcomeFrame, res.Outcome, "%v", res.Err)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Frame)
	require.Equal(t, int64(2), res.Frame.Number)
	require.Equal(t, int64(2), d.FrameNumber())
	require.Equal(t, 4, res.Frame.Width)
	require.Equal(t, 2, res.Frame.Height)
	require.Equal(t, step.Frames[0].Pixels, res.Frame.Pixels)
	require.Equal(t, tb30, res.Frame.TimeBase)

	require.True(t, step.Unit.Released)
	require.True(t, step.Frames[0].Released)

	// the frame does not alias engine memory
	step.Frames[0].Pixels[0] = 0xff
	require.Equal(t, byte(1), res.Frame.Pixels[0])
}

func TestReadNextMonotonicIndex(t *testing.T) {
	ctx := context.Background()
	var steps []enginetest.Step
	for _, pts := range []int64{0, 1, 1, 2, 5, 5, 6} {
		steps = append(steps, enginetest.VideoStep(pts, tb30, rate30))
	}
	h := open(t, &enginetest.Engine{Steps: steps})

	d := New()
	prev := FrameIndexUnknown
	for range steps {
		res := d.ReadNext(ctx, h)
		require.Equal(t, OutcomeFrame, res.Outcome)
		require.GreaterOrEqual(t, res.Frame.Number, prev)
		prev = res.Frame.Number
	}
	require.Equal(t, int64(6), prev)
}

func TestReadNextTimestampJumpsBack(t *testing.T) {
	ctx := context.Background()
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.VideoStep(100, tb30, rate30),
		enginetest.VideoStep(101, tb30, rate30),
		enginetest.VideoStep(1, tb30, rate30),
		enginetest.VideoStep(2, tb30, rate30),
	}})

	d := New()
	for _, expected := range []int64{100, 101, 1, 2} {
		res := d.ReadNext(ctx, h)
		require.Equal(t, OutcomeFrame, res.Outcome)
		require.Equal(t, expected, res.Frame.Number)
		require.Equal(t, expected, d.FrameNumber())
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.VideoStep(100, tb30, rate30),
	}})

	d := New()
	require.Equal(t, OutcomeFrame, d.ReadNext(ctx, h).Outcome)
	require.Equal(t, int64(100), d.FrameNumber())
	d.Reset()
	require.Equal(t, FrameIndexUnknown, d.FrameNumber())
}

func TestReadNextAudioOnly(t *testing.T) {
	ctx := context.Background()
	var steps []enginetest.Step
	for i := 0; i < 10; i++ {
		steps = append(steps, enginetest.AudioStep(int64(i*1024)))
	}
	h := open(t, &enginetest.Engine{Steps: steps})

	d := New()
	for range steps {
		res := d.ReadNext(ctx, h)
		require.Equal(t, OutcomeNoFrame, res.Outcome)
		require.Nil(t, res.Frame)
	}
	require.Zero(t, h.Decoded)
	require.Equal(t, FrameIndexUnknown, d.FrameNumber())
	for _, step := range steps {
		require.True(t, step.Unit.Released)
	}
}

func TestReadNextSkipsUnusableUnits(t *testing.T) {
	ctx := context.Background()
	noPTS := enginetest.VideoStep(0, tb30, rate30)
	noPTS.Unit.HasPts = false
	data := enginetest.VideoStep(1, tb30, rate30)
	data.Unit.Type = types.MediaTypeData
	noFrames := enginetest.VideoStep(2, tb30, rate30)
	noFrames.Frames = nil

	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{noPTS, data, noFrames}})
	d := New()
	for i := 0; i < 3; i++ {
		require.Equal(t, OutcomeNoFrame, d.ReadNext(ctx, h).Outcome)
	}
	require.Equal(t, 1, h.Decoded)
	require.True(t, noPTS.Unit.Released)
	require.True(t, data.Unit.Released)
	require.True(t, noFrames.Unit.Released)
}

func TestReadNextEndOfStream(t *testing.T) {
	ctx := context.Background()
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.VideoStep(0, tb30, rate30),
	}})

	d := New()
	require.Equal(t, OutcomeFrame, d.ReadNext(ctx, h).Outcome)
	for i := 0; i < 3; i++ {
		res := d.ReadNext(ctx, h)
		require.Equal(t, OutcomeEndOfStream, res.Outcome)
		require.NoError(t, res.Err)
	}
	require.Equal(t, int64(0), d.FrameNumber())
}

func TestReadNextDecoderExhausted(t *testing.T) {
	ctx := context.Background()
	step := enginetest.VideoStep(0, tb30, rate30)
	step.DecodeErr = engine.ErrEndOfStream
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{step}})

	res := New().ReadNext(ctx, h)
	require.Equal(t, OutcomeEndOfStream, res.Outcome)
	require.True(t, step.Unit.Released)
}

func TestReadNextTryAgain(t *testing.T) {
	ctx := context.Background()
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.ErrStep(engine.ErrTryAgain),
		enginetest.VideoStep(1, tb30, rate30),
	}})

	d := New()
	require.Equal(t, OutcomeNoFrame, d.ReadNext(ctx, h).Outcome)
	require.Equal(t, OutcomeFrame, d.ReadNext(ctx, h).Outcome)
}

func TestReadNextErrors(t *testing.T) {
	ctx := context.Background()
	readErr := errors.New("connection reset by peer")
	decodeErr := errors.New("invalid data found when processing input")
	convertErr := errors.New("no scaler")

	badDecode := enginetest.VideoStep(1, tb30, rate30)
	badDecode.DecodeErr = decodeErr
	badConvert := enginetest.VideoStep(2, tb30, rate30)
	badConvert.Frames[0].ConvertErr = convertErr
	badSize := enginetest.VideoStep(3, tb30, rate30)
	badSize.Frames[0].Pixels = []byte{1, 2, 3}

	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.ErrStep(readErr),
		badDecode,
		badConvert,
		badSize,
		enginetest.ErrStep(engine.ErrTimeout),
	}})

	d := New()
	for _, expected := range []error{readErr, decodeErr, convertErr, nil, engine.ErrTimeout} {
		res := d.ReadNext(ctx, h)
		require.Equal(t, OutcomeError, res.Outcome)
		require.Nil(t, res.Frame)
		require.Error(t, res.Err)
		if expected != nil {
			require.ErrorIs(t, res.Err, expected)
		}
	}
	require.Equal(t, FrameIndexUnknown, d.FrameNumber(), "errors do not advance the index")
	require.True(t, badConvert.Frames[0].Released)
	require.True(t, badDecode.Unit.Released)
}

func TestReadNextNilHandle(t *testing.T) {
	res := New().ReadNext(context.Background(), nil)
	require.Equal(t, OutcomeError, res.Outcome)
	require.Error(t, res.Err)
}

func TestReadNextFirstFrameOnly(t *testing.T) {
	ctx := context.Background()
	step := enginetest.VideoStep(3, tb30, rate30)
	extra := &enginetest.RawFrame{W: 4, H: 2, Pts: 4, HasPts: true, Base: tb30}
	step.Frames = append(step.Frames, extra)
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{step}})

	res := New().ReadNext(ctx, h)
	require.Equal(t, OutcomeFrame, res.Outcome)
	require.Equal(t, int64(3), res.Frame.PTS)
	require.True(t, extra.Released)
}

func TestReadNextFrameRateOverride(t *testing.T) {
	ctx := context.Background()
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.VideoStep(30, tb30, rate30),
	}})

	d := New()
	d.FrameRate = types.Rational{Num: 60, Den: 1}
	res := d.ReadNext(ctx, h)
	require.Equal(t, OutcomeFrame, res.Outcome)
	require.Equal(t, int64(60), res.Frame.Number)
}

func TestReadNextUnknownRateCounts(t *testing.T) {
	ctx := context.Background()
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{
		enginetest.VideoStep(100, tb30, types.Rational{}),
		enginetest.VideoStep(200, tb30, types.Rational{}),
	}})

	d := New()
	require.Equal(t, int64(0), d.ReadNext(ctx, h).Frame.Number)
	require.Equal(t, int64(1), d.ReadNext(ctx, h).Frame.Number)
}

func TestReadNextFallsBackToUnitPTS(t *testing.T) {
	ctx := context.Background()
	step := enginetest.VideoStep(9, tb30, rate30)
	step.Frames[0].HasPts = false
	step.Frames[0].Pts = 0
	step.Frames[0].Base = types.Rational{}
	h := open(t, &enginetest.Engine{Steps: []enginetest.Step{step}})

	res := New().ReadNext(ctx, h)
	require.Equal(t, OutcomeFrame, res.Outcome)
	require.Equal(t, int64(9), res.Frame.PTS)
	require.True(t, res.Frame.HasPTS)
	require.Equal(t, tb30, res.Frame.TimeBase)
	require.Equal(t, int64(9), res.Frame.Number)
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "end_of_stream", OutcomeEndOfStream.String())
	require.Equal(t, "Outcome(42)", Outcome(42).String())
}
