package libav

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/secret"
	"github.com/xaionaro-go/streamreader/engine"
	"github.com/xaionaro-go/streamreader/engine/libav/libavtest"
	"github.com/xaionaro-go/streamreader/types"
)

func openRequest(url string) engine.OpenRequest {
	return engine.OpenRequest{
		URL:            url,
		AuthKey:        secret.New(""),
		ConnectTimeout: time.Second,
		ReadTimeout:    100 * time.Millisecond,
		Options: types.DictionaryItems{
			{Key: "buffer_size", Value: "256000"},
			{Key: "gen_pts", Value: "GENPTS"},
		},
	}
}

func TestOpenNonexistentFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "does-not-exist.mp4")

	h, err := New().Open(ctx, openRequest(path))
	require.Error(t, err)
	require.Nil(t, h)
	require.True(t, errors.Is(err, engine.ErrNotFound), "got: %v", err)
}

func TestOpenEmptyURL(t *testing.T) {
	_, err := OpenInput(context.Background(), openRequest(""))
	require.Error(t, err)
}

func TestOpenUnknownFormat(t *testing.T) {
	req := openRequest(filepath.Join(t.TempDir(), "a.bin"))
	req.Options = append(req.Options, types.DictionaryItem{Key: "f", Value: "no-such-format"})
	_, err := OpenInput(context.Background(), req)
	require.Error(t, err)
	require.True(t, errors.Is(err, engine.ErrNotFound), "got: %v", err)
}

func TestClassifyReadError(t *testing.T) {
	for _, tc := range []struct {
		err      error
		timedOut bool
		expected error
	}{
		{err: astiav.ErrEof, expected: engine.ErrEndOfStream},
		{err: errIO, expected: engine.ErrEndOfStream},
		{err: astiav.ErrEagain, expected: engine.ErrTryAgain},
		{err: astiav.ErrExit, expected: engine.ErrTimeout},
		{err: astiav.ErrInvaliddata, timedOut: true, expected: engine.ErrTimeout},
		{err: errConnectionRefused, expected: engine.ErrConnectionRefused},
	} {
		err := classifyReadError(tc.err, tc.timedOut)
		require.True(t, errors.Is(err, tc.expected), "%v: got %v", tc.err, err)
		require.True(t, errors.Is(err, tc.err), "%v: the cause is lost: %v", tc.err, err)
	}

	err := classifyReadError(astiav.ErrInvaliddata, false)
	for _, sentinel := range []error{engine.ErrEndOfStream, engine.ErrTryAgain, engine.ErrTimeout, engine.ErrNotFound} {
		require.False(t, errors.Is(err, sentinel), "%v", sentinel)
	}
}

func TestClassifyOpenError(t *testing.T) {
	require.True(t, errors.Is(classifyOpenError(errNoEntry, false), engine.ErrNotFound))
	require.True(t, errors.Is(classifyOpenError(astiav.ErrHttpNotFound, false), engine.ErrNotFound))
	require.True(t, errors.Is(classifyOpenError(errConnectionRefused, false), engine.ErrConnectionRefused))
	require.True(t, errors.Is(classifyOpenError(astiav.ErrExit, true), engine.ErrTimeout))

	wrapped := fmt.Errorf("unable to open input: %w", classifyOpenError(errConnectionRefused, false))
	var avErr ErrAstiav
	require.True(t, errors.As(wrapped, &avErr))
	require.Equal(t, "open input", avErr.Op)
}

func TestDeadline(t *testing.T) {
	fc := astiav.AllocFormatContext()
	require.NotNil(t, fc)
	defer fc.Free()

	d := newDeadline(fc)
	d.Arm(time.Hour)
	require.False(t, d.Disarm())

	d.Arm(time.Millisecond)
	require.Eventually(t, d.fired.Load, time.Second, time.Millisecond)
	require.True(t, d.Disarm())

	d.Arm(time.Hour)
	require.False(t, d.Disarm(), "re-arming must reset the fired flag")
}

func TestDeadlineStaleTimer(t *testing.T) {
	var interrupts, resumes int
	d := &deadline{
		interrupt: func() { interrupts++ },
		resume:    func() { resumes++ },
	}

	d.Arm(time.Hour)
	stale := d.generation
	require.False(t, d.Disarm())

	// the callback of the first timer runs late, after the next Arm
	d.Arm(time.Hour)
	require.False(t, d.expire(stale))
	require.Zero(t, interrupts)
	require.False(t, d.Disarm())

	d.Arm(time.Hour)
	require.True(t, d.expire(d.generation))
	require.Equal(t, 1, interrupts)
	require.True(t, d.Disarm())
	require.Equal(t, 3, resumes)
}

func TestReadLocalFile(t *testing.T) {
	ctx := context.Background()
	const width, height = 64, 48
	path := filepath.Join(t.TempDir(), "sample.mkv")
	libavtest.WriteVideo(t, path, width, height, 60)

	h, err := New().Open(ctx, openRequest(path))
	require.NoError(t, err)
	defer func() { require.NoError(t, h.Close(ctx)) }()

	var (
		frames   int
		prevPTS  int64 = -1
		timeBase types.Rational
	)
	for {
		u, err := h.NextUnit(ctx)
		if errors.Is(err, engine.ErrEndOfStream) {
			break
		}
		require.NoError(t, err)
		require.Equal(t, types.MediaTypeVideo, u.MediaType())
		_, hasPTS := u.PTS()
		require.True(t, hasPTS)
		require.False(t, u.GuessedRate().IsZero())
		timeBase = u.TimeBase()

		rawFrames, err := h.DecodeUnit(ctx, u)
		u.Release()
		require.NoError(t, err)
		for _, raw := range rawFrames {
			require.Equal(t, width, raw.Width())
			require.Equal(t, height, raw.Height())
			pts, ok := raw.PTS()
			require.True(t, ok)
			require.Greater(t, pts, prevPTS)
			prevPTS = pts

			pixels, err := raw.ToBGR24(ctx)
			require.NoError(t, err)
			require.Len(t, pixels, width*height*3)
			raw.Release()
			frames++
		}
	}
	require.NotZero(t, frames)
	require.False(t, timeBase.IsZero())

	_, err = h.NextUnit(ctx)
	require.ErrorIs(t, err, engine.ErrEndOfStream)
}
