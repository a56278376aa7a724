package frame

import (
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/streamreader/types"
)

func newTestFrame() *Frame {
	// 2x2: blue, green / red, white
	return &Frame{
		Width:  2,
		Height: 2,
		Pixels: []byte{
			0xff, 0x00, 0x00, 0x00, 0xff, 0x00,
			0x00, 0x00, 0xff, 0xff, 0xff, 0xff,
		},
		PTS:      90000,
		HasPTS:   true,
		TimeBase: types.Rational{Num: 1, Den: 90000},
	}
}

func TestValidate(t *testing.T) {
	f := newTestFrame()
	require.NoError(t, f.Validate())

	f.Pixels = f.Pixels[:len(f.Pixels)-1]
	require.Error(t, f.Validate())

	require.Error(t, (&Frame{}).Validate())
}

func TestBGR(t *testing.T) {
	f := newTestFrame()
	b, g, r := f.BGR(0, 0)
	require.Equal(t, [3]uint8{0xff, 0, 0}, [3]uint8{b, g, r})
	b, g, r = f.BGR(0, 1)
	require.Equal(t, [3]uint8{0, 0, 0xff}, [3]uint8{b, g, r})
}

func TestImage(t *testing.T) {
	img := newTestFrame().Image()
	require.Equal(t, 2, img.Bounds().Dx())
	require.Equal(t, 2, img.Bounds().Dy())
	require.Equal(t, color.RGBA{B: 0xff, A: 0xff}, img.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{G: 0xff, A: 0xff}, img.RGBAAt(1, 0))
	require.Equal(t, color.RGBA{R: 0xff, A: 0xff}, img.RGBAAt(0, 1))
	require.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, img.RGBAAt(1, 1))
}

func TestTimestamp(t *testing.T) {
	f := newTestFrame()
	ts, ok := f.Timestamp()
	require.True(t, ok)
	require.Equal(t, time.Second, ts)

	f.HasPTS = false
	_, ok = f.Timestamp()
	require.False(t, ok)
}
