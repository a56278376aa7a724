// Package frame defines the decoded video frame handed to callers.
package frame

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/streamreader/ts"
	"github.com/xaionaro-go/streamreader/types"
)

const BytesPerPixel = 3

// Frame is a decoded picture in packed BGR24 (Height × Width × 3, no row
// padding). The caller owns Pixels.
type Frame struct {
	Pixels []byte
	Width  int
	Height int

	// Number is the frame index estimated from the timestamp and the stream
	// rate; see decoder.EstimateFrameIndex.
	Number int64

	PTS      int64
	HasPTS   bool
	TimeBase types.Rational
}

func (f *Frame) Stride() int {
	return f.Width * BytesPerPixel
}

func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if expected := f.Height * f.Stride(); len(f.Pixels) != expected {
		return fmt.Errorf("a %dx%d BGR24 frame needs %d bytes, got %d", f.Width, f.Height, expected, len(f.Pixels))
	}
	return nil
}

// BGR returns the color channels of the pixel at (x, y).
func (f *Frame) BGR(x, y int) (b, g, r uint8) {
	offset := y*f.Stride() + x*BytesPerPixel
	return f.Pixels[offset], f.Pixels[offset+1], f.Pixels[offset+2]
}

// Timestamp is the presentation time; ok is false if the frame has no pts.
func (f *Frame) Timestamp() (time.Duration, bool) {
	if !f.HasPTS || f.TimeBase.IsZero() {
		return 0, false
	}
	return ts.ToDuration(f.PTS, f.TimeBase), true
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame(#%d, %dx%d, pts:%d)", f.Number, f.Width, f.Height, f.PTS)
}
