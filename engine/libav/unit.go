package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/streamreader/avconv"
	"github.com/xaionaro-go/streamreader/engine"
	"github.com/xaionaro-go/streamreader/types"
)

type streamInfo struct {
	*astiav.Stream
	MediaType   types.MediaType
	TimeBase    types.Rational
	GuessedRate types.Rational
}

type unit struct {
	packet *astiav.Packet
	stream *streamInfo
	input  *Input
}

var _ engine.Unit = (*unit)(nil)

func (u *unit) StreamIndex() int {
	return u.packet.StreamIndex()
}

func (u *unit) MediaType() types.MediaType {
	if u.stream == nil {
		return types.MediaTypeUnknown
	}
	return u.stream.MediaType
}

func (u *unit) PTS() (int64, bool) {
	pts := u.packet.Pts()
	return pts, avconv.HasPTS(pts)
}

func (u *unit) TimeBase() types.Rational {
	if u.stream == nil {
		return types.Rational{}
	}
	return u.stream.TimeBase
}

func (u *unit) GuessedRate() types.Rational {
	if u.stream == nil {
		return types.Rational{}
	}
	return u.stream.GuessedRate
}

func (u *unit) Release() {
	if u.packet == nil {
		return
	}
	packetPool.Put(u.packet)
	u.packet = nil
}

func (u *unit) String() string {
	return fmt.Sprintf("Unit(stream:%d, %s, pts:%d, size:%d)", u.packet.StreamIndex(), u.MediaType(), u.packet.Pts(), u.packet.Size())
}

type rawFrame struct {
	frame    *astiav.Frame
	timeBase types.Rational
	scaler   *bgr24Scaler
}

var _ engine.RawFrame = (*rawFrame)(nil)

func (f *rawFrame) Width() int {
	return f.frame.Width()
}

func (f *rawFrame) Height() int {
	return f.frame.Height()
}

func (f *rawFrame) PTS() (int64, bool) {
	pts := f.frame.Pts()
	return pts, avconv.HasPTS(pts)
}

func (f *rawFrame) TimeBase() types.Rational {
	return f.timeBase
}

func (f *rawFrame) Release() {
	if f.frame == nil {
		return
	}
	framePool.Put(f.frame)
	f.frame = nil
}

func (f *rawFrame) ToBGR24(ctx context.Context) ([]byte, error) {
	if f.frame == nil {
		return nil, fmt.Errorf("the frame is already released")
	}
	return f.scaler.Convert(ctx, f.frame)
}
