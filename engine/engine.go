// Package engine defines the capabilities streamreader needs from a
// demuxing/decoding engine, so that the engine is a pluggable dependency.
package engine

import (
	"context"
	"time"

	"github.com/xaionaro-go/secret"
	"github.com/xaionaro-go/streamreader/types"
)

type OpenRequest struct {
	URL     string
	AuthKey secret.String
	Options types.DictionaryItems

	// ConnectTimeout bounds Open; ReadTimeout bounds every NextUnit.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

type Engine interface {
	Open(ctx context.Context, req OpenRequest) (Handle, error)
}

// Handle is an opened source. It is not safe for concurrent use.
type Handle interface {
	types.Closer

	// NextUnit blocks until the next encoded unit is demuxed.
	NextUnit(ctx context.Context) (Unit, error)

	// DecodeUnit decodes a unit previously returned by NextUnit into
	// zero or more raw frames. The caller releases the unit and the frames.
	DecodeUnit(ctx context.Context, unit Unit) ([]RawFrame, error)
}

// Unit is one encoded packet of an elementary stream.
type Unit interface {
	StreamIndex() int
	MediaType() types.MediaType
	PTS() (int64, bool)
	TimeBase() types.Rational

	// GuessedRate is the engine's estimate of the stream's frames per second;
	// zero if unknown.
	GuessedRate() types.Rational
	Release()
}

type RawFrame interface {
	Width() int
	Height() int
	PTS() (int64, bool)
	TimeBase() types.Rational

	// ToBGR24 returns a freshly allocated, tightly packed BGR24 copy of the frame.
	ToBGR24(ctx context.Context) ([]byte, error)
	Release()
}
