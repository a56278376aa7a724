package streamreader

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/streamreader/connection"
	"github.com/xaionaro-go/streamreader/decoder"
	"github.com/xaionaro-go/streamreader/frame"
	"github.com/xaionaro-go/streamreader/internal"
	"github.com/xaionaro-go/streamreader/logger"
	"github.com/xaionaro-go/streamreader/source"
	"github.com/xaionaro-go/streamreader/urltools"
)

type StreamReader struct {
	config     config
	connection *connection.Manager
	decoder    *decoder.Decoder
	url        string
}

// New builds a reader for path and tries to open it. It never fails:
// check IsOpened to find out if the source was opened.
func New(
	ctx context.Context,
	path string,
	opts ...Option,
) *StreamReader {
	cfg := Options(opts).config()
	r := &StreamReader{
		config:     cfg,
		connection: connection.NewManager(cfg.Engine),
		decoder:    decoder.New(),
	}
	internal.SetFinalizerClose(ctx, r)
	r.Open(ctx, path)
	return r
}

// Open closes the current source (if any) and opens path with the options
// given to New. It reports whether the source is open.
func (r *StreamReader) Open(
	ctx context.Context,
	path string,
) (_ret bool) {
	r.url = urltools.Redact(path)
	ctx = belt.WithField(ctx, "url", r.url)
	logger.Debugf(ctx, "Open")
	defer func() { logger.Debugf(ctx, "/Open: %v", _ret) }()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf(ctx, "got panic while opening: %v", rec)
			r.connection.Reset(ctx)
			_ret = false
		}
	}()

	r.decoder.Reset()
	srcCfg, err := source.New(path, r.config.SourceOptions...)
	if err != nil {
		r.connection.Reset(ctx)
		logger.Errorf(ctx, "invalid source configuration: %v", err)
		return false
	}
	r.decoder.FrameRate, _ = srcCfg.FrameRate()

	if err := r.connection.Open(ctx, srcCfg); err != nil {
		return false
	}
	return true
}

// Read pulls the next unit and decodes it. ok is false only on a
// failure. A nil frame with ok == true means either that the unit had
// no picture (audio, missing timestamp) or that the stream has ended;
// the two are not distinguishable here.
func (r *StreamReader) Read(
	ctx context.Context,
) (ok bool, f *frame.Frame) {
	res := r.decoder.ReadNext(ctx, r.connection.Handle())
	switch res.Outcome {
	case decoder.OutcomeFrame:
		return true, res.Frame
	case decoder.OutcomeNoFrame, decoder.OutcomeEndOfStream:
		return true, nil
	default:
		return false, nil
	}
}

// IsOpened reports whether a connection is established. It does not check
// that the remote peer is still alive.
func (r *StreamReader) IsOpened() bool {
	return r.connection.IsOpen()
}

// FrameNumber is the estimated index of the last frame returned by Read,
// or -1 if there was none yet. Safe to call from any goroutine.
func (r *StreamReader) FrameNumber() int64 {
	return r.decoder.FrameNumber()
}

// Close releases the source. It is safe to call more than once and
// always returns nil: release failures are logged.
func (r *StreamReader) Close(ctx context.Context) error {
	r.connection.Close(ctx)
	return nil
}

// URL returns the last path passed to Open, with any password redacted.
func (r *StreamReader) URL() string {
	return r.url
}

// Config returns the configuration of the last source the reader tried
// to open; nil if there was none or its path was invalid.
func (r *StreamReader) Config() *source.Config {
	return r.connection.Config()
}

func (r *StreamReader) String() string {
	return fmt.Sprintf("StreamReader(%s)", r.url)
}
