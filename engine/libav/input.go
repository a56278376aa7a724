package libav

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/streamreader/avconv"
	"github.com/xaionaro-go/streamreader/engine"
	"github.com/xaionaro-go/streamreader/logger"
	"github.com/xaionaro-go/streamreader/types"
	"github.com/xaionaro-go/streamreader/urltools"
	"github.com/xaionaro-go/unsafetools"
)

// Input is an opened libav demuxer with lazily opened video decoders.
type Input struct {
	*astiav.FormatContext
	*astiav.Dictionary

	URL string

	closer       *astikit.Closer
	closeOnce    sync.Once
	closeErr     error
	isClosed     bool
	deadline     *deadline
	readTimeout  time.Duration
	closeTimeout time.Duration
	streams      map[int]*streamInfo
	decoders     map[int]*astiav.CodecContext
	scaler       bgr24Scaler
}

var _ engine.Handle = (*Input)(nil)

func OpenInput(
	ctx context.Context,
	req engine.OpenRequest,
) (_ret *Input, _err error) {
	if req.URL == "" {
		return nil, fmt.Errorf("the provided URL is empty")
	}
	i := &Input{
		URL:          urltools.Redact(req.URL),
		closer:       astikit.NewCloser(),
		readTimeout:  req.ReadTimeout,
		closeTimeout: req.ConnectTimeout,
		streams:      map[int]*streamInfo{},
		decoders:     map[int]*astiav.CodecContext{},
	}
	ctx = belt.WithField(ctx, "url", i.URL)
	logger.Debugf(ctx, "OpenInput")
	defer func() { logger.Debugf(ctx, "/OpenInput: %v", _err) }()
	defer func() {
		if _err != nil {
			if err := i.closer.Close(); err != nil {
				logger.Errorf(ctx, "unable to release the resources of a failed input: %v", err)
			}
		}
	}()

	var formatName string
	if len(req.Options) > 0 {
		i.Dictionary = astiav.NewDictionary()
		i.closer.Add(i.Dictionary.Free)
		for _, opt := range req.Options {
			if opt.Key == "f" {
				formatName = opt.Value
				logger.Debugf(ctx, "overriding input format to '%s'", opt.Value)
				continue
			}
			logger.Debugf(ctx, "input.Dictionary['%s'] = '%s'", opt.Key, opt.Value)
			if err := i.Dictionary.Set(opt.Key, opt.Value, 0); err != nil {
				return nil, fmt.Errorf("unable to set option '%s' to '%s': %w", opt.Key, opt.Value, err)
			}
		}
		logBufferSize(ctx, req.Options)
	}

	var inputFormat *astiav.InputFormat
	if formatName != "" {
		inputFormat = astiav.FindInputFormat(formatName)
		if inputFormat == nil {
			return nil, ErrAstiav{
				Op:   "find input format",
				Kind: engine.ErrNotFound,
				Err:  fmt.Errorf("unable to find input format by name '%s'", formatName),
			}
		}
		logger.Debugf(ctx, "using format '%s'", inputFormat.Name())
	}

	i.FormatContext = astiav.AllocFormatContext()
	if i.FormatContext == nil {
		return nil, fmt.Errorf("unable to allocate a format context")
	}
	i.closer.Add(i.FormatContext.Free)
	i.deadline = newDeadline(i.FormatContext)

	urlWithSecret := req.URL + req.AuthKey.Get()
	i.deadline.Arm(req.ConnectTimeout)
	err := i.FormatContext.OpenInput(urlWithSecret, inputFormat, i.Dictionary)
	timedOut := i.deadline.Disarm()
	if err != nil {
		return nil, fmt.Errorf("unable to open input by URL '%s': %w", i.URL, classifyOpenError(err, timedOut))
	}
	i.closer.Add(i.closeInput)

	i.deadline.Arm(req.ConnectTimeout)
	err = i.FormatContext.FindStreamInfo(nil)
	timedOut = i.deadline.Disarm()
	if err != nil {
		return nil, fmt.Errorf("unable to get stream info: %w", classifyOpenError(err, timedOut))
	}

	for _, stream := range i.FormatContext.Streams() {
		i.registerStream(ctx, stream)
	}
	i.closer.Add(i.scaler.Close)
	i.closer.Add(i.freeDecoders)
	return i, nil
}

func logBufferSize(ctx context.Context, opts types.DictionaryItems) {
	v, ok := opts.Get("buffer_size")
	if !ok {
		return
	}
	size, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		logger.Warnf(ctx, "buffer_size '%s' is not a number: %v", v, err)
		return
	}
	logger.Debugf(ctx, "demuxer buffer size: %s", humanize.Bytes(size))
}

func (i *Input) registerStream(
	ctx context.Context,
	stream *astiav.Stream,
) *streamInfo {
	codecParams := stream.CodecParameters()
	info := &streamInfo{
		Stream:      stream,
		MediaType:   avconv.MediaType(codecParams.MediaType()),
		TimeBase:    avconv.Rational(stream.TimeBase()),
		GuessedRate: avconv.Rational(i.FormatContext.GuessFrameRate(stream, nil)),
	}
	i.streams[stream.Index()] = info
	logger.Debugf(ctx, "input stream #%d: %s, time base %s, guessed rate %s", stream.Index(), info.MediaType, info.TimeBase, info.GuessedRate)
	if d := avconv.Duration(stream.Duration(), stream.TimeBase()); d >= 0 {
		logger.Debugf(ctx, "input stream #%d duration: %v", stream.Index(), d)
	}
	if logger.FromCtx(ctx).Level() >= logger.LevelDebug {
		logger.Debugf(ctx, "input stream #%d codec parameters: %s", stream.Index(), spew.Sdump(unsafetools.FieldByNameInValue(reflect.ValueOf(codecParams), "c").Elem().Elem().Interface()))
	}
	return info
}

func (i *Input) closeInput() {
	i.deadline.Arm(i.closeTimeout)
	defer i.deadline.Disarm()
	i.FormatContext.CloseInput()
}

func (i *Input) freeDecoders() {
	for idx, codecCtx := range i.decoders {
		codecCtx.Free()
		delete(i.decoders, idx)
	}
}

// Close releases everything the input allocated; repeated calls return the first result.
func (i *Input) Close(ctx context.Context) error {
	if i == nil {
		return nil
	}
	i.closeOnce.Do(func() {
		logger.Debugf(ctx, "closing %s", i)
		i.isClosed = true
		i.closeErr = i.closer.Close()
	})
	return i.closeErr
}

func (i *Input) NextUnit(
	ctx context.Context,
) (_ret engine.Unit, _err error) {
	logger.Tracef(ctx, "NextUnit")
	defer func() { logger.Tracef(ctx, "/NextUnit: %v", _err) }()
	if i.isClosed {
		return nil, fmt.Errorf("%s is closed", i)
	}

	pkt := packetPool.Get()
	i.deadline.Arm(i.readTimeout)
	err := i.FormatContext.ReadFrame(pkt)
	timedOut := i.deadline.Disarm()
	if err != nil {
		packetPool.Put(pkt)
		return nil, classifyReadError(err, timedOut)
	}

	stream := i.streams[pkt.StreamIndex()]
	if stream == nil {
		if s := avconv.FindStreamByIndex(i.FormatContext, pkt.StreamIndex()); s != nil {
			stream = i.registerStream(ctx, s)
		}
	}
	return &unit{packet: pkt, stream: stream, input: i}, nil
}

func (i *Input) DecodeUnit(
	ctx context.Context,
	in engine.Unit,
) (_ret []engine.RawFrame, _err error) {
	logger.Tracef(ctx, "DecodeUnit")
	defer func() { logger.Tracef(ctx, "/DecodeUnit: %d frames, %v", len(_ret), _err) }()
	if i.isClosed {
		return nil, fmt.Errorf("%s is closed", i)
	}

	u, ok := in.(*unit)
	if !ok || u.input != i {
		return nil, fmt.Errorf("the unit %v was not produced by %s", in, i)
	}
	if u.packet == nil {
		return nil, fmt.Errorf("the unit is already released")
	}
	if u.MediaType() != types.MediaTypeVideo {
		return nil, fmt.Errorf("decoding %s units is not supported", u.MediaType())
	}

	codecCtx, err := i.getDecoder(ctx, u.stream)
	if err != nil {
		return nil, err
	}

	if err := codecCtx.SendPacket(u.packet); err != nil {
		return nil, classifyDecodeError("send packet", err)
	}

	var frames []engine.RawFrame
	for {
		f := framePool.Get()
		err := codecCtx.ReceiveFrame(f)
		if err == nil {
			frames = append(frames, &rawFrame{frame: f, timeBase: u.stream.TimeBase, scaler: &i.scaler})
			continue
		}
		framePool.Put(f)
		isEOF := errors.Is(err, astiav.ErrEof)
		isEAgain := errors.Is(err, astiav.ErrEagain)
		logger.Tracef(ctx, "decoder.ReceiveFrame(): %v (isEOF:%t, isEAgain:%t)", err, isEOF, isEAgain)
		switch {
		case isEAgain, isEOF && len(frames) > 0:
			return frames, nil
		default:
			for _, frame := range frames {
				frame.Release()
			}
			return nil, classifyDecodeError("receive frame", err)
		}
	}
}

func (i *Input) getDecoder(
	ctx context.Context,
	stream *streamInfo,
) (*astiav.CodecContext, error) {
	if codecCtx, ok := i.decoders[stream.Index()]; ok {
		return codecCtx, nil
	}

	codecParams := stream.CodecParameters()
	codec := astiav.FindDecoder(codecParams.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("unable to find a decoder for codec %s", codecParams.CodecID())
	}
	codecCtx := astiav.AllocCodecContext(codec)
	if codecCtx == nil {
		return nil, fmt.Errorf("unable to allocate a codec context for %s", codec.Name())
	}
	if err := codecParams.ToCodecContext(codecCtx); err != nil {
		codecCtx.Free()
		return nil, fmt.Errorf("unable to copy the codec parameters to the codec context: %w", err)
	}
	if !stream.GuessedRate.IsZero() {
		codecCtx.SetFramerate(avconv.RationalToAstiav(stream.GuessedRate))
	}
	if err := codecCtx.Open(codec, nil); err != nil {
		codecCtx.Free()
		return nil, fmt.Errorf("unable to open the decoder %s: %w", codec.Name(), err)
	}
	codecCtx.SetTimeBase(stream.Stream.TimeBase())
	logger.Debugf(ctx, "opened decoder %s for stream #%d", codec.Name(), stream.Index())
	i.decoders[stream.Index()] = codecCtx
	return codecCtx, nil
}

func (i *Input) String() string {
	return fmt.Sprintf("Input(%s)", i.URL)
}
