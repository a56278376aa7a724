package libav

import (
	"context"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/streamreader/logger"
)

// bgr24Scaler converts decoded frames of any software pixel format into
// packed BGR24 of the same resolution. The scale context is rebuilt when the
// source geometry or pixel format changes mid-stream.
type bgr24Scaler struct {
	scaleCtx  *astiav.SoftwareScaleContext
	dst       *astiav.Frame
	srcWidth  int
	srcHeight int
	srcPixFmt astiav.PixelFormat
}

func (s *bgr24Scaler) String() string {
	if s.scaleCtx == nil {
		return "BGR24Scaler(<uninitialized>)"
	}
	return fmt.Sprintf(
		"BGR24Scaler(%dx%d:%s -> %dx%d:%s)",
		s.scaleCtx.SourceWidth(),
		s.scaleCtx.SourceHeight(),
		s.scaleCtx.SourcePixelFormat(),
		s.scaleCtx.DestinationWidth(),
		s.scaleCtx.DestinationHeight(),
		s.scaleCtx.DestinationPixelFormat(),
	)
}

func (s *bgr24Scaler) Close() {
	if s.dst != nil {
		s.dst.Free()
		s.dst = nil
	}
	if s.scaleCtx != nil {
		s.scaleCtx.Free()
		s.scaleCtx = nil
	}
}

func (s *bgr24Scaler) ensure(
	ctx context.Context,
	src *astiav.Frame,
) error {
	width, height, pixFmt := src.Width(), src.Height(), src.PixelFormat()
	if s.scaleCtx != nil && width == s.srcWidth && height == s.srcHeight && pixFmt == s.srcPixFmt {
		return nil
	}
	s.Close()

	scaleCtx, err := astiav.CreateSoftwareScaleContext(
		width, height, pixFmt,
		width, height, astiav.PixelFormatBgr24,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return fmt.Errorf("unable to create a software scale context (%dx%d:%s -> BGR24): %w", width, height, pixFmt, err)
	}

	dst := astiav.AllocFrame()
	dst.SetWidth(width)
	dst.SetHeight(height)
	dst.SetPixelFormat(astiav.PixelFormatBgr24)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		scaleCtx.Free()
		return fmt.Errorf("unable to allocate the BGR24 frame buffer: %w", err)
	}

	s.scaleCtx = scaleCtx
	s.dst = dst
	s.srcWidth, s.srcHeight, s.srcPixFmt = width, height, pixFmt
	logger.Debugf(ctx, "scaler ready: %s", s)
	return nil
}

// Convert returns a newly allocated, tightly packed (align=1) BGR24 copy of src.
func (s *bgr24Scaler) Convert(
	ctx context.Context,
	src *astiav.Frame,
) (_ret []byte, _err error) {
	logger.Tracef(ctx, "Convert")
	defer func() { logger.Tracef(ctx, "/Convert: %v", _err) }()

	packed := src
	if src.PixelFormat() != astiav.PixelFormatBgr24 {
		if err := s.ensure(ctx, src); err != nil {
			return nil, err
		}
		if err := s.scaleCtx.ScaleFrame(src, s.dst); err != nil {
			return nil, fmt.Errorf("unable to scale a frame: %w", err)
		}
		packed = s.dst
	}

	size, err := packed.ImageBufferSize(1)
	if err != nil {
		return nil, fmt.Errorf("unable to get the image buffer size: %w", err)
	}
	buf := make([]byte, size)
	if _, err := packed.ImageCopyToBuffer(buf, 1); err != nil {
		return nil, fmt.Errorf("unable to copy the image into a buffer: %w", err)
	}
	return buf, nil
}
