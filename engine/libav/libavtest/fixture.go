// Package libavtest builds small media files for tests that need a real
// libav source.
package libavtest

import (
	"errors"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
	"github.com/stretchr/testify/require"
)

// FrameRate is the rate WriteVideo encodes at.
const FrameRate = 25

// WriteVideo encodes frameCount frames of a width×height MPEG-4 video
// into path. The container is picked by the extension of path.
func WriteVideo(
	t testing.TB,
	path string,
	width, height int,
	frameCount int,
) {
	t.Helper()
	c := astikit.NewCloser()
	defer func() { require.NoError(t, c.Close()) }()

	outputFormatContext, err := astiav.AllocOutputFormatContext(nil, "", path)
	require.NoError(t, err)
	require.NotNil(t, outputFormatContext)
	c.Add(outputFormatContext.Free)

	codec := astiav.FindEncoder(astiav.CodecIDMpeg4)
	require.NotNil(t, codec, "no MPEG-4 encoder")
	encCodecContext := astiav.AllocCodecContext(codec)
	require.NotNil(t, encCodecContext)
	c.Add(encCodecContext.Free)

	encCodecContext.SetWidth(width)
	encCodecContext.SetHeight(height)
	encCodecContext.SetPixelFormat(astiav.PixelFormatYuv420P)
	encCodecContext.SetTimeBase(astiav.NewRational(1, FrameRate))
	encCodecContext.SetFramerate(astiav.NewRational(FrameRate, 1))
	if outputFormatContext.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader) {
		encCodecContext.SetFlags(encCodecContext.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}
	require.NoError(t, encCodecContext.Open(codec, nil))

	outputStream := outputFormatContext.NewStream(nil)
	require.NotNil(t, outputStream)
	require.NoError(t, outputStream.CodecParameters().FromCodecContext(encCodecContext))
	outputStream.SetTimeBase(encCodecContext.TimeBase())

	if !outputFormatContext.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		ioContext, err := astiav.OpenIOContext(path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		require.NoError(t, err)
		c.AddWithError(ioContext.Close)
		outputFormatContext.SetPb(ioContext)
	}
	require.NoError(t, outputFormatContext.WriteHeader(nil))

	pkt := astiav.AllocPacket()
	c.Add(pkt.Free)
	encode := func(f *astiav.Frame) {
		require.NoError(t, encCodecContext.SendFrame(f))
		for {
			err := encCodecContext.ReceivePacket(pkt)
			if errors.Is(err, astiav.ErrEof) || errors.Is(err, astiav.ErrEagain) {
				return
			}
			require.NoError(t, err)
			pkt.SetStreamIndex(outputStream.Index())
			pkt.RescaleTs(encCodecContext.TimeBase(), outputStream.TimeBase())
			err = outputFormatContext.WriteInterleavedFrame(pkt)
			pkt.Unref()
			require.NoError(t, err)
		}
	}

	f := astiav.AllocFrame()
	c.Add(f.Free)
	f.SetWidth(width)
	f.SetHeight(height)
	f.SetPixelFormat(astiav.PixelFormatYuv420P)
	require.NoError(t, f.AllocBuffer(0))
	for i := 0; i < frameCount; i++ {
		require.NoError(t, f.MakeWritable())
		require.NoError(t, f.ImageFillBlack())
		f.SetPts(int64(i))
		encode(f)
	}
	encode(nil)
	require.NoError(t, outputFormatContext.WriteTrailer())
}
