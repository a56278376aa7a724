package main

import (
	"context"
	"fmt"
	"image"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/secret"
	"github.com/xaionaro-go/streamreader"
	"github.com/xaionaro-go/streamreader/engine/libav"
	"github.com/xaionaro-go/streamreader/frame"
	"github.com/xaionaro-go/streamreader/indicator"
	"github.com/xaionaro-go/streamreader/logger"
	"github.com/xaionaro-go/streamreader/source"
	"github.com/xaionaro-go/streamreader/ts"
	"github.com/xaionaro-go/streamreader/types"
	"gopkg.in/yaml.v3"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <URL>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	frameCount := pflag.Uint64("frames", 100, "stop after this many frames (0 means read until the stream fails)")
	maxEmptyReads := pflag.Uint64("max-empty-reads", 1000, "stop after this many consecutive reads without a frame (the stream has likely ended)")
	optionsFilePath := pflag.String("options-file", "", "a YAML file with a frame_rate override and a list of extra {key, value} libav options")
	frameRateString := pflag.String("frame-rate", "", "override the frame rate guessed from the stream (e.g. '30', '30000/1001' or '29.97')")
	rtspTransport := pflag.String("rtsp-transport", source.DefaultRTSPTransport, "'udp' or 'tcp'; used only for RTSP sources")
	connectTimeout := pflag.Duration("connect-timeout", source.DefaultConnectTimeout, "the timeout for opening the source")
	readTimeout := pflag.Duration("read-timeout", source.DefaultReadTimeout, "the timeout for every read from the source")
	snapshotPath := pflag.String("snapshot", "", "save the last frame as a PNG image to this path")
	fpsWindow := pflag.Int("fps-window", 30, "the amount of frames the arrival rate is smoothed over (at least 10)")
	snapshotWidth := pflag.Int("snapshot-width", 0, "resize the snapshot to this width, keeping the aspect ratio (0 keeps the original size)")
	pflag.Parse()
	if len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.SetDefault(func() logger.Logger {
		return l
	})
	defer belt.Flush(ctx)
	libav.BridgeLogs(ctx)

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	srcOpts := source.Options{
		source.OptionRTSPTransport(*rtspTransport),
		source.OptionConnectTimeout(*connectTimeout),
		source.OptionReadTimeout(*readTimeout),
	}
	if authKey := os.Getenv("STREAMREADER_AUTH_KEY"); authKey != "" {
		srcOpts = append(srcOpts, source.OptionAuthKey{Key: secret.New(authKey)})
	}
	if *optionsFilePath != "" {
		file, err := loadOptionsFile(*optionsFilePath)
		if err != nil {
			l.Fatal(err)
		}
		srcOpts = append(srcOpts, source.OptionCustom(file.Options))
		if file.FrameRate != nil {
			srcOpts = append(srcOpts, source.OptionFrameRate(*file.FrameRate))
		}
	}
	if *frameRateString != "" {
		rate, err := types.RationalFromString(*frameRateString)
		if err != nil {
			l.Fatalf("unable to parse the frame rate '%s': %v", *frameRateString, err)
		}
		srcOpts = append(srcOpts, source.OptionFrameRate(*rate))
	}

	url := pflag.Arg(0)
	l.Debugf("opening '%s'...", url)
	r := streamreader.New(ctx, url, streamreader.OptionSource(srcOpts))
	defer r.Close(ctx)
	if !r.IsOpened() {
		l.Fatalf("unable to open '%s'", r.URL())
	}
	if cfg := r.Config(); cfg != nil {
		l.Debugf("options: %v", cfg.Options())
	}

	var (
		frames     uint64
		totalBytes uint64
		emptyReads uint64
		lastFrame  *frame.Frame
	)
	lagMeter := ts.NewLagMeter()
	meter := indicator.NewFrameRateMeter(max(*fpsWindow, 10))
	startedAt := time.Now()
	for *frameCount == 0 || frames < *frameCount {
		ok, f := r.Read(ctx)
		if !ok {
			l.Errorf("unable to read from '%s'", r.URL())
			break
		}
		if f == nil {
			emptyReads++
			if *maxEmptyReads != 0 && emptyReads >= *maxEmptyReads {
				l.Infof("no frames in the last %d reads, assuming the end of the stream", emptyReads)
				break
			}
			continue
		}
		emptyReads = 0
		frames++
		totalBytes += uint64(len(f.Pixels))
		lastFrame = f
		pos, _ := f.Timestamp()
		fps, _ := meter.Observe(time.Now())
		lag := lagMeter.Observe(ctx, f.PTS, f.TimeBase)
		fmt.Printf("frame #%d: %dx%d pts:%d (%v), ~%.2f fps, lag %v\n", f.Number, f.Width, f.Height, f.PTS, pos, fps, lag.Round(time.Millisecond))
	}
	elapsed := time.Since(startedAt)

	fmt.Printf(
		"%d frames (%s of BGR24) in %v: %.2f fps, %s/s\n",
		frames, humanize.Bytes(totalBytes), elapsed.Round(time.Millisecond),
		float64(frames)/elapsed.Seconds(),
		humanize.Bytes(uint64(float64(totalBytes)/elapsed.Seconds())),
	)

	if *snapshotPath != "" {
		if lastFrame == nil {
			l.Fatalf("no frames were read, nothing to save to '%s'", *snapshotPath)
		}
		if err := saveSnapshot(*snapshotPath, lastFrame, *snapshotWidth); err != nil {
			l.Fatal(err)
		}
		fmt.Printf("saved frame #%d to '%s'\n", lastFrame.Number, *snapshotPath)
	}
}

// optionsFile is the format of --options-file, e.g.:
//
//	frame_rate: 30000/1001
//	options:
//	  - key: rtsp_transport
//	    value: tcp
type optionsFile struct {
	FrameRate *types.Rational       `yaml:"frame_rate,omitempty"`
	Options   types.DictionaryItems `yaml:"options,omitempty"`
}

func loadOptionsFile(path string) (*optionsFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read '%s': %w", path, err)
	}
	var file optionsFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("unable to parse '%s': %w", path, err)
	}
	return &file, nil
}

func saveSnapshot(path string, f *frame.Frame, width int) error {
	var img image.Image = f.Image()
	if width > 0 && width != f.Width {
		height := max(1, f.Height*width/f.Width)
		img = transform.Resize(img, width, height, transform.Linear)
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("unable to save the snapshot to '%s': %w", path, err)
	}
	return nil
}
