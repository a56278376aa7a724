package source

import (
	"time"

	"github.com/xaionaro-go/secret"
	"github.com/xaionaro-go/streamreader/types"
)

type settings struct {
	Options        types.DictionaryItems
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RTSPTransport  string
	AuthKey        secret.String
	FrameRate      *types.Rational
}

type Option interface {
	apply(*settings)
}

type Options []Option

func (s Options) apply(cfg *settings) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

// OptionCustom sets (or overrides) libav options; later values win.
type OptionCustom types.DictionaryItems

func (opt OptionCustom) apply(cfg *settings) {
	cfg.Options = append(cfg.Options, opt...)
}

// OptionNoDefaults drops DefaultOptions; useful for sources that reject them.
type OptionNoDefaults struct{}

func (OptionNoDefaults) apply(cfg *settings) {
	cfg.Options = nil
}

type OptionConnectTimeout time.Duration

func (opt OptionConnectTimeout) apply(cfg *settings) {
	cfg.ConnectTimeout = time.Duration(opt)
}

type OptionReadTimeout time.Duration

func (opt OptionReadTimeout) apply(cfg *settings) {
	cfg.ReadTimeout = time.Duration(opt)
}

// OptionRTSPTransport is "udp" (default) or "tcp"; ignored for non-RTSP sources.
type OptionRTSPTransport string

func (opt OptionRTSPTransport) apply(cfg *settings) {
	cfg.RTSPTransport = string(opt)
}

// OptionAuthKey is appended to the URL when opening (e.g. a stream key) and never logged.
type OptionAuthKey struct {
	Key secret.String
}

func (opt OptionAuthKey) apply(cfg *settings) {
	cfg.AuthKey = opt.Key
}

// OptionFrameRate replaces the engine's guessed frame rate when deriving frame numbers.
type OptionFrameRate types.Rational

func (opt OptionFrameRate) apply(cfg *settings) {
	rate := types.Rational(opt)
	cfg.FrameRate = &rate
}
