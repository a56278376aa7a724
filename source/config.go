// Package source describes what to open and how: the address, libav options and timeouts.
package source

import (
	"fmt"
	"time"

	"github.com/xaionaro-go/secret"
	"github.com/xaionaro-go/streamreader/types"
	"github.com/xaionaro-go/streamreader/urltools"
)

const (
	OptionKeyBufferSize     = "buffer_size"
	OptionKeySocketTimeout  = "stimeout"
	OptionKeyMaxDelay       = "max_delay"
	OptionKeyDiscardCorrupt = "discard_corrupt"
	OptionKeyGenPTS         = "gen_pts"
	OptionKeyNonBlock       = "non_block"
	OptionKeyRTSPTransport  = "rtsp_transport"

	// OptionKeyFormat overrides the input format instead of probing it.
	OptionKeyFormat = "f"
)

const (
	DefaultConnectTimeout = time.Second
	DefaultReadTimeout    = 100 * time.Millisecond
	DefaultRTSPTransport  = "udp"
)

// DefaultOptions are the libav tunables applied to every source; buffer_size
// is in bytes, stimeout and max_delay in microseconds.
func DefaultOptions() types.DictionaryItems {
	return types.DictionaryItems{
		{Key: OptionKeyBufferSize, Value: "256000"},
		{Key: OptionKeySocketTimeout, Value: "20000000"},
		{Key: OptionKeyMaxDelay, Value: "3000000"},
		{Key: OptionKeyDiscardCorrupt, Value: "DISCARD_CORRUPT"},
		{Key: OptionKeyGenPTS, Value: "GENPTS"},
		{Key: OptionKeyNonBlock, Value: "NONBLOCK"},
	}
}

// Config is immutable once built by New.
type Config struct {
	url            string
	authKey        secret.String
	options        types.DictionaryItems
	connectTimeout time.Duration
	readTimeout    time.Duration
	frameRate      *types.Rational
}

func New(url string, opts ...Option) (*Config, error) {
	if url == "" {
		return nil, fmt.Errorf("the provided URL is empty")
	}

	s := settings{
		Options:        DefaultOptions(),
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		RTSPTransport:  DefaultRTSPTransport,
		AuthKey:        secret.New(""),
	}
	Options(opts).apply(&s)

	if s.ConnectTimeout <= 0 {
		return nil, fmt.Errorf("connect timeout must be positive, got %v", s.ConnectTimeout)
	}
	if s.ReadTimeout <= 0 {
		return nil, fmt.Errorf("read timeout must be positive, got %v", s.ReadTimeout)
	}
	if s.FrameRate != nil && s.FrameRate.IsZero() {
		return nil, fmt.Errorf("frame rate override must be non-zero, got %s", s.FrameRate)
	}

	// the transport hint is meaningless (and rejected by some demuxers) outside of RTSP
	options := s.Options.Without(OptionKeyRTSPTransport)
	if urltools.IsRTSP(url) {
		switch s.RTSPTransport {
		case "udp", "tcp":
		default:
			return nil, fmt.Errorf("unknown RTSP transport %q, expected 'udp' or 'tcp'", s.RTSPTransport)
		}
		options = append(options, types.DictionaryItem{Key: OptionKeyRTSPTransport, Value: s.RTSPTransport})
	}
	if _, ok := options.Get(OptionKeyFormat); !ok {
		if formatName := urltools.DeviceFormatName(url); formatName != "" {
			options = append(options, types.DictionaryItem{Key: OptionKeyFormat, Value: formatName})
		}
	}

	cfg := &Config{
		url:            url,
		authKey:        s.AuthKey,
		options:        options.Deduplicate(),
		connectTimeout: s.ConnectTimeout,
		readTimeout:    s.ReadTimeout,
	}
	if s.FrameRate != nil {
		rate := *s.FrameRate
		cfg.frameRate = &rate
	}
	return cfg, nil
}

func (cfg *Config) URL() string {
	return cfg.url
}

// RedactedURL is URL with credentials hidden; use it for logs.
func (cfg *Config) RedactedURL() string {
	return urltools.Redact(cfg.url)
}

func (cfg *Config) AuthKey() secret.String {
	return cfg.authKey
}

// Options returns a copy of the resolved libav options.
func (cfg *Config) Options() types.DictionaryItems {
	return cfg.options.Clone()
}

func (cfg *Config) Option(key string) (string, bool) {
	return cfg.options.Get(key)
}

func (cfg *Config) ConnectTimeout() time.Duration {
	return cfg.connectTimeout
}

func (cfg *Config) ReadTimeout() time.Duration {
	return cfg.readTimeout
}

// FrameRate returns the override of the engine's guessed frame rate, if any.
func (cfg *Config) FrameRate() (types.Rational, bool) {
	if cfg.frameRate == nil {
		return types.Rational{}, false
	}
	return *cfg.frameRate, true
}

func (cfg *Config) IsNetworkStream() bool {
	return urltools.IsNetworkStream(cfg.url)
}

func (cfg *Config) String() string {
	return fmt.Sprintf("Source(%s)", cfg.RedactedURL())
}
