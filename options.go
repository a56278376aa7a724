package streamreader

import (
	"github.com/xaionaro-go/streamreader/engine"
	"github.com/xaionaro-go/streamreader/engine/libav"
	"github.com/xaionaro-go/streamreader/source"
)

type config struct {
	Engine        engine.Engine
	SourceOptions source.Options
}

func defaultConfig() config {
	return config{
		Engine: libav.New(),
	}
}

type Option interface {
	apply(*config)
}

type Options []Option

func (s Options) apply(cfg *config) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

func (s Options) config() config {
	cfg := defaultConfig()
	s.apply(&cfg)
	return cfg
}

// OptionEngine replaces the FFmpeg-based engine.
type OptionEngine struct {
	Engine engine.Engine
}

func (opt OptionEngine) apply(cfg *config) {
	cfg.Engine = opt.Engine
}

// OptionSource is applied when building the source configuration.
type OptionSource source.Options

func (opt OptionSource) apply(cfg *config) {
	cfg.SourceOptions = append(cfg.SourceOptions, opt...)
}
