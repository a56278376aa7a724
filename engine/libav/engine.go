// Package libav implements engine.Engine on top of FFmpeg (through go-astiav).
package libav

import (
	"context"

	"github.com/xaionaro-go/streamreader/engine"
)

type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{}
}

func (*Engine) Open(
	ctx context.Context,
	req engine.OpenRequest,
) (engine.Handle, error) {
	input, err := OpenInput(ctx, req)
	if err != nil {
		return nil, err
	}
	return input, nil
}

func (*Engine) String() string {
	return "libav"
}
