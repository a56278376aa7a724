package libav

import (
	"runtime"
	"sync"

	"github.com/asticode/go-astiav"
)

// ReuseMemory disables pooling when false, which helps when hunting
// use-after-release bugs with the race detector or ASan.
var ReuseMemory = true

type pool[T any] struct {
	sync.Pool
	reset func(*T)
}

func newPool[T any](
	alloc func() *T,
	reset func(*T),
	free func(*T),
) *pool[T] {
	return &pool[T]{
		Pool: sync.Pool{
			New: func() any {
				v := alloc()
				runtime.SetFinalizer(v, free)
				return v
			},
		},
		reset: reset,
	}
}

func (p *pool[T]) Get() *T {
	return p.Pool.Get().(*T)
}

func (p *pool[T]) Put(item *T) {
	p.reset(item)
	if !ReuseMemory {
		return
	}
	p.Pool.Put(item)
}

var (
	packetPool = newPool(
		astiav.AllocPacket,
		func(p *astiav.Packet) { p.Unref() },
		func(p *astiav.Packet) { p.Free() },
	)
	framePool = newPool(
		astiav.AllocFrame,
		func(f *astiav.Frame) { f.Unref() },
		func(f *astiav.Frame) { f.Free() },
	)
)
