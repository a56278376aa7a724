package internal

import (
	"context"
	"runtime"

	"github.com/xaionaro-go/streamreader/logger"
	"github.com/xaionaro-go/streamreader/types"
)

// SetFinalizerClose closes obj when it becomes unreachable.
func SetFinalizerClose[T types.Closer](
	ctx context.Context,
	obj T,
) {
	runtime.SetFinalizer(obj, func(obj T) {
		logger.Debugf(ctx, "closing %T", obj)
		if err := obj.Close(ctx); err != nil {
			logger.Errorf(ctx, "unable to close %T: %v", obj, err)
		}
	})
}
