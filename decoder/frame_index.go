package decoder

import (
	"math/big"

	"go.uber.org/atomic"

	"github.com/xaionaro-go/streamreader/types"
)

// FrameIndexUnknown is the index before the first decoded video frame.
const FrameIndexUnknown = int64(-1)

// FrameIndex is the index of the last decoded video frame. It is written
// only by the Decoder; reads are safe from any goroutine.
type FrameIndex struct {
	value atomic.Int64
}

func NewFrameIndex() *FrameIndex {
	idx := &FrameIndex{}
	idx.value.Store(FrameIndexUnknown)
	return idx
}

func (idx *FrameIndex) Load() int64 {
	return idx.value.Load()
}

// set stores the estimate as is: a timestamp that jumps back (a wrap, a
// restarted server, a looped file) moves the index back too.
func (idx *FrameIndex) set(estimate int64) int64 {
	idx.value.Store(estimate)
	return estimate
}

func (idx *FrameIndex) reset() {
	idx.value.Store(FrameIndexUnknown)
}

func (idx *FrameIndex) increment() int64 {
	return idx.value.Inc()
}

// EstimateFrameIndex returns ceil(rate × pts × timeBase).
//
// It is an estimate, not a frame count: live sources have variable rates
// and uneven timestamps, and the engine's guessed rate may be inexact.
// ok is false if the rate or the time base is unknown.
func EstimateFrameIndex(
	rate types.Rational,
	pts int64,
	timeBase types.Rational,
) (_ret int64, ok bool) {
	if rate.IsZero() || timeBase.IsZero() || rate.Den == 0 || timeBase.Den == 0 {
		return 0, false
	}

	num := big.NewInt(pts)
	num.Mul(num, big.NewInt(int64(rate.Num)))
	num.Mul(num, big.NewInt(int64(timeBase.Num)))
	den := big.NewInt(int64(rate.Den))
	den.Mul(den, big.NewInt(int64(timeBase.Den)))
	if den.Sign() < 0 {
		num.Neg(num)
		den.Neg(den)
	}

	// big.Int.Div rounds towards -inf for a positive divisor.
	q, m := new(big.Int).DivMod(num, den, new(big.Int))
	if m.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsInt64() {
		return 0, false
	}
	return q.Int64(), true
}
