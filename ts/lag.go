// Package ts relates stream timestamps to the wall clock.
package ts

import (
	"context"
	"math/big"
	"time"

	"github.com/xaionaro-go/streamreader/types"
	"github.com/xaionaro-go/xsync"
)

// LagMeter measures how far a stream falls behind real time. The first
// observed timestamp is pinned to the moment it was observed; later
// timestamps are expected to arrive at the same pace as the wall clock.
type LagMeter struct {
	xsync.Mutex
	Now func() time.Time

	started   bool
	startPTS  int64
	startTime time.Time
}

func NewLagMeter() *LagMeter {
	return &LagMeter{
		Now: time.Now,
	}
}

// Observe returns how late the frame with the given timestamp arrived
// compared to the first observed frame. A negative value means the
// source delivers faster than real time (e.g. a local file).
func (m *LagMeter) Observe(
	ctx context.Context,
	pts int64,
	timeBase types.Rational,
) time.Duration {
	return xsync.DoR1(ctx, &m.Mutex, func() time.Duration {
		return m.observeLocked(pts, timeBase)
	})
}

func (m *LagMeter) observeLocked(
	pts int64,
	timeBase types.Rational,
) time.Duration {
	now := m.Now()
	if !m.started {
		m.started = true
		m.startPTS = pts
		m.startTime = now
		return 0
	}
	if timeBase.IsZero() {
		return 0
	}
	return now.Sub(m.startTime) - ToDuration(pts-m.startPTS, timeBase)
}

func (m *LagMeter) Reset(ctx context.Context) {
	m.Mutex.Do(ctx, func() {
		m.started = false
	})
}

// ToDuration converts a timestamp delta to a duration, truncating
// towards zero.
func ToDuration(delta int64, timeBase types.Rational) time.Duration {
	tb := timeBase.Rat()
	if tb == nil {
		return 0
	}
	r := new(big.Rat).SetInt64(delta)
	r.Mul(r, tb)
	r.Mul(r, new(big.Rat).SetInt64(int64(time.Second)))
	ns := new(big.Int).Quo(r.Num(), r.Denom())
	return time.Duration(ns.Int64())
}
