// Package avconv converts between libav (go-astiav) values and streamreader types.
package avconv

import (
	"math"
	"time"

	"github.com/asticode/go-astiav"
)

const (
	// see https://ffmpeg.org/doxygen/trunk/group__lavu__time.html#ga2eaefe702f95f619ea6f2d08afa01be1
	avNoPTSValue = uint64(0x8000000000000000)
)

const (
	noDuration = time.Duration(math.MinInt64)
)

func init() {
	if avNoPTSValue != uint64(any(int64(math.MinInt64)).(int64)) { // to bypass the compiler check
		panic("avNoPTSValue changed")
	}
}

// HasPTS reports whether the timestamp is set (is not AV_NOPTS_VALUE).
func HasPTS(ts int64) bool {
	return uint64(ts) != avNoPTSValue
}

func Duration(t int64, timeBase astiav.Rational) time.Duration {
	if !HasPTS(t) || timeBase.Den() == 0 {
		return noDuration
	}

	return time.Duration(float64(t) * timeBase.Float64() * float64(time.Second))
}
