package avconv

import (
	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/streamreader/types"
)

func Rational(r astiav.Rational) types.Rational {
	return types.Rational{Num: r.Num(), Den: r.Den()}
}

func RationalToAstiav(r types.Rational) astiav.Rational {
	return astiav.NewRational(r.Num, r.Den)
}

func MediaType(t astiav.MediaType) types.MediaType {
	switch t {
	case astiav.MediaTypeVideo:
		return types.MediaTypeVideo
	case astiav.MediaTypeAudio:
		return types.MediaTypeAudio
	case astiav.MediaTypeData:
		return types.MediaTypeData
	case astiav.MediaTypeSubtitle:
		return types.MediaTypeSubtitle
	case astiav.MediaTypeAttachment:
		return types.MediaTypeAttachment
	default:
		return types.MediaTypeUnknown
	}
}
