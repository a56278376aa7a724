package types

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rational is a fraction, used for time bases and frame rates.
type Rational struct {
	Num int
	Den int
}

func (r Rational) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

// Rat returns r as a math/big rational; nil if the denominator is zero.
func (r Rational) Rat() *big.Rat {
	if r.Den == 0 {
		return nil
	}
	return big.NewRat(int64(r.Num), int64(r.Den))
}

func newNTSCRationalFromFloat64(f float64) *big.Rat {
	den := 1001 // common denominator for NTSC frame rates
	num := math.Ceil(f) * 1000
	r := big.NewRat(int64(num), int64(den))
	confirmValue, _ := r.Float64()
	if math.Abs(f-confirmValue) < 1e-2 {
		return r
	}
	return nil
}

// RationalFromApproxFloat64 snaps fps to a NTSC rate (N*1000/1001) when it is close to one.
func RationalFromApproxFloat64(fps float64) (r Rational) {
	if float64(int(fps)) == fps {
		r.Num = int(fps)
		r.Den = 1
		return
	}

	rat := newNTSCRationalFromFloat64(fps)
	if rat != nil {
		r.Num = int(rat.Num().Int64())
		r.Den = int(rat.Denom().Int64())
		return
	}

	rat = big.NewRat(int64(math.Round(fps*1000000)), 1000000)
	r.Num = int(rat.Num().Int64())
	r.Den = int(rat.Denom().Int64())
	return
}

// RationalFromString parses "30000/1001", "29.97" (exact decimal) or "~29.97" (approximate).
func RationalFromString(s string) (*Rational, error) {
	var r Rational
	switch {
	case len(s) == 0:
		return nil, fmt.Errorf("unable to parse Rational from empty string")
	case strings.Contains(s, "/"):
		if _, err := fmt.Sscanf(s, "%d/%d", &r.Num, &r.Den); err != nil {
			return nil, fmt.Errorf("unable to parse Rational from %q: %w", s, err)
		}
	case s[0] == '~':
		fps, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse Rational from %q: %w", s, err)
		}
		r = RationalFromApproxFloat64(fps)
	default:
		rat, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, fmt.Errorf("unable to parse Rational from %q", s)
		}
		if !rat.Num().IsInt64() || !rat.Denom().IsInt64() {
			return nil, fmt.Errorf("Rational %q is out of range", s)
		}
		r.Num = int(rat.Num().Int64())
		r.Den = int(rat.Denom().Int64())
	}
	if r.Den == 0 {
		return nil, fmt.Errorf("denominator cannot be zero")
	}
	return &r, nil
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func (r Rational) MarshalYAML() (any, error) {
	return r.String(), nil
}

func (r *Rational) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("unable to decode Rational from YAML: %w", err)
	}
	v, err := RationalFromString(s)
	if err != nil {
		return fmt.Errorf("unable to unmarshal Rational from string %q: %w", s, err)
	}
	*r = *v
	return nil
}
