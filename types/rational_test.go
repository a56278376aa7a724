package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRationalFromString(t *testing.T) {
	tests := []struct {
		input          string
		expectedNum    int
		expectedDen    int
		expectingError bool
	}{
		{"30", 30, 1, false},
		{"30/1", 30, 1, false},
		{"30000/1001", 30000, 1001, false}, // NTSC
		{"~23.976", 24000, 1001, false},    // NTSC
		{"~23.98", 24000, 1001, false},     // NTSC
		{"~29.93", 2993, 100, false},       // non-NTSC
		{"~29.97", 30000, 1001, false},     // NTSC
		{"~25", 25, 1, false},
		{"~47.952", 48000, 1001, false},
		{"~119.88", 120000, 1001, false},
		{"~60", 60, 1, false},
		{"~0.3", 3, 10, false},
		{"0.33333", 33333, 100000, false},
		{"12.5", 25, 2, false},
		{"0/1", 0, 1, false},
		{"", 0, 0, true},
		{"1/0", 0, 0, true},
		{"invalid", 0, 0, true},
		{"10/invalid", 0, 0, true},
	}

	for _, test := range tests {
		rational, err := RationalFromString(test.input)
		if test.expectingError {
			require.Error(t, err, "input %q", test.input)
			continue
		}
		require.NoError(t, err, "input %q", test.input)
		require.Equal(t, Rational{Num: test.expectedNum, Den: test.expectedDen}, *rational, "input %q", test.input)
	}
}

func TestRationalIsZero(t *testing.T) {
	require.True(t, Rational{}.IsZero())
	require.True(t, Rational{Num: 0, Den: 1}.IsZero())
	require.True(t, Rational{Num: 30, Den: 0}.IsZero())
	require.False(t, Rational{Num: 1, Den: 30}.IsZero())
	require.Nil(t, Rational{Num: 1}.Rat())
}

func TestRationalYAML(t *testing.T) {
	var cfg struct {
		Rate Rational `yaml:"rate"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("rate: 30000/1001\n"), &cfg))
	require.Equal(t, Rational{Num: 30000, Den: 1001}, cfg.Rate)

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.Equal(t, "rate: 30000/1001\n", string(out))

	require.Error(t, yaml.Unmarshal([]byte("rate: 1/0\n"), &cfg))
}
