// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cutout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNamer(t *testing.T) {
	pos := Position{RA: 50.67, Dec: -37.2}
	n := DefaultNamer{}

	assert.Equal(t, "50.67_-37.2_1.0_072-080.fits", n.Name(pos, 1.0, "072-080", false))
	assert.Equal(t, "error_50.67_-37.2_1.0_072-080.html", n.Name(pos, 1.0, "072-080", true))
}

func TestPosition_String(t *testing.T) {
	assert.Equal(t, "10.0_-5.5", Position{RA: 10, Dec: -5.5}.String())
	assert.Equal(t, "23:22:03 -24:10:44", Position{RA: 1, Text: "23:22:03 -24:10:44"}.String())
}

func TestVariantNamer(t *testing.T) {
	pos := Position{RA: 50.67, Dec: -37.2}

	rms := VariantNamer{Variant: VariantRMS}
	assert.Equal(t, "50.67_-37.2_1.0_white-rms.fits", rms.Name(pos, 1.0, "170-231", false))
	assert.Equal(t, "error_50.67_-37.2_1.0_white-rms.html", rms.Name(pos, 1.0, "170-231", true))

	bkg := VariantNamer{Variant: VariantBackground}
	assert.Equal(t, "50.67_-37.2_1.0_white-bkg.fits", bkg.Name(pos, 1.0, "170-231", false))
}

func TestNamerFunc(t *testing.T) {
	var n Namer = NamerFunc(func(_ Position, _ float64, freq string, isError bool) string {
		if isError {
			return "bad-" + freq
		}
		return "good-" + freq
	})
	assert.Equal(t, "good-072-080", n.Name(Position{}, 1, "072-080", false))
	assert.Equal(t, "bad-072-080", n.Name(Position{}, 1, "072-080", true))
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in   string
		want Variant
	}{
		{"", VariantNone},
		{"rms", VariantRMS},
		{"background", VariantBackground},
		{"bkg", VariantBackground},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseVariant("noise")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestVariantParam(t *testing.T) {
	assert.Equal(t, Param{"rms", "1"}, VariantRMS.param())
	assert.Equal(t, Param{"rms", "0"}, VariantBackground.param())
}
