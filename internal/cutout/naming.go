// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cutout

import (
	"fmt"
)

// Position is a sky position, either RA/Dec in degrees or a free-form
// string such as "23:22:03 -24:10:44". Text wins when set.
type Position struct {
	RA   float64
	Dec  float64
	Text string
}

// String renders the position as it appears in file names.
func (p Position) String() string {
	if p.Text != "" {
		return p.Text
	}
	return formatNumber(p.RA) + "_" + formatNumber(p.Dec)
}

// Namer maps a downloaded row to a local file name. isError selects the
// name used when the service answered with a diagnostic payload instead of
// an image.
type Namer interface {
	Name(pos Position, size float64, freq string, isError bool) string
}

// NamerFunc adapts a plain function to Namer.
type NamerFunc func(pos Position, size float64, freq string, isError bool) string

func (f NamerFunc) Name(pos Position, size float64, freq string, isError bool) string {
	return f(pos, size, freq, isError)
}

// DefaultNamer produces "{ra}_{dec}_{size}_{freq}.fits" and
// "error_{ra}_{dec}_{size}_{freq}.html".
type DefaultNamer struct{}

func (DefaultNamer) Name(pos Position, size float64, freq string, isError bool) string {
	base := fmt.Sprintf("%s_%s_%s", pos, formatNumber(size), freq)
	if isError {
		return "error_" + base + ".html"
	}
	return base + ".fits"
}

// Variant selects which product of the extended cutout command is
// requested: the rms map or the background map of the wide-band image.
type Variant string

const (
	VariantNone       Variant = ""
	VariantRMS        Variant = "rms"
	VariantBackground Variant = "background"
)

// ParseVariant accepts "", "rms", "background" and the short form "bkg".
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "":
		return VariantNone, nil
	case "rms":
		return VariantRMS, nil
	case "background", "bkg":
		return VariantBackground, nil
	}
	return "", invalidParam("invalid variant %q, should be one of [rms background]", s)
}

// param is the query parameter the server uses to pick the variant.
func (v Variant) param() Param {
	if v == VariantRMS {
		return Param{Key: "rms", Value: "1"}
	}
	return Param{Key: "rms", Value: "0"}
}

func (v Variant) suffix() string {
	if v == VariantRMS {
		return "-rms"
	}
	return "-bkg"
}

// VariantNamer names wide-band rms/background products:
// "{ra}_{dec}_{size}_white-rms.fits" or "..._white-bkg.fits". The frequency
// label is ignored because every variant product comes from the same image.
type VariantNamer struct {
	Variant Variant
}

func (n VariantNamer) Name(pos Position, size float64, _ string, isError bool) string {
	return DefaultNamer{}.Name(pos, size, "white"+n.Variant.suffix(), isError)
}
