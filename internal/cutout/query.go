// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cutout

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// MaxAngularSize is the largest cutout the postage-stamp service accepts,
// in degrees.
const MaxAngularSize = 5.0

// DefaultHost is the public GLEAM postage-stamp VO host.
const DefaultHost = "gleam-vo.icrar.org"

// CommandPlaceholder is the server command embedded in cutout download URLs.
// A caller-supplied command token replaces it to route the request to a
// variant server command (e.g. "GLEAMCUTOUTEX").
const CommandPlaceholder = "GLEAMCUTOUT"

// siapParams is the fixed head of every SIAP query string.
const siapParams = "FORMAT=ALL&VERB=2&INTERSECT=OVERLAPS"

// Service endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	cutoutPath   = "/gleam_postage/q/siap.xml"
	fourJyBase   = "http://mwa-web.icrar.org/gleam_4jy/q/siap.xml"
	retrieveBase = "http://store06.icrar.org:7777/RETRIEVE"
)

// Projection is the sky-to-plane projection applied to cutout images.
type Projection string

const (
	ProjectionZEA       Projection = "ZEA"
	ProjectionZEARegrid Projection = "ZEA_regrid"
	ProjectionSIN       Projection = "SIN"
)

// Projections lists the legal projection options.
var Projections = []Projection{ProjectionZEA, ProjectionZEARegrid, ProjectionSIN}

// ParseProjection validates s against Projections. An empty string selects
// ZEA.
func ParseProjection(s string) (Projection, error) {
	if s == "" {
		return ProjectionZEA, nil
	}
	for _, p := range Projections {
		if string(p) == s {
			return p, nil
		}
	}
	return "", invalidParam("invalid projection %q, should be one of %v", s, Projections)
}

// Param is one extra query parameter. Extra parameters are kept in a slice
// so the generated URLs are deterministic.
type Param struct {
	Key   string
	Value string
}

// ParseParams converts "key=value" strings into Params, preserving order.
func ParseParams(pairs []string) ([]Param, error) {
	params := make([]Param, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, invalidParam("extra parameter %q is not key=value", p)
		}
		params = append(params, Param{Key: k, Value: v})
	}
	return params, nil
}

func encodeParams(params []Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// CutoutURL builds the postage-stamp SIAP query for a position in degrees.
// host may carry a scheme ("https://vo.example"); plain hosts use http.
func CutoutURL(host string, ra, dec, size float64, proj Projection, extra []Param) string {
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(host, "/"))
	sb.WriteString(cutoutPath)
	sb.WriteString("?" + siapParams)
	sb.WriteString("&POS=" + url.QueryEscape(formatNumber(ra)+","+formatNumber(dec)))
	sb.WriteString("&SIZE=" + url.QueryEscape(strconv.FormatFloat(size, 'f', 6, 64)))
	sb.WriteString("&proj_opt=" + url.QueryEscape(string(proj)))
	if len(extra) > 0 {
		sb.WriteString("&" + encodeParams(extra))
	}
	return sb.String()
}

// FourJyURL builds the 4Jy catalogue SIAP query. pos is passed through
// unmodified before escaping, e.g. "23:22:03 -24:10:44".
func FourJyURL(pos string, radiusArcmin float64, extra []Param) string {
	u := fmt.Sprintf("%s?%s&POS=%s&sr=%s", fourJyBase, siapParams,
		url.QueryEscape(pos), url.QueryEscape(formatNumber(radiusArcmin)))
	if len(extra) > 0 {
		u += "&" + encodeParams(extra)
	}
	return u
}

// RetrieveURL is the archive URL serving the file with the given id.
func RetrieveURL(fileID string) string {
	return retrieveBase + "?file_id=" + url.QueryEscape(fileID)
}

// resolveURL appends the extra parameters to a row's download URL and
// substitutes the command token for CommandPlaceholder.
func resolveURL(locator string, extra []Param, token string) string {
	u := locator
	if len(extra) > 0 {
		sep := "&"
		if !strings.Contains(u, "?") {
			sep = "?"
		}
		u += sep + encodeParams(extra)
	}
	if token != "" {
		u = strings.ReplaceAll(u, CommandPlaceholder, token)
	}
	return u
}

func validateSize(size float64) error {
	if math.IsNaN(size) || size <= 0 {
		return invalidParam("angular size %v must be positive", size)
	}
	if size > MaxAngularSize {
		return invalidParam("angular size %.1f > %.1f (degrees)", size, MaxAngularSize)
	}
	return nil
}

func validateDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return invalidParam("invalid download dir: %s", dir)
	}
	return nil
}

// formatNumber renders a float the way positions and sizes appear in
// queries and file names: shortest form, always with a decimal point
// (50.67, -37.2, 1.0).
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
