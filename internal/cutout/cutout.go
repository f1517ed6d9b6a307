// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cutout queries the GLEAM Virtual Observatory services and
// downloads the FITS images they reference.
//
// Each call is one sequential batch: build the SIAP query URL, fetch and
// parse the VO-Table, filter rows by frequency, then either report each row
// (no download directory) or download it. Rows are never retried. A server
// error with a payload is saved as an error artifact and the batch goes on;
// a server error without a payload aborts the batch.
package cutout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/gleam-vo/internal/votable"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

// Options configures QueryByDegrees.
type Options struct {
	// Projection defaults to ZEA.
	Projection Projection

	// Frequencies is the frequency allow-list (e.g. "072-080"). Empty
	// accepts every row.
	Frequencies []string

	// DownloadDir must exist. Empty means dry run.
	DownloadDir string

	// Host is the postage-stamp VO host; DefaultHost when empty.
	Host string

	// Overwrite replaces artifacts that already exist.
	Overwrite bool

	// Namer names artifacts; DefaultNamer, or VariantNamer when a Variant
	// is set, when nil.
	Namer Namer

	// Variant requests the rms or background product of the wide-band
	// image. It adds the rms=1|0 parameter to the query and download URLs.
	Variant Variant

	// CommandToken replaces CommandPlaceholder in download URLs.
	CommandToken string

	// Extra parameters are appended, in order, to the query URL and to each
	// download URL.
	Extra []Param

	// Out receives progress lines; io.Discard when nil.
	Out io.Writer

	Hooks
}

// QueryByDegrees queries the postage-stamp service for cutouts of size
// degrees centred on ra, dec and processes every matching row.
//
// Parameter errors (ErrInvalidParameter) are returned before any network
// access. A failed query returns ErrFetch, an empty table ErrNoResults.
// A *RowDownloadError aborts the batch; the returned result still lists the
// rows processed before it.
func QueryByDegrees(ctx context.Context, client *http.Client, ra, dec, size float64, opts Options) (result types.BatchResult, err error) {
	if err := validateSize(size); err != nil {
		return types.BatchResult{}, err
	}
	if err := validateDir(opts.DownloadDir); err != nil {
		return types.BatchResult{}, err
	}
	proj, err := ParseProjection(string(opts.Projection))
	if err != nil {
		return types.BatchResult{}, err
	}

	extra := append([]Param(nil), opts.Extra...)
	namer := opts.Namer
	if opts.Variant != VariantNone {
		extra = append(extra, opts.Variant.param())
		if namer == nil {
			namer = VariantNamer{Variant: opts.Variant}
		}
	}
	if namer == nil {
		namer = DefaultNamer{}
	}
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}

	queryURL := CutoutURL(host, ra, dec, size, proj, extra)
	result = newBatch(types.ServiceCutout, queryURL)
	defer func() { result.FinishedAt = time.Now().UTC() }()

	tbl, err := fetchTable(ctx, client, types.ServiceCutout, queryURL, opts.Observer)
	if err != nil {
		return result, err
	}
	result.TableRows = tbl.Len()

	pos := Position{RA: ra, Dec: dec}
	svc := service{
		kind: types.ServiceCutout,
		downloadURL: func(locator string) string {
			return resolveURL(locator, extra, opts.CommandToken)
		},
		name: func(r row, isError bool) string {
			return namer.Name(pos, size, r.freq, isError)
		},
		wantType: FITSContentType,
		report: func(w io.Writer, r row, u string) {
			fmt.Fprintf(w, "%s %s\n", r.freq, u)
		},
	}

	p := newProcessor(client, svc, opts.DownloadDir, opts.Overwrite, opts.Frequencies, opts.Out, opts.Hooks)
	err = p.run(ctx, cutoutRows(tbl), &result)
	return result, err
}

// cutoutRows reads the frequency label and download URL of each row. The
// columns are looked up by name, falling back to the first two columns.
func cutoutRows(tbl *votable.Table) []row {
	freqCol := tbl.Column("freq")
	if freqCol < 0 {
		freqCol = 0
	}
	urlCol := tbl.Column("accref")
	if urlCol < 0 {
		urlCol = 1
	}

	rows := make([]row, 0, tbl.Len())
	for i := range tbl.Rows {
		rows = append(rows, row{freq: tbl.Value(i, freqCol), locator: tbl.Value(i, urlCol)})
	}
	return rows
}
