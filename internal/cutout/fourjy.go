// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cutout

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/gleam-vo/internal/votable"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

// DefaultRadiusArcmin is the default 4Jy search radius.
const DefaultRadiusArcmin = 5.0

// FourJyOptions configures QueryBySexagesimalPosition.
type FourJyOptions struct {
	// DownloadDir must exist. Empty means dry run.
	DownloadDir string

	// Overwrite replaces files that already exist.
	Overwrite bool

	// Extra parameters are appended, in order, to the query URL and to each
	// retrieval URL.
	Extra []Param

	// Out receives progress lines; io.Discard when nil.
	Out io.Writer

	Hooks
}

// QueryBySexagesimalPosition queries the 4Jy catalogue service around pos
// (e.g. "23:22:03 -24:10:44" or "23:22:03,-24:10:44") within radiusArcmin
// and processes every returned file. Files are saved under their archive
// file id. Error semantics match QueryByDegrees.
func QueryBySexagesimalPosition(ctx context.Context, client *http.Client, pos string, radiusArcmin float64, opts FourJyOptions) (result types.BatchResult, err error) {
	if strings.TrimSpace(pos) == "" {
		return types.BatchResult{}, invalidParam("empty position")
	}
	if math.IsNaN(radiusArcmin) || radiusArcmin <= 0 {
		return types.BatchResult{}, invalidParam("search radius %v must be positive", radiusArcmin)
	}
	if err := validateDir(opts.DownloadDir); err != nil {
		return types.BatchResult{}, err
	}

	queryURL := FourJyURL(pos, radiusArcmin, opts.Extra)
	result = newBatch(types.ServiceFourJy, queryURL)
	defer func() { result.FinishedAt = time.Now().UTC() }()

	tbl, err := fetchTable(ctx, client, types.ServiceFourJy, queryURL, opts.Observer)
	if err != nil {
		return result, err
	}
	result.TableRows = tbl.Len()

	svc := service{
		kind: types.ServiceFourJy,
		downloadURL: func(fileID string) string {
			return resolveURL(RetrieveURL(fileID), opts.Extra, "")
		},
		name: func(r row, isError bool) string {
			if isError {
				return "error_" + r.locator + ".html"
			}
			return r.locator
		},
		report: func(w io.Writer, r row, _ string) {
			fmt.Fprintf(w, "File %s\n", r.locator)
		},
	}

	p := newProcessor(client, svc, opts.DownloadDir, opts.Overwrite, nil, opts.Out, opts.Hooks)
	err = p.run(ctx, fourJyRows(tbl), &result)
	return result, err
}

// fourJyRows reads the archive file id of each row: the file_id column when
// present, otherwise the second-to-last column.
func fourJyRows(tbl *votable.Table) []row {
	col := tbl.Column("file_id")
	if col < 0 {
		col = -2
	}
	rows := make([]row, 0, tbl.Len())
	for i := range tbl.Rows {
		rows = append(rows, row{locator: tbl.Value(i, col)})
	}
	return rows
}
