// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cutout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/gleam-vo/internal/httputil"
	"github.com/pdiddy/gleam-vo/internal/votable"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

// FITSContentType is the media type a successful cutout download carries.
const FITSContentType = "image/fits"

// chunkSize bounds the memory used while streaming an artifact to disk.
const chunkSize = 64 * 1024

// Recorder persists row outcomes. The SQLite ledger implements it.
type Recorder interface {
	Record(ctx context.Context, batchID string, service types.Service, row types.RowReport) error
}

// Observer receives measurements of queries and rows.
type Observer interface {
	ObserveQuery(service types.Service, elapsed time.Duration, err error)
	ObserveRow(service types.Service, row types.RowReport)
}

// Hooks are optional collaborators notified while a batch runs. A failing
// Recorder produces a warning; it never fails the batch.
type Hooks struct {
	Recorder Recorder
	Observer Observer
}

// row is a table row reduced to what the processor needs.
type row struct {
	freq    string
	locator string
}

// service captures what differs between postage-stamp and 4Jy rows.
type service struct {
	kind types.Service

	// downloadURL resolves a row locator into the URL to fetch.
	downloadURL func(locator string) string

	// name returns the artifact file name for the row.
	name func(r row, isError bool) string

	// wantType is the media type a successful download must carry. Empty
	// accepts any type.
	wantType string

	// report writes the dry-run line for a row.
	report func(w io.Writer, r row, url string)
}

type processor struct {
	client    *http.Client
	svc       service
	dir       string
	overwrite bool
	filter    map[string]bool
	w         io.Writer
	hooks     Hooks
}

func newProcessor(client *http.Client, svc service, dir string, overwrite bool, freqs []string, w io.Writer, hooks Hooks) *processor {
	var filter map[string]bool
	if len(freqs) > 0 {
		filter = make(map[string]bool, len(freqs))
		for _, f := range freqs {
			filter[f] = true
		}
	}
	if w == nil {
		w = io.Discard
	}
	return &processor{
		client:    client,
		svc:       svc,
		dir:       dir,
		overwrite: overwrite,
		filter:    filter,
		w:         w,
		hooks:     hooks,
	}
}

func (p *processor) passes(freq string) bool {
	return p.filter == nil || p.filter[freq]
}

// run processes rows in table order. It stops at the first error that
// cannot be recovered per row; the rows completed so far stay in result.
func (p *processor) run(ctx context.Context, rows []row, result *types.BatchResult) error {
	for _, r := range rows {
		if !p.passes(r.freq) {
			continue
		}
		rep, err := p.process(ctx, r)
		if err != nil {
			return err
		}
		result.Rows = append(result.Rows, rep)
		p.notify(ctx, result.ID, rep)
	}

	if len(result.Rows) == 0 {
		const msg = "no results from the VO query"
		fmt.Fprintf(p.w, "warning: %s\n", msg)
		result.Warnings = append(result.Warnings, msg)
	}
	return nil
}

func (p *processor) notify(ctx context.Context, batchID string, rep types.RowReport) {
	if p.hooks.Observer != nil {
		p.hooks.Observer.ObserveRow(p.svc.kind, rep)
	}
	if p.hooks.Recorder != nil {
		if err := p.hooks.Recorder.Record(ctx, batchID, p.svc.kind, rep); err != nil {
			fmt.Fprintf(p.w, "  warning: recording %s failed: %v\n", rep.Locator, err)
		}
	}
}

func (p *processor) process(ctx context.Context, r row) (types.RowReport, error) {
	u := p.svc.downloadURL(r.locator)
	rep := types.RowReport{Frequency: r.freq, Locator: r.locator, URL: u}

	if p.dir == "" {
		p.svc.report(p.w, r, u)
		rep.Outcome = types.OutcomeReported
		return rep, nil
	}

	path := filepath.Join(p.dir, safeName(p.svc.name(r, false)))
	if !p.overwrite {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(p.w, "File '%s' exists already\n", path)
			rep.Outcome = types.OutcomeSkipped
			rep.Path = path
			return rep, nil
		}
	}

	resp, err := httputil.Get(ctx, p.client, u)
	if err != nil {
		return rep, &RowDownloadError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return p.saveErrorBody(r, rep, resp)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return rep, &RowDownloadError{URL: u, StatusCode: resp.StatusCode}
	}

	isError := false
	if p.svc.wantType != "" {
		if got := mediaType(resp.Header.Get("Content-Type")); got != p.svc.wantType {
			isError = true
			rep.Error = (&ContentMismatchError{URL: u, ContentType: got, Want: p.svc.wantType}).Error()
			path = filepath.Join(p.dir, safeName(p.svc.name(r, true)))
		}
	}

	n, err := writeArtifact(path, resp.Body)
	if errors.Is(err, errReadBody) {
		return rep, &RowDownloadError{URL: u, Err: err}
	}
	if err != nil {
		return rep, fmt.Errorf("saving %s: %w", path, err)
	}
	rep.Path = path
	rep.Bytes = n

	if isError {
		fmt.Fprintf(p.w, "Error info at '%s'\n", path)
		rep.Outcome = types.OutcomeSavedAsError
	} else {
		fmt.Fprintf(p.w, "File '%s' downloaded\n", path)
		rep.Outcome = types.OutcomeDownloaded
	}
	return rep, nil
}

// saveErrorBody keeps a failed row's diagnostic payload under the error
// name. An empty or unreadable payload leaves nothing to save and aborts
// the batch.
func (p *processor) saveErrorBody(r row, rep types.RowReport, resp *http.Response) (types.RowReport, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rep, &RowDownloadError{URL: rep.URL, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %w", errReadBody, err)}
	}
	if len(body) == 0 {
		return rep, &RowDownloadError{URL: rep.URL, StatusCode: resp.StatusCode, Err: errEmptyBody}
	}

	path := filepath.Join(p.dir, safeName(p.svc.name(r, true)))
	n, err := writeArtifact(path, bytes.NewReader(body))
	if err != nil {
		return rep, fmt.Errorf("saving %s: %w", path, err)
	}
	fmt.Fprintf(p.w, "Error info at '%s'\n", path)

	rep.Outcome = types.OutcomeSavedAsError
	rep.Path = path
	rep.Bytes = n
	rep.Error = fmt.Sprintf("HTTP %d from %s", resp.StatusCode, rep.URL)
	return rep, nil
}

// writeArtifact streams r into path in fixed-size chunks. It writes to a
// temporary file in the same directory and renames it on success, so a
// failed transfer never leaves a partial file under the final name.
// Failures reading r wrap errReadBody; all others are local file errors.
func writeArtifact(path string, r io.Reader) (n int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".gleam-vo-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing temp file: %w", closeErr)
		}
		if err != nil {
			os.Remove(tmpPath)
			return
		}
		if renameErr := os.Rename(tmpPath, path); renameErr != nil {
			os.Remove(tmpPath)
			err = fmt.Errorf("renaming temp file: %w", renameErr)
		}
	}()

	if err := tmp.Chmod(0o644); err != nil {
		return 0, fmt.Errorf("setting permissions: %w", err)
	}

	buf := make([]byte, chunkSize)
	for {
		k, readErr := r.Read(buf)
		if k > 0 {
			if _, writeErr := tmp.Write(buf[:k]); writeErr != nil {
				return n, fmt.Errorf("writing: %w", writeErr)
			}
			n += int64(k)
		}
		if readErr == io.EOF {
			return n, nil
		}
		if readErr != nil {
			return n, fmt.Errorf("%w: %w", errReadBody, readErr)
		}
	}
}

// fetchTable runs the VO query and parses the answer.
func fetchTable(ctx context.Context, client *http.Client, kind types.Service, queryURL string, obs Observer) (tbl *votable.Table, err error) {
	start := time.Now()
	if obs != nil {
		defer func() { obs.ObserveQuery(kind, time.Since(start), err) }()
	}

	resp, err := httputil.Get(ctx, client, queryURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrFetch, resp.StatusCode, queryURL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrFetch, err)
	}

	tbl, err = votable.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoResults, err)
	}
	if tbl.Len() == 0 {
		return nil, ErrNoResults
	}
	return tbl, nil
}

func newBatch(kind types.Service, queryURL string) types.BatchResult {
	return types.BatchResult{
		ID:        uuid.NewString(),
		Service:   kind,
		QueryURL:  queryURL,
		StartedAt: time.Now().UTC(),
	}
}

func mediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// safeName strips directory components so remote values cannot place
// files outside the download directory.
func safeName(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return "unnamed"
	}
	return base
}
