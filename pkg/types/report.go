// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Service identifies which VO service answered a query.
type Service string

const (
	ServiceCutout Service = "cutout"
	ServiceFourJy Service = "4jy"
)

// Outcome is the terminal state of one processed row.
type Outcome string

const (
	// OutcomeReported means the row was listed without any I/O (dry run).
	OutcomeReported Outcome = "reported"

	// OutcomeDownloaded means the image was written under its success name.
	OutcomeDownloaded Outcome = "downloaded"

	// OutcomeSkipped means the target already existed and overwrite was off.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeSavedAsError means the service signalled a failure for this row
	// and its diagnostic payload was written under the error name.
	OutcomeSavedAsError Outcome = "saved_as_error"
)

// RowReport describes what happened to one row that passed the frequency
// filter.
type RowReport struct {
	// Frequency is the row's frequency label (e.g. "072-080"). Empty for
	// services that do not return one.
	Frequency string `json:"frequency,omitempty" yaml:"frequency,omitempty"`

	// Locator is the download URL (postage stamps) or file id (4Jy).
	Locator string `json:"locator" yaml:"locator"`

	// URL is the fully resolved download URL after extra parameters and
	// command-token substitution. Equal to Locator for dry runs of URL rows.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	Outcome Outcome `json:"outcome" yaml:"outcome"`

	// Path is the local artifact path. Empty for reported rows.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Bytes is the number of bytes written to Path.
	Bytes int64 `json:"bytes,omitempty" yaml:"bytes,omitempty"`

	// Error describes the per-row failure for OutcomeSavedAsError rows.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchResult holds the outcome of one query call.
type BatchResult struct {
	// ID uniquely identifies the batch (used by the ledger).
	ID string `json:"id" yaml:"id"`

	Service Service `json:"service" yaml:"service"`

	// QueryURL is the VO query that produced the table.
	QueryURL string `json:"query_url" yaml:"query_url"`

	// TableRows is the number of rows the service returned before filtering.
	TableRows int `json:"table_rows" yaml:"table_rows"`

	Rows []RowReport `json:"rows" yaml:"rows"`

	// Warnings collects non-fatal notices such as "no results".
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Count returns the number of rows that ended in outcome o.
func (r BatchResult) Count(o Outcome) int {
	n := 0
	for _, row := range r.Rows {
		if row.Outcome == o {
			n++
		}
	}
	return n
}

// HasErrors reports whether any row was saved as an error artifact.
func (r BatchResult) HasErrors() bool {
	return r.Count(OutcomeSavedAsError) > 0
}

// Paths returns the local paths of every artifact written by the batch,
// in row order. Skipped rows are not included.
func (r BatchResult) Paths() []string {
	var paths []string
	for _, row := range r.Rows {
		if row.Outcome == OutcomeDownloaded || row.Outcome == OutcomeSavedAsError {
			paths = append(paths, row.Path)
		}
	}
	return paths
}
