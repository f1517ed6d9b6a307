// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cutout

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter marks a call rejected before any network access:
	// angular size too large, missing download directory, unknown projection.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrFetch marks a transport, timeout or HTTP status failure of the
	// primary VO query.
	ErrFetch = errors.New("VO query failed")

	// ErrNoResults marks a VO query that was answered but returned no usable
	// table (zero rows, no TABLE element, unparseable document, or a
	// QUERY_STATUS error). It is distinct from a filter that matches nothing,
	// which only produces a warning.
	ErrNoResults = errors.New("no results in the VO query")
)

var (
	errEmptyBody = errors.New("empty body")
	errReadBody  = errors.New("reading response")
)

// RowDownloadError reports a failed file fetch for one row and aborts the
// batch. Rows whose 5xx answer carries a readable payload are recovered by
// writing an error artifact instead; every other failure (transport error,
// truncated body, non-5xx error status, empty 5xx payload) is a
// RowDownloadError.
type RowDownloadError struct {
	URL        string
	StatusCode int // 0 for transport failures
	Err        error
}

func (e *RowDownloadError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("downloading %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("downloading %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *RowDownloadError) Unwrap() error { return e.Err }

// ContentMismatchError reports a successful download whose Content-Type is
// not the expected image type. The payload is kept as an error artifact.
type ContentMismatchError struct {
	URL         string
	ContentType string
	Want        string
}

func (e *ContentMismatchError) Error() string {
	return fmt.Sprintf("downloading %s: content type %q, want %q", e.URL, e.ContentType, e.Want)
}

func invalidParam(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
