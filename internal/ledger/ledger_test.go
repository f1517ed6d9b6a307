// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gleam-vo/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.LedgerConfig{Path: filepath.Join(t.TempDir(), "state", "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_EmptyPath(t *testing.T) {
	_, err := NewStore(types.LedgerConfig{})
	assert.Error(t, err)
}

func TestNewStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	s, err := NewStore(types.LedgerConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, "b1", types.ServiceCutout, types.RowReport{Locator: "u1", Outcome: types.OutcomeReported}))
	require.NoError(t, s.Close())

	s, err = NewStore(types.LedgerConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_RecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	rows := []types.RowReport{
		{Frequency: "072-080", Locator: "http://h/a", URL: "http://h/a", Outcome: types.OutcomeDownloaded, Path: "/d/a.fits", Bytes: 2880},
		{Frequency: "080-088", Locator: "http://h/b", URL: "http://h/b", Outcome: types.OutcomeSavedAsError, Path: "/d/error_b.html", Bytes: 12, Error: "HTTP 500 from http://h/b"},
	}
	for _, r := range rows {
		require.NoError(t, s.Record(ctx, "batch-1", types.ServiceCutout, r))
	}
	require.NoError(t, s.Record(ctx, "batch-2", types.ServiceFourJy, types.RowReport{Locator: "J2322.fits", Outcome: types.OutcomeReported}))

	all, err := s.List(ctx, QueryOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "batch-2", all[0].BatchID, "most recent first")
	assert.Equal(t, types.ServiceFourJy, all[0].Service)

	got := all[1]
	assert.Equal(t, "batch-1", got.BatchID)
	assert.Equal(t, fixed, got.RecordedAt)
	assert.Equal(t, rows[1], got.RowReport)

	byBatch, err := s.List(ctx, QueryOptions{BatchID: "batch-1"})
	require.NoError(t, err)
	assert.Len(t, byBatch, 2)

	errs, err := s.List(ctx, QueryOptions{Outcome: types.OutcomeSavedAsError})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "/d/error_b.html", errs[0].Path)

	fourjy, err := s.List(ctx, QueryOptions{Service: types.ServiceFourJy})
	require.NoError(t, err)
	assert.Len(t, fourjy, 1)

	limited, err := s.List(ctx, QueryOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_RecordCanceled(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Record(ctx, "b", types.ServiceCutout, types.RowReport{Locator: "x", Outcome: types.OutcomeReported}))
}

func TestExportYAML(t *testing.T) {
	entries := []Entry{{
		BatchID:    "batch-1",
		Service:    types.ServiceCutout,
		RecordedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		RowReport:  types.RowReport{Frequency: "072-080", Locator: "http://h/a", Outcome: types.OutcomeDownloaded, Path: "/d/a.fits"},
	}}

	var buf bytes.Buffer
	require.NoError(t, ExportYAML(&buf, entries))
	assert.Contains(t, buf.String(), "batch_id: batch-1")
	assert.Contains(t, buf.String(), "outcome: downloaded")

	var decoded []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "/d/a.fits", decoded[0]["path"])
	assert.Equal(t, "072-080", decoded[0]["frequency"])
}
