// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gleam-vo/internal/ledger"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

func TestPrintResult_Summary(t *testing.T) {
	result := types.BatchResult{Rows: []types.RowReport{
		{Outcome: types.OutcomeDownloaded},
		{Outcome: types.OutcomeDownloaded},
		{Outcome: types.OutcomeSavedAsError},
		{Outcome: types.OutcomeSkipped},
	}}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, result, false))
	assert.Equal(t, "\n4 row(s): 2 downloaded, 1 skipped, 1 saved as error, 0 listed\n", buf.String())
}

func TestPrintResult_EmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, types.BatchResult{}, false))
	assert.Empty(t, buf.String())
}

func TestPrintResult_YAML(t *testing.T) {
	result := types.BatchResult{
		ID:      "b-1",
		Service: types.ServiceCutout,
		Rows:    []types.RowReport{{Frequency: "072-080", Locator: "http://h/a", Outcome: types.OutcomeReported}},
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, result, true))
	assert.Contains(t, buf.String(), "id: b-1")
	assert.Contains(t, buf.String(), "service: cutout")
	assert.Contains(t, buf.String(), "frequency: 072-080")
}

func TestFormatHistory(t *testing.T) {
	var buf bytes.Buffer
	formatHistory(&buf, nil)
	assert.Equal(t, "No rows recorded.\n", buf.String())

	buf.Reset()
	formatHistory(&buf, []ledger.Entry{{
		BatchID:    "0f8e3c5a-1111-2222-3333-444455556666",
		Service:    types.ServiceFourJy,
		RecordedAt: time.Now(),
		RowReport:  types.RowReport{Locator: "J2322.fits", URL: "http://h/RETRIEVE?file_id=J2322.fits", Outcome: types.OutcomeReported},
	}})
	assert.Contains(t, buf.String(), "0f8e3c5a  4jy")
	assert.Contains(t, buf.String(), "http://h/RETRIEVE?file_id=J2322.fits")
}

func TestBatchRun_FinishWritesMetricsAndClosesLedger(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{
		Ledger:  types.LedgerConfig{Path: filepath.Join(dir, "ledger.db")},
		Metrics: types.MetricsConfig{TextfilePath: filepath.Join(dir, "gleam_vo.prom")},
	}

	run, err := newBatchRun(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	hooks := run.hooks()
	require.NotNil(t, hooks.Recorder)
	require.NotNil(t, hooks.Observer)

	row := types.RowReport{Locator: "http://h/a", Outcome: types.OutcomeSkipped, Path: filepath.Join(dir, "a.fits")}
	require.NoError(t, hooks.Recorder.Record(context.Background(), "b-1", types.ServiceCutout, row))
	hooks.Observer.ObserveRow(types.ServiceCutout, row)

	require.NoError(t, run.finish(context.Background(), types.BatchResult{Rows: []types.RowReport{row}}))

	data, err := os.ReadFile(cfg.Metrics.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gleam_vo_rows_total{outcome="skipped",service="cutout"} 1`)

	store, err := ledger.NewStore(cfg.Ledger)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.List(context.Background(), ledger.QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBatchRun_NoLedger(t *testing.T) {
	run, err := newBatchRun(types.Config{}, nil)
	require.NoError(t, err)
	assert.Nil(t, run.hooks().Recorder)
	assert.NoError(t, run.finish(context.Background(), types.BatchResult{}))
}
