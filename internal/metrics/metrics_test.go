// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gleam-vo/internal/cutout"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

// Compile-time check.
var _ cutout.Observer = (*Metrics)(nil)

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_ObserveRow(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveRow(types.ServiceCutout, types.RowReport{Outcome: types.OutcomeDownloaded, Bytes: 100})
	m.ObserveRow(types.ServiceCutout, types.RowReport{Outcome: types.OutcomeDownloaded, Bytes: 50})
	m.ObserveRow(types.ServiceCutout, types.RowReport{Outcome: types.OutcomeSavedAsError, Bytes: 10})
	m.ObserveRow(types.ServiceFourJy, types.RowReport{Outcome: types.OutcomeReported})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("cutout", "downloaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("cutout", "saved_as_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rowsTotal.WithLabelValues("4jy", "reported")))
	assert.Equal(t, 160.0, testutil.ToFloat64(m.bytesTotal.WithLabelValues("cutout")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.bytesTotal), "rows without bytes add no series")
}

func TestMetrics_ObserveQuery(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveQuery(types.ServiceCutout, 2*time.Second, nil)
	m.ObserveQuery(types.ServiceCutout, time.Second, fmt.Errorf("%w: HTTP 503", cutout.ErrFetch))
	m.ObserveQuery(types.ServiceFourJy, time.Second, cutout.ErrNoResults)

	assert.Equal(t, 2, testutil.CollectAndCount(m.queryDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryErrors.WithLabelValues("cutout", "fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryErrors.WithLabelValues("4jy", "no_results")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveRow(types.ServiceCutout, types.RowReport{Outcome: types.OutcomeDownloaded, Bytes: 2880})

	path := filepath.Join(t.TempDir(), "gleam_vo.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `gleam_vo_rows_total{outcome="downloaded",service="cutout"} 1`)
	assert.Contains(t, string(data), `gleam_vo_written_bytes_total{service="cutout"} 2880`)
}

func TestMetrics_WriteTextfileMissingDir(t *testing.T) {
	m := newTestMetrics(t)
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
