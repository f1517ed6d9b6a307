// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gleam-vo/internal/archive"
	"github.com/pdiddy/gleam-vo/internal/cutout"
	"github.com/pdiddy/gleam-vo/internal/httputil"
	"github.com/pdiddy/gleam-vo/internal/ledger"
	"github.com/pdiddy/gleam-vo/internal/metrics"
	"github.com/pdiddy/gleam-vo/internal/secrets"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

// bindFlags binds each viper key to the named flag so config file and
// environment values act as flag defaults.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

// loadConfig assembles the typed configuration from flags, config file,
// environment and secrets.
func loadConfig() types.Config {
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("timeout"),
		UserAgent: viper.GetString("user_agent"),
	}
	if httpCfg.UserAgent == "" {
		httpCfg.UserAgent = httputil.DefaultUserAgent
	}

	return types.Config{
		Cutout: types.CutoutConfig{
			HTTPConfig:  httpCfg,
			Host:        viper.GetString("cutout.host"),
			DownloadDir: viper.GetString("cutout.download_dir"),
			Overwrite:   viper.GetBool("cutout.overwrite"),
			Projection:  viper.GetString("cutout.projection"),
		},
		FourJy: types.FourJyConfig{
			HTTPConfig:   httpCfg,
			DownloadDir:  viper.GetString("fourjy.download_dir"),
			Overwrite:    viper.GetBool("fourjy.overwrite"),
			RadiusArcmin: viper.GetFloat64("fourjy.radius_arcmin"),
		},
		Ledger: types.LedgerConfig{
			Path: viper.GetString("ledger.path"),
		},
		Metrics: types.MetricsConfig{
			TextfilePath: viper.GetString("metrics.textfile_path"),
		},
		Archive: types.ArchiveConfig{
			Bucket:          viper.GetString("archive.bucket"),
			Prefix:          viper.GetString("archive.prefix"),
			Region:          viper.GetString("archive.region"),
			AccessKeyID:     secretDefault(secrets.AWSAccessKeyID, viper.GetString("archive.access_key_id")),
			SecretAccessKey: secretDefault(secrets.AWSSecretAccessKey, viper.GetString("archive.secret_access_key")),
			Timeout:         viper.GetDuration("archive.timeout"),
		},
	}
}

// batchRun owns the optional collaborators of one command invocation: the
// ledger, the metrics registry and the S3 mirror.
type batchRun struct {
	cfg     types.Config
	out     io.Writer
	ledger  *ledger.Store
	metrics *metrics.Metrics
}

func newBatchRun(cfg types.Config, out io.Writer) (*batchRun, error) {
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}
	r := &batchRun{cfg: cfg, out: out, metrics: m}

	if cfg.Ledger.Path != "" {
		store, err := ledger.NewStore(cfg.Ledger)
		if err != nil {
			return nil, err
		}
		r.ledger = store
	}
	return r, nil
}

func (r *batchRun) hooks() cutout.Hooks {
	h := cutout.Hooks{Observer: r.metrics}
	if r.ledger != nil {
		h.Recorder = r.ledger
	}
	return h
}

// finish exports metrics, mirrors written artifacts and closes the ledger.
// It runs even when the batch failed, so partial results are kept.
func (r *batchRun) finish(ctx context.Context, result types.BatchResult) error {
	var errs []error

	if paths := result.Paths(); len(paths) > 0 && r.cfg.Archive.Bucket != "" {
		mirror, err := archive.New(ctx, r.cfg.Archive)
		if err != nil {
			errs = append(errs, err)
		} else {
			sum, err := mirror.MirrorBatch(ctx, result, r.out)
			if err != nil {
				errs = append(errs, err)
			} else if sum.Failed > 0 {
				errs = append(errs, fmt.Errorf("%d file(s) failed to mirror", sum.Failed))
			}
		}
	}

	if path := r.cfg.Metrics.TextfilePath; path != "" {
		if err := r.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, err)
		}
	}

	if r.ledger != nil {
		if err := r.ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing ledger: %w", err))
		}
	}
	return errors.Join(errs...)
}

// printResult writes the batch report: YAML when asYAML, otherwise a
// one-line summary.
func printResult(w io.Writer, result types.BatchResult, asYAML bool) error {
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	}
	if len(result.Rows) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n%d row(s): %d downloaded, %d skipped, %d saved as error, %d listed\n",
		len(result.Rows),
		result.Count(types.OutcomeDownloaded),
		result.Count(types.OutcomeSkipped),
		result.Count(types.OutcomeSavedAsError),
		result.Count(types.OutcomeReported),
	)
	return nil
}

// runBatch wires the collaborators around query, reports its result and
// merges the errors of the batch and of the post-batch steps.
func runBatch(ctx context.Context, cfg types.Config, asYAML bool, query func(cutout.Hooks, io.Writer) (types.BatchResult, error)) error {
	// Progress lines go to stderr when stdout carries the YAML report.
	progress := io.Writer(os.Stdout)
	if asYAML {
		progress = os.Stderr
	}

	run, err := newBatchRun(cfg, progress)
	if err != nil {
		return err
	}

	result, queryErr := query(run.hooks(), progress)
	finishErr := run.finish(ctx, result)

	if queryErr == nil {
		if err := printResult(os.Stdout, result, asYAML); err != nil {
			return err
		}
	}
	return errors.Join(queryErr, finishErr)
}
