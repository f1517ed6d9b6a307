// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every request the client makes.
type HTTPConfig struct {
	// Timeout bounds each individual request (VO query or file download).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "gleam-vo/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CutoutConfig holds settings for the GLEAM postage-stamp service.
type CutoutConfig struct {
	HTTPConfig `yaml:",inline"`

	// Host is the postage-stamp VO host (e.g. "gleam-vo.icrar.org").
	Host string `json:"host" yaml:"host"`

	// DownloadDir is the existing directory images are written to. Empty
	// means dry run: rows are reported, nothing is downloaded.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// Overwrite replaces artifacts that already exist on disk.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`

	// Projection is the default projection option (ZEA, ZEA_regrid, SIN).
	Projection string `json:"projection" yaml:"projection"`
}

// FourJyConfig holds settings for the GLEAM 4Jy catalogue service.
type FourJyConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDir is the existing directory files are written to.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// Overwrite replaces files that already exist on disk.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`

	// RadiusArcmin is the default search radius (5 arcmin).
	RadiusArcmin float64 `json:"radius_arcmin" yaml:"radius_arcmin"`
}

// LedgerConfig locates the SQLite download ledger. An empty Path disables it.
type LedgerConfig struct {
	Path string `json:"path" yaml:"path"`
}

// MetricsConfig controls the Prometheus textfile export. An empty
// TextfilePath disables the export; metrics are still collected.
type MetricsConfig struct {
	TextfilePath string `json:"textfile_path" yaml:"textfile_path"`
}

// ArchiveConfig configures the optional S3 mirror of written artifacts.
type ArchiveConfig struct {
	// Bucket is the destination bucket. Empty disables the mirror.
	Bucket string `json:"bucket" yaml:"bucket"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix" yaml:"prefix"`

	Region string `json:"region" yaml:"region"`

	// AccessKeyID and SecretAccessKey are optional static credentials. When
	// empty the default AWS credential chain is used.
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`

	// Timeout bounds each upload.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Config groups all settings of the CLI.
type Config struct {
	Cutout  CutoutConfig  `json:"cutout" yaml:"cutout"`
	FourJy  FourJyConfig  `json:"fourjy" yaml:"fourjy"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}
