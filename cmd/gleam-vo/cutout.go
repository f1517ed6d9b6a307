// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gleam-vo/internal/cutout"
	"github.com/pdiddy/gleam-vo/internal/httputil"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

var cutoutCmd = &cobra.Command{
	Use:   "cutout",
	Short: "Query GLEAM postage stamps around a position in degrees",
	Long: `Cutout queries the GLEAM postage-stamp service for images of --size
degrees (at most 5) centred on --ra/--dec, filters them by frequency band,
and downloads them into --download-dir. Without a download directory the
matching bands and their URLs are listed and nothing is written.

A band the server fails to cut out is saved as error_<name>.html next to the
images and the run continues.`,
	Example: `  gleam-vo cutout --ra 50.67 --dec -37.20 --size 1 --projection SIN \
      --freq 072-080,080-088 --download-dir ./fornax`,
	RunE: runCutout,
}

func init() {
	f := cutoutCmd.Flags()
	f.Float64("ra", 0, "right ascension of the centre (degrees)")
	f.Float64("dec", 0, "declination of the centre (degrees)")
	f.Float64("size", 1.0, "angular size of the cutout (degrees, at most 5)")
	f.String("projection", "", "projection: ZEA, ZEA_regrid or SIN (default ZEA)")
	f.StringSlice("freq", nil, "frequency bands to keep, e.g. 072-080,080-088 (default all)")
	f.String("download-dir", "", "existing directory to download into (list only when empty)")
	f.String("host", "", "postage-stamp VO host (default "+cutout.DefaultHost+")")
	f.Bool("overwrite", false, "replace files that already exist")
	f.String("variant", "", "wide-band product variant: rms or background")
	f.String("command-token", "", "replace the GLEAMCUTOUT command in download URLs, e.g. GLEAMCUTOUTEX")
	f.StringArray("param", nil, "extra query parameter key=value, appended in order (repeatable)")
	f.Bool("yaml", false, "print the batch report as YAML")

	_ = cutoutCmd.MarkFlagRequired("ra")
	_ = cutoutCmd.MarkFlagRequired("dec")

	bindFlags(f, map[string]string{
		"cutout.host":         "host",
		"cutout.download_dir": "download-dir",
		"cutout.overwrite":    "overwrite",
		"cutout.projection":   "projection",
	})

	rootCmd.AddCommand(cutoutCmd)
}

func runCutout(cmd *cobra.Command, args []string) error {
	ra, _ := cmd.Flags().GetFloat64("ra")
	dec, _ := cmd.Flags().GetFloat64("dec")
	size, _ := cmd.Flags().GetFloat64("size")
	freqs, _ := cmd.Flags().GetStringSlice("freq")
	variantFlag, _ := cmd.Flags().GetString("variant")
	token, _ := cmd.Flags().GetString("command-token")
	rawParams, _ := cmd.Flags().GetStringArray("param")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	variant, err := cutout.ParseVariant(variantFlag)
	if err != nil {
		return err
	}
	extra, err := cutout.ParseParams(rawParams)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	client := httputil.NewClient(cfg.Cutout.HTTPConfig)
	ctx := cmd.Context()

	return runBatch(ctx, cfg, asYAML, func(hooks cutout.Hooks, out io.Writer) (types.BatchResult, error) {
		return cutout.QueryByDegrees(ctx, client, ra, dec, size, cutout.Options{
			Projection:   cutout.Projection(cfg.Cutout.Projection),
			Frequencies:  freqs,
			DownloadDir:  cfg.Cutout.DownloadDir,
			Host:         cfg.Cutout.Host,
			Overwrite:    cfg.Cutout.Overwrite,
			Variant:      variant,
			CommandToken: token,
			Extra:        extra,
			Out:          out,
			Hooks:        hooks,
		})
	})
}

