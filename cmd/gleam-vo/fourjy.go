// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gleam-vo/internal/cutout"
	"github.com/pdiddy/gleam-vo/internal/httputil"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

var fourjyCmd = &cobra.Command{
	Use:   "fourjy <position>",
	Short: "Query the GLEAM 4Jy sample around a sexagesimal position",
	Long: `Fourjy queries the GLEAM 4Jy catalogue service for images within --radius
arcminutes of a sexagesimal position and downloads each file, named by its
archive file id, into --download-dir. Without a download directory the file
ids are listed and nothing is written.

The position may be given as one quoted argument or as two arguments.`,
	Example: `  gleam-vo fourjy 23:22:03 -24:10:44 --download-dir ./4jy`,
	Args:    cobra.RangeArgs(1, 2),
	RunE:    runFourJy,
}

func init() {
	f := fourjyCmd.Flags()
	f.Float64("radius", cutout.DefaultRadiusArcmin, "search radius (arcminutes)")
	f.String("download-dir", "", "existing directory to download into (list only when empty)")
	f.Bool("overwrite", false, "replace files that already exist")
	f.StringArray("param", nil, "extra query parameter key=value, appended in order (repeatable)")
	f.Bool("yaml", false, "print the batch report as YAML")

	bindFlags(f, map[string]string{
		"fourjy.radius_arcmin": "radius",
		"fourjy.download_dir":  "download-dir",
		"fourjy.overwrite":     "overwrite",
	})

	rootCmd.AddCommand(fourjyCmd)
}

func runFourJy(cmd *cobra.Command, args []string) error {
	pos := strings.Join(args, " ")
	rawParams, _ := cmd.Flags().GetStringArray("param")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	extra, err := cutout.ParseParams(rawParams)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	client := httputil.NewClient(cfg.FourJy.HTTPConfig)
	ctx := cmd.Context()

	return runBatch(ctx, cfg, asYAML, func(hooks cutout.Hooks, out io.Writer) (types.BatchResult, error) {
		return cutout.QueryBySexagesimalPosition(ctx, client, pos, cfg.FourJy.RadiusArcmin, cutout.FourJyOptions{
			DownloadDir: cfg.FourJy.DownloadDir,
			Overwrite:   cfg.FourJy.Overwrite,
			Extra:       extra,
			Out:         out,
			Hooks:       hooks,
		})
	})
}
