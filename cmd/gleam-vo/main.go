// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the gleam-vo CLI.
// Subcommands: cutout (postage stamps by degrees), fourjy (4Jy catalogue by
// sexagesimal position), history (download ledger), version.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/gleam-vo/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when it is set, otherwise the secret value
// for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the gleam-vo CLI.
var rootCmd = &cobra.Command{
	Use:   "gleam-vo",
	Short: "Query the GLEAM Virtual Observatory and download cutouts",
	Long: `gleam-vo queries the GLEAM (GaLactic and Extragalactic All-sky MWA)
Virtual Observatory services and downloads the FITS images they return.

Use "cutout" for postage-stamp images around a position in degrees and
"fourjy" for images of the GLEAM 4Jy sample around a sexagesimal position.
Without a download directory both commands only list what would be fetched.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFiles, err := secrets.LoadEnv(".env", ".env.local")
		if err != nil {
			return err
		}
		if len(envFiles) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded env files: %v\n", envFiles)
		}

		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./gleam-vo.yaml or ~/.config/gleam-vo/gleam-vo.yaml)")
	pf.Duration("timeout", 0, "timeout of each HTTP request (default 200s)")
	pf.String("user-agent", "", "User-Agent header sent with every request")
	pf.String("ledger", "", "SQLite ledger recording every row outcome (disabled when empty)")
	pf.String("metrics-file", "", "write Prometheus metrics to this textfile after the run")
	pf.String("s3-bucket", "", "mirror written files to this S3 bucket")
	pf.String("s3-prefix", "", "key prefix for mirrored files")
	pf.String("s3-region", "", "region of the S3 bucket")

	bindFlags(pf, map[string]string{
		"timeout":               "timeout",
		"user_agent":            "user-agent",
		"ledger.path":           "ledger",
		"metrics.textfile_path": "metrics-file",
		"archive.bucket":        "s3-bucket",
		"archive.prefix":        "s3-prefix",
		"archive.region":        "s3-region",
	})
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gleam-vo")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gleam-vo"))
		}
	}

	viper.SetEnvPrefix("GLEAM_VO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
