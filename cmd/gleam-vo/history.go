// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gleam-vo/internal/ledger"
	"github.com/pdiddy/gleam-vo/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded row outcomes from the download ledger",
	Long: `History lists the rows recorded in the SQLite ledger (--ledger or
ledger.path in the config file), most recent first.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("batch", "", "only rows of this batch id")
	historyCmd.Flags().String("service", "", "only rows of this service: cutout or 4jy")
	historyCmd.Flags().String("outcome", "", "only rows with this outcome: reported, downloaded, skipped, saved_as_error")
	historyCmd.Flags().Int("limit", 50, "maximum number of rows")
	historyCmd.Flags().Bool("yaml", false, "output rows as YAML")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.Ledger.Path == "" {
		return fmt.Errorf("no ledger configured: set --ledger or ledger.path")
	}

	batch, _ := cmd.Flags().GetString("batch")
	service, _ := cmd.Flags().GetString("service")
	outcome, _ := cmd.Flags().GetString("outcome")
	limit, _ := cmd.Flags().GetInt("limit")
	asYAML, _ := cmd.Flags().GetBool("yaml")

	store, err := ledger.NewStore(cfg.Ledger)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), ledger.QueryOptions{
		BatchID: batch,
		Service: types.Service(service),
		Outcome: types.Outcome(outcome),
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	if asYAML {
		return ledger.ExportYAML(os.Stdout, entries)
	}
	formatHistory(os.Stdout, entries)
	return nil
}

func formatHistory(w io.Writer, entries []ledger.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No rows recorded.")
		return
	}

	fmt.Fprintf(w, "%-20s  %-8s  %-6s  %-14s  %-8s  %s\n",
		"Recorded", "Batch", "Svc", "Outcome", "Freq", "Path / URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, e := range entries {
		target := e.Path
		if target == "" {
			target = e.URL
		}
		batch := e.BatchID
		if len(batch) > 8 {
			batch = batch[:8]
		}
		fmt.Fprintf(w, "%-20s  %-8s  %-6s  %-14s  %-8s  %s\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			batch, e.Service, e.Outcome, e.Frequency, target)
	}
}
