package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"storebench/history"
	"storebench/report"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit    int
		markdown bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded benchmark runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.HistoryPath == "" {
				return errors.New("no history file configured (set --history or history_path)")
			}
			ledger, err := history.Open(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				report.PrintInfo(os.Stdout, "No runs recorded yet")
				return nil
			}
			report.DisplayHistory(os.Stdout, entries, markdown)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the table as Markdown")
	return cmd
}
