package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storebench/benchmark"
	"storebench/report"
)

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Write the local synthetic dataset without transferring it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			generated, err := benchmark.GenerateDataset(ctx, cfg.BlobSizeMB, cfg.LocalPath)
			if err != nil {
				return err
			}
			if !generated {
				report.PrintInfo(os.Stdout, fmt.Sprintf("%s already holds %d MB", cfg.LocalPath, cfg.BlobSizeMB))
				return nil
			}
			report.PrintSuccess(os.Stdout, fmt.Sprintf("Generated %d MB at %s", cfg.BlobSizeMB, cfg.LocalPath))
			return nil
		},
	}
}
