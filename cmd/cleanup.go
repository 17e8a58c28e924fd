package main

import (
	"os"

	"github.com/spf13/cobra"

	"storebench/report"
)

func newCleanupCmd() *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the remote benchmark object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			sess, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.close()

			if err := sess.runner.Cleanup(ctx, cfg, local); err != nil {
				return err
			}
			report.PrintSuccess(os.Stdout, "Removed "+cfg.RemotePath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Also delete the local dataset")
	return cmd
}
