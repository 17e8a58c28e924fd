package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"storebench/benchmark"
	"storebench/config"
	"storebench/history"
	"storebench/identity"
	"storebench/progress"
	"storebench/report"
	"storebench/store"
)

type runFunc func(ctx context.Context, cfg config.Benchmark, samples chan<- benchmark.ProgressSample) (benchmark.RunResult, error)

// session wraps a logged-in runner.
type session struct {
	runner *benchmark.Runner
}

func (s *session) close() {
	if err := s.runner.Logout(); err != nil {
		log.Warn().Err(err).Msg("logout failed")
	}
	if err := s.runner.Close(); err != nil {
		log.Warn().Err(err).Msg("closing store failed")
	}
}

// connect logs a runner in through the configured identity provider. The
// runner opens the store with the credential its login acquired.
func connect(ctx context.Context, cfg config.Benchmark) (*session, error) {
	auth, err := identity.ForConfig(cfg)
	if err != nil {
		return nil, err
	}
	runner := benchmark.NewConnectingRunner(auth, func(ctx context.Context, cred identity.Credential) (store.Store, error) {
		return store.Open(ctx, cfg, cred)
	})
	if err := runner.Login(ctx); err != nil {
		return nil, err
	}
	return &session{runner: runner}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runOnce executes run while rendering its progress, then prints and records
// the result.
func runOnce(ctx context.Context, cfg config.Benchmark, caption string, run runFunc) error {
	samples := make(chan benchmark.ProgressSample, 16)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		progress.Watch(samples, progress.Options{
			Caption:     caption,
			Interactive: !noProgress && progress.IsInteractive(),
		})
	}()

	result, runErr := run(ctx, cfg, samples)
	<-watched

	if result.RunID != "" {
		report.DisplayResults(os.Stdout, result)
		recordHistory(ctx, cfg, result, runErr)
	}

	var agg *benchmark.AggregateTransferFailure
	if errors.As(runErr, &agg) {
		for _, f := range agg.Failures {
			report.PrintWarning(os.Stderr, f.Error())
		}
	}
	return runErr
}

func recordHistory(ctx context.Context, cfg config.Benchmark, result benchmark.RunResult, runErr error) {
	if cfg.HistoryPath == "" {
		return
	}
	ledger, err := history.Open(cfg.HistoryPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.HistoryPath).Msg("cannot open run history")
		return
	}
	defer ledger.Close()
	// The run context may already be canceled; the record should still land.
	if err := ledger.Record(context.WithoutCancel(ctx), result, runErr); err != nil {
		log.Warn().Err(err).Msg("cannot record run")
	}
}

func raiseLimits() {
	if err := benchmark.SetMaxResources(); err != nil {
		log.Warn().Err(err).Msg("could not raise resource limits")
	}
}

func newUploadCmd() *cobra.Command {
	var cleanup bool
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Generate the dataset and measure a segmented upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModes(cleanup, benchmark.ModeUpload)
		},
	}
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Remove the remote object and local dataset afterwards")
	return cmd
}

func newDownloadCmd() *cobra.Command {
	var cleanup bool
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Measure a segmented parallel download of the remote object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModes(cleanup, benchmark.ModeDownload)
		},
	}
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Remove the remote object and local dataset afterwards")
	return cmd
}

func newBenchCmd() *cobra.Command {
	var cleanup bool
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Upload the dataset, then download it again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModes(cleanup, benchmark.ModeUpload, benchmark.ModeDownload)
		},
	}
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Remove the remote object and local dataset afterwards")
	return cmd
}

func runModes(cleanup bool, modes ...benchmark.Mode) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	raiseLimits()

	ctx, cancel := signalContext()
	defer cancel()

	sess, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	for _, mode := range modes {
		run := sess.runner.Upload
		caption := "Uploading"
		if mode == benchmark.ModeDownload {
			run = sess.runner.Download
			caption = "Downloading"
		}
		report.PrintHeader(os.Stdout, fmt.Sprintf("%s %s (%s)", caption, cfg.RemotePath, cfg.Backend))
		if err := runOnce(ctx, cfg, caption, run); err != nil {
			return err
		}
	}

	if cleanup {
		if err := sess.runner.Cleanup(context.WithoutCancel(ctx), cfg, true); err != nil {
			return err
		}
		report.PrintSuccess(os.Stdout, "Benchmark data removed")
	}
	return nil
}
