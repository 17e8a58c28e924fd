package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"storebench/config"
	"storebench/logging"
	"storebench/report"
)

var (
	configFile string
	debug      bool
	logJSON    bool
	logFile    string
	noProgress bool

	// overrides collects flag values; zero values leave lower layers alone.
	overrides config.Benchmark
	logOutput *os.File
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "storebench",
	Short:   "Measure segmented upload and download throughput against remote object stores",
	Version: Version,
	Long: `storebench generates a synthetic dataset, transfers it to or from a remote
store in parallel segments and reports the aggregate throughput.

Settings are read from defaults, an optional YAML file (--config), STOREBENCH_*
environment variables and finally command-line flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(debug, logJSON)
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			logOutput = f
			logging.SetOutput(f, logJSON)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logOutput != nil {
			logOutput.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		report.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig() (config.Benchmark, error) {
	cfg := config.Default()
	if configFile != "" {
		fileCfg, err := config.LoadFromFile(configFile)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return cfg, err
	}
	cfg = cfg.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	log.Debug().
		Str("backend", cfg.Backend).
		Int64("blob_size_mb", cfg.BlobSizeMB).
		Int64("segment_size_mb", cfg.MaxSegmentSizeMB).
		Int("threads", cfg.MaxThreadCount).
		Msg("configuration loaded")
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "f", "", "Path to a YAML configuration file")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
	pf.BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")
	pf.StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")
	pf.BoolVar(&noProgress, "no-progress", false, "Log progress lines instead of drawing a progress bar")

	pf.StringVarP(&overrides.Backend, "backend", "b", "", "Remote store backend: oci, s3, blob or webhdfs")
	pf.StringVarP(&overrides.Account, "account", "a", "", "Account name (OCI namespace or Data Lake account)")
	pf.Int64VarP(&overrides.BlobSizeMB, "blob-size", "s", 0, "Dataset size in MB")
	pf.Int64Var(&overrides.MaxSegmentSizeMB, "segment-size", 0, "Maximum segment size in MB")
	pf.IntVarP(&overrides.MaxThreadCount, "threads", "t", 0, "Maximum number of parallel segment transfers")
	pf.StringVar(&overrides.LocalPath, "local-path", "", "Local dataset path")
	pf.StringVar(&overrides.RemotePath, "remote-path", "", "Remote object path")
	pf.IntVar(&overrides.RateLimit, "rate-limit", 0, "Maximum range reads per second (0 means no limit)")
	pf.DurationVar(&overrides.ProgressInterval, "progress-interval", 0, "Interval between progress samples (eg. 250ms)")
	pf.DurationVar(&overrides.RequestTimeout, "timeout", 0, "Per-request timeout (eg. 30s, 2m)")
	pf.StringVar(&overrides.HistoryPath, "history", "", "SQLite file recording finished runs")

	pf.StringVar(&overrides.OCI.ConfigFile, "oci-config", "", "OCI config file")
	pf.StringVar(&overrides.OCI.Profile, "oci-profile", "", "OCI config profile")
	pf.StringVar(&overrides.OCI.Namespace, "oci-namespace", "", "OCI Object Storage namespace")
	pf.StringVar(&overrides.OCI.Bucket, "oci-bucket", "", "OCI bucket")
	pf.StringVar(&overrides.OCI.Host, "oci-host", "", "Custom OCI Object Storage endpoint")

	pf.StringVar(&overrides.S3.Profile, "s3-profile", "", "AWS shared config profile")
	pf.StringVar(&overrides.S3.Region, "s3-region", "", "AWS region")
	pf.StringVar(&overrides.S3.Bucket, "s3-bucket", "", "S3 bucket")
	pf.StringVar(&overrides.S3.Endpoint, "s3-endpoint", "", "Custom S3-compatible endpoint")
	pf.BoolVar(&overrides.S3.PathStyle, "s3-path-style", false, "Use path-style S3 addressing")

	pf.StringVar(&overrides.Blob.URL, "blob-url", "", "Go CDK bucket URL (eg. mem://, file:///tmp/bench)")

	pf.StringVar(&overrides.WebHDFS.Endpoint, "webhdfs-endpoint", "", "WebHDFS base URL (defaults to the account's Data Lake endpoint)")
	pf.StringVar(&overrides.WebHDFS.TokenURL, "token-url", "", "OAuth2 token endpoint for WebHDFS")
	pf.StringVar(&overrides.WebHDFS.ClientID, "client-id", "", "OAuth2 client ID")
	pf.StringVar(&overrides.WebHDFS.ClientSecret, "client-secret", "", "OAuth2 client secret")
	pf.StringSliceVar(&overrides.WebHDFS.Scopes, "scopes", nil, "OAuth2 scopes")

	rootCmd.AddCommand(
		newUploadCmd(),
		newDownloadCmd(),
		newBenchCmd(),
		newGenerateCmd(),
		newCleanupCmd(),
		newHistoryCmd(),
	)
}
