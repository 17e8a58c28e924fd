package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend != BackendBlob {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendBlob)
	}
	if cfg.MaxThreadCount != 16 {
		t.Errorf("MaxThreadCount = %d, want 16", cfg.MaxThreadCount)
	}
	if cfg.MaxSegmentBytes() != 4*MB {
		t.Errorf("MaxSegmentBytes = %d, want %d", cfg.MaxSegmentBytes(), 4*MB)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
account: myaccount
backend: webhdfs
blob_size_mb: 10
max_segment_size_mb: 2
max_thread_count: 8
local_path: /tmp/data.txt
remote_path: /bench/data.txt
rate_limit: 50
progress_interval: 250ms
request_timeout: 30s
webhdfs:
  token_url: https://login.example.com/token
  client_id: abc
  client_secret: secret
  scopes: [read, write]
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Account != "myaccount" {
		t.Errorf("Account = %q", cfg.Account)
	}
	if cfg.Backend != BackendWebHDFS {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.BlobSizeBytes() != 10*MB {
		t.Errorf("BlobSizeBytes = %d", cfg.BlobSizeBytes())
	}
	if cfg.MaxThreadCount != 8 {
		t.Errorf("MaxThreadCount = %d", cfg.MaxThreadCount)
	}
	if cfg.RateLimit != 50 {
		t.Errorf("RateLimit = %d", cfg.RateLimit)
	}
	if cfg.ProgressInterval != 250*time.Millisecond {
		t.Errorf("ProgressInterval = %v", cfg.ProgressInterval)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if len(cfg.WebHDFS.Scopes) != 2 {
		t.Errorf("Scopes = %v", cfg.WebHDFS.Scopes)
	}
	// Unset fields keep their defaults.
	if cfg.OCI.ConfigFile != "~/.oci/config" {
		t.Errorf("OCI.ConfigFile = %q", cfg.OCI.ConfigFile)
	}
	if got := cfg.WebHDFSEndpoint(); got != "https://myaccount.azuredatalakestore.net/webhdfs/v1" {
		t.Errorf("WebHDFSEndpoint = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseInvalidDuration(t *testing.T) {
	_, err := Parse([]byte("progress_interval: soon\n"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storebench.yaml")
	if err := os.WriteFile(path, []byte("backend: s3\ns3:\n  bucket: bench\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Backend != BackendS3 || cfg.S3.Bucket != "bench" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.S3.Profile != "default" {
		t.Errorf("S3.Profile = %q, want default", cfg.S3.Profile)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STOREBENCH_BACKEND", "oci")
	t.Setenv("STOREBENCH_OCI_BUCKET", "bucket")
	t.Setenv("STOREBENCH_MAX_THREAD_COUNT", "4")
	t.Setenv("STOREBENCH_BLOB_SIZE_MB", "64")
	t.Setenv("STOREBENCH_PROGRESS_INTERVAL", "1s")
	t.Setenv("STOREBENCH_S3_PATH_STYLE", "true")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Backend != BackendOCI || cfg.OCI.Bucket != "bucket" {
		t.Errorf("unexpected backend config: %+v", cfg.OCI)
	}
	if cfg.MaxThreadCount != 4 {
		t.Errorf("MaxThreadCount = %d", cfg.MaxThreadCount)
	}
	if cfg.BlobSizeMB != 64 {
		t.Errorf("BlobSizeMB = %d", cfg.BlobSizeMB)
	}
	if cfg.ProgressInterval != time.Second {
		t.Errorf("ProgressInterval = %v", cfg.ProgressInterval)
	}
	if !cfg.S3.PathStyle {
		t.Error("PathStyle should be true")
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("STOREBENCH_MAX_THREAD_COUNT", "many")

	cfg := Default()
	if err := cfg.LoadFromEnv(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Benchmark)
	}{
		{"negative blob size", func(c *Benchmark) { c.BlobSizeMB = -1 }},
		{"zero segment size", func(c *Benchmark) { c.MaxSegmentSizeMB = 0 }},
		{"zero threads", func(c *Benchmark) { c.MaxThreadCount = 0 }},
		{"negative rate", func(c *Benchmark) { c.RateLimit = -5 }},
		{"missing local path", func(c *Benchmark) { c.LocalPath = "" }},
		{"missing remote path", func(c *Benchmark) { c.RemotePath = "" }},
		{"missing backend", func(c *Benchmark) { c.Backend = "" }},
		{"unknown backend", func(c *Benchmark) { c.Backend = "ftp" }},
		{"oci without bucket", func(c *Benchmark) { c.Backend = BackendOCI }},
		{"s3 without bucket", func(c *Benchmark) { c.Backend = BackendS3 }},
		{"blob without url", func(c *Benchmark) { c.Blob.URL = "" }},
		{"webhdfs without endpoint", func(c *Benchmark) { c.Backend = BackendWebHDFS }},
		{"token url without client", func(c *Benchmark) {
			c.Backend = BackendWebHDFS
			c.WebHDFS.Endpoint = "http://localhost/webhdfs/v1"
			c.WebHDFS.TokenURL = "http://localhost/token"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestZeroBlobSizeIsValid(t *testing.T) {
	cfg := Default()
	cfg.BlobSizeMB = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	merged := base.Merge(Benchmark{
		MaxThreadCount: 32,
		S3:             S3Config{Bucket: "b", PathStyle: true},
	})

	if merged.MaxThreadCount != 32 {
		t.Errorf("MaxThreadCount = %d", merged.MaxThreadCount)
	}
	if merged.S3.Bucket != "b" || !merged.S3.PathStyle {
		t.Errorf("S3 = %+v", merged.S3)
	}
	if merged.MaxSegmentSizeMB != base.MaxSegmentSizeMB {
		t.Errorf("zero override should be ignored")
	}
	if base.MaxThreadCount != 16 {
		t.Errorf("Merge mutated its receiver")
	}
}

func TestLoadOCIConfigMissingFile(t *testing.T) {
	_, err := LoadOCIConfig(filepath.Join(t.TempDir(), "nope"), "")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
