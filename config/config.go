package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks invalid or missing settings.
var ErrInvalid = errors.New("configuration error")

// MB is the unit used by every size setting.
const MB = 1024 * 1024

// Supported remote store backends.
const (
	BackendOCI     = "oci"
	BackendS3      = "s3"
	BackendBlob    = "blob"
	BackendWebHDFS = "webhdfs"
)

// Benchmark holds the settings of one benchmark run. It is passed by value so
// a run keeps the snapshot it started with.
type Benchmark struct {
	Account          string        `yaml:"account"`
	Backend          string        `yaml:"backend"`
	BlobSizeMB       int64         `yaml:"blob_size_mb"`
	MaxSegmentSizeMB int64         `yaml:"max_segment_size_mb"`
	MaxThreadCount   int           `yaml:"max_thread_count"`
	LocalPath        string        `yaml:"local_path"`
	RemotePath       string        `yaml:"remote_path"`
	RateLimit        int           `yaml:"rate_limit"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	HistoryPath      string        `yaml:"history_path"`
	OCI              OCIConfig     `yaml:"oci"`
	S3               S3Config      `yaml:"s3"`
	Blob             BlobConfig    `yaml:"blob"`
	WebHDFS          WebHDFSConfig `yaml:"webhdfs"`
}

// OCIConfig configures the OCI Object Storage backend. Account is used as the
// namespace when Namespace is empty.
type OCIConfig struct {
	ConfigFile string `yaml:"config_file"`
	Profile    string `yaml:"profile"`
	Namespace  string `yaml:"namespace"`
	Bucket     string `yaml:"bucket"`
	Host       string `yaml:"host"`
}

// S3Config configures the AWS S3 backend.
type S3Config struct {
	Profile   string `yaml:"profile"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// BlobConfig configures the Go CDK backend, e.g. "mem://" or "file:///tmp/bench".
type BlobConfig struct {
	URL string `yaml:"url"`
}

// WebHDFSConfig configures the WebHDFS REST backend and its OAuth2 client
// credentials. When Endpoint is empty it is derived from Account.
type WebHDFSConfig struct {
	Endpoint     string   `yaml:"endpoint"`
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

// Default returns a Benchmark with sensible defaults.
func Default() Benchmark {
	return Benchmark{
		Backend:          BackendBlob,
		BlobSizeMB:       256,
		MaxSegmentSizeMB: 4,
		MaxThreadCount:   16,
		LocalPath:        "storebench/dataset.txt",
		RemotePath:       "storebench/dataset.txt",
		ProgressInterval: 500 * time.Millisecond,
		RequestTimeout:   2 * time.Minute,
		OCI: OCIConfig{
			ConfigFile: "~/.oci/config",
			Profile:    "DEFAULT",
		},
		S3: S3Config{
			Profile: "default",
		},
		Blob: BlobConfig{
			URL: "mem://",
		},
	}
}

// BlobSizeBytes returns the dataset size in bytes.
func (c Benchmark) BlobSizeBytes() uint64 {
	return uint64(c.BlobSizeMB) * MB
}

// MaxSegmentBytes returns the segment size limit in bytes.
func (c Benchmark) MaxSegmentBytes() uint64 {
	return uint64(c.MaxSegmentSizeMB) * MB
}

// LoadFromFile loads configuration from a YAML file on top of Default.
func LoadFromFile(path string) (Benchmark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Benchmark{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration on top of Default.
func Parse(data []byte) (Benchmark, error) {
	var raw struct {
		Account          string        `yaml:"account"`
		Backend          string        `yaml:"backend"`
		BlobSizeMB       int64         `yaml:"blob_size_mb"`
		MaxSegmentSizeMB int64         `yaml:"max_segment_size_mb"`
		MaxThreadCount   int           `yaml:"max_thread_count"`
		LocalPath        string        `yaml:"local_path"`
		RemotePath       string        `yaml:"remote_path"`
		RateLimit        int           `yaml:"rate_limit"`
		ProgressInterval string        `yaml:"progress_interval"`
		RequestTimeout   string        `yaml:"request_timeout"`
		HistoryPath      string        `yaml:"history_path"`
		OCI              OCIConfig     `yaml:"oci"`
		S3               S3Config      `yaml:"s3"`
		Blob             BlobConfig    `yaml:"blob"`
		WebHDFS          WebHDFSConfig `yaml:"webhdfs"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Benchmark{}, fmt.Errorf("%w: parse config file: %w", ErrInvalid, err)
	}

	override := Benchmark{
		Account:          raw.Account,
		Backend:          raw.Backend,
		BlobSizeMB:       raw.BlobSizeMB,
		MaxSegmentSizeMB: raw.MaxSegmentSizeMB,
		MaxThreadCount:   raw.MaxThreadCount,
		LocalPath:        raw.LocalPath,
		RemotePath:       raw.RemotePath,
		RateLimit:        raw.RateLimit,
		HistoryPath:      raw.HistoryPath,
		OCI:              raw.OCI,
		S3:               raw.S3,
		Blob:             raw.Blob,
		WebHDFS:          raw.WebHDFS,
	}
	if raw.ProgressInterval != "" {
		d, err := time.ParseDuration(raw.ProgressInterval)
		if err != nil {
			return Benchmark{}, fmt.Errorf("%w: parse progress_interval: %w", ErrInvalid, err)
		}
		override.ProgressInterval = d
	}
	if raw.RequestTimeout != "" {
		d, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return Benchmark{}, fmt.Errorf("%w: parse request_timeout: %w", ErrInvalid, err)
		}
		override.RequestTimeout = d
	}
	return Default().Merge(override), nil
}

// LoadFromEnv applies STOREBENCH_* environment variables to c.
func (c *Benchmark) LoadFromEnv() error {
	strs := map[string]*string{
		"STOREBENCH_ACCOUNT":               &c.Account,
		"STOREBENCH_BACKEND":               &c.Backend,
		"STOREBENCH_LOCAL_PATH":            &c.LocalPath,
		"STOREBENCH_REMOTE_PATH":           &c.RemotePath,
		"STOREBENCH_HISTORY_PATH":          &c.HistoryPath,
		"STOREBENCH_OCI_CONFIG_FILE":       &c.OCI.ConfigFile,
		"STOREBENCH_OCI_PROFILE":           &c.OCI.Profile,
		"STOREBENCH_OCI_NAMESPACE":         &c.OCI.Namespace,
		"STOREBENCH_OCI_BUCKET":            &c.OCI.Bucket,
		"STOREBENCH_OCI_HOST":              &c.OCI.Host,
		"STOREBENCH_S3_PROFILE":            &c.S3.Profile,
		"STOREBENCH_S3_REGION":             &c.S3.Region,
		"STOREBENCH_S3_BUCKET":             &c.S3.Bucket,
		"STOREBENCH_S3_ENDPOINT":           &c.S3.Endpoint,
		"STOREBENCH_BLOB_URL":              &c.Blob.URL,
		"STOREBENCH_WEBHDFS_ENDPOINT":      &c.WebHDFS.Endpoint,
		"STOREBENCH_WEBHDFS_TOKEN_URL":     &c.WebHDFS.TokenURL,
		"STOREBENCH_WEBHDFS_CLIENT_ID":     &c.WebHDFS.ClientID,
		"STOREBENCH_WEBHDFS_CLIENT_SECRET": &c.WebHDFS.ClientSecret,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	int64s := map[string]*int64{
		"STOREBENCH_BLOB_SIZE_MB":        &c.BlobSizeMB,
		"STOREBENCH_MAX_SEGMENT_SIZE_MB": &c.MaxSegmentSizeMB,
	}
	for name, dst := range int64s {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: parse %s: %w", ErrInvalid, name, err)
			}
			*dst = n
		}
	}

	ints := map[string]*int{
		"STOREBENCH_MAX_THREAD_COUNT": &c.MaxThreadCount,
		"STOREBENCH_RATE_LIMIT":       &c.RateLimit,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: parse %s: %w", ErrInvalid, name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"STOREBENCH_PROGRESS_INTERVAL": &c.ProgressInterval,
		"STOREBENCH_REQUEST_TIMEOUT":   &c.RequestTimeout,
	}
	for name, dst := range durations {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: parse %s: %w", ErrInvalid, name, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("STOREBENCH_S3_PATH_STYLE"); v != "" {
		c.S3.PathStyle = v == "true" || v == "1"
	}
	return nil
}

// Validate validates the configuration. Every error wraps ErrInvalid.
func (c Benchmark) Validate() error {
	if c.BlobSizeMB < 0 {
		return fmt.Errorf("%w: blob_size_mb must not be negative", ErrInvalid)
	}
	if c.MaxSegmentSizeMB <= 0 {
		return fmt.Errorf("%w: max_segment_size_mb must be positive", ErrInvalid)
	}
	if c.MaxThreadCount <= 0 {
		return fmt.Errorf("%w: max_thread_count must be positive", ErrInvalid)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalid)
	}
	if c.LocalPath == "" {
		return fmt.Errorf("%w: local_path is required", ErrInvalid)
	}
	if c.RemotePath == "" {
		return fmt.Errorf("%w: remote_path is required", ErrInvalid)
	}

	switch c.Backend {
	case BackendOCI:
		if c.OCI.Bucket == "" {
			return fmt.Errorf("%w: oci.bucket is required", ErrInvalid)
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("%w: s3.bucket is required", ErrInvalid)
		}
	case BackendBlob:
		if c.Blob.URL == "" {
			return fmt.Errorf("%w: blob.url is required", ErrInvalid)
		}
	case BackendWebHDFS:
		if c.WebHDFS.Endpoint == "" && c.Account == "" {
			return fmt.Errorf("%w: webhdfs.endpoint or account is required", ErrInvalid)
		}
		if c.WebHDFS.TokenURL != "" && c.WebHDFS.ClientID == "" {
			return fmt.Errorf("%w: webhdfs.client_id is required with token_url", ErrInvalid)
		}
	case "":
		return fmt.Errorf("%w: backend is required", ErrInvalid)
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend)
	}
	return nil
}

// WebHDFSEndpoint returns the configured endpoint, or the Data Lake Store
// endpoint for Account.
func (c Benchmark) WebHDFSEndpoint() string {
	if c.WebHDFS.Endpoint != "" {
		return c.WebHDFS.Endpoint
	}
	return fmt.Sprintf("https://%s.azuredatalakestore.net/webhdfs/v1", c.Account)
}

// Merge merges override values into c, returning a new Benchmark.
// Zero values in override are ignored.
func (c Benchmark) Merge(override Benchmark) Benchmark {
	if override.Account != "" {
		c.Account = override.Account
	}
	if override.Backend != "" {
		c.Backend = override.Backend
	}
	if override.BlobSizeMB != 0 {
		c.BlobSizeMB = override.BlobSizeMB
	}
	if override.MaxSegmentSizeMB != 0 {
		c.MaxSegmentSizeMB = override.MaxSegmentSizeMB
	}
	if override.MaxThreadCount != 0 {
		c.MaxThreadCount = override.MaxThreadCount
	}
	if override.LocalPath != "" {
		c.LocalPath = override.LocalPath
	}
	if override.RemotePath != "" {
		c.RemotePath = override.RemotePath
	}
	if override.RateLimit != 0 {
		c.RateLimit = override.RateLimit
	}
	if override.ProgressInterval != 0 {
		c.ProgressInterval = override.ProgressInterval
	}
	if override.RequestTimeout != 0 {
		c.RequestTimeout = override.RequestTimeout
	}
	if override.HistoryPath != "" {
		c.HistoryPath = override.HistoryPath
	}

	if override.OCI.ConfigFile != "" {
		c.OCI.ConfigFile = override.OCI.ConfigFile
	}
	if override.OCI.Profile != "" {
		c.OCI.Profile = override.OCI.Profile
	}
	if override.OCI.Namespace != "" {
		c.OCI.Namespace = override.OCI.Namespace
	}
	if override.OCI.Bucket != "" {
		c.OCI.Bucket = override.OCI.Bucket
	}
	if override.OCI.Host != "" {
		c.OCI.Host = override.OCI.Host
	}

	if override.S3.Profile != "" {
		c.S3.Profile = override.S3.Profile
	}
	if override.S3.Region != "" {
		c.S3.Region = override.S3.Region
	}
	if override.S3.Bucket != "" {
		c.S3.Bucket = override.S3.Bucket
	}
	if override.S3.Endpoint != "" {
		c.S3.Endpoint = override.S3.Endpoint
	}
	if override.S3.PathStyle {
		c.S3.PathStyle = true
	}

	if override.Blob.URL != "" {
		c.Blob.URL = override.Blob.URL
	}

	if override.WebHDFS.Endpoint != "" {
		c.WebHDFS.Endpoint = override.WebHDFS.Endpoint
	}
	if override.WebHDFS.TokenURL != "" {
		c.WebHDFS.TokenURL = override.WebHDFS.TokenURL
	}
	if override.WebHDFS.ClientID != "" {
		c.WebHDFS.ClientID = override.WebHDFS.ClientID
	}
	if override.WebHDFS.ClientSecret != "" {
		c.WebHDFS.ClientSecret = override.WebHDFS.ClientSecret
	}
	if len(override.WebHDFS.Scopes) > 0 {
		c.WebHDFS.Scopes = append([]string(nil), override.WebHDFS.Scopes...)
	}
	return c
}
