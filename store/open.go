package store

import (
	"context"
	"fmt"

	"storebench/config"
	"storebench/identity"
)

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.Benchmark, cred identity.Credential) (Store, error) {
	switch cfg.Backend {
	case config.BackendBlob:
		return OpenBlobStore(ctx, cfg.Blob.URL)
	}

	httpClient, err := NewHTTPClient(cfg.MaxThreadCount, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendOCI:
		provider, err := config.LoadOCIConfig(cfg.OCI.ConfigFile, cfg.OCI.Profile)
		if err != nil {
			return nil, err
		}
		return NewOCIStore(ctx, provider, cfg.OCI, cfg.Account, httpClient)
	case config.BackendS3:
		return NewS3Store(ctx, cfg.S3, httpClient)
	case config.BackendWebHDFS:
		return NewWebHDFSStore(cfg.WebHDFSEndpoint(), httpClient, cred), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalid, cfg.Backend)
	}
}
