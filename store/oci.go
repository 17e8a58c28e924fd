package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/objectstorage"
	"github.com/oracle/oci-go-sdk/v65/objectstorage/transfer"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"storebench/config"
)

// OCIStore transfers against an OCI Object Storage bucket.
type OCIStore struct {
	client    objectstorage.ObjectStorageClient
	namespace string
	bucket    string
	log       zerolog.Logger
}

// NewOCIStore builds an Object Storage client from provider. The namespace is
// taken from cfg, then account, and fetched from the service as a last resort.
func NewOCIStore(ctx context.Context, provider common.ConfigurationProvider, cfg config.OCIConfig, account string, httpClient *http.Client) (*OCIStore, error) {
	client, err := objectstorage.NewObjectStorageClientWithConfigurationProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("create object storage client: %w", err)
	}
	if httpClient != nil {
		client.HTTPClient = httpClient
	}

	logger := log.With().Str("component", "store").Str("backend", config.BackendOCI).Logger()

	if cfg.Host != "" {
		logger.Info().Str("host", cfg.Host).Msg("using custom host")
		client.Host = cfg.Host
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = account
	}
	if namespace == "" {
		resp, err := client.GetNamespace(ctx, objectstorage.GetNamespaceRequest{})
		if err != nil {
			return nil, fmt.Errorf("get namespace: %w", err)
		}
		namespace = *resp.Value
		logger.Info().Str("namespace", namespace).Msg("fetched namespace")
	}

	return &OCIStore{
		client:    client,
		namespace: namespace,
		bucket:    cfg.Bucket,
		log:       logger,
	}, nil
}

func (s *OCIStore) ContentLength(ctx context.Context, path string) (uint64, error) {
	resp, err := s.client.HeadObject(ctx, objectstorage.HeadObjectRequest{
		NamespaceName: common.String(s.namespace),
		BucketName:    common.String(s.bucket),
		ObjectName:    common.String(path),
	})
	if err != nil {
		return 0, ociError("head object", path, err)
	}
	if resp.ContentLength == nil || *resp.ContentLength < 0 {
		return 0, fmt.Errorf("head object %s: missing content length", path)
	}
	return uint64(*resp.ContentLength), nil
}

func (s *OCIStore) OpenRange(ctx context.Context, path string, offset, length uint64) (io.ReadCloser, error) {
	if length == 0 {
		return io.NopCloser(eofReader{}), nil
	}
	resp, err := s.client.GetObject(ctx, objectstorage.GetObjectRequest{
		NamespaceName: common.String(s.namespace),
		BucketName:    common.String(s.bucket),
		ObjectName:    common.String(path),
		Range:         common.String(byteRange(offset, length)),
	})
	if err != nil {
		return nil, ociError("get object", path, err)
	}
	return resp.Content, nil
}

func (s *OCIStore) SegmentedUpload(ctx context.Context, localPath, remotePath string, params UploadParams, progress ProgressFunc) error {
	size, err := fileSize(localPath)
	if err != nil {
		return err
	}
	segments := SegmentCount(size, params.MaxSegmentSize)
	tracker := newProgressTracker(progress, size, segments)

	req := transfer.UploadFileRequest{
		UploadRequest: transfer.UploadRequest{
			NamespaceName:         common.String(s.namespace),
			BucketName:            common.String(s.bucket),
			ObjectName:            common.String(remotePath),
			PartSize:              common.Int64(int64(params.MaxSegmentSize)),
			NumberOfGoroutines:    common.Int(max(params.ThreadCount, 1)),
			AllowMultipartUploads: common.Bool(true),
			ObjectStorageClient:   &s.client,
			CallBack: func(part transfer.MultiPartUploadPart) {
				if part.Err != nil {
					s.log.Debug().Int("part", part.PartNum).Err(part.Err).Msg("part upload failed")
					return
				}
				tracker.add(uint64(part.Size))
			},
		},
		FilePath: localPath,
	}

	s.log.Debug().
		Str("object", remotePath).
		Uint64("size", size).
		Int("segments", segments).
		Int("threads", params.ThreadCount).
		Msg("starting multipart upload")

	if _, err := transfer.NewUploadManager().UploadFile(ctx, req); err != nil {
		return ociError("upload file", remotePath, err)
	}
	tracker.finish()
	return nil
}

func (s *OCIStore) Remove(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, objectstorage.DeleteObjectRequest{
		NamespaceName: common.String(s.namespace),
		BucketName:    common.String(s.bucket),
		ObjectName:    common.String(path),
	})
	if err != nil {
		return ociError("delete object", path, err)
	}
	return nil
}

func (s *OCIStore) Close() error { return nil }

func ociError(op, path string, err error) error {
	var serviceErr common.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.GetHTTPStatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w: %w", op, path, ErrNotFound, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
