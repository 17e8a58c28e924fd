package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"storebench/config"
)

// S3Store transfers against an AWS S3 (or S3-compatible) bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
}

// NewS3Store loads the shared AWS configuration for cfg.Profile and builds an
// S3 client that sends requests through httpClient.
func NewS3Store(ctx context.Context, cfg config.S3Config, httpClient *http.Client) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Profile != "" && cfg.Profile != "default" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if httpClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(httpClient))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewS3StoreFromConfig(awsCfg, cfg), nil
}

// NewS3StoreFromConfig builds the store from an already resolved aws.Config.
func NewS3StoreFromConfig(awsCfg aws.Config, cfg config.S3Config) *S3Store {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		log:    log.With().Str("component", "store").Str("backend", config.BackendS3).Logger(),
	}
}

func (s *S3Store) ContentLength(ctx context.Context, path string) (uint64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return 0, s3Error("head object", path, err)
	}
	if out.ContentLength == nil || *out.ContentLength < 0 {
		return 0, fmt.Errorf("head object %s: missing content length", path)
	}
	return uint64(*out.ContentLength), nil
}

func (s *S3Store) OpenRange(ctx context.Context, path string, offset, length uint64) (io.ReadCloser, error) {
	if length == 0 {
		return io.NopCloser(eofReader{}), nil
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Range:  aws.String(byteRange(offset, length)),
	})
	if err != nil {
		return nil, s3Error("get object", path, err)
	}
	return out.Body, nil
}

// SegmentedUpload uses the s3 manager. Parts smaller than the S3 minimum are
// raised to manager.MinUploadPartSize.
func (s *S3Store) SegmentedUpload(ctx context.Context, localPath, remotePath string, params UploadParams, progress ProgressFunc) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	size, err := fileSize(localPath)
	if err != nil {
		return err
	}

	partSize := int64(params.MaxSegmentSize)
	if partSize < manager.MinUploadPartSize {
		s.log.Debug().Int64("requested", partSize).Int64("used", manager.MinUploadPartSize).Msg("raising part size to s3 minimum")
		partSize = manager.MinUploadPartSize
	}
	segments := SegmentCount(size, uint64(partSize))
	body := &countingFile{f: f, tracker: newProgressTracker(progress, size, segments)}

	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = partSize
		u.Concurrency = max(params.ThreadCount, 1)
	})

	s.log.Debug().
		Str("key", remotePath).
		Uint64("size", size).
		Int("segments", segments).
		Msg("starting multipart upload")

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remotePath),
		Body:   body,
	})
	if err != nil {
		return s3Error("upload", remotePath, err)
	}
	body.tracker.finish()
	return nil
}

func (s *S3Store) Remove(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return s3Error("delete object", path, err)
	}
	return nil
}

func (s *S3Store) Close() error { return nil }

func s3Error(op, path string, err error) error {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w: %w", op, path, ErrNotFound, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
