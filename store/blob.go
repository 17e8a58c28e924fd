package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"storebench/config"
)

// BlobStore transfers against a Go CDK bucket. The driver owns request
// parallelism, so uploads stream segment by segment through one writer.
type BlobStore struct {
	bucket *blob.Bucket
	log    zerolog.Logger
}

// OpenBlobStore opens the bucket at url, e.g. "mem://" or "file:///tmp/bench".
func OpenBlobStore(ctx context.Context, url string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", url, err)
	}
	return NewBlobStore(bucket), nil
}

// NewBlobStore wraps an open bucket. Close closes the bucket.
func NewBlobStore(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{
		bucket: bucket,
		log:    log.With().Str("component", "store").Str("backend", config.BackendBlob).Logger(),
	}
}

func (s *BlobStore) ContentLength(ctx context.Context, path string) (uint64, error) {
	attrs, err := s.bucket.Attributes(ctx, blobKey(path))
	if err != nil {
		return 0, blobError("attributes", path, err)
	}
	if attrs.Size < 0 {
		return 0, fmt.Errorf("attributes %s: negative size %d", path, attrs.Size)
	}
	return uint64(attrs.Size), nil
}

func (s *BlobStore) OpenRange(ctx context.Context, path string, offset, length uint64) (io.ReadCloser, error) {
	if length == 0 {
		return io.NopCloser(eofReader{}), nil
	}
	r, err := s.bucket.NewRangeReader(ctx, blobKey(path), int64(offset), int64(length), nil)
	if err != nil {
		return nil, blobError("range read", path, err)
	}
	return r, nil
}

func (s *BlobStore) SegmentedUpload(ctx context.Context, localPath, remotePath string, params UploadParams, progress ProgressFunc) error {
	size, err := fileSize(localPath)
	if err != nil {
		return err
	}
	if params.MaxSegmentSize == 0 {
		return errors.New("segmented upload: zero segment size")
	}
	key := blobKey(remotePath)

	if !params.Overwrite {
		exists, err := s.bucket.Exists(ctx, key)
		if err != nil {
			return blobError("exists", remotePath, err)
		}
		if exists {
			return fmt.Errorf("segmented upload %s: object exists", remotePath)
		}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	segments := SegmentCount(size, params.MaxSegmentSize)
	tracker := newProgressTracker(progress, size, segments)

	// Cancelling the writer's context aborts the write instead of committing it.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunk := uploadChunkSize(size, params.MaxSegmentSize)
	w, err := s.bucket.NewWriter(wctx, key, &blob.WriterOptions{
		BufferSize:  int(chunk),
		ContentType: "text/plain",
	})
	if err != nil {
		return blobError("new writer", remotePath, err)
	}

	buf := make([]byte, chunk)
	for {
		n, rerr := io.ReadFull(f, buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				cancel()
				w.Close()
				return blobError("write", remotePath, err)
			}
			tracker.add(uint64(n))
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			cancel()
			w.Close()
			return fmt.Errorf("read %s: %w", localPath, rerr)
		}
	}

	if err := w.Close(); err != nil {
		return blobError("commit", remotePath, err)
	}
	tracker.finish()
	s.log.Debug().Str("key", key).Uint64("size", size).Int("segments", segments).Msg("upload committed")
	return nil
}

func (s *BlobStore) Remove(ctx context.Context, path string) error {
	if err := s.bucket.Delete(ctx, blobKey(path)); err != nil {
		return blobError("delete", path, err)
	}
	return nil
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func blobKey(path string) string {
	return strings.TrimLeft(path, "/")
}

func blobError(op, path string, err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return fmt.Errorf("%s %s: %w: %w", op, path, ErrNotFound, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
