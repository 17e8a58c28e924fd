package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/oracle/oci-go-sdk/v65/common"
	"gocloud.dev/gcerrors"
)

// ErrNotFound is returned when the remote object does not exist.
var ErrNotFound = errors.New("store: object not found")

// Store is a remote object store a benchmark run can transfer against.
type Store interface {
	// ContentLength returns the size in bytes of the object at path.
	ContentLength(ctx context.Context, path string) (uint64, error)

	// OpenRange opens the byte range [offset, offset+length) of the object at path.
	OpenRange(ctx context.Context, path string, offset, length uint64) (io.ReadCloser, error)

	// SegmentedUpload uploads localPath to remotePath in segments, calling
	// progress with the cumulative bytes uploaded and the total segment count.
	SegmentedUpload(ctx context.Context, localPath, remotePath string, params UploadParams, progress ProgressFunc) error

	// Remove deletes the object at path.
	Remove(ctx context.Context, path string) error

	Close() error
}

// UploadParams controls how a SegmentedUpload splits and parallelises work.
type UploadParams struct {
	ThreadCount    int
	MaxSegmentSize uint64
	Overwrite      bool
}

// ProgressFunc receives cumulative uploaded bytes and the total segment count.
type ProgressFunc func(bytesTransferred uint64, totalSegments int)

// StatusError is an unexpected HTTP status from a REST backend.
type StatusError struct {
	Op        string
	Code      int
	Exception string
	Message   string
}

func (e *StatusError) Error() string {
	if e.Exception != "" {
		return fmt.Sprintf("%s: status %d: %s: %s", e.Op, e.Code, e.Exception, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Code)
}

// IsThrottled reports whether err is a throttling response from any backend.
func IsThrottled(err error) bool {
	if err == nil {
		return false
	}

	var serviceErr common.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.GetHTTPStatusCode() == http.StatusTooManyRequests {
		return true
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return true
		}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code == http.StatusServiceUnavailable
	}

	return gcerrors.Code(err) == gcerrors.ResourceExhausted
}

// SegmentCount returns how many segments of at most segmentSize cover size bytes.
func SegmentCount(size, segmentSize uint64) int {
	if size == 0 || segmentSize == 0 {
		return 0
	}
	return int((size + segmentSize - 1) / segmentSize)
}

// uploadChunkSize is the buffer size for streaming a file of size bytes in
// segmentSize chunks. It never exceeds the file, and is at least one byte.
func uploadChunkSize(size, segmentSize uint64) uint64 {
	return min(segmentSize, max(size, 1))
}

// progressTracker serialises progress callbacks from concurrent upload parts
// and keeps the reported byte count monotonic and capped at total.
type progressTracker struct {
	mu       sync.Mutex
	fn       ProgressFunc
	total    uint64
	segments int
	sent     uint64
}

func newProgressTracker(fn ProgressFunc, total uint64, segments int) *progressTracker {
	return &progressTracker{fn: fn, total: total, segments: segments}
}

func (p *progressTracker) add(n uint64) {
	if p == nil || p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = min(p.sent+n, p.total)
	p.fn(p.sent, p.segments)
}

// finish reports the full size once the backend confirmed the upload.
func (p *progressTracker) finish() {
	if p == nil || p.fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == p.total && p.total != 0 {
		return
	}
	p.sent = p.total
	p.fn(p.sent, p.segments)
}
