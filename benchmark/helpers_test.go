package benchmark

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gocloud.dev/blob/memblob"

	"storebench/config"
	"storebench/store"
)

// faultStore wraps a real store and lets a test replace single operations.
type faultStore struct {
	store.Store
	contentLength func(ctx context.Context, path string) (uint64, error)
	openRange     func(ctx context.Context, path string, offset, length uint64) (io.ReadCloser, error)
	upload        func(ctx context.Context, localPath, remotePath string, params store.UploadParams, progress store.ProgressFunc) error
}

func (f *faultStore) ContentLength(ctx context.Context, path string) (uint64, error) {
	if f.contentLength != nil {
		return f.contentLength(ctx, path)
	}
	return f.Store.ContentLength(ctx, path)
}

func (f *faultStore) OpenRange(ctx context.Context, path string, offset, length uint64) (io.ReadCloser, error) {
	if f.openRange != nil {
		return f.openRange(ctx, path, offset, length)
	}
	return f.Store.OpenRange(ctx, path, offset, length)
}

func (f *faultStore) SegmentedUpload(ctx context.Context, localPath, remotePath string, params store.UploadParams, progress store.ProgressFunc) error {
	if f.upload != nil {
		return f.upload(ctx, localPath, remotePath, params, progress)
	}
	return f.Store.SegmentedUpload(ctx, localPath, remotePath, params, progress)
}

func newMemStore(t *testing.T) *store.BlobStore {
	t.Helper()
	st := store.NewBlobStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { st.Close() })
	return st
}

func testConfig(t *testing.T) config.Benchmark {
	t.Helper()
	cfg := config.Default()
	cfg.BlobSizeMB = 4
	cfg.MaxSegmentSizeMB = 1
	cfg.MaxThreadCount = 3
	cfg.LocalPath = filepath.Join(t.TempDir(), "dataset.txt")
	cfg.RemotePath = "bench/dataset.txt"
	cfg.ProgressInterval = 5 * time.Millisecond
	return cfg
}

// seedRemote uploads a dataset of cfg.BlobSizeMB to cfg.RemotePath.
func seedRemote(t *testing.T, st store.Store, cfg config.Benchmark) {
	t.Helper()
	if _, err := GenerateDataset(context.Background(), cfg.BlobSizeMB, cfg.LocalPath); err != nil {
		t.Fatal(err)
	}
	params := store.UploadParams{ThreadCount: 1, MaxSegmentSize: cfg.MaxSegmentBytes(), Overwrite: true}
	if err := st.SegmentedUpload(context.Background(), cfg.LocalPath, cfg.RemotePath, params, nil); err != nil {
		t.Fatal(err)
	}
}

// collect drains a progress channel in the background.
func collect(ch <-chan ProgressSample) func() []ProgressSample {
	done := make(chan []ProgressSample)
	go func() {
		var samples []ProgressSample
		for s := range ch {
			samples = append(samples, s)
		}
		done <- samples
	}()
	return func() []ProgressSample {
		select {
		case s := <-done:
			return s
		case <-time.After(5 * time.Second):
			return nil
		}
	}
}

func checkSamples(t *testing.T, samples []ProgressSample, wantFinal uint64) {
	t.Helper()
	if len(samples) == 0 {
		t.Fatal("no progress samples (or channel never closed)")
	}
	var last uint64
	for i, s := range samples {
		if s.BytesTransferred < last {
			t.Errorf("sample %d went backwards: %d < %d", i, s.BytesTransferred, last)
		}
		last = s.BytesTransferred
	}
	final := samples[len(samples)-1]
	if !final.Final {
		t.Error("last sample should be final")
	}
	if final.BytesTransferred != wantFinal {
		t.Errorf("final bytes = %d, want %d", final.BytesTransferred, wantFinal)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
