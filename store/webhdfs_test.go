package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"storebench/identity"
)

// fakeWebHDFS keeps files in memory and implements the handful of WebHDFS
// operations the store issues.
type fakeWebHDFS struct {
	mu       sync.Mutex
	files    map[string][]byte
	ops      []string
	auth     []string
	throttle bool
}

func (f *fakeWebHDFS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/webhdfs/v1")
	op := r.URL.Query().Get("op")
	f.ops = append(f.ops, op)
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	if f.throttle {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	notFound := func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"RemoteException":{"exception":"FileNotFoundException","message":"File does not exist"}}`))
	}

	switch op {
	case "CREATE":
		body, _ := io.ReadAll(r.Body)
		if _, ok := f.files[path]; ok && r.URL.Query().Get("overwrite") != "true" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		f.files[path] = body
		w.WriteHeader(http.StatusCreated)
	case "APPEND":
		data, ok := f.files[path]
		if !ok {
			notFound()
			return
		}
		if off, _ := strconv.Atoi(r.URL.Query().Get("offset")); off != len(data) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.files[path] = append(data, body...)
	case "GETCONTENTSUMMARY":
		data, ok := f.files[path]
		if !ok {
			notFound()
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ContentSummary": map[string]any{"length": len(data)}})
	case "OPEN":
		data, ok := f.files[path]
		if !ok {
			notFound()
			return
		}
		off, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		n, _ := strconv.Atoi(r.URL.Query().Get("length"))
		end := min(off+n, len(data))
		w.Write(data[off:end])
	case "DELETE":
		delete(f.files, path)
		w.Write([]byte(`{"boolean":true}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newFakeWebHDFS(t *testing.T) (*fakeWebHDFS, *WebHDFSStore) {
	t.Helper()
	fake := &fakeWebHDFS{files: map[string][]byte{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cred := identity.Credential{Token: "tok", Type: "Bearer", Source: "test"}
	return fake, NewWebHDFSStore(server.URL+"/webhdfs/v1/", server.Client(), cred)
}

func TestWebHDFSRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake, s := newFakeWebHDFS(t)

	local := writeTempFile(t, "abcdefghij")
	var last uint64
	err := s.SegmentedUpload(ctx, local, "/bench/data.txt", UploadParams{ThreadCount: 2, MaxSegmentSize: 4, Overwrite: true},
		func(n uint64, segments int) {
			if n < last {
				t.Errorf("progress went backwards: %d < %d", n, last)
			}
			last = n
		})
	if err != nil {
		t.Fatalf("SegmentedUpload: %v", err)
	}
	if last != 10 {
		t.Errorf("final progress = %d, want 10", last)
	}

	wantOps := []string{"CREATE", "APPEND", "APPEND"}
	if strings.Join(fake.ops, ",") != strings.Join(wantOps, ",") {
		t.Errorf("ops = %v, want %v", fake.ops, wantOps)
	}
	for _, a := range fake.auth {
		if a != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", a, "Bearer tok")
		}
	}

	size, err := s.ContentLength(ctx, "bench/data.txt")
	if err != nil {
		t.Fatalf("ContentLength: %v", err)
	}
	if size != 10 {
		t.Errorf("ContentLength = %d, want 10", size)
	}

	r, err := s.OpenRange(ctx, "bench/data.txt", 8, 2)
	if err != nil {
		t.Fatalf("OpenRange: %v", err)
	}
	got, _ := io.ReadAll(r)
	r.Close()
	if string(got) != "ij" {
		t.Errorf("range = %q, want %q", got, "ij")
	}

	if err := s.Remove(ctx, "bench/data.txt"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, err = s.ContentLength(ctx, "bench/data.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Exception != "FileNotFoundException" {
		t.Errorf("expected RemoteException details, got %v", err)
	}
}

func TestWebHDFSAnonymousHasNoAuthHeader(t *testing.T) {
	fake := &fakeWebHDFS{files: map[string][]byte{"/a": []byte("x")}}
	server := httptest.NewServer(fake)
	defer server.Close()

	cred, _ := identity.Anonymous{}.Authenticate(context.Background())
	s := NewWebHDFSStore(server.URL+"/webhdfs/v1", server.Client(), cred)
	if _, err := s.ContentLength(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if fake.auth[0] != "" {
		t.Errorf("Authorization = %q, want none", fake.auth[0])
	}
}

func TestWebHDFSThrottled(t *testing.T) {
	fake, s := newFakeWebHDFS(t)
	fake.throttle = true

	_, err := s.OpenRange(context.Background(), "a", 0, 1)
	if !IsThrottled(err) {
		t.Errorf("expected throttled error, got %v", err)
	}
}
