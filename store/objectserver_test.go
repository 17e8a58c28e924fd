package store

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// objectServer serves in-memory objects over GET (with Range), HEAD and
// DELETE. Paths are mapped to keys by trimming prefix.
type objectServer struct {
	*httptest.Server

	mu       sync.Mutex
	objects  map[string][]byte
	ranges   []string
	notFound func(w http.ResponseWriter, r *http.Request)
}

func newObjectServer(t *testing.T, prefix string, notFound func(w http.ResponseWriter, r *http.Request)) *objectServer {
	t.Helper()
	s := &objectServer{objects: map[string][]byte{}, notFound: notFound}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, prefix)
		s.mu.Lock()
		data, ok := s.objects[key]
		if rng := r.Header.Get("Range"); rng != "" {
			s.ranges = append(s.ranges, rng)
		}
		s.mu.Unlock()

		if !ok {
			s.notFound(w, r)
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			http.ServeContent(w, r, key, time.Unix(0, 0), bytes.NewReader(data))
		case http.MethodDelete:
			s.mu.Lock()
			delete(s.objects, key)
			s.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *objectServer) put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
}

func (s *objectServer) rangeHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges...)
}
