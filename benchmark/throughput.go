package benchmark

import (
	"fmt"
	"sync"
	"time"

	"storebench/config"
)

// SpeedMBps returns bytes/1048576 per elapsed second, measured in whole
// milliseconds. It returns 0 when less than a millisecond elapsed.
func SpeedMBps(bytes uint64, elapsed time.Duration) float64 {
	ms := elapsed.Milliseconds()
	if ms <= 0 {
		return 0
	}
	return (float64(bytes) / config.MB) / (float64(ms) / 1000)
}

// StatusText formats the segment count and speed for periodic and final reporting.
func StatusText(segments int, speedMBps float64) string {
	return fmt.Sprintf("%d Segment(s), %.3f MB/s", segments, speedMBps)
}

// Stopwatch measures the wall-clock time of one run. The orchestrator is its
// only writer; Elapsed may be read from any goroutine.
type Stopwatch struct {
	mu      sync.RWMutex
	start   time.Time
	elapsed time.Duration
	running bool
}

func (s *Stopwatch) Start() {
	s.mu.Lock()
	s.start = time.Now()
	s.elapsed = 0
	s.running = true
	s.mu.Unlock()
}

// Stop freezes the elapsed time and returns it.
func (s *Stopwatch) Stop() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.elapsed = time.Since(s.start)
		s.running = false
	}
	return s.elapsed
}

func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.running {
		return time.Since(s.start)
	}
	return s.elapsed
}
