package benchmark

import (
	"sync"
	"sync/atomic"
	"time"
)

// ProgressSample is one observation of a running transfer.
type ProgressSample struct {
	BytesTransferred uint64
	TotalBytes       uint64
	SegmentCount     int
	Elapsed          time.Duration
	Final            bool
}

func (p ProgressSample) ElapsedMillis() int64 { return p.Elapsed.Milliseconds() }

func (p ProgressSample) SpeedMBps() float64 {
	return SpeedMBps(p.BytesTransferred, p.Elapsed)
}

func (p ProgressSample) Status() string {
	return StatusText(p.SegmentCount, p.SpeedMBps())
}

// progressEmitter publishes samples on a periodic tick and whenever a segment
// completes. A single goroutine owns the channel, so samples arrive in order
// and BytesTransferred never decreases. Download bytes are added per
// completed segment, so the final sample matches RunResult.BytesTransferred. The subscriber must drain the
// channel until it is closed.
type progressEmitter struct {
	out      chan<- ProgressSample
	total    uint64
	interval time.Duration
	watch    *Stopwatch

	bytes    atomic.Uint64
	segments atomic.Int64

	notify  chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	started bool
}

func newProgressEmitter(out chan<- ProgressSample, total uint64, interval time.Duration, watch *Stopwatch) *progressEmitter {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &progressEmitter{
		out:      out,
		total:    total,
		interval: interval,
		watch:    watch,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// start must be called from the goroutine that later calls stop.
func (e *progressEmitter) start() {
	if e.out == nil || e.started {
		return
	}
	e.started = true
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(e.out)

		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.out <- e.sample(false)
			case <-e.notify:
				e.out <- e.sample(false)
			case <-e.done:
				e.out <- e.sample(true)
				return
			}
		}
	}()
}

// stop sends the final sample and closes the channel. It is safe to call
// more than once and on an emitter that was never started.
func (e *progressEmitter) stop() {
	e.once.Do(func() {
		if e.out == nil {
			return
		}
		if !e.started {
			close(e.out)
			return
		}
		close(e.done)
		e.wg.Wait()
	})
}

// add records n more bytes of completed work.
func (e *progressEmitter) add(n uint64) {
	e.bytes.Add(n)
}

// set records a cumulative byte count, ignoring values below the current one.
func (e *progressEmitter) set(n uint64) {
	for {
		cur := e.bytes.Load()
		if n <= cur || e.bytes.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (e *progressEmitter) setSegments(n int) {
	e.segments.Store(int64(n))
}

// segmentDone requests an immediate sample without blocking the caller.
func (e *progressEmitter) segmentDone() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

func (e *progressEmitter) sample(final bool) ProgressSample {
	s := ProgressSample{
		BytesTransferred: e.bytes.Load(),
		TotalBytes:       e.total,
		SegmentCount:     int(e.segments.Load()),
		Final:            final,
	}
	if e.watch != nil {
		s.Elapsed = e.watch.Elapsed()
	}
	return s
}
