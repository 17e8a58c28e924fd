package benchmark

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"storebench/logging"
)

// TaskState is the lifecycle state of a scheduled task.
type TaskState int

const (
	TaskPending TaskState = iota
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskCanceled
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("TaskState(%d)", int(s))
	}
}

// Terminal reports whether no further transition can happen.
func (s TaskState) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCanceled
}

// Task is one unit of work. It should return promptly once ctx is done.
type Task func(ctx context.Context) error

// Handle tracks a submitted task.
type Handle struct {
	id   int
	task Task

	mu    sync.Mutex
	state TaskState
	err   error
	done  chan struct{}
}

func (h *Handle) ID() int { return h.id }

func (h *Handle) State() TaskState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err returns the task's error once it failed or was canceled.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Done is closed when the task reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) setRunning() {
	h.mu.Lock()
	h.state = TaskRunning
	h.mu.Unlock()
}

func (h *Handle) finish(state TaskState, err error) {
	h.mu.Lock()
	h.state = state
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Scheduler runs submitted tasks with at most capacity of them running at
// once. Tasks start in submission order. A failed task never affects its
// siblings; only Cancel stops work.
type Scheduler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	capacity int
	log      zerolog.Logger

	mu         sync.Mutex
	idle       *sync.Cond
	queue      []*Handle
	workers    int
	running    int
	unfinished int
	peak       int
	nextID     int
}

// NewScheduler returns a scheduler whose tasks observe a child of ctx.
func NewScheduler(ctx context.Context, capacity int) (*Scheduler, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: scheduler capacity must be positive, got %d", ErrInvalidArgument, capacity)
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Scheduler{
		ctx:      ctx,
		cancel:   cancel,
		capacity: capacity,
		log:      logging.Component("scheduler"),
	}
	s.idle = sync.NewCond(&s.mu)
	return s, nil
}

// Submit queues task and returns immediately. A worker is started when fewer
// than capacity are alive. Tasks submitted after Cancel are canceled at once.
func (s *Scheduler) Submit(task Task) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := &Handle{id: s.nextID, task: task, done: make(chan struct{})}
	s.nextID++

	if s.ctx.Err() != nil {
		h.finish(TaskCanceled, s.ctx.Err())
		return h
	}

	s.queue = append(s.queue, h)
	s.unfinished++
	if s.workers < s.capacity {
		s.workers++
		go s.worker()
	}
	return h
}

func (s *Scheduler) worker() {
	for {
		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.discardLocked()
		}
		if len(s.queue) == 0 {
			s.workers--
			s.mu.Unlock()
			return
		}
		h := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		h.setRunning()
		s.running++
		s.peak = max(s.peak, s.running)
		s.mu.Unlock()

		err := s.run(h)

		state := TaskCompleted
		switch {
		case err != nil && s.ctx.Err() != nil:
			state = TaskCanceled
		case err != nil:
			state = TaskFailed
		}
		h.finish(state, err)

		s.mu.Lock()
		s.running--
		s.unfinished--
		s.idle.Broadcast()
		s.mu.Unlock()
	}
}

func (s *Scheduler) run(h *Handle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Int("task", h.id).Interface("panic", r).Msg("task panicked")
			err = fmt.Errorf("task %d panicked: %v", h.id, r)
		}
	}()
	return h.task(s.ctx)
}

// Cancel discards pending tasks and signals running ones through their
// context. It does not wait; call WaitAll for that.
func (s *Scheduler) Cancel() {
	s.cancel()

	s.mu.Lock()
	s.discardLocked()
	s.mu.Unlock()
}

// discardLocked cancels every pending task. s.mu must be held.
func (s *Scheduler) discardLocked() {
	if len(s.queue) == 0 {
		return
	}
	for _, h := range s.queue {
		h.finish(TaskCanceled, s.ctx.Err())
	}
	s.log.Debug().Int("discarded", len(s.queue)).Msg("pending tasks canceled")
	s.unfinished -= len(s.queue)
	s.queue = nil
	s.idle.Broadcast()
}

// WaitAll blocks until every submitted task is terminal.
func (s *Scheduler) WaitAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.unfinished > 0 {
		s.idle.Wait()
	}
}

// Close cancels the scheduler's context after the caller is done with it.
func (s *Scheduler) Close() {
	s.cancel()
}

// Running returns the number of tasks currently running.
func (s *Scheduler) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Peak returns the highest number of tasks that were running at once.
func (s *Scheduler) Peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

func (s *Scheduler) Capacity() int { return s.capacity }
