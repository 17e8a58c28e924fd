package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"storebench/logging"
	"storebench/store"
)

// RunResult is the outcome of one benchmark run.
type RunResult struct {
	RunID            string
	Mode             Mode
	Backend          string
	RemotePath       string
	Started          time.Time
	TotalBytes       uint64
	BytesTransferred uint64
	Segments         int
	Succeeded        int
	Failed           int
	Canceled         int
	Throttled        int
	Elapsed          time.Duration
	SpeedMBps        float64
	Status           string

	// Partial is set when throughput covers only the completed segments.
	Partial  bool
	Failures []*SegmentError
}

// Orchestrator drives upload and download runs against one store.
type Orchestrator struct {
	store store.Store
	log   zerolog.Logger
}

func NewOrchestrator(st store.Store) *Orchestrator {
	return &Orchestrator{
		store: st,
		log:   logging.Component("orchestrator"),
	}
}

func newResult(sess Session, mode Mode) RunResult {
	return RunResult{
		RunID:      sess.RunID,
		Mode:       mode,
		Backend:    sess.Config.Backend,
		RemotePath: sess.Config.RemotePath,
		Started:    sess.Started,
	}
}

// Upload generates the dataset when needed and hands it to the store's
// segmented upload. Any error from the store fails the whole run.
// progress may be nil; otherwise it is closed before Upload returns.
func (o *Orchestrator) Upload(ctx context.Context, sess Session, progress chan<- ProgressSample) (RunResult, error) {
	cfg := sess.Config
	result := newResult(sess, ModeUpload)
	logger := o.log.With().Str("run_id", sess.RunID).Str("mode", string(ModeUpload)).Logger()

	var watch Stopwatch
	total := cfg.BlobSizeBytes()
	emitter := newProgressEmitter(progress, total, cfg.ProgressInterval, &watch)
	defer emitter.stop()

	if err := sess.checkCredential(); err != nil {
		return result, err
	}
	if _, err := GenerateDataset(ctx, cfg.BlobSizeMB, cfg.LocalPath); err != nil {
		return result, err
	}

	params := store.UploadParams{
		ThreadCount:    cfg.MaxThreadCount,
		MaxSegmentSize: cfg.MaxSegmentBytes(),
		Overwrite:      true,
	}
	result.TotalBytes = total
	result.Segments = store.SegmentCount(total, params.MaxSegmentSize)
	emitter.setSegments(result.Segments)

	logger.Info().
		Str("local", cfg.LocalPath).
		Str("remote", cfg.RemotePath).
		Uint64("bytes", total).
		Int("threads", params.ThreadCount).
		Uint64("segment_size", params.MaxSegmentSize).
		Msg("upload started")

	watch.Start()
	emitter.start()
	err := o.store.SegmentedUpload(ctx, cfg.LocalPath, cfg.RemotePath, params, func(n uint64, segments int) {
		emitter.setSegments(segments)
		emitter.set(n)
		emitter.segmentDone()
	})
	result.Elapsed = watch.Stop()
	if segments := int(emitter.segments.Load()); segments > 0 {
		result.Segments = segments
	}

	if err != nil {
		result.Failed = result.Segments
		result.Throttled = boolToInt(store.IsThrottled(err))
		result.BytesTransferred = emitter.bytes.Load()
		result.Status = StatusText(result.Segments, 0)
		logger.Error().Err(err).Dur("elapsed", result.Elapsed).Msg("upload failed")
		return result, fmt.Errorf("%w: upload %s: %w", ErrRemoteTransfer, cfg.RemotePath, err)
	}

	emitter.set(total)
	result.Succeeded = result.Segments
	result.BytesTransferred = total
	result.SpeedMBps = SpeedMBps(total, result.Elapsed)
	result.Status = StatusText(result.Segments, result.SpeedMBps)

	logger.Info().
		Dur("elapsed", result.Elapsed).
		Float64("speed_mbps", result.SpeedMBps).
		Msg("upload finished")
	return result, nil
}

// Download reads the remote object in parallel ranged segments, discarding
// the payload. Failed segments are recorded without affecting the others; if
// any segment did not complete the result is returned with an
// *AggregateTransferFailure. progress may be nil; otherwise it is closed
// before Download returns.
func (o *Orchestrator) Download(ctx context.Context, sess Session, progress chan<- ProgressSample) (RunResult, error) {
	cfg := sess.Config
	result := newResult(sess, ModeDownload)
	logger := o.log.With().Str("run_id", sess.RunID).Str("mode", string(ModeDownload)).Logger()

	var watch Stopwatch
	emitter := newProgressEmitter(progress, 0, cfg.ProgressInterval, &watch)
	defer emitter.stop()

	if err := sess.checkCredential(); err != nil {
		return result, err
	}
	total, err := o.store.ContentLength(ctx, cfg.RemotePath)
	if err != nil {
		return result, fmt.Errorf("%w: content length of %s: %w", ErrRemoteTransfer, cfg.RemotePath, err)
	}
	emitter.total = total
	result.TotalBytes = total

	segments, err := PlanSegments(total, cfg.MaxSegmentBytes())
	if err != nil {
		return result, err
	}
	result.Segments = len(segments)
	emitter.setSegments(len(segments))

	sched, err := NewScheduler(ctx, cfg.MaxThreadCount)
	if err != nil {
		return result, err
	}
	defer sched.Close()

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(1, min(cfg.RateLimit, cfg.MaxThreadCount)))
		logger.Debug().Int("rate_limit", cfg.RateLimit).Msg("range reads rate limited")
	}

	logger.Info().
		Str("remote", cfg.RemotePath).
		Uint64("bytes", total).
		Int("segments", len(segments)).
		Int("threads", cfg.MaxThreadCount).
		Msg("download started")

	watch.Start()
	emitter.start()

	handles := make([]*Handle, len(segments))
	for i, seg := range segments {
		handles[i] = sched.Submit(func(ctx context.Context) error {
			return o.readSegment(ctx, cfg.RemotePath, seg, limiter, emitter)
		})
	}
	sched.WaitAll()
	result.Elapsed = watch.Stop()

	var completed uint64
	for i, h := range handles {
		seg := segments[i]
		switch h.State() {
		case TaskCompleted:
			result.Succeeded++
			completed += seg.Length
		case TaskCanceled:
			result.Canceled++
		case TaskFailed:
			segErr := &SegmentError{Segment: seg, Throttled: store.IsThrottled(h.Err()), Err: h.Err()}
			result.Failed++
			if segErr.Throttled {
				result.Throttled++
			}
			result.Failures = append(result.Failures, segErr)
			logger.Warn().
				Uint32("segment", seg.Index).
				Uint64("offset", seg.Offset).
				Uint64("length", seg.Length).
				Bool("throttled", segErr.Throttled).
				Err(segErr.Err).
				Msg("segment failed")
		}
	}

	// Completed segments are the only bytes known to have arrived in full.
	result.BytesTransferred = completed
	if result.Succeeded == result.Segments {
		result.SpeedMBps = SpeedMBps(total, result.Elapsed)
	} else {
		result.Partial = true
		result.SpeedMBps = SpeedMBps(completed, result.Elapsed)
	}
	result.Status = StatusText(result.Segments, result.SpeedMBps)

	logger.Info().
		Dur("elapsed", result.Elapsed).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("canceled", result.Canceled).
		Float64("speed_mbps", result.SpeedMBps).
		Bool("partial", result.Partial).
		Msg("download finished")

	if result.Failed > 0 || result.Canceled > 0 {
		return result, &AggregateTransferFailure{
			Segments:  result.Segments,
			Failed:    result.Failed,
			Canceled:  result.Canceled,
			Throttled: result.Throttled,
			Failures:  result.Failures,
		}
	}
	return result, nil
}

// errShortRead marks a range body that ended before the segment length.
var errShortRead = errors.New("short read")

func (o *Orchestrator) readSegment(ctx context.Context, path string, seg Segment, limiter *rate.Limiter, emitter *progressEmitter) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	body, err := o.store.OpenRange(ctx, path, seg.Offset, seg.Length)
	if err != nil {
		return err
	}
	defer body.Close()

	buf := getBuffer()
	defer putBuffer(buf)

	r := io.LimitReader(body, int64(seg.Length))
	var read uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(*buf)
		read += uint64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if read != seg.Length {
		return fmt.Errorf("%w: got %d of %d bytes", errShortRead, read, seg.Length)
	}
	// Only whole segments count; a failed segment's bytes are discarded.
	emitter.add(read)
	emitter.segmentDone()
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
