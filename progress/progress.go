// Package progress renders the ProgressSample stream of a run.
package progress

import (
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/minio/pkg/console"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"storebench/benchmark"
	"storebench/logging"
)

const barTemplate = `{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }} {{speed . }} {{string . "status"}}`

// ProgressBar wraps a pb bar counting bytes.
type ProgressBar struct {
	*pb.ProgressBar
}

// NewProgressBar starts a byte-counting bar writing to w.
func NewProgressBar(total int64, w io.Writer) *ProgressBar {
	console.SetColor("Bar", color.New(color.FgGreen, color.Bold))

	bar := pb.New64(total)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Millisecond * 125)
	bar.SetTemplateString(barTemplate)
	if w != nil {
		bar.SetWriter(w)
	}
	bar.Start()

	return &ProgressBar{ProgressBar: bar}
}

// SetCaption sets the caption of the progress bar.
func (p *ProgressBar) SetCaption(caption string) *ProgressBar {
	p.ProgressBar.Set("prefix", console.Colorize("Bar", caption))
	return p
}

// Update moves the bar to the sample's position.
func (p *ProgressBar) Update(s benchmark.ProgressSample) {
	if total := int64(s.TotalBytes); total != p.Total() {
		p.SetTotal(total)
	}
	p.SetCurrent(int64(s.BytesTransferred))
	p.ProgressBar.Set("status", s.Status())
}

// Options controls how Watch renders samples.
type Options struct {
	Caption string
	// Writer receives the bar; defaults to stderr.
	Writer io.Writer
	// Interactive selects the bar. Without it samples become log lines.
	Interactive bool
}

// IsInteractive reports whether stderr is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// Watch consumes samples until the channel is closed and returns the last
// one received.
func Watch(samples <-chan benchmark.ProgressSample, opts Options) benchmark.ProgressSample {
	if opts.Interactive {
		return watchBar(samples, opts)
	}
	return watchLog(samples, opts, logging.Component("progress"))
}

func watchBar(samples <-chan benchmark.ProgressSample, opts Options) benchmark.ProgressSample {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var last benchmark.ProgressSample
	var bar *ProgressBar
	for s := range samples {
		if bar == nil {
			bar = NewProgressBar(int64(s.TotalBytes), w).SetCaption(opts.Caption)
		}
		bar.Update(s)
		last = s
	}
	if bar != nil {
		bar.Finish()
	}
	return last
}

func watchLog(samples <-chan benchmark.ProgressSample, opts Options, logger zerolog.Logger) benchmark.ProgressSample {
	var last benchmark.ProgressSample
	for s := range samples {
		last = s
		event := logger.Info()
		if !s.Final {
			event = logger.Debug()
		}
		event.
			Str("run", opts.Caption).
			Uint64("bytes", s.BytesTransferred).
			Uint64("total", s.TotalBytes).
			Int64("elapsed_ms", s.ElapsedMillis()).
			Msg(s.Status())
	}
	return last
}
