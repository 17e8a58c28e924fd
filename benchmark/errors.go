package benchmark

import (
	"errors"
	"fmt"

	"storebench/identity"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAuthentication  = identity.ErrAuthentication
	ErrIO              = errors.New("io failure")
	ErrRemoteTransfer  = errors.New("remote transfer failed")
	ErrInvalidState    = errors.New("invalid state")

	// ErrAggregateTransfer matches any *AggregateTransferFailure with errors.Is.
	ErrAggregateTransfer = errors.New("segment transfers failed")
)

// SegmentError records why a single download segment failed.
type SegmentError struct {
	Segment   Segment
	Throttled bool
	Err       error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d [%d, +%d): %v", e.Segment.Index, e.Segment.Offset, e.Segment.Length, e.Err)
}

func (e *SegmentError) Unwrap() []error {
	return []error{ErrRemoteTransfer, e.Err}
}

// AggregateTransferFailure is returned alongside a RunResult when one or more
// download segments did not complete.
type AggregateTransferFailure struct {
	Segments  int
	Failed    int
	Canceled  int
	Throttled int
	Failures  []*SegmentError
}

func (e *AggregateTransferFailure) Error() string {
	msg := fmt.Sprintf("%d of %d segments failed", e.Failed, e.Segments)
	if e.Canceled > 0 {
		msg += fmt.Sprintf(", %d canceled", e.Canceled)
	}
	if e.Throttled > 0 {
		msg += fmt.Sprintf(" (%d throttled)", e.Throttled)
	}
	if len(e.Failures) > 0 {
		msg += ": first: " + e.Failures[0].Error()
	}
	return msg
}

func (e *AggregateTransferFailure) Is(target error) bool {
	return target == ErrAggregateTransfer
}

func (e *AggregateTransferFailure) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
