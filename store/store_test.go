package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

func TestSegmentCount(t *testing.T) {
	tests := []struct {
		size, segment uint64
		want          int
	}{
		{0, 4, 0},
		{1, 4, 1},
		{4, 4, 1},
		{5, 4, 2},
		{10485760, 4194304, 3},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := SegmentCount(tt.size, tt.segment); got != tt.want {
			t.Errorf("SegmentCount(%d, %d) = %d, want %d", tt.size, tt.segment, got, tt.want)
		}
	}
}

func TestUploadChunkSize(t *testing.T) {
	tests := []struct {
		size, segment, want uint64
	}{
		{10, 4, 4},
		{3, 4, 3},
		{0, 4, 1},
		{1 << 20, 1 << 30, 1 << 20},
		{1 << 30, 1 << 20, 1 << 20},
	}
	for _, tt := range tests {
		if got := uploadChunkSize(tt.size, tt.segment); got != tt.want {
			t.Errorf("uploadChunkSize(%d, %d) = %d, want %d", tt.size, tt.segment, got, tt.want)
		}
	}
}

func TestIsThrottled(t *testing.T) {
	awsThrottle := &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: http.StatusTooManyRequests}},
			Err:      errors.New("slow down"),
		},
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"status 429", &StatusError{Op: "OPEN", Code: http.StatusTooManyRequests}, true},
		{"status 503", &StatusError{Op: "OPEN", Code: http.StatusServiceUnavailable}, true},
		{"status 500", &StatusError{Op: "OPEN", Code: http.StatusInternalServerError}, false},
		{"wrapped status", fmt.Errorf("segment 3: %w", &StatusError{Code: http.StatusTooManyRequests}), true},
		{"aws 429", fmt.Errorf("get object: %w", awsThrottle), true},
		{"not found", ErrNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsThrottled(tt.err); got != tt.want {
				t.Errorf("IsThrottled(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestProgressTrackerCapsAndSerialises(t *testing.T) {
	var calls []uint64
	tracker := newProgressTracker(func(n uint64, segments int) {
		if segments != 3 {
			t.Errorf("segments = %d, want 3", segments)
		}
		calls = append(calls, n)
	}, 10, 3)

	tracker.add(4)
	tracker.add(4)
	tracker.add(4) // retried part would overshoot
	tracker.finish()

	want := []uint64{4, 8, 10}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %d, want %d", i, calls[i], want[i])
		}
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Op: "OPEN /a", Code: 404, Exception: "FileNotFoundException", Message: "missing"}
	if got := err.Error(); got != "OPEN /a: status 404: FileNotFoundException: missing" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&StatusError{Op: "DELETE /a", Code: 500}).Error(); got != "DELETE /a: status 500" {
		t.Errorf("Error() = %q", got)
	}
}
