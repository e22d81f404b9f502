// Package batch sequences compression jobs over a set of files and keeps
// per-file status and aggregate totals for the caller.
package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pdfp-go/internal/compressor"
	"pdfp-go/internal/files"
)

// Status is the lifecycle state of a batch item. Transitions only go
// pending → compressing → completed|error, or pending → skipped.
type Status string

const (
	StatusPending     Status = "pending"
	StatusCompressing Status = "compressing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
	StatusSkipped     Status = "skipped"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusSkipped
}

// Item tracks one file through a batch.
type Item struct {
	ID       string
	File     files.FileInfo
	Status   Status
	Progress float64
	Result   *compressor.CompressionResult
	Error    string
	Cause    error
}

// NewItems wraps each file in a pending Item with a fresh ID.
func NewItems(in []files.FileInfo) []Item {
	items := make([]Item, len(in))
	for i, f := range in {
		items[i] = Item{
			ID:     uuid.NewString(),
			File:   f,
			Status: StatusPending,
		}
	}
	return items
}

// ValidationError rejects a batch before any job runs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid batch: " + e.Reason
}

// Validate checks batch composition: at least one file, every file of a
// supported kind, and all of the same kind.
func Validate(in []files.FileInfo) error {
	if len(in) == 0 {
		return &ValidationError{Reason: "no files to compress"}
	}

	first := in[0].Kind
	for _, f := range in {
		if f.Kind == files.KindUnknown || f.Kind == "" {
			return &ValidationError{Reason: fmt.Sprintf("%s is not a supported file (supported: %s)",
				f.Name, files.SupportedFormats())}
		}
	}
	for _, f := range in[1:] {
		if f.Kind != first {
			return &ValidationError{Reason: fmt.Sprintf("mixed file kinds: %s is %s but %s is %s",
				in[0].Name, first, f.Name, f.Kind)}
		}
	}
	return nil
}

// Totals aggregates finished items.
type Totals struct {
	Files            int
	Completed        int
	AlreadyOptimized int
	Failed           int
	Skipped          int
	InputSize        int64 // sum over completed items
	OutputSize       int64 // sum over completed items
}

// SavedBytes returns the bytes saved across completed items.
func (t Totals) SavedBytes() int64 {
	return t.InputSize - t.OutputSize
}

// SavedPercentage returns SavedBytes as a share of InputSize.
func (t Totals) SavedPercentage() float64 {
	if t.InputSize == 0 {
		return 0
	}
	return float64(t.SavedBytes()) / float64(t.InputSize) * 100
}

// Summary is the outcome of a batch run.
type Summary struct {
	Items     []Item
	Totals    Totals
	Cancelled bool
	Duration  time.Duration
}

// Summarize computes totals over items.
func Summarize(items []Item) Totals {
	t := Totals{Files: len(items)}
	for _, it := range items {
		switch it.Status {
		case StatusCompleted:
			t.Completed++
			if it.Result != nil {
				t.InputSize += it.Result.InputSize
				t.OutputSize += it.Result.OutputSize
				if it.Result.AlreadyOptimized {
					t.AlreadyOptimized++
				}
			}
		case StatusError:
			t.Failed++
		case StatusSkipped:
			t.Skipped++
		}
	}
	return t
}
