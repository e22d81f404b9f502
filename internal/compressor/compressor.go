package compressor

import (
	"context"
	"fmt"
	"time"

	"pdfp-go/internal/files"
	"pdfp-go/internal/progress"
	"pdfp-go/internal/settings"
)

// ProgressFunc receives progress samples for a running job. Calls for one
// job never overlap.
type ProgressFunc func(progress.Sample)

// CompressionResult describes the outcome of compressing a single file.
//
// When AlreadyOptimized is set, OutputPath equals InputPath, OutputSize
// equals InputSize and SavedBytes is zero; the produced file was discarded.
type CompressionResult struct {
	InputPath        string
	OutputPath       string
	InputSize        int64
	OutputSize       int64
	SavedBytes       int64
	SavedPercentage  float64
	Duration         time.Duration
	InputFileRemoved bool
	AlreadyOptimized bool
	TargetSizeMissed bool
}

// Compressor runs one compression job end to end.
type Compressor interface {
	// Compress produces a compressed sibling of file according to s, reporting
	// synthetic progress through onProgress (which may be nil).
	Compress(ctx context.Context, file files.FileInfo, s settings.CompressionSettings, onProgress ProgressFunc) (*CompressionResult, error)
}

// FileSystemError reports a best-effort file operation that failed. It is
// logged and never turns a successful job into a failure.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error {
	return e.Err
}
