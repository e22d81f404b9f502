package compressor

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"pdfp-go/internal/engine"
	"pdfp-go/internal/files"
	"pdfp-go/internal/logger"
)

// NewResult computes the result for an input and the size of what the engine
// wrote. An output that is not smaller than the input is reported as already
// optimized and points back at the input.
func NewResult(input files.FileInfo, outputPath string, outputSize int64, elapsed time.Duration) *CompressionResult {
	if outputSize >= input.Size {
		return &CompressionResult{
			InputPath:        input.Path,
			OutputPath:       input.Path,
			InputSize:        input.Size,
			OutputSize:       input.Size,
			Duration:         elapsed,
			AlreadyOptimized: true,
		}
	}

	saved := input.Size - outputSize
	return &CompressionResult{
		InputPath:       input.Path,
		OutputPath:      outputPath,
		InputSize:       input.Size,
		OutputSize:      outputSize,
		SavedBytes:      saved,
		SavedPercentage: float64(saved) / float64(input.Size) * 100,
		Duration:        elapsed,
	}
}

// Evaluator inspects a finished job's output and applies the already
// optimized policy.
type Evaluator struct {
	fs  afero.Fs
	log *logrus.Logger
}

// NewEvaluator returns an Evaluator working on fs.
func NewEvaluator(fs afero.Fs, log *logrus.Logger) *Evaluator {
	return &Evaluator{fs: fs, log: log}
}

// Evaluate stats outputPath and builds the job result. A non-beneficial
// output is deleted; an empty output for a non-empty input is an engine
// failure.
func (e *Evaluator) Evaluate(input files.FileInfo, outputPath string, start time.Time) (*CompressionResult, error) {
	info, err := e.fs.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("engine reported success but output is unreadable: %w", err)
	}

	result := NewResult(input, outputPath, info.Size(), time.Since(start))
	switch {
	case result.AlreadyOptimized:
		e.discard(outputPath)
		logger.WithFile(e.log, input.Path).Infof("Output not smaller than input (%d >= %d bytes), keeping original",
			info.Size(), input.Size)
	case info.Size() == 0:
		e.discard(outputPath)
		return nil, &engine.ExecutionError{Reason: engine.ReasonEmptyOutput}
	}
	return result, nil
}

// discard removes a produced file, logging failures.
func (e *Evaluator) discard(path string) {
	if err := e.fs.Remove(path); err != nil {
		fsErr := &FileSystemError{Op: "remove", Path: path, Err: err}
		logger.WithFileOperation(e.log, path, "discard_output").Warn(fsErr.Error())
	}
}
