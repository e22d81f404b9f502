package compressor

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"pdfp-go/internal/engine"
	"pdfp-go/internal/files"
	"pdfp-go/internal/logger"
	"pdfp-go/internal/outpath"
	"pdfp-go/internal/progress"
	"pdfp-go/internal/settings"
)

// Options tunes how jobs are run.
type Options struct {
	Interval           time.Duration     // progress tick period
	Timeout            time.Duration     // engine deadline per job; zero disables it
	CompatibilityLevel string            // PDF version requested from the engine
	Progress           progress.Strategy // synthetic progress generator
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Interval:           500 * time.Millisecond,
		Timeout:            30 * time.Minute,
		CompatibilityLevel: engine.DefaultCompatibilityLevel,
		Progress:           progress.Random{MaxStep: 15},
	}
}

// DefaultCompressor is the default implementation of the Compressor interface.
type DefaultCompressor struct {
	fs        afero.Fs
	engine    engine.Engine
	allocator *outpath.Allocator
	evaluator *Evaluator
	opts      Options
	log       *logrus.Logger
}

// NewDefaultCompressor creates a DefaultCompressor writing through fs and
// delegating the actual work to eng.
func NewDefaultCompressor(fs afero.Fs, eng engine.Engine, log *logrus.Logger, opts Options) *DefaultCompressor {
	def := DefaultOptions()
	if opts.Interval <= 0 {
		opts.Interval = def.Interval
	}
	if opts.CompatibilityLevel == "" {
		opts.CompatibilityLevel = def.CompatibilityLevel
	}
	if opts.Progress == nil {
		opts.Progress = def.Progress
	}
	return &DefaultCompressor{
		fs:        fs,
		engine:    eng,
		allocator: outpath.NewAllocator(fs),
		evaluator: NewEvaluator(fs, log),
		opts:      opts,
		log:       log,
	}
}

// Compress runs one job: allocate the output path, drive the engine while
// ticking synthetic progress, then evaluate what was produced.
func (c *DefaultCompressor) Compress(ctx context.Context, file files.FileInfo, s settings.CompressionSettings, onProgress ProgressFunc) (*CompressionResult, error) {
	start := time.Now()
	entry := logger.WithFileOperation(c.log, file.Path, "compress")

	profile, err := s.Quality.Profile()
	if err != nil {
		return nil, err
	}
	if onProgress == nil {
		onProgress = func(progress.Sample) {}
	}

	outDir := settings.ResolveOutputDir(c.fs, s.OutputFolder(), file.Path)
	if folder := s.OutputFolder(); folder != "" && outDir != folder {
		entry.WithField("output_folder", folder).Warn("Output folder is not a usable directory, writing next to the input")
	}
	outputPath := c.allocator.Allocate(file.Path, outDir)

	req := engine.Request{
		InputPath:          file.Path,
		OutputPath:         outputPath,
		Profile:            profile,
		CompatibilityLevel: c.opts.CompatibilityLevel,
	}
	entry.WithFields(logrus.Fields{
		"output":  outputPath,
		"quality": s.Quality,
	}).Debug("Starting engine")

	runCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		progress.Emit(done, c.opts.Interval, c.opts.Progress.New(), start, onProgress)
	}()

	status, runErr := c.engine.Compress(runCtx, req)
	close(done)
	wg.Wait()

	if runErr != nil {
		c.discardPartial(outputPath)
		entry.WithError(runErr).Error("Engine could not be started")
		return nil, runErr
	}
	onProgress(progress.Final(start))

	if !status.Success() {
		c.discardPartial(outputPath)
		reason := engine.ReasonExit
		switch {
		case status.TimedOut:
			reason = engine.ReasonTimedOut
		case status.Signal != "":
			reason = engine.ReasonKilled
		}
		execErr := &engine.ExecutionError{ExitCode: status.Code, Reason: reason, Signal: status.Signal, Stderr: status.Stderr}
		entry.WithField("exit_code", status.Code).Error(execErr.Error())
		return nil, execErr
	}

	result, err := c.evaluator.Evaluate(file, outputPath, start)
	if err != nil {
		entry.WithError(err).Error("Could not evaluate engine output")
		return nil, err
	}

	if target := s.TargetSize(); target > 0 && result.OutputSize > target {
		result.TargetSizeMissed = true
		entry.WithFields(logrus.Fields{
			"target_bytes": target,
			"output_bytes": result.OutputSize,
		}).Info("Output is larger than the requested target size")
	}

	if s.RemoveInputFile && !result.AlreadyOptimized {
		if err := c.fs.Remove(file.Path); err != nil {
			fsErr := &FileSystemError{Op: "remove", Path: file.Path, Err: err}
			entry.Warn(fsErr.Error())
		} else {
			result.InputFileRemoved = true
		}
	}

	entry.WithFields(logrus.Fields{
		"output":      result.OutputPath,
		"saved_bytes": result.SavedBytes,
		"duration":    result.Duration.String(),
	}).Info("Compression finished")
	return result, nil
}

// discardPartial removes whatever a failed run left behind.
func (c *DefaultCompressor) discardPartial(path string) {
	exists, err := afero.Exists(c.fs, path)
	if err != nil || !exists {
		return
	}
	if err := c.fs.Remove(path); err != nil {
		fsErr := &FileSystemError{Op: "remove", Path: path, Err: err}
		logger.WithFileOperation(c.log, path, "discard_partial").Warn(fsErr.Error())
	}
}
