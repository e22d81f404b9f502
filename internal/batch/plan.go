package batch

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"pdfp-go/internal/files"
	"pdfp-go/internal/outpath"
	"pdfp-go/internal/settings"
)

// PlannedJob is what a dry run predicts for one file.
type PlannedJob struct {
	File          files.FileInfo
	OutputPath    string
	EstimatedSize int64
	WithinTarget  bool // true when no target is set
}

// Planner previews a batch without running the engine.
type Planner struct {
	fs        afero.Fs
	allocator *outpath.Allocator
	logger    *logrus.Logger
}

// NewPlanner returns a Planner reading fs.
func NewPlanner(fs afero.Fs, log *logrus.Logger) *Planner {
	return &Planner{fs: fs, allocator: outpath.NewAllocator(fs), logger: log}
}

// Plan validates the batch and predicts output paths and sizes. Nothing is
// written, so paths are the ones the first job would get against the current
// file system.
func (p *Planner) Plan(in []files.FileInfo, s settings.CompressionSettings) ([]PlannedJob, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	target := s.TargetSize()
	jobs := make([]PlannedJob, 0, len(in))
	for _, f := range in {
		dir := settings.ResolveOutputDir(p.fs, s.OutputFolder(), f.Path)
		est := settings.EstimateCompressedSize(f.Size, s.Quality)
		job := PlannedJob{
			File:          f,
			OutputPath:    p.allocator.Allocate(f.Path, dir),
			EstimatedSize: est,
			WithinTarget:  target == 0 || est <= target,
		}
		p.logger.WithFields(logrus.Fields{
			"file":      f.Path,
			"output":    job.OutputPath,
			"estimated": est,
		}).Infof("DRY-RUN: Would compress %s -> %s", f.Path, job.OutputPath)
		jobs = append(jobs, job)
	}
	return jobs, nil
}
