package main

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"

	"pdfp-go/internal/batch"
	"pdfp-go/internal/engine"
	"pdfp-go/internal/files"
	"pdfp-go/internal/metadata"
	"pdfp-go/internal/settings"
	"pdfp-go/internal/statistics"
)

// renderer turns batch events into terminal output: a bar per running file
// on errOut and one result line per finished file on out.
type renderer struct {
	out, errOut io.Writer
	total       int
	quiet       bool
	bar         *progressbar.ProgressBar
	hinted      bool
}

func newRenderer(out, errOut io.Writer, total int, quiet bool) *renderer {
	return &renderer{out: out, errOut: errOut, total: total, quiet: quiet}
}

func (r *renderer) handle(ev batch.Event) {
	switch ev.Kind {
	case batch.EventProgress:
		if r.bar != nil {
			_ = r.bar.Set(int(ev.Sample.Percentage))
		}
	case batch.EventStatus:
		r.status(ev)
	}
}

func (r *renderer) status(ev batch.Event) {
	it := ev.Item
	switch it.Status {
	case batch.StatusCompressing:
		if !r.quiet {
			r.bar = r.newBar(ev.Index, it.File.Name)
		}
	case batch.StatusCompleted:
		r.finishBar()
		if r.quiet {
			return
		}
		res := it.Result
		if res.AlreadyOptimized {
			fmt.Fprintf(r.out, "• %s is already optimized (%s), original kept\n",
				it.File.Name, statistics.FormatBytes(res.InputSize))
			return
		}
		fmt.Fprintf(r.out, "✓ %s: %s → %s (saved %.1f%%) in %s\n  %s\n",
			it.File.Name,
			statistics.FormatBytes(res.InputSize),
			statistics.FormatBytes(res.OutputSize),
			res.SavedPercentage,
			statistics.FormatDuration(res.Duration),
			res.OutputPath)
		if res.TargetSizeMissed {
			fmt.Fprintf(r.out, "  target size not reached, try a lower quality preset\n")
		}
		if res.InputFileRemoved {
			fmt.Fprintf(r.out, "  original removed\n")
		}
	case batch.StatusError:
		r.finishBar()
		fmt.Fprintf(r.errOut, "✗ %s: %s\n", it.File.Name, it.Error)
		var nie *engine.NotInstalledError
		if !r.hinted && errors.As(it.Cause, &nie) {
			r.hinted = true
			fmt.Fprintln(r.errOut, engine.InstallInstructions(runtime.GOOS))
		}
	case batch.StatusSkipped:
		if !r.quiet {
			fmt.Fprintf(r.errOut, "- %s skipped\n", it.File.Name)
		}
	}
}

func (r *renderer) newBar(index int, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(r.errOut),
		progressbar.OptionSetDescription(fmt.Sprintf("[%d/%d] %s", index+1, r.total, name)),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (r *renderer) finishBar() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	r.bar = nil
}

// printPlan renders a dry run.
func printPlan(w io.Writer, plan []batch.PlannedJob, s settings.CompressionSettings) {
	fmt.Fprintf(w, "DRY-RUN: %d file(s) at %s quality\n\n", len(plan), s.Quality)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tESTIMATE\tOUTPUT")
	var in, est int64
	for _, job := range plan {
		mark := ""
		if !job.WithinTarget {
			mark = " (over target)"
		}
		fmt.Fprintf(tw, "%s\t%s\t~%s%s\t%s\n",
			job.File.Name,
			statistics.FormatBytes(job.File.Size),
			statistics.FormatBytes(job.EstimatedSize),
			mark,
			job.OutputPath)
		in += job.File.Size
		est += job.EstimatedSize
	}
	tw.Flush()
	fmt.Fprintf(w, "\nTotal: %s → ~%s\n", statistics.FormatBytes(in), statistics.FormatBytes(est))
}

// printInfo renders PDF metadata.
func printInfo(w io.Writer, f files.FileInfo, info *metadata.Info) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", k, v)
		}
	}
	row("File", f.Path)
	row("Size", statistics.FormatBytes(f.Size))
	row("PDF version", info.PDFVersion)
	if info.PageCount > 0 {
		row("Pages", fmt.Sprint(info.PageCount))
	}
	row("Title", info.Title)
	row("Author", info.Author)
	row("Creator", info.Creator)
	row("Producer", info.Producer)
	row("Linearized", yesNo(info.Linearized))
	row("Encrypted", yesNo(info.Encrypted))
	tw.Flush()

	for _, q := range settings.Qualities() {
		fmt.Fprintf(w, "  estimate at %-8s ~%s\n", q, statistics.FormatBytes(settings.EstimateCompressedSize(f.Size, q)))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
