package main

import (
	"bytes"
	"strings"
	"testing"

	"pdfp-go/internal/batch"
	"pdfp-go/internal/compressor"
	"pdfp-go/internal/engine"
	"pdfp-go/internal/files"
	"pdfp-go/internal/metadata"
	"pdfp-go/internal/progress"
	"pdfp-go/internal/settings"
)

func TestRenderer_Lifecycle(t *testing.T) {
	var out, errOut bytes.Buffer
	r := newRenderer(&out, &errOut, 3, false)
	file := files.FileInfo{Path: "/docs/a.pdf", Name: "a.pdf", Size: 2048}

	r.handle(batch.Event{Kind: batch.EventStatus, Index: 0, Item: batch.Item{File: file, Status: batch.StatusCompressing}})
	if r.bar == nil {
		t.Fatal("no bar for the running file")
	}
	r.handle(batch.Event{Kind: batch.EventProgress, Index: 0, Sample: progress.Sample{Percentage: 40}})
	r.handle(batch.Event{Kind: batch.EventStatus, Index: 0, Item: batch.Item{
		File:   file,
		Status: batch.StatusCompleted,
		Result: &compressor.CompressionResult{
			InputPath: file.Path, OutputPath: "/docs/a-pdfp.pdf",
			InputSize: 2048, OutputSize: 1024, SavedBytes: 1024, SavedPercentage: 50,
		},
	}})
	if r.bar != nil {
		t.Error("bar must be finished")
	}
	if !strings.Contains(out.String(), "✓ a.pdf: 2 KB → 1 KB (saved 50.0%)") {
		t.Errorf("out = %q", out.String())
	}

	r.handle(batch.Event{Kind: batch.EventStatus, Index: 1, Item: batch.Item{
		File:   files.FileInfo{Name: "b.pdf"},
		Status: batch.StatusError,
		Error:  "Ghostscript exited with code 1",
		Cause:  &engine.ExecutionError{ExitCode: 1, Reason: engine.ReasonExit},
	}})
	r.handle(batch.Event{Kind: batch.EventStatus, Index: 2, Item: batch.Item{
		File:   files.FileInfo{Name: "c.pdf"},
		Status: batch.StatusSkipped,
	}})
	if !strings.Contains(errOut.String(), "✗ b.pdf: Ghostscript exited with code 1") {
		t.Errorf("errOut = %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "- c.pdf skipped") {
		t.Errorf("errOut = %q", errOut.String())
	}
}

func TestRenderer_InstallHintOnce(t *testing.T) {
	var out, errOut bytes.Buffer
	r := newRenderer(&out, &errOut, 2, true)
	for i := 0; i < 2; i++ {
		r.handle(batch.Event{Kind: batch.EventStatus, Index: i, Item: batch.Item{
			File:   files.FileInfo{Name: "a.pdf"},
			Status: batch.StatusError,
			Error:  "not installed",
			Cause:  &engine.NotInstalledError{Candidates: engine.DefaultBinaries},
		}})
	}
	if n := strings.Count(errOut.String(), "not installed\n"); n != 2 {
		t.Errorf("errors printed %d times", n)
	}
	if !r.hinted {
		t.Error("install instructions not shown")
	}
}

func TestRenderer_AlreadyOptimized(t *testing.T) {
	var out, errOut bytes.Buffer
	r := newRenderer(&out, &errOut, 1, false)
	r.handle(batch.Event{Kind: batch.EventStatus, Item: batch.Item{
		File:   files.FileInfo{Name: "a.pdf"},
		Status: batch.StatusCompleted,
		Result: &compressor.CompressionResult{InputSize: 500, OutputSize: 500, AlreadyOptimized: true},
	}})
	if !strings.Contains(out.String(), "already optimized") {
		t.Errorf("out = %q", out.String())
	}
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, []batch.PlannedJob{
		{File: files.FileInfo{Name: "a.pdf", Size: 2048}, OutputPath: "/docs/a-pdfp.pdf", EstimatedSize: 1024, WithinTarget: true},
		{File: files.FileInfo{Name: "b.pdf", Size: 4096}, OutputPath: "/docs/b-pdfp.pdf", EstimatedSize: 2048},
	}, settings.CompressionSettings{Quality: settings.QualityEbook})

	out := buf.String()
	for _, want := range []string{"DRY-RUN: 2 file(s) at ebook quality", "/docs/a-pdfp.pdf", "(over target)", "Total: 6 KB → ~3 KB"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan missing %q:\n%s", want, out)
		}
	}
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	printInfo(&buf, files.FileInfo{Path: "/docs/a.pdf", Size: 1000}, &metadata.Info{PageCount: 3, Title: "Report"})
	out := buf.String()
	for _, want := range []string{"Pages:", "3", "Title:", "Report", "estimate at screen"} {
		if !strings.Contains(out, want) {
			t.Errorf("info missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Author:") {
		t.Error("empty fields must be omitted")
	}
}
