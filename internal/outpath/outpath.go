// Package outpath picks collision-free destination paths for compressed files.
package outpath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Suffix is appended to the input's base name to form the output name.
const Suffix = "-pdfp"

// Allocator computes output paths against the live file system. Nothing is
// cached between calls; every call re-checks existence on fs.
type Allocator struct {
	fs afero.Fs
}

// NewAllocator returns an Allocator that checks for existing files on fs.
func NewAllocator(fs afero.Fs) *Allocator {
	return &Allocator{fs: fs}
}

// Allocate returns "<dir>/<basename>-pdfp<ext>", or the first of
// "<basename>-pdfp-1<ext>", "<basename>-pdfp-2<ext>", ... that does not exist.
// An unwritable dir is not detected here; the write fails later.
func (a *Allocator) Allocate(inputPath, outputDir string) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), ext) + Suffix

	candidate := filepath.Join(outputDir, stem+ext)
	for counter := 1; a.exists(candidate); counter++ {
		candidate = filepath.Join(outputDir, fmt.Sprintf("%s-%d%s", stem, counter, ext))
	}
	return candidate
}

func (a *Allocator) exists(path string) bool {
	// Errors other than "not found" are treated as free so the engine reports them.
	ok, err := afero.Exists(a.fs, path)
	return err == nil && ok
}
