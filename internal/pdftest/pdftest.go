// Package pdftest generates small but valid PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

// Doc describes a generated document.
type Doc struct {
	Pages   int
	Title   string
	Author  string
	Creator string
}

// Bytes renders d. Each page carries a few lines of text so the engine has
// something to rewrite.
func Bytes(d Doc) ([]byte, error) {
	if d.Pages <= 0 {
		d.Pages = 1
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	if d.Title != "" {
		pdf.SetTitle(d.Title, true)
	}
	if d.Author != "" {
		pdf.SetAuthor(d.Author, true)
	}
	if d.Creator != "" {
		pdf.SetCreator(d.Creator, true)
	}
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < d.Pages; i++ {
		pdf.AddPage()
		for line := 0; line < 20; line++ {
			pdf.CellFormat(0, 8, fmt.Sprintf("Page %d, line %d", i+1, line+1), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders d into dir/name and returns the path.
func Write(t testing.TB, dir, name string, d Doc) string {
	t.Helper()
	data, err := Bytes(d)
	if err != nil {
		t.Fatalf("render %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
