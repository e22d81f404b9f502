package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"pdfp-go/internal/config"
	"pdfp-go/internal/engine"
	"pdfp-go/internal/engine/enginetest"
)

func TestRequireEngine(t *testing.T) {
	fake := enginetest.New(afero.NewMemMapFs())

	var buf bytes.Buffer
	if err := requireEngine(context.Background(), fake, engine.DefaultBinaries, &buf); err != nil {
		t.Fatalf("available engine: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}

	fake.Missing = true
	err := requireEngine(context.Background(), fake, engine.DefaultBinaries, &buf)
	var notInstalled *engine.NotInstalledError
	if !errors.As(err, &notInstalled) {
		t.Fatalf("err = %v, want NotInstalledError", err)
	}
	if !strings.HasPrefix(buf.String(), "Ghostscript is not installed.\n") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRunAuto_EngineMissing(t *testing.T) {
	prev := v
	v = config.NewViper()
	v.Set("engine.binaries", []string{"pdfp-no-such-binary"})
	t.Cleanup(func() { v = prev })

	dir := t.TempDir()
	in := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(in, []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := runAuto(context.Background(), in)
	var notInstalled *engine.NotInstalledError
	if !errors.As(err, &notInstalled) {
		t.Fatalf("err = %v, want NotInstalledError before any job", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a-pdfp.pdf")); !os.IsNotExist(err) {
		t.Error("no output should be allocated")
	}
}
