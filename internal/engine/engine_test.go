package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"pdfp-go/internal/pdftest"
)

const fakeGhostscript = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo 10.02.1
  exit 0
fi
if [ -n "$FAKE_GS_STARTED" ]; then
  : > "$FAKE_GS_STARTED"
fi
if [ -n "$FAKE_GS_SIGNAL" ]; then
  kill -"$FAKE_GS_SIGNAL" $$
fi
if [ -n "$FAKE_GS_SLEEP" ]; then
  exec sleep "$FAKE_GS_SLEEP"
fi
if [ -n "$FAKE_GS_DELAY" ]; then
  sleep "$FAKE_GS_DELAY"
fi
for a in "$@"; do
  case "$a" in
    -sOutputFile=*) out="${a#-sOutputFile=}" ;;
  esac
done
printf '%%PDF-1.4 compressed' > "$out"
exit ${FAKE_GS_EXIT:-0}
`

func writeFakeBinary(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script engine stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fakegs")
	if err := os.WriteFile(path, []byte(fakeGhostscript), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func TestArgs(t *testing.T) {
	got := Args(Request{
		InputPath:  "/in/a.pdf",
		OutputPath: "/in/a-pdfp.pdf",
		Profile:    "/ebook",
	})
	want := []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=/ebook",
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=/in/a-pdfp.pdf",
		"/in/a.pdf",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v\nwant %v", got, want)
	}
}

func TestArgs_CompatibilityLevelOverride(t *testing.T) {
	got := Args(Request{Profile: "/screen", CompatibilityLevel: "1.7"})
	if got[1] != "-dCompatibilityLevel=1.7" {
		t.Errorf("got %q", got[1])
	}
}

func TestInstallInstructions(t *testing.T) {
	if !strings.Contains(InstallInstructions("darwin"), "brew") {
		t.Error("darwin should suggest brew")
	}
	if !strings.Contains(InstallInstructions("linux"), "apt-get") {
		t.Error("linux should suggest apt-get")
	}
	if !strings.Contains(InstallInstructions("windows"), "ghostscript.com") {
		t.Error("windows should point to the download page")
	}
	if !strings.Contains(InstallInstructions("plan9"), "ghostscript.com") {
		t.Error("unknown platforms should point to the download page")
	}
}

func TestErrorMessages(t *testing.T) {
	e := &ExecutionError{ExitCode: 1, Reason: ReasonExit}
	if e.Error() != "Ghostscript exited with code 1" {
		t.Errorf("got %q", e.Error())
	}
	if (&ExecutionError{Reason: ReasonTimedOut}).Error() != "Ghostscript timed out" {
		t.Error("timed out message")
	}
	if (&ExecutionError{Reason: ReasonKilled, Signal: "interrupt"}).Error() != "Ghostscript was killed by signal interrupt" {
		t.Error("killed message")
	}
	start := &ExecutionError{Reason: ReasonStart, Err: fs.ErrPermission}
	if !errors.Is(start, fs.ErrPermission) || !strings.Contains(start.Error(), "could not be started") {
		t.Errorf("start failure = %q", start.Error())
	}
	ni := &NotInstalledError{Candidates: []string{"gs", "gsc"}}
	if !strings.Contains(ni.Error(), "gs, gsc") {
		t.Errorf("got %q", ni.Error())
	}
}

func TestGhostscript_NotInstalled(t *testing.T) {
	gs := NewGhostscript([]string{"pdfp-no-such-binary-1", "pdfp-no-such-binary-2"}, quietLogger())
	if gs.Available(context.Background()) {
		t.Fatal("Available() = true for missing binaries")
	}
	_, err := gs.Compress(context.Background(), Request{Profile: "/ebook"})
	var notInstalled *NotInstalledError
	if !errors.As(err, &notInstalled) {
		t.Fatalf("got %v, want NotInstalledError", err)
	}
	if len(notInstalled.Candidates) != 2 {
		t.Errorf("candidates = %v", notInstalled.Candidates)
	}
}

func TestGhostscript_PrefersFirstResponding(t *testing.T) {
	bin := writeFakeBinary(t)
	gs := NewGhostscript([]string{"pdfp-no-such-binary", bin}, quietLogger())

	got, err := gs.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != bin {
		t.Errorf("Locate = %q, want %q", got, bin)
	}
	v, err := gs.Version(context.Background())
	if err != nil || v != "10.02.1" {
		t.Errorf("Version = %q, %v", v, err)
	}
}

func TestGhostscript_CompressSuccess(t *testing.T) {
	bin := writeFakeBinary(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "a-pdfp.pdf")

	status, err := NewGhostscript([]string{bin}, quietLogger()).Compress(context.Background(), Request{
		InputPath:  filepath.Join(dir, "a.pdf"),
		OutputPath: out,
		Profile:    "/ebook",
	})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !status.Success() {
		t.Fatalf("status = %+v", status)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestGhostscript_NonZeroExit(t *testing.T) {
	bin := writeFakeBinary(t)
	t.Setenv("FAKE_GS_EXIT", "3")

	status, err := NewGhostscript([]string{bin}, quietLogger()).Compress(context.Background(), Request{
		InputPath:  "/dev/null",
		OutputPath: filepath.Join(t.TempDir(), "out.pdf"),
		Profile:    "/screen",
	})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if status.Code != 3 || status.Success() {
		t.Errorf("status = %+v, want code 3", status)
	}
}

func TestGhostscript_Timeout(t *testing.T) {
	bin := writeFakeBinary(t)
	gs := NewGhostscript([]string{bin}, quietLogger())
	if _, err := gs.Locate(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FAKE_GS_SLEEP", "5")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	status, err := gs.Compress(ctx, Request{
		InputPath:  "/dev/null",
		OutputPath: filepath.Join(t.TempDir(), "out.pdf"),
		Profile:    "/screen",
	})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !status.TimedOut || status.Success() {
		t.Errorf("status = %+v, want timed out", status)
	}
}

func TestGhostscript_RealBinary(t *testing.T) {
	g := NewGhostscript(nil, quietLogger())
	if !g.Available(context.Background()) {
		t.Skip("Ghostscript not installed")
	}
	dir := t.TempDir()
	in := pdftest.Write(t, dir, "input.pdf", pdftest.Doc{Pages: 2, Title: "Engine"})
	out := filepath.Join(dir, "input-pdfp.pdf")

	status, err := g.Compress(context.Background(), Request{
		InputPath:  in,
		OutputPath: out,
		Profile:    "/screen",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !status.Success() {
		t.Fatalf("status = %+v", status)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty output")
	}
}
