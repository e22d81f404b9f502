// Package engine wraps the external program that rewrites PDF bytes. The
// engine reports no progress; a job only sees a spawn request and the exit
// status that answers it.
package engine

import (
	"context"
	"fmt"
	"strings"
)

// DefaultCompatibilityLevel is the PDF version written by the engine.
const DefaultCompatibilityLevel = "1.4"

// DefaultBinaries are probed in order when locating the engine.
var DefaultBinaries = []string{"gs", "gsc"}

// Request describes one compression run.
type Request struct {
	InputPath          string
	OutputPath         string
	Profile            string // PDFSETTINGS token, e.g. "/ebook"
	CompatibilityLevel string
}

// ExitStatus is the engine's answer to a Request once the process has exited.
type ExitStatus struct {
	Code     int
	TimedOut bool
	Signal   string // set when the process was killed by a signal
	Stderr   string
}

// Success reports whether the run exited cleanly.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && !s.TimedOut && s.Signal == ""
}

// Engine runs compression requests.
type Engine interface {
	// Available reports whether the engine binary can be found and started.
	Available(ctx context.Context) bool
	// Compress blocks until the engine process exits. A returned error means
	// the process could not be run at all; a non-zero exit is reported in
	// ExitStatus.
	Compress(ctx context.Context, req Request) (ExitStatus, error)
}

// Args builds the engine command line for req, without the binary name.
func Args(req Request) []string {
	level := req.CompatibilityLevel
	if level == "" {
		level = DefaultCompatibilityLevel
	}
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=" + level,
		"-dPDFSETTINGS=" + req.Profile,
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-sOutputFile=" + req.OutputPath,
		req.InputPath,
	}
}

// Reason classifies an ExecutionError.
type Reason string

const (
	ReasonExit        Reason = "exit"
	ReasonTimedOut    Reason = "timed out"
	ReasonEmptyOutput Reason = "empty output"
	ReasonKilled      Reason = "killed"
	ReasonStart       Reason = "start failed"
)

// NotInstalledError is returned when no engine binary can be started.
type NotInstalledError struct {
	Candidates []string
	Err        error
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("Ghostscript is not installed (tried %s). Please install Ghostscript first",
		strings.Join(e.Candidates, ", "))
}

func (e *NotInstalledError) Unwrap() error {
	return e.Err
}

// ExecutionError is returned when the engine ran but did not produce a
// usable file.
type ExecutionError struct {
	ExitCode int
	Reason   Reason
	Signal   string
	Stderr   string
	Err      error
}

func (e *ExecutionError) Error() string {
	switch e.Reason {
	case ReasonTimedOut:
		return "Ghostscript timed out"
	case ReasonEmptyOutput:
		return "Ghostscript produced an empty file"
	case ReasonKilled:
		return fmt.Sprintf("Ghostscript was killed by signal %s", e.Signal)
	case ReasonStart:
		return fmt.Sprintf("Ghostscript could not be started: %v", e.Err)
	default:
		return fmt.Sprintf("Ghostscript exited with code %d", e.ExitCode)
	}
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// InstallInstructions returns the install hint for an operating system as
// reported by runtime.GOOS.
func InstallInstructions(goos string) string {
	switch goos {
	case "darwin":
		return "brew install ghostscript"
	case "linux":
		return "sudo apt-get install ghostscript  (or)  sudo yum install ghostscript"
	case "windows":
		return "Download from https://www.ghostscript.com/download/gsdnld.html"
	default:
		return "Visit https://www.ghostscript.com/download/gsdnld.html"
	}
}
