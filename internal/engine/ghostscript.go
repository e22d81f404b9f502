package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Ghostscript runs the gs binary as a child process.
type Ghostscript struct {
	candidates []string
	log        *logrus.Logger

	mu     sync.Mutex
	binary string
}

// NewGhostscript returns an engine that probes candidates in order. An empty
// list falls back to DefaultBinaries.
func NewGhostscript(candidates []string, log *logrus.Logger) *Ghostscript {
	if len(candidates) == 0 {
		candidates = DefaultBinaries
	}
	return &Ghostscript{
		candidates: append([]string(nil), candidates...),
		log:        log,
	}
}

// Locate returns the first candidate that answers a version query. The
// result is remembered for later calls.
func (g *Ghostscript) Locate(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.binary != "" {
		return g.binary, nil
	}

	var lastErr error
	for _, name := range g.candidates {
		if _, err := g.version(ctx, name); err != nil {
			g.log.Debugf("engine candidate %s unavailable: %v", name, err)
			lastErr = err
			continue
		}
		g.binary = name
		return name, nil
	}
	return "", &NotInstalledError{Candidates: g.candidates, Err: lastErr}
}

// Available implements Engine.
func (g *Ghostscript) Available(ctx context.Context) bool {
	_, err := g.Locate(ctx)
	return err == nil
}

// Version returns the version string of the located binary.
func (g *Ghostscript) Version(ctx context.Context) (string, error) {
	bin, err := g.Locate(ctx)
	if err != nil {
		return "", err
	}
	return g.version(ctx, bin)
}

func (g *Ghostscript) version(ctx context.Context, name string) (string, error) {
	out, err := exec.CommandContext(ctx, name, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Compress implements Engine.
func (g *Ghostscript) Compress(ctx context.Context, req Request) (ExitStatus, error) {
	bin, err := g.Locate(ctx)
	if err != nil {
		return ExitStatus{}, err
	}

	args := Args(req)
	g.log.WithFields(logrus.Fields{
		"binary": bin,
		"args":   strings.Join(args, " "),
	}).Debug("Starting engine")

	cmd := exec.CommandContext(ctx, bin, args...)
	detach(cmd)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err = cmd.Run()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ExitStatus{Code: -1, TimedOut: true, Stderr: output.String()}, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return ExitStatus{Code: 0, Stderr: output.String()}, nil
	case errors.As(err, &exitErr):
		return ExitStatus{
			Code:   exitErr.ExitCode(),
			Signal: signalName(exitErr.ProcessState),
			Stderr: output.String(),
		}, nil
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ExitStatus{}, &NotInstalledError{Candidates: []string{bin}, Err: err}
	default:
		return ExitStatus{}, &ExecutionError{ExitCode: -1, Reason: ReasonStart, Err: fmt.Errorf("%s: %w", bin, err)}
	}
}
