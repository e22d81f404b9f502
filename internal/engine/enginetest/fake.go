// Package enginetest provides a scriptable engine for tests of code that
// drives compression jobs.
package enginetest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"pdfp-go/internal/engine"
)

// Behavior scripts how the fake answers one request.
type Behavior struct {
	ExitCode   int
	Signal     string        // report the process as killed by this signal
	OutputSize int64         // bytes written to the output path
	NoOutput   bool          // skip writing the output file
	Delay      time.Duration // time before the process "exits"
}

// Fake is an engine.Engine that writes files to FS instead of running a
// process. Behaviors are looked up by input base name, then Default.
type Fake struct {
	FS        afero.Fs
	Missing   bool
	Default   Behavior
	ByName    map[string]Behavior
	OnRequest func(engine.Request)

	mu       sync.Mutex
	requests []engine.Request
}

// New returns a Fake writing to fs whose default run succeeds with a
// 100-byte output.
func New(fs afero.Fs) *Fake {
	return &Fake{
		FS:      fs,
		Default: Behavior{OutputSize: 100},
		ByName:  make(map[string]Behavior),
	}
}

// Requests returns the requests received so far, in order.
func (f *Fake) Requests() []engine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Request(nil), f.requests...)
}

// Available implements engine.Engine.
func (f *Fake) Available(context.Context) bool {
	return !f.Missing
}

// Compress implements engine.Engine.
func (f *Fake) Compress(ctx context.Context, req engine.Request) (engine.ExitStatus, error) {
	if f.Missing {
		return engine.ExitStatus{}, &engine.NotInstalledError{
			Candidates: engine.DefaultBinaries,
			Err:        errors.New("executable file not found in $PATH"),
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	b, ok := f.ByName[filepath.Base(req.InputPath)]
	if !ok {
		b = f.Default
	}
	f.mu.Unlock()

	if f.OnRequest != nil {
		f.OnRequest(req)
	}

	if b.Delay > 0 {
		timer := time.NewTimer(b.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return engine.ExitStatus{Code: -1, TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded)}, nil
		}
	}

	if !b.NoOutput {
		if err := afero.WriteFile(f.FS, req.OutputPath, make([]byte, b.OutputSize), 0o644); err != nil {
			return engine.ExitStatus{Code: 1, Stderr: err.Error()}, nil
		}
	}
	if b.Signal != "" {
		return engine.ExitStatus{Code: -1, Signal: b.Signal}, nil
	}
	return engine.ExitStatus{Code: b.ExitCode}, nil
}
