// Package progress produces synthetic progress for jobs whose engine reports
// none. Percentages never decrease, stay at or below RunningCap while the job
// runs, and end with a single Complete sample.
package progress

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	RunningCap = 90.0
	Complete   = 100.0
)

// Sample is a point-in-time progress report for one job.
type Sample struct {
	Percentage float64
	Elapsed    time.Duration
	Estimated  time.Duration // remaining time guess; zero when unknown
}

// NewSample builds a sample and guesses the remaining time from the
// elapsed time and percentage.
func NewSample(pct float64, elapsed time.Duration) Sample {
	s := Sample{Percentage: pct, Elapsed: elapsed}
	if pct > 0 && pct < Complete {
		s.Estimated = time.Duration(float64(elapsed) * (Complete - pct) / pct)
	}
	return s
}

// Generator yields the increment applied on each tick.
type Generator interface {
	Step() float64
}

// Strategy creates a fresh Generator for every job.
type Strategy interface {
	New() Generator
}

// Random advances by a uniformly random amount in [0, MaxStep).
type Random struct {
	MaxStep float64
}

// New implements Strategy.
func (r Random) New() Generator {
	return randomGen{max: r.MaxStep}
}

type randomGen struct{ max float64 }

func (g randomGen) Step() float64 {
	return rand.Float64() * g.max
}

// Linear advances by a fixed amount per tick.
type Linear struct {
	Step float64
}

// New implements Strategy.
func (l Linear) New() Generator {
	return linearGen{step: l.Step}
}

type linearGen struct{ step float64 }

func (g linearGen) Step() float64 {
	return g.step
}

// FromName maps a configured strategy name to a Strategy.
func FromName(name string, maxStep float64) (Strategy, error) {
	switch name {
	case "", "random":
		return Random{MaxStep: maxStep}, nil
	case "linear":
		return Linear{Step: maxStep / 2}, nil
	default:
		return nil, fmt.Errorf("unknown progress strategy %q (valid: random, linear)", name)
	}
}

// Advance applies step to current, clamped to [current, RunningCap].
func Advance(current, step float64) float64 {
	if step < 0 {
		step = 0
	}
	next := current + step
	if next > RunningCap {
		next = RunningCap
	}
	if next < current {
		return current
	}
	return next
}

// Emit calls emit on every tick of interval until done is closed. Samples are
// delivered from the calling goroutine, one at a time.
func Emit(done <-chan struct{}, interval time.Duration, gen Generator, start time.Time, emit func(Sample)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pct float64
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			select {
			case <-done:
				return
			default:
			}
			pct = Advance(pct, gen.Step())
			emit(NewSample(pct, time.Since(start)))
		}
	}
}

// Final returns the completion sample sent once the engine has exited.
func Final(start time.Time) Sample {
	return Sample{Percentage: Complete, Elapsed: time.Since(start)}
}
