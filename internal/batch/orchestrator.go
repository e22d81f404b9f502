package batch

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"pdfp-go/internal/compressor"
	"pdfp-go/internal/engine"
	"pdfp-go/internal/files"
	"pdfp-go/internal/logger"
	"pdfp-go/internal/progress"
	"pdfp-go/internal/settings"
	"pdfp-go/internal/statistics"
)

// EventKind distinguishes status transitions from progress updates.
type EventKind string

const (
	EventStatus   EventKind = "status"
	EventProgress EventKind = "progress"
)

// Event reports a change to one item. Item is a copy; its Result is shared
// and must be treated as read-only.
type Event struct {
	Kind    EventKind
	Index   int
	Item    Item
	Sample  progress.Sample // set for EventProgress
	Overall float64         // batch-wide percentage
}

// Orchestrator runs batches strictly one job at a time.
type Orchestrator struct {
	compressor compressor.Compressor
	logger     *logrus.Logger
	stats      *statistics.Statistics
}

// NewOrchestrator returns an Orchestrator delegating jobs to c. stats may be
// nil.
func NewOrchestrator(c compressor.Compressor, log *logrus.Logger, stats *statistics.Statistics) *Orchestrator {
	return &Orchestrator{
		compressor: c,
		logger:     log,
		stats:      stats,
	}
}

// Run validates the batch and processes every file in order, calling onEvent
// (which may be nil) for each status change and progress sample. A failed
// job does not stop the batch. Once ctx is cancelled no further job starts and
// remaining items are skipped; the job already running is left to finish.
func (o *Orchestrator) Run(ctx context.Context, in []files.FileInfo, s settings.CompressionSettings, onEvent func(Event)) (*Summary, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if onEvent == nil {
		onEvent = func(Event) {}
	}

	start := time.Now()
	items := NewItems(in)
	if o.stats != nil {
		o.stats.AddFilesFound(len(items))
	}
	o.logger.WithFields(logrus.Fields{
		"files":   len(items),
		"quality": s.Quality,
		"remove":  s.RemoveInputFile,
	}).Info("Starting batch")

	cancelled := false
	for i := range items {
		if ctx.Err() != nil {
			cancelled = true
			o.skipFrom(items, i, onEvent)
			break
		}
		o.runItem(ctx, items, i, s, onEvent)
	}

	summary := &Summary{
		Items:     items,
		Totals:    Summarize(items),
		Cancelled: cancelled,
		Duration:  time.Since(start),
	}
	o.logger.WithFields(logrus.Fields{
		"completed": summary.Totals.Completed,
		"failed":    summary.Totals.Failed,
		"skipped":   summary.Totals.Skipped,
		"saved":     summary.Totals.SavedBytes(),
		"cancelled": cancelled,
	}).Info("Batch finished")
	return summary, nil
}

func (o *Orchestrator) runItem(ctx context.Context, items []Item, i int, s settings.CompressionSettings, emit func(Event)) {
	item := &items[i]
	entry := logger.WithFile(o.logger, item.File.Path).WithField("item", item.ID)

	item.Status = StatusCompressing
	emit(newEvent(EventStatus, items, i))

	// The job outlives caller cancellation so no half-written output is left.
	jobCtx := context.WithoutCancel(ctx)
	res, err := o.compressor.Compress(jobCtx, item.File, s, func(sample progress.Sample) {
		item.Progress = sample.Percentage
		ev := newEvent(EventProgress, items, i)
		ev.Sample = sample
		emit(ev)
	})

	if err != nil {
		item.Status = StatusError
		item.Error = err.Error()
		item.Cause = err
		o.recordFailure(item, err)
		entry.WithError(err).Error("Compression failed")
	} else {
		item.Status = StatusCompleted
		item.Progress = progress.Complete
		item.Result = res
		if o.stats != nil {
			o.stats.RecordCompressed(res.InputSize, res.OutputSize, res.AlreadyOptimized, res.InputFileRemoved, res.TargetSizeMissed)
		}
		entry.WithField("saved_bytes", res.SavedBytes).Debug("Item completed")
	}
	emit(newEvent(EventStatus, items, i))
}

func (o *Orchestrator) recordFailure(item *Item, err error) {
	if o.stats == nil {
		return
	}
	o.stats.IncrementFilesFailed()
	op := "compress"
	var nie *engine.NotInstalledError
	if errors.As(err, &nie) {
		op = "engine_missing"
	}
	o.stats.AddError(item.File.Path, op, err.Error())
}

func (o *Orchestrator) skipFrom(items []Item, from int, emit func(Event)) {
	o.logger.WithField("remaining", len(items)-from).Warn("Batch cancelled, skipping remaining files")
	for i := from; i < len(items); i++ {
		items[i].Status = StatusSkipped
		if o.stats != nil {
			o.stats.IncrementFilesSkipped()
		}
		emit(newEvent(EventStatus, items, i))
	}
}

func newEvent(kind EventKind, items []Item, i int) Event {
	return Event{
		Kind:    kind,
		Index:   i,
		Item:    items[i],
		Overall: overall(items, i),
	}
}

// overall assumes every item before i is finished.
func overall(items []Item, i int) float64 {
	if len(items) == 0 {
		return 0
	}
	cur := items[i].Progress
	if items[i].Status.Terminal() {
		cur = progress.Complete
	}
	return (float64(i)*progress.Complete + cur) / float64(len(items))
}

// Handle controls a batch started with Start.
type Handle struct {
	events  chan Event
	cancel  context.CancelFunc
	done    chan struct{}
	summary *Summary
	err     error
}

// progressSlack bounds how many unread progress events a Handle buffers.
const progressSlack = 64

// Start runs the batch in the background. Validation errors are returned
// immediately. Status events are never dropped; progress events are dropped
// when the consumer falls behind. Events is closed when the batch ends.
func (o *Orchestrator) Start(ctx context.Context, in []files.FileInfo, s settings.CompressionSettings) (*Handle, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	// At most two status events per item plus the progress slack.
	h := &Handle{
		events: make(chan Event, 2*len(in)+progressSlack),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer close(h.events)
		defer cancel()
		h.summary, h.err = o.Run(ctx, in, s, h.deliver)
	}()
	return h, nil
}

func (h *Handle) deliver(ev Event) {
	if ev.Kind == EventStatus {
		h.events <- ev
		return
	}
	if len(h.events) >= progressSlack {
		return
	}
	select {
	case h.events <- ev:
	default:
	}
}

// Events streams item updates in order.
func (h *Handle) Events() <-chan Event {
	return h.events
}

// Cancel stops the batch after the running job finishes.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed when the batch has ended.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the batch ends and returns its summary.
func (h *Handle) Wait() (*Summary, error) {
	<-h.done
	return h.summary, h.err
}
