// Package telemetry publishes control loop snapshots off the loop's goroutine. The loop hands
// snapshots to a Worker without blocking and the Worker sends them to a Publisher: MQTT, HTTP or
// nowhere.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/speedctl/runner"
)

// Sample is the published form of a runner.Snapshot
type Sample struct {
	Cycle uint64    `json:"cycle"`
	Time  time.Time `json:"time"`

	Label         string `json:"label"`
	Target        string `json:"target"`
	Setpoint      int    `json:"setpoint"`
	EmergencyStop bool   `json:"emergency_stop"`

	Duty      int `json:"duty"`
	Frequency int `json:"frequency"`

	Filtered int    `json:"filtered"`
	Error    int    `json:"error"`
	Action   string `json:"action"`
}

// NewSample converts a snapshot
func NewSample(s runner.Snapshot) Sample {
	return Sample{
		Cycle:         s.Cycle,
		Time:          s.Time,
		Label:         s.Label,
		Target:        s.TargetLabel,
		Setpoint:      s.Setpoint,
		EmergencyStop: s.EmergencyStop,
		Duty:          s.Duty,
		Frequency:     s.Frequency,
		Filtered:      s.Filtered,
		Error:         s.Error,
		Action:        s.Action.String(),
	}
}

// Publisher sends samples somewhere
type Publisher interface {
	Publish(context.Context, Sample) error
	Close() error
}

// Nop discards every sample
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) Publish(context.Context, Sample) error { return nil }
func (Nop) Close() error                          { return nil }

// Worker queues snapshots from the control loop and publishes them in its own goroutine
type Worker struct {
	pub    Publisher
	every  uint64
	queue  chan Sample
	logger *slog.Logger

	dropped atomic.Uint64
}

// NewWorker creates a Worker publishing every nth snapshot. Snapshots that arrive while the queue
// is full are dropped.
func NewWorker(pub Publisher, every uint64, logger *slog.Logger) *Worker {
	if every == 0 {
		every = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Worker{
		pub:    pub,
		every:  every,
		queue:  make(chan Sample, 64),
		logger: logger,
	}
}

// Observe is a runner observer. It never blocks the loop.
func (w *Worker) Observe(s runner.Snapshot) {
	if s.Cycle%w.every != 0 {
		return
	}

	select {
	case w.queue <- NewSample(s):
	default:
		w.dropped.Add(1)
	}
}

// Dropped is the number of samples discarded because the queue was full
func (w *Worker) Dropped() uint64 {
	return w.dropped.Load()
}

// Run publishes queued samples until ctx is done, then closes the publisher
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("telemetry worker started")
	defer func() {
		err := w.pub.Close()
		if err != nil {
			w.logger.Error("error closing publisher", "error", err)
		}
		w.logger.Info("telemetry worker stopped", "dropped", w.Dropped())
	}()

	for {
		select {
		case s := <-w.queue:
			err := w.pub.Publish(ctx, s)
			if err != nil {
				w.logger.Warn("failed to publish sample", "cycle", s.Cycle, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
