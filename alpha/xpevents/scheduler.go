package xpevents

import (
	"context"
	"log/slog"
	"time"

	"github.com/scottbucher/Alpha-sub000/alpha/logger"
)

// Scheduler drives the event lifecycle tick and the weekly generator on
// their own timers. Runs never overlap within one loop; each run gets its
// own timeout context.
type Scheduler struct {
	lifecycle *Lifecycle
	generator *Generator

	tickInterval     time.Duration
	generateInterval time.Duration
	runTimeout       time.Duration
	shutdown         chan struct{}
}

func NewScheduler(lifecycle *Lifecycle, generator *Generator, tickInterval, generateInterval time.Duration) *Scheduler {
	return &Scheduler{
		lifecycle:        lifecycle,
		generator:        generator,
		tickInterval:     tickInterval,
		generateInterval: generateInterval,
		runTimeout:       5 * time.Minute,
		shutdown:         make(chan struct{}),
	}
}

// Start launches both loops. The generator also runs once immediately so
// a fresh deploy plans its weekends without waiting a full interval.
func (s *Scheduler) Start() {
	go s.tickLoop()
	go s.generateLoop()
}

func (s *Scheduler) tickLoop() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce("event_lifecycle", s.lifecycle.Tick)
		case <-s.shutdown:
			return
		}
	}
}

func (s *Scheduler) generateLoop() {
	s.runOnce("event_generator", s.generator.Run)

	ticker := time.NewTicker(s.generateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce("event_generator", s.generator.Run)
		case <-s.shutdown:
			return
		}
	}
}

func (s *Scheduler) runOnce(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	start := time.Now()
	err := run(ctx)
	if err != nil {
		logger.LogJob(name, time.Since(start), err)
		return
	}
	slog.Debug("Job completed",
		slog.String("type", "sys"),
		slog.String("job", name),
		slog.Duration("took", time.Since(start)))
}

// Shutdown stops both loops; an in-flight run finishes on its own.
func (s *Scheduler) Shutdown() {
	close(s.shutdown)
	slog.Info("Event scheduler shutdown completed")
}
