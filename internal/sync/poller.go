// Package sync runs background refresh work on a fixed interval for as long
// as its owner is alive.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/nhle/hospital-admin/internal/logger"
)

// defaultRunTimeout is the maximum time allowed for a single run.
const defaultRunTimeout = 30 * time.Second

// ErrStopped is returned by Start once the poller has been stopped.
var ErrStopped = errors.New("poller stopped")

// Task is one unit of polled work. ctx is cancelled when the run times out
// or the poller stops.
type Task func(ctx context.Context)

// Option configures a Poller.
type Option func(*Poller)

// WithRunTimeout bounds each run. The default is 30s.
func WithRunTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.runTimeout = d
		}
	}
}

// Poller runs a task immediately on Start and then every interval until
// Stop. Runs never overlap: a run still in progress when the next one is
// due pushes that one back.
type Poller struct {
	interval   time.Duration
	runTimeout time.Duration
	task       Task

	mu        gosync.Mutex
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	stopped   bool
}

// New creates a poller. It does nothing until Start.
func New(interval time.Duration, task Task, opts ...Option) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		interval:   interval,
		runTimeout: defaultRunTimeout,
		task:       task,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start schedules the task. Calling Start on a running poller is a no-op.
func (p *Poller) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.running {
		return nil
	}
	if p.interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.interval)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(p.run),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("scheduling poll job: %w", err)
	}

	scheduler.Start()
	p.scheduler = scheduler
	p.running = true

	logger.Debugf("poller started, interval %s", p.interval)
	return nil
}

// Stop cancels any in-flight run and shuts the scheduler down. It is
// idempotent and terminal: a stopped poller cannot be restarted.
func (p *Poller) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.running = false
	scheduler := p.scheduler
	p.scheduler = nil
	p.mu.Unlock()

	p.cancel()

	if scheduler == nil {
		return nil
	}
	if err := scheduler.Shutdown(); err != nil {
		return fmt.Errorf("shutting down scheduler: %w", err)
	}

	logger.Debugf("poller stopped")
	return nil
}

// Running reports whether the poller has been started and not stopped.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// run executes one poll under the per-run timeout.
func (p *Poller) run() {
	if p.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.runTimeout)
	defer cancel()

	p.task(ctx)
}
