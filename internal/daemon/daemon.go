// Package daemon runs docpipe as a long-lived service: an HTTP endpoint
// receives push events and enqueues pipeline runs, a worker executes them
// strictly one at a time, and optional periodic rebuilds plus config
// hot-reload keep the service current.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/docpipe/internal/config"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/pipeline"
)

// Executor runs one pipeline run. *pipeline.Runner satisfies it.
type Executor interface {
	Execute(ctx context.Context, trigger pipeline.Trigger) (*pipeline.Report, error)
}

// ExecutorFactory builds an executor for a (possibly reloaded) config.
type ExecutorFactory func(cfg *config.Config) Executor

// Daemon wires the webhook server, run queue, scheduler, and config watcher.
type Daemon struct {
	mu         sync.RWMutex
	cfg        *config.Config
	executor   Executor
	factory    ExecutorFactory
	configPath string

	queue     chan pipeline.Trigger
	server    *http.Server
	scheduler *Scheduler
	watcher   *ConfigWatcher

	metricsHandler http.Handler // optional /metrics endpoint
}

// New creates a daemon. configPath may be empty to disable hot-reload.
func New(cfg *config.Config, configPath string, factory ExecutorFactory) *Daemon {
	return &Daemon{
		cfg:        cfg,
		executor:   factory(cfg),
		factory:    factory,
		configPath: configPath,
		queue:      make(chan pipeline.Trigger, cfg.Daemon.QueueSize),
	}
}

// WithMetricsHandler exposes the given handler on /metrics.
func (d *Daemon) WithMetricsHandler(h http.Handler) *Daemon {
	d.metricsHandler = h
	return d
}

// Start runs the daemon until ctx is canceled or a component fails fatally.
func (d *Daemon) Start(ctx context.Context) error {
	cfg := d.config()

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Daemon.WebhookPath, d.handlePush)
	mux.HandleFunc("/healthz", d.handleHealthz)
	if cfg.Daemon.Metrics && d.metricsHandler != nil {
		mux.Handle("/metrics", d.metricsHandler)
	}

	d.server = &http.Server{
		Addr:         cfg.Daemon.Listen,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if interval := cfg.RebuildInterval(); interval > 0 {
		scheduler, err := NewScheduler(d, interval)
		if err != nil {
			return err
		}
		d.scheduler = scheduler
		d.scheduler.Start()
	}

	if d.configPath != "" {
		watcher, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			return err
		}
		d.watcher = watcher
		if err := watcher.Start(ctx); err != nil {
			return err
		}
	}

	go d.workLoop(ctx)

	slog.Info("Daemon listening",
		slog.String("addr", cfg.Daemon.Listen),
		logfields.Path(cfg.Daemon.WebhookPath))
	if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}

// Stop shuts the daemon down gracefully.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			slog.Warn("Failed to stop scheduler", logfields.Error(err))
		}
	}
	if d.server != nil {
		if err := d.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown webhook server: %w", err)
		}
	}
	return nil
}

// workLoop executes queued runs strictly one at a time. Cross-run races on
// the publish branch are arbitrated by the remote's push semantics, not here.
func (d *Daemon) workLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-d.queue:
			report, err := d.currentExecutor().Execute(ctx, trigger)
			if err != nil {
				slog.Error("Queued run failed", logfields.Branch(trigger.Branch), logfields.Error(err))
				continue
			}
			slog.Info("Queued run complete",
				logfields.RunID(report.RunID),
				logfields.Branch(trigger.Branch),
				logfields.Outcome(string(report.PublishOutcome)))
		}
	}
}

// enqueue adds a trigger to the run queue without blocking.
func (d *Daemon) enqueue(trigger pipeline.Trigger) bool {
	select {
	case d.queue <- trigger:
		return true
	default:
		return false
	}
}

func (d *Daemon) config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

func (d *Daemon) currentExecutor() Executor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.executor
}

// reload swaps in a freshly loaded configuration and rebuilds the executor.
// Listen address and webhook path changes require a restart and are ignored.
func (d *Daemon) reload(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	d.executor = d.factory(cfg)
	slog.Info("Configuration reloaded", slog.Int("triggers", len(cfg.Source.Triggers)))
}
