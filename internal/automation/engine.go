package automation

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cfranzen/jobmate/pkg/logger"
	"github.com/cfranzen/jobmate/pkg/metrics"
)

const defaultSchedule = "@every 6h"

// Engine owns the periodic timer for the scheduler. There is exactly one
// authoritative timer per process; manual runs triggered through the API use
// the same Scheduler, so the cooldown gate sees every candidate regardless of
// who triggered it.
type Engine struct {
	scheduler *Scheduler
	cron      *cron.Cron
	schedule  string
	timeout   time.Duration
	log       *zap.Logger
}

// EngineOption customises the Engine.
type EngineOption func(*Engine)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for periodic runs.
func WithSchedule(spec string) EngineOption {
	return func(e *Engine) {
		if spec != "" {
			e.schedule = spec
		}
	}
}

// WithRunTimeout bounds the duration of one periodic pass.
func WithRunTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine constructs an Engine around the supplied scheduler.
func NewEngine(scheduler *Scheduler, opts ...EngineOption) (*Engine, error) {
	if scheduler == nil {
		return nil, errors.New("engine: scheduler is required")
	}

	engine := &Engine{
		scheduler: scheduler,
		schedule:  defaultSchedule,
		timeout:   10 * time.Minute,
		log:       logger.WithModule("automation"),
	}

	for _, opt := range opts {
		opt(engine)
	}

	if engine.cron == nil {
		engine.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return engine, nil
}

// Start registers the periodic run and launches the timer.
func (e *Engine) Start() error {
	if _, err := e.cron.AddFunc(e.schedule, e.runOnce); err != nil {
		return err
	}
	e.cron.Start()
	e.log.Info("automation engine started", zap.String("schedule", e.schedule))
	return nil
}

// Stop halts the timer, returning a context that completes once any running
// pass has finished.
func (e *Engine) Stop() context.Context {
	return e.cron.Stop()
}

func (e *Engine) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	stats, err := e.scheduler.RunAll(ctx)
	if err != nil {
		metrics.SchedulerRuns.WithLabelValues("timer", "error").Inc()
		e.log.Warn("periodic scheduler run failed", zap.Error(err))
		return
	}

	metrics.SchedulerRuns.WithLabelValues("timer", "ok").Inc()
	e.log.Info("periodic scheduler run finished",
		zap.Int("evaluated", stats.Evaluated),
		zap.Int("created", stats.Created),
		zap.Int("suppressed", stats.Suppressed),
		zap.Int("failed", stats.Failed),
	)
}
