package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/evermore-health/vitalsync/internal/domain"
	"github.com/evermore-health/vitalsync/internal/metrics"
	"github.com/evermore-health/vitalsync/internal/platform/logger"
	"github.com/evermore-health/vitalsync/internal/store"
)

// DispatcherConfig holds the dispatcher loop tunables.
type DispatcherConfig struct {
	// PollInterval is how long a queue loop sleeps when no task is eligible.
	PollInterval time.Duration

	// ErrorBackoff is how long a queue loop sleeps after a handler failure
	// before its next claim attempt, to avoid tight failure loops.
	ErrorBackoff time.Duration

	// TaskTimeout bounds a single handler invocation so a wedged handler
	// fails its task instead of blocking the queue loop forever.
	TaskTimeout time.Duration
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		PollInterval: 5 * time.Second,
		ErrorBackoff: 30 * time.Second,
		TaskTimeout:  10 * time.Minute,
	}
}

// Dispatcher runs one independent polling loop per registered queue. Each
// loop claims the oldest eligible task, invokes the queue's handler, and
// records the outcome. Within a queue, processing is strictly sequential;
// across queues, loops run concurrently. Cross-process exclusivity comes
// entirely from the store's claim transaction.
//
// Dispatch is at-least-once: a FAILED task stays FAILED, and re-enqueueing
// it is the responsibility of whatever external actor watches FAILED rows.
type Dispatcher struct {
	store      store.TaskStore
	registry   *Registry
	config     DispatcherConfig
	logger     *slog.Logger
	clock      Clock
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc
	ctx        context.Context
}

// NewDispatcher creates a Dispatcher over the given store and registry.
// Zero-valued config fields fall back to the defaults.
func NewDispatcher(
	taskStore store.TaskStore,
	registry *Registry,
	config DispatcherConfig,
	log *slog.Logger,
) *Dispatcher {
	defaults := DefaultDispatcherConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = defaults.TaskTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		store:      taskStore,
		registry:   registry,
		config:     config,
		logger:     log,
		clock:      NewSystemClock(),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// SetClock replaces the dispatcher's clock. Intended for tests; call before
// Start.
func (d *Dispatcher) SetClock(clock Clock) {
	d.clock = clock
}

// Start launches one polling goroutine per registered queue.
func (d *Dispatcher) Start() {
	for _, queue := range d.registry.Queues() {
		handler, _ := d.registry.Handler(queue)

		d.wg.Add(1)
		go d.runQueue(queue, handler)
	}

	d.logger.Info("dispatcher started", "queues", d.registry.Queues())
}

// Stop halts all queue loops and blocks until they exit. The stop signal is
// checked between iterations only: an in-flight handler invocation is
// allowed to finish.
func (d *Dispatcher) Stop() {
	d.cancelFunc()
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}

// runQueue is one queue's claim-dispatch-record loop.
func (d *Dispatcher) runQueue(queue string, handler Handler) {
	defer d.wg.Done()

	log := d.logger.With("queue", queue)
	log.Debug("queue loop started")

	for {
		select {
		case <-d.ctx.Done():
			log.Debug("queue loop stopping")
			return
		default:
		}

		claimed, err := d.store.ClaimNext(d.ctx, queue)
		if err != nil {
			if errors.Is(err, store.ErrNoEligibleTask) {
				d.clock.Sleep(d.ctx, d.config.PollInterval)
				continue
			}
			if d.ctx.Err() != nil {
				return
			}

			log.Error("failed to claim task", "error", err)
			d.clock.Sleep(d.ctx, d.config.ErrorBackoff)
			continue
		}

		if err := d.processTask(claimed, handler, log); err != nil {
			d.clock.Sleep(d.ctx, d.config.ErrorBackoff)
		}
	}
}

// processTask invokes the handler for one claimed task and records a failed
// outcome if it errors. Successful handlers mark their own task SUCCEEDED so
// handler-specific status detail is preserved; the dispatcher only counts
// the success.
//
// The handler context is derived from the background context, not the
// dispatcher's: shutdown must let in-flight work finish, bounded by the
// per-task timeout.
func (d *Dispatcher) processTask(claimed *domain.Task, handler Handler, log *slog.Logger) error {
	taskLog := log.With(
		"task_id", claimed.ID,
		"task_name", claimed.TaskName,
		"attempt", claimed.AttemptCount+1,
	)

	ctx := logger.WithContext(context.Background(), taskLog)
	handlerCtx, cancel := context.WithTimeout(ctx, d.config.TaskTimeout)
	defer cancel()

	taskLog.Info("processing task")
	started := d.clock.Now()

	err := handler(handlerCtx, claimed.ID)
	if err != nil {
		taskLog.Error("task handler failed",
			"error", err,
			"duration", d.clock.Now().Sub(started))

		if markErr := d.store.MarkFailed(ctx, claimed.ID, err.Error()); markErr != nil {
			taskLog.Error("failed to mark task failed", "error", markErr)
		}

		metrics.TasksFailed.WithLabelValues(claimed.Queue).Inc()
		return err
	}

	taskLog.Info("task completed",
		"duration", d.clock.Now().Sub(started))
	metrics.TasksSucceeded.WithLabelValues(claimed.Queue).Inc()
	return nil
}
