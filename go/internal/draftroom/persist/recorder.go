// Package persist drains engine events into durable storage. The engine
// publishes from inside a room's critical section, so the sink here only
// buffers; a background goroutine applies envelopes to Postgres in publish
// order with bounded retries.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/draftroom/store"
)

// EventStore applies one envelope durably. store.Store implements it.
type EventStore interface {
	ApplyEnvelope(ctx context.Context, env events.Envelope) error
}

// Config tunes the recorder.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration

	// StopFlushTimeout bounds the final drain on Stop.
	StopFlushTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       3,
		RetryDelay:       time.Second,
		StopFlushTimeout: 5 * time.Second,
	}
}

// Recorder implements engine.EventSink. Enqueue never blocks; envelopes
// queue in memory until the background goroutine lands them.
type Recorder struct {
	store  EventStore
	config Config
	logger *slog.Logger

	mu      sync.Mutex
	pending []events.Envelope
	running bool

	notify   chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRecorder wires a recorder. Call Start before attaching it to an
// engine.
func NewRecorder(st EventStore, cfg Config, logger *slog.Logger) *Recorder {
	def := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.StopFlushTimeout <= 0 {
		cfg.StopFlushTimeout = def.StopFlushTimeout
	}
	return &Recorder{
		store:    st,
		config:   cfg,
		logger:   logger,
		notify:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
}

// Enqueue implements engine.EventSink.
func (r *Recorder) Enqueue(env events.Envelope) {
	r.mu.Lock()
	r.pending = append(r.pending, env)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Start launches the background applier.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("persist recorder already running")
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx)

	r.logger.Info("persist recorder started",
		slog.Int("max_retries", r.config.MaxRetries),
		slog.Duration("retry_delay", r.config.RetryDelay))
	return nil
}

// Stop flushes queued envelopes within StopFlushTimeout and halts the
// applier.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("persist recorder not running")
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)
	r.wg.Wait()

	r.logger.Info("persist recorder stopped")
	return nil
}

func (r *Recorder) run(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopChan:
			// The serving context is usually gone by now; flush on a
			// fresh one so queued picks still land.
			flushCtx, cancel := context.WithTimeout(context.Background(), r.config.StopFlushTimeout)
			r.drain(flushCtx)
			cancel()
			return
		case <-r.notify:
			r.drain(ctx)
		}
	}
}

// drain applies everything queued, in order. Envelopes that still fail
// after retries are dropped with an error log so one poison event cannot
// wedge the stream behind it.
func (r *Recorder) drain(ctx context.Context) {
	for {
		r.mu.Lock()
		if len(r.pending) == 0 {
			r.mu.Unlock()
			return
		}
		batch := r.pending
		r.pending = nil
		r.mu.Unlock()

		for _, env := range batch {
			if err := r.applyWithRetry(ctx, env); err != nil {
				r.logger.Error("dropping event after retries",
					slog.String("event_id", env.EventID.String()),
					slog.String("event_type", string(env.Type)),
					slog.String("room_id", env.RoomID.String()),
					slog.Uint64("seq", env.Seq),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (r *Recorder) applyWithRetry(ctx context.Context, env events.Envelope) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		err := r.store.ApplyEnvelope(ctx, env)
		if err == nil {
			return nil
		}
		if errors.Is(err, store.ErrDuplicate) {
			// Already committed by an earlier attempt.
			r.logger.Debug("event already recorded",
				slog.String("event_id", env.EventID.String()))
			return nil
		}

		lastErr = err
		r.logger.Warn("failed to record event, retrying",
			slog.String("event_id", env.EventID.String()),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}
