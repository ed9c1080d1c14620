package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"fintracker/internal/amqp"
	"fintracker/internal/identity"
	"fintracker/internal/log"
)

// Checker is the reconciliation routine every trigger funnels into.
type Checker interface {
	Check(ctx context.Context) (identity.Transition, bool)
}

// Notifier reports external session changes, e.g. session.Watcher.
type Notifier interface {
	Run(ctx context.Context, notify func()) error
}

// EventSource delivers session events from other processes, e.g. amqp.Client.
type EventSource interface {
	ConsumeSessionEvents(ctx context.Context, handler func(context.Context, *amqp.SessionChangedMessage) error) error
}

const (
	triggerStartup = "startup"
	triggerPoll    = "poll"
	triggerNotify  = "notify"
)

// IdentityWorker keeps the ledger aligned with the session. A coarse poll
// catches anything the notification paths miss; notifications are debounced
// to let the session write settle.
type IdentityWorker struct {
	checker      Checker
	pollInterval time.Duration
	debounce     time.Duration
	notifier     Notifier
	events       EventSource
	logger       *log.Logger
}

// Option configures an IdentityWorker.
type Option func(*IdentityWorker)

func WithNotifier(n Notifier) Option {
	return func(w *IdentityWorker) { w.notifier = n }
}

func WithEventSource(e EventSource) Option {
	return func(w *IdentityWorker) { w.events = e }
}

func NewIdentityWorker(checker Checker, pollInterval, debounce time.Duration, logger *log.Logger, opts ...Option) *IdentityWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	w := &IdentityWorker{
		checker:      checker,
		pollInterval: pollInterval,
		debounce:     debounce,
		logger:       logger.WithComponent(log.ComponentWorker),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run checks once, then keeps checking until ctx is done. A failing
// notification path is logged and left to the poll.
func (w *IdentityWorker) Run(ctx context.Context) error {
	w.check(ctx, triggerStartup)

	g, gctx := errgroup.WithContext(ctx)
	debouncer := NewDebouncer(w.debounce, func() { w.check(gctx, triggerNotify) })
	defer debouncer.Stop()

	g.Go(func() error {
		return w.poll(gctx)
	})

	if w.notifier != nil {
		g.Go(func() error {
			if err := w.notifier.Run(gctx, debouncer.Trigger); err != nil && gctx.Err() == nil {
				w.logger.ErrorContext(gctx, "Session watcher stopped, relying on poll", log.FieldError, err)
			}
			return nil
		})
	}

	if w.events != nil {
		g.Go(func() error {
			err := w.events.ConsumeSessionEvents(gctx, func(_ context.Context, msg *amqp.SessionChangedMessage) error {
				w.logger.DebugContext(gctx, "Session event received",
					log.FieldTransition, msg.Kind,
					"source", msg.Source)
				debouncer.Trigger()
				return nil
			})
			if err != nil && gctx.Err() == nil {
				w.logger.ErrorContext(gctx, "Session event consumer stopped, relying on poll", log.FieldError, err)
			}
			return nil
		})
	}

	w.logger.InfoContext(ctx, "Identity worker started",
		"poll_interval", w.pollInterval,
		"debounce", w.debounce,
		"watching", w.notifier != nil,
		"events", w.events != nil)

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	w.logger.InfoContext(ctx, "Identity worker stopped")
	return err
}

func (w *IdentityWorker) poll(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check(ctx, triggerPoll)
		}
	}
}

func (w *IdentityWorker) check(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}
	t, changed := w.checker.Check(ctx)
	if !changed {
		return
	}
	w.logger.Fields(ctx, log.LevelInfo, "Identity transition applied",
		log.NewFields().
			WithComponent(log.ComponentWorker).
			WithTransition(string(t.Kind), t.From, t.To).
			WithOperation(log.OpReload).
			WithTrigger(trigger))
}
