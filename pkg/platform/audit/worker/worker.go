package worker

import (
	"context"
	"log/slog"

	audit "seqguard/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them until the
// channel is closed. A failed append is logged and the worker moves on so one
// bad sink cannot stall screening.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox. It returns once the inbox is closed and empty.
func (w *Worker) Run(ctx context.Context) {
	for event := range w.inbox {
		if err := w.store.Append(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit append failed",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
	}
}
