// Package logstore writes audit events to a structured logger.
package logstore

import (
	"context"
	"log/slog"

	audit "seqguard/pkg/platform/audit"
)

type Store struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	s.logger.InfoContext(ctx, "audit event",
		"category", category,
		"action", event.Action,
		"subject", event.Subject,
		"decision", event.Decision,
		"reason", event.Reason,
		"jurisdiction", event.Jurisdiction,
		"request_id", event.RequestID,
	)
	return nil
}
