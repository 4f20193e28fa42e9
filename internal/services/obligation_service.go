package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"payble/internal/amqp"
	"payble/internal/core"
	"payble/internal/records"
)

// RefreshPublisher announces that insights should be recomputed.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, msg *amqp.RefreshMessage) error
}

// ObligationService stores records and publishes refresh messages.
// Publishing is best effort: a stored record is never rolled back.
type ObligationService struct {
	store     records.Store
	publisher RefreshPublisher
	now       func() time.Time
}

// NewObligationService accepts a nil publisher, in which case refreshes are
// skipped.
func NewObligationService(store records.Store, publisher RefreshPublisher) *ObligationService {
	return &ObligationService{store: store, publisher: publisher, now: time.Now}
}

func (s *ObligationService) ListObligations(ctx context.Context) ([]core.Obligation, error) {
	return s.store.ListObligations(ctx)
}

func (s *ObligationService) UpsertObligations(ctx context.Context, obs []core.Obligation) ([]core.Obligation, error) {
	stored, err := s.store.UpsertObligations(ctx, obs)
	if err != nil {
		return nil, fmt.Errorf("save obligations: %w", err)
	}
	ids := make([]string, len(stored))
	for i, o := range stored {
		ids[i] = o.ID
	}
	s.publish(ctx, amqp.NewRefreshMessage(amqp.ReasonObligationsUpserted, ids...))
	return stored, nil
}

// MarkPaid flags id as paid now.
func (s *ObligationService) MarkPaid(ctx context.Context, id string, at time.Time) (core.Obligation, error) {
	if at.IsZero() {
		at = s.now()
	}
	o, err := s.store.MarkPaid(ctx, id, at)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("mark paid: %w", err)
	}
	s.publish(ctx, amqp.NewRefreshMessage(amqp.ReasonObligationPaid, id))
	return o, nil
}

func (s *ObligationService) publish(ctx context.Context, msg *amqp.RefreshMessage) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping refresh message", "reason", msg.Reason)
		return
	}
	if err := s.publisher.PublishRefresh(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish refresh message", "reason", msg.Reason, "error", err)
	}
}
