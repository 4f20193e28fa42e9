package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"payble/internal/core"
	"payble/internal/records"
)

// UpcomingNotifyDays is how far ahead upcoming reminders look.
const UpcomingNotifyDays = 3

// NotificationService derives reminders from obligations and tracks which
// ones the user has already seen.
type NotificationService struct {
	records records.Lister
	seen    records.SeenStore
}

func NewNotificationService(rec records.Lister, seen records.SeenStore) *NotificationService {
	return &NotificationService{records: rec, seen: seen}
}

// Derive builds notifications for obligations at now: overdue and due-today
// and upcoming for unpaid bills, payment_success for bills paid today.
// The result is ordered by due date.
func Derive(obs []core.Obligation, now time.Time) []core.Notification {
	out := make([]core.Notification, 0)
	for _, o := range obs {
		if !o.DueDate.Valid {
			continue
		}
		due := o.DueDate.Time
		n := core.Notification{
			ObligationID: o.ID,
			BillName:     o.BillName,
			DueDate:      o.DueDate,
			At:           now,
		}
		if o.IsPaid {
			if o.PaidAt != nil && core.DaysUntil(*o.PaidAt, now) == 0 {
				n.Kind = core.NotifyPaymentSuccess
				n.Message = fmt.Sprintf("Payment for %s recorded", o.BillName)
				out = append(out, n)
			}
			continue
		}
		days := core.DaysUntil(due, now)
		switch {
		case days < 0:
			n.Kind = core.NotifyOverdue
		case days == 0:
			n.Kind = core.NotifyDueToday
		case days <= UpcomingNotifyDays:
			n.Kind = core.NotifyUpcoming
		default:
			continue
		}
		n.Message = fmt.Sprintf("%s: %s", o.BillName, core.DueBadge(due, now))
		if o.Amount.Valid {
			n.Message += " (" + core.FormatCurrency(o.Value()) + ")"
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Time.Before(out[j].DueDate.Time)
	})
	return out
}

// List returns the current notifications.
func (s *NotificationService) List(ctx context.Context, now time.Time) ([]core.Notification, error) {
	obs, err := s.records.ListObligations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	return Derive(obs, now), nil
}

// Unseen returns the notifications whose key has not been marked seen.
func (s *NotificationService) Unseen(ctx context.Context, now time.Time) ([]core.Notification, error) {
	all, err := s.List(ctx, now)
	if err != nil {
		return nil, err
	}
	seen, err := s.seen.SeenKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seen keys: %w", err)
	}
	out := make([]core.Notification, 0, len(all))
	for _, n := range all {
		if _, ok := seen[n.Key()]; !ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *NotificationService) MarkSeen(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.seen.MarkSeen(ctx, keys); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}
