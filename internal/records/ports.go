// Package records defines the ports through which obligation records and
// notification bookkeeping are read and written.
package records

import (
	"context"
	"time"

	"payble/internal/core"
)

type (
	// Lister supplies the obligation snapshot analytics run on.
	Lister interface {
		ListObligations(ctx context.Context) ([]core.Obligation, error)
	}

	// Writer accepts records from the upstream feed.
	Writer interface {
		UpsertObligations(ctx context.Context, obs []core.Obligation) ([]core.Obligation, error)
		MarkPaid(ctx context.Context, id string, at time.Time) (core.Obligation, error)
	}

	Store interface {
		Lister
		Writer
	}

	// SeenStore remembers which notification keys the user has seen.
	SeenStore interface {
		SeenKeys(ctx context.Context) (map[string]struct{}, error)
		MarkSeen(ctx context.Context, keys []string) error
	}

	// Pinger is implemented by stores that can report readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
