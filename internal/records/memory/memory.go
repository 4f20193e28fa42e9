package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"payble/internal/core"
)

// SeedFile is the file NewFromFiles reads obligations from.
const SeedFile = "seed_obligations.json"

// Store keeps obligations and seen keys in memory.
type Store struct {
	mu    sync.Mutex
	items map[string]core.Obligation
	seen  map[string]struct{}
	now   func() time.Time
}

func New(seed ...core.Obligation) *Store {
	s := &Store{
		items: make(map[string]core.Obligation),
		seen:  make(map[string]struct{}),
		now:   time.Now,
	}
	for _, o := range seed {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		s.items[o.ID] = o
	}
	return s
}

// NewFromFiles seeds the store from base/seed_obligations.json when present.
// A missing file yields an empty store.
func NewFromFiles(base string) (*Store, error) {
	path := filepath.Join(base, SeedFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var seed []core.Obligation
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return New(seed...), nil
}

// ListObligations returns a copy of all obligations ordered by due date.
// Obligations with malformed due dates come last.
func (s *Store) ListObligations(_ context.Context) ([]core.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Obligation, 0, len(s.items))
	for _, o := range s.items {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.DueDate.Valid != b.DueDate.Valid {
			return a.DueDate.Valid
		}
		if !a.DueDate.Time.Equal(b.DueDate.Time) {
			return a.DueDate.Time.Before(b.DueDate.Time)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) UpsertObligations(_ context.Context, obs []core.Obligation) ([]core.Obligation, error) {
	for i, o := range obs {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("obligation %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	stored := make([]core.Obligation, len(obs))
	for i, o := range obs {
		if strings.TrimSpace(o.ID) == "" {
			o.ID = uuid.NewString()
		}
		if prev, ok := s.items[o.ID]; ok && prev.CreatedAt != nil {
			o.CreatedAt = prev.CreatedAt
		}
		if o.CreatedAt == nil {
			o.CreatedAt = &now
		}
		s.items[o.ID] = o
		stored[i] = o
	}
	return stored, nil
}

func (s *Store) MarkPaid(_ context.Context, id string, at time.Time) (core.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return core.Obligation{}, core.ErrNotFound
	}
	o = o.MarkPaid(at)
	s.items[id] = o
	return o, nil
}

func (s *Store) SeenKeys(_ context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.seen))
	for k := range s.seen {
		out[k] = struct{}{}
	}
	return out, nil
}

func (s *Store) MarkSeen(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.seen[k] = struct{}{}
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
