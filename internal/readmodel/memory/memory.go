// Package memory provides in-memory read-model stores. Used in tests and
// by the memory event store's projectors.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/arcadia-lab/project-arcadia/internal/game"
	"github.com/arcadia-lab/project-arcadia/internal/library"
	"github.com/arcadia-lab/project-arcadia/internal/readmodel"
)

// GameStore keeps game projections in a map guarded by a mutex.
type GameStore struct {
	mu    sync.RWMutex
	games map[string]game.Projection
}

func NewGameStore() *GameStore {
	return &GameStore{games: make(map[string]game.Projection)}
}

func (s *GameStore) Get(_ context.Context, id string) (*game.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.games[id]
	if !ok {
		return nil, readmodel.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *GameStore) Upsert(_ context.Context, p *game.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[p.ID] = *p
	return nil
}

// Snapshot captures the current contents and returns a function restoring
// them, letting a failed event-store append undo its projection writes.
func (s *GameStore) Snapshot() func() {
	s.mu.RLock()
	saved := make(map[string]game.Projection, len(s.games))
	for k, v := range s.games {
		saved[k] = v
	}
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.games = saved
		s.mu.Unlock()
	}
}

// List filters, sorts and pages the catalog.
func (s *GameStore) List(_ context.Context, filter readmodel.GameFilter) ([]game.Projection, error) {
	filter = filter.Normalize()

	s.mu.RLock()
	out := make([]game.Projection, 0, len(s.games))
	for _, p := range s.games {
		if !filter.IncludeHidden && !p.IsActive {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch filter.SortBy {
		case readmodel.SortByName:
			return a.Name < b.Name
		case readmodel.SortByPriceAsc:
			return a.Price.LessThan(b.Price)
		case readmodel.SortByPriceDesc:
			return b.Price.LessThan(a.Price)
		case readmodel.SortByRating:
			return ratingOf(a) > ratingOf(b)
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func ratingOf(p game.Projection) float64 {
	if p.Rating == nil {
		return -1
	}
	return *p.Rating
}

// LibraryStore keeps library projections keyed by entry id.
type LibraryStore struct {
	mu      sync.RWMutex
	entries map[string]library.Projection
}

func NewLibraryStore() *LibraryStore {
	return &LibraryStore{entries: make(map[string]library.Projection)}
}

func (s *LibraryStore) Get(_ context.Context, entryID string) (*library.Projection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.entries[entryID]
	if !ok {
		return nil, readmodel.ErrNotFound
	}
	cp := p
	return &cp, nil
}

func (s *LibraryStore) Upsert(_ context.Context, p *library.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[p.EntryID] = *p
	return nil
}

// Snapshot captures the current contents and returns a function restoring
// them.
func (s *LibraryStore) Snapshot() func() {
	s.mu.RLock()
	saved := make(map[string]library.Projection, len(s.entries))
	for k, v := range s.entries {
		saved[k] = v
	}
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.entries = saved
		s.mu.Unlock()
	}
}

// ListByUser returns the user's active entries, most recently purchased
// first.
func (s *LibraryStore) ListByUser(_ context.Context, userID string) ([]library.Projection, error) {
	s.mu.RLock()
	var out []library.Projection
	for _, p := range s.entries {
		if p.UserID == userID && p.IsActive {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PurchasedAt.After(out[j].PurchasedAt)
	})
	return out, nil
}
