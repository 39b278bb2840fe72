package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/repository"
)

type LuggageStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.Luggage
}

func NewLuggageStore() *LuggageStore {
	return &LuggageStore{byID: make(map[string]*domain.Luggage)}
}

func (s *LuggageStore) Create(ctx context.Context, luggage *domain.Luggage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[luggage.ID]; ok {
		return fmt.Errorf("luggage %s: %w", luggage.ID, domain.ErrConflict)
	}
	now := time.Now().UTC()
	luggage.CreatedAt, luggage.UpdatedAt = now, now
	l := *luggage
	s.byID[l.ID] = &l
	return nil
}

func (s *LuggageStore) GetByID(ctx context.Context, id string) (*domain.Luggage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("luggage %s: %w", id, domain.ErrNotFound)
	}
	out := *l
	return &out, nil
}

func (s *LuggageStore) ListByTicket(ctx context.Context, ticketID string) ([]domain.Luggage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Luggage, 0)
	for _, l := range s.byID {
		if l.TicketID == ticketID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *LuggageStore) Advance(ctx context.Context, id string, from, to domain.LuggageStatus) (*domain.Luggage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("luggage %s: %w", id, domain.ErrNotFound)
	}
	if l.Status != from || !domain.CanAdvance(from, to) {
		return nil, fmt.Errorf("luggage %s is %s, cannot move to %s: %w", id, l.Status, to, domain.ErrInvalidStateTransition)
	}
	l.Status = to
	l.UpdatedAt = time.Now().UTC()
	out := *l
	return &out, nil
}

var _ repository.LuggageRepository = (*LuggageStore)(nil)
