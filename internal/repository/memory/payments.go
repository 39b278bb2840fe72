package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/repository"
)

type PaymentStore struct {
	mu       sync.RWMutex
	byID     map[string]*domain.PaymentTransaction
	byKey    map[string]string
	byActive map[string]string
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		byID:     make(map[string]*domain.PaymentTransaction),
		byKey:    make(map[string]string),
		byActive: make(map[string]string),
	}
}

func (s *PaymentStore) Create(ctx context.Context, payment *domain.PaymentTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[payment.IdempotencyKey]; ok {
		return fmt.Errorf("idempotency key %q: %w", payment.IdempotencyKey, domain.ErrConflict)
	}
	if _, ok := s.byActive[payment.BookingID]; ok {
		return fmt.Errorf("booking %s already has an active transaction: %w", payment.BookingID, domain.ErrConflict)
	}
	now := time.Now().UTC()
	payment.CreatedAt, payment.UpdatedAt = now, now
	p := *payment
	s.byID[p.ID] = &p
	s.byKey[p.IdempotencyKey] = p.ID
	if p.Status != domain.PaymentStatusFailed {
		s.byActive[p.BookingID] = p.ID
	}
	return nil
}

func (s *PaymentStore) GetByID(ctx context.Context, id string) (*domain.PaymentTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (s *PaymentStore) GetByIdempotencyKey(ctx context.Context, key string) (*domain.PaymentTransaction, error) {
	s.mu.RLock()
	id, ok := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("transaction with key %q: %w", key, domain.ErrNotFound)
	}
	return s.GetByID(ctx, id)
}

func (s *PaymentStore) SetOutcome(ctx context.Context, id string, status domain.PaymentStatus) (*domain.PaymentTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if p.Status != domain.PaymentStatusPending {
		return nil, fmt.Errorf("transaction %s is %s: %w", id, p.Status, domain.ErrInvalidStateTransition)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	if status == domain.PaymentStatusFailed {
		delete(s.byActive, p.BookingID)
	}
	out := *p
	return &out, nil
}

var _ repository.PaymentRepository = (*PaymentStore)(nil)
