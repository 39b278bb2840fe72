// Package luggage checks bags against issued tickets and tracks them to the belt.
package luggage

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/airinventory/internal/domain"
	"github.com/Domenick1991/airinventory/internal/repository"
	"github.com/Domenick1991/airinventory/pkg/logger"
	"github.com/google/uuid"
)

type LuggageUseCase interface {
	CheckIn(ctx context.Context, ticketID string, weightGrams int) (*domain.Luggage, error)
	Advance(ctx context.Context, luggageID string, to domain.LuggageStatus) (*domain.Luggage, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Luggage, error)
}

type TicketReader interface {
	Get(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

type LuggageService struct {
	luggage repository.LuggageRepository
	tickets TicketReader
	log     logger.Logger
}

func NewLuggageService(luggage repository.LuggageRepository, tickets TicketReader, log logger.Logger) *LuggageService {
	return &LuggageService{luggage: luggage, tickets: tickets, log: log.With("component", "luggage_service")}
}

// CheckIn registers a bag on an issued ticket and prices the excess weight.
func (s *LuggageService) CheckIn(ctx context.Context, ticketID string, weightGrams int) (*domain.Luggage, error) {
	if weightGrams <= 0 {
		return nil, domain.ValidationError("weight must be positive")
	}
	if weightGrams > domain.MaxLuggageGrams {
		return nil, domain.ValidationError("bag of %d g exceeds the %d g limit", weightGrams, domain.MaxLuggageGrams)
	}
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusIssued {
		return nil, fmt.Errorf("ticket %s is %s: %w", ticketID, ticket.Status, domain.ErrInvalidBookingState)
	}

	bag := &domain.Luggage{
		ID:          uuid.NewString(),
		TicketID:    ticketID,
		WeightGrams: weightGrams,
		FeeCents:    domain.LuggageFee(weightGrams),
		Status:      domain.LuggageStatusChecked,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.luggage.Create(ctx, bag); err != nil {
		return nil, err
	}
	s.log.Info("luggage checked in", "luggage_id", bag.ID, "ticket_id", ticketID, "weight_grams", weightGrams, "fee_cents", bag.FeeCents)
	return bag, nil
}

// Advance moves a bag one step along CHECKED -> LOADED -> DELIVERED.
func (s *LuggageService) Advance(ctx context.Context, luggageID string, to domain.LuggageStatus) (*domain.Luggage, error) {
	current, err := s.luggage.GetByID(ctx, luggageID)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return current, nil
	}
	if !domain.CanAdvance(current.Status, to) {
		return nil, fmt.Errorf("luggage %s is %s, cannot move to %s: %w", luggageID, current.Status, to, domain.ErrInvalidStateTransition)
	}
	return s.luggage.Advance(ctx, luggageID, current.Status, to)
}

func (s *LuggageService) ListByTicket(ctx context.Context, ticketID string) ([]domain.Luggage, error) {
	return s.luggage.ListByTicket(ctx, ticketID)
}

var _ LuggageUseCase = (*LuggageService)(nil)
