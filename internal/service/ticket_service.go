package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/support-mesh/internal/cache"
	"github.com/spec-kit/support-mesh/internal/domain"
	"github.com/spec-kit/support-mesh/internal/events"
	"github.com/spec-kit/support-mesh/internal/repository"
	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

// TicketService coordinates support ticket workflows. Role checks happen in
// the HTTP layer; the service enforces ownership.
type TicketService struct {
	tickets    repository.TicketRepository
	cache      *cache.TicketCache
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Cache      *cache.TicketCache
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Description string
	Priority    domain.TicketPriority
}

// OwnerUpdateInput is what a ticket owner may change.
type OwnerUpdateInput struct {
	Description *string
	Priority    *domain.TicketPriority
}

// StaffUpdateInput is what support staff may change.
type StaffUpdateInput struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Resolution *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// Create opens a PENDING ticket owned by userID.
func (s *TicketService) Create(ctx context.Context, userID string, input TicketCreateInput) (*domain.SupportTicket, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	ticket := &domain.SupportTicket{
		UserID:      userID,
		Status:      domain.TicketStatusPending,
		Priority:    priority,
		Description: description,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.cache.Set(ctx, ticket)
	s.cache.InvalidateAll(ctx)

	s.publish(ctx, events.Event{
		Type:    events.EventTicketCreated,
		UserID:  userID,
		Payload: events.TicketCreatedPayload{TicketID: ticket.ID, Priority: ticket.Priority},
	})
	return ticket, nil
}

// ListAll returns every ticket, newest first.
func (s *TicketService) ListAll(ctx context.Context) ([]domain.SupportTicket, error) {
	return s.tickets.List(ctx, repository.TicketFilter{})
}

// ListAllCached serves the full listing from cache, filling it on a miss.
func (s *TicketService) ListAllCached(ctx context.Context) ([]domain.SupportTicket, error) {
	if tickets, ok := s.cache.GetAll(ctx); ok {
		return tickets, nil
	}
	tickets, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetAll(ctx, tickets)
	return tickets, nil
}

// ListByUser returns the tickets owned by userID.
func (s *TicketService) ListByUser(ctx context.Context, userID string) ([]domain.SupportTicket, error) {
	return s.tickets.List(ctx, repository.TicketFilter{UserID: &userID})
}

// Get returns a ticket, preferring the cache.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.SupportTicket, error) {
	if ticket, ok := s.cache.Get(ctx, id); ok {
		return ticket, nil
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(err, id)
	}
	s.cache.Set(ctx, ticket)
	return ticket, nil
}

// UpdateAsOwner applies an owner edit. Only the ticket's owner may call it.
func (s *TicketService) UpdateAsOwner(ctx context.Context, userID, id string, input OwnerUpdateInput) (*domain.SupportTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(err, id)
	}
	if ticket.UserID != userID {
		return nil, apperrors.NewForbidden("not authorized")
	}

	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description required", nil)
		}
		ticket.Description = description
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}

	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateAsStaff applies a staff edit. Moving a ticket into RESOLVED stamps
// the resolution time and emits ticket_resolved.
func (s *TicketService) UpdateAsStaff(ctx context.Context, staffID, id string, input StaffUpdateInput) (*domain.SupportTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFound(err, id)
	}

	oldStatus := ticket.Status
	if input.Status != nil {
		if !domain.ValidStatus(*input.Status) {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
		}
		ticket.Status = *input.Status
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.Resolution != nil {
		ticket.Resolution = strings.TrimSpace(*input.Resolution)
	}

	resolved := ticket.Status == domain.TicketStatusResolved && oldStatus != domain.TicketStatusResolved
	switch {
	case resolved:
		now := s.now().UTC()
		ticket.ResolvedAt = &now
	case ticket.Status == domain.TicketStatusPending || ticket.Status == domain.TicketStatusInProgress:
		ticket.ResolvedAt = nil
	}

	if err := s.save(ctx, ticket); err != nil {
		return nil, err
	}

	if resolved {
		s.publish(ctx, events.Event{
			Type:   events.EventTicketResolved,
			UserID: ticket.UserID,
			Payload: events.TicketResolvedPayload{
				TicketID:   ticket.ID,
				Resolution: ticket.Resolution,
				ResolvedBy: staffID,
				ResolvedAt: *ticket.ResolvedAt,
			},
		})
	}
	return ticket, nil
}

func (s *TicketService) save(ctx context.Context, ticket *domain.SupportTicket) error {
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return s.notFound(err, ticket.ID)
	}
	s.cache.Set(ctx, ticket)
	s.cache.InvalidateAll(ctx)
	return nil
}

func (s *TicketService) notFound(err error, id string) error {
	if repository.IsNotFound(err) {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return err
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
