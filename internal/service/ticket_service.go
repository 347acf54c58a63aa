package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/policy"
	"github.com/deskline/helpdesk/internal/repository"
)

// TicketService coordinates ticket creation, reads and the status lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	guard      guard
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	CategoryID  *string
}

// TicketListFilter narrows a ticket listing. Scope is applied on top.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	CategoryID *string
	AssigneeID *string
	Unassigned bool
	SearchTerm *string
	Page
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		guard:      newGuard(deps.Metrics, logger),
	}
}

// CreateTicket files a new OPEN, unassigned ticket owned by actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := s.guard.require(actor, policy.ActionCreateTicket, actor.ID); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		CreatorID:   actor.ID,
	}
	if v := domain.TitleViolation(ticket.Title); v != "" {
		return nil, validation("title", v)
	}
	if v := domain.DescriptionViolation(ticket.Description); v != "" {
		return nil, validation("description", v)
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if !ticket.Priority.Valid() {
		return nil, validation("priority", "priority must be one of LOW, MEDIUM, HIGH, CRITICAL")
	}
	if input.CategoryID != nil && strings.TrimSpace(*input.CategoryID) != "" {
		categoryID := strings.TrimSpace(*input.CategoryID)
		if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
			return nil, mapStoreError(err, "category", categoryID)
		}
		ticket.CategoryID = &categoryID
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		// a dangling reference here means the category vanished after the check
		if errors.Is(err, repository.ErrNotFound) && ticket.CategoryID != nil {
			return nil, mapStoreError(err, "category", *ticket.CategoryID)
		}
		return nil, mapStoreError(err, "ticket", "")
	}
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("creator_id", ticket.CreatorID),
		zap.String("priority", string(ticket.Priority)))
	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketCreated, ticket.ID, actor, events.TicketCreatedPayload{
		Title:      ticket.Title,
		Priority:   ticket.Priority,
		CategoryID: ticket.CategoryID,
	}))
	return ticket, nil
}

// ListTickets returns tickets visible to actor, newest first. Customers only
// ever see their own tickets whatever the filter says.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	if err := s.guard.require(actor, policy.ActionListTickets, actor.ID); err != nil {
		return nil, err
	}
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, validation("status", "unknown status "+string(status))
		}
	}
	for _, priority := range filter.Priorities {
		if !priority.Valid() {
			return nil, validation("priority", "unknown priority "+string(priority))
		}
	}

	repoFilter := repository.TicketFilter{
		AssigneeID: filter.AssigneeID,
		CategoryID: filter.CategoryID,
		Unassigned: filter.Unassigned,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if policy.ListScope(actor.Role) == policy.ScopeOwn {
		creatorID := actor.ID
		repoFilter.CreatorID = &creatorID
	}

	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, mapStoreError(err, "ticket", "")
	}
	return tickets, nil
}

// GetTicket fetches a ticket the actor is allowed to view.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}
	if err := s.guard.require(actor, policy.ActionViewTicket, ticket.CreatorID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// TransitionStatus moves a ticket to newStatus. A nil ifVersion skips the
// caller-side staleness check; the store still rejects a concurrent writer.
// Moving to the current status succeeds without a write.
func (s *TicketService) TransitionStatus(ctx context.Context, actor domain.Actor, ticketID string, newStatus domain.TicketStatus, ifVersion *int64) (*domain.Ticket, error) {
	if err := s.guard.require(actor, policy.ActionChangeStatus, ""); err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, validation("status", "status must be one of OPEN, IN_PROGRESS, RESOLVED, CLOSED")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}
	if err := staleVersion(ticket, ifVersion); err != nil {
		return nil, err
	}
	if ticket.Status == newStatus {
		return ticket, nil
	}
	if !domain.CanTransition(ticket.Status, newStatus) {
		return nil, validation("status", "transition from "+string(ticket.Status)+" to "+string(newStatus)+" is not allowed")
	}

	readVersion := ticket.Version
	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.UpdateWithVersion(ctx, ticket, readVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, versionConflict(ticketID, readVersion)
		}
		return nil, mapStoreError(err, "ticket", ticketID)
	}

	s.metrics.RecordTransition(string(oldStatus), string(newStatus))
	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("from", string(oldStatus)),
		zap.String("to", string(newStatus)),
		zap.String("actor_id", actor.ID),
		zap.Int64("version", ticket.Version))
	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, actor, events.TicketStatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Version:   ticket.Version,
	}))
	return ticket, nil
}
