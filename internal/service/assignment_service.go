package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/policy"
	"github.com/deskline/helpdesk/internal/repository"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	guard      guard
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		guard:      newGuard(deps.Metrics, logger),
	}
}

// ListUnassigned returns tickets without an assignee, newest first.
func (s *AssignmentService) ListUnassigned(ctx context.Context, actor domain.Actor, page Page) ([]domain.Ticket, error) {
	if err := s.guard.require(actor, policy.ActionAssignTicket, ""); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{Unassigned: true, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, mapStoreError(err, "ticket", "")
	}
	return tickets, nil
}

// ListEligibleAgents returns every active identity holding SUPPORT_AGENT.
func (s *AssignmentService) ListEligibleAgents(ctx context.Context, actor domain.Actor, page Page) ([]domain.User, error) {
	if err := s.guard.require(actor, policy.ActionAssignTicket, ""); err != nil {
		return nil, err
	}
	role := domain.RoleSupportAgent
	agents, err := s.users.List(ctx, repository.UserFilter{Role: &role, ActiveOnly: true, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, mapStoreError(err, "user", "")
	}
	return agents, nil
}

// Assign hands a ticket to a support agent. Assigning the current assignee
// again is a no-op success. Status is left untouched.
func (s *AssignmentService) Assign(ctx context.Context, actor domain.Actor, ticketID, agentID string, ifVersion *int64) (*domain.Ticket, error) {
	if err := s.guard.require(actor, policy.ActionAssignTicket, ""); err != nil {
		return nil, err
	}
	if agentID == "" {
		return nil, validation("agent_id", "agent_id must not be empty")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return nil, mapStoreError(err, "user", agentID)
	}
	if agent.Role != domain.RoleSupportAgent {
		return nil, validation("agent_id", "assignee must hold the SUPPORT_AGENT role")
	}
	if !agent.Active() {
		return nil, validation("agent_id", "assignee account is deactivated")
	}

	if ticket.AssigneeID != nil && *ticket.AssigneeID == agent.ID {
		return ticket, nil
	}
	if err := staleVersion(ticket, ifVersion); err != nil {
		return nil, err
	}

	previous := ticket.AssigneeID
	assignee := agent.ID
	ticket.AssigneeID = &assignee
	if err := s.commit(ctx, ticket); err != nil {
		return nil, err
	}

	s.metrics.RecordAssignment("assign")
	s.logger.Info("ticket assigned",
		zap.String("ticket_id", ticket.ID),
		zap.String("assignee_id", assignee),
		zap.String("actor_id", actor.ID))
	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor, events.TicketAssignedPayload{
		PreviousAssigneeID: previous,
		AssigneeID:         ticket.AssigneeID,
		Version:            ticket.Version,
	}))
	return ticket, nil
}

// Unassign returns a ticket to the unassigned pool. Unassigning an
// unassigned ticket is a no-op success.
func (s *AssignmentService) Unassign(ctx context.Context, actor domain.Actor, ticketID string, ifVersion *int64) (*domain.Ticket, error) {
	if err := s.guard.require(actor, policy.ActionAssignTicket, ""); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}
	if !ticket.IsAssigned() {
		return ticket, nil
	}
	if err := staleVersion(ticket, ifVersion); err != nil {
		return nil, err
	}

	previous := ticket.AssigneeID
	ticket.AssigneeID = nil
	if err := s.commit(ctx, ticket); err != nil {
		return nil, err
	}

	s.metrics.RecordAssignment("unassign")
	s.logger.Info("ticket unassigned", zap.String("ticket_id", ticket.ID), zap.String("actor_id", actor.ID))
	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor, events.TicketAssignedPayload{
		PreviousAssigneeID: previous,
		Version:            ticket.Version,
	}))
	return ticket, nil
}

func (s *AssignmentService) commit(ctx context.Context, ticket *domain.Ticket) error {
	readVersion := ticket.Version
	if err := s.tickets.UpdateWithVersion(ctx, ticket, readVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return versionConflict(ticket.ID, readVersion)
		}
		return mapStoreError(err, "ticket", ticket.ID)
	}
	return nil
}
