package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/policy"
	"github.com/deskline/helpdesk/internal/repository"
)

// DashboardSummary is the read model behind the dashboard.
type DashboardSummary struct {
	Scope      policy.Scope
	Total      int
	Assigned   int
	Unassigned int
	ByStatus   map[domain.TicketStatus]int
	ByPriority map[domain.TicketPriority]int
	Recent     []domain.Ticket
	// Directory is only filled for roles that manage users and categories.
	Directory *DirectoryTotals
}

// DirectoryTotals carries the administrator-only counts.
type DirectoryTotals struct {
	Users         int
	SupportAgents int
	Categories    int
}

// DashboardService aggregates ticket counts. It never mutates.
type DashboardService struct {
	tickets      repository.TicketRepository
	users        repository.UserRepository
	categories   repository.CategoryRepository
	recentWindow int
	guard        guard
}

// DashboardDependencies bundles collaborators for the dashboard.
type DashboardDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	CategoryRepo repository.CategoryRepository
	RecentWindow int
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewDashboardService creates the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	window := deps.RecentWindow
	if window <= 0 {
		window = 5
	}
	return &DashboardService{
		tickets:      deps.TicketRepo,
		users:        deps.UserRepo,
		categories:   deps.CategoryRepo,
		recentWindow: window,
		guard:        newGuard(deps.Metrics, deps.Logger),
	}
}

// Summary computes every count and the recent window from one snapshot so
// they always agree with each other.
func (s *DashboardService) Summary(ctx context.Context, actor domain.Actor) (*DashboardSummary, error) {
	if err := s.guard.require(actor, policy.ActionViewDashboard, actor.ID); err != nil {
		return nil, err
	}

	scope := policy.ListScope(actor.Role)
	var creatorID *string
	if scope == policy.ScopeOwn {
		id := actor.ID
		creatorID = &id
	}
	snapshot, err := s.tickets.Snapshot(ctx, creatorID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", "")
	}

	summary := Summarize(snapshot, s.recentWindow)
	summary.Scope = scope

	if policy.Authorize(actor.Role, policy.ActionManageUsers, policy.ResourceContext{ActorID: actor.ID}) == policy.Permit {
		directory, err := s.directoryTotals(ctx)
		if err != nil {
			return nil, err
		}
		summary.Directory = directory
	}
	return summary, nil
}

// Summarize aggregates tickets, which must be ordered newest first.
func Summarize(tickets []domain.Ticket, recentWindow int) *DashboardSummary {
	summary := &DashboardSummary{
		Total:      len(tickets),
		ByStatus:   make(map[domain.TicketStatus]int, len(domain.TicketStatuses)),
		ByPriority: make(map[domain.TicketPriority]int, len(domain.TicketPriorities)),
	}
	for _, status := range domain.TicketStatuses {
		summary.ByStatus[status] = 0
	}
	for _, priority := range domain.TicketPriorities {
		summary.ByPriority[priority] = 0
	}
	for _, ticket := range tickets {
		summary.ByStatus[ticket.Status]++
		summary.ByPriority[ticket.Priority]++
		if ticket.IsAssigned() {
			summary.Assigned++
		} else {
			summary.Unassigned++
		}
	}
	if recentWindow < 0 {
		recentWindow = 0
	}
	if recentWindow > len(tickets) {
		recentWindow = len(tickets)
	}
	summary.Recent = append([]domain.Ticket{}, tickets[:recentWindow]...)
	return summary
}

func (s *DashboardService) directoryTotals(ctx context.Context) (*DirectoryTotals, error) {
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, mapStoreError(err, "user", "")
	}
	categories, err := s.categories.Count(ctx)
	if err != nil {
		return nil, mapStoreError(err, "category", "")
	}
	totals := &DirectoryTotals{SupportAgents: byRole[domain.RoleSupportAgent], Categories: categories}
	for _, count := range byRole {
		totals.Users += count
	}
	return totals, nil
}
