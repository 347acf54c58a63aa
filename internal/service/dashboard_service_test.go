package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/policy"
)

func TestDashboardCountsAgree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var ids []string
	for _, title := range []string{"One", "Two", "Three", "Four"} {
		ids = append(ids, f.newTicket(t, f.carol, title).ID)
	}
	f.newTicket(t, f.dave, "Five")

	_, err := f.assignments.Assign(ctx, f.admin, ids[0], f.alice.ID, nil)
	require.NoError(t, err)
	_, err = f.tickets.TransitionStatus(ctx, f.alice, ids[1], domain.TicketStatusResolved, nil)
	require.NoError(t, err)

	summary, err := f.dashboard.Summary(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, policy.ScopeAll, summary.Scope)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 1, summary.Assigned)
	assert.Equal(t, 4, summary.Unassigned)
	assert.Equal(t, summary.Total, summary.Assigned+summary.Unassigned)
	assert.Equal(t, 4, summary.ByStatus[domain.TicketStatusOpen])
	assert.Equal(t, 1, summary.ByStatus[domain.TicketStatusResolved])
	assert.Equal(t, 0, summary.ByStatus[domain.TicketStatusClosed])
	assert.Equal(t, 5, summary.ByPriority[domain.TicketPriorityMedium])
	require.Len(t, summary.Recent, 3)
	assert.Equal(t, "Five", summary.Recent[0].Title)
	assert.Nil(t, summary.Directory)

	var byStatus int
	for _, n := range summary.ByStatus {
		byStatus += n
	}
	assert.Equal(t, summary.Total, byStatus)
}

func TestDashboardScopesCustomers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.newTicket(t, f.carol, "Mine")
	f.newTicket(t, f.dave, "Theirs")

	summary, err := f.dashboard.Summary(ctx, f.carol)
	require.NoError(t, err)
	assert.Equal(t, policy.ScopeOwn, summary.Scope)
	assert.Equal(t, 1, summary.Total)
	require.Len(t, summary.Recent, 1)
	assert.Equal(t, "Mine", summary.Recent[0].Title)
}

func TestDashboardDirectoryForAdministrators(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.categories.CreateCategory(ctx, f.admin, "Network")
	require.NoError(t, err)

	summary, err := f.dashboard.Summary(ctx, f.admin)
	require.NoError(t, err)
	require.NotNil(t, summary.Directory)
	assert.Equal(t, 5, summary.Directory.Users)
	assert.Equal(t, 2, summary.Directory.SupportAgents)
	assert.Equal(t, 1, summary.Directory.Categories)
	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.Recent)
}

func TestSummarizeWindow(t *testing.T) {
	tickets := []domain.Ticket{
		{ID: "b", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow},
		{ID: "a", Status: domain.TicketStatusClosed, Priority: domain.TicketPriorityCritical},
	}
	assert.Len(t, Summarize(tickets, 10).Recent, 2)
	assert.Empty(t, Summarize(tickets, -1).Recent)

	summary := Summarize(tickets, 1)
	require.Len(t, summary.Recent, 1)
	assert.Equal(t, "b", summary.Recent[0].ID)
	assert.Equal(t, 1, summary.ByPriority[domain.TicketPriorityCritical])
	assert.Equal(t, 0, summary.ByPriority[domain.TicketPriorityHigh])
}
