package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/domain"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

func TestInternalCommentsHiddenFromCustomers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.newTicket(t, f.carol, "VPN drops")

	_, err := f.comments.AddComment(ctx, f.carol, ticket.ID, "It keeps dropping", false)
	require.NoError(t, err)
	note, err := f.comments.AddComment(ctx, f.alice, ticket.ID, "Likely the MTU again", true)
	require.NoError(t, err)
	assert.True(t, note.Internal)
	_, err = f.comments.AddComment(ctx, f.admin, ticket.ID, "We are looking into it", false)
	require.NoError(t, err)

	staff, err := f.comments.VisibleComments(ctx, f.alice, ticket.ID)
	require.NoError(t, err)
	require.Len(t, staff, 3)
	assert.Equal(t, "We are looking into it", staff[0].Content)
	assert.Equal(t, "It keeps dropping", staff[2].Content)

	customer, err := f.comments.VisibleComments(ctx, f.carol, ticket.ID)
	require.NoError(t, err)
	require.Len(t, customer, 2)
	for _, comment := range customer {
		assert.False(t, comment.Internal)
	}
	assert.Equal(t, "We are looking into it", customer[0].Content)

	reloaded, err := f.tickets.GetTicket(ctx, f.alice, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.Version, reloaded.Version, "comments do not bump the ticket version")
}

func TestCustomerInternalFlagIsDowngraded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.newTicket(t, f.carol, "Password reset")

	comment, err := f.comments.AddComment(ctx, f.carol, ticket.ID, "Secret note?", true)
	require.NoError(t, err)
	assert.False(t, comment.Internal)

	visible, err := f.comments.VisibleComments(ctx, f.carol, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}

func TestCommentRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.newTicket(t, f.carol, "Monitor flicker")

	_, err := f.comments.AddComment(ctx, f.dave, ticket.ID, "me too", false)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = f.comments.VisibleComments(ctx, f.dave, ticket.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = f.comments.AddComment(ctx, f.carol, ticket.ID, "   ", false)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.comments.AddComment(ctx, f.alice, "missing", "hello", false)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestFilterVisiblePreservesOrder(t *testing.T) {
	comments := []domain.Comment{
		{ID: "3", Internal: false},
		{ID: "2", Internal: true},
		{ID: "1", Internal: false},
	}
	customer := FilterVisible(comments, domain.RoleCustomer)
	require.Len(t, customer, 2)
	assert.Equal(t, "3", customer[0].ID)
	assert.Equal(t, "1", customer[1].ID)

	assert.Len(t, FilterVisible(comments, domain.RoleSupportAgent), 3)
	assert.Len(t, FilterVisible(comments, domain.RoleAdministrator), 3)
	assert.Empty(t, FilterVisible(nil, domain.RoleCustomer))
}
