package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTitleViolation(t *testing.T) {
	tests := []struct {
		name  string
		title string
		ok    bool
	}{
		{"empty", "", false},
		{"one char", "a", true},
		{"exactly 100", strings.Repeat("x", 100), true},
		{"101", strings.Repeat("x", 101), false},
		{"100 multibyte runes", strings.Repeat("é", 100), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, TitleViolation(tt.title) == "")
		})
	}
}

func TestDescriptionViolation(t *testing.T) {
	assert.NotEmpty(t, DescriptionViolation(strings.Repeat("d", 9)))
	assert.Empty(t, DescriptionViolation(strings.Repeat("d", 10)))
	assert.NotEmpty(t, DescriptionViolation(""))
}

func TestAllowedTransitionsArePermissive(t *testing.T) {
	for _, from := range TicketStatuses {
		for _, to := range TicketStatuses {
			if from == to {
				assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
				continue
			}
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(TicketStatusOpen, TicketStatus("ARCHIVED")))
}

func TestTouchIsMonotonic(t *testing.T) {
	now := time.Now()
	ticket := &Ticket{UpdatedAt: now, Version: 1}

	ticket.Touch(now.Add(-time.Hour))
	assert.Equal(t, now, ticket.UpdatedAt)
	assert.Equal(t, int64(2), ticket.Version)

	later := now.Add(time.Minute)
	ticket.Touch(later)
	assert.Equal(t, later, ticket.UpdatedAt)
	assert.Equal(t, int64(3), ticket.Version)
}

func TestHighestRole(t *testing.T) {
	assert.Equal(t, RoleCustomer, HighestRole(nil))
	assert.Equal(t, RoleCustomer, HighestRole([]Role{"ROOT"}))
	assert.Equal(t, RoleSupportAgent, HighestRole([]Role{RoleCustomer, RoleSupportAgent}))
	assert.Equal(t, RoleAdministrator, HighestRole([]Role{RoleAdministrator, RoleSupportAgent, "bogus"}))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, TicketStatusInProgress.Valid())
	assert.False(t, TicketStatus("In progress").Valid())
	assert.True(t, TicketPriorityCritical.Valid())
	assert.False(t, TicketPriority("URGENT").Valid())
	assert.True(t, RoleSupportAgent.Valid())
	assert.False(t, Role("").Valid())
}
