package domain

import (
	"time"
	"unicode/utf8"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TicketPriorities lists every priority, lowest first.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	for _, candidate := range TicketPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

const (
	TitleMaxLength       = 100
	DescriptionMinLength = 10
)

// Ticket is the aggregate for support requests. Version starts at 1 and is
// incremented by every committed mutation.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	CategoryID  *string
	CreatorID   string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// IsAssigned reports whether an agent holds the ticket.
func (t *Ticket) IsAssigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}

// Touch records a mutation: the version moves forward and updated_at never
// goes backwards.
func (t *Ticket) Touch(now time.Time) {
	if now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	}
	t.Version++
}

// TitleViolation returns the violated constraint for a trimmed title, or "".
func TitleViolation(title string) string {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return "title must not be empty"
	case n > TitleMaxLength:
		return "title must be at most 100 characters"
	}
	return ""
}

// DescriptionViolation returns the violated constraint for a trimmed
// description, or "".
func DescriptionViolation(description string) string {
	if utf8.RuneCountInString(description) < DescriptionMinLength {
		return "description must be at least 10 characters"
	}
	return ""
}

// AllowedTransitions is the reviewable status policy. Support may reopen a
// closed ticket or close an open one directly, so every status reaches every
// other status. Tightening the lifecycle means editing this table.
var AllowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusOpen, TicketStatusResolved, TicketStatusClosed},
	TicketStatusResolved:   {TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed},
	TicketStatusClosed:     {TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved},
}

// CanTransition reports whether current may move to next.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range AllowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
