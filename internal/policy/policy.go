// Package policy holds the role/action permission table. Every service asks
// it before acting; nothing else decides what a role may do.
package policy

import (
	"github.com/deskline/helpdesk/internal/domain"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// Action identifies a guarded operation.
type Action string

const (
	ActionCreateTicket        Action = "ticket:create"
	ActionViewTicket          Action = "ticket:view"
	ActionListTickets         Action = "ticket:list"
	ActionChangeStatus        Action = "ticket:change_status"
	ActionAssignTicket        Action = "ticket:assign"
	ActionPostComment         Action = "comment:post"
	ActionPostInternalComment Action = "comment:post_internal"
	ActionViewInternalComment Action = "comment:view_internal"
	ActionManageUsers         Action = "users:manage"
	ActionManageCategories    Action = "categories:manage"
	ActionViewDashboard       Action = "dashboard:view"
)

// Actions lists every guarded action.
var Actions = []Action{
	ActionCreateTicket,
	ActionViewTicket,
	ActionListTickets,
	ActionChangeStatus,
	ActionAssignTicket,
	ActionPostComment,
	ActionPostInternalComment,
	ActionViewInternalComment,
	ActionManageUsers,
	ActionManageCategories,
	ActionViewDashboard,
}

// Decision is the outcome of an authorization check.
type Decision int

const (
	Deny Decision = iota
	Permit
)

func (d Decision) String() string {
	if d == Permit {
		return "permit"
	}
	return "deny"
}

// ResourceContext describes the resource being acted on. OwnerID is the
// ticket creator; it is empty for actions without a target ticket.
type ResourceContext struct {
	ActorID string
	OwnerID string
}

func (rc ResourceContext) ownedByActor() bool {
	return rc.ActorID != "" && rc.ActorID == rc.OwnerID
}

type rule int

const (
	never rule = iota
	always
	ownOnly
)

var table = map[domain.Role]map[Action]rule{
	domain.RoleCustomer: {
		ActionCreateTicket:        always,
		ActionViewTicket:          ownOnly,
		ActionListTickets:         always,
		ActionChangeStatus:        never,
		ActionAssignTicket:        never,
		ActionPostComment:         ownOnly,
		ActionPostInternalComment: never,
		ActionViewInternalComment: never,
		ActionManageUsers:         never,
		ActionManageCategories:    never,
		ActionViewDashboard:       always,
	},
	domain.RoleSupportAgent: {
		ActionCreateTicket:        never,
		ActionViewTicket:          always,
		ActionListTickets:         always,
		ActionChangeStatus:        always,
		ActionAssignTicket:        never,
		ActionPostComment:         always,
		ActionPostInternalComment: always,
		ActionViewInternalComment: always,
		ActionManageUsers:         never,
		ActionManageCategories:    never,
		ActionViewDashboard:       always,
	},
	domain.RoleAdministrator: {
		ActionCreateTicket:        never,
		ActionViewTicket:          always,
		ActionListTickets:         always,
		ActionChangeStatus:        always,
		ActionAssignTicket:        always,
		ActionPostComment:         always,
		ActionPostInternalComment: always,
		ActionViewInternalComment: always,
		ActionManageUsers:         always,
		ActionManageCategories:    always,
		ActionViewDashboard:       always,
	},
}

// Authorize decides whether role may perform action on rc. Unknown roles and
// actions are denied.
func Authorize(role domain.Role, action Action, rc ResourceContext) Decision {
	rules, ok := table[role]
	if !ok {
		return Deny
	}
	switch rules[action] {
	case always:
		return Permit
	case ownOnly:
		if rc.ownedByActor() {
			return Permit
		}
	}
	return Deny
}

// Require returns an authorization error when the actor may not perform
// action on rc.
func Require(actor domain.Actor, action Action, rc ResourceContext) error {
	if rc.ActorID == "" {
		rc.ActorID = actor.ID
	}
	if Authorize(actor.Role, action, rc) == Permit {
		return nil
	}
	return apperrors.NewAuthorizationError(string(action), string(actor.Role))
}

// Scope bounds which tickets a role may list.
type Scope int

const (
	ScopeOwn Scope = iota
	ScopeAll
)

// ListScope returns the listing scope for role. Roles that may view any
// ticket list all of them; the rest only see their own.
func ListScope(role domain.Role) Scope {
	if Authorize(role, ActionViewTicket, ResourceContext{}) == Permit {
		return ScopeAll
	}
	return ScopeOwn
}
