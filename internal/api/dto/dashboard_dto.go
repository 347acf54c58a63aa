package dto

import (
	"github.com/deskline/helpdesk/internal/policy"
	"github.com/deskline/helpdesk/internal/service"
)

// DashboardResponse is the aggregated view for the caller's scope.
type DashboardResponse struct {
	Scope      string             `json:"scope"`
	Total      int                `json:"total"`
	Assigned   int                `json:"assigned"`
	Unassigned int                `json:"unassigned"`
	ByStatus   map[string]int     `json:"by_status"`
	ByPriority map[string]int     `json:"by_priority"`
	Recent     []TicketResponse   `json:"recent"`
	Directory  *DirectoryResponse `json:"directory,omitempty"`
}

// DirectoryResponse is only present for administrators.
type DirectoryResponse struct {
	Users         int `json:"users"`
	SupportAgents int `json:"support_agents"`
	Categories    int `json:"categories"`
}

func NewDashboardResponse(s *service.DashboardSummary) DashboardResponse {
	resp := DashboardResponse{
		Scope:      "own",
		Total:      s.Total,
		Assigned:   s.Assigned,
		Unassigned: s.Unassigned,
		ByStatus:   make(map[string]int, len(s.ByStatus)),
		ByPriority: make(map[string]int, len(s.ByPriority)),
		Recent:     NewTicketResponses(s.Recent),
	}
	if s.Scope == policy.ScopeAll {
		resp.Scope = "all"
	}
	for status, n := range s.ByStatus {
		resp.ByStatus[string(status)] = n
	}
	for priority, n := range s.ByPriority {
		resp.ByPriority[string(priority)] = n
	}
	if s.Directory != nil {
		resp.Directory = &DirectoryResponse{
			Users:         s.Directory.Users,
			SupportAgents: s.Directory.SupportAgents,
			Categories:    s.Directory.Categories,
		}
	}
	return resp
}
