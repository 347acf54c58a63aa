package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/policy"
	"github.com/deskline/helpdesk/internal/repository"
)

// CommentService owns the ticket thread and its visibility rules.
type CommentService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	guard      guard
}

// CommentDependencies bundles collaborators for the comment service.
type CommentDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewCommentService creates the service.
func NewCommentService(deps CommentDependencies) *CommentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		guard:      newGuard(deps.Metrics, logger),
	}
}

// FilterVisible drops internal comments for roles that may not read them.
// Order is preserved.
func FilterVisible(comments []domain.Comment, role domain.Role) []domain.Comment {
	if policy.Authorize(role, policy.ActionViewInternalComment, policy.ResourceContext{}) == policy.Permit {
		return comments
	}
	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if !comment.Internal {
			visible = append(visible, comment)
		}
	}
	return visible
}

// VisibleComments returns the ticket thread, newest first, as actor may see it.
func (s *CommentService) VisibleComments(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}
	if err := s.guard.require(actor, policy.ActionViewTicket, ticket.CreatorID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapStoreError(err, "comment", "")
	}
	return FilterVisible(comments, actor.Role), nil
}

// AddComment appends a comment to the thread. A request for an internal
// comment from a role that may not post one is downgraded to a public
// comment rather than rejected.
func (s *CommentService) AddComment(ctx context.Context, actor domain.Actor, ticketID, content string, requestedInternal bool) (*domain.Comment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}
	if err := s.guard.require(actor, policy.ActionPostComment, ticket.CreatorID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validation("content", "content must not be empty")
	}

	internal := requestedInternal &&
		policy.Authorize(actor.Role, policy.ActionPostInternalComment, policy.ResourceContext{ActorID: actor.ID, OwnerID: ticket.CreatorID}) == policy.Permit
	if requestedInternal && !internal {
		s.logger.Debug("internal flag downgraded",
			zap.String("ticket_id", ticket.ID),
			zap.String("actor_id", actor.ID))
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Content:  content,
		Internal: internal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, mapStoreError(err, "ticket", ticketID)
	}

	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventTicketCommentAdded, ticket.ID, actor, events.TicketCommentAddedPayload{
		CommentID:   comment.ID,
		Internal:    comment.Internal,
		BodyPreview: stringPreview(comment.Content, 120),
	}))
	return comment, nil
}
