package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/policy"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// Page bounds a listing.
type Page struct {
	Limit  int
	Offset int
}

// guard checks the policy table and records denials.
type guard struct {
	metrics *observability.Metrics
	logger  *zap.Logger
}

func newGuard(metrics *observability.Metrics, logger *zap.Logger) guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return guard{metrics: metrics, logger: logger}
}

func (g guard) require(actor domain.Actor, action policy.Action, ownerID string) error {
	err := policy.Require(actor, action, policy.ResourceContext{ActorID: actor.ID, OwnerID: ownerID})
	if err != nil {
		g.metrics.RecordDenial(string(action), string(actor.Role))
		g.logger.Info("authorization denied",
			zap.String("action", string(action)),
			zap.String("role", string(actor.Role)),
			zap.String("actor_id", actor.ID))
	}
	return err
}

// mapStoreError converts repository sentinels into domain errors. Anything
// unrecognised means the store itself failed.
func mapStoreError(err error, resource, id string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", map[string]any{resource: id})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict(resource+" was modified concurrently", map[string]any{resource + "_id": id})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewInternalError(err)
	}
	return apperrors.NewDependencyUnavailable(resource+" store", err)
}

func staleVersion(ticket *domain.Ticket, ifVersion *int64) error {
	if ifVersion == nil || *ifVersion == ticket.Version {
		return nil
	}
	return apperrors.NewConflict("ticket version is stale", map[string]any{
		"ticket_id":        ticket.ID,
		"expected_version": *ifVersion,
		"current_version":  ticket.Version,
	})
}

func versionConflict(ticketID string, expected int64) error {
	return apperrors.NewConflict("ticket was modified concurrently", map[string]any{
		"ticket_id":        ticketID,
		"expected_version": expected,
	})
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}

func stringPreview(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func validation(field, constraint string) error {
	return apperrors.NewValidationError(constraint, map[string]any{"field": field, "constraint": constraint})
}
