package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/policy"
	"github.com/deskline/helpdesk/internal/repository"
	apperrors "github.com/deskline/helpdesk/pkg/util"
)

// CategoryService administers ticket categories.
type CategoryService struct {
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	guard      guard
}

// CategoryDependencies bundles collaborators for the category service.
type CategoryDependencies struct {
	CategoryRepo repository.CategoryRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewCategoryService creates the service.
func NewCategoryService(deps CategoryDependencies) *CategoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		guard:      newGuard(deps.Metrics, logger),
	}
}

func normalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", validation("name", "name must not be empty")
	case utf8.RuneCountInString(name) > domain.CategoryNameMaxLength:
		return "", validation("name", "name must be at most 50 characters")
	}
	return name, nil
}

// ListCategories is open to every authenticated role so customers can file
// tickets against a category.
func (s *CategoryService) ListCategories(ctx context.Context, _ domain.Actor) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, mapStoreError(err, "category", "")
	}
	return categories, nil
}

// GetCategory fetches one category.
func (s *CategoryService) GetCategory(ctx context.Context, _ domain.Actor, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "category", id)
	}
	return category, nil
}

// CreateCategory adds a category. Names are unique ignoring case.
func (s *CategoryService) CreateCategory(ctx context.Context, actor domain.Actor, name string) (*domain.Category, error) {
	if err := s.guard.require(actor, policy.ActionManageCategories, ""); err != nil {
		return nil, err
	}
	name, err := normalizeCategoryName(name)
	if err != nil {
		return nil, err
	}
	category := &domain.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, mapCategoryError(err, name)
	}
	s.logger.Info("category created", zap.String("category_id", category.ID), zap.String("name", name))
	return category, nil
}

// RenameCategory changes a category's name.
func (s *CategoryService) RenameCategory(ctx context.Context, actor domain.Actor, id, name string) (*domain.Category, error) {
	if err := s.guard.require(actor, policy.ActionManageCategories, ""); err != nil {
		return nil, err
	}
	name, err := normalizeCategoryName(name)
	if err != nil {
		return nil, err
	}
	category, err := s.categories.Rename(ctx, id, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, mapStoreError(err, "category", id)
		}
		return nil, mapCategoryError(err, name)
	}
	return category, nil
}

// DeleteCategory removes a category and detaches it from its tickets.
func (s *CategoryService) DeleteCategory(ctx context.Context, actor domain.Actor, id string) error {
	if err := s.guard.require(actor, policy.ActionManageCategories, ""); err != nil {
		return err
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return mapStoreError(err, "category", id)
	}
	detached, err := s.categories.Delete(ctx, id)
	if err != nil {
		return mapStoreError(err, "category", id)
	}
	s.logger.Info("category deleted",
		zap.String("category_id", id),
		zap.Int64("detached_tickets", detached))
	publishEvent(ctx, s.dispatcher, events.NewEvent(events.EventCategoryDeleted, "", actor, events.CategoryDeletedPayload{
		CategoryID:      id,
		Name:            category.Name,
		DetachedTickets: detached,
	}))
	return nil
}

func mapCategoryError(err error, name string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict("category name already exists", map[string]any{"name": name})
	}
	return mapStoreError(err, "category", "")
}
