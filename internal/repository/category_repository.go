package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deskline/helpdesk/internal/domain"
)

// CategoryRepository manages category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Rename(ctx context.Context, id, name string) (*domain.Category, error)
	// Delete removes the category and detaches it from every ticket that
	// referenced it, bumping those tickets' versions. Returns the number of
	// detached tickets.
	Delete(ctx context.Context, id string) (int64, error)
	Count(ctx context.Context) (int, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (name)
        VALUES ($1)
        RETURNING id, created_at`
	return translate(r.pool.QueryRow(ctx, query, category.Name).Scan(&category.ID, &category.CreatedAt))
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if !validIDs(id) {
		return nil, ErrNotFound
	}
	const query = `SELECT id, name, created_at FROM categories WHERE id=$1`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, id).Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT id, name, created_at FROM categories ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
			return nil, translate(err)
		}
		result = append(result, category)
	}
	return result, translate(rows.Err())
}

func (r *categoryRepository) Rename(ctx context.Context, id, name string) (*domain.Category, error) {
	if !validIDs(id) {
		return nil, ErrNotFound
	}
	const query = `
        UPDATE categories SET name=$1 WHERE id=$2
        RETURNING id, name, created_at`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, name, id).Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) (int64, error) {
	if !validIDs(id) {
		return 0, ErrNotFound
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, translate(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	detached, err := tx.Exec(ctx, `
        UPDATE tickets SET category_id=NULL, updated_at=GREATEST(updated_at, NOW()), version=version+1
        WHERE category_id=$1`, id)
	if err != nil {
		return 0, translate(err)
	}
	deleted, err := tx.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return 0, translate(err)
	}
	if deleted.RowsAffected() == 0 {
		return 0, ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, translate(err)
	}
	return detached.RowsAffected(), nil
}

func (r *categoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return 0, translate(err)
	}
	return count, nil
}
