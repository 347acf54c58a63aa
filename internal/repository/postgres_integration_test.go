//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/persistence"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, cleanup := setupPostgres()
	testPool = pool
	code := m.Run()
	cleanup()
	os.Exit(code)
}

// setupPostgres connects to TEST_DB_DSN when set, otherwise starts a
// throwaway container, then applies the migrations.
func setupPostgres() (*pgxpool.Pool, func()) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	terminate := func() {}

	if dsn == "" {
		req := testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_USER":     "test",
				"POSTGRES_DB":       "helpdesk",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		}
		pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			log.Fatal(err)
		}
		host, err := pg.Host(ctx)
		if err != nil {
			log.Fatal(err)
		}
		port, err := pg.MappedPort(ctx, "5432")
		if err != nil {
			log.Fatal(err)
		}
		dsn = fmt.Sprintf("postgres://test:test@%s:%s/helpdesk?sslmode=disable", host, port.Port())
		terminate = func() { _ = pg.Terminate(ctx) }
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal(err)
	}
	if err := persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()); err != nil {
		log.Fatal(err)
	}
	return pool, func() {
		pool.Close()
		terminate()
	}
}

func seedUser(t *testing.T, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Username: "user-" + uuid.NewString(), PasswordHash: "x", Role: role}
	require.NoError(t, NewUserRepository(testPool).Create(context.Background(), user))
	return user
}

func seedTicket(t *testing.T, creatorID string, categoryID *string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Title:       "VPN drops",
		Description: "Disconnects every ten minutes",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityHigh,
		CreatorID:   creatorID,
		CategoryID:  categoryID,
	}
	require.NoError(t, NewTicketRepository(testPool).Create(context.Background(), ticket))
	return ticket
}

func TestPostgresTicketVersionedUpdate(t *testing.T) {
	ctx := context.Background()
	tickets := NewTicketRepository(testPool)
	customer := seedUser(t, domain.RoleCustomer)
	ticket := seedTicket(t, customer.ID, nil)
	assert.Equal(t, int64(1), ticket.Version)

	ticket.Status = domain.TicketStatusInProgress
	require.NoError(t, tickets.UpdateWithVersion(ctx, ticket, 1))
	assert.Equal(t, int64(2), ticket.Version)

	stale := *ticket
	stale.Status = domain.TicketStatusClosed
	assert.ErrorIs(t, tickets.UpdateWithVersion(ctx, &stale, 1), ErrVersionConflict)

	ghost := *ticket
	ghost.ID = uuid.NewString()
	assert.ErrorIs(t, tickets.UpdateWithVersion(ctx, &ghost, 2), ErrNotFound)

	ghost.ID = "not-a-uuid"
	assert.ErrorIs(t, tickets.UpdateWithVersion(ctx, &ghost, 2), ErrNotFound)

	stored, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
	assert.False(t, stored.UpdatedAt.Before(stored.CreatedAt))
}

func TestPostgresCategoryDeleteDetachesTickets(t *testing.T) {
	ctx := context.Background()
	categories := NewCategoryRepository(testPool)
	tickets := NewTicketRepository(testPool)
	customer := seedUser(t, domain.RoleCustomer)

	category := &domain.Category{Name: "Network " + uuid.NewString()[:8]}
	require.NoError(t, categories.Create(ctx, category))
	assert.ErrorIs(t, categories.Create(ctx, &domain.Category{Name: category.Name}), ErrDuplicate)

	first := seedTicket(t, customer.ID, &category.ID)
	second := seedTicket(t, customer.ID, &category.ID)

	detached, err := categories.Delete(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detached)

	for _, id := range []string{first.ID, second.ID} {
		stored, err := tickets.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, stored.CategoryID)
		assert.Equal(t, int64(2), stored.Version)
	}

	_, err = categories.Delete(ctx, category.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresTicketCreateWithMissingCategory(t *testing.T) {
	customer := seedUser(t, domain.RoleCustomer)
	missing := uuid.NewString()
	ticket := &domain.Ticket{
		Title:       "Orphan",
		Description: "References a category that is gone",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityLow,
		CreatorID:   customer.ID,
		CategoryID:  &missing,
	}
	err := NewTicketRepository(testPool).Create(context.Background(), ticket)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUserDeactivation(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(testPool)
	agent := seedUser(t, domain.RoleSupportAgent)

	now := time.Now().UTC().Truncate(time.Microsecond)
	agent.DeactivatedAt = &now
	require.NoError(t, users.Update(ctx, agent))

	stored, err := users.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DeactivatedAt)
	assert.True(t, now.Equal(*stored.DeactivatedAt))
	assert.False(t, stored.Active())

	role := domain.RoleSupportAgent
	active, err := users.List(ctx, UserFilter{Role: &role, ActiveOnly: true, Limit: 100})
	require.NoError(t, err)
	for _, u := range active {
		assert.NotEqual(t, agent.ID, u.ID)
	}
}
