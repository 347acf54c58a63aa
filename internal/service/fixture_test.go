package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/repository/memory"
)

type fixture struct {
	store *memory.Store

	tickets     *TicketService
	comments    *CommentService
	assignments *AssignmentService
	dashboard   *DashboardService
	categories  *CategoryService
	users       *UserService

	tokens   *auth.TokenManager
	resolver *auth.Resolver

	admin    domain.Actor
	alice    domain.Actor
	bob      domain.Actor
	carol    domain.Actor
	dave     domain.Actor
	recorder *eventRecorder
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	recorder := &eventRecorder{}
	events.SubscribeAll(dispatcher, recorder.handle)
	metrics := observability.NewMetrics()
	sessionStore := auth.NewMemorySessionStore()
	tokens := auth.NewTokenManager("fixture-secret", "helpdesk", 15)
	sessions := auth.NewSessionClaimsSource(tokens, sessionStore)

	f := &fixture{
		store:    store,
		recorder: recorder,
		tokens:   tokens,
		resolver: auth.NewResolver(sessions, sessionStore, time.Minute, nil),
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:   store.Tickets(),
			CategoryRepo: store.Categories(),
			Dispatcher:   dispatcher,
			Metrics:      metrics,
		}),
		comments: NewCommentService(CommentDependencies{
			TicketRepo:  store.Tickets(),
			CommentRepo: store.Comments(),
			Dispatcher:  dispatcher,
			Metrics:     metrics,
		}),
		assignments: NewAssignmentService(AssignmentDependencies{
			TicketRepo: store.Tickets(),
			UserRepo:   store.Users(),
			Dispatcher: dispatcher,
			Metrics:    metrics,
		}),
		dashboard: NewDashboardService(DashboardDependencies{
			TicketRepo:   store.Tickets(),
			UserRepo:     store.Users(),
			CategoryRepo: store.Categories(),
			RecentWindow: 3,
			Metrics:      metrics,
		}),
		categories: NewCategoryService(CategoryDependencies{
			CategoryRepo: store.Categories(),
			Dispatcher:   dispatcher,
			Metrics:      metrics,
		}),
		users: NewUserService(UserDependencies{
			UserRepo:   store.Users(),
			Sessions:   sessions,
			BcryptCost: 4,
			Metrics:    metrics,
		}),
	}
	f.admin = f.addUser(t, "root", domain.RoleAdministrator)
	f.alice = f.addUser(t, "alice", domain.RoleSupportAgent)
	f.bob = f.addUser(t, "bob", domain.RoleSupportAgent)
	f.carol = f.addUser(t, "carol", domain.RoleCustomer)
	f.dave = f.addUser(t, "dave", domain.RoleCustomer)
	return f
}

func (f *fixture) addUser(t *testing.T, username string, role domain.Role) domain.Actor {
	t.Helper()
	user := &domain.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	return domain.Actor{ID: user.ID, Role: role}
}

func (f *fixture) newTicket(t *testing.T, owner domain.Actor, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), owner, TicketCreateInput{
		Title:       title,
		Description: "Something is broken and needs a look",
	})
	require.NoError(t, err)
	return ticket
}

func ptr[T any](v T) *T { return &v }
