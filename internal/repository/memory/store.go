// Package memory provides an in-process implementation of the repository
// interfaces. It backs the memory store driver and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deskline/helpdesk/internal/domain"
	"github.com/deskline/helpdesk/internal/repository"
)

// Store holds every record behind a single lock so cross-entity operations
// (category detach, snapshots) are atomic.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	seq int64

	tickets    map[string]*ticketRow
	comments   map[string][]commentRow
	categories map[string]domain.Category
	users      map[string]domain.User
}

type ticketRow struct {
	ticket domain.Ticket
	seq    int64
}

type commentRow struct {
	comment domain.Comment
	seq     int64
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		tickets:    make(map[string]*ticketRow),
		comments:   make(map[string][]commentRow),
		categories: make(map[string]domain.Category),
		users:      make(map[string]domain.User),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tickets exposes the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketStore{s} }

// Comments exposes the comment repository view.
func (s *Store) Comments() repository.CommentRepository { return commentStore{s} }

// Categories exposes the category repository view.
func (s *Store) Categories() repository.CategoryRepository { return categoryStore{s} }

// Users exposes the user repository view.
func (s *Store) Users() repository.UserRepository { return userStore{s} }

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.CategoryID != nil {
		v := *t.CategoryID
		t.CategoryID = &v
	}
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		t.AssigneeID = &v
	}
	return t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// tickets

type ticketStore struct{ s *Store }

func (r ticketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if ticket.CategoryID != nil {
		if _, ok := r.s.categories[*ticket.CategoryID]; !ok {
			return repository.ErrNotFound
		}
	}
	now := r.s.now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	ticket.Version = 1
	r.s.tickets[ticket.ID] = &ticketRow{ticket: cloneTicket(*ticket), seq: r.s.nextSeq()}
	return nil
}

func (r ticketStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := cloneTicket(row.ticket)
	return &t, nil
}

func (r ticketStore) UpdateWithVersion(_ context.Context, ticket *domain.Ticket, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if row.ticket.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	updated := cloneTicket(*ticket)
	updated.CreatedAt = row.ticket.CreatedAt
	updated.CreatorID = row.ticket.CreatorID
	updated.UpdatedAt = row.ticket.UpdatedAt
	updated.Version = row.ticket.Version
	updated.Touch(r.s.now())
	row.ticket = updated

	ticket.UpdatedAt = updated.UpdatedAt
	ticket.Version = updated.Version
	return nil
}

func (r ticketStore) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matches := r.s.sortedTickets(func(t *domain.Ticket) bool { return matchTicket(t, filter) })
	limit, offset := filter.Limit, filter.Offset
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matches) {
		return []domain.Ticket{}, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], nil
}

func (r ticketStore) Snapshot(_ context.Context, creatorID *string) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.sortedTickets(func(t *domain.Ticket) bool {
		return creatorID == nil || t.CreatorID == *creatorID
	}), nil
}

// sortedTickets must be called with the lock held.
func (s *Store) sortedTickets(keep func(*domain.Ticket) bool) []domain.Ticket {
	rows := make([]*ticketRow, 0, len(s.tickets))
	for _, row := range s.tickets {
		if keep(&row.ticket) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].ticket.CreatedAt.Equal(rows[j].ticket.CreatedAt) {
			return rows[i].ticket.CreatedAt.After(rows[j].ticket.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	result := make([]domain.Ticket, len(rows))
	for i, row := range rows {
		result[i] = cloneTicket(row.ticket)
	}
	return result
}

func matchTicket(t *domain.Ticket, f repository.TicketFilter) bool {
	if f.CreatorID != nil && t.CreatorID != *f.CreatorID {
		return false
	}
	if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.Unassigned && t.IsAssigned() {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	return true
}

func containsStatus(list []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, v domain.TicketPriority) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// comments

type commentStore struct{ s *Store }

func (r commentStore) Create(_ context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	comment.ID = uuid.NewString()
	comment.CreatedAt = r.s.now()
	r.s.comments[comment.TicketID] = append(r.s.comments[comment.TicketID], commentRow{comment: *comment, seq: r.s.nextSeq()})
	return nil
}

func (r commentStore) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := append([]commentRow(nil), r.s.comments[ticketID]...)
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].comment.CreatedAt.Equal(rows[j].comment.CreatedAt) {
			return rows[i].comment.CreatedAt.After(rows[j].comment.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	result := make([]domain.Comment, len(rows))
	for i, row := range rows {
		result[i] = row.comment
	}
	return result, nil
}

// categories

type categoryStore struct{ s *Store }

func (r categoryStore) nameTaken(name, exceptID string) bool {
	for id, c := range r.s.categories {
		if id != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r categoryStore) Create(_ context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(category.Name, "") {
		return repository.ErrDuplicate
	}
	category.ID = uuid.NewString()
	category.CreatedAt = r.s.now()
	r.s.categories[category.ID] = *category
	return nil
}

func (r categoryStore) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r categoryStore) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r categoryStore) Rename(_ context.Context, id, name string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.nameTaken(name, id) {
		return nil, repository.ErrDuplicate
	}
	c.Name = name
	r.s.categories[id] = c
	return &c, nil
}

func (r categoryStore) Delete(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return 0, repository.ErrNotFound
	}
	now := r.s.now()
	var detached int64
	for _, row := range r.s.tickets {
		if row.ticket.CategoryID != nil && *row.ticket.CategoryID == id {
			row.ticket.CategoryID = nil
			row.ticket.Touch(now)
			detached++
		}
	}
	delete(r.s.categories, id)
	return detached, nil
}

func (r categoryStore) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.categories), nil
}

// users

type userStore struct{ s *Store }

func (r userStore) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

func (r userStore) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.Role = user.Role
	existing.DeactivatedAt = cloneTime(user.DeactivatedAt)
	existing.UpdatedAt = r.s.now()
	r.s.users[user.ID] = existing
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r userStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userStore) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.ActiveOnly && !u.Active() {
			continue
		}
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })

	limit, offset := filter.Limit, filter.Offset
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return []domain.User{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r userStore) CountByRole(_ context.Context) (map[domain.Role]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[domain.Role]int, len(domain.Roles))
	for _, u := range r.s.users {
		counts[u.Role]++
	}
	return counts, nil
}
