// Package repositorytest provides in-memory repositories for tests.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-mesh/internal/domain"
	"github.com/spec-kit/support-mesh/internal/repository"
)

// Users is an in-memory repository.UserRepository.
type Users struct {
	mu    sync.Mutex
	byID  map[string]domain.User
	email map[string]string
}

// NewUsers returns an empty store.
func NewUsers() *Users {
	return &Users{byID: map[string]domain.User{}, email: map[string]string{}}
}

var _ repository.UserRepository = (*Users)(nil)

func (m *Users) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = *user
	m.email[user.Email] = user.ID
	return nil
}

func (m *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (m *Users) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	id, ok := m.email[email]
	m.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

func (m *Users) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (m *Users) GetEmailByID(ctx context.Context, id string) (string, error) {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

// SetRole changes a stored user's role.
func (m *Users) SetRole(id string, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		u.Role = role
		m.byID[id] = u
	}
}

// Tickets is an in-memory repository.TicketRepository.
type Tickets struct {
	mu      sync.Mutex
	tickets map[string]domain.SupportTicket
	lists   int
}

// NewTickets returns an empty store.
func NewTickets() *Tickets {
	return &Tickets{tickets: map[string]domain.SupportTicket{}}
}

var _ repository.TicketRepository = (*Tickets)(nil)

func (m *Tickets) Create(_ context.Context, t *domain.SupportTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	m.tickets[t.ID] = *t
	return nil
}

func (m *Tickets) Update(_ context.Context, t *domain.SupportTicket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	t.UpdatedAt = time.Now().UTC()
	m.tickets[t.ID] = *t
	return nil
}

func (m *Tickets) GetByID(_ context.Context, id string) (*domain.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (m *Tickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.SupportTicket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	var out []domain.SupportTicket
	for _, t := range m.tickets {
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Lists returns how many times List was called.
func (m *Tickets) Lists() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}
