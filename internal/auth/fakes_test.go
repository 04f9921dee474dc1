package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firstindallas/backend/internal/models"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[uuid.UUID]*models.User{}} }

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUsers) GetByGoogleSubject(_ context.Context, subject string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.GoogleSubject != nil && *u.GoogleSubject == subject {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, p CreateUserParams) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == p.Email {
			return nil, ErrEmailTaken
		}
	}
	u := &models.User{ID: uuid.New(), Email: p.Email, Password: p.PasswordHash, FullName: p.FullName, Role: p.Role, CreatedAt: time.Now()}
	if p.GoogleSubject != "" {
		sub := p.GoogleSubject
		u.GoogleSubject = &sub
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) LinkGoogle(_ context.Context, id uuid.UUID, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.GoogleSubject = &subject
	return nil
}

type memOrganizers struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]string
}

func newMemOrganizers() *memOrganizers { return &memOrganizers{profiles: map[uuid.UUID]string{}} }

func (m *memOrganizers) EnsureProfile(_ context.Context, u *models.User, org string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[u.ID]; ok {
		return false, nil
	}
	m.profiles[u.ID] = org
	return true, nil
}

type fakeGoogle struct {
	user *GoogleUser
	err  error
	code string
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Exchange(_ context.Context, code string) (*GoogleUser, error) {
	f.code = code
	return f.user, f.err
}

type fakeRevoker struct {
	revoked []string
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	f.revoked = append(f.revoked, tokenID)
	return nil
}
