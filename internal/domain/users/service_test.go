package users

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cvisual/server/internal/auth"
	"github.com/cvisual/server/internal/domain/content"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	users   map[string]User
	touched map[string]time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]User{}, touched: map[string]time.Time{}}
}

func (m *memoryRepo) GetByLogin(_ context.Context, login string) (*User, error) {
	for _, u := range m.users {
		if u.Username == login || u.Email == login {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (m *memoryRepo) Create(_ context.Context, user User) (*User, error) {
	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, ErrUsernameTaken
		}
		if u.Email == user.Email {
			return nil, ErrEmailTaken
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.users[user.ID] = user
	return &user, nil
}

func (m *memoryRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	m.touched[id] = at
	return nil
}

func newUser(t *testing.T, svc *Service) *User {
	t.Helper()
	user, err := svc.Create(context.Background(), CreateParams{
		Username: "admin",
		Email:    "Admin@CVisual.ht",
		Password: "correct horse",
		Role:     auth.RoleAdmin,
	})
	require.NoError(t, err)
	return user
}

func TestCreateHashesPassword(t *testing.T) {
	svc := NewService(newMemoryRepo(), zerolog.Nop())
	user := newUser(t, svc)

	require.Equal(t, "admin@cvisual.ht", user.Email)
	require.NotEqual(t, "correct horse", user.PasswordHash)
	require.NoError(t, auth.CheckPassword(user.PasswordHash, "correct horse"))
	require.True(t, user.IsActive)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), zerolog.Nop())

	_, err := svc.Create(context.Background(), CreateParams{Username: "admin", Email: "a@b.co", Password: "short", Role: auth.RoleAdmin})
	require.True(t, content.IsValidation(err))

	_, err = svc.Create(context.Background(), CreateParams{Username: "admin", Email: "a@b.co", Password: "long enough", Role: "owner"})
	require.True(t, content.IsValidation(err))

	_, err = svc.Create(context.Background(), CreateParams{Username: "ad", Email: "a@b.co", Password: "long enough", Role: auth.RoleAdmin})
	require.True(t, content.IsValidation(err))
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, zerolog.Nop())
	created := newUser(t, svc)

	user, err := svc.Authenticate(context.Background(), "admin", "correct horse")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.NotNil(t, user.LastLoginAt)
	require.Contains(t, repo.touched, created.ID)

	_, err = svc.Authenticate(context.Background(), "admin@cvisual.ht", "correct horse")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "ghost", "correct horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactive(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, zerolog.Nop())
	created := newUser(t, svc)
	u := repo.users[created.ID]
	u.IsActive = false
	repo.users[created.ID] = u

	_, err := svc.Authenticate(context.Background(), "admin", "correct horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, zerolog.Nop())
	params := CreateParams{Username: "owner", Email: "owner@cvisual.ht", Password: "bootstrap-pass"}

	created, err := svc.Bootstrap(context.Background(), params)
	require.NoError(t, err)
	require.True(t, created)

	created, err = svc.Bootstrap(context.Background(), params)
	require.NoError(t, err)
	require.False(t, created)
	require.Len(t, repo.users, 1)
	for _, u := range repo.users {
		require.Equal(t, auth.RoleSuperAdmin, u.Role)
	}
}
