package seed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cvisual/server/internal/auth"
	"github.com/cvisual/server/internal/config"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubOfferingRepo struct {
	items []offerings.Offering
}

func (s *stubOfferingRepo) List(context.Context, offerings.Filters) ([]offerings.Offering, error) {
	return s.items, nil
}

func (s *stubOfferingRepo) GetByID(_ context.Context, id string) (*offerings.Offering, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, offerings.ErrNotFound
}

func (s *stubOfferingRepo) Count(context.Context) (int, error) {
	return len(s.items), nil
}

func (s *stubOfferingRepo) Create(_ context.Context, offering offerings.Offering) (*offerings.Offering, error) {
	offering.ID = fmt.Sprintf("svc-%d", len(s.items)+1)
	s.items = append(s.items, offering)
	return &offering, nil
}

func (s *stubOfferingRepo) Update(context.Context, string, func(*offerings.Offering) error) (*offerings.Offering, error) {
	return nil, offerings.ErrNotFound
}

func (s *stubOfferingRepo) Delete(context.Context, string) error {
	return offerings.ErrNotFound
}

type stubUserRepo struct {
	users []users.User
}

func (s *stubUserRepo) GetByLogin(_ context.Context, login string) (*users.User, error) {
	for i := range s.users {
		if s.users[i].Username == login {
			return &s.users[i], nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (s *stubUserRepo) GetByID(context.Context, string) (*users.User, error) {
	return nil, users.ErrUserNotFound
}

func (s *stubUserRepo) Create(_ context.Context, user users.User) (*users.User, error) {
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return nil, users.ErrUsernameTaken
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(s.users)+1)
	s.users = append(s.users, user)
	return &user, nil
}

func (s *stubUserRepo) TouchLastLogin(context.Context, string, time.Time) error {
	return nil
}

func newSeeder() (Seeder, *stubOfferingRepo, *stubUserRepo) {
	offeringRepo := &stubOfferingRepo{}
	userRepo := &stubUserRepo{}
	return Seeder{
		Users:     users.NewService(userRepo, zerolog.Nop()),
		Offerings: offerings.NewService(offeringRepo, zerolog.Nop()),
		Logger:    zerolog.Nop(),
	}, offeringRepo, userRepo
}

func TestDefaultServices(t *testing.T) {
	services, err := DefaultServices()
	require.NoError(t, err)
	require.Len(t, services, 5)
	require.Equal(t, "Création de Sites Web", services[0].Title)
	require.Equal(t, "25 000 HTG", services[0].Pricing)
	require.Equal(t, "#website-creation", services[0].DetailsAnchor)
	require.Equal(t, 4, services[4].OrderPosition)
}

func TestDecodeServicesRejectsUnknownKeys(t *testing.T) {
	_, err := decodeServices([]byte("services:\n  - name: Photo\n"))
	require.Error(t, err)
}

func TestRunIsIdempotent(t *testing.T) {
	seeder, offeringRepo, userRepo := newSeeder()
	admin := config.AdminBootstrapConfig{Username: "admin", Password: "s3cret-pass", Email: "admin@cvisual.ht"}

	result, err := seeder.Run(context.Background(), admin)
	require.NoError(t, err)
	require.True(t, result.AdminCreated)
	require.Equal(t, 5, result.ServicesCreated)
	require.Len(t, offeringRepo.items, 5)
	require.True(t, offeringRepo.items[0].IsActive)
	require.Equal(t, auth.RoleSuperAdmin, userRepo.users[0].Role)

	result, err = seeder.Run(context.Background(), admin)
	require.NoError(t, err)
	require.False(t, result.AdminCreated)
	require.Zero(t, result.ServicesCreated)
	require.Len(t, offeringRepo.items, 5)
	require.Len(t, userRepo.users, 1)
}

func TestBootstrapAdminSkippedWithoutCredentials(t *testing.T) {
	seeder, _, userRepo := newSeeder()

	created, err := seeder.BootstrapAdmin(context.Background(), config.AdminBootstrapConfig{Username: "admin"})
	require.NoError(t, err)
	require.False(t, created)
	require.Empty(t, userRepo.users)
}
