// Package seed loads the initial administrator and the default service
// catalogue into an empty database.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"

	"github.com/cvisual/server/internal/auth"
	"github.com/cvisual/server/internal/config"
	"github.com/cvisual/server/internal/domain/offerings"
	"github.com/cvisual/server/internal/domain/users"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed default_services.yaml
var defaultServicesYAML []byte

type servicesFile struct {
	Services []offerings.Input `yaml:"services"`
}

// DefaultServices decodes the embedded service catalogue.
func DefaultServices() ([]offerings.Input, error) {
	return decodeServices(defaultServicesYAML)
}

func decodeServices(data []byte) ([]offerings.Input, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var file servicesFile
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode default services: %w", err)
	}
	return file.Services, nil
}

// Result reports what a seed run created.
type Result struct {
	AdminCreated    bool
	ServicesCreated int
}

type Seeder struct {
	Users     *users.Service
	Offerings *offerings.Service
	Logger    zerolog.Logger
}

// Run is safe to repeat: an existing admin or any existing service skips
// the corresponding step.
func (s Seeder) Run(ctx context.Context, admin config.AdminBootstrapConfig) (Result, error) {
	var result Result

	created, err := s.BootstrapAdmin(ctx, admin)
	if err != nil {
		return result, err
	}
	result.AdminCreated = created

	defaults, err := DefaultServices()
	if err != nil {
		return result, err
	}
	result.ServicesCreated, err = s.Offerings.SeedDefaults(ctx, defaults)
	if err != nil {
		return result, fmt.Errorf("seed services: %w", err)
	}
	return result, nil
}

// BootstrapAdmin creates the configured super admin. Nothing happens when
// no username or password is configured.
func (s Seeder) BootstrapAdmin(ctx context.Context, admin config.AdminBootstrapConfig) (bool, error) {
	if admin.Username == "" || admin.Password == "" {
		s.Logger.Debug().Msg("admin bootstrap not configured")
		return false, nil
	}
	email := admin.Email
	if email == "" {
		email = admin.Username + "@cvisual.local"
	}
	created, err := s.Users.Bootstrap(ctx, users.CreateParams{
		Username: admin.Username,
		Email:    email,
		Password: admin.Password,
		FullName: "Administrator",
		Role:     auth.RoleSuperAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return created, nil
}
