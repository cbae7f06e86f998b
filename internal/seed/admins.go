// Package seed loads initial data into the user directory at startup.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/MicroblogGo/internal/auth"
	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/internal/repository"
	apperrors "github.com/utafrali/MicroblogGo/pkg/errors"
	"github.com/utafrali/MicroblogGo/pkg/validator"
)

// Admin is one entry of the admins file.
type Admin struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name" validate:"required,notblank,max=100"`
}

// AdminSeeder creates verified admin accounts from a JSON file.
type AdminSeeder struct {
	users  repository.UserRepository
	hasher *auth.PasswordHasher
	logger *slog.Logger
	now    func() time.Time
}

// NewAdminSeeder creates a new admin seeder.
func NewAdminSeeder(users repository.UserRepository, hasher *auth.PasswordHasher, logger *slog.Logger) *AdminSeeder {
	return &AdminSeeder{users: users, hasher: hasher, logger: logger, now: time.Now}
}

// SeedFile reads a JSON array of admins from path and creates the ones whose
// email is not registered yet. An empty path is a no-op. It returns the
// number of accounts created.
func (s *AdminSeeder) SeedFile(ctx context.Context, path string) (int, error) {
	if path == "" {
		s.logger.InfoContext(ctx, "skipping admin seeding, ADMINS_FILE is not set")
		return 0, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read admins file: %w", err)
	}

	var admins []Admin
	if err := json.Unmarshal(data, &admins); err != nil {
		return 0, fmt.Errorf("parse admins file %s: %w", path, err)
	}

	s.logger.InfoContext(ctx, "seeding admins",
		slog.String("file", path),
		slog.Int("count", len(admins)),
	)
	return s.Seed(ctx, admins)
}

// Seed validates every admin before creating any of them. Accounts whose
// email already exists are skipped.
func (s *AdminSeeder) Seed(ctx context.Context, admins []Admin) (int, error) {
	for i, a := range admins {
		if err := validator.Validate(a); err != nil {
			return 0, fmt.Errorf("invalid admin at index %d: %w", i, err)
		}
		if !auth.StrongPassword(a.Password) {
			return 0, fmt.Errorf("password is not strong enough for admin with email %s", a.Email)
		}
	}

	created := 0
	for _, a := range admins {
		hash, err := s.hasher.Hash(a.Password)
		if err != nil {
			return created, err
		}

		now := s.now().UTC()
		err = s.users.Create(ctx, &domain.User{
			ID:           uuid.NewString(),
			Email:        strings.TrimSpace(a.Email),
			PasswordHash: hash,
			Name:         strings.TrimSpace(a.Name),
			Role:         domain.RoleAdmin,
			Verified:     true,
			PublicEmail:  false,
			PublicName:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.DebugContext(ctx, "admin already exists, skipping")
			continue
		}
		if err != nil {
			return created, fmt.Errorf("create admin: %w", err)
		}
		created++
	}

	s.logger.InfoContext(ctx, "admins seeded", slog.Int("created", created))
	return created, nil
}
