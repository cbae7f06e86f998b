package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/MicroblogGo/internal/auth"
	"github.com/utafrali/MicroblogGo/internal/domain"
	"github.com/utafrali/MicroblogGo/internal/event"
	"github.com/utafrali/MicroblogGo/internal/repository"
	apperrors "github.com/utafrali/MicroblogGo/pkg/errors"
)

// notificationTimeout bounds the background verification email after
// sign-up.
const notificationTimeout = 30 * time.Second

// VerificationRequester sends a verification code without reporting
// failures back.
type VerificationRequester interface {
	RequestVerification(ctx context.Context, req VerificationRequest)
}

// AccountService implements sign-up, sign-in and account access control.
type AccountService struct {
	users    repository.UserRepository
	tokens   *auth.TokenCodec
	hasher   *auth.PasswordHasher
	verifier VerificationRequester
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time

	pending sync.WaitGroup
}

// NewAccountService creates a new account service.
func NewAccountService(
	users repository.UserRepository,
	tokens *auth.TokenCodec,
	hasher *auth.PasswordHasher,
	verifier VerificationRequester,
	producer *event.Producer,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		verifier: verifier,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// SignUpInput holds the parameters for creating an account.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// SignInInput holds the parameters for signing in.
type SignInInput struct {
	Email    string
	Password string
}

// SignUp creates an unverified account and returns a token for it. The
// verification email is sent in the background.
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (*domain.AuthResult, error) {
	if !auth.StrongPassword(input.Password) {
		return nil, apperrors.BadRequest("Password is not strong enough")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Role:         domain.RoleUser,
		Verified:     false,
		PublicEmail:  false,
		PublicName:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.BadRequest("Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, VerificationRequest{ID: user.ID, Email: user.Email})

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", user.ID),
	)

	return &domain.AuthResult{ID: user.ID, AccessToken: token}, nil
}

// notify requests a verification email without holding up the response.
func (s *AccountService) notify(ctx context.Context, req VerificationRequest) {
	if s.verifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
		defer cancel()
		s.verifier.RequestVerification(ctx, req)
	}()
}

// Wait blocks until background verification emails have been handed off.
func (s *AccountService) Wait() {
	s.pending.Wait()
}

// SignIn checks credentials and returns a token. Unknown emails and wrong
// passwords fail the same way.
func (s *AccountService) SignIn(ctx context.Context, input SignInInput) (*domain.AuthResult, error) {
	invalid := apperrors.NotFound("Invalid email or password")

	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Compare(input.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", user.ID),
	)

	return &domain.AuthResult{ID: user.ID, AccessToken: token}, nil
}

// ChangePassword replaces the caller's password after checking the
// current one.
func (s *AccountService) ChangePassword(ctx context.Context, callerID, current, next string) error {
	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundf("Couldn't find user with id %s", callerID)
		}
		return fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Compare(current, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Unauthorized("Current password is incorrect")
	}
	if !auth.StrongPassword(next) {
		return apperrors.BadRequest("Password is not strong enough")
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, callerID, hash); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundf("Couldn't find user with id %s", callerID)
		}
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", callerID),
	)

	return nil
}

// GetAccount returns the account as visible to callerID. Unverified
// accounts exist only for their owner.
func (s *AccountService) GetAccount(ctx context.Context, id, callerID string) (domain.AccountView, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.AccountView{}, apperrors.NotFoundf("Couldn't find user with id %s", id)
		}
		return domain.AccountView{}, fmt.Errorf("find user: %w", err)
	}

	owner := callerID != "" && callerID == id
	if !user.Verified && !owner {
		return domain.AccountView{}, apperrors.NotFoundf("Couldn't find user with id %s", id)
	}

	return user.ViewFor(callerID), nil
}

// UpdateAccount applies patch to targetID on behalf of callerID. Role
// changes are reserved to admins and may target any account; personal
// fields may only be changed by the account owner.
func (s *AccountService) UpdateAccount(ctx context.Context, targetID, callerID string, patch domain.AccountPatch) (domain.AccountView, error) {
	if patch.ChangesRole() {
		return s.changeRole(ctx, targetID, callerID, *patch.Role)
	}

	if targetID != callerID {
		return domain.AccountView{}, apperrors.Forbidden("Cannot update account")
	}

	updated, err := s.users.Update(ctx, targetID, patch)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.AccountView{}, apperrors.NotFoundf("Couldn't find user with id %s", targetID)
		}
		return domain.AccountView{}, fmt.Errorf("update user: %w", err)
	}

	return updated.Unmasked(), nil
}

func (s *AccountService) changeRole(ctx context.Context, targetID, callerID, role string) (domain.AccountView, error) {
	forbidden := apperrors.Forbidden("Only admins can change roles")
	if callerID == "" {
		return domain.AccountView{}, forbidden
	}

	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.AccountView{}, forbidden
		}
		return domain.AccountView{}, fmt.Errorf("find caller: %w", err)
	}
	if caller.Role != domain.RoleAdmin {
		return domain.AccountView{}, forbidden
	}

	if !domain.IsValidRole(role) {
		return domain.AccountView{}, apperrors.BadRequest(fmt.Sprintf("Invalid role %q", role))
	}

	updated, err := s.users.Update(ctx, targetID, domain.AccountPatch{Role: &role})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.AccountView{}, apperrors.NotFoundf("Couldn't find user with id %s", targetID)
		}
		return domain.AccountView{}, fmt.Errorf("update role: %w", err)
	}

	if err := s.producer.PublishUserRoleChanged(ctx, updated, callerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.role_changed event",
			slog.String("user_id", updated.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "role changed",
		slog.String("user_id", updated.ID),
		slog.String("role", updated.Role),
		slog.String("changed_by", callerID),
	)

	return updated.ViewFor(""), nil
}

// IsModeratorOrAdmin reports whether callerID may delete content owned by
// others. Unknown callers are not privileged.
func (s *AccountService) IsModeratorOrAdmin(ctx context.Context, callerID string) (bool, error) {
	if callerID == "" {
		return false, nil
	}

	user, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find user: %w", err)
	}

	return domain.CanModerate(user.Role), nil
}
