package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/MicroblogGo/internal/cache"
	"github.com/utafrali/MicroblogGo/internal/event"
	"github.com/utafrali/MicroblogGo/internal/repository"
	"github.com/utafrali/MicroblogGo/internal/sender"
	apperrors "github.com/utafrali/MicroblogGo/pkg/errors"
	"github.com/utafrali/MicroblogGo/pkg/tracing"
)

// DefaultResendWindow is the minimum spacing between two codes for one user.
const DefaultResendWindow = 60 * time.Second

// VerificationConfig holds the verification workflow settings.
type VerificationConfig struct {
	From   string
	Window time.Duration
}

// VerificationRequest identifies who to send a code to. Email may be left
// empty, in which case it is looked up by ID.
type VerificationRequest struct {
	ID    string
	Email string
}

// VerificationService implements the email verification workflow on top
// of the verification cache and the user directory.
type VerificationService struct {
	users    repository.UserRepository
	cache    *cache.VerificationCache
	sender   sender.Sender
	producer *event.Producer
	from     string
	window   time.Duration
	now      func() time.Time
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewVerificationService creates a new verification service.
func NewVerificationService(
	users repository.UserRepository,
	cache *cache.VerificationCache,
	sender sender.Sender,
	producer *event.Producer,
	cfg VerificationConfig,
	logger *slog.Logger,
) *VerificationService {
	window := cfg.Window
	if window <= 0 {
		window = DefaultResendWindow
	}
	return &VerificationService{
		users:    users,
		cache:    cache,
		sender:   sender,
		producer: producer,
		from:     cfg.From,
		window:   window,
		now:      time.Now,
		tracer:   tracing.Tracer("github.com/utafrali/MicroblogGo/internal/service"),
		logger:   logger,
	}
}

// IsVerified reports whether the user has confirmed their email. The cache
// is consulted first; on a miss the directory answer is written through.
func (s *VerificationService) IsVerified(ctx context.Context, id string) (bool, error) {
	verified, found, err := s.cache.IsVerified(ctx, id)
	switch {
	case err != nil:
		verificationCacheLookups.WithLabelValues(resultError).Inc()
		s.logger.WarnContext(ctx, "verification cache read failed, falling back to directory",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	case found:
		verificationCacheLookups.WithLabelValues(resultHit).Inc()
		return verified, nil
	default:
		verificationCacheLookups.WithLabelValues(resultMiss).Inc()
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, apperrors.NotFound("Couldn't find user to check verification")
		}
		return false, fmt.Errorf("find user: %w", err)
	}

	if err := s.cache.SetVerified(ctx, id, user.Verified); err != nil {
		s.logger.WarnContext(ctx, "verification cache write-through failed",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	return user.Verified, nil
}

// SendVerificationEmail issues a fresh code and emails it. At most one code
// is issued per user per window. A failed delivery is returned to the
// caller; the stored code stays valid.
func (s *VerificationService) SendVerificationEmail(ctx context.Context, req VerificationRequest) (err error) {
	ctx, span := s.tracer.Start(ctx, "VerificationService.SendVerificationEmail",
		trace.WithAttributes(attribute.String("user.id", req.ID)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	verified, err := s.IsVerified(ctx, req.ID)
	if err != nil {
		return err
	}
	if verified {
		return apperrors.BadRequest("User has already been verified")
	}

	email := req.Email
	if email == "" {
		user, err := s.users.FindByID(ctx, req.ID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("Couldn't find user to send email")
			}
			return fmt.Errorf("find user: %w", err)
		}
		email = user.Email
	}

	now := s.now()
	requestedAt, found, err := s.cache.RequestedAt(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("read last verification request: %w", err)
	}
	if found && now.Sub(requestedAt) < s.window {
		verificationRateLimited.Inc()
		return apperrors.TooManyRequests(fmt.Sprintf("Email verifications can only be sent every %d seconds", int(s.window.Seconds())))
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.cache.SetRequestedAt(ctx, req.ID, now); err != nil {
		return err
	}
	if err := s.cache.SetCode(ctx, req.ID, code); err != nil {
		return err
	}
	verificationCodesIssued.Inc()

	if err := s.sender.Send(ctx, sender.VerificationMessage(s.from, email, code)); err != nil {
		return fmt.Errorf("send verification email via %s: %w", s.sender.Name(), err)
	}

	s.logger.InfoContext(ctx, "verification email sent",
		slog.String("user_id", req.ID),
	)

	return nil
}

// RequestVerification sends a code and only logs failures. It runs after
// sign-up, where the account already exists and the user can ask again.
func (s *VerificationService) RequestVerification(ctx context.Context, req VerificationRequest) {
	if err := s.SendVerificationEmail(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "failed to send verification email",
			slog.String("user_id", req.ID),
			slog.String("error", err.Error()),
		)
	}
}

// VerifyEmail confirms code for the user. A code can be used once.
func (s *VerificationService) VerifyEmail(ctx context.Context, id, code string) (err error) {
	ctx, span := s.tracer.Start(ctx, "VerificationService.VerifyEmail",
		trace.WithAttributes(attribute.String("user.id", id)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	saved, found, err := s.cache.Code(ctx, id)
	if err != nil {
		return fmt.Errorf("read verification code: %w", err)
	}
	if !found {
		verificationConfirmations.WithLabelValues(resultMissing).Inc()
		return apperrors.NotFound("Couldn't find an active verification code")
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(saved)) != 1 {
		verificationConfirmations.WithLabelValues(resultInvalid).Inc()
		return apperrors.BadRequest("Received invalid verification code")
	}

	if err := s.users.Verify(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("Couldn't find user to verify")
		}
		return fmt.Errorf("verify user: %w", err)
	}

	if err := s.cache.DeleteCode(ctx, id); err != nil {
		return err
	}
	if err := s.cache.SetVerified(ctx, id, true); err != nil {
		s.logger.ErrorContext(ctx, "failed to cache verified flag",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}
	verificationConfirmations.WithLabelValues(resultSuccess).Inc()

	if err := s.producer.PublishUserVerified(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.verified event",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("user_id", id),
	)

	return nil
}
