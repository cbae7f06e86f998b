package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/MicroblogGo/internal/auth"
	"github.com/utafrali/MicroblogGo/internal/service"
	"github.com/utafrali/MicroblogGo/pkg/health"
	"github.com/utafrali/MicroblogGo/pkg/middleware"
)

// Services groups the services the router dispatches to.
type Services struct {
	Accounts     *service.AccountService
	Verification *service.VerificationService
	Posts        *service.PostService
	Comments     *service.CommentService
}

// RouterConfig holds router-level settings.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	// AuthLimiter throttles sign-up and sign-in per client IP. Nil disables it.
	AuthLimiter *middleware.IPRateLimiter
}

// NewRouter creates a chi router with all microblog routes registered.
func NewRouter(
	svc Services,
	tokens *auth.TokenCodec,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	validate := tokenValidator(tokens)
	identify := middleware.Identify(validate)
	optional := middleware.OptionalIdentify(validate)
	verified := middleware.RequireVerified(verificationChecker(svc.Verification))

	accountHandler := NewAccountHandler(svc.Accounts, svc.Verification, logger)
	postHandler := NewPostHandler(svc.Posts, logger)
	commentHandler := NewCommentHandler(svc.Comments, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/accounts", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthLimiter != nil {
					r.Use(middleware.RateLimit(cfg.AuthLimiter))
				}
				r.Post("/sign-up", accountHandler.SignUp)
				r.Post("/sign-in", accountHandler.SignIn)
			})

			r.Group(func(r chi.Router) {
				r.Use(identify)
				r.Post("/resend-email", accountHandler.ResendEmail)
				r.Post("/verify-email", accountHandler.VerifyEmail)
				r.Post("/change-password", accountHandler.ChangePassword)
				r.Patch("/{id}", accountHandler.Update)
			})

			r.With(optional).Get("/{id}", accountHandler.Get)
		})

		r.Route("/posts", func(r chi.Router) {
			r.With(optional).Get("/", postHandler.List)
			r.With(optional).Get("/{id}", postHandler.Get)
			r.With(identify, verified).Post("/", postHandler.Create)
			r.With(identify, verified).Patch("/{id}", postHandler.Update)
			r.With(identify).Delete("/{id}", postHandler.Delete)
			r.With(identify, verified).Put("/{id}/vote", postHandler.PutVote)
			r.With(identify, verified).Delete("/{id}/vote", postHandler.DeleteVote)
		})

		r.Route("/comments", func(r chi.Router) {
			r.With(optional).Get("/", commentHandler.List)
			r.With(optional).Get("/{id}", commentHandler.Get)
			r.With(identify, verified).Post("/", commentHandler.Create)
			r.With(identify, verified).Patch("/{id}", commentHandler.Update)
			r.With(identify).Delete("/{id}", commentHandler.Delete)
			r.With(identify, verified).Put("/{id}/vote", commentHandler.PutVote)
			r.With(identify, verified).Delete("/{id}/vote", commentHandler.DeleteVote)
		})
	})

	return r
}
