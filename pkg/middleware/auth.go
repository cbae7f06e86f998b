package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/MicroblogGo/pkg/errors"
	"github.com/utafrali/MicroblogGo/pkg/httputil"
	"github.com/utafrali/MicroblogGo/pkg/logger"
)

type contextKeyType string

const claimsKey contextKeyType = "claims"

const (
	msgMissingToken   = "Missing bearer access token"
	msgUnverifiedJWT  = "Couldn't verify JWT"
	msgInvalidPayload = "Received invalid JWT payload"
	msgNotVerified    = "Your account must be verified to use this endpoint"
)

// Claims is the identity carried by an access token.
type Claims struct {
	Subject string
	Role    string
}

// TokenValidator verifies a raw bearer token. The error text is shown to
// the client, so it must not contain secrets.
type TokenValidator func(token string) (*Claims, error)

// VerificationChecker reports whether subject has confirmed their email.
type VerificationChecker func(ctx context.Context, subject string) (bool, error)

// Identify rejects requests without a valid bearer token and stores the
// token's claims in the request context.
func Identify(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized(msgMissingToken), nil)
				return
			}

			claims, err := validate(token)
			if err != nil {
				msg := err.Error()
				if msg == "" {
					msg = msgUnverifiedJWT
				}
				httputil.WriteError(w, r, apperrors.Unauthorized(msg), nil)
				return
			}
			if claims == nil || claims.Subject == "" || claims.Role == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized(msgInvalidPayload), nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// OptionalIdentify attaches claims when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalIdentify(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if claims, err := validate(token); err == nil && claims != nil && claims.Subject != "" && claims.Role != "" {
					r = r.WithContext(withClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified must be mounted after Identify. It rejects subjects whose
// email has not been confirmed. Checker errors are rendered as-is.
func RequireVerified(check VerificationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized(msgMissingToken), nil)
				return
			}

			verified, err := check(r.Context(), claims.Subject)
			if err != nil {
				httputil.WriteError(w, r, err, nil)
				return
			}
			if !verified {
				httputil.WriteError(w, r, apperrors.Forbidden(msgNotVerified), nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the claims stored by Identify or OptionalIdentify.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey).(Claims)
	return c, ok
}

func withClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, *c)
	ctx = logger.WithSubject(ctx, c.Subject)
	return logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("subject", c.Subject)))
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
