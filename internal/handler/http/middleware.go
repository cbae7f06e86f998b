package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/utafrali/MicroblogGo/internal/auth"
	"github.com/utafrali/MicroblogGo/internal/service"
	"github.com/utafrali/MicroblogGo/pkg/middleware"
)

// ContentTypeJSON rejects request bodies that are not declared as JSON.
// Bodyless requests such as resend-email pass without a Content-Type.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 && r.Method != http.MethodGet {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// tokenValidator bridges the token codec to the shared auth middleware.
func tokenValidator(codec *auth.TokenCodec) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		identity, err := codec.Verify(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{Subject: identity.Subject, Role: identity.Role}, nil
	}
}

// verificationChecker answers RequireVerified from the verification workflow.
func verificationChecker(svc *service.VerificationService) middleware.VerificationChecker {
	return func(ctx context.Context, subject string) (bool, error) {
		return svc.IsVerified(ctx, subject)
	}
}

// callerID returns the authenticated subject, or "" for anonymous requests.
func callerID(r *http.Request) string {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.Subject
}
