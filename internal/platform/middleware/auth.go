package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"hoopwatch/internal/auth"
	dErrors "hoopwatch/pkg/domain-errors"
	"hoopwatch/pkg/platform/httputil"
	"hoopwatch/pkg/requestcontext"
)

// CredentialVerifier is the slice of the auth service this middleware needs.
type CredentialVerifier interface {
	Verify(ctx context.Context, rawCredential string) (auth.Principal, error)
}

// RequireAuth verifies the bearer credential on every request and stamps the
// resolved owner ID into the context. Verification failures never fall through
// to the handler.
func RequireAuth(verifier CredentialVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, err := verifier.Verify(ctx, r.Header.Get("Authorization"))
			if err != nil {
				logger.WarnContext(ctx, "credential verification failed",
					"error", err,
					"code", dErrors.CodeOf(err),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			ctx = requestcontext.WithUserID(ctx, principal.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
