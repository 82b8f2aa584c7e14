// Package auth verifies caller credentials against the remote identity
// authority, consulting the revocation set first. It never defaults to allow:
// any failure talking to the authority or the revocation set surfaces as
// unavailable, not as a valid credential.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hoopwatch/internal/auth/authority"
	dErrors "hoopwatch/pkg/domain-errors"
	"hoopwatch/pkg/platform/sentinel"
)

const bearerPrefix = "Bearer "

// defaultRevocationTTL is used when a credential's expiry cannot be read; it
// matches the authority's maximum token lifetime.
const defaultRevocationTTL = 24 * time.Hour

// RevocationList is the set of credentials invalidated before their natural
// expiry. Entries self-expire with the credential.
type RevocationList interface {
	Revoke(ctx context.Context, credential string, ttl time.Duration) error
	IsRevoked(ctx context.Context, credential string) (bool, error)
}

// Verifier resolves raw credentials into principals. Stateless; one bounded
// remote call per request.
type Verifier struct {
	authority   authority.Client
	revocations RevocationList
	timeout     time.Duration
	logger      *slog.Logger
}

func NewVerifier(client authority.Client, revocations RevocationList, timeout time.Duration, logger *slog.Logger) *Verifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		authority:   client,
		revocations: revocations,
		timeout:     timeout,
		logger:      logger,
	}
}

// Verify validates a raw credential and returns the principal it belongs to.
// The revocation set is consulted before the authority: a revoked credential
// is rejected even if its signature and expiry would still check out.
func (v *Verifier) Verify(ctx context.Context, rawCredential string) (Principal, error) {
	credential := stripScheme(rawCredential)
	if credential == "" {
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "authorization credential is required")
	}

	revoked, err := v.revocations.IsRevoked(ctx, credential)
	if err != nil {
		// Fail closed: an unreadable revocation set must not admit anyone.
		v.logger.ErrorContext(ctx, "revocation check failed", "error", err)
		return Principal{}, dErrors.Wrap(dErrors.CodeUnavailable, "could not validate credential", err)
	}
	if revoked {
		v.logger.WarnContext(ctx, "rejected revoked credential")
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "credential has been revoked")
	}

	verifyCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	result, err := v.authority.VerifyToken(verifyCtx, credential)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentinel.ErrUnavailable) {
			v.logger.ErrorContext(ctx, "identity authority unavailable", "error", err)
			return Principal{}, dErrors.Wrap(dErrors.CodeUnavailable, "identity authority is unavailable", err)
		}
		return Principal{}, dErrors.Wrap(dErrors.CodeUnavailable, "could not verify credential", err)
	}
	if !result.Valid {
		return Principal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired credential")
	}
	if result.UserID == "" {
		return Principal{}, dErrors.New(dErrors.CodeInternal, "invalid response from identity authority")
	}

	return Principal{UserID: result.UserID}, nil
}

// Revoke invalidates a credential for the remainder of its validity window,
// e.g. on logout. An already-expired credential is a no-op.
func (v *Verifier) Revoke(ctx context.Context, rawCredential string) error {
	credential := stripScheme(rawCredential)
	if credential == "" {
		return dErrors.New(dErrors.CodeBadRequest, "no credential to revoke")
	}

	ttl := remainingValidity(credential)
	if ttl <= 0 {
		return nil
	}
	if err := v.revocations.Revoke(ctx, credential, ttl); err != nil {
		return dErrors.Wrap(dErrors.CodeUnavailable, "could not revoke credential", err)
	}
	return nil
}

func stripScheme(raw string) string {
	credential := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(credential, bearerPrefix); ok {
		credential = after
	}
	return strings.TrimSpace(credential)
}

// remainingValidity sizes the revocation TTL from the credential's own expiry.
// The claims are read unverified: the authority owns signature checks, and an
// attacker gains nothing by forging a shorter revocation window for a token
// that never validates anyway.
func remainingValidity(credential string) time.Duration {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(credential, jwt.MapClaims{})
	if err != nil {
		return defaultRevocationTTL
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return defaultRevocationTTL
	}
	return time.Until(exp.Time)
}
