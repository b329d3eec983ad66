package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/request"
)

// TokenVerifier validates a bearer token and returns its identity claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// UserSyncer maps provider identities to forum users.
type UserSyncer interface {
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// Authenticator resolves the bearer token of a request to a forum user,
// creating the user the first time a provider identity is seen.
type Authenticator struct {
	verifier TokenVerifier
	users    UserSyncer
	log      *zap.Logger
}

func NewAuthenticator(verifier TokenVerifier, users UserSyncer, log *zap.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, users: users, log: log}
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return a.handler(next, true)
}

// Optional attaches the user when a token is sent and lets anonymous
// requests through. A token that is sent but invalid is still rejected.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return a.handler(next, false)
}

func (a *Authenticator) handler(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// An outer Optional already resolved the token.
		if request.User(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			if required {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", a.log)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format", a.log)
			return
		}

		ctx := r.Context()
		claims, err := a.verifier.Verify(ctx, token)
		if err != nil {
			a.log.Info("token_verification_failed",
				zap.Error(err),
				zap.String("request_id", request.RequestID(ctx)),
			)
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", a.log)
			return
		}

		user, err := a.syncUser(ctx, claims)
		if err != nil {
			a.log.Error("user_sync_failed",
				zap.Error(err),
				zap.String("request_id", request.RequestID(ctx)),
			)
			writeError(w, r, apperror.HTTPStatus(err), apperror.Kind(err), apperror.PublicMessage(err), a.log)
			return
		}

		next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
	})
}

// syncUser loads the user for claims, upserting when the user is new or the
// profile changed at the provider.
func (a *Authenticator) syncUser(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	user, err := a.users.GetByProviderID(ctx, claims.Sub)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		user = &models.User{ProviderID: claims.Sub}
	case err != nil:
		return nil, err
	case !profileChanged(user, claims):
		return user, nil
	}

	applyClaims(user, claims)
	if err := a.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func profileChanged(u *models.User, c *models.JWTClaims) bool {
	picture := ""
	if u.Picture != nil {
		picture = *u.Picture
	}
	return u.Email != c.Email || u.Name != displayName(c) || u.Username != username(c) || picture != c.Picture
}

func applyClaims(u *models.User, c *models.JWTClaims) {
	u.Email = c.Email
	u.Name = displayName(c)
	u.Username = username(c)
	u.Picture = nil
	if c.Picture != "" {
		p := c.Picture
		u.Picture = &p
	}
}

func displayName(c *models.JWTClaims) string {
	if c.Name != "" {
		return c.Name
	}
	return username(c)
}

func username(c *models.JWTClaims) string {
	if c.Username != "" {
		return c.Username
	}
	if local, _, ok := strings.Cut(c.Email, "@"); ok && local != "" {
		return local
	}
	return c.Sub
}
