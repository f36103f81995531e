package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/benvon/break-my-assignment/internal/database"
	logpkg "github.com/benvon/break-my-assignment/internal/logger"
	"github.com/benvon/break-my-assignment/internal/models"
	"github.com/benvon/break-my-assignment/internal/request"
	"github.com/benvon/break-my-assignment/internal/services/oidc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errMissingToken  = errors.New("missing bearer token")
	errInvalidHeader = errors.New("invalid Authorization header format")
	// errAccountConflict means the token's email belongs to an account it may not claim
	errAccountConflict = errors.New("email is bound to another identity")
)

// UserStore is the user access needed to resolve a session
type UserStore interface {
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// ProviderVerifier verifies tokens against the stored configuration of one provider
type ProviderVerifier struct {
	provider     *oidc.Provider
	jwks         *oidc.JWKSManager
	providerName string
}

// NewProviderVerifier creates a verifier for the named provider
func NewProviderVerifier(provider *oidc.Provider, jwks *oidc.JWKSManager, providerName string) *ProviderVerifier {
	return &ProviderVerifier{provider: provider, jwks: jwks, providerName: providerName}
}

// Verify implements TokenVerifier
func (v *ProviderVerifier) Verify(ctx context.Context, token string) (*models.JWTClaims, error) {
	cfg, err := v.provider.GetConfig(ctx, v.providerName)
	if err != nil {
		return nil, err
	}
	if cfg.JWKSUrl == nil || *cfg.JWKSUrl == "" {
		return nil, errors.New("JWKS URL not configured")
	}
	return oidc.NewVerifier(v.jwks, cfg.Issuer, cfg.ClientID).Verify(ctx, token, *cfg.JWKSUrl)
}

// Authenticator turns bearer tokens into sessions
type Authenticator struct {
	verifier TokenVerifier
	users    UserStore
	logger   *zap.Logger
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(verifier TokenVerifier, users UserStore, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{verifier: verifier, users: users, logger: logger}
}

// OptionalAuth attaches a session when a valid bearer token is present and
// passes anonymous requests through. A token that is present but invalid is
// rejected rather than downgraded to anonymous.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if errors.Is(err, errMissingToken) {
			next.ServeHTTP(w, r)
			return
		}
		a.serveAuthenticated(w, r, next, token, err)
	})
}

// RequireAuth rejects requests without a valid bearer token
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		a.serveAuthenticated(w, r, next, token, err)
	})
}

func (a *Authenticator) serveAuthenticated(w http.ResponseWriter, r *http.Request, next http.Handler, token string, headerErr error) {
	if headerErr != nil {
		if errors.Is(headerErr, errMissingToken) {
			writeError(w, r, http.StatusUnauthorized, "Missing Authorization header", a.logger)
		} else {
			writeError(w, r, http.StatusUnauthorized, "Invalid Authorization header format", a.logger)
		}
		return
	}

	ctx := r.Context()
	claims, err := a.verifier.Verify(ctx, token)
	if err != nil {
		a.logger.Warn("token_verification_failed",
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		writeError(w, r, http.StatusUnauthorized, "Invalid or expired token", a.logger)
		return
	}

	user, err := a.resolveUser(ctx, claims)
	if errors.Is(err, errAccountConflict) {
		a.logger.Warn("account_link_refused",
			zap.String("user_id", logpkg.MaskEmail(claims.Email)),
			zap.Bool("email_verified", claims.EmailVerified),
		)
		writeError(w, r, http.StatusUnauthorized, "Token does not match this account", a.logger)
		return
	}
	if err != nil {
		a.logger.Error("session_user_resolution_failed",
			zap.String("user_id", logpkg.MaskEmail(claims.Email)),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "Database error", a.logger)
		return
	}

	ctx = request.WithUser(ctx, user)
	ctx = request.WithSession(ctx, models.NewSession(user))
	next.ServeHTTP(w, r.WithContext(ctx))
}

// resolveUser finds the user for the token subject and creates the record on
// first sign-in. An existing account found only by email is linked when the
// email is verified and the account has no subject yet.
func (a *Authenticator) resolveUser(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	user, err := a.users.GetByProviderID(ctx, claims.Sub)
	if err != nil && !database.IsNotFound(err) {
		return nil, err
	}
	if user == nil {
		user, err = a.users.GetByEmail(ctx, claims.Email)
		if err != nil && !database.IsNotFound(err) {
			return nil, err
		}
		if user != nil && (!claims.EmailVerified || user.ProviderID != nil) {
			return nil, errAccountConflict
		}
	}

	if user == nil {
		sub := claims.Sub
		user = &models.User{
			ID:            uuid.New(),
			Email:         claims.Email,
			ProviderID:    &sub,
			EmailVerified: claims.EmailVerified,
		}
		if claims.Name != "" {
			name := claims.Name
			user.Name = &name
		}
		if err := a.users.Create(ctx, user); err != nil {
			return nil, err
		}
		a.logger.Info("user_created", zap.String("user_id", logpkg.MaskEmail(user.Email)))
		return user, nil
	}

	updateNeeded := false
	if user.ProviderID == nil || *user.ProviderID != claims.Sub {
		sub := claims.Sub
		user.ProviderID = &sub
		updateNeeded = true
	}
	if claims.Name != "" && (user.Name == nil || *user.Name != claims.Name) {
		name := claims.Name
		user.Name = &name
		updateNeeded = true
	}
	if updateNeeded {
		if err := a.users.Update(ctx, user); err != nil {
			a.logger.Warn("user_update_failed",
				zap.String("user_id", logpkg.MaskEmail(user.Email)),
				zap.Error(err),
			)
		}
	}
	return user, nil
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errInvalidHeader
	}
	return parts[1], nil
}
