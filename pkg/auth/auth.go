// Package auth verifies OIDC bearer tokens and attaches the caller's identity
// to the request context.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/certify/pkg/apperr"
	"github.com/JaimeStill/certify/pkg/handlers"
	"github.com/JaimeStill/certify/pkg/lifecycle"
)

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = apperr.ErrUnauthorized.WithMessage("missing bearer token")
	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = apperr.ErrUnauthorized.WithMessage("invalid bearer token")
	// ErrNotReady indicates the verifier has not been initialized.
	ErrNotReady = apperr.ErrUnauthorized.WithMessage("authentication not ready")
)

// System verifies tokens and provides authentication middleware.
type System interface {
	// Verify validates a raw bearer token and returns the caller's identity.
	Verify(ctx context.Context, raw string) (*Identity, error)
	// Middleware rejects unauthenticated requests with 401 and stores the identity otherwise.
	Middleware() func(http.Handler) http.Handler
	// Ready reports whether the verifier is initialized.
	Ready() bool
	// Start registers the discovery startup hook when no JWKS URL is configured.
	Start(lc *lifecycle.Coordinator) error
}

type claims struct {
	Name   string `json:"name"`
	Tenant string `json:"tenant"`
}

type oidcAuth struct {
	cfg      *Config
	oidcCfg  *oidc.Config
	verifier atomic.Pointer[oidc.IDTokenVerifier]
	logger   *slog.Logger
}

// New creates an auth system. With a JWKS URL the verifier is usable immediately;
// otherwise it becomes usable once Start's discovery hook completes.
func New(cfg *Config, logger *slog.Logger, opts ...Option) System {
	a := &oidcAuth{
		cfg: cfg,
		oidcCfg: &oidc.Config{
			ClientID:          cfg.ClientID,
			SkipClientIDCheck: cfg.ClientID == "",
		},
		logger: logger.With("system", "auth"),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.verifier.Load() == nil && cfg.JWKSURL != "" {
		keys := oidc.NewRemoteKeySet(context.Background(), cfg.JWKSURL)
		a.verifier.Store(oidc.NewVerifier(cfg.Issuer, keys, a.oidcCfg))
	}

	return a
}

// Option customizes an auth system.
type Option func(*oidcAuth)

// WithKeySet verifies tokens against a fixed key set instead of a remote one.
func WithKeySet(keys oidc.KeySet) Option {
	return func(a *oidcAuth) {
		a.verifier.Store(oidc.NewVerifier(a.cfg.Issuer, keys, a.oidcCfg))
	}
}

// WithNow overrides the clock used for expiry checks.
func WithNow(now func() time.Time) Option {
	return func(a *oidcAuth) {
		a.oidcCfg.Now = now
	}
}

func (a *oidcAuth) Ready() bool {
	return a.verifier.Load() != nil
}

func (a *oidcAuth) Start(lc *lifecycle.Coordinator) error {
	if a.Ready() {
		a.logger.Info("token verifier ready", "issuer", a.cfg.Issuer)
		return nil
	}

	lc.OnStartup(func() error {
		provider, err := oidc.NewProvider(lc.Context(), a.cfg.Issuer)
		if err != nil {
			a.logger.Error("oidc discovery failed", "issuer", a.cfg.Issuer, "error", err)
			return fmt.Errorf("oidc discovery: %w", err)
		}

		a.verifier.Store(provider.Verifier(a.oidcCfg))
		a.logger.Info("token verifier ready", "issuer", a.cfg.Issuer)
		return nil
	})

	return nil
}

func (a *oidcAuth) Verify(ctx context.Context, raw string) (*Identity, error) {
	verifier := a.verifier.Load()
	if verifier == nil {
		return nil, ErrNotReady
	}

	token, err := verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var c claims
	if err := token.Claims(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var all map[string]any
	if err := token.Claims(&all); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	role, _ := all[a.cfg.RoleClaim].(string)
	if role == "" {
		return nil, ErrInvalidToken.WithMessage("token missing role claim")
	}

	return &Identity{
		ID:       token.Subject,
		Role:     strings.ToUpper(role),
		Name:     c.Name,
		TenantID: c.Tenant,
	}, nil
}

func (a *oidcAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				handlers.RespondAppError(w, a.logger, ErrMissingToken)
				return
			}

			id, err := a.Verify(r.Context(), raw)
			if err != nil {
				handlers.RespondAppError(w, a.logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// bearerToken reads the Authorization header, falling back to the access_token
// query parameter for WebSocket upgrades where browsers cannot set headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return r.URL.Query().Get("access_token")
}
