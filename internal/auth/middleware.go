package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/scholar-stream/internal/apperror"
	"github.com/sakif/scholar-stream/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the values stored under it.
type contextKey string

const (
	claimsKey contextKey = "claims"
	roleKey   contextKey = "role"
)

// ErrorResponder writes an error response. The HTTP layer supplies one so
// that status mapping and the error body shape live in a single place.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Guard is the request-authorization pipeline: Authenticate verifies the
// bearer token, Require checks the caller's stored role against a predicate.
//
//	r.With(guard.Authenticate, guard.Require(auth.AdminOnly)).Delete(...)
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp,
// so Require always sees the claims Authenticate stored.
type Guard struct {
	verifier Verifier
	roles    RoleLookup
	fail     ErrorResponder
	logger   *slog.Logger
}

func NewGuard(verifier Verifier, roles RoleLookup, fail ErrorResponder, logger *slog.Logger) *Guard {
	return &Guard{verifier: verifier, roles: roles, fail: fail, logger: logger}
}

// Authenticate requires "Authorization: Bearer <token>" with a token the
// verifier accepts, and stores the claims in the request context with the
// email normalized.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			g.fail(w, r, apperror.Unauthorized("unauthorized access"))
			return
		}

		claims, err := g.verifier.Verify(r.Context(), token)
		if err != nil {
			g.logger.Debug("token rejected", slog.String("error", err.Error()))
			g.fail(w, r, apperror.Unauthorized("unauthorized access"))
			return
		}

		normalized := *claims
		normalized.Email = model.NormalizeEmail(claims.Email)
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), &normalized)))
	})
}

// Require looks up the caller's stored role and admits the request only if
// allow accepts the resulting principal. An unknown user is forbidden; a
// failing lookup is passed on as is. It must run after Authenticate.
func (g *Guard) Require(allow Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				g.fail(w, r, apperror.Unauthorized("unauthorized access"))
				return
			}

			role, err := g.roles.RoleOf(r.Context(), claims.Email)
			if errors.Is(err, apperror.ErrNotFound) {
				g.fail(w, r, apperror.Forbidden("forbidden access"))
				return
			}
			if err != nil {
				g.fail(w, r, err)
				return
			}

			if !allow(Principal{Claims: *claims, Role: role}) {
				g.logger.Info("role check failed",
					slog.String("email", claims.Email),
					slog.String("role", string(role)),
					slog.String("path", r.URL.Path),
				)
				g.fail(w, r, apperror.Forbidden("forbidden access"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the verified claims, if Authenticate ran.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// WithRole returns a copy of ctx carrying the caller's resolved role.
func WithRole(ctx context.Context, role model.Role) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// RoleFromContext returns the role resolved by Require. It is absent on
// routes that only authenticate.
func RoleFromContext(ctx context.Context) (model.Role, bool) {
	role, ok := ctx.Value(roleKey).(model.Role)
	return role, ok
}

// PrincipalFromContext combines the claims with the resolved role, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	role, _ := RoleFromContext(ctx)
	return Principal{Claims: *claims, Role: role}, true
}
