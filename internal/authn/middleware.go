// Package authn derives the request principal from bearer tokens issued by
// the upstream identity provider. Token issuance lives outside this service;
// only verification happens here.
package authn

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/meridian-id/meridian/internal/accounts"
	"github.com/meridian-id/meridian/internal/platform/httpx"
)

// Claims is the token payload expected from the identity provider.
type Claims struct {
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// Middleware wires principal extraction helpers for HTTP handlers.
type Middleware struct {
	Secret []byte
	Logger *slog.Logger
}

// RequireAuth verifies the bearer token and stores the principal in context.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.principalFromRequest(r)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("reject bearer token", slog.String("path", r.URL.Path), slog.Any("error", err))
			}
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(accounts.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireSuperAdmin allows only super-admin principals through. Must run
// after RequireAuth.
func (m Middleware) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := accounts.PrincipalFromContext(r.Context())
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if principal.UserType != accounts.UserTypeSuperAdmin {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) principalFromRequest(r *http.Request) (accounts.Principal, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return accounts.Principal{}, fmt.Errorf("missing bearer token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, prefix), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil {
		return accounts.Principal{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return accounts.Principal{}, fmt.Errorf("invalid token")
	}

	userType := accounts.UserType(claims.UserType)
	if claims.Subject == "" || !userType.Valid() {
		return accounts.Principal{}, fmt.Errorf("incomplete token claims")
	}

	return accounts.Principal{
		ID:       claims.Subject,
		Email:    claims.Email,
		UserType: userType,
	}, nil
}
