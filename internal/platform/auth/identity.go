package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// UserIDHeader carries the acting user's id when AUTH_MODE=header.
const UserIDHeader = "X-User-ID"

// Identity is the acting user attached to a request. UserID is nil for
// anonymous requests in header mode.
type Identity struct {
	UserID  *uuid.UUID
	Display string
}

// Mode selects how the acting user is established.
type Mode string

const (
	// ModeHeader trusts the X-User-ID header. Intended for deployments
	// behind a gateway that has already authenticated the caller.
	ModeHeader Mode = "header"
	// ModeJWT verifies an HS256 bearer token and takes the subject claim
	// as the acting user id.
	ModeJWT Mode = "jwt"
)

// Middleware resolves the acting user for each request and stores it on
// the request context. In header mode a missing or malformed header yields
// an anonymous identity; in jwt mode a missing or invalid token is a 401.
func Middleware(mode Mode, jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var ident Identity

			switch mode {
			case ModeJWT:
				authHeader := c.Request().Header.Get("Authorization")
				if authHeader == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
				}
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
				}

				claims := &jwt.RegisteredClaims{}
				token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
					return jwtSecret, nil
				}, jwt.WithValidMethods([]string{"HS256"}))
				if err != nil || !token.Valid {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}

				uid, err := uuid.Parse(claims.Subject)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
				}
				ident = Identity{UserID: &uid, Display: claims.Subject}

			default: // ModeHeader
				if raw := c.Request().Header.Get(UserIDHeader); raw != "" {
					if uid, err := uuid.Parse(raw); err == nil {
						ident = Identity{UserID: &uid, Display: raw}
					}
				}
			}

			ctx := context.WithValue(c.Request().Context(), identityKey, ident)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// FromContext returns the identity placed on the context by Middleware.
// The zero Identity is returned when no middleware ran.
func FromContext(ctx context.Context) Identity {
	ident, _ := ctx.Value(identityKey).(Identity)
	return ident
}
