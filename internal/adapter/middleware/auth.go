package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"municipal-portal/internal/domain/directory"
	"municipal-portal/pkg/rut"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const identityKey = "portal.identity"

// Identity is the verified caller of a request.
type Identity struct {
	RUT  string
	Role directory.Role
}

type Claims struct {
	RUT  string `json:"rut"`
	Role string `json:"rol"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for rut with the given role.
func SignToken(secret []byte, rutValue string, role directory.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RUT:  rut.Normalize(rutValue),
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rut.Normalize(rutValue),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Authenticate requires a valid "Authorization: Bearer" token and stores
// the caller's Identity in the echo context.
func Authenticate(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			claims, err := parseToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			id := Identity{RUT: rut.Normalize(claims.RUT), Role: directory.Role(claims.Role)}
			if !rut.Valid(id.RUT) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token subject"})
			}
			if !id.Role.Valid() {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token role"})
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// RequireRole lets the request through only for the listed roles.
// Must run after Authenticate.
func RequireRole(roles ...directory.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
			}
			for _, r := range roles {
				if id.Role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "role not allowed"})
		}
	}
}

func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// WithIdentity is for tests and internal callers that bypass Authenticate.
func WithIdentity(c echo.Context, id Identity) { c.Set(identityKey, id) }
