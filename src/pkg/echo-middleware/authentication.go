// Package echomw provides the Echo middlewares of the receipt API.
package echomw

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

const (
	// Env var read by RequireBearerToken.
	EnvAPIBearerToken = "RECEIPT_API_BEARER_TOKEN"

	// Realm for WWW-Authenticate header.
	authRealm = "receipt-api"
)

// RequireBearerToken is BearerAuth with the token taken from RECEIPT_API_BEARER_TOKEN.
func RequireBearerToken() echo.MiddlewareFunc {
	return BearerAuth(os.Getenv(EnvAPIBearerToken))
}

/*
BearerAuth validates "Authorization: Bearer <token>" against expected.
On failure responds 401. An empty expected token rejects every request.
*/
func BearerAuth(expected string) echo.MiddlewareFunc {
	expected = strings.TrimSpace(expected)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if expected == "" {
				// Fail closed if not configured.
				return unauthorized(c)
			}

			received, ok := bearerToken(c.Request().Header.Get("Authorization"))
			if !ok {
				return unauthorized(c)
			}

			if subtle.ConstantTimeCompare([]byte(received), []byte(expected)) != 1 {
				return unauthorized(c)
			}
			return next(c)
		}
	}
}

// bearerToken extracts the token; the scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	auth := strings.TrimSpace(header)
	const bearer = "bearer "
	if len(auth) < len(bearer) || !strings.EqualFold(auth[:len(bearer)], bearer) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(bearer):])
	return token, token != ""
}

func unauthorized(c echo.Context) error {
	LogRouteAccess(c, tl.Info, "Unauthorized access attempt", palette.Yellow)

	// Avoids browser basic-auth popups.
	c.Response().Header().Set("WWW-Authenticate", `Bearer realm="`+authRealm+`"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error": "unauthorized",
	})
}
