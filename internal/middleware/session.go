package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/comedy-tour-seating/internal/session"
)

// Context keys set by SessionAuth.
const (
	ctxSessionID = "session_id"
	ctxShowID    = "show_id"
)

// SessionHeader carries the session token for clients that cannot set
// Authorization.
const SessionHeader = "X-Session-Token"

// SessionAuth validates the session token and stores the session and show
// ids in the request context.
func SessionAuth(signer *session.Signer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearer(c.Request())
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session token", "code": "missing_session"})
			}
			claims, err := signer.Parse(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session token", "code": "invalid_session"})
			}
			c.Set(ctxSessionID, claims.Subject)
			c.Set(ctxShowID, claims.ShowID)
			return next(c)
		}
	}
}

// SessionID returns the session id set by SessionAuth, or "".
func SessionID(c echo.Context) string {
	if v, ok := c.Get(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// ShowID returns the show id carried by the session token.
func ShowID(c echo.Context) uint64 {
	if v, ok := c.Get(ctxShowID).(uint64); ok {
		return v
	}
	return 0
}

func bearer(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}
