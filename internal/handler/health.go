package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything Health can probe: *sql.DB, or a Redis client wrapped
// in a func.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health reports liveness plus the state of optional dependencies.  The
// service answers 200 even with a dependency down; those degrade to
// in-memory fallbacks.
func Health(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
		defer cancel()
		checks := make(map[string]string, len(deps))
		for name, p := range deps {
			if p == nil {
				checks[name] = "disabled"
				continue
			}
			if err := p.PingContext(ctx); err != nil {
				checks[name] = "down"
				continue
			}
			checks[name] = "up"
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "checks": checks})
	}
}
