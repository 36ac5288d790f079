package router

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/checkout"
	"github.com/iliyamo/comedy-tour-seating/internal/handler"
	"github.com/iliyamo/comedy-tour-seating/internal/metrics"
	"github.com/iliyamo/comedy-tour-seating/internal/middleware"
	"github.com/iliyamo/comedy-tour-seating/internal/session"
)

// Deps are the collaborators the HTTP surface needs.  Cache and RateLimit
// may be nil.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Catalogs  catalog.Provider
	Sessions  session.Store
	Signer    *session.Signer
	Checkout  *checkout.Service
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
	Health    map[string]handler.Pinger
}

// New builds the Echo instance with every route registered.
func New(d Deps) *echo.Echo {
	if d.Cache == nil {
		d.Cache = noop
	}
	if d.RateLimit == nil {
		d.RateLimit = noop
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Logger))

	RegisterRoutes(e, d.Metrics, d.Health)
	RegisterCatalog(e, &handler.CatalogHandler{Catalogs: d.Catalogs, Logger: d.Logger}, d.Cache)
	RegisterSelection(e, &handler.SelectionHandler{
		Catalogs: d.Catalogs,
		Sessions: d.Sessions,
		Signer:   d.Signer,
		Service:  d.Checkout,
		Metrics:  d.Metrics,
		Logger:   d.Logger,
	}, d.Signer, d.RateLimit)
	RegisterOrders(e, &handler.OrderHandler{Service: d.Checkout, Logger: d.Logger}, d.RateLimit)
	return e
}

func noop(next echo.HandlerFunc) echo.HandlerFunc { return next }
