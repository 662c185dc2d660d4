/*
Package server exposes the pipeline over HTTP with Echo.

	GET  /healthz         liveness, no auth
	POST /api/preprocess  multipart "image" -> binarized PNG
	POST /api/receipts    multipart "image" -> structured receipt (JSON or CSV)

Everything under /api needs "Authorization: Bearer <token>" and is rate
limited per client IP.
*/
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	echomw "receipt-digitizer/src/pkg/echo-middleware"
	"receipt-digitizer/src/pkg/export"
	"receipt-digitizer/src/pkg/preprocess"
	"receipt-digitizer/src/pkg/receipt"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	Server      echomw.Config
	BearerToken string
	// Defaults for /api/preprocess, overridable per request through the query.
	Mode       preprocess.Mode
	Preprocess preprocess.Config
	// Digitizer serves /api/receipts; nil answers 503.
	Digitizer *receipt.Digitizer
	OutDir    string
	Export    export.Config
}

type Server struct {
	Echo    *echo.Echo
	options Options
}

func New(options Options) *Server {
	if options.OutDir == "" {
		options.OutDir = "./out/api"
	}
	if options.Mode == "" {
		options.Mode = preprocess.ModeAdvanced
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{Echo: e, options: options}

	e.Use(middleware.Recover())
	e.Use(echomw.RouteAccessLoggerMiddleware)

	e.GET("/healthz", s.healthz)

	api := e.Group("/api")
	api.Use(echomw.BearerAuth(options.BearerToken))
	api.Use(echomw.NewIPRateLimiter(options.Server.MiddlewareRateLimit, options.Server.MiddlewareBurst).Middleware)
	if options.Server.MaxUploadMB > 0 {
		api.Use(middleware.BodyLimit(fmt.Sprintf("%dM", options.Server.MaxUploadMB)))
	}
	api.POST("/preprocess", s.preprocessImage)
	api.POST("/receipts", s.digitizeReceipt)

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) (e *xerr.Error) {
	address := s.options.Server.ListenAddress()
	errCh := make(chan error, 1)
	go func() {
		tl.Log(tl.Notice, palette.BlueBold, "%s on '%s'", "Starting receipt API", address)
		errCh <- s.Echo.Start(address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return xerr.NewError(err, "start HTTP server", address)
	case <-ctx.Done():
	}

	tl.Log(tl.Notice, palette.Yellow, "%s receipt API on '%s'", "Shutting down", address)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := s.Echo.Shutdown(shutdownCtx)
	if err != nil {
		return xerr.NewError(err, "shut down HTTP server", address)
	}
	return nil
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}
