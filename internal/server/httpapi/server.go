// Package httpapi exposes the media pipeline over HTTP: one multipart
// upload route plus record reads and the charged delete.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/wayfare/internal/logging"
	"github.com/dmitrijs2005/wayfare/internal/server/ingest"
)

type Server struct {
	address   string
	ingest    *ingest.Service
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(address string, logger logging.Logger, ingestSvc *ingest.Service, secretKey string) *Server {
	return &Server{
		address:   address,
		ingest:    ingestSvc,
		logger:    logger.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
	}
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	e.GET("/healthz", s.health)

	api := e.Group("/api/v1", s.bearerAuth)
	api.POST("/entities/:id/media", s.uploadMedia)
	api.GET("/entities/:id/media", s.listMedia)
	api.GET("/media/:id", s.getMedia)
	api.DELETE("/media/:id", s.deleteMedia)

	return e
}

func (s *Server) Run(ctx context.Context) error {
	e := s.routes()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := e.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
