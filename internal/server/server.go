// Package server serves the dcmpress upload page, the download of converted batches and a
// scripted conversion endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/j-taylor87/dcmpress/codec"
	"github.com/j-taylor87/dcmpress/internal/config"
	"github.com/j-taylor87/dcmpress/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Server is the dcmpress HTTP server.
type Server struct {
	cfg       *config.Config
	echo      *echo.Echo
	pipeline  *pipeline.Pipeline
	downloads *cache.Cache
	logger    zerolog.Logger
}

// New returns a Server converting uploads with backend and logging to logger.
func New(cfg *config.Config, backend codec.Backend, logger zerolog.Logger) (*Server, error) {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		echo:      echo.New(),
		pipeline:  pipeline.New(backend, cfg.Preview.MaxSize, codec.WithMaxDecodedSize(cfg.Codec.MaxDecodedBytes())),
		downloads: cache.New(cfg.Server.DownloadTTL, cfg.Server.DownloadTTL),
		logger:    logger,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Renderer = renderer

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	s.echo.Use(contextLogger(logger))
	s.echo.Use(accessLogger())

	s.echo.GET("/", s.handleIndex)
	s.echo.POST("/decompress", s.handleDecompress)
	s.echo.GET("/download/:id", s.handleDownload)
	s.echo.POST("/api/decompress", s.handleAPIDecompress)
	s.echo.GET("/healthz", s.handleHealth)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on the configured address until ctx is done, then shuts the server down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Server.Addr).Msg("Starting HTTP server")
		errCh <- s.echo.Start(s.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
