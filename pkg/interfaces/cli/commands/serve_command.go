package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vsinha/bagplan/pkg/infrastructure/config"
	"github.com/vsinha/bagplan/pkg/interfaces/api"
	"go.uber.org/zap"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	ConfigFile string
	Port       int // overrides server.port when non-zero
	Version    string

	// Settings replaces loading ConfigFile when set
	Settings *config.Config
	// Listener replaces binding server.port when set
	Listener net.Listener
}

// ServeCommand runs the HTTP API until ctx is cancelled
type ServeCommand struct {
	config ServeConfig
}

// NewServeCommand creates a new serve command
func NewServeCommand(config ServeConfig) *ServeCommand {
	return &ServeCommand{config: config}
}

// Execute starts the server and shuts it down gracefully when ctx ends
func (c *ServeCommand) Execute(ctx context.Context) error {
	settings := c.config.Settings
	if settings == nil {
		var err error
		if settings, err = config.Load(c.config.ConfigFile); err != nil {
			return err
		}
	}
	if c.config.Port != 0 {
		settings.Server.Port = c.config.Port
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := NewApp(settings, AppOptions{Registry: registry})
	if err != nil {
		return err
	}
	defer app.Close()
	logger := app.Logger

	if strings.EqualFold(settings.Server.Mode, "release") {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := api.RouterOptions{Logger: logger, Version: c.config.Version}
	if settings.Metrics.Enabled {
		opts.Metrics = app.Metrics.Handler()
		opts.MetricsPath = settings.Metrics.Path
	}
	if settings.Server.RateLimitRPS > 0 {
		opts.RateLimit = api.NewRateLimiter(settings.Server.RateLimitRPS, settings.Server.RateLimitBurst)
	}
	router := api.NewRouter(app.Orchestrator, opts)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", settings.Server.Port),
		Handler:      router,
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if c.config.Listener != nil {
			logger.Info("Server starting", zap.String("addr", c.config.Listener.Addr().String()))
			err = srv.Serve(c.config.Listener)
		} else {
			logger.Info("Server starting", zap.Int("port", settings.Server.Port))
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("Server exited")
	return nil
}
