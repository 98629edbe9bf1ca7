package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"

	"evs-comms/backend/internal/api"
	"evs-comms/backend/internal/auth"
	"evs-comms/backend/internal/config"
	"evs-comms/backend/internal/events"
	"evs-comms/backend/internal/insight"
	"evs-comms/backend/internal/logging"
	"evs-comms/backend/internal/mcp"
	"evs-comms/backend/internal/repository"
	"evs-comms/backend/internal/services"
	"evs-comms/backend/internal/tls"
)

const eventBuffer = 64

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile, configFile string

	cmd := &cobra.Command{
		Use:   "evs-server",
		Short: "Run the EVS communication intelligence service",
		Long: `Serves the communication REST API, the event stream and the MCP tools.

Examples:
  evs-server
  evs-server --env .env
  evs-server --config ./config/config.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, envFile, configFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env", "", "path to .env file")
	cmd.Flags().StringVar(&configFile, "config", "", "path to config.yaml (default ./config.yaml or ./config/config.yaml)")
	return cmd
}

func run(ctx context.Context, envFile, configFile string) error {
	cfg, err := config.LoadConfigFrom(envFile, configFile)
	if err != nil {
		return fmt.Errorf("configuration loading failed: %w", err)
	}

	logger := logging.NewLogger(cfg.Logging.Debug)
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		"environment", cfg.Environment,
		"okta_domain", cfg.Auth.OktaDomain,
		"task_store", cfg.Tasks.Driver,
		"ai_provider", cfg.AI.Provider,
		"config_file", viper.ConfigFileUsed(),
	)
	if cfg.Auth.SwaggerClientID != "" && cfg.Auth.SwaggerClientID == cfg.Auth.ClientID {
		logger.Warn("Swagger client ID matches the backend client ID; PKCE login from /docs will fail if the backend app requires a secret")
	}

	tasks, closeTasks, err := repository.OpenTaskStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("task store initialization failed: %w", err)
	}
	defer closeTasks()
	logger.Info("Task store ready", "driver", cfg.Tasks.Driver)

	completer, err := services.NewCompleter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("completer initialization failed: %w", err)
	}

	bus := events.NewBus(eventBuffer)
	defer bus.Close()

	svc, err := services.NewCommunicationService(tasks, completer, bus, logger, services.Options{
		MessageCapacity: cfg.Intelligence.MessageCapacity,
		InsightCapacity: cfg.Intelligence.InsightCapacity,
		ReplyTimeout:    cfg.AI.Timeout,
	})
	if err != nil {
		return fmt.Errorf("service initialization failed: %w", err)
	}
	logger.Info("Service layer initialized", "workflows", len(svc.Workflows()))

	authz, err := auth.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("auth initialization failed: %w", err)
	}

	e := newEcho(cfg, logger)

	e.GET("/login", echo.WrapHandler(http.HandlerFunc(authz.LoginHandler)))
	e.GET("/auth/callback", echo.WrapHandler(http.HandlerFunc(authz.CallbackHandler)))
	e.GET("/logout", echo.WrapHandler(http.HandlerFunc(authz.LogoutHandler)))

	apiHandler := api.NewHandler(svc, bus, logger)
	e.GET("/health", apiHandler.HandleHealth)

	apiGroup := e.Group("/api/v1")
	apiGroup.Use(echo.WrapMiddleware(authz.RequireAuth))
	api.RegisterHandlers(apiGroup, apiHandler)
	logger.Info("REST API handlers mounted")

	mcpServer := mcp.NewServer(svc)
	mcpHandlers := http.NewServeMux()
	mcp.MountHTTPHandlers(mcpHandlers, mcpServer.GetMCPServer())
	e.Any("/mcp", echo.WrapHandler(mcpHandlers))
	e.Any("/mcp/*", echo.WrapHandler(mcpHandlers))
	logger.Info("MCP protocol handlers mounted")

	e.GET("/openapi.yaml", echo.WrapHandler(api.SpecHandler(cfg.Auth.OktaDomain)))
	e.GET("/docs", echo.WrapHandler(api.SwaggerHandler(cfg.Auth.OktaDomain, cfg.Auth.SwaggerClientID)))
	e.GET("/docs/oauth2-redirect.html", echo.WrapHandler(http.HandlerFunc(api.OAuth2RedirectHandler)))

	scheduler := insight.NewScheduler(cfg.Intelligence.AnalysisInterval, func(ctx context.Context) {
		svc.RunAnalysis(ctx)
	}, logger)

	server := &http.Server{
		Addr:         listenAddr(cfg),
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := scheduler.Start(gctx); err != nil {
			return fmt.Errorf("failed to start insight scheduler: %w", err)
		}
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})

	g.Go(func() error {
		logger.Info("Server starting", "address", server.Addr, "tls", cfg.TLS.Enable)
		var err error
		if cfg.TLS.Enable {
			err = serveTLS(server, cfg, logger)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("Server close error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

func newEcho(cfg *config.Config, logger *logging.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ProblemErrorHandler(logger)

	e.Use(otelecho.Middleware("evs-comms"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	return e
}

func listenAddr(cfg *config.Config) string {
	if cfg.Server.Addr != "" {
		return cfg.Server.Addr
	}
	if cfg.TLS.Enable {
		return ":8443"
	}
	return ":8080"
}

func serveTLS(server *http.Server, cfg *config.Config, logger *logging.Logger) error {
	created, err := tls.EnsureCertificate(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hostnames)
	if err != nil {
		return fmt.Errorf("failed to prepare TLS certificate: %w", err)
	}
	if created {
		logger.Info("Generated self-signed certificate", "cert_file", cfg.TLS.CertFile, "hosts", cfg.TLS.Hostnames)
	}
	return server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
}
