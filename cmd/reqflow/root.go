package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reqflow/engine/cmd/reqflow/internal"
	"github.com/reqflow/engine/internal/agent"
	"github.com/reqflow/engine/internal/api"
	"github.com/reqflow/engine/internal/config"
	"github.com/reqflow/engine/internal/events"
	"github.com/reqflow/engine/internal/llm"
	"github.com/reqflow/engine/internal/llm/providers"
	"github.com/reqflow/engine/internal/observability"
	"github.com/reqflow/engine/internal/orchestrator"
	"github.com/reqflow/engine/internal/store"
	"github.com/reqflow/engine/pkg/version"
)

var (
	cfgFile  string
	addr     string
	roleFile string
)

// newRootCmd builds the reqflow CLI surface: `serve` runs the HTTP/SSE
// engine process, `session` is a thin read-only client against a running
// server for operators who want session state from a shell.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "reqflow",
		Short:         "reqflow runs the requirements-engineering orchestration engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (optional)")
	root.Version = version.String()
	root.SetVersionTemplate("{{.Version}}\n")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP/SSE server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	serveCmd.Flags().StringVar(&roleFile, "role-file", "", "path to a YAML RoleSpec file overriding the built-in roles")

	root.AddCommand(serveCmd)
	root.AddCommand(newSessionCmd())
	return root
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgFile, nil)
	if err != nil {
		return &internal.ConfigError{Cause: err}
	}

	logger := observability.NewLogger(cfg.Logging)

	tracingShutdown, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer tracingShutdown(context.Background())

	metricsShutdown, err := observability.SetupMetrics(ctx, cfg.Metrics)
	if err != nil {
		return fmt.Errorf("setup metrics: %w", err)
	}
	defer metricsShutdown(context.Background())

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	provider, err := providers.New(llm.ProviderConfig{
		Provider:      cfg.LLM.Provider,
		Endpoint:      cfg.LLM.Endpoint,
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		MaxConcurrent: cfg.LLM.MaxConcurrent,
	})
	if err != nil {
		return fmt.Errorf("build llm provider: %w", err)
	}

	gatewayOpts := []llm.GatewayOption{}
	if cfg.LLM.RateLimitPerSecond > 0 {
		gatewayOpts = append(gatewayOpts, llm.WithRateLimit(cfg.LLM.RateLimitPerSecond, cfg.LLM.RateLimitBurst))
	}
	gateway := llm.NewGateway(provider, cfg.LLM.MaxConcurrent, gatewayOpts...)

	eventsManager := events.NewManager()

	roleFilePath := roleFile
	if roleFilePath == "" {
		roleFilePath = cfg.Orchestrator.RoleFile
	}
	roleSpecs := agent.DefaultRoleSpecs()
	if roleFilePath != "" {
		loaded, err := agent.LoadRoleSpecs(roleFilePath)
		if err != nil {
			return &internal.ConfigError{Cause: err}
		}
		roleSpecs = loaded
	}

	orc := orchestrator.New(orchestrator.Deps{
		Store:     st,
		Events:    eventsManager,
		Gateway:   gateway,
		RoleSpecs: roleSpecs,
		Config:    cfg.Orchestrator,
		Core:      cfg.Core,
		Logger:    logger,
		Tracer:    observability.Tracer("orchestrator"),
	})

	if reaped, err := orc.ReapStaleSessions(ctx); err != nil {
		logger.Warn("stale session reap failed", "error", err)
	} else if reaped > 0 {
		logger.Info("reaped stale sessions on startup", "count", reaped)
	}

	handler := api.New(orc, logger)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "version", version.Version, "commit", version.GitCommit)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-serveErr:
		return err
	}
}
