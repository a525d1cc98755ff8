package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/prepia/tutor/internal/api"
	"github.com/prepia/tutor/internal/auth"
	"github.com/prepia/tutor/internal/config"
	"github.com/prepia/tutor/internal/llm"
	"github.com/prepia/tutor/internal/logger"
	"github.com/prepia/tutor/internal/tutor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutoring HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides PORT env var)")
	serveCmd.Flags().String("env-file", ".env", "Environment file loaded before reading configuration")
}

// runServe loads configuration, builds dependencies and serves until
// interrupted.
func runServe(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogMode, logger.Options{HashSalt: cfg.SecretKey})
	if err != nil {
		return err
	}
	defer log.Sync()

	if p, _ := cmd.Flags().GetString("db"); p == "" && cfg.DBPath != "" {
		_ = cmd.Flags().Set("db", cfg.DBPath)
	}
	st, err := openStore(cmd)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	info := api.Info{Name: "PrepIA API", Version: version}
	provider, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
	if err != nil {
		log.Warn("generative provider not configured, AI routes will be unavailable", "error", err)
		provider = nil
	} else {
		info.Model = provider.ModelID()
	}

	tcfg := tutor.DefaultConfig()
	tcfg.CollaboratorTimeout = cfg.CollaboratorTimeout
	if cfg.ExamContext != "" {
		tcfg.ExamContext = cfg.ExamContext
	}
	svc := tutor.New(st, provider, nil, tcfg, log)

	issuer, err := auth.NewIssuer(cfg.SecretKey, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	h := api.NewHandler(st, svc, issuer, st, log, info)
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(h, cfg.AllowedOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.CollaboratorTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr, "model", info.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
