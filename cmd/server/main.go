package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codementor-ai/codementor-backend/internal/api"
	"github.com/codementor-ai/codementor-backend/internal/config"
	"github.com/codementor-ai/codementor-backend/internal/core"
	"github.com/codementor-ai/codementor-backend/internal/llm"
	"github.com/codementor-ai/codementor-backend/internal/logger"
	"github.com/codementor-ai/codementor-backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "codementor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)
	log.Info().Str("environment", cfg.Environment).Str("log_level", cfg.LogLevel).Msg("service starting")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	dbStore, err := store.Open(startupCtx, cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer dbStore.Close()
	if cfg.UsesMongo() {
		log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
	} else {
		log.Info().Str("path", cfg.DatabaseURL).Msg("using SQLite store")
	}

	provider, err := llm.NewProvider(startupCtx, cfg)
	if err != nil {
		return fmt.Errorf("initialize inference provider: %w", err)
	}
	llmService := core.NewLLMService(provider, cfg.InferenceTimeout, log)
	defer llmService.Close()
	if llmService.Configured() {
		log.Info().Str("provider", provider.Name()).Dur("timeout", cfg.InferenceTimeout).Msg("inference provider configured")
	} else {
		log.Warn().Msg("no inference API key set, chat and analysis will answer with fallback text")
	}

	validator := core.NewRequestValidator(cfg.SupportedLanguages)
	chatService := core.NewChatService(dbStore, llmService, validator)
	codeService := core.NewCodeService(dbStore, llmService, validator)

	apiHandler := api.NewAPIHandler(chatService, codeService, log, cfg.IsProduction())
	router := api.NewRouter(apiHandler, api.RouterOptions{
		FrontendURL:  cfg.FrontendURL,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.InferenceTimeout + 15*time.Second, // inference calls dominate
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Strs("languages", validator.Languages()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited gracefully")
	return nil
}
