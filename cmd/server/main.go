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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/CodeRoom/internal/adapters/http"
	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/executor"
	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logger first so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	opts, err := orchOptions(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	runner := executor.NewPistonClient(executor.Config{
		URL:      cfg.Executor.URL,
		Timeout:  cfg.Executor.Timeout,
		Versions: cfg.Executor.Versions,
	})
	o := orch.New(ctx, app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{}, runner, opts)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.NewHandler(ctx, cfg, o),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("lock_policy", string(opts.LockPolicy)).Msg("CodeRoom server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	cancel()
	o.Close()
	log.Info().Msg("Server exited gracefully")
}

func orchOptions(cfg *config.Config) (orch.Options, error) {
	policy, err := app.ParseLockPolicy(cfg.Lock.Policy)
	if err != nil {
		return orch.Options{}, err
	}
	langScope, err := app.ParseScope(cfg.Relay.LanguageScope, app.ScopeOthers)
	if err != nil {
		return orch.Options{}, fmt.Errorf("relay.language_scope: %w", err)
	}
	runScope, err := app.ParseScope(cfg.Relay.RunScope, app.ScopeRoom)
	if err != nil {
		return orch.Options{}, fmt.Errorf("relay.run_scope: %w", err)
	}
	return orch.Options{
		LockPolicy:        policy,
		LockIdleTimeout:   cfg.Lock.IdleTimeout,
		LanguageScope:     langScope,
		RunScope:          runScope,
		MaxConcurrentRuns: cfg.Executor.MaxConcurrent,
	}, nil
}
