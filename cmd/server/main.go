package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/config"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/db"
	httpapi "github.com/Mesh-254/drop-and-roll-backend-sub000/internal/http"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/matrix"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "routing-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	var cache *matrix.PairCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid redis url")
		}
		cache = matrix.NewPairCache(redis.NewClient(opts), 24*time.Hour)
		logger.Info().Msg("distance pair cache enabled")
	}

	var provider matrix.Provider
	if cfg.MatrixAPIKey == "" {
		provider = matrix.FallbackProvider{}
		logger.Info().Msg("using offline haversine matrix provider")
	} else {
		provider = &matrix.RoutingProvider{
			APIKey:  cfg.MatrixAPIKey,
			BaseURL: cfg.MatrixBaseURL,
			Client:  &http.Client{Timeout: 15 * time.Second},
			Cache:   cache,
			Logger:  logger,
		}
	}

	orch := &service.Orchestrator{
		Store:    store,
		Matrix:   provider,
		Bucketer: service.NewBucketer(nil),
		Optimizer: &service.Optimizer{
			TimeLimit: cfg.SolverTimeLimit,
			IterCap:   cfg.SolverIterCap,
			Seed:      cfg.SolverSeed,
			Logger:    logger,
		},
		Committer:    &service.Committer{Store: store, Logger: logger},
		Logger:       logger,
		MixedRoutes:  cfg.MixedRoutes,
		RetryDropped: cfg.RetryDropped,
	}
	resolver := &service.HubResolver{Store: store, Logger: logger}

	router := httpapi.Router(cfg, store, orch, resolver, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	schedCtx, stopSched := context.WithCancel(ctx)
	go runScheduler(schedCtx, orch, cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSched()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}

// runScheduler triggers the periodic sweep and the daily overdue-shift
// pass until ctx is cancelled.
func runScheduler(ctx context.Context, orch *service.Orchestrator, cfg config.Config, logger zerolog.Logger) {
	sweep := time.NewTicker(cfg.SweepInterval)
	overdue := time.NewTicker(cfg.OverdueInterval)
	defer sweep.Stop()
	defer overdue.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			if _, err := orch.RunWithRetry(ctx); err != nil {
				logger.Error().Err(err).Msg("scheduled sweep failed")
			}
		case <-overdue.C:
			n, err := orch.MarkOverdueShifts(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("overdue shift pass failed")
				continue
			}
			if n > 0 {
				logger.Info().Int64("shifts", n).Msg("shifts marked overdue")
			}
		}
	}
}
