package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pitchside/strategy-api/internal/config"
	"github.com/pitchside/strategy-api/internal/handlers"
	"github.com/pitchside/strategy-api/internal/logic"
	"github.com/pitchside/strategy-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: profiles, aliases, friction, scenario history
	pgPool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("postgres pool init failed", "error", err)
	}
	defer pgPool.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := pgPool.Ping(pingCtx); err != nil {
		sugar.Warnw("postgres not reachable at startup", "error", err)
	}
	cancel()

	// ClickHouse: match event warehouse and strategy log
	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("clickhouse DSN invalid", "error", err)
	}
	chConn, err := clickhouse.Open(chOpts)
	if err != nil {
		sugar.Fatalw("clickhouse connect failed", "error", err)
	}
	defer chConn.Close()

	// Redis: profile cache and counters
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("redis URL invalid", "error", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	profiles := logic.NewProfileService(pgPool, chConn, redisClient, cfg.ProfileCacheTTL, sugar)
	friction := logic.NewFrictionService(pgPool, sugar)
	history := logic.NewHistoryService(pgPool, sugar)
	counters := logic.NewCounters(redisClient)

	pool := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    chConn,
		Postgres:      pgPool,
		Redis:         redisClient,
		Logger:        logger,
	})
	pool.Start(ctx)

	engineCfg := logic.DefaultEngineConfig()
	engineCfg.MinConfidence = cfg.MinConfidence
	engineCfg.MinEdge = cfg.MinEdge
	engineCfg.MaxRecommendations = cfg.MaxRecommendations
	engineCfg.MonteCarloEnabled = cfg.MonteCarlo.Enabled
	engineCfg.MonteCarlo.Simulations = cfg.MonteCarlo.Simulations
	engineCfg.MonteCarlo.NoiseLevel = cfg.MonteCarlo.NoiseLevel
	engineCfg.MonteCarlo.MinValidationScore = cfg.MonteCarlo.MinValidationScore
	engineCfg.MonteCarlo.MinSuccessRate = cfg.MonteCarlo.MinSuccessRate
	engineCfg.MonteCarlo.StressTest = cfg.MonteCarlo.StressTestRequired
	engineCfg.MonteCarlo.Workers = cfg.MonteCarlo.WorkerCount
	engineCfg.UseKelly = cfg.MonteCarlo.UseKelly

	engine := logic.NewEngine(ctx, logic.EngineDeps{
		Profiles: profiles,
		Friction: friction,
		History:  history,
		Recorder: pool,
		Counters: counters,
		Logger:   sugar,
	}, engineCfg)

	h := handlers.New(handlers.Config{
		Engine:     engine,
		Profiles:   profiles,
		WorkerPool: pool,
		Postgres:   pgPool,
		ClickHouse: chConn,
		Redis:      redisClient,
		Logger:     logger,
		BatchLimit: cfg.BatchLimit,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(rateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	r.Route("/api/v1", h.Routes)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sugar.Infow("Strategy API listening", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("server shutdown failed", "error", err)
	}

	// Drain the log queue after the HTTP surface stops accepting work
	pool.Stop()
	sugar.Info("Shutdown complete")
}

// rateLimit applies a process-wide token bucket. Analysis is CPU-bound,
// so a global limit protects the simulation workers better than per-IP.
func rateLimit(perSecond, burst int) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		perSecond = 100
	}
	if burst <= 0 {
		burst = perSecond * 2
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
