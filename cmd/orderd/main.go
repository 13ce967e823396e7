// Command orderd runs the orderdesk HTTP server: keyset-paginated order and
// audit listings over PostgreSQL with a Redis-backed first-page cache.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/orderdesk/orderdesk/internal/api"
	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/pkg/cache"
	"github.com/orderdesk/orderdesk/pkg/logging"
	"github.com/orderdesk/orderdesk/pkg/pagination"
	"github.com/orderdesk/orderdesk/pkg/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "orderdesk.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger is not configured yet.
		os.Stderr.WriteString("orderd: " + err.Error() + "\n")
		return 1
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("log_level", cfg.Log.Level).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("orderd starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error().Err(err).Msg("Database bootstrap failed")
		return 1
	}
	defer st.Close()

	var pageCache *cache.Manager
	if cfg.Cache.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis bootstrap failed")
			return 1
		}
		pageCache = cache.NewManager(redisClient, cfg.Cache.TTL)
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Cache.TTL).Msg("Connected to Redis")
	}

	server := api.NewServer(st, pageCache, pagination.Config{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			return 1
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Graceful shutdown incomplete")
		return 1
	}

	log.Info().Msg("orderd stopped")
	return 0
}
