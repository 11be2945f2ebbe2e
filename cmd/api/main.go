package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"splitclub-server/internal/adapters/filestore"
	"splitclub-server/internal/adapters/httpapi"
	"splitclub-server/internal/adapters/realtime"
	"splitclub-server/internal/adapters/repo"
	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/cache"
	"splitclub-server/internal/infra/config"
	"splitclub-server/internal/infra/db"
	infrahttp "splitclub-server/internal/infra/http"
	"splitclub-server/internal/infra/log"
	"splitclub-server/internal/infra/metrics"
	"splitclub-server/internal/infra/queue"
	"splitclub-server/internal/usecase/catalog"
	"splitclub-server/internal/usecase/claims"
	"splitclub-server/internal/usecase/deals"
	"splitclub-server/internal/usecase/favorites"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv).With().Str("component", "api").Logger()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	repoAdapter := repo.NewPostgres(pool)
	store := cache.NewRedis(rdb)
	files := filestore.NewClient(filestore.Config{
		BaseURL:    cfg.Storage.BaseURL,
		ServiceKey: cfg.Storage.ServiceKey,
		Timeout:    cfg.Storage.Timeout,
	})

	feed := realtime.NewRedisChangeFeed(rdb)
	hub := realtime.NewHub(rdb, logger.With().Str("component", "realtime").Logger())
	defer hub.Close()
	unbind := realtime.BindInvalidation(hub, store, logger.With().Str("component", "invalidation").Logger())
	defer unbind()

	notifyQueue := newNotifyQueue(cfg, rdb, logger)

	catalogSvc := catalog.NewService(repoAdapter, store, cfg.Limits.CatalogCacheTTL, logger.With().Str("component", "catalog").Logger())
	dealsSvc := deals.NewService(repoAdapter, files, store, feed, notifyQueue, logger.With().Str("component", "deals").Logger())
	claimsSvc := claims.NewService(repoAdapter, repoAdapter, feed, notifyQueue, logger.With().Str("component", "claims").Logger())
	favoritesSvc := favorites.NewService(repoAdapter, feed, logger.With().Str("component", "favorites").Logger())

	handler := httpapi.NewHandler(httpapi.Deps{
		Catalog:   catalogSvc,
		Deals:     dealsSvc,
		Claims:    claimsSvc,
		Favorites: favoritesSvc,
		Contacts:  repoAdapter,
		Profiles:  repoAdapter,
		Stats:     repoAdapter,
		Biz:       repoAdapter,
		Queue:     notifyQueue,
		Files:     files,
		Secret:    cfg.AuthTokenSecret,
		MaxUpload: cfg.Limits.MaxUploadBytes,
		Logger:    logger.With().Str("component", "httpapi").Logger(),
	})

	server := infrahttp.NewServer(logger.With().Str("component", "http").Logger())
	handler.Routes(server.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	go func() {
		if err := server.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

// newNotifyQueue выбирает транспорт очереди: RabbitMQ при заданном AMQP_URL,
// иначе Redis list.
func newNotifyQueue(cfg config.AppConfig, rdb *redis.Client, logger zerolog.Logger) domain.NotifyQueue {
	if cfg.Queues.AMQPURL != "" {
		rabbit, err := queue.NewRabbitNotifyQueue(cfg.Queues.AMQPURL, cfg.Queues.Notify)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к RabbitMQ")
		}
		return rabbit
	}
	return queue.NewRedisNotifyQueue(rdb, cfg.Queues.Notify)
}
