package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"splitclub-server/internal/adapters/notify"
	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/config"
	"splitclub-server/internal/infra/log"
	"splitclub-server/internal/infra/metrics"
	"splitclub-server/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv).With().Str("component", "notifier").Logger()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("notifier: не удалось создать Telegram-бота")
	}
	notifier := notify.NewTelegramNotifier(botAPI, cfg.Telegram.AdminChatID)

	var jobs domain.NotifyQueue
	if cfg.Queues.AMQPURL != "" {
		rabbit, err := queue.NewRabbitNotifyQueue(cfg.Queues.AMQPURL, cfg.Queues.Notify)
		if err != nil {
			logger.Fatal().Err(err).Msg("notifier: нет подключения к RabbitMQ")
		}
		defer rabbit.Close()
		jobs = rabbit
	} else {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		jobs = queue.NewRedisNotifyQueue(rdb, cfg.Queues.Notify)
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	logger.Info().Msg("notifier: старт")
	for {
		job, err := jobs.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				logger.Info().Msg("notifier: остановка")
				return
			}
			logger.Error().Err(err).Msg("notifier: ошибка чтения очереди")
			time.Sleep(time.Second)
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := notifier.Notify(sendCtx, job); err != nil {
			logger.Error().Err(err).Str("kind", string(job.Kind)).Msg("notifier: не удалось отправить уведомление")
		}
		cancel()
	}
}
