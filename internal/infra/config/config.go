package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AuthTokenSecret string `envconfig:"AUTH_TOKEN_SECRET"`

	Storage struct {
		BaseURL    string        `envconfig:"STORAGE_BASE_URL"`
		ServiceKey string        `envconfig:"STORAGE_SERVICE_KEY"`
		Timeout    time.Duration `envconfig:"STORAGE_TIMEOUT" default:"15s"`
	} `envconfig:""`

	Telegram struct {
		Token       string `envconfig:"TG_BOT_TOKEN"`
		AdminChatID int64  `envconfig:"TG_ADMIN_CHAT_ID"`
	} `envconfig:""`

	Queues struct {
		Notify  string `envconfig:"NOTIFY_QUEUE_KEY" default:"notify_jobs"`
		AMQPURL string `envconfig:"AMQP_URL"`
	} `envconfig:""`

	Limits struct {
		MaxUploadBytes  int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
		CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"30s"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
