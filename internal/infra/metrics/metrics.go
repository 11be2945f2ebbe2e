package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	CatalogRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Количество запросов каталога предложений",
	})
	CatalogCacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_total",
		Help: "Попадания и промахи кэша каталога",
	}, []string{"result"})
	ClaimsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deal_claims_total",
		Help: "Количество успешно занятых слотов",
	})
	ClaimRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deal_claim_rejections_total",
		Help: "Отклонённые попытки занять слот по причинам",
	}, []string{"reason"})
	DealUploadsBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deal_upload_bytes_total",
		Help: "Объём загруженных файлов по бакетам",
	}, []string{"bucket"})
	NotifySendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notify_send_errors_total",
		Help: "Ошибки отправки уведомлений",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		CatalogRequestsTotal,
		CatalogCacheHits,
		ClaimsTotal,
		ClaimRejections,
		DealUploadsBytes,
		NotifySendErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncClaimRejection увеличивает счётчик отклонённых claim по причине.
func IncClaimRejection(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	ClaimRejections.WithLabelValues(reason).Inc()
}
