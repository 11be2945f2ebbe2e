package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/cache"
	"splitclub-server/internal/infra/metrics"
)

// Service отдаёт каталог предложений через кэш. Фильтрация выполняется
// после чтения: кэшируется один общий срез активных предложений, а не
// выдача под каждую комбинацию фильтров.
type Service struct {
	deals  domain.DealRepo
	store  domain.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewService(deals domain.DealRepo, store domain.Cache, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{deals: deals, store: store, ttl: ttl, logger: logger}
}

// ListDeals возвращает отфильтрованный каталог. Ошибка чтения БД
// пробрасывается вызывающему: пустая выдача и сбой различимы.
func (s *Service) ListDeals(ctx context.Context, state FilterState, searchQuery, excludeUserID string) ([]domain.Deal, error) {
	metrics.CatalogRequestsTotal.Inc()

	deals, err := s.loadActive(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(deals, state, searchQuery, excludeUserID, time.Now().UTC()), nil
}

// GetDeal возвращает карточку предложения, сперва из кэша.
func (s *Service) GetDeal(ctx context.Context, id string) (domain.Deal, error) {
	key := cache.DealKey(id)
	if data, err := s.store.Get(ctx, key); err == nil {
		var deal domain.Deal
		if err := json.Unmarshal(data, &deal); err == nil {
			return deal, nil
		}
	}

	deal, err := s.deals.GetDealByID(ctx, id)
	if err != nil {
		return domain.Deal{}, err
	}
	if data, err := json.Marshal(deal); err == nil {
		if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("deal_id", id).Msg("не удалось записать карточку в кэш")
		}
	}
	return deal, nil
}

func (s *Service) loadActive(ctx context.Context) ([]domain.Deal, error) {
	if data, err := s.store.Get(ctx, cache.CatalogKey); err == nil {
		var deals []domain.Deal
		if err := json.Unmarshal(data, &deals); err == nil {
			metrics.CatalogCacheHits.WithLabelValues("hit").Inc()
			return deals, nil
		}
	}
	metrics.CatalogCacheHits.WithLabelValues("miss").Inc()

	deals, err := s.deals.ListActiveDeals(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(deals); err == nil {
		if err := s.store.Set(ctx, cache.CatalogKey, data, s.ttl); err != nil {
			s.logger.Warn().Err(err).Msg("не удалось записать каталог в кэш")
		}
	}
	return deals, nil
}
