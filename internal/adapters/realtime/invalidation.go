package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/cache"
)

// BindInvalidation подписывает кэш на события изменений: любая запись в
// deals, deal_claims или deal_favorites сбрасывает затронутые ключи.
// Возвращает функцию отписки.
func BindInvalidation(hub *Hub, store domain.Cache, logger zerolog.Logger) func() {
	// Удаление уходит в отдельную горутину: подписчики хаба не должны
	// блокировать цикл доставки медленным кэшем.
	drop := func(event domain.ChangeEvent, keys ...string) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := store.Del(ctx, keys...); err != nil {
				logger.Warn().Err(err).Str("table", event.Table).Msg("не удалось инвалидировать кэш")
			}
		}()
	}

	unsubs := []func(){
		hub.Subscribe(domain.TableDeals, func(event domain.ChangeEvent) {
			keys := []string{cache.CatalogKey}
			if event.DealID != "" {
				keys = append(keys, cache.DealKey(event.DealID))
			}
			drop(event, keys...)
		}),
		hub.Subscribe(domain.TableClaims, func(event domain.ChangeEvent) {
			// Claim меняет availableSlots внутри каталога и карточки.
			keys := []string{cache.CatalogKey}
			if event.DealID != "" {
				keys = append(keys, cache.DealKey(event.DealID))
			}
			if event.UserID != "" {
				keys = append(keys, cache.ClaimedKey(event.UserID))
			}
			drop(event, keys...)
		}),
		hub.Subscribe(domain.TableFavorites, func(event domain.ChangeEvent) {
			if event.UserID == "" {
				return
			}
			drop(event, cache.FavoritesKey(event.UserID))
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
