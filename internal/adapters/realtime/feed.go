package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/metrics"
)

const channelPrefix = "changes:"

// RedisChangeFeed публикует события изменений через Redis pub/sub.
// Канал на таблицу: changes:deals, changes:deal_claims, changes:deal_favorites.
type RedisChangeFeed struct {
	rdb *redis.Client
}

var _ domain.ChangeFeed = (*RedisChangeFeed)(nil)

func NewRedisChangeFeed(rdb *redis.Client) *RedisChangeFeed {
	return &RedisChangeFeed{rdb: rdb}
}

// Publish рассылает событие всем подписчикам канала таблицы. Доставка
// best-effort: pub/sub не хранит события для отсутствующих подписчиков.
func (f *RedisChangeFeed) Publish(ctx context.Context, event domain.ChangeEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	start := time.Now()
	err = f.rdb.Publish(ctx, channelPrefix+event.Table, payload).Err()
	metrics.ObserveNetworkRequest("redis", "publish_change", event.Table, start, err)
	return err
}
