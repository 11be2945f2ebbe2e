package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
)

// Hub раздаёт события изменений подписчикам внутри процесса.
// Подписка на канал Redis открывается при первом потребителе таблицы
// и закрывается при последнем: простаивающие каналы соединений не держат.
type Hub struct {
	rdb    *redis.Client
	logger zerolog.Logger

	mu     sync.Mutex
	tables map[string]*tableSub
}

type tableSub struct {
	pubsub    *redis.PubSub
	cancel    context.CancelFunc
	consumers map[string]func(domain.ChangeEvent)
}

func NewHub(rdb *redis.Client, logger zerolog.Logger) *Hub {
	return &Hub{
		rdb:    rdb,
		logger: logger,
		tables: make(map[string]*tableSub),
	}
}

// Subscribe регистрирует потребителя событий таблицы и возвращает функцию
// отписки. fn вызывается из горутины подписки и не должен блокировать.
func (h *Hub) Subscribe(table string, fn func(domain.ChangeEvent)) func() {
	token := uuid.NewString()

	h.mu.Lock()
	sub, ok := h.tables[table]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		pubsub := h.rdb.Subscribe(ctx, channelPrefix+table)
		sub = &tableSub{
			pubsub:    pubsub,
			cancel:    cancel,
			consumers: make(map[string]func(domain.ChangeEvent)),
		}
		h.tables[table] = sub
		go h.listen(ctx, table, pubsub)
	}
	sub.consumers[token] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		sub, ok := h.tables[table]
		if !ok {
			return
		}
		delete(sub.consumers, token)
		if len(sub.consumers) == 0 {
			sub.cancel()
			_ = sub.pubsub.Close()
			delete(h.tables, table)
		}
	}
}

func (h *Hub) listen(ctx context.Context, table string, pubsub *redis.PubSub) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn().Err(err).Str("table", table).Msg("не удалось разобрать событие изменения")
				continue
			}
			h.dispatch(table, event)
		}
	}
}

func (h *Hub) dispatch(table string, event domain.ChangeEvent) {
	h.mu.Lock()
	sub, ok := h.tables[table]
	if !ok {
		h.mu.Unlock()
		return
	}
	consumers := make([]func(domain.ChangeEvent), 0, len(sub.consumers))
	for _, fn := range sub.consumers {
		consumers = append(consumers, fn)
	}
	h.mu.Unlock()

	for _, fn := range consumers {
		fn(event)
	}
}

// Close останавливает все подписки.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for table, sub := range h.tables {
		sub.cancel()
		_ = sub.pubsub.Close()
		delete(h.tables, table)
	}
}
