package realtime

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
)

func newTestHub() *Hub {
	// Адрес заведомо недоступен: тесты работают через внутреннюю
	// диспетчеризацию, соединение с Redis не требуется.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return NewHub(rdb, zerolog.Nop())
}

func (h *Hub) consumerCount(table string) (tables, consumers int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.tables[table]
	if !ok {
		return len(h.tables), 0
	}
	return len(h.tables), len(sub.consumers)
}

func TestHubSubscribeOpensChannelOnce(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	unsub1 := hub.Subscribe(domain.TableDeals, func(domain.ChangeEvent) {})
	unsub2 := hub.Subscribe(domain.TableDeals, func(domain.ChangeEvent) {})
	defer unsub1()
	defer unsub2()

	tables, consumers := hub.consumerCount(domain.TableDeals)
	if tables != 1 {
		t.Fatalf("два потребителя одной таблицы делят одну подписку, таблиц %d", tables)
	}
	if consumers != 2 {
		t.Fatalf("ожидали 2 потребителей, получили %d", consumers)
	}
}

func TestHubUnsubscribeLastConsumerTearsDown(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	unsub1 := hub.Subscribe(domain.TableDeals, func(domain.ChangeEvent) {})
	unsub2 := hub.Subscribe(domain.TableDeals, func(domain.ChangeEvent) {})

	unsub1()
	if tables, consumers := hub.consumerCount(domain.TableDeals); tables != 1 || consumers != 1 {
		t.Fatalf("после первой отписки подписка живёт: tables=%d consumers=%d", tables, consumers)
	}

	unsub2()
	if tables, _ := hub.consumerCount(domain.TableDeals); tables != 0 {
		t.Fatalf("после последней отписки канал должен закрываться, таблиц %d", tables)
	}

	// Повторная отписка безопасна.
	unsub1()
	unsub2()
}

func TestHubDispatchDeliversOnlyToSubscribed(t *testing.T) {
	hub := newTestHub()
	defer hub.Close()

	var dealEvents, claimEvents []domain.ChangeEvent
	unsubDeals := hub.Subscribe(domain.TableDeals, func(e domain.ChangeEvent) {
		dealEvents = append(dealEvents, e)
	})
	defer unsubDeals()
	unsubClaims := hub.Subscribe(domain.TableClaims, func(e domain.ChangeEvent) {
		claimEvents = append(claimEvents, e)
	})

	hub.dispatch(domain.TableDeals, domain.ChangeEvent{Table: domain.TableDeals, Op: domain.ChangeInsert, DealID: "d1"})
	if len(dealEvents) != 1 || dealEvents[0].DealID != "d1" {
		t.Fatalf("потребитель deals должен получить событие, получили %+v", dealEvents)
	}
	if len(claimEvents) != 0 {
		t.Fatalf("событие deals не должно уходить потребителю claims")
	}

	unsubClaims()
	hub.dispatch(domain.TableClaims, domain.ChangeEvent{Table: domain.TableClaims})
	if len(claimEvents) != 0 {
		t.Fatalf("после отписки события не доставляются, получили %+v", claimEvents)
	}
}

func TestHubCloseTearsDownAllTables(t *testing.T) {
	hub := newTestHub()

	hub.Subscribe(domain.TableDeals, func(domain.ChangeEvent) {})
	hub.Subscribe(domain.TableFavorites, func(domain.ChangeEvent) {})
	hub.Close()

	hub.mu.Lock()
	remaining := len(hub.tables)
	hub.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("Close должен снимать все подписки, осталось %d", remaining)
	}

	// Хаб пригоден к повторному использованию после Close.
	unsub := hub.Subscribe(domain.TableDeals, func(domain.ChangeEvent) {})
	unsub()
}
