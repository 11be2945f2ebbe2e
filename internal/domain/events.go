package domain

import (
	"context"
	"time"
)

// ChangeOp описывает вид изменения строки.
type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// Имена таблиц, по которым рассылаются события изменений.
const (
	TableDeals     = "deals"
	TableClaims    = "deal_claims"
	TableFavorites = "deal_favorites"
)

// ChangeEvent — уведомление об изменении строки. Подписчики не разбирают
// дельту: любое событие ведёт к инвалидации кэша и повторному чтению.
type ChangeEvent struct {
	Table      string    `json:"table"`
	Op         ChangeOp  `json:"op"`
	DealID     string    `json:"deal_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ChangeFeed публикует события изменений.
type ChangeFeed interface {
	Publish(ctx context.Context, event ChangeEvent) error
}

// NotificationKind описывает тип уведомления для админов.
type NotificationKind string

const (
	NotifyClaimCreated   NotificationKind = "claim_created"
	NotifyDealPublished  NotificationKind = "deal_published"
	NotifyContactMessage NotificationKind = "contact_message"
)

// NotificationJob — задача на отправку уведомления.
type NotificationJob struct {
	ID          string           `json:"job_id"`
	Kind        NotificationKind `json:"kind"`
	DealID      string           `json:"deal_id,omitempty"`
	DealTitle   string           `json:"deal_title,omitempty"`
	UserID      string           `json:"user_id,omitempty"`
	Message     string           `json:"message,omitempty"`
	RequestedAt time.Time        `json:"requested_at"`
}

// NotifyQueue — очередь задач на уведомления.
type NotifyQueue interface {
	Enqueue(ctx context.Context, job NotificationJob) error
	Pop(ctx context.Context) (NotificationJob, error)
}

// Notifier доставляет уведомление получателю.
type Notifier interface {
	Notify(ctx context.Context, job NotificationJob) error
}

// BusinessMetric описывает бизнесовое событие для последующего анализа.
type BusinessMetric struct {
	Event      string
	UserID     *string
	DealID     *string
	Metadata   map[string]any
	OccurredAt time.Time
}

const (
	// BusinessMetricEventDealPublished фиксирует публикацию предложения.
	BusinessMetricEventDealPublished = "deal_published"
	// BusinessMetricEventDealClaimed фиксирует занятие слота.
	BusinessMetricEventDealClaimed = "deal_claimed"
	// BusinessMetricEventDealDeleted фиксирует удаление предложения.
	BusinessMetricEventDealDeleted = "deal_deleted"
	// BusinessMetricEventContactMessage фиксирует сообщение обратной связи.
	BusinessMetricEventContactMessage = "contact_message"
)

// BusinessMetricRepo сохраняет бизнесовые события.
type BusinessMetricRepo interface {
	RecordBusinessMetric(ctx context.Context, metric BusinessMetric) error
}
