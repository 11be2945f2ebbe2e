package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/metrics"
)

// RabbitNotifyQueue реализует очередь уведомлений через RabbitMQ.
type RabbitNotifyQueue struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

// NewRabbitNotifyQueue подключается к брокеру и объявляет durable-очередь.
func NewRabbitNotifyQueue(url, queue string) (*RabbitNotifyQueue, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitNotifyQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitNotifyQueue) Enqueue(ctx context.Context, job domain.NotificationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди.
func (q *RabbitNotifyQueue) Pop(ctx context.Context) (domain.NotificationJob, error) {
	if q.deliveries == nil {
		deliveries, err := q.ch.ConsumeWithContext(ctx, q.queue, "", true, false, false, false, nil)
		if err != nil {
			return domain.NotificationJob{}, fmt.Errorf("consume: %w", err)
		}
		q.deliveries = deliveries
	}
	select {
	case <-ctx.Done():
		return domain.NotificationJob{}, ctx.Err()
	case delivery, ok := <-q.deliveries:
		if !ok {
			return domain.NotificationJob{}, errors.New("rabbitmq queue: channel closed")
		}
		var job domain.NotificationJob
		if err := json.Unmarshal(delivery.Body, &job); err != nil {
			return domain.NotificationJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}

// Close освобождает соединение с брокером.
func (q *RabbitNotifyQueue) Close() error {
	if q.ch != nil {
		_ = q.ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
