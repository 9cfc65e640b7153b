package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DistributionJob asks the worker to (re-)distribute one listing to the
// named platforms. Deferred rate-limit retries carry a single platform.
type DistributionJob struct {
	ListingID string   `json:"listing_id"`
	OwnerID   string   `json:"owner_id"`
	Platforms []string `json:"platforms"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Conn: conn, Ch: ch}
}

// PublishDistribution enqueues an immediate distribution job.
func (p *RabbitMQProducer) PublishDistribution(ctx context.Context, job DistributionJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal distribution job: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish distribution job: %w", err)
	}
	return nil
}

// ScheduleRetry parks the job on the retry queue for delay, after which the
// broker dead-letters it back to the work queue. Used for rate-limited
// platforms; the delay honors the platform's retry-after hint.
func (p *RabbitMQProducer) ScheduleRetry(ctx context.Context, job DistributionJob, delay time.Duration) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal retry job: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		"", // default exchange routes straight to the retry queue
		RetryQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Expiration:   expirationMillis(delay.Milliseconds()),
		},
	)
	if err != nil {
		return fmt.Errorf("schedule retry job: %w", err)
	}
	return nil
}
