package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Distributor is the piece of the engine the worker drives.
type Distributor interface {
	Distribute(ctx context.Context, listingID string, platforms []string) error
}

type Worker struct {
	Channel     *amqp.Channel
	Distributor Distributor
	Logger      *zap.Logger
}

func NewWorker(ch *amqp.Channel, d Distributor, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Distributor: d, Logger: logger}
}

// Start consumes distribution jobs until ctx is cancelled. A decode failure
// is a poison message and goes to the DLQ; a distribution error is requeued
// once and then dead-lettered.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	w.Logger.Info("distribution worker started", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg amqp.Delivery) {
	var job DistributionJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		w.Logger.Error("poison distribution job", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	log := w.Logger.With(
		zap.String("listing_id", job.ListingID),
		zap.Strings("platforms", job.Platforms),
	)

	if err := w.Distributor.Distribute(ctx, job.ListingID, job.Platforms); err != nil {
		// Requeue on the first failure, dead-letter on the redelivery.
		requeue := !msg.Redelivered
		log.Error("distribution job failed", zap.Error(err), zap.Bool("requeue", requeue))
		_ = msg.Nack(false, requeue)
		return
	}

	log.Info("distribution job done")
	_ = msg.Ack(false)
}
