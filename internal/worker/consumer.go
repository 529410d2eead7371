package worker

import (
	"context"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// handleDelivery processes one delivery and settles it. Processing is
// detached from ctx so a shutdown lets the event finish within eventTimeout.
func (w *Worker) handleDelivery(ctx context.Context, workerName string, d amqp.Delivery) {
	evCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.eventTimeout)
	defer cancel()

	log := w.logger.With(
		slog.String("worker_name", workerName),
		slog.String("message_id", d.MessageId),
		slog.Uint64("delivery_tag", d.DeliveryTag),
	)

	err := w.processor.Process(evCtx, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("Failed to ACK message", slog.Any("error", ackErr))
		}
		return
	}

	requeue := shouldRequeue(err)
	log.Error("Event processing failed",
		slog.Any("error", err),
		slog.Bool("requeue", requeue),
		slog.Bool("redelivered", d.Redelivered),
	)

	if nackErr := d.Nack(false, requeue); nackErr != nil {
		log.Error("Failed to NACK message", slog.Any("error", nackErr))
	}
}
