package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/fieldservice-be/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

// runPool runs concurrency worker goroutines over one delivery stream. The
// first goroutine to fail cancels the rest.
func (w *Worker) runPool(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < w.concurrency; i++ {
		name := fmt.Sprintf("%s-%d", w.consumerTag, i)
		g.Go(func() error {
			return w.workerLoop(gctx, name, deliveries)
		})
	}

	w.logger.Info("Worker pool spawned successfully",
		slog.Int("worker_count", w.concurrency),
	)

	return g.Wait()
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerName string, deliveries <-chan amqp.Delivery) error {
	w.logger.Debug("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return nil

		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Warn("RabbitMQ delivery channel closed",
					slog.String("worker_name", workerName),
				)
				return domain.ErrDeliveriesClosed
			}

			w.handleDelivery(ctx, workerName, d)
		}
	}
}

// shouldRequeue reports whether a failed event is worth redelivering
func shouldRequeue(err error) bool {
	if errors.Is(err, domain.ErrInvalidPayload) {
		return false
	}

	if errors.Is(err, domain.ErrJobNotFound) {
		return false
	}

	var retryableErr *domain.RetryableError
	return errors.As(err, &retryableErr)
}
