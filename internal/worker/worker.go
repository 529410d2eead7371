package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer opens a stream of deliveries from the job events queue
type Consumer interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Config holds worker configuration
type Config struct {
	Logger       *slog.Logger
	Consumer     Consumer
	Processor    *Processor
	ConsumerTag  string
	Concurrency  int
	EventTimeout time.Duration
}

// Worker consumes job events and drafts invoices for completed jobs
type Worker struct {
	logger       *slog.Logger
	consumer     Consumer
	processor    *Processor
	consumerTag  string
	concurrency  int
	eventTimeout time.Duration
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	eventTimeout := cfg.EventTimeout
	if eventTimeout <= 0 {
		eventTimeout = 30 * time.Second
	}

	return &Worker{
		logger:       cfg.Logger,
		consumer:     cfg.Consumer,
		processor:    cfg.Processor,
		consumerTag:  cfg.ConsumerTag,
		concurrency:  concurrency,
		eventTimeout: eventTimeout,
	}
}

// Start consumes events until ctx is canceled. In-flight events are finished
// before Start returns.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.Int("concurrency", w.concurrency),
		slog.Duration("event_timeout", w.eventTimeout),
		slog.String("consumer_tag", w.consumerTag),
	)

	deliveries, err := w.consumer.Consume(w.consumerTag)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	if err := w.runPool(ctx, deliveries); err != nil {
		return err
	}

	w.logger.Info("Worker stopped")
	return nil
}
