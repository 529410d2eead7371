package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/shared/rabbitmq"
)

const contentTypeJSON = "application/json"

// Broker is the part of the RabbitMQ client the publisher needs
type Broker interface {
	PublishWithRetry(ctx context.Context, routingKey string, msg rabbitmq.Message) error
}

// Publisher sends job events to the job events exchange
type Publisher struct {
	broker Broker
	logger *slog.Logger
}

func NewPublisher(broker Broker, logger *slog.Logger) *Publisher {
	return &Publisher{
		broker: broker,
		logger: logger,
	}
}

func (p *Publisher) Publish(ctx context.Context, event domain.JobEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	routingKey := event.RoutingKey()
	if err := p.broker.PublishWithRetry(ctx, routingKey, rabbitmq.Message{
		MessageID:   event.EventID,
		Type:        event.Type,
		ContentType: contentTypeJSON,
		Body:        body,
	}); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Job event published",
		slog.String("routing_key", routingKey),
		slog.String("job_id", event.JobID),
	)

	return nil
}
