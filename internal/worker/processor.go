package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apidomain "github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/worker/domain"
	"github.com/google/uuid"
)

// InvoiceStore drafts invoices for completed jobs
type InvoiceStore interface {
	DraftInvoice(ctx context.Context, jobID string, dueDate time.Time) (*domain.Invoice, bool, error)
}

// Processor turns job events into invoice drafts
type Processor struct {
	store  InvoiceStore
	logger *slog.Logger
	dueIn  time.Duration
	now    func() time.Time
}

// NewProcessor creates a processor that drafts invoices due dueIn after the
// job completes
func NewProcessor(store InvoiceStore, logger *slog.Logger, dueIn time.Duration) *Processor {
	return &Processor{
		store:  store,
		logger: logger,
		dueIn:  dueIn,
		now:    time.Now,
	}
}

// Process handles one event body. Events other than a move to COMPLETED are
// acknowledged without side effects.
func (p *Processor) Process(ctx context.Context, body []byte) error {
	var event apidomain.JobEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	if _, err := uuid.Parse(event.JobID); err != nil {
		return fmt.Errorf("%w: job_id %q is not a UUID", domain.ErrInvalidPayload, event.JobID)
	}

	if event.Type != apidomain.EventJobStatusChanged || event.Status != apidomain.JobStatusCompleted {
		p.logger.Debug("Ignoring job event",
			slog.String("event_id", event.EventID),
			slog.String("type", event.Type),
			slog.String("status", string(event.Status)),
		)
		return nil
	}

	dueDate := p.now().UTC().Add(p.dueIn)

	inv, created, err := p.store.DraftInvoice(ctx, event.JobID, dueDate)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			p.logger.Warn("Completed job no longer exists, skipping invoice",
				slog.String("job_id", event.JobID),
				slog.String("event_id", event.EventID),
			)
			return err
		}
		return domain.NewRetryableError(fmt.Errorf("failed to draft invoice: %w", err))
	}

	if created {
		p.logger.Info("Drafted invoice for completed job",
			slog.String("job_id", event.JobID),
			slog.String("invoice_id", inv.ID),
		)
	}

	return nil
}
