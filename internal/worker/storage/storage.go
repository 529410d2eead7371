package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/worker/domain"
	"github.com/cuongbtq/fieldservice-be/shared/postgresql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

type jobOwner struct {
	ClientID  string `db:"client_id"`
	CompanyID string `db:"company_id"`
}

// DraftInvoice creates a DRAFT invoice for the job together with its first
// workflow entry. The bool result is false when the job already has an
// invoice, in which case nothing is written.
func (s *Storage) DraftInvoice(ctx context.Context, jobID string, dueDate time.Time) (*domain.Invoice, bool, error) {
	var (
		inv     domain.Invoice
		created bool
	)

	err := postgresql.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var owner jobOwner
		err := tx.GetContext(ctx, &owner, `SELECT client_id, company_id FROM jobs WHERE id = $1`, jobID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrJobNotFound
			}
			return fmt.Errorf("failed to load job: %w", err)
		}

		query := `
			INSERT INTO invoices (id, type, job_id, client_id, company_id, status, due_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (job_id) DO NOTHING
			RETURNING id, type, job_id, client_id, company_id, status, issue_date, due_date, created_at
		`
		err = tx.GetContext(ctx, &inv, query,
			uuid.NewString(),
			domain.InvoiceTypeJob,
			jobID,
			owner.ClientID,
			owner.CompanyID,
			domain.InvoiceStatusDraft,
			dueDate,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to insert invoice: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO invoice_workflows (id, invoice_id, current_stage) VALUES ($1, $2, $3)`,
			uuid.NewString(), inv.ID, domain.InvoiceStageDraft,
		)
		if err != nil {
			return fmt.Errorf("failed to insert invoice workflow: %w", err)
		}

		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if !created {
		s.logger.Info("Invoice already drafted for job",
			slog.String("job_id", jobID),
		)
		return nil, false, nil
	}

	s.logger.Info("Invoice drafted",
		slog.String("job_id", jobID),
		slog.String("invoice_id", inv.ID),
		slog.Time("due_date", inv.DueDate),
	)

	return &inv, true, nil
}
