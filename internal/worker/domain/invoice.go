package domain

import "time"

const (
	InvoiceTypeJob     = "JOB"
	InvoiceStatusDraft = "DRAFT"
	InvoiceStageDraft  = "DRAFT"
)

// Invoice is a billing document drafted for a completed job
type Invoice struct {
	ID        string    `db:"id"`
	Type      string    `db:"type"`
	JobID     string    `db:"job_id"`
	ClientID  string    `db:"client_id"`
	CompanyID string    `db:"company_id"`
	Status    string    `db:"status"`
	IssueDate time.Time `db:"issue_date"`
	DueDate   time.Time `db:"due_date"`
	CreatedAt time.Time `db:"created_at"`
}
