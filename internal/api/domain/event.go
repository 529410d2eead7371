package domain

import (
	"strings"
	"time"
)

// Job event types published after a lifecycle change commits
const (
	EventJobCreated       = "job.created"
	EventJobStatusChanged = "job.status_changed"
	EventJobDeleted       = "job.deleted"
)

// JobEvent is the message body published to the job events exchange
type JobEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	JobID      string    `json:"job_id"`
	CompanyID  string    `json:"company_id"`
	ClientID   string    `json:"client_id"`
	Status     JobStatus `json:"status"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RoutingKey is the topic routing key, e.g. "job.status_changed.completed"
func (e JobEvent) RoutingKey() string {
	return e.Type + "." + strings.ToLower(string(e.Status))
}
