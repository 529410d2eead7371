package domain

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a job
type JobStatus string

const (
	JobStatusCreated   JobStatus = "CREATED"
	JobStatusAccepted  JobStatus = "ACCEPTED"
	JobStatusAssigned  JobStatus = "ASSIGNED"
	JobStatusScheduled JobStatus = "SCHEDULED"
	JobStatusOngoing   JobStatus = "ONGOING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusCancelled JobStatus = "CANCELLED"
)

// JobStatuses lists every status in typical progression order
var JobStatuses = []JobStatus{
	JobStatusCreated,
	JobStatusAccepted,
	JobStatusAssigned,
	JobStatusScheduled,
	JobStatusOngoing,
	JobStatusCompleted,
	JobStatusCancelled,
}

// ParseJobStatus returns ErrInvalidStatus for anything outside the enum.
// Matching is exact; "completed" is not a valid status.
func ParseJobStatus(s string) (JobStatus, error) {
	for _, status := range JobStatuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether no further transitions are expected
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

func (s JobStatus) String() string {
	return string(s)
}

// Recurrence is how often a scheduled job repeats
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "DAILY"
	RecurrenceWeekly  Recurrence = "WEEKLY"
	RecurrenceMonthly Recurrence = "MONTHLY"
)

// ParseRecurrence validates a recurrence value
func ParseRecurrence(s string) (Recurrence, error) {
	switch r := Recurrence(s); r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return r, nil
	}
	return "", NewValidationError(fmt.Sprintf("recurrence must be one of [DAILY WEEKLY MONTHLY], got %q", s))
}

// WorkflowType distinguishes job workflows from the reserved subscription type
type WorkflowType string

const (
	WorkflowTypeJob          WorkflowType = "JOB"
	WorkflowTypeSubscription WorkflowType = "SUBSCRIPTION"
)

// Location is where the work happens
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
	Other string `json:"otherinfo,omitempty"`
}

// Schedule is the date range a job runs in
type Schedule struct {
	StartDate  time.Time   `json:"startDate"`
	EndDate    time.Time   `json:"endDate"`
	Recurrence *Recurrence `json:"recurrence"`
}

// NewSchedule validates the range and applies defaults: a missing end date
// becomes the start date and a missing recurrence stays unset.
func NewSchedule(start time.Time, end *time.Time, recurrence *string) (Schedule, error) {
	if start.IsZero() {
		return Schedule{}, NewValidationError("startDate is required")
	}

	sched := Schedule{StartDate: start, EndDate: start}

	if end != nil {
		if end.Before(start) {
			return Schedule{}, NewValidationError("end date cannot be earlier than start date")
		}
		sched.EndDate = *end
	}

	if recurrence != nil && *recurrence != "" {
		r, err := ParseRecurrence(*recurrence)
		if err != nil {
			return Schedule{}, err
		}
		sched.Recurrence = &r
	}

	return sched, nil
}
