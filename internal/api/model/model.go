package model

import (
	"database/sql"
	"time"
)

type Job struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	Description        string         `db:"description"`
	JobTypeID          string         `db:"job_type_id"`
	CompanyID          string         `db:"company_id"`
	ClientID           string         `db:"client_id"`
	DispatcherID       string         `db:"dispatcher_id"`
	LocationCity       sql.NullString `db:"location_city"`
	LocationState      sql.NullString `db:"location_state"`
	LocationZip        sql.NullString `db:"location_zip"`
	LocationOther      sql.NullString `db:"location_other"`
	ScheduleStart      sql.NullTime   `db:"schedule_start"`
	ScheduleEnd        sql.NullTime   `db:"schedule_end"`
	ScheduleRecurrence sql.NullString `db:"schedule_recurrence"`
	Status             string         `db:"status"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// JobDetail is a job joined with its client, job type and dispatcher
type JobDetail struct {
	Job

	ClientFirstName     string `db:"client_first_name"`
	ClientLastName      string `db:"client_last_name"`
	ClientEmail         string `db:"client_email"`
	JobTypeName         string `db:"job_type_name"`
	DispatcherFirstName string `db:"dispatcher_first_name"`
	DispatcherLastName  string `db:"dispatcher_last_name"`

	Technicians []Technician `db:"-"`
}

type Workflow struct {
	ID        string    `db:"id"`
	JobID     string    `db:"job_id"`
	Type      string    `db:"type"`
	CreatedAt time.Time `db:"created_at"`

	Steps []Step `db:"-"`
}

type Step struct {
	ID         string    `db:"id"`
	WorkflowID string    `db:"workflow_id"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

type JobTechnician struct {
	ID           string `db:"id"`
	JobID        string `db:"job_id"`
	TechnicianID string `db:"technician_id"`
}

// Technician is a user assigned to a job
type Technician struct {
	ID        string `db:"id"`
	JobID     string `db:"job_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

type JobType struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

// StatusCount is one row of the per-status job breakdown
type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"count"`
}
