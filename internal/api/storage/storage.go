package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/shared/postgresql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Querier is every statement the job service issues. It is satisfied both
// by the pool-backed Storage and by the transaction handed to RunInTx.
type Querier interface {
	InsertJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	LockJob(ctx context.Context, jobID string) (*model.Job, error)
	GetJobDetail(ctx context.Context, jobID string) (*model.JobDetail, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.JobDetail, error)
	UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, at time.Time) error
	UpdateJobLocation(ctx context.Context, jobID string, loc domain.Location, at time.Time) error
	UpdateJobSchedule(ctx context.Context, jobID string, sched domain.Schedule, at time.Time) error
	UpdateJobFields(ctx context.Context, jobID string, fields JobFields, at time.Time) error
	DeleteJob(ctx context.Context, jobID string) error

	InsertWorkflow(ctx context.Context, wf *model.Workflow) error
	GetWorkflowByJobID(ctx context.Context, jobID string) (*model.Workflow, error)
	AppendStep(ctx context.Context, step *model.Step) (bool, error)
	ListWorkflowsByCompany(ctx context.Context, companyID string) ([]model.Workflow, error)
	DeleteWorkflowsByJobID(ctx context.Context, jobID string) error

	InsertJobTechnicians(ctx context.Context, rows []model.JobTechnician) error
	DeleteJobTechnicians(ctx context.Context, jobID string) error
	ListJobTechnicians(ctx context.Context, jobID string) ([]model.Technician, error)

	FindUserIDs(ctx context.Context, userIDs []string) ([]string, error)
	RoleNameOf(ctx context.Context, userID string) (string, error)
	ListJobTypes(ctx context.Context) ([]model.JobType, error)
	CountJobsByStatus(ctx context.Context, companyID string) ([]model.StatusCount, error)
}

// Store is a Querier that can also open transactions
type Store interface {
	Querier
	RunInTx(ctx context.Context, fn func(q Querier) error) error
}

// JobFields holds the optional columns of a partial job update; nil fields
// are left untouched.
type JobFields struct {
	Name         *string
	Description  *string
	JobTypeID    *string
	ClientID     *string
	DispatcherID *string
	Location     *domain.Location
}

type JobFilter struct {
	CompanyID string
	Status    string
	PageSize  int
	Cursor    *JobCursor
}

type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// Storage is the PostgreSQL implementation of Store
type Storage struct {
	*Queries
	db *sqlx.DB
}

var _ Store = (*Storage)(nil)

func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return NewStorageFromDB(pg.GetDB(), logger)
}

// NewStorageFromDB wraps an existing sqlx handle
func NewStorageFromDB(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		Queries: &Queries{ext: db, logger: logger},
		db:      db,
	}
}

// RunInTx executes fn in a read-committed transaction, committing only when
// fn returns nil.
func (s *Storage) RunInTx(ctx context.Context, fn func(q Querier) error) error {
	return postgresql.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&Queries{ext: tx, logger: s.logger})
	})
}

// Queries issues statements against a pool or a transaction
type Queries struct {
	ext    sqlx.ExtContext
	logger *slog.Logger
}

var _ Querier = (*Queries)(nil)

const jobColumns = `
	j.id, j.name, j.description, j.job_type_id, j.company_id, j.client_id, j.dispatcher_id,
	j.location_city, j.location_state, j.location_zip, j.location_other,
	j.schedule_start, j.schedule_end, j.schedule_recurrence,
	j.status, j.created_at, j.updated_at`

const jobDetailSelect = `
	SELECT ` + jobColumns + `,
		c.first_name AS client_first_name,
		c.last_name  AS client_last_name,
		c.email      AS client_email,
		t.name       AS job_type_name,
		d.first_name AS dispatcher_first_name,
		d.last_name  AS dispatcher_last_name
	FROM jobs j
	JOIN clients   c ON c.id = j.client_id
	JOIN job_types t ON t.id = j.job_type_id
	JOIN users     d ON d.id = j.dispatcher_id`

func (q *Queries) InsertJob(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			id, name, description, job_type_id, company_id, client_id,
			dispatcher_id, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10
		)
	`

	_, err := q.ext.ExecContext(ctx, query,
		job.ID,
		job.Name,
		job.Description,
		job.JobTypeID,
		job.CompanyID,
		job.ClientID,
		job.DispatcherID,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", translate(err))
	}

	return nil
}

func (q *Queries) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	return q.getJob(ctx, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, jobID)
}

// LockJob reads the job and holds its row lock until the transaction ends,
// serializing concurrent transitions of the same job.
func (q *Queries) LockJob(ctx context.Context, jobID string) (*model.Job, error) {
	return q.getJob(ctx, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1 FOR UPDATE`, jobID)
}

func (q *Queries) getJob(ctx context.Context, query, jobID string) (*model.Job, error) {
	var job model.Job
	if err := sqlx.GetContext(ctx, q.ext, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (q *Queries) GetJobDetail(ctx context.Context, jobID string) (*model.JobDetail, error) {
	var detail model.JobDetail
	if err := sqlx.GetContext(ctx, q.ext, &detail, jobDetailSelect+` WHERE j.id = $1`, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	techs, err := q.ListJobTechnicians(ctx, jobID)
	if err != nil {
		return nil, err
	}
	detail.Technicians = techs

	return &detail, nil
}

func (q *Queries) ListJobs(ctx context.Context, filter JobFilter) ([]model.JobDetail, error) {
	query := jobDetailSelect + ` WHERE j.company_id = $1`
	args := []interface{}{filter.CompanyID}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND j.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (j.created_at, j.id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY j.created_at DESC, j.id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []model.JobDetail
	if err := sqlx.SelectContext(ctx, q.ext, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		return jobs, nil
	}

	ids := make([]string, len(jobs))
	for i := range jobs {
		ids[i] = jobs[i].ID
	}

	var techs []model.Technician
	err := sqlx.SelectContext(ctx, q.ext, &techs, `
		SELECT u.id, jt.job_id, u.first_name, u.last_name
		FROM job_technicians jt
		JOIN users u ON u.id = jt.technician_id
		WHERE jt.job_id = ANY($1::uuid[])
		ORDER BY u.first_name, u.last_name
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list job technicians: %w", err)
	}

	byJob := make(map[string][]model.Technician, len(jobs))
	for _, t := range techs {
		byJob[t.JobID] = append(byJob[t.JobID], t)
	}
	for i := range jobs {
		jobs[i].Technicians = byJob[jobs[i].ID]
	}

	return jobs, nil
}

func (q *Queries) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, at time.Time) error {
	return q.updateJob(ctx, `UPDATE jobs SET status = $2, updated_at = $3 WHERE id = $1`,
		jobID, string(status), at)
}

func (q *Queries) UpdateJobLocation(ctx context.Context, jobID string, loc domain.Location, at time.Time) error {
	return q.updateJob(ctx, `
		UPDATE jobs
		SET location_city = $2,
		    location_state = $3,
		    location_zip = $4,
		    location_other = $5,
		    updated_at = $6
		WHERE id = $1
	`, jobID, loc.City, loc.State, loc.Zip, nullString(loc.Other), at)
}

func (q *Queries) UpdateJobSchedule(ctx context.Context, jobID string, sched domain.Schedule, at time.Time) error {
	var recurrence sql.NullString
	if sched.Recurrence != nil {
		recurrence = sql.NullString{String: string(*sched.Recurrence), Valid: true}
	}

	return q.updateJob(ctx, `
		UPDATE jobs
		SET schedule_start = $2,
		    schedule_end = $3,
		    schedule_recurrence = $4,
		    updated_at = $5
		WHERE id = $1
	`, jobID, sched.StartDate, sched.EndDate, recurrence, at)
}

func (q *Queries) UpdateJobFields(ctx context.Context, jobID string, fields JobFields, at time.Time) error {
	query := "UPDATE jobs SET updated_at = $2"
	args := []interface{}{jobID, at}
	argIdx := 3

	set := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argIdx)
		args = append(args, value)
		argIdx++
	}

	if fields.Name != nil {
		set("name", *fields.Name)
	}
	if fields.Description != nil {
		set("description", *fields.Description)
	}
	if fields.JobTypeID != nil {
		set("job_type_id", *fields.JobTypeID)
	}
	if fields.ClientID != nil {
		set("client_id", *fields.ClientID)
	}
	if fields.DispatcherID != nil {
		set("dispatcher_id", *fields.DispatcherID)
	}
	if fields.Location != nil {
		set("location_city", fields.Location.City)
		set("location_state", fields.Location.State)
		set("location_zip", fields.Location.Zip)
		set("location_other", nullString(fields.Location.Other))
	}

	return q.updateJob(ctx, query+" WHERE id = $1", args...)
}

func (q *Queries) updateJob(ctx context.Context, query string, args ...interface{}) error {
	result, err := q.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

func (q *Queries) DeleteJob(ctx context.Context, jobID string) error {
	result, err := q.ext.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

func (q *Queries) InsertWorkflow(ctx context.Context, wf *model.Workflow) error {
	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO workflows (id, job_id, type, created_at) VALUES ($1, $2, $3, $4)`,
		wf.ID, wf.JobID, wf.Type, wf.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow: %w", translate(err))
	}
	return nil
}

func (q *Queries) GetWorkflowByJobID(ctx context.Context, jobID string) (*model.Workflow, error) {
	var wf model.Workflow
	err := sqlx.GetContext(ctx, q.ext, &wf,
		`SELECT id, job_id, type, created_at FROM workflows WHERE job_id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	steps, err := q.listSteps(ctx, []string{wf.ID})
	if err != nil {
		return nil, err
	}
	wf.Steps = steps

	return &wf, nil
}

// AppendStep inserts the step unless the workflow already has one with the
// same status. It reports whether a row was written.
func (q *Queries) AppendStep(ctx context.Context, step *model.Step) (bool, error) {
	result, err := q.ext.ExecContext(ctx, `
		INSERT INTO steps (id, workflow_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workflow_id, status) DO NOTHING
	`, step.ID, step.WorkflowID, step.Status, step.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to append step: %w", translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows == 1, nil
}

func (q *Queries) ListWorkflowsByCompany(ctx context.Context, companyID string) ([]model.Workflow, error) {
	var workflows []model.Workflow
	err := sqlx.SelectContext(ctx, q.ext, &workflows, `
		SELECT w.id, w.job_id, w.type, w.created_at
		FROM workflows w
		JOIN jobs j ON j.id = w.job_id
		WHERE j.company_id = $1
		ORDER BY w.created_at DESC, w.id DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	if len(workflows) == 0 {
		return workflows, nil
	}

	ids := make([]string, len(workflows))
	for i := range workflows {
		ids[i] = workflows[i].ID
	}

	steps, err := q.listSteps(ctx, ids)
	if err != nil {
		return nil, err
	}

	byWorkflow := make(map[string][]model.Step, len(workflows))
	for _, s := range steps {
		byWorkflow[s.WorkflowID] = append(byWorkflow[s.WorkflowID], s)
	}
	for i := range workflows {
		workflows[i].Steps = byWorkflow[workflows[i].ID]
	}

	return workflows, nil
}

func (q *Queries) listSteps(ctx context.Context, workflowIDs []string) ([]model.Step, error) {
	var steps []model.Step
	err := sqlx.SelectContext(ctx, q.ext, &steps, `
		SELECT id, workflow_id, status, created_at
		FROM steps
		WHERE workflow_id = ANY($1::uuid[])
		ORDER BY created_at, id
	`, pq.Array(workflowIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	return steps, nil
}

func (q *Queries) DeleteWorkflowsByJobID(ctx context.Context, jobID string) error {
	_, err := q.ext.ExecContext(ctx, `
		DELETE FROM steps
		WHERE workflow_id IN (SELECT id FROM workflows WHERE job_id = $1)
	`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete steps: %w", err)
	}

	if _, err := q.ext.ExecContext(ctx, `DELETE FROM workflows WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to delete workflows: %w", err)
	}

	return nil
}

// InsertJobTechnicians links technicians to a job; an existing
// (job_id, technician_id) pair is left as is.
func (q *Queries) InsertJobTechnicians(ctx context.Context, rows []model.JobTechnician) error {
	if len(rows) == 0 {
		return nil
	}

	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO job_technicians (id, job_id, technician_id)
		VALUES (:id, :job_id, :technician_id)
		ON CONFLICT (job_id, technician_id) DO NOTHING
	`, rows)
	if err != nil {
		return fmt.Errorf("failed to assign technicians: %w", translate(err))
	}

	return nil
}

func (q *Queries) DeleteJobTechnicians(ctx context.Context, jobID string) error {
	if _, err := q.ext.ExecContext(ctx, `DELETE FROM job_technicians WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to delete job technicians: %w", err)
	}
	return nil
}

func (q *Queries) ListJobTechnicians(ctx context.Context, jobID string) ([]model.Technician, error) {
	var techs []model.Technician
	err := sqlx.SelectContext(ctx, q.ext, &techs, `
		SELECT u.id, jt.job_id, u.first_name, u.last_name
		FROM job_technicians jt
		JOIN users u ON u.id = jt.technician_id
		WHERE jt.job_id = $1
		ORDER BY u.first_name, u.last_name
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job technicians: %w", err)
	}
	return techs, nil
}

// FindUserIDs returns the subset of userIDs that exist
func (q *Queries) FindUserIDs(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var found []string
	err := sqlx.SelectContext(ctx, q.ext, &found,
		`SELECT id FROM users WHERE id = ANY($1::uuid[])`, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return found, nil
}

func (q *Queries) RoleNameOf(ctx context.Context, userID string) (string, error) {
	var name string
	err := sqlx.GetContext(ctx, q.ext, &name, `
		SELECT r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user role: %w", err)
	}
	return name, nil
}

func (q *Queries) ListJobTypes(ctx context.Context) ([]model.JobType, error) {
	var types []model.JobType
	if err := sqlx.SelectContext(ctx, q.ext, &types, `SELECT id, name FROM job_types ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list job types: %w", err)
	}
	return types, nil
}

func (q *Queries) CountJobsByStatus(ctx context.Context, companyID string) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	err := sqlx.SelectContext(ctx, q.ext, &counts, `
		SELECT status, COUNT(*) AS count
		FROM jobs
		WHERE company_id = $1
		GROUP BY status
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	return counts, nil
}

// Postgres error codes the service reacts to
const (
	pqForeignKeyViolation = "23503"
	pqInvalidTextRepr     = "22P02"
)

// translate maps driver errors that stem from bad caller input to domain errors
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", domain.ErrInvalidReference, pqErr.Constraint)
		case pqInvalidTextRepr:
			return fmt.Errorf("%w: %s", domain.ErrInvalidReference, pqErr.Message)
		}
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
