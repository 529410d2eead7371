package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/internal/api/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type CreateJobInput struct {
	Name         string `json:"name" validate:"required"`
	Description  string `json:"description" validate:"required"`
	JobTypeID    string `json:"jobTypeId" validate:"required,uuid"`
	ClientID     string `json:"clientId" validate:"required,uuid"`
	CompanyID    string `json:"companyId" validate:"required,uuid"`
	DispatcherID string `json:"dispatcherId" validate:"required,uuid"`
}

// Create stores a new job in CREATED together with its workflow and the
// first step. Either all three rows exist afterwards or none do.
func (s *JobService) Create(ctx context.Context, actorID string, in CreateJobInput) (job *model.JobDetail, err error) {
	ctx, end := s.startSpan(ctx, "create", attribute.String("company.id", in.CompanyID))
	defer func() { end(err) }()

	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, actorID, domain.JobManagers...); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	row := &model.Job{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Description:  in.Description,
		JobTypeID:    in.JobTypeID,
		CompanyID:    in.CompanyID,
		ClientID:     in.ClientID,
		DispatcherID: in.DispatcherID,
		Status:       string(domain.JobStatusCreated),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.RunInTx(ctx, func(q storage.Querier) error {
		if err := q.InsertJob(ctx, row); err != nil {
			return err
		}

		wf := &model.Workflow{
			ID:        uuid.New().String(),
			JobID:     row.ID,
			Type:      string(domain.WorkflowTypeJob),
			CreatedAt: now,
		}
		if err := q.InsertWorkflow(ctx, wf); err != nil {
			return err
		}

		if _, err := q.AppendStep(ctx, &model.Step{
			ID:         uuid.New().String(),
			WorkflowID: wf.ID,
			Status:     row.Status,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		job, err = q.GetJobDetail(ctx, row.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Job created",
		slog.String("job_id", row.ID),
		slog.String("company_id", row.CompanyID),
	)
	s.publish(ctx, domain.EventJobCreated, row, actorID)

	return job, nil
}

// TransitionStatus moves a job to status and records the step for it. The
// step is only appended the first time the job enters a status.
func (s *JobService) TransitionStatus(ctx context.Context, actorID, jobID, status string) (job *model.JobDetail, wf *model.Workflow, err error) {
	ctx, end := s.startSpan(ctx, "transition_status", jobAttr(jobID), attribute.String("job.status", status))
	defer func() { end(err) }()

	to, err := domain.ParseJobStatus(status)
	if err != nil {
		return nil, nil, err
	}
	if err := s.Authorize(ctx, actorID); err != nil {
		return nil, nil, err
	}

	var row *model.Job
	err = s.store.RunInTx(ctx, func(q storage.Querier) error {
		row, err = s.transition(ctx, q, jobID, to)
		if err != nil {
			return err
		}

		if job, err = q.GetJobDetail(ctx, jobID); err != nil {
			return err
		}
		wf, err = q.GetWorkflowByJobID(ctx, jobID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, domain.EventJobStatusChanged, row, actorID)

	return job, wf, nil
}

// transition is the single status change primitive. It must run inside a
// transaction: the job row stays locked until commit so concurrent
// transitions of the same job serialize on it.
func (s *JobService) transition(ctx context.Context, q storage.Querier, jobID string, to domain.JobStatus) (*model.Job, error) {
	job, err := q.LockJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	from := domain.JobStatus(job.Status)
	if err := s.policy.Allow(from, to); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := q.UpdateJobStatus(ctx, jobID, to, now); err != nil {
		return nil, err
	}

	wf, err := q.GetWorkflowByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}

	appended, err := q.AppendStep(ctx, &model.Step{
		ID:         uuid.New().String(),
		WorkflowID: wf.ID,
		Status:     string(to),
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Job status changed",
		slog.String("job_id", jobID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.Bool("step_appended", appended),
	)

	job.Status = string(to)
	job.UpdatedAt = now
	return job, nil
}

// Delete removes a job with its technician links, workflow and steps
func (s *JobService) Delete(ctx context.Context, actorID, jobID string) (err error) {
	ctx, end := s.startSpan(ctx, "delete", jobAttr(jobID))
	defer func() { end(err) }()

	if err := s.Authorize(ctx, actorID, domain.JobManagers...); err != nil {
		return err
	}

	var row *model.Job
	err = s.store.RunInTx(ctx, func(q storage.Querier) error {
		if row, err = q.LockJob(ctx, jobID); err != nil {
			return err
		}
		if err := q.DeleteJobTechnicians(ctx, jobID); err != nil {
			return err
		}
		if err := q.DeleteWorkflowsByJobID(ctx, jobID); err != nil {
			return err
		}
		return q.DeleteJob(ctx, jobID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Job deleted", slog.String("job_id", jobID))
	s.publish(ctx, domain.EventJobDeleted, row, actorID)

	return nil
}
