package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/internal/api/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type AssignInput struct {
	TechnicianIDs []string        `json:"technicianIds" validate:"required,min=1,dive,uuid"`
	Location      domain.Location `json:"location"`
}

// JobUpdate is a partial edit of a job. Nil fields are left unchanged; a
// non-nil TechnicianIDs replaces the whole assignment set, even when empty.
type JobUpdate struct {
	Name          *string          `json:"name" validate:"omitempty,min=1"`
	Description   *string          `json:"description" validate:"omitempty,min=1"`
	JobTypeID     *string          `json:"jobTypeId" validate:"omitempty,uuid"`
	ClientID      *string          `json:"clientId" validate:"omitempty,uuid"`
	DispatcherID  *string          `json:"dispatcherId" validate:"omitempty,uuid"`
	Location      *domain.Location `json:"location"`
	TechnicianIDs []string         `json:"technicianIds" validate:"omitempty,dive,uuid"`
	Schedule      *ScheduleInput   `json:"jobSchedule"`
	Status        *string          `json:"status"`
}

// ScheduleInput is an unvalidated date range; UpdateJob runs it through
// domain.NewSchedule.
type ScheduleInput struct {
	Start      time.Time
	End        *time.Time
	Recurrence *string
}

func (u JobUpdate) fields() (storage.JobFields, bool) {
	f := storage.JobFields{
		Name:         u.Name,
		Description:  u.Description,
		JobTypeID:    u.JobTypeID,
		ClientID:     u.ClientID,
		DispatcherID: u.DispatcherID,
		Location:     u.Location,
	}
	changed := f.Name != nil || f.Description != nil || f.JobTypeID != nil ||
		f.ClientID != nil || f.DispatcherID != nil || f.Location != nil
	return f, changed
}

// AssignTechnicians links technicians to a job, records where the work
// happens and moves the job to ASSIGNED, all in one transaction. Unknown
// technician IDs fail the whole call with ErrInvalidReference.
func (s *JobService) AssignTechnicians(ctx context.Context, actorID, jobID string, in AssignInput) (job *model.JobDetail, err error) {
	ctx, end := s.startSpan(ctx, "assign_technicians", jobAttr(jobID),
		attribute.Int("technician.count", len(in.TechnicianIDs)))
	defer func() { end(err) }()

	if err := s.validateInput(in); err != nil {
		return nil, err
	}
	if err := validateLocation(in.Location); err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, actorID, domain.JobManagers...); err != nil {
		return nil, err
	}

	techIDs := dedupe(in.TechnicianIDs)

	var row *model.Job
	err = s.store.RunInTx(ctx, func(q storage.Querier) error {
		if _, err := q.LockJob(ctx, jobID); err != nil {
			return err
		}

		if err := s.linkTechnicians(ctx, q, jobID, techIDs); err != nil {
			return err
		}

		members, err := q.ListJobTechnicians(ctx, jobID)
		if err != nil {
			return err
		}

		if err := q.UpdateJobLocation(ctx, jobID, in.Location, s.now().UTC()); err != nil {
			return err
		}

		if row, err = s.transition(ctx, q, jobID, domain.JobStatusAssigned); err != nil {
			return err
		}

		if job, err = q.GetJobDetail(ctx, jobID); err != nil {
			return err
		}
		job.Technicians = members
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Technicians assigned",
		slog.String("job_id", jobID),
		slog.Int("technicians", len(job.Technicians)),
	)
	s.publish(ctx, domain.EventJobStatusChanged, row, actorID)

	return job, nil
}

// UpdateJob applies a partial edit. A status in the update goes through the
// same transition primitive as TransitionStatus, inside the same transaction.
func (s *JobService) UpdateJob(ctx context.Context, actorID, jobID string, upd JobUpdate) (job *model.JobDetail, err error) {
	ctx, end := s.startSpan(ctx, "update", jobAttr(jobID))
	defer func() { end(err) }()

	if err := s.validateInput(upd); err != nil {
		return nil, err
	}
	if upd.Location != nil {
		if err := validateLocation(*upd.Location); err != nil {
			return nil, err
		}
	}

	var sched *domain.Schedule
	if upd.Schedule != nil {
		v, err := domain.NewSchedule(upd.Schedule.Start, upd.Schedule.End, upd.Schedule.Recurrence)
		if err != nil {
			return nil, err
		}
		sched = &v
	}

	var to domain.JobStatus
	if upd.Status != nil {
		if to, err = domain.ParseJobStatus(*upd.Status); err != nil {
			return nil, err
		}
	}

	if err := s.Authorize(ctx, actorID, domain.JobManagers...); err != nil {
		return nil, err
	}

	var row *model.Job
	err = s.store.RunInTx(ctx, func(q storage.Querier) error {
		if row, err = q.LockJob(ctx, jobID); err != nil {
			return err
		}

		now := s.now().UTC()
		if fields, changed := upd.fields(); changed {
			if err := q.UpdateJobFields(ctx, jobID, fields, now); err != nil {
				return err
			}
		}

		if upd.TechnicianIDs != nil {
			if err := q.DeleteJobTechnicians(ctx, jobID); err != nil {
				return err
			}
			if err := s.linkTechnicians(ctx, q, jobID, dedupe(upd.TechnicianIDs)); err != nil {
				return err
			}
		}

		if sched != nil {
			if err := q.UpdateJobSchedule(ctx, jobID, *sched, now); err != nil {
				return err
			}
		}

		if upd.Status != nil {
			if row, err = s.transition(ctx, q, jobID, to); err != nil {
				return err
			}
		}

		job, err = q.GetJobDetail(ctx, jobID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Job updated", slog.String("job_id", jobID))
	if upd.Status != nil {
		s.publish(ctx, domain.EventJobStatusChanged, row, actorID)
	}

	return job, nil
}

// linkTechnicians verifies every ID names an existing user before writing
// any link, so an unknown ID leaves the job's assignments untouched.
func (s *JobService) linkTechnicians(ctx context.Context, q storage.Querier, jobID string, techIDs []string) error {
	if len(techIDs) == 0 {
		return nil
	}

	found, err := q.FindUserIDs(ctx, techIDs)
	if err != nil {
		return err
	}
	if len(found) != len(techIDs) {
		return fmt.Errorf("%w: one or more technician IDs are invalid", domain.ErrInvalidReference)
	}

	rows := make([]model.JobTechnician, len(techIDs))
	for i, id := range techIDs {
		rows[i] = model.JobTechnician{
			ID:           uuid.New().String(),
			JobID:        jobID,
			TechnicianID: id,
		}
	}

	return q.InsertJobTechnicians(ctx, rows)
}

func validateLocation(loc domain.Location) error {
	var fields []string
	if loc.City == "" {
		fields = append(fields, "location.city is required")
	}
	if loc.State == "" {
		fields = append(fields, "location.state is required")
	}
	if loc.Zip == "" {
		fields = append(fields, "location.zip is required")
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}
