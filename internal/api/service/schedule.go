package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/internal/api/storage"
)

// ScheduleJob attaches a date range to a job and moves it to SCHEDULED.
// A missing end date defaults to the start date.
func (s *JobService) ScheduleJob(ctx context.Context, actorID, jobID string, start time.Time, endDate *time.Time, recurrence *string) (job *model.JobDetail, err error) {
	ctx, end := s.startSpan(ctx, "schedule", jobAttr(jobID))
	defer func() { end(err) }()

	sched, err := domain.NewSchedule(start, endDate, recurrence)
	if err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, actorID, domain.JobManagers...); err != nil {
		return nil, err
	}

	var row *model.Job
	err = s.store.RunInTx(ctx, func(q storage.Querier) error {
		if _, err := q.LockJob(ctx, jobID); err != nil {
			return err
		}

		if err := q.UpdateJobSchedule(ctx, jobID, sched, s.now().UTC()); err != nil {
			return err
		}

		if row, err = s.transition(ctx, q, jobID, domain.JobStatusScheduled); err != nil {
			return err
		}

		job, err = q.GetJobDetail(ctx, jobID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Job scheduled",
		slog.String("job_id", jobID),
		slog.Time("start", sched.StartDate),
		slog.Time("end", sched.EndDate),
	)
	s.publish(ctx, domain.EventJobStatusChanged, row, actorID)

	return job, nil
}
