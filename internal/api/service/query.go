package service

import (
	"context"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/internal/api/storage"
	"go.opentelemetry.io/otel/attribute"
)

// Dashboard is the per-status job breakdown of one company
type Dashboard struct {
	Total    int
	ByStatus map[domain.JobStatus]int
}

func (s *JobService) GetJob(ctx context.Context, jobID string) (job *model.JobDetail, err error) {
	ctx, end := s.startSpan(ctx, "get", jobAttr(jobID))
	defer func() { end(err) }()

	return s.store.GetJobDetail(ctx, jobID)
}

// ListJobs returns up to filter.PageSize+1 jobs, newest first; the extra row
// tells the caller another page exists.
func (s *JobService) ListJobs(ctx context.Context, filter storage.JobFilter) (jobs []model.JobDetail, err error) {
	ctx, end := s.startSpan(ctx, "list", attribute.String("company.id", filter.CompanyID))
	defer func() { end(err) }()

	if filter.Status != "" {
		if _, err := domain.ParseJobStatus(filter.Status); err != nil {
			return nil, err
		}
	}

	return s.store.ListJobs(ctx, filter)
}

// JobFeed returns the most recent jobs of a company
func (s *JobService) JobFeed(ctx context.Context, companyID string) (jobs []model.JobDetail, err error) {
	ctx, end := s.startSpan(ctx, "feed", attribute.String("company.id", companyID))
	defer func() { end(err) }()

	jobs, err = s.store.ListJobs(ctx, storage.JobFilter{
		CompanyID: companyID,
		PageSize:  s.feedSize,
	})
	if err != nil {
		return nil, err
	}

	if len(jobs) > s.feedSize {
		jobs = jobs[:s.feedSize]
	}
	return jobs, nil
}

// ListWorkflows returns every workflow of a company with its ordered steps.
// A company without jobs yields ErrWorkflowNotFound.
func (s *JobService) ListWorkflows(ctx context.Context, companyID string) (workflows []model.Workflow, err error) {
	ctx, end := s.startSpan(ctx, "list_workflows", attribute.String("company.id", companyID))
	defer func() { end(err) }()

	workflows, err = s.store.ListWorkflowsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(workflows) == 0 {
		return nil, domain.ErrWorkflowNotFound
	}
	return workflows, nil
}

func (s *JobService) ListJobTypes(ctx context.Context) (types []model.JobType, err error) {
	ctx, end := s.startSpan(ctx, "list_job_types")
	defer func() { end(err) }()

	types, err = s.store.ListJobTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, domain.ErrNoJobTypes
	}
	return types, nil
}

// Dashboard counts a company's jobs per status. Every status is present in
// the result, zero when no job has it.
func (s *JobService) Dashboard(ctx context.Context, companyID string) (dash *Dashboard, err error) {
	ctx, end := s.startSpan(ctx, "dashboard", attribute.String("company.id", companyID))
	defer func() { end(err) }()

	counts, err := s.store.CountJobsByStatus(ctx, companyID)
	if err != nil {
		return nil, err
	}

	dash = &Dashboard{ByStatus: make(map[domain.JobStatus]int, len(domain.JobStatuses))}
	for _, st := range domain.JobStatuses {
		dash.ByStatus[st] = 0
	}
	for _, c := range counts {
		dash.ByStatus[domain.JobStatus(c.Status)] += c.Count
		dash.Total += c.Count
	}

	return dash, nil
}
