package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/internal/api/service"
	"github.com/cuongbtq/fieldservice-be/internal/api/storage"
	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user ID
const ContextUserID = "userID"

// JobService is the job lifecycle API the handlers drive
type JobService interface {
	Create(ctx context.Context, actorID string, in service.CreateJobInput) (*model.JobDetail, error)
	TransitionStatus(ctx context.Context, actorID, jobID, status string) (*model.JobDetail, *model.Workflow, error)
	AssignTechnicians(ctx context.Context, actorID, jobID string, in service.AssignInput) (*model.JobDetail, error)
	ScheduleJob(ctx context.Context, actorID, jobID string, start time.Time, end *time.Time, recurrence *string) (*model.JobDetail, error)
	UpdateJob(ctx context.Context, actorID, jobID string, upd service.JobUpdate) (*model.JobDetail, error)
	Delete(ctx context.Context, actorID, jobID string) error

	GetJob(ctx context.Context, jobID string) (*model.JobDetail, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.JobDetail, error)
	JobFeed(ctx context.Context, companyID string) ([]model.JobDetail, error)
	ListWorkflows(ctx context.Context, companyID string) ([]model.Workflow, error)
	ListJobTypes(ctx context.Context) ([]model.JobType, error)
	Dashboard(ctx context.Context, companyID string) (*service.Dashboard, error)
}

var _ JobService = (*service.JobService)(nil)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger          *slog.Logger
	Jobs            JobService
	DefaultPageSize int
	MaxPageSize     int
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger          *slog.Logger
	jobs            JobService
	defaultPageSize int
	maxPageSize     int
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	registerValidation()

	h := &JobHandler{
		logger:          deps.Logger,
		jobs:            deps.Jobs,
		defaultPageSize: deps.DefaultPageSize,
		maxPageSize:     deps.MaxPageSize,
	}
	if h.defaultPageSize <= 0 {
		h.defaultPageSize = 20
	}
	if h.maxPageSize <= 0 {
		h.maxPageSize = 100
	}
	return h
}

func actorID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
