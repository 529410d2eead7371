package handler

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/api/dto"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/internal/api/service"
	"github.com/cuongbtq/fieldservice-be/internal/api/storage"
	"github.com/gin-gonic/gin"
)

func (h *JobHandler) logCall(c *gin.Context, name string, attrs ...any) {
	attrs = append([]any{
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	}, attrs...)
	h.logger.Info(name+" called", attrs...)
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"status": "success",
		"data":   data,
	})
}

// CreateJob handles POST /api/v1/job
func (h *JobHandler) CreateJob(c *gin.Context) {
	h.logCall(c, "CreateJob")

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), actorID(c), service.CreateJobInput{
		Name:         req.Name,
		Description:  req.Description,
		JobTypeID:    req.JobTypeID,
		ClientID:     req.ClientID,
		CompanyID:    req.CompanyID,
		DispatcherID: req.DispatcherID,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	success(c, http.StatusCreated, toJobDTO(job))
}

// AssignJob handles PUT /api/v1/assign/:id
// Links technicians and a location to the job and marks it ASSIGNED
func (h *JobHandler) AssignJob(c *gin.Context) {
	jobID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "AssignJob", slog.String("job_id", jobID))

	var req dto.AssignJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	job, err := h.jobs.AssignTechnicians(c.Request.Context(), actorID(c), jobID, service.AssignInput{
		TechnicianIDs: req.TechnicianIDs,
		Location:      toLocation(req.Location),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	success(c, http.StatusOK, toJobDTO(job))
}

// ScheduleJob handles PUT /api/v1/:id/schedulejob
func (h *JobHandler) ScheduleJob(c *gin.Context) {
	jobID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "ScheduleJob", slog.String("job_id", jobID))

	var req dto.ScheduleJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	sched := req.JobSchedule
	job, err := h.jobs.ScheduleJob(c.Request.Context(), actorID(c), jobID, sched.StartDate.Time, sched.EndDate.TimePtr(), sched.Recurrence)
	if err != nil {
		h.writeError(c, err)
		return
	}

	success(c, http.StatusOK, toJobDTO(job))
}

// UpdateJobStatus handles PATCH /api/v1/:id/updatejobstatus
func (h *JobHandler) UpdateJobStatus(c *gin.Context) {
	jobID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "UpdateJobStatus", slog.String("job_id", jobID))

	var req dto.UpdateJobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	job, wf, err := h.jobs.TransitionStatus(c.Request.Context(), actorID(c), jobID, req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}

	success(c, http.StatusOK, dto.JobStatusResponse{
		Job:      toJobDTO(job),
		Workflow: toWorkflowDTO(wf),
	})
}

// UpdateJob handles PUT /api/v1/:id/updatejob
// Only the fields present in the body are changed
func (h *JobHandler) UpdateJob(c *gin.Context) {
	jobID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "UpdateJob", slog.String("job_id", jobID))

	var req dto.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	upd := service.JobUpdate{
		Name:          req.Name,
		Description:   req.Description,
		JobTypeID:     req.JobTypeID,
		ClientID:      req.ClientID,
		DispatcherID:  req.DispatcherID,
		Status:        req.Status,
		TechnicianIDs: req.TechnicianIDs,
	}
	if req.Location != nil {
		loc := toLocation(req.Location)
		upd.Location = &loc
	}
	if s := req.JobSchedule; s != nil {
		upd.Schedule = &service.ScheduleInput{
			Start:      s.StartDate.Time,
			End:        s.EndDate.TimePtr(),
			Recurrence: s.Recurrence,
		}
	}

	job, err := h.jobs.UpdateJob(c.Request.Context(), actorID(c), jobID, upd)
	if err != nil {
		h.writeError(c, err)
		return
	}

	success(c, http.StatusOK, toJobDTO(job))
}

// DeleteJob handles DELETE /api/v1/:id/deletejob
// Removes the job with its technician links and workflow history
func (h *JobHandler) DeleteJob(c *gin.Context) {
	jobID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "DeleteJob", slog.String("job_id", jobID))

	if err := h.jobs.Delete(c.Request.Context(), actorID(c), jobID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Job deleted successfully",
	})
}

// GetJob handles GET /api/v1/:id/retrievejob
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "GetJob", slog.String("job_id", jobID))

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	success(c, http.StatusOK, toJobDTO(job))
}

// ListJobs handles GET /api/v1/:id/retrievejobs
// Lists a company's jobs newest first with cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	companyID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "ListJobs",
		slog.String("company_id", companyID),
		slog.String("query", c.Request.URL.RawQuery),
	)

	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = h.defaultPageSize
	}
	if req.PageSize > h.maxPageSize {
		req.PageSize = h.maxPageSize
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.writeError(c, domain.NewValidationError(err.Error()))
		return
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), storage.JobFilter{
		CompanyID: companyID,
		Status:    req.Status,
		PageSize:  req.PageSize,
		Cursor:    cursor,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	// Storage returns one extra row when another page exists
	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&storage.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
	}

	success(c, http.StatusOK, dto.ListJobsResponse{
		Jobs:       toJobDTOs(jobs),
		NextCursor: nextCursor,
	})
}

// JobFeed handles GET /api/v1/:id/jobfeed
func (h *JobHandler) JobFeed(c *gin.Context) {
	companyID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "JobFeed", slog.String("company_id", companyID))

	jobs, err := h.jobs.JobFeed(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	success(c, http.StatusOK, toJobDTOs(jobs))
}

// ListWorkflows handles GET /api/v1/:id/workflow
func (h *JobHandler) ListWorkflows(c *gin.Context) {
	companyID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "ListWorkflows", slog.String("company_id", companyID))

	workflows, err := h.jobs.ListWorkflows(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]dto.WorkflowDTO, len(workflows))
	for i := range workflows {
		out[i] = toWorkflowDTO(&workflows[i])
	}

	success(c, http.StatusOK, out)
}

// Dashboard handles GET /api/v1/:id/dashboard
func (h *JobHandler) Dashboard(c *gin.Context) {
	companyID, ok := h.pathID(c)
	if !ok {
		return
	}
	h.logCall(c, "Dashboard", slog.String("company_id", companyID))

	dash, err := h.jobs.Dashboard(c.Request.Context(), companyID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	byStatus := make(map[string]int, len(dash.ByStatus))
	for st, n := range dash.ByStatus {
		byStatus[string(st)] = n
	}

	success(c, http.StatusOK, dto.DashboardResponse{
		Total:    dash.Total,
		ByStatus: byStatus,
	})
}

// ListJobTypes handles GET /api/v1/jobtypes
func (h *JobHandler) ListJobTypes(c *gin.Context) {
	h.logCall(c, "ListJobTypes")

	types, err := h.jobs.ListJobTypes(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	success(c, http.StatusOK, toJobTypeDTOs(types))
}

func toJobTypeDTOs(types []model.JobType) []dto.JobTypeDTO {
	out := make([]dto.JobTypeDTO, len(types))
	for i, t := range types {
		out[i] = dto.JobTypeDTO{ID: t.ID, Name: t.Name}
	}
	return out
}

func toLocation(req *dto.LocationRequest) domain.Location {
	if req == nil {
		return domain.Location{}
	}
	return domain.Location{
		City:  req.City,
		State: req.State,
		Zip:   req.Zip,
		Other: req.OtherInfo,
	}
}
