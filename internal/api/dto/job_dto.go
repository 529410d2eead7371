package dto

import "time"

type CreateJobRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description" binding:"required"`
	JobTypeID    string `json:"jobTypeId" binding:"required,uuid"`
	ClientID     string `json:"clientId" binding:"required,uuid"`
	CompanyID    string `json:"companyId" binding:"required,uuid"`
	DispatcherID string `json:"dispatcherId" binding:"required,uuid"`
}

type LocationRequest struct {
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Zip       string `json:"zip" binding:"required"`
	OtherInfo string `json:"otherinfo"`
}

type AssignJobRequest struct {
	Location      *LocationRequest `json:"location" binding:"required"`
	TechnicianIDs []string         `json:"technicianIds" binding:"required,min=1,dive,uuid"`
}

type ScheduleRequest struct {
	StartDate  *Date   `json:"startDate" binding:"required"`
	EndDate    *Date   `json:"endDate"`
	Recurrence *string `json:"recurrence" binding:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
}

type ScheduleJobRequest struct {
	JobSchedule *ScheduleRequest `json:"jobSchedule" binding:"required"`
}

type UpdateJobStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateJobRequest is a partial update; absent fields are left unchanged
type UpdateJobRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1"`
	Description   *string          `json:"description" binding:"omitempty,min=1"`
	JobTypeID     *string          `json:"jobTypeId" binding:"omitempty,uuid"`
	ClientID      *string          `json:"clientId" binding:"omitempty,uuid"`
	DispatcherID  *string          `json:"dispatcherId" binding:"omitempty,uuid"`
	Status        *string          `json:"status"`
	Location      *LocationRequest `json:"location"`
	TechnicianIDs []string         `json:"technicianIds" binding:"omitempty,dive,uuid"`
	JobSchedule   *ScheduleRequest `json:"jobSchedule"`
}

type ListJobsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type LocationDTO struct {
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	OtherInfo string `json:"otherinfo,omitempty"`
}

type ScheduleDTO struct {
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	Recurrence *string   `json:"recurrence"`
}

type PersonDTO struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

type JobTypeDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type JobDTO struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	JobTypeID    string       `json:"jobTypeId"`
	CompanyID    string       `json:"companyId"`
	ClientID     string       `json:"clientId"`
	DispatcherID string       `json:"dispatcherId"`
	Status       string       `json:"status"`
	Location     *LocationDTO `json:"location"`
	JobSchedule  *ScheduleDTO `json:"jobschedule"`
	CreatedAt    string       `json:"createdAt"`
	UpdatedAt    string       `json:"updatedAt"`

	Client      *PersonDTO  `json:"client,omitempty"`
	JobType     *JobTypeDTO `json:"jobType,omitempty"`
	Dispatcher  *PersonDTO  `json:"dispatcher,omitempty"`
	Technicians []PersonDTO `json:"technicians,omitempty"`
}

type StepDTO struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type WorkflowDTO struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	Type      string    `json:"type"`
	CreatedAt string    `json:"createdAt"`
	Steps     []StepDTO `json:"steps"`
}

type JobStatusResponse struct {
	Job      JobDTO      `json:"job"`
	Workflow WorkflowDTO `json:"workflow"`
}

type DashboardResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}
