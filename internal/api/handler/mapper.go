package handler

import (
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/api/dto"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
)

func toJobDTO(job *model.JobDetail) dto.JobDTO {
	out := dto.JobDTO{
		ID:           job.ID,
		Name:         job.Name,
		Description:  job.Description,
		JobTypeID:    job.JobTypeID,
		CompanyID:    job.CompanyID,
		ClientID:     job.ClientID,
		DispatcherID: job.DispatcherID,
		Status:       job.Status,
		CreatedAt:    job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    job.UpdatedAt.Format(time.RFC3339),
	}

	if job.LocationCity.Valid {
		out.Location = &dto.LocationDTO{
			City:      job.LocationCity.String,
			State:     job.LocationState.String,
			Zip:       job.LocationZip.String,
			OtherInfo: job.LocationOther.String,
		}
	}

	if job.ScheduleStart.Valid {
		out.JobSchedule = &dto.ScheduleDTO{
			StartDate: job.ScheduleStart.Time,
			EndDate:   job.ScheduleEnd.Time,
		}
		if job.ScheduleRecurrence.Valid {
			r := job.ScheduleRecurrence.String
			out.JobSchedule.Recurrence = &r
		}
	}

	if job.ClientFirstName != "" || job.ClientLastName != "" {
		out.Client = &dto.PersonDTO{
			ID:        job.ClientID,
			FirstName: job.ClientFirstName,
			LastName:  job.ClientLastName,
			Email:     job.ClientEmail,
		}
	}
	if job.JobTypeName != "" {
		out.JobType = &dto.JobTypeDTO{ID: job.JobTypeID, Name: job.JobTypeName}
	}
	if job.DispatcherFirstName != "" || job.DispatcherLastName != "" {
		out.Dispatcher = &dto.PersonDTO{
			ID:        job.DispatcherID,
			FirstName: job.DispatcherFirstName,
			LastName:  job.DispatcherLastName,
		}
	}

	for _, t := range job.Technicians {
		out.Technicians = append(out.Technicians, dto.PersonDTO{
			ID:        t.ID,
			FirstName: t.FirstName,
			LastName:  t.LastName,
		})
	}

	return out
}

func toJobDTOs(jobs []model.JobDetail) []dto.JobDTO {
	out := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		out[i] = toJobDTO(&jobs[i])
	}
	return out
}

func toWorkflowDTO(wf *model.Workflow) dto.WorkflowDTO {
	out := dto.WorkflowDTO{
		ID:        wf.ID,
		JobID:     wf.JobID,
		Type:      wf.Type,
		CreatedAt: wf.CreatedAt.Format(time.RFC3339),
		Steps:     make([]dto.StepDTO, len(wf.Steps)),
	}
	for i, s := range wf.Steps {
		out.Steps[i] = dto.StepDTO{
			ID:        s.ID,
			Status:    s.Status,
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
		}
	}
	return out
}
