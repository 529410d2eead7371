package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/internal/api/storage"
)

type memUser struct {
	role      string
	firstName string
	lastName  string
}

type memClient struct {
	firstName string
	lastName  string
	email     string
}

type memData struct {
	companies map[string]struct{}
	users     map[string]memUser
	clients   map[string]memClient
	jobTypes  map[string]string

	jobs      map[string]model.Job
	workflows map[string]model.Workflow
	steps     []model.Step
	jobTechs  []model.JobTechnician
}

func (d *memData) clone() *memData {
	c := &memData{
		companies: make(map[string]struct{}, len(d.companies)),
		users:     make(map[string]memUser, len(d.users)),
		clients:   make(map[string]memClient, len(d.clients)),
		jobTypes:  make(map[string]string, len(d.jobTypes)),
		jobs:      make(map[string]model.Job, len(d.jobs)),
		workflows: make(map[string]model.Workflow, len(d.workflows)),
		steps:     append([]model.Step(nil), d.steps...),
		jobTechs:  append([]model.JobTechnician(nil), d.jobTechs...),
	}
	for k, v := range d.companies {
		c.companies[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.clients {
		c.clients[k] = v
	}
	for k, v := range d.jobTypes {
		c.jobTypes[k] = v
	}
	for k, v := range d.jobs {
		c.jobs[k] = v
	}
	for k, v := range d.workflows {
		c.workflows[k] = v
	}
	return c
}

// memStore is an in-memory storage.Store. Transactions are serialized and
// roll back by restoring a snapshot taken when they start.
type memStore struct {
	*memQueries
	txMu sync.Mutex
}

var _ storage.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		memQueries: &memQueries{
			d: &memData{
				companies: map[string]struct{}{},
				users:     map[string]memUser{},
				clients:   map[string]memClient{},
				jobTypes:  map[string]string{},
				jobs:      map[string]model.Job{},
				workflows: map[string]model.Workflow{},
			},
			failures: map[string]error{},
		},
	}
}

func (m *memStore) RunInTx(ctx context.Context, fn func(q storage.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snapshot := m.d.clone()
	if err := fn(m.memQueries); err != nil {
		*m.d = *snapshot
		return err
	}
	return nil
}

// failOn makes the named method return err until cleared
func (m *memStore) failOn(method string, err error) {
	m.failures[method] = err
}

func (m *memStore) stepsFor(jobID string) []model.Step {
	wf, err := m.GetWorkflowByJobID(context.Background(), jobID)
	if err != nil {
		return nil
	}
	return wf.Steps
}

func (m *memStore) techLinksFor(jobID string) []model.JobTechnician {
	var out []model.JobTechnician
	for _, jt := range m.d.jobTechs {
		if jt.JobID == jobID {
			out = append(out, jt)
		}
	}
	return out
}

type memQueries struct {
	d        *memData
	failures map[string]error
}

var _ storage.Querier = (*memQueries)(nil)

func (q *memQueries) fail(method string) error {
	return q.failures[method]
}

func invalidRef(what, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrInvalidReference, what, id)
}

func (q *memQueries) InsertJob(ctx context.Context, job *model.Job) error {
	if err := q.fail("InsertJob"); err != nil {
		return err
	}
	if _, ok := q.d.jobTypes[job.JobTypeID]; !ok {
		return invalidRef("job type", job.JobTypeID)
	}
	if _, ok := q.d.clients[job.ClientID]; !ok {
		return invalidRef("client", job.ClientID)
	}
	if _, ok := q.d.companies[job.CompanyID]; !ok {
		return invalidRef("company", job.CompanyID)
	}
	if _, ok := q.d.users[job.DispatcherID]; !ok {
		return invalidRef("dispatcher", job.DispatcherID)
	}
	q.d.jobs[job.ID] = *job
	return nil
}

func (q *memQueries) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	job, ok := q.d.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &job, nil
}

func (q *memQueries) LockJob(ctx context.Context, jobID string) (*model.Job, error) {
	return q.GetJob(ctx, jobID)
}

func (q *memQueries) detail(job model.Job) model.JobDetail {
	client := q.d.clients[job.ClientID]
	dispatcher := q.d.users[job.DispatcherID]
	techs, _ := q.ListJobTechnicians(context.Background(), job.ID)
	return model.JobDetail{
		Job:                 job,
		ClientFirstName:     client.firstName,
		ClientLastName:      client.lastName,
		ClientEmail:         client.email,
		JobTypeName:         q.d.jobTypes[job.JobTypeID],
		DispatcherFirstName: dispatcher.firstName,
		DispatcherLastName:  dispatcher.lastName,
		Technicians:         techs,
	}
}

func (q *memQueries) GetJobDetail(ctx context.Context, jobID string) (*model.JobDetail, error) {
	job, ok := q.d.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	d := q.detail(job)
	return &d, nil
}

func newerFirst(a, b model.Job) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (q *memQueries) ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.JobDetail, error) {
	var jobs []model.Job
	for _, j := range q.d.jobs {
		if j.CompanyID != filter.CompanyID {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if c := filter.Cursor; c != nil && !newerFirst(model.Job{CreatedAt: c.CreatedAt, ID: c.JobID}, j) {
			continue
		}
		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(i, k int) bool { return newerFirst(jobs[i], jobs[k]) })
	if len(jobs) > filter.PageSize+1 {
		jobs = jobs[:filter.PageSize+1]
	}

	out := make([]model.JobDetail, len(jobs))
	for i, j := range jobs {
		out[i] = q.detail(j)
	}
	return out, nil
}

func (q *memQueries) mutateJob(method, jobID string, fn func(j *model.Job) error) error {
	if err := q.fail(method); err != nil {
		return err
	}
	job, ok := q.d.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if err := fn(&job); err != nil {
		return err
	}
	q.d.jobs[jobID] = job
	return nil
}

func (q *memQueries) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus, at time.Time) error {
	return q.mutateJob("UpdateJobStatus", jobID, func(j *model.Job) error {
		j.Status = string(status)
		j.UpdatedAt = at
		return nil
	})
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (q *memQueries) UpdateJobLocation(ctx context.Context, jobID string, loc domain.Location, at time.Time) error {
	return q.mutateJob("UpdateJobLocation", jobID, func(j *model.Job) error {
		j.LocationCity = nullStr(loc.City)
		j.LocationState = nullStr(loc.State)
		j.LocationZip = nullStr(loc.Zip)
		j.LocationOther = nullStr(loc.Other)
		j.UpdatedAt = at
		return nil
	})
}

func (q *memQueries) UpdateJobSchedule(ctx context.Context, jobID string, sched domain.Schedule, at time.Time) error {
	return q.mutateJob("UpdateJobSchedule", jobID, func(j *model.Job) error {
		j.ScheduleStart = sql.NullTime{Time: sched.StartDate, Valid: true}
		j.ScheduleEnd = sql.NullTime{Time: sched.EndDate, Valid: true}
		j.ScheduleRecurrence = sql.NullString{}
		if sched.Recurrence != nil {
			j.ScheduleRecurrence = nullStr(string(*sched.Recurrence))
		}
		j.UpdatedAt = at
		return nil
	})
}

func (q *memQueries) UpdateJobFields(ctx context.Context, jobID string, f storage.JobFields, at time.Time) error {
	return q.mutateJob("UpdateJobFields", jobID, func(j *model.Job) error {
		if f.Name != nil {
			j.Name = *f.Name
		}
		if f.Description != nil {
			j.Description = *f.Description
		}
		if f.JobTypeID != nil {
			if _, ok := q.d.jobTypes[*f.JobTypeID]; !ok {
				return invalidRef("job type", *f.JobTypeID)
			}
			j.JobTypeID = *f.JobTypeID
		}
		if f.ClientID != nil {
			if _, ok := q.d.clients[*f.ClientID]; !ok {
				return invalidRef("client", *f.ClientID)
			}
			j.ClientID = *f.ClientID
		}
		if f.DispatcherID != nil {
			if _, ok := q.d.users[*f.DispatcherID]; !ok {
				return invalidRef("dispatcher", *f.DispatcherID)
			}
			j.DispatcherID = *f.DispatcherID
		}
		if f.Location != nil {
			j.LocationCity = nullStr(f.Location.City)
			j.LocationState = nullStr(f.Location.State)
			j.LocationZip = nullStr(f.Location.Zip)
			j.LocationOther = nullStr(f.Location.Other)
		}
		j.UpdatedAt = at
		return nil
	})
}

func (q *memQueries) DeleteJob(ctx context.Context, jobID string) error {
	if err := q.fail("DeleteJob"); err != nil {
		return err
	}
	if _, ok := q.d.jobs[jobID]; !ok {
		return domain.ErrJobNotFound
	}
	delete(q.d.jobs, jobID)
	return nil
}

func (q *memQueries) InsertWorkflow(ctx context.Context, wf *model.Workflow) error {
	if err := q.fail("InsertWorkflow"); err != nil {
		return err
	}
	if _, ok := q.d.jobs[wf.JobID]; !ok {
		return invalidRef("job", wf.JobID)
	}
	for _, existing := range q.d.workflows {
		if existing.JobID == wf.JobID {
			return fmt.Errorf("workflow for job %s already exists", wf.JobID)
		}
	}
	q.d.workflows[wf.ID] = *wf
	return nil
}

func (q *memQueries) stepsOf(workflowID string) []model.Step {
	var steps []model.Step
	for _, s := range q.d.steps {
		if s.WorkflowID == workflowID {
			steps = append(steps, s)
		}
	}
	sort.SliceStable(steps, func(i, k int) bool { return steps[i].CreatedAt.Before(steps[k].CreatedAt) })
	return steps
}

func (q *memQueries) GetWorkflowByJobID(ctx context.Context, jobID string) (*model.Workflow, error) {
	for _, wf := range q.d.workflows {
		if wf.JobID == jobID {
			wf.Steps = q.stepsOf(wf.ID)
			return &wf, nil
		}
	}
	return nil, domain.ErrWorkflowNotFound
}

func (q *memQueries) AppendStep(ctx context.Context, step *model.Step) (bool, error) {
	if err := q.fail("AppendStep"); err != nil {
		return false, err
	}
	if _, ok := q.d.workflows[step.WorkflowID]; !ok {
		return false, invalidRef("workflow", step.WorkflowID)
	}
	for _, s := range q.d.steps {
		if s.WorkflowID == step.WorkflowID && s.Status == step.Status {
			return false, nil
		}
	}
	q.d.steps = append(q.d.steps, *step)
	return true, nil
}

func (q *memQueries) ListWorkflowsByCompany(ctx context.Context, companyID string) ([]model.Workflow, error) {
	var out []model.Workflow
	for _, wf := range q.d.workflows {
		if q.d.jobs[wf.JobID].CompanyID != companyID {
			continue
		}
		wf.Steps = q.stepsOf(wf.ID)
		out = append(out, wf)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (q *memQueries) DeleteWorkflowsByJobID(ctx context.Context, jobID string) error {
	if err := q.fail("DeleteWorkflowsByJobID"); err != nil {
		return err
	}
	for id, wf := range q.d.workflows {
		if wf.JobID != jobID {
			continue
		}
		kept := q.d.steps[:0]
		for _, s := range q.d.steps {
			if s.WorkflowID != id {
				kept = append(kept, s)
			}
		}
		q.d.steps = kept
		delete(q.d.workflows, id)
	}
	return nil
}

func (q *memQueries) InsertJobTechnicians(ctx context.Context, rows []model.JobTechnician) error {
	if err := q.fail("InsertJobTechnicians"); err != nil {
		return err
	}
	for _, r := range rows {
		if _, ok := q.d.users[r.TechnicianID]; !ok {
			return invalidRef("technician", r.TechnicianID)
		}
		dup := false
		for _, existing := range q.d.jobTechs {
			if existing.JobID == r.JobID && existing.TechnicianID == r.TechnicianID {
				dup = true
				break
			}
		}
		if !dup {
			q.d.jobTechs = append(q.d.jobTechs, r)
		}
	}
	return nil
}

func (q *memQueries) DeleteJobTechnicians(ctx context.Context, jobID string) error {
	if err := q.fail("DeleteJobTechnicians"); err != nil {
		return err
	}
	kept := q.d.jobTechs[:0]
	for _, jt := range q.d.jobTechs {
		if jt.JobID != jobID {
			kept = append(kept, jt)
		}
	}
	q.d.jobTechs = kept
	return nil
}

func (q *memQueries) ListJobTechnicians(ctx context.Context, jobID string) ([]model.Technician, error) {
	var out []model.Technician
	for _, jt := range q.d.jobTechs {
		if jt.JobID != jobID {
			continue
		}
		u := q.d.users[jt.TechnicianID]
		out = append(out, model.Technician{
			ID:        jt.TechnicianID,
			JobID:     jobID,
			FirstName: u.firstName,
			LastName:  u.lastName,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].FirstName < out[k].FirstName })
	return out, nil
}

func (q *memQueries) FindUserIDs(ctx context.Context, userIDs []string) ([]string, error) {
	var found []string
	for _, id := range userIDs {
		if _, ok := q.d.users[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (q *memQueries) RoleNameOf(ctx context.Context, userID string) (string, error) {
	if err := q.fail("RoleNameOf"); err != nil {
		return "", err
	}
	u, ok := q.d.users[userID]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return u.role, nil
}

func (q *memQueries) ListJobTypes(ctx context.Context) ([]model.JobType, error) {
	var out []model.JobType
	for id, name := range q.d.jobTypes {
		out = append(out, model.JobType{ID: id, Name: name})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out, nil
}

func (q *memQueries) CountJobsByStatus(ctx context.Context, companyID string) ([]model.StatusCount, error) {
	counts := map[string]int{}
	for _, j := range q.d.jobs {
		if j.CompanyID == companyID {
			counts[j.Status]++
		}
	}
	var out []model.StatusCount
	for st, n := range counts {
		out = append(out, model.StatusCount{Status: st, Count: n})
	}
	return out, nil
}
