package service

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/cuongbtq/fieldservice-be/internal/api/model"
	"github.com/cuongbtq/fieldservice-be/internal/api/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of the job service spans
const TracerName = "github.com/cuongbtq/fieldservice-be/internal/api/service"

// EventPublisher delivers job events once the change that produced them has
// committed.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.JobEvent) error
}

// JobService owns the job lifecycle: status transitions with their
// workflow steps, technician assignment, scheduling and the role checks
// guarding them.
type JobService struct {
	store     storage.Store
	policy    domain.TransitionPolicy
	publisher EventPublisher
	logger    *slog.Logger
	tracer    trace.Tracer
	validate  *validator.Validate
	now       func() time.Time
	feedSize  int
}

type Option func(*JobService)

func WithPolicy(p domain.TransitionPolicy) Option {
	return func(s *JobService) { s.policy = p }
}

func WithPublisher(p EventPublisher) Option {
	return func(s *JobService) { s.publisher = p }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *JobService) { s.tracer = t }
}

// WithClock overrides time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *JobService) { s.now = now }
}

func WithFeedSize(n int) Option {
	return func(s *JobService) {
		if n > 0 {
			s.feedSize = n
		}
	}
}

func NewJobService(store storage.Store, logger *slog.Logger, opts ...Option) *JobService {
	s := &JobService{
		store:    store,
		policy:   domain.PermissivePolicy{},
		logger:   logger,
		tracer:   otel.Tracer(TracerName),
		validate: newValidator(),
		now:      time.Now,
		feedSize: 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

// validateInput runs struct tag validation and converts failures into a
// *domain.ValidationError
func (s *JobService) validateInput(in interface{}) error {
	if err := s.validate.Struct(in); err != nil {
		return domain.NewValidationError(domain.FieldMessages(err)...)
	}
	return nil
}

// startSpan opens a span for one service operation. The returned func ends
// it, recording err when non-nil.
func (s *JobService) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := s.tracer.Start(ctx, "jobs."+op,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// publish emits an event after commit. Failures are logged only; the change
// they describe is already durable.
func (s *JobService) publish(ctx context.Context, eventType string, job *model.Job, actorID string) {
	if s.publisher == nil {
		return
	}

	event := domain.JobEvent{
		EventID:    uuid.New().String(),
		Type:       eventType,
		JobID:      job.ID,
		CompanyID:  job.CompanyID,
		ClientID:   job.ClientID,
		Status:     domain.JobStatus(job.Status),
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish job event",
			slog.String("event_type", eventType),
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
	}
}

func jobAttr(jobID string) attribute.KeyValue {
	return attribute.String("job.id", jobID)
}

// dedupe keeps the first occurrence of every ID
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
