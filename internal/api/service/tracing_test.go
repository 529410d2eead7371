package service

import (
	"context"
	"testing"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedFixture(t *testing.T) (*fixture, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return newFixture(t, WithTracer(tp.Tracer(TracerName))), sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_SpanPerOperation(t *testing.T) {
	f, sr := newTracedFixture(t)
	ctx := context.Background()

	jobID := f.createJob(t)
	_, _, err := f.svc.TransitionStatus(ctx, f.tech1, jobID, string(domain.JobStatusOngoing))
	require.NoError(t, err)
	_, err = f.svc.GetJob(ctx, jobID)
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)

	names := []string{spans[0].Name(), spans[1].Name(), spans[2].Name()}
	assert.Equal(t, []string{"jobs.create", "jobs.transition_status", "jobs.get"}, names)

	for _, span := range spans {
		assert.Equal(t, codes.Ok, span.Status().Code, span.Name())
	}

	v, ok := spanAttr(spans[1], "job.status")
	require.True(t, ok)
	assert.Equal(t, "ONGOING", v.AsString())

	v, ok = spanAttr(spans[2], "job.id")
	require.True(t, ok)
	assert.Equal(t, jobID, v.AsString())
}

func TestTracing_RecordsErrors(t *testing.T) {
	f, sr := newTracedFixture(t)

	_, err := f.svc.GetJob(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "jobs.get", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, domain.ErrJobNotFound.Error(), spans[0].Status().Description)

	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestTracing_ForbiddenCreate(t *testing.T) {
	f, sr := newTracedFixture(t)

	_, err := f.svc.Create(context.Background(), f.tech1, f.createInput())
	require.ErrorIs(t, err, domain.ErrForbidden)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "jobs.create", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
