package tracing

import (
	"context"
	"time"

	"github.com/sarchlab/worksim/sim"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OTelTracer turns every traced task into an OpenTelemetry span. Virtual time
// is laid onto the wall clock starting at the epoch, with one time unit
// lasting Unit.
type OTelTracer struct {
	timeTeller sim.TimeTeller
	tracer     trace.Tracer

	Epoch time.Time
	Unit  time.Duration

	spans map[string]trace.Span
}

// NewOTelTracer creates a tracer that starts spans with the given OpenTelemetry
// tracer. The epoch defaults to the Unix epoch and a time unit to a second.
func NewOTelTracer(timeTeller sim.TimeTeller, tracer trace.Tracer) *OTelTracer {
	return &OTelTracer{
		timeTeller: timeTeller,
		tracer:     tracer,
		Epoch:      time.Unix(0, 0).UTC(),
		Unit:       time.Second,
		spans:      make(map[string]trace.Span),
	}
}

func (t *OTelTracer) now() time.Time {
	now := float64(t.timeTeller.CurrentTime())
	return t.Epoch.Add(time.Duration(now * float64(t.Unit)))
}

// StartTask starts a span named after what the task does.
func (t *OTelTracer) StartTask(task Task) {
	_, span := t.tracer.Start(context.Background(), task.What,
		trace.WithTimestamp(t.now()),
		trace.WithAttributes(
			attribute.String("worksim.task.id", task.ID),
			attribute.String("worksim.task.kind", task.Kind),
			attribute.String("worksim.task.where", task.Where),
		))

	t.spans[task.ID] = span
}

// StepTask adds an event to the span of the task.
func (t *OTelTracer) StepTask(task Task) {
	span, ok := t.spans[task.ID]
	if !ok {
		return
	}

	for _, step := range task.Steps {
		span.AddEvent(step.What, trace.WithTimestamp(t.now()))
	}
}

// EndTask ends the span of the task.
func (t *OTelTracer) EndTask(task Task) {
	span, ok := t.spans[task.ID]
	if !ok {
		return
	}

	span.End(trace.WithTimestamp(t.now()))
	delete(t.spans, task.ID)
}
