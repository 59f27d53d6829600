package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/domain"
)

// TaskSink receives the start and end of task spans. ports.Renderer and OTelTracer
// implement it.
type TaskSink interface {
	OnTaskStart(spanID, parentID, name string, startTime time.Time)
	OnTaskComplete(spanID string, endTime time.Time, outcome string, err error)
}

// Bridge implements sdktrace.SpanProcessor to bridge OTel task spans to a TaskSink.
// Spans without the task path attribute are not forwarded.
type Bridge struct {
	renderer TaskSink
}

// NewBridge returns a new Bridge.
func NewBridge(renderer TaskSink) *Bridge {
	return &Bridge{
		renderer: renderer,
	}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}
	if _, ok := stringAttr(s.Attributes(), domain.AttrTaskPath); !ok {
		return
	}

	var parentID string
	if parentSpan := trace.SpanFromContext(parent); parentSpan.SpanContext().IsValid() {
		parentID = parentSpan.SpanContext().SpanID().String()
	}

	b.renderer.OnTaskStart(
		sc.SpanID().String(),
		parentID,
		s.Name(),
		s.StartTime(),
	)
}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil {
		return
	}

	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}
	attrs := s.Attributes()
	if _, ok := stringAttr(attrs, domain.AttrTaskPath); !ok {
		return
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "task failed"
		}
		err = errors.New(desc)
	}
	outcome, _ := stringAttr(attrs, domain.AttrOutcome)

	b.renderer.OnTaskComplete(
		sc.SpanID().String(),
		s.EndTime(),
		outcome,
		err,
	)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

func stringAttr(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.AsString(), true
		}
	}
	return "", false
}
