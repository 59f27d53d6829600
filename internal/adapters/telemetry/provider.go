package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// LogBufferSize determines the size of the async log channel.
const LogBufferSize = 4096

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
// Plans, task lifecycle events and task output are delivered to the renderer from a
// single goroutine, so the renderer sees them in the order they were produced. The
// tracer is also the TaskSink of the Bridge: a task's outcome is queued behind the
// output its span flushed on End.
type OTelTracer struct {
	tracer   trace.Tracer
	renderer ports.Renderer
	logChan  chan any
	done     chan struct{}
	mu       sync.RWMutex

	// sendMu guards closing logChan. runLoop never takes it.
	sendMu sync.RWMutex
	closed bool
}

// NewOTelTracer creates a new OTelTracer with the given instrumentation name.
func NewOTelTracer(name string) *OTelTracer {
	t := &OTelTracer{
		tracer:  otel.Tracer(name),
		logChan: make(chan any, LogBufferSize),
		done:    make(chan struct{}),
	}
	go t.runLoop()
	return t
}

func (t *OTelTracer) runLoop() {
	defer close(t.done)
	for msg := range t.logChan {
		t.mu.RLock()
		r := t.renderer
		t.mu.RUnlock()

		if r == nil {
			continue
		}
		switch m := msg.(type) {
		case msgTaskLog:
			r.OnTaskLog(m.SpanID, m.Data)
		case msgInitTasks:
			r.OnPlanEmit(m.Tasks, m.Dependencies, m.Targets)
		case msgTaskStart:
			r.OnTaskStart(m.SpanID, m.ParentID, m.Name, m.StartTime)
		case msgTaskComplete:
			r.OnTaskComplete(m.SpanID, m.EndTime, m.Outcome, m.Err)
		}
	}
}

// Shutdown stops the background log processor after delivering the queued messages.
func (t *OTelTracer) Shutdown(ctx context.Context) error {
	t.sendMu.Lock()
	if !t.closed {
		t.closed = true
		close(t.logChan)
	}
	t.sendMu.Unlock()

	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithRenderer sets the renderer that receives plans and task output.
func (t *OTelTracer) WithRenderer(r ports.Renderer) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renderer = r
	return t
}

func (t *OTelTracer) send(msg any, mustDeliver bool) {
	t.mu.RLock()
	hasRenderer := t.renderer != nil
	t.mu.RUnlock()

	t.sendMu.RLock()
	defer t.sendMu.RUnlock()
	if t.closed || !hasRenderer {
		return
	}
	if mustDeliver {
		t.logChan <- msg
		return
	}
	select {
	case t.logChan <- msg:
	default:
		// Drop logs if buffer is full to prevent blocking the build
	}
}

// Start creates a new span. Task spans carry the task path attribute from the start so
// span processors can tell them apart from structural spans.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var startOpts []trace.SpanStartOption
	if cfg.Task {
		startOpts = append(startOpts, trace.WithAttributes(attribute.String(domain.AttrTaskPath, name)))
	}
	ctx, span := t.tracer.Start(ctx, name, startOpts...)

	t.mu.RLock()
	hasRenderer := t.renderer != nil
	t.mu.RUnlock()

	var batcher *OutputBatcher
	if hasRenderer {
		spanID := span.SpanContext().SpanID().String()
		batcher = NewOutputBatcher(0, 0, func(data []byte) {
			t.send(msgTaskLog{SpanID: spanID, Data: data}, false)
		})
	}

	return ctx, &OTelSpan{span: span, batcher: batcher}
}

// EmitPlan signals that a set of tasks is planned for execution by adding an event to the
// current span and announcing the plan to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, taskNames []string, deps map[string][]string, targets []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("tasks", taskNames),
			attribute.StringSlice("targets", targets),
		))
	}

	// The renderer must learn about the plan before any task output.
	t.send(msgInitTasks{Tasks: taskNames, Dependencies: deps, Targets: targets}, true)
}

// OnTaskStart queues the start of a task span for the renderer.
func (t *OTelTracer) OnTaskStart(spanID, parentID, name string, startTime time.Time) {
	t.send(msgTaskStart{SpanID: spanID, ParentID: parentID, Name: name, StartTime: startTime}, true)
}

// OnTaskComplete queues the end of a task span behind the output already sent for it.
func (t *OTelTracer) OnTaskComplete(spanID string, endTime time.Time, outcome string, err error) {
	t.send(msgTaskComplete{SpanID: spanID, EndTime: endTime, Outcome: outcome, Err: err}, true)
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span    trace.Span
	batcher *OutputBatcher
}

// End flushes the buffered output and completes the span.
func (s *OTelSpan) End() {
	if s.batcher != nil {
		_ = s.batcher.Close()
	}
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	case fmt.Stringer:
		s.span.SetAttributes(attribute.String(key, v.String()))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write satisfies io.Writer by adding a log event to the span or writing to the batcher.
func (s *OTelSpan) Write(p []byte) (n int, err error) {
	if s.batcher != nil {
		return s.batcher.Write(p)
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}

// Batcher returns the log batcher of the span, or nil when no renderer is attached.
func (s *OTelSpan) Batcher() *OutputBatcher {
	return s.batcher
}
