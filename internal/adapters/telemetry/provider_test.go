package telemetry_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

func setupMonitor(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr
}

// recordingRenderer is a simple test double for ports.Renderer.
type recordingRenderer struct {
	mu     sync.Mutex
	events []string
	logs   strings.Builder
}

func (r *recordingRenderer) Start(context.Context) error { return nil }
func (r *recordingRenderer) Stop() error                 { return nil }
func (r *recordingRenderer) Wait() error                 { return nil }

func (r *recordingRenderer) OnPlanEmit(tasks []string, _ map[string][]string, targets []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "plan "+strings.Join(tasks, ",")+" -> "+strings.Join(targets, ","))
}

func (r *recordingRenderer) OnTaskStart(_, _, name string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "start "+name)
}

func (r *recordingRenderer) OnTaskLog(_ string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 || r.events[len(r.events)-1] != "log" {
		r.events = append(r.events, "log")
	}
	r.logs.Write(data)
}

func (r *recordingRenderer) OnTaskComplete(_ string, _ time.Time, outcome string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "complete "+outcome)
}

func TestOTelTracer_EmitPlan(t *testing.T) {
	sr := setupMonitor(t)
	tracer := telemetry.NewOTelTracer("test-tracer")

	// Without a current span there is nothing to annotate.
	tracer.EmitPlan(context.Background(), []string{":a"}, nil, []string{":a"})
	assert.Empty(t, sr.Ended())

	ctx, span := otel.Tracer("test").Start(context.Background(), "build")
	tracer.EmitPlan(ctx, []string{":b", ":a"}, map[string][]string{":a": {":b"}}, []string{":a"})
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "plan_emitted", events[0].Name)
}

func TestOTelTracer_TaskSpansCarryThePath(t *testing.T) {
	sr := setupMonitor(t)
	tracer := telemetry.NewOTelTracer("test-tracer")

	_, task := tracer.Start(context.Background(), ":app:compile", ports.WithTask())
	task.End()
	_, other := tracer.Start(context.Background(), "build")
	other.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Contains(t, spans[0].Attributes(), attribute.String(domain.AttrTaskPath, ":app:compile"))
	assert.Empty(t, spans[1].Attributes())
}

func TestOTelSpan_SetAttribute(t *testing.T) {
	sr := setupMonitor(t)

	tracer := telemetry.NewOTelTracer("test-tracer")
	_, span := tracer.Start(context.Background(), "attr-test")

	span.SetAttribute("str", "val")
	span.SetAttribute("int", 123)
	span.SetAttribute("int64", int64(456))
	span.SetAttribute("float", 3.14)
	span.SetAttribute("bool", true)
	span.SetAttribute("slice", []string{"a", "b"})
	span.SetAttribute("outcome", domain.OutcomeFromCache)
	span.SetAttribute("unknown", struct{}{}) // Should fall to default case.
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)

	attrMap := make(map[string]any)
	for _, a := range spans[0].Attributes() {
		attrMap[string(a.Key)] = a.Value.AsInterface()
	}

	assert.Equal(t, "val", attrMap["str"])
	assert.Equal(t, int64(123), attrMap["int"])
	assert.Equal(t, int64(456), attrMap["int64"])
	assert.InEpsilon(t, 3.14, attrMap["float"], 0.001)
	assert.Equal(t, true, attrMap["bool"])
	assert.Equal(t, []string{"a", "b"}, attrMap["slice"])
	assert.Equal(t, "FROM_CACHE", attrMap["outcome"])
	assert.Equal(t, "{}", attrMap["unknown"])
}

func TestOTelSpan_WriteWithoutRenderer(t *testing.T) {
	sr := setupMonitor(t)
	tracer := telemetry.NewOTelTracer("test-tracer")

	_, span := tracer.Start(context.Background(), "log-test")
	assert.Nil(t, span.(*telemetry.OTelSpan).Batcher())
	n, err := span.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "log", events[0].Name)
	assert.Equal(t, "hello", events[0].Attributes[0].Value.AsString())
}

func TestOTelTracer_WithRenderer(t *testing.T) {
	setupMonitor(t)
	r := &recordingRenderer{}
	tracer := telemetry.NewOTelTracer("test-tracer").WithRenderer(r)
	ctx := context.Background()

	tracer.EmitPlan(ctx, []string{":a"}, map[string][]string{":a": {}}, []string{":a"})

	_, span := tracer.Start(ctx, ":a", ports.WithTask())
	require.NotNil(t, span.(*telemetry.OTelSpan).Batcher())
	for range 10 {
		_, err := span.Write([]byte("log "))
		require.NoError(t, err)
	}
	span.End()

	// Shutdown delivers everything that was queued.
	require.NoError(t, tracer.Shutdown(ctx))
	require.NoError(t, tracer.Shutdown(ctx))

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, []string{"plan :a -> :a", "log"}, r.events)
	assert.Equal(t, strings.Repeat("log ", 10), r.logs.String())
}

func TestOTelTracer_DropsMessagesAfterShutdown(t *testing.T) {
	setupMonitor(t)
	r := &recordingRenderer{}
	tracer := telemetry.NewOTelTracer("test-tracer").WithRenderer(r)
	require.NoError(t, tracer.Shutdown(context.Background()))

	tracer.EmitPlan(context.Background(), []string{":a"}, nil, nil)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.events)
}

func TestOTelTracer_TaskOutputPrecedesCompletion(t *testing.T) {
	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := &recordingRenderer{}
	tracer := telemetry.NewOTelTracer("test-tracer").WithRenderer(r)
	tp.RegisterSpanProcessor(telemetry.NewBridge(tracer))
	ctx := context.Background()

	_, span := tracer.Start(ctx, ":compile", ports.WithTask())
	span.SetAttribute(domain.AttrOutcome, domain.OutcomeExecuted.String())
	_, err := span.Write([]byte("compiled\npartial"))
	require.NoError(t, err)
	span.End()

	require.NoError(t, tracer.Shutdown(ctx))

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, []string{"start :compile", "log", "complete " + domain.OutcomeExecuted.String()}, r.events)
	assert.Equal(t, "compiled\npartial", r.logs.String())
}
