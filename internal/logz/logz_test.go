package logz

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitLevel(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: " WARN ", want: zapcore.WarnLevel},
		{level: "bogus", want: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		Init(tt.level, "test")
		if !NewLogger().Core().Enabled(tt.want) || NewLogger().Core().Enabled(tt.want-1) {
			t.Errorf("Init(%q) did not set level %v", tt.level, tt.want)
		}
	}
}

func TestWithTrace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{2},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	WithTrace(ctx, zap.New(core), "req-1").Info("hello")

	fields := logs.All()[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["trace_id"] != sc.TraceID().String() || fields["span_id"] != sc.SpanID().String() || fields["trace_sampled"] != true {
		t.Errorf("fields = %v", fields)
	}
}

func TestTraceFieldsWithoutSpan(t *testing.T) {
	if got := TraceFields(context.Background()); got != nil {
		t.Errorf("TraceFields() = %v, want nil", got)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	WithTrace(context.Background(), zap.New(core), "").Info("hello")
	if n := len(logs.All()[0].Context); n != 0 {
		t.Errorf("got %d fields, want none", n)
	}
}
