package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StartToolSelectionSpan starts a span around one gateway tool-selection
// call.
func StartToolSelectionSpan(ctx context.Context, tracerName, model string, toolCount int) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, "gateway.tool_selection",
		trace.WithAttributes(
			LLMModel(model),
			attribute.Int("gepa.tool_count", toolCount),
		))
}

// EndToolSelectionSpan records the chosen tool (if any) and ends the span.
func EndToolSelectionSpan(span trace.Span, selected string, isError bool) {
	if selected != "" {
		span.SetAttributes(ToolSelected(selected))
	}
	span.SetAttributes(attribute.Bool("gepa.selection_error", isError))
	span.End()
}

// RecordSpanError records err on the span and marks it as an error.
func RecordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("gepa.selection_error", true))
}
