package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Handler spans started with StartSpan must join the request span created by otelmux
func TestRequestSpansJoinIncomingTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	r := mux.NewRouter()
	r.Use(otelmux.Middleware(ServiceName))
	r.HandleFunc("/api/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		_, span := StartSpan(r.Context(), "workflow.analyze")
		EndSpan(span, errors.New("analysis failed"))
		w.WriteHeader(http.StatusBadGateway)
	})

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"

	tests := []struct {
		name        string
		traceParent string
	}{
		{name: "new trace"},
		{name: "continued trace", traceParent: "00-" + traceID + "-00f067aa0ba902b7-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			r.ServeHTTP(httptest.NewRecorder(), req)

			spans := exporter.GetSpans()
			if len(spans) != 2 {
				t.Fatalf("spans = %d, want request span and workflow span", len(spans))
			}

			// The child ends first
			child, server := spans[0], spans[1]
			if child.Name != "workflow.analyze" {
				t.Fatalf("first span = %q, want workflow.analyze", child.Name)
			}
			if child.Parent.SpanID() != server.SpanContext.SpanID() {
				t.Error("workflow span is not a child of the request span")
			}
			if child.Status.Code != codes.Error {
				t.Errorf("workflow span status = %v, want Error", child.Status.Code)
			}
			if tt.traceParent != "" && server.SpanContext.TraceID().String() != traceID {
				t.Errorf("trace id = %s, want %s", server.SpanContext.TraceID(), traceID)
			}
		})
	}
}
