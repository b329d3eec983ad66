package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Not parallel: swaps the global tracer provider and propagator.
func TestRouterSpansJoinIncomingTrace(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("codemate-api"))
	r.HandleFunc("/api/v1/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, span := StartSpan(r.Context(), "forum.get_question")
		EndSpan(span, nil)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		traceParent string
		wantTraceID string
	}{
		{name: "new trace"},
		{
			name:        "continues caller trace",
			traceParent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			wantTraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/questions/42", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}

			spans := exporter.GetSpans()
			if len(spans) != 2 {
				t.Fatalf("expected router and service spans, got %d", len(spans))
			}
			inner, outer := spans[0], spans[1]
			if inner.Parent.SpanID() != outer.SpanContext.SpanID() {
				t.Error("service span is not a child of the router span")
			}
			if outer.Name != "/api/v1/questions/{id}" {
				t.Errorf("router span name = %q, want route template", outer.Name)
			}
			if tt.wantTraceID != "" && outer.SpanContext.TraceID().String() != tt.wantTraceID {
				t.Errorf("trace id = %s, want %s", outer.SpanContext.TraceID(), tt.wantTraceID)
			}
		})
	}
}
