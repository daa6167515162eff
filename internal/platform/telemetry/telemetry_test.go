package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_NoopWhenDisabled(t *testing.T) {
	for _, cfg := range []Config{
		{ServiceName: "clinic", Endpoint: "http://192.0.2.1:4318", Enabled: false},
		{ServiceName: "clinic", Enabled: true},
	} {
		shutdown, err := Setup(context.Background(), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Fatalf("shutdown error: %v", err)
		}
	}
}

func TestSetup_CreatesProvider(t *testing.T) {
	// Non-routable address; nothing is exported before shutdown.
	shutdown, err := Setup(context.Background(), Config{
		ServiceName: "clinic", Endpoint: "http://192.0.2.1:4318", Enabled: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func traced(t *testing.T, handler echo.HandlerFunc) (*tracetest.SpanRecorder, error) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPatch, "/api/v1/visits/abc/status", nil), httptest.NewRecorder())
	c.SetPath("/api/v1/visits/:id/status")
	c.Set("request_id", "req-9")
	return rec, TracingMiddleware(tp)(handler)(c)
}

func TestTracingMiddleware_RecordsSpan(t *testing.T) {
	rec, err := traced(t, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "HTTP PATCH /api/v1/visits/:id/status" {
		t.Errorf("unexpected span name %q", s.Name())
	}
	if s.Status().Code == codes.Error {
		t.Error("2xx must not mark the span as error")
	}
	found := false
	for _, a := range s.Attributes() {
		if a.Key == "request.id" && a.Value.AsString() == "req-9" {
			found = true
		}
	}
	if !found {
		t.Error("expected request.id attribute")
	}
}

func TestTracingMiddleware_MarksServerErrors(t *testing.T) {
	rec, err := traced(t, func(c echo.Context) error {
		return errors.New("database down")
	})
	if err == nil {
		t.Fatal("handler error must propagate")
	}
	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Status().Code != codes.Error {
		t.Fatalf("expected an error span, got %+v", spans)
	}

	rec, _ = traced(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "dup")
	})
	if rec.Ended()[0].Status().Code == codes.Error {
		t.Error("4xx must not mark the span as error")
	}
}
