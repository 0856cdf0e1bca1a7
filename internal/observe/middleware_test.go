package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// testSetup creates both metrics and tracing infrastructure for middleware tests.
func testSetup(t *testing.T) (*Metrics, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return m, reader, exp
}

// testMux mimics the API routes the middleware wraps in production.
func testMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /audio_response/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /process_input", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	return mux
}

func TestMiddleware_CorrelationID(t *testing.T) {
	m, _, _ := testSetup(t)

	var captured string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = CorrelationID(r.Context())
	}))

	tests := []struct {
		name        string
		traceparent string
		want        string
	}{
		{name: "new trace"},
		{
			name:        "continues incoming trace",
			traceparent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
			want:        "4bf92f3577b34da6a3ce929d0e0e4736",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			if tc.traceparent != "" {
				req.Header.Set("traceparent", tc.traceparent)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if len(captured) != 32 {
				t.Fatalf("correlation ID %q: length %d, want 32", captured, len(captured))
			}
			if tc.want != "" && captured != tc.want {
				t.Errorf("correlation ID = %q, want %q", captured, tc.want)
			}
			if got := rec.Header().Get("X-Correlation-ID"); got != captured {
				t.Errorf("X-Correlation-ID = %q, want %q", got, captured)
			}
		})
	}
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m, reader, exp := testSetup(t)
	handler := Middleware(m)(testMux())

	for _, id := range []string{"01J0000000000000000000000A", "01J0000000000000000000000B"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audio_response/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}

	spans := exp.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}
	if spans[0].Name != "HTTP GET /audio_response/{id}" {
		t.Errorf("span name = %q", spans[0].Name)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, "lingoxa.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("got %d series, want both IDs folded into one", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 2 {
		t.Errorf("sample count = %d, want 2", dp.Count)
	}
	route, _ := dp.Attributes.Value("route")
	if route.AsString() != "GET /audio_response/{id}" {
		t.Errorf("route attribute = %q", route.AsString())
	}
}

func TestMiddleware_CapturesStatusCode(t *testing.T) {
	m, _, exp := testSetup(t)
	handler := Middleware(m)(testMux())

	tests := []struct {
		method, path string
		wantStatus   int64
		wantRoute    string
	}{
		{http.MethodPost, "/process_input", http.StatusBadRequest, "POST /process_input"},
		{http.MethodGet, "/nowhere", http.StatusNotFound, "unmatched"},
	}
	for i, tc := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))

		spans := exp.GetSpans()
		if len(spans) != i+1 {
			t.Fatalf("recorded %d spans, want %d", len(spans), i+1)
		}
		var status int64
		var route string
		for _, a := range spans[i].Attributes {
			switch string(a.Key) {
			case "http.response.status_code":
				status = a.Value.AsInt64()
			case "http.route":
				route = a.Value.AsString()
			}
		}
		if status != tc.wantStatus {
			t.Errorf("%s %s: status attribute = %d, want %d", tc.method, tc.path, status, tc.wantStatus)
		}
		if route != tc.wantRoute {
			t.Errorf("%s %s: route attribute = %q, want %q", tc.method, tc.path, route, tc.wantRoute)
		}
	}
}

func TestMiddleware_QuietPathsLogAtDebug(t *testing.T) {
	m, _, _ := testSetup(t)
	buf := captureLogs(t)
	handler := Middleware(m)(http.NotFoundHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(buf.String(), "level=DEBUG") {
		t.Errorf("/metrics not logged at debug: %s", buf.String())
	}
}
