package observe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bravonokoth/store-sub000/pkg/observe"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel"
)

func TestTraceProvider(t *testing.T) {
	mock := mock.Mock{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		mock.MethodCalled("handler", r.URL.Path)
		t.Log("INFO: urlPath=", r.URL.Path)
	}))
	defer server.Close()

	mock.On("handler", "/v1/traces").Once()

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", server.URL)
	t.Setenv("OTEL_BSP_SCHEDULE_DELAY", "10") // 10ms for batch span processor

	observeOpts := observe.Options().
		WithService("service-name", "namespace-test").
		EnableTraceProvider()

	otelShutdown, err := observe.SetupOTelSDK(context.TODO(), observeOpts)
	if err != nil {
		t.Error(err)
	}
	defer otelShutdown(context.Background())

	_, span := otel.Tracer("t-tracer").Start(context.Background(), "span-name")
	span.End()

	time.Sleep(200 * time.Millisecond)

	if !mock.AssertExpectations(t) {
		t.Error("it should send spans to the http endpoint")
	}
}

func TestMeterProvider(t *testing.T) {
	observeOpts := observe.Options().
		WithService("service-name", "namespace-test").
		EnableMeterProvider()

	otelShutdown, err := observe.SetupOTelSDK(context.TODO(), observeOpts)
	if err != nil {
		t.Fatal(err)
	}
	defer otelShutdown(context.Background())

	counter, err := otel.Meter("t-meter").Int64Counter("observe_test_events")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 3)

	families, err := prom.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}

	for _, mf := range families {
		if strings.Contains(mf.GetName(), "observe_test_events") {
			return
		}
	}
	t.Error("counter should show up on the default prometheus registry")
}
