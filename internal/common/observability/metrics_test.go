package observability

import (
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := New("test", WithRegisterer(promclient.NewRegistry()), WithSpanProcessor(recorder))
	defer obs.Shutdown()

	_, span := obs.StartSpan(context.Background(), "compatibility.compute", attribute.String("category", "jobs"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "compatibility.compute", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("category", "jobs"))
}

func TestRecorders_ExportThroughRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("test", WithRegisterer(reg))
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "success")
	obs.RecordJobDuration(ctx, 120*time.Millisecond, "success")
	obs.RecordScored(ctx, "jobs", 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "jobs_processed_total")
	assert.Contains(t, names, "jobs_duration_milliseconds")
	assert.Contains(t, names, "compatibility_scored_total")
	for _, name := range names {
		assert.NotContains(t, name, ".")
	}
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		ctx, span := obs.StartSpan(context.Background(), "noop")
		span.End()
		obs.RecordJobProcessed(ctx, "success")
		obs.RecordScored(ctx, "jobs", 1)
		obs.Shutdown()
	})
}
