package telemetry

import (
	"context"
	"time"

	"github.com/heraerp/platform/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
)

// ProcedureMetrics counts CRUD procedure calls and their latency by outcome.
// Failures are labelled with the domain error code.
type ProcedureMetrics struct {
	calls    *Counter
	duration *Histogram
}

// NewProcedureMetrics registers the procedure instruments on mp.
// A nil provider falls back to the global meter.
func NewProcedureMetrics(mp *MeterProvider) (*ProcedureMetrics, error) {
	meter := mp.Meter(TracerName)

	calls, err := NewCounter(meter, "hera_procedure_calls_total", "Total CRUD procedure calls", "{call}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "hera_procedure_duration_seconds",
		Description: "CRUD procedure latency",
		Unit:        "s",
		Boundaries:  ProcedureDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return &ProcedureMetrics{calls: calls, duration: duration}, nil
}

// Observe records one call of procedure that started at start and ended with err.
// A nil receiver is a no-op so services can run without metrics.
func (m *ProcedureMetrics) Observe(ctx context.Context, procedure string, start time.Time, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrProcedure.String(procedure)}
	switch de, ok := shared.AsDomainError(err); {
	case err == nil:
		attrs = append(attrs, AttrOutcome.String("success"))
	case ok:
		attrs = append(attrs, AttrOutcome.String("rejected"), AttrErrorCode.String(de.Code))
	default:
		attrs = append(attrs, AttrOutcome.String("error"))
	}
	m.calls.Inc(ctx, attrs...)
	m.duration.RecordDuration(ctx, time.Since(start), attrs...)
}
