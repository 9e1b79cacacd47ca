package reassess

import (
	"context"
	"math"
	"time"

	"adaptengine"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedOrchestrator wraps the orchestrator with spans and metrics
// for each cycle. Behavior is identical to the plain orchestrator.
type InstrumentedOrchestrator struct {
	inner  *Orchestrator
	tracer trace.Tracer
	meter  metric.Meter
}

// NewInstrumentedOrchestrator decorates an orchestrator with observability.
func NewInstrumentedOrchestrator(inner *Orchestrator, tracer trace.Tracer, meter metric.Meter) *InstrumentedOrchestrator {
	return &InstrumentedOrchestrator{inner: inner, tracer: tracer, meter: meter}
}

// RunCycle executes one cycle with full instrumentation.
func (o *InstrumentedOrchestrator) RunCycle(ctx context.Context, userID string) (adaptengine.PlanAdjustment, error) {
	ctx, span := o.tracer.Start(ctx, "InstrumentedOrchestrator.RunCycle")
	defer span.End()

	cyclesCounter, _ := o.meter.Int64Counter("reassessment_cycles_total",
		metric.WithDescription("Total number of reassessment cycles started"))
	committedCounter, _ := o.meter.Int64Counter("reassessment_cycles_committed_total",
		metric.WithDescription("Total number of cycles that committed a new plan version"))
	rejectedCounter, _ := o.meter.Int64Counter("reassessment_cycles_rejected_total",
		metric.WithDescription("Total number of cycles rejected by the safety gate"))
	failedCounter, _ := o.meter.Int64Counter("reassessment_cycles_failed_total",
		metric.WithDescription("Total number of cycles that errored before completing"))
	durationHist, _ := o.meter.Float64Histogram("reassessment_cycle_duration_seconds",
		metric.WithDescription("Duration of one full reassessment cycle in seconds"))
	calorieMagnitudeHist, _ := o.meter.Float64Histogram("calorie_adjustment_magnitude",
		metric.WithDescription("Absolute calorie adjustment per committed cycle in kcal/day"))
	volumeMagnitudeHist, _ := o.meter.Float64Histogram("volume_adjustment_magnitude",
		metric.WithDescription("Absolute weekly set adjustment per committed cycle"))
	confidenceGauge, _ := o.meter.Float64Gauge("snapshot_confidence",
		metric.WithDescription("Data confidence of the latest aggregated snapshot"))
	warningsGauge, _ := o.meter.Int64Gauge("cycle_warnings_count",
		metric.WithDescription("Number of safety warnings attached to the latest cycle"))

	cyclesCounter.Add(ctx, 1)
	start := time.Now()

	adjustment, err := o.inner.RunCycle(ctx, userID)
	durationHist.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		failedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "cycle failed")
		span.RecordError(err)
		return adjustment, err
	}

	confidenceGauge.Record(ctx, adjustment.Snapshot.Confidence)
	warningsGauge.Record(ctx, int64(len(adjustment.Warnings)))

	span.AddEvent("Cycle evaluated", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.Int("cycle", adjustment.Cycle),
		attribute.Bool("committed", adjustment.Committed),
		attribute.Float64("calorie_delta", adjustment.Calories.AdjustmentAmount),
		attribute.Float64("volume_delta", adjustment.Volume.AdjustmentAmount),
		attribute.Float64("confidence", adjustment.Snapshot.Confidence),
		attribute.Int("warnings_count", len(adjustment.Warnings)),
	))

	if adjustment.Committed {
		committedCounter.Add(ctx, 1)
		calorieMagnitudeHist.Record(ctx, math.Abs(adjustment.Calories.AdjustmentAmount))
		volumeMagnitudeHist.Record(ctx, math.Abs(adjustment.Volume.AdjustmentAmount))
	} else {
		rejectedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Int("warnings_count", len(adjustment.Warnings)),
		))
	}

	return adjustment, nil
}
