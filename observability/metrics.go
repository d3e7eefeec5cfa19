package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the instruments for the enhancement pipeline.
type PipelineMetrics struct {
	requestTotal    metric.Int64Counter
	requestActive   metric.Int64UpDownCounter
	stageDuration   metric.Float64Histogram
	chunksProcessed metric.Int64Counter
	speakersFound   metric.Int64Histogram
}

// NewPipelineMetrics creates the pipeline instruments on the global meter.
func NewPipelineMetrics() (*PipelineMetrics, error) {
	meter := otel.Meter(tracerName)

	requestTotal, err := meter.Int64Counter("enhance.requests.total",
		metric.WithDescription("Total enhancement requests by endpoint and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating enhance.requests.total: %w", err)
	}
	requestActive, err := meter.Int64UpDownCounter("enhance.requests.active",
		metric.WithDescription("Enhancement requests currently in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating enhance.requests.active: %w", err)
	}
	stageDuration, err := meter.Float64Histogram("enhance.stage.duration",
		metric.WithDescription("Duration of pipeline stages in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating enhance.stage.duration: %w", err)
	}
	chunksProcessed, err := meter.Int64Counter("enhance.chunks.processed",
		metric.WithDescription("Audio chunks processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating enhance.chunks.processed: %w", err)
	}
	speakersFound, err := meter.Int64Histogram("enhance.speakers.identified",
		metric.WithDescription("Distinct speakers identified per request"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating enhance.speakers.identified: %w", err)
	}

	return &PipelineMetrics{
		requestTotal:    requestTotal,
		requestActive:   requestActive,
		stageDuration:   stageDuration,
		chunksProcessed: chunksProcessed,
		speakersFound:   speakersFound,
	}, nil
}

// RequestStart marks a request in flight.
func (m *PipelineMetrics) RequestStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, 1)
}

// RequestEnd records a finished request.
func (m *PipelineMetrics) RequestEnd(ctx context.Context, endpoint, status string) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

// RecordStage records a pipeline stage duration.
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// RecordChunks counts processed chunks.
func (m *PipelineMetrics) RecordChunks(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.chunksProcessed.Add(ctx, int64(n))
}

// RecordSpeakers records the distinct speaker count of a finished request.
func (m *PipelineMetrics) RecordSpeakers(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.speakersFound.Record(ctx, int64(n))
}
