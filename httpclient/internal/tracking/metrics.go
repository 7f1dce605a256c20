// Package tracking records OpenTelemetry metrics for the execution core.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "go-airtable/httpclient"

	metricAttemptDuration = "http.client.request.duration"  // per physical attempt, seconds
	metricCallDuration    = "airtable.client.call.duration" // per logical call, seconds
	metricRetries         = "airtable.client.retries"
	metricAttemptsPerCall = "airtable.client.call.attempts"

	attrMethod    = "http.request.method"
	attrStatus    = "http.response.status_code"
	attrErrorType = "error.type"
	attrOutcome   = "airtable.outcome"
	attrReason    = "airtable.retry.reason"
)

var (
	meterOnce sync.Once
	meterMu   sync.Mutex

	attemptDuration metric.Float64Histogram
	callDuration    metric.Float64Histogram
	attemptsPerCall metric.Int64Histogram
	retryCounter    metric.Int64Counter
)

func logMetricError(name string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize httpclient metric %s: %v\n", name, err)
	}
}

func initMeter() {
	meterMu.Lock()
	defer meterMu.Unlock()

	meter := otel.Meter(meterName)
	var err error

	attemptDuration, err = meter.Float64Histogram(metricAttemptDuration,
		metric.WithDescription("Duration of a single HTTP attempt against Airtable"),
		metric.WithUnit("s"))
	logMetricError(metricAttemptDuration, err)

	callDuration, err = meter.Float64Histogram(metricCallDuration,
		metric.WithDescription("Duration of a logical call including retries"),
		metric.WithUnit("s"))
	logMetricError(metricCallDuration, err)

	attemptsPerCall, err = meter.Int64Histogram(metricAttemptsPerCall,
		metric.WithDescription("Physical attempts needed per logical call"),
		metric.WithUnit("{attempt}"))
	logMetricError(metricAttemptsPerCall, err)

	retryCounter, err = meter.Int64Counter(metricRetries,
		metric.WithDescription("Number of resubmitted requests"),
		metric.WithUnit("{retry}"))
	logMetricError(metricRetries, err)
}

func ensureMeter() {
	meterOnce.Do(initMeter)
}

// RecordAttempt records one physical attempt. status is 0 when no response was obtained.
func RecordAttempt(ctx context.Context, method string, status int, duration time.Duration, err error) {
	ensureMeter()
	attrs := []attribute.KeyValue{attribute.String(attrMethod, method)}
	if status > 0 {
		attrs = append(attrs, attribute.Int(attrStatus, status))
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorType, classifyError(err)))
	}
	if attemptDuration != nil {
		attemptDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
}

// RecordRetry counts a scheduled resubmission.
func RecordRetry(ctx context.Context, method, reason string) {
	ensureMeter()
	if retryCounter != nil {
		retryCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(attrMethod, method),
			attribute.String(attrReason, reason),
		))
	}
}

// RecordCall records the completion of a logical call.
func RecordCall(ctx context.Context, method, outcome string, duration time.Duration, attempts int) {
	ensureMeter()
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrOutcome, outcome),
	)
	if callDuration != nil {
		callDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if attemptsPerCall != nil {
		attemptsPerCall.Record(ctx, int64(attempts), attrs)
	}
}

// classifyError maps transport faults onto low-cardinality error.type values.
func classifyError(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &netErr):
		return "network"
	default:
		return "error"
	}
}

// ResetForTesting drops the cached instruments so a new global MeterProvider is picked up.
func ResetForTesting() {
	meterMu.Lock()
	defer meterMu.Unlock()
	meterOnce = sync.Once{}
	attemptDuration = nil
	callDuration = nil
	attemptsPerCall = nil
	retryCounter = nil
}
