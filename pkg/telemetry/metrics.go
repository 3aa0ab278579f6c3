package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce      sync.Once
	metricsInitErr   error
	checkCounter     metric.Int64Counter
	violationCounter metric.Int64Counter
	checkLatency     metric.Float64Histogram
)

// CheckMetrics captures the fields recorded per linted message.
type CheckMetrics struct {
	Source     string // "hook", "range", "server"
	Passed     bool
	Violations map[string]int // rule name -> findings
	Duration   time.Duration
}

// RecordCheck emits counters and the latency histogram for one lint check.
func RecordCheck(ctx context.Context, metrics CheckMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	outcome := "pass"
	if !metrics.Passed {
		outcome = "fail"
	}
	attrs := []attribute.KeyValue{
		attribute.String("lint.source", metrics.Source),
		attribute.String("lint.outcome", outcome),
	}

	checkCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if metrics.Duration > 0 {
		checkLatency.Record(ctx, float64(metrics.Duration)/float64(time.Millisecond), metric.WithAttributes(attrs...))
	}

	for rule, count := range metrics.Violations {
		violationCounter.Add(ctx, int64(count), metric.WithAttributes(
			attribute.String("lint.source", metrics.Source),
			attribute.String("lint.rule", rule),
		))
	}
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("commitcheck.lint")

		checkCounter, metricsInitErr = meter.Int64Counter(
			"commitcheck.checks_total",
			metric.WithDescription("Lint checks partitioned by source and outcome"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		violationCounter, metricsInitErr = meter.Int64Counter(
			"commitcheck.violations_total",
			metric.WithDescription("Rule violations partitioned by rule"),
			metric.WithUnit("{count}"),
		)
		if metricsInitErr != nil {
			return
		}

		checkLatency, metricsInitErr = meter.Float64Histogram(
			"commitcheck.check_duration_ms",
			metric.WithDescription("Lint check latency"),
			metric.WithUnit("ms"),
		)
	})
	return metricsInitErr
}
