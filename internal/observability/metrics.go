package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const meterName = "github.com/polkiloo/printerd"

const (
	MetricJobsPrinted   = "printerd.jobs.printed"
	MetricJobsFailed    = "printerd.jobs.failed"
	MetricJobsRetried   = "printerd.jobs.retried"
	MetricPrintDuration = "printerd.print.duration"
)

// Metrics records print queue instruments. A nil *Metrics is a no-op.
type Metrics struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider

	printed  metric.Int64Counter
	failed   metric.Int64Counter
	retried  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics builds a meter provider backed by a manual reader and
// registers the print instruments on it.
func NewMetrics() (*Metrics, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter(meterName)

	m := &Metrics{reader: reader, provider: provider}
	var err, e error
	m.printed, e = meter.Int64Counter(MetricJobsPrinted, metric.WithDescription("Receipts printed successfully"))
	err = errors.Join(err, e)
	m.failed, e = meter.Int64Counter(MetricJobsFailed, metric.WithDescription("Print jobs dropped after the last retry"))
	err = errors.Join(err, e)
	m.retried, e = meter.Int64Counter(MetricJobsRetried, metric.WithDescription("Print jobs scheduled for another attempt"))
	err = errors.Join(err, e)
	m.duration, e = meter.Float64Histogram(MetricPrintDuration, metric.WithUnit("s"), metric.WithDescription("Printer call latency"))
	err = errors.Join(err, e)
	if err != nil {
		return nil, fmt.Errorf("register instruments: %w", err)
	}
	return m, nil
}

func (m *Metrics) JobPrinted(ctx context.Context, retries int) {
	if m == nil {
		return
	}
	m.printed.Add(ctx, 1, metric.WithAttributes(attribute.Int("retries", retries)))
}

func (m *Metrics) JobFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.failed.Add(ctx, 1)
}

func (m *Metrics) JobRetried(ctx context.Context, attempt int) {
	if m == nil {
		return
	}
	m.retried.Add(ctx, 1, metric.WithAttributes(attribute.Int("attempt", attempt)))
}

func (m *Metrics) ObservePrint(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("success", err == nil)))
}

// Snapshot collects counter totals keyed by instrument name. Histograms
// report their sample count.
func (m *Metrics) Snapshot(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{
		MetricJobsPrinted:   0,
		MetricJobsFailed:    0,
		MetricJobsRetried:   0,
		MetricPrintDuration: 0,
	}
	if m == nil {
		return out, nil
	}

	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, metricData := range sm.Metrics {
			switch data := metricData.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				out[metricData.Name] = total
			case metricdata.Histogram[float64]:
				var count uint64
				for _, dp := range data.DataPoints {
					count += dp.Count
				}
				out[metricData.Name] = int64(count)
			}
		}
	}
	return out, nil
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
