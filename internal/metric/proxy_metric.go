// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package metric

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProxyMetric groups the OpenTelemetry instruments describing proxied calls
// and proxy lifecycles.
//
// Instruments:
//   - alc_calls_count          (Int64Counter)
//   - alc_call_failures_count  (Int64Counter)
//   - alc_call_duration        (Float64Histogram, unit: ms)
//   - alc_binds_count          (Int64Counter)
//   - alc_unloads_count        (Int64Counter)
//   - alc_proxies_count        (Int64ObservableGauge)
type ProxyMetric struct {
	meter         metric.Meter
	callsCount    metric.Int64Counter
	failuresCount metric.Int64Counter
	callDuration  metric.Float64Histogram
	bindsCount    metric.Int64Counter
	unloadsCount  metric.Int64Counter
	proxiesCount  metric.Int64ObservableGauge
}

// NewProxyMetric creates the instruments using the provided Meter.
// It returns an error if any instrument cannot be created.
func NewProxyMetric(meter metric.Meter) (*ProxyMetric, error) {
	instruments := ProxyMetric{meter: meter}
	var err error

	if instruments.callsCount, err = meter.Int64Counter(
		"alc_calls_count",
		metric.WithDescription("Total number of calls forwarded through proxies"),
	); err != nil {
		return nil, err
	}

	if instruments.failuresCount, err = meter.Int64Counter(
		"alc_call_failures_count",
		metric.WithDescription("Total number of proxied calls that failed"),
	); err != nil {
		return nil, err
	}

	if instruments.callDuration, err = meter.Float64Histogram(
		"alc_call_duration",
		metric.WithDescription("Duration of proxied calls"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if instruments.bindsCount, err = meter.Int64Counter(
		"alc_binds_count",
		metric.WithDescription("Total number of proxies bound"),
	); err != nil {
		return nil, err
	}

	if instruments.unloadsCount, err = meter.Int64Counter(
		"alc_unloads_count",
		metric.WithDescription("Total number of proxies unloaded"),
	); err != nil {
		return nil, err
	}

	if instruments.proxiesCount, err = meter.Int64ObservableGauge(
		"alc_proxies_count",
		metric.WithDescription("Number of proxies currently bound"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// RecordCall records a completed call. kind is empty for successful calls.
func (x *ProxyMetric) RecordCall(ctx context.Context, method string, kind string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("method", method))
	x.callsCount.Add(ctx, 1, attrs)
	x.callDuration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
	if kind != "" {
		x.failuresCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("kind", kind)))
	}
}

// RecordBind records a new binding
func (x *ProxyMetric) RecordBind(ctx context.Context, iface string) {
	x.bindsCount.Add(ctx, 1, metric.WithAttributes(attribute.String("interface", iface)))
}

// RecordUnload records a proxy reaching its terminal state
func (x *ProxyMetric) RecordUnload(ctx context.Context, iface string) {
	x.unloadsCount.Add(ctx, 1, metric.WithAttributes(attribute.String("interface", iface)))
}

// ObserveProxies registers fn as the source of the live proxies gauge.
// The returned registration must be unregistered when the source goes away.
func (x *ProxyMetric) ObserveProxies(fn func() int64) (metric.Registration, error) {
	return x.meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		observer.ObserveInt64(x.proxiesCount, fn())
		return nil
	}, x.proxiesCount)
}
