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
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewUsesGlobalProvider(t *testing.T) {
	prevProvider := otel.GetMeterProvider()
	baseProvider := noop.NewMeterProvider()
	baseMeter := baseProvider.Meter("base")

	recorder := &recorderMeterProvider{
		MeterProvider: baseProvider,
		meter:         baseMeter,
	}

	otel.SetMeterProvider(recorder)
	t.Cleanup(func() {
		otel.SetMeterProvider(prevProvider)
	})

	provider := New()
	require.NotNil(t, provider)
	require.Equal(t, baseMeter, provider.Meter())
	require.Equal(t, recorder, provider.meterProvider)
	require.Equal(t, []string{instrumentationName}, recorder.called)
}

func TestWithMeterProvider(t *testing.T) {
	t.Run("With custom provider", func(t *testing.T) {
		customProvider := &recorderMeterProvider{
			MeterProvider: noop.NewMeterProvider(),
			meter:         noop.NewMeterProvider().Meter("custom"),
		}

		provider := New(WithMeterProvider(customProvider))
		require.Equal(t, customProvider, provider.meterProvider)
		require.Equal(t, customProvider.meter, provider.Meter())
		require.Equal(t, []string{instrumentationName}, customProvider.called)
	})
	t.Run("With nil provider", func(t *testing.T) {
		provider := New(WithMeterProvider(nil))
		require.Equal(t, otel.GetMeterProvider(), provider.meterProvider)
		require.NotNil(t, provider.Meter())
	})
}

type recorderMeterProvider struct {
	metric.MeterProvider
	called []string
	meter  metric.Meter
}

func (p *recorderMeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	p.called = append(p.called, name)
	if p.meter != nil {
		return p.meter
	}
	return p.MeterProvider.Meter(name, opts...)
}
