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

package proxy

import (
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/tochemey/alcproxy/codec"
	"github.com/tochemey/alcproxy/log"
)

// Option is the interface that applies a configuration option to a Factory.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(factory *Factory)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(factory *Factory)

// Apply applies the option
func (f OptionFunc) Apply(factory *Factory) {
	f(factory)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(factory *Factory) {
		if logger != nil {
			factory.logger = logger
		}
	})
}

// WithCodec sets the codec used for arguments and results.
// Both sides of a binding share it. The default is CBOR.
func WithCodec(c codec.Codec) Option {
	return OptionFunc(func(factory *Factory) {
		if c != nil {
			factory.codec = c
		}
	})
}

// WithMetrics records call and lifecycle metrics with the given meter provider
func WithMetrics(provider otelmetric.MeterProvider) Option {
	return OptionFunc(func(factory *Factory) {
		factory.meterProvider = provider
		factory.metricsEnabled = true
	})
}

// WithWireRoundTrip passes every envelope through its wire encoding
// before it reaches the other side
func WithWireRoundTrip() Option {
	return OptionFunc(func(factory *Factory) {
		factory.wire = true
	})
}
