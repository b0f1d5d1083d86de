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
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"

	"github.com/tochemey/alcproxy/codec"
	"github.com/tochemey/alcproxy/domain"
	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/internal/eventstream"
	"github.com/tochemey/alcproxy/internal/metric"
	"github.com/tochemey/alcproxy/internal/validation"
	"github.com/tochemey/alcproxy/internal/xsync"
	"github.com/tochemey/alcproxy/log"
	"github.com/tochemey/alcproxy/typeid"
)

// BindSpec describes a binding: an instance of Concrete, declared by the
// module stored at ModulePath, created in Target and exposed to Caller as
// Interface.
type BindSpec struct {
	// Caller is the domain the proxy is used from
	Caller domain.Domain
	// Target is the domain the instance lives in
	Target domain.Domain
	// Interface is the full name of the interface the instance is exposed as
	Interface string
	// Concrete is the full name of the type to instantiate
	Concrete string
	// ModulePath locates the module declaring both types
	ModulePath string
	// ConstructorArgs are caller local values handed to the constructor
	ConstructorArgs []any
	// GenericArgs close Concrete, and Interface when it is generic
	GenericArgs []typeid.TypeIdentity
}

// Validate checks the bind specification is complete
func (s BindSpec) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddAssertion(s.Caller != nil, "caller domain is required").
		AddAssertion(s.Target != nil, "target domain is required").
		AddValidator(validation.NewTypeName("Interface", s.Interface)).
		AddValidator(validation.NewTypeName("Concrete", s.Concrete)).
		AddValidator(validation.NewRequired("ModulePath", s.ModulePath))

	for _, arg := range s.GenericArgs {
		chain.AddValidator(arg)
	}

	if err := chain.Validate(); err != nil {
		return gerrors.NewErrInvalidBindSpec(err)
	}
	return nil
}

// Factory binds instances across domains and keeps track of the proxies it
// produced until they unload.
type Factory struct {
	codec          codec.Codec
	logger         log.Logger
	wire           bool
	metricsEnabled bool
	meterProvider  otelmetric.MeterProvider

	metrics      *metric.ProxyMetric
	registration otelmetric.Registration
	events       eventstream.Stream

	bridges     *xsync.Map[domain.Domain, *TypeBridge]
	bridgeHooks *xsync.Map[domain.Domain, func()]
	proxies     *xsync.Map[string, *ClientProxy]
}

// NewFactory creates a Factory
func NewFactory(opts ...Option) (*Factory, error) {
	factory := &Factory{
		codec:       codec.Default(),
		logger:      log.DiscardLogger,
		events:      eventstream.New(),
		bridges:     xsync.NewMap[domain.Domain, *TypeBridge](),
		bridgeHooks: xsync.NewMap[domain.Domain, func()](),
		proxies:     xsync.NewMap[string, *ClientProxy](),
	}

	for _, opt := range opts {
		opt.Apply(factory)
	}

	if factory.metricsEnabled {
		provider := metric.New(metric.WithMeterProvider(factory.meterProvider))
		metrics, err := metric.NewProxyMetric(provider.Meter())
		if err != nil {
			return nil, fmt.Errorf("failed to create proxy metrics: %w", err)
		}

		registration, err := metrics.ObserveProxies(func() int64 {
			return int64(factory.proxies.Len())
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register proxies gauge: %w", err)
		}

		factory.metrics = metrics
		factory.registration = registration
	}

	return factory, nil
}

// Bind creates the instance described by spec in its target domain and
// returns a proxy the caller domain uses to reach it. Nothing is created
// when any step fails.
func (f *Factory) Bind(spec BindSpec) (*ClientProxy, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	for _, d := range []domain.Domain{spec.Target, spec.Caller} {
		if d.IsUnloaded() {
			return nil, gerrors.NewErrDomainUnloaded(d.ID())
		}
	}

	targetBridge, err := f.Bridge(spec.Target)
	if err != nil {
		return nil, err
	}
	callerBridge, err := f.Bridge(spec.Caller)
	if err != nil {
		return nil, err
	}

	module, err := spec.Target.Load(spec.ModulePath)
	if err != nil {
		return nil, err
	}
	callerModule, err := spec.Caller.Load(spec.ModulePath)
	if err != nil {
		return nil, err
	}

	concreteType, err := targetBridge.Resolve(reference(module, spec.Concrete, spec.GenericArgs))
	if err != nil {
		return nil, err
	}
	ifaceType, err := targetBridge.Resolve(reference(module, spec.Interface, spec.GenericArgs))
	if err != nil {
		return nil, err
	}
	if ifaceType.Kind() != reflect.Interface {
		return nil, gerrors.NewErrInvalidBindSpec(fmt.Errorf("(%s) is not an interface", spec.Interface))
	}
	if !concreteType.Implements(ifaceType) {
		return nil, gerrors.NewErrInvalidBindSpec(fmt.Errorf("(%s) does not implement (%s)", spec.Concrete, spec.Interface))
	}

	callerIface, err := callerBridge.Resolve(reference(callerModule, spec.Interface, spec.GenericArgs))
	if err != nil {
		return nil, err
	}
	callerIfaceDef, _ := callerModule.Type(spec.Interface)

	instance, err := f.construct(spec, callerBridge, targetBridge, concreteType)
	if err != nil {
		return nil, err
	}

	handle := uuid.NewString()
	stub := newServerStub(handle, instance, ifaceType, targetBridge, f.codec, f.logger)
	proxy := newClientProxy(f, stub, callerIface, callerIfaceDef, callerBridge)

	for _, d := range uniqueDomains(spec.Target, spec.Caller) {
		cancel, err := d.OnUnload(func() { f.unload(proxy, reasonDomainUnloaded) })
		if err != nil {
			// the domain unloaded while binding
			f.unload(proxy, reasonDomainUnloaded)
			return nil, gerrors.NewErrDomainUnloaded(d.ID())
		}
		proxy.onDetach(cancel)
	}

	f.proxies.Set(handle, proxy)
	if f.metrics != nil {
		f.metrics.RecordBind(context.Background(), spec.Interface)
	}

	f.events.Publish(TopicBound, &BoundEvent{
		Handle:    handle,
		Caller:    spec.Caller.ID(),
		Target:    spec.Target.ID(),
		Interface: spec.Interface,
		Concrete:  spec.Concrete,
	})

	f.logger.Infof("bound (%s) as (%s) from domain=(%s) to domain=(%s) handle=(%s)",
		spec.Concrete, spec.Interface, spec.Caller.ID(), spec.Target.ID(), handle)
	return proxy, nil
}

// construct marshals the constructor arguments into the target domain and
// runs the first matching constructor of the concrete type
func (f *Factory) construct(spec BindSpec, callerBridge, targetBridge *TypeBridge, concreteType reflect.Type) (reflect.Value, error) {
	def, ok := targetBridge.Definition(concreteType)
	if !ok {
		return reflect.Value{}, gerrors.NewErrTypeNotFound(spec.Concrete, errors.New("type has no declaration"))
	}

	argTypes := make([]reflect.Type, len(spec.ConstructorArgs))
	args := make([]reflect.Value, len(spec.ConstructorArgs))
	for i, arg := range spec.ConstructorArgs {
		if arg == nil {
			return reflect.Value{}, gerrors.NewErrInvalidBindSpec(fmt.Errorf("constructor argument %d is nil", i))
		}

		id, callerType, err := callerBridge.IdentifyValue(arg, nil)
		if err != nil {
			return reflect.Value{}, err
		}
		bytea, err := f.codec.Serialize(arg, callerType)
		if err != nil {
			return reflect.Value{}, err
		}

		argTypes[i], err = targetBridge.Resolve(id)
		if err != nil {
			return reflect.Value{}, err
		}
		value, err := f.codec.Deserialize(bytea, argTypes[i])
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = valueOf(value, argTypes[i])
	}

	resolver := NewMethodResolver(targetBridge, f.codec)
	ctor, err := resolver.FindConstructor(def, concreteType, argTypes)
	if err != nil {
		return reflect.Value{}, err
	}

	for i := range args {
		if args[i], err = resolver.Coerce(args[i], argTypes[i], ctor.params[i]); err != nil {
			return reflect.Value{}, err
		}
	}

	out, err := ctor.Call(reflect.Value{}, args)
	if err != nil {
		return reflect.Value{}, err
	}

	instance := out[0]
	if (instance.Kind() == reflect.Pointer || instance.Kind() == reflect.Interface) && instance.IsNil() {
		return reflect.Value{}, gerrors.NewErrInvocationFailure(constructorName, fmt.Errorf("(%s) constructor returned nil", spec.Concrete))
	}
	return instance, nil
}

// Unbind tears the binding down ahead of any domain unload.
// It fails with errors.ErrProxyUnloaded when the proxy is already unloaded.
func (f *Factory) Unbind(proxy *ClientProxy) error {
	if proxy == nil {
		return gerrors.NewErrInvalidBindSpec(errors.New("proxy is nil"))
	}
	if !f.unload(proxy, reasonUnbound) {
		return gerrors.NewErrProxyUnloaded(proxy.Handle())
	}
	return nil
}

// Close unbinds every live proxy and releases the factory resources.
// The factory must not be used afterwards.
func (f *Factory) Close() error {
	for _, proxy := range f.proxies.Values() {
		f.unload(proxy, reasonFactoryClosed)
	}

	var err error
	if f.registration != nil {
		err = multierr.Append(err, f.registration.Unregister())
		f.registration = nil
	}

	for _, cancel := range f.bridgeHooks.Values() {
		cancel()
	}
	f.bridgeHooks.Reset()

	f.events.Close()
	f.bridges.Reset()
	return err
}

// Proxies returns the live proxies
func (f *Factory) Proxies() []*ClientProxy {
	return f.proxies.Values()
}

// Bridge returns the type bridge of the domain, creating it on first use.
// The bridge is dropped when the domain unloads.
func (f *Factory) Bridge(d domain.Domain) (*TypeBridge, error) {
	bridge, loaded := f.bridges.LoadOrCompute(d, func() *TypeBridge { return NewTypeBridge(d) })
	if loaded {
		return bridge, nil
	}

	cancel, err := d.OnUnload(func() {
		f.bridges.Delete(d)
		f.bridgeHooks.Delete(d)
	})
	if err != nil {
		f.bridges.Delete(d)
		return nil, gerrors.NewErrDomainUnloaded(d.ID())
	}
	f.bridgeHooks.Set(d, cancel)
	return bridge, nil
}

// Subscribe returns a subscriber receiving the lifecycle events published
// on the given topics, all of them when none is given. Events queue until
// the subscriber drains them with Iterator; past eventstream.MailboxCapacity
// pending events the oldest are dropped and counted by Dropped.
func (f *Factory) Subscribe(topics ...string) eventstream.Subscriber {
	if len(topics) == 0 {
		topics = []string{TopicBound, TopicUnloaded, TopicCallFailed}
	}

	return f.events.AddSubscriber(topics...)
}

// Unsubscribe removes the subscriber from every topic and shuts it down
func (f *Factory) Unsubscribe(subscriber eventstream.Subscriber) {
	f.events.RemoveSubscriber(subscriber)
}

// unload moves the proxy to its terminal state and releases its stub.
// It returns false when the proxy was already unloaded.
func (f *Factory) unload(proxy *ClientProxy, reason string) bool {
	stub, ok := proxy.unload()
	if !ok {
		return false
	}

	if stub != nil {
		stub.release()
	}
	proxy.detach()

	f.proxies.Delete(proxy.Handle())
	if f.metrics != nil {
		f.metrics.RecordUnload(context.Background(), proxy.Interface().String())
	}

	f.events.Publish(TopicUnloaded, &UnloadedEvent{
		Handle:    proxy.Handle(),
		Interface: proxy.Interface().String(),
		Reason:    reason,
	})

	f.logger.Infof("proxy handle=(%s) unloaded: %s", proxy.Handle(), reason)
	return true
}

// observeCall records the outcome of a proxy call
func (f *Factory) observeCall(proxy *ClientProxy, method string, start time.Time, err error) {
	var kind string
	if err != nil {
		kind = gerrors.KindOf(err).String()
		f.events.Publish(TopicCallFailed, &CallFailedEvent{
			Handle:  proxy.Handle(),
			Method:  method,
			Kind:    gerrors.KindOf(err),
			Message: err.Error(),
		})

		if f.logger.Enabled(log.DebugLevel) {
			f.logger.Debugf("proxy handle=(%s) call=(%s) failed: %v", proxy.Handle(), method, err)
		}
	}

	if f.metrics != nil {
		f.metrics.RecordCall(context.Background(), method, kind, time.Since(start))
	}
}

// reference names a type of module, closed over args when its declaration is generic
func reference(module *domain.Module, name string, args []typeid.TypeIdentity) typeid.TypeIdentity {
	if def, ok := module.Type(name); ok && def.Generic != nil {
		return module.Ref(name, args...)
	}
	return module.Ref(name)
}

func uniqueDomains(domains ...domain.Domain) []domain.Domain {
	out := make([]domain.Domain, 0, len(domains))
	for _, d := range domains {
		seen := false
		for _, existing := range out {
			if existing == d {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, d)
		}
	}
	return out
}

var (
	defaultFactory     *Factory
	defaultFactoryOnce sync.Once
)

// Bind binds spec with a process wide factory using the default options
func Bind(spec BindSpec) (*ClientProxy, error) {
	defaultFactoryOnce.Do(func() {
		// the default options cannot fail
		defaultFactory, _ = NewFactory()
	})
	return defaultFactory.Bind(spec)
}
