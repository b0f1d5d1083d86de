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
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/alcproxy/codec"
	"github.com/tochemey/alcproxy/domain"
	"github.com/tochemey/alcproxy/envelope"
	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/typeid"
)

// ClientProxy stands in, inside the caller domain, for an instance living in
// another domain. Every call is forwarded to the server stub the proxy was
// bound to and blocks until the result comes back.
//
// Once the bound domain unloads the proxy is permanently unusable and every
// call fails with errors.ErrProxyUnloaded.
type ClientProxy struct {
	handle   string
	iface    reflect.Type
	ifaceDef *domain.TypeDef
	bridge   *TypeBridge
	resolver *MethodResolver
	codec    codec.Codec
	factory  *Factory

	stub  *atomic.Pointer[ServerStub]
	state *atomic.Int32

	// hooks cancel the unload registrations made for the proxy
	hooksMu  sync.Mutex
	hooks    []func()
	detached bool
}

func newClientProxy(factory *Factory, stub *ServerStub, iface reflect.Type, ifaceDef *domain.TypeDef, bridge *TypeBridge) *ClientProxy {
	return &ClientProxy{
		handle:   stub.Handle(),
		iface:    iface,
		ifaceDef: ifaceDef,
		bridge:   bridge,
		resolver: NewMethodResolver(bridge, factory.codec),
		codec:    factory.codec,
		factory:  factory,
		stub:     atomic.NewPointer(stub),
		state:    atomic.NewInt32(int32(StateBound)),
	}
}

// Handle returns the handle of the server stub the proxy forwards to
func (p *ClientProxy) Handle() string {
	return p.handle
}

// Interface returns the proxied interface, local to the caller domain
func (p *ClientProxy) Interface() reflect.Type {
	return p.iface
}

// State returns the lifecycle state
func (p *ClientProxy) State() State {
	return State(p.state.Load())
}

// IsUnloaded returns true once the proxy has reached its terminal state
func (p *ClientProxy) IsUnloaded() bool {
	return p.State() == StateUnloaded
}

// String returns a description of the proxy
func (p *ClientProxy) String() string {
	return fmt.Sprintf("proxy(%s, %s, %s)", p.iface, p.handle, p.State())
}

// Call invokes the named interface method with args and returns its result,
// nil for methods without one. The variadic parameter of a variadic method is
// given as one slice argument.
func (p *ClientProxy) Call(method string, args ...any) (any, error) {
	return p.call(method, nil, args)
}

// CallGeneric invokes a generic method declared by the interface, closed over
// typeArgs. The type arguments are local to the caller domain; the server
// closes the method over its own resolution of them.
func (p *ClientProxy) CallGeneric(method string, typeArgs []reflect.Type, args ...any) (any, error) {
	return p.call(method, typeArgs, args)
}

// Invoke calls method through p and returns its result as an R
func Invoke[R any](p *ClientProxy, method string, args ...any) (R, error) {
	return InvokeGeneric[R](p, method, nil, args...)
}

// InvokeGeneric calls the generic method through p and returns its result as an R
func InvokeGeneric[R any](p *ClientProxy, method string, typeArgs []reflect.Type, args ...any) (R, error) {
	var zero R
	result, err := p.CallGeneric(method, typeArgs, args...)
	if err != nil || result == nil {
		return zero, err
	}

	typed, ok := result.(R)
	if !ok {
		return zero, gerrors.NewErrSerializationContractViolation(reflect.TypeFor[R]().String(), reflect.TypeOf(result).String())
	}
	return typed, nil
}

// Populate fills the exported func fields of the struct target points to with
// functions forwarding to the interface method of the same name. The `alc`
// field tag overrides the method name, `alc:"-"` skips the field. Every func
// field must return an error last.
func (p *ClientProxy) Populate(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("populate target must be a non nil pointer to a struct, got %T", target)
	}

	st := rv.Elem()
	for i := 0; i < st.NumField(); i++ {
		field := st.Type().Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.Func {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("alc"); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}

		fnType := field.Type
		numOut := fnType.NumOut()
		if numOut == 0 || numOut > 2 || fnType.Out(numOut-1) != errorType {
			return fmt.Errorf("field (%s) must be a func returning an error last", field.Name)
		}

		sig, err := p.signature(name, nil)
		if err != nil {
			return err
		}
		if len(sig.params) != fnType.NumIn() {
			return gerrors.NewErrArgumentCountMismatch(len(sig.params), fnType.NumIn())
		}
		if sig.variadic != fnType.IsVariadic() {
			return fmt.Errorf("field (%s) and method (%s) must agree on being variadic", field.Name, name)
		}

		st.Field(i).Set(reflect.MakeFunc(fnType, p.forwarder(name, fnType)))
	}
	return nil
}

func (p *ClientProxy) forwarder(name string, fnType reflect.Type) func([]reflect.Value) []reflect.Value {
	return func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, value := range in {
			args[i] = value.Interface()
		}

		result, err := p.Call(name, args...)
		out := make([]reflect.Value, fnType.NumOut())
		if len(out) == 2 {
			holder := reflect.New(fnType.Out(0)).Elem()
			if err == nil && result != nil {
				value := reflect.ValueOf(result)
				switch {
				case value.Type().AssignableTo(holder.Type()):
					holder.Set(value)
				case value.Type().ConvertibleTo(holder.Type()):
					holder.Set(value.Convert(holder.Type()))
				default:
					err = gerrors.NewErrSerializationContractViolation(holder.Type().String(), value.Type().String())
				}
			}
			out[0] = holder
		}

		errValue := reflect.New(errorType).Elem()
		if err != nil {
			errValue.Set(reflect.ValueOf(err))
		}
		out[len(out)-1] = errValue
		return out
	}
}

// signature is the caller side view of a method
type signature struct {
	params   []reflect.Type
	returns  reflect.Type
	variadic bool
}

func newSignature(fnType reflect.Type, skip int) *signature {
	params := make([]reflect.Type, 0, fnType.NumIn()-skip)
	for i := skip; i < fnType.NumIn(); i++ {
		params = append(params, fnType.In(i))
	}

	numOut := fnType.NumOut()
	if numOut > 0 && fnType.Out(numOut-1) == errorType {
		numOut--
	}

	sig := &signature{params: params, variadic: fnType.IsVariadic()}
	if numOut > 0 {
		sig.returns = fnType.Out(0)
	}
	return sig
}

// signature looks the method up on the interface, then on the explicit
// method table of its declaration
func (p *ClientProxy) signature(name string, typeArgs []reflect.Type) (*signature, error) {
	if len(typeArgs) == 0 {
		if method, ok := p.iface.MethodByName(name); ok {
			return newSignature(method.Type, 0), nil
		}
	}

	if p.ifaceDef != nil {
		for _, entry := range p.ifaceDef.Methods {
			if entry.Name != name || entry.TypeParams != len(typeArgs) {
				continue
			}

			impl := entry.Func
			if entry.IsGeneric() {
				instantiated, err := entry.Instantiate(typeArgs)
				if err != nil {
					return nil, gerrors.NewErrMethodNotFound(p.iface.String(), fmt.Sprintf("%s: %v", name, err))
				}
				impl = instantiated
			}

			fnType := reflect.TypeOf(impl)
			if fnType == nil || fnType.Kind() != reflect.Func || fnType.NumIn() == 0 {
				continue
			}
			return newSignature(fnType, 1), nil
		}
	}
	return nil, gerrors.NewErrMethodNotFound(p.iface.String(), name)
}

func (p *ClientProxy) call(name string, typeArgs []reflect.Type, args []any) (result any, err error) {
	start := time.Now()
	defer func() {
		p.factory.observeCall(p, name, start, err)
	}()

	if p.state.Load() != int32(StateBound) {
		return nil, gerrors.NewErrProxyUnloaded(p.handle)
	}

	sig, err := p.signature(name, typeArgs)
	if err != nil {
		return nil, err
	}

	if len(args) != len(sig.params) {
		return nil, gerrors.NewErrArgumentCountMismatch(len(sig.params), len(args))
	}

	env, err := p.envelope(name, sig, typeArgs, args)
	if err != nil {
		return nil, err
	}

	stub := p.stub.Load()
	if stub == nil {
		return nil, gerrors.NewErrProxyUnloaded(p.handle)
	}

	res, err := p.forward(stub, env)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return p.decode(res, sig.returns)
}

// envelope describes the call with caller local identities
func (p *ClientProxy) envelope(name string, sig *signature, typeArgs []reflect.Type, args []any) (*envelope.CallEnvelope, error) {
	descriptor := typeid.MethodDescriptor{
		Name:        name,
		Params:      make([]typeid.TypeIdentity, len(sig.params)),
		GenericArgs: make([]typeid.TypeIdentity, len(typeArgs)),
	}

	for i, param := range sig.params {
		id, err := p.bridge.Identify(param)
		if err != nil {
			return nil, err
		}
		descriptor.Params[i] = id
	}

	for i, typeArg := range typeArgs {
		id, err := p.bridge.Identify(typeArg)
		if err != nil {
			return nil, err
		}
		descriptor.GenericArgs[i] = id
	}

	arguments := make([]envelope.Argument, len(args))
	for i, arg := range args {
		id, argType, err := p.bridge.IdentifyValue(arg, sig.params[i])
		if err != nil {
			return nil, err
		}
		bytea, err := p.codec.Serialize(arg, argType)
		if err != nil {
			return nil, err
		}
		arguments[i] = envelope.Argument{Type: id, Bytes: bytea}
	}

	return &envelope.CallEnvelope{
		Target: p.handle,
		Method: descriptor,
		Args:   arguments,
	}, nil
}

// forward hands the envelope to the stub, through the wire encoding when enabled
func (p *ClientProxy) forward(stub *ServerStub, env *envelope.CallEnvelope) (*envelope.ResultEnvelope, error) {
	if !p.factory.wire {
		return stub.Invoke(env), nil
	}

	bytea, err := envelope.MarshalCall(env)
	if err != nil {
		return nil, err
	}
	decoded, err := envelope.UnmarshalCall(bytea)
	if err != nil {
		return nil, err
	}

	bytea, err = envelope.MarshalResult(stub.Invoke(decoded))
	if err != nil {
		return nil, err
	}
	return envelope.UnmarshalResult(bytea)
}

// decode checks the result identity against the declared return type and
// deserializes the payload in the caller domain
func (p *ClientProxy) decode(res *envelope.ResultEnvelope, declared reflect.Type) (any, error) {
	if declared == nil {
		if !res.IsVoid() {
			return nil, gerrors.NewErrSerializationContractViolation(typeid.NameVoid, res.Type.String())
		}
		return nil, nil
	}

	expected := declared.String()
	if id, err := p.bridge.Identify(declared); err == nil {
		expected = id.String()
	}

	if res.IsVoid() {
		return nil, gerrors.NewErrSerializationContractViolation(expected, typeid.NameVoid)
	}

	actual, err := p.bridge.Resolve(res.Type)
	if err != nil {
		return nil, gerrors.NewErrSerializationContractViolation(expected, res.Type.String())
	}
	if !p.resolver.Compatible(actual, declared) {
		return nil, gerrors.NewErrSerializationContractViolation(expected, res.Type.String())
	}

	target := actual
	if !actual.AssignableTo(declared) {
		target = declared
	}
	return p.codec.Deserialize(res.Bytes, target)
}

// unload moves the proxy to its terminal state. It returns false when the
// proxy was already unloaded.
func (p *ClientProxy) unload() (*ServerStub, bool) {
	if !p.state.CompareAndSwap(int32(StateBound), int32(StateUnloaded)) {
		return nil, false
	}
	return p.stub.Swap(nil), true
}

// onDetach keeps cancel to run when the proxy unloads, running it at once
// when the proxy already has
func (p *ClientProxy) onDetach(cancel func()) {
	p.hooksMu.Lock()
	if p.detached {
		p.hooksMu.Unlock()
		cancel()
		return
	}
	p.hooks = append(p.hooks, cancel)
	p.hooksMu.Unlock()
}

// detach runs the kept cancel funcs once
func (p *ClientProxy) detach() {
	p.hooksMu.Lock()
	hooks := p.hooks
	p.hooks = nil
	p.detached = true
	p.hooksMu.Unlock()

	for _, cancel := range hooks {
		cancel()
	}
}
