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
	"reflect"
	"strings"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/alcproxy/codec"
	"github.com/tochemey/alcproxy/domain"
	"github.com/tochemey/alcproxy/envelope"
	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/log"
	"github.com/tochemey/alcproxy/typeid"
)

// ServerStub owns an instance living in its domain and executes the calls
// addressed to it. Calls are executed one at a time.
type ServerStub struct {
	handle   string
	domain   domain.Domain
	iface    reflect.Type
	bridge   *TypeBridge
	resolver *MethodResolver
	codec    codec.Codec
	logger   log.Logger

	// mu guards the instance and the method cache
	mu       sync.Mutex
	instance reflect.Value
	methods  map[string]*Method
	released *atomic.Bool
}

func newServerStub(handle string, instance reflect.Value, iface reflect.Type, bridge *TypeBridge, c codec.Codec, logger log.Logger) *ServerStub {
	return &ServerStub{
		handle:   handle,
		domain:   bridge.Domain(),
		iface:    iface,
		bridge:   bridge,
		resolver: NewMethodResolver(bridge, c),
		codec:    c,
		logger:   logger,
		instance: instance,
		methods:  make(map[string]*Method),
		released: atomic.NewBool(false),
	}
}

// Handle returns the stub handle
func (s *ServerStub) Handle() string {
	return s.handle
}

// Interface returns the interface the instance is exposed as, local to the stub domain
func (s *ServerStub) Interface() reflect.Type {
	return s.iface
}

// Released returns true once the stub has dropped its instance
func (s *ServerStub) Released() bool {
	return s.released.Load()
}

// Invoke executes the call described by env and reports the outcome as a
// result envelope. It never panics and never returns a nil envelope.
func (s *ServerStub) Invoke(env *envelope.CallEnvelope) *envelope.ResultEnvelope {
	if err := env.Validate(); err != nil {
		return envelope.FromError(err)
	}

	if s.released.Load() || s.domain.IsUnloaded() || env.Target != s.handle {
		return envelope.FromError(gerrors.NewErrProxyUnloaded(env.Target))
	}

	params, err := s.bridge.ResolveAll(env.Method.Params)
	if err != nil {
		return s.fail(env, err)
	}
	argTypes, err := s.bridge.ResolveAll(env.ArgTypes())
	if err != nil {
		return s.fail(env, err)
	}
	genericArgs, err := s.bridge.ResolveAll(env.Method.GenericArgs)
	if err != nil {
		return s.fail(env, err)
	}

	args := make([]reflect.Value, len(env.Args))
	for i, arg := range env.Args {
		value, err := s.codec.Deserialize(arg.Bytes, argTypes[i])
		if err != nil {
			return s.fail(env, err)
		}
		args[i] = valueOf(value, argTypes[i])
	}

	s.mu.Lock()
	defer s.unlock()

	if !s.instance.IsValid() {
		return envelope.FromError(gerrors.NewErrProxyUnloaded(s.handle))
	}

	method, err := s.method(env.Method, env.ArgTypes(), params, argTypes, genericArgs)
	if err != nil {
		return s.fail(env, err)
	}

	for i := range args {
		if args[i], err = s.resolver.Coerce(args[i], argTypes[i], method.params[i]); err != nil {
			return s.fail(env, err)
		}
	}

	out, err := method.Call(s.instance, args)
	if err != nil {
		return s.fail(env, err)
	}

	result, err := s.result(method, out)
	if err != nil {
		return s.fail(env, err)
	}
	return result
}

// method returns the cached resolution of the descriptor for arguments of the
// given identities, resolving it on first use
func (s *ServerStub) method(descriptor typeid.MethodDescriptor, argIDs []typeid.TypeIdentity, params, argTypes, genericArgs []reflect.Type) (*Method, error) {
	var sb strings.Builder
	sb.WriteString(descriptor.String())
	for _, id := range argIDs {
		sb.WriteByte('|')
		sb.WriteString(id.Key())
	}
	key := sb.String()

	if method, ok := s.methods[key]; ok {
		return method, nil
	}

	method, err := s.resolver.FindMethod(s.instance, descriptor.Name, params, argTypes, genericArgs)
	if err != nil {
		return nil, err
	}
	s.methods[key] = method
	return method, nil
}

// result serializes the returned value with the identity of its dynamic type
func (s *ServerStub) result(method *Method, out []reflect.Value) (*envelope.ResultEnvelope, error) {
	declared := method.Returns()
	if declared == nil || len(out) == 0 {
		return envelope.Void(), nil
	}

	value := out[0]
	var payload any
	if value.Kind() != reflect.Interface || !value.IsNil() {
		payload = value.Interface()
	}

	identity, actual, err := s.bridge.IdentifyValue(payload, declared)
	if err != nil {
		return nil, err
	}

	bytea, err := s.codec.Serialize(payload, actual)
	if err != nil {
		return nil, err
	}
	return envelope.Success(identity, bytea), nil
}

func (s *ServerStub) fail(env *envelope.CallEnvelope, err error) *envelope.ResultEnvelope {
	// resolution failures caused by a concurrent unload
	if gerrors.KindOf(err) != gerrors.KindInvocationFailure && (s.released.Load() || s.domain.IsUnloaded()) {
		err = gerrors.NewErrProxyUnloaded(s.handle)
	}

	if s.logger.Enabled(log.DebugLevel) {
		s.logger.Debugf("stub=(%s) call=(%s) failed: %v", s.handle, env.Method.String(), err)
	}
	return envelope.FromError(err)
}

// release drops the instance. When a call is in flight the call drops it on
// completion; release itself never waits.
func (s *ServerStub) release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}

	if s.mu.TryLock() {
		s.drop()
		s.mu.Unlock()
	}
}

func (s *ServerStub) unlock() {
	if s.released.Load() {
		s.drop()
	}
	s.mu.Unlock()

	// release may have happened between the check above and the unlock
	if s.released.Load() && s.mu.TryLock() {
		s.drop()
		s.mu.Unlock()
	}
}

func (s *ServerStub) drop() {
	s.instance = reflect.Value{}
	s.methods = nil
}

// valueOf wraps a decoded value, mapping nil to the zero value of t
func valueOf(value any, t reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(value)
}
