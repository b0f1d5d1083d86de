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

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/alcproxy/codec"
	"github.com/tochemey/alcproxy/domain"
	gerrors "github.com/tochemey/alcproxy/errors"
)

const constructorName = "constructor"

var errorType = reflect.TypeFor[error]()

// Method is a callable resolved on a local type
type Method struct {
	name    string
	fn      reflect.Value
	bound   bool
	generic bool
	params  []reflect.Type
	results []reflect.Type
}

func newMethod(name string, fn reflect.Value, bound, generic bool) *Method {
	fnType := fn.Type()
	skip := 0
	if bound {
		skip = 1
	}

	params := make([]reflect.Type, 0, fnType.NumIn()-skip)
	for i := skip; i < fnType.NumIn(); i++ {
		params = append(params, fnType.In(i))
	}
	results := make([]reflect.Type, fnType.NumOut())
	for i := range results {
		results[i] = fnType.Out(i)
	}

	return &Method{
		name:    name,
		fn:      fn,
		bound:   bound,
		generic: generic,
		params:  params,
		results: results,
	}
}

// Name returns the method name
func (m *Method) Name() string {
	return m.name
}

// Params returns the parameter types, receiver excluded
func (m *Method) Params() []reflect.Type {
	return m.params
}

// IsGeneric returns true for methods instantiated from a generic declaration
func (m *Method) IsGeneric() bool {
	return m.generic
}

// ReturnsError returns true when the last result is an error
func (m *Method) ReturnsError() bool {
	return len(m.results) > 0 && m.results[len(m.results)-1] == errorType
}

// Returns returns the declared type of the returned value, nil for void methods
func (m *Method) Returns() reflect.Type {
	results := m.results
	if m.ReturnsError() {
		results = results[:len(results)-1]
	}
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

// Call invokes the method. A non nil trailing error and any panic are
// reported as invocation failures; the trailing error is stripped from the results.
func (m *Method) Call(receiver reflect.Value, args []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = gerrors.NewErrInvocationFailure(m.name, toPanicError(r))
		}
	}()

	in := args
	if m.bound {
		in = make([]reflect.Value, 0, len(args)+1)
		in = append(in, receiver)
		in = append(in, args...)
	}

	// the variadic tail travels as a single slice argument
	if m.fn.Type().IsVariadic() {
		out = m.fn.CallSlice(in)
	} else {
		out = m.fn.Call(in)
	}
	if m.ReturnsError() {
		last := out[len(out)-1]
		if !last.IsNil() {
			return nil, gerrors.NewErrInvocationFailure(m.name, last.Interface().(error))
		}
		out = out[:len(out)-1]
	}
	return out, nil
}

// MethodResolver finds methods and constructors whose parameters structurally
// accept the types described by a caller.
type MethodResolver struct {
	bridge *TypeBridge
	codec  codec.Codec
}

// NewMethodResolver creates a MethodResolver resolving through bridge.
// The codec projects values onto parameter types they only derive from by declaration.
func NewMethodResolver(bridge *TypeBridge, c codec.Codec) *MethodResolver {
	return &MethodResolver{bridge: bridge, codec: c}
}

// FindMethod returns the first method of instance named name whose parameters
// accept params and, when given, argTypes. Reflected methods are considered
// before the explicit method table of the instance type; generic entries of the
// table are instantiated with genericArgs first.
func (r *MethodResolver) FindMethod(instance reflect.Value, name string, params, argTypes, genericArgs []reflect.Type) (*Method, error) {
	if !instance.IsValid() {
		return nil, gerrors.NewErrMethodNotFound("<nil>", name)
	}

	instanceType := instance.Type()
	for _, candidate := range r.candidates(instanceType, name, genericArgs) {
		if len(candidate.params) != len(params) {
			continue
		}
		if r.accepts(candidate.params, params, argTypes) {
			return candidate, nil
		}
	}
	return nil, gerrors.NewErrMethodNotFound(instanceType.String(), name)
}

// FindConstructor returns the first constructor of def producing target whose
// parameters accept argTypes. It fails with ErrArgumentCountMismatch when no
// constructor takes that many arguments.
func (r *MethodResolver) FindConstructor(def *domain.TypeDef, target reflect.Type, argTypes []reflect.Type) (*Method, error) {
	var arities []int
	for _, ctor := range def.Constructors {
		fn := reflect.ValueOf(ctor)
		fnType := fn.Type()
		if fnType.IsVariadic() || !producesType(fnType, target) {
			continue
		}

		arities = append(arities, fnType.NumIn())
		if fnType.NumIn() != len(argTypes) {
			continue
		}

		candidate := newMethod(constructorName, fn, false, false)
		if r.accepts(candidate.params, argTypes, nil) {
			return candidate, nil
		}
	}

	if len(arities) == 0 {
		return nil, gerrors.NewErrMethodNotFound(target.String(), constructorName)
	}
	for _, arity := range arities {
		if arity == len(argTypes) {
			return nil, gerrors.NewErrMethodNotFound(target.String(), constructorName)
		}
	}
	return nil, gerrors.NewErrArgumentCountMismatch(arities[0], len(argTypes))
}

// candidates lists the methods named name in enumeration order
func (r *MethodResolver) candidates(t reflect.Type, name string, genericArgs []reflect.Type) []*Method {
	var out []*Method
	if len(genericArgs) == 0 {
		if method, ok := t.MethodByName(name); ok {
			out = append(out, newMethod(name, method.Func, true, false))
		}
	}

	def, ok := r.bridge.Definition(t)
	if !ok {
		return out
	}

	for _, entry := range def.Methods {
		if entry.Name != name || entry.TypeParams != len(genericArgs) {
			continue
		}

		impl := entry.Func
		if entry.IsGeneric() {
			instantiated, err := entry.Instantiate(genericArgs)
			if err != nil || instantiated == nil {
				continue
			}
			impl = instantiated
		}

		fn := reflect.ValueOf(impl)
		if fn.Kind() != reflect.Func || fn.Type().NumIn() == 0 || !t.AssignableTo(fn.Type().In(0)) {
			continue
		}
		out = append(out, newMethod(name, fn, true, entry.IsGeneric()))
	}
	return out
}

func (r *MethodResolver) accepts(candidate, params, argTypes []reflect.Type) bool {
	for i, param := range candidate {
		if !r.Compatible(params[i], param) {
			return false
		}
		if argTypes != nil && argTypes[i] != nil && !r.Compatible(argTypes[i], param) {
			return false
		}
	}
	return true
}

// Compatible reports whether a value of type from can be passed where to is
// expected: identical types, types of the same identity, assignable types, or
// a declared supertype chain of from reaching to. Interface parameters only
// accept types implementing them.
func (r *MethodResolver) Compatible(from, to reflect.Type) bool {
	if from == to {
		return true
	}
	if to.Kind() != reflect.Interface && r.sameIdentity(from, to) {
		return true
	}
	if from.AssignableTo(to) {
		return true
	}
	if to.Kind() == reflect.Interface {
		return false
	}
	return r.derives(from, to, mapset.NewThreadUnsafeSet[reflect.Type]())
}

// derives walks the declared supertypes of from. visited stops cyclic declarations.
func (r *MethodResolver) derives(from, to reflect.Type, visited mapset.Set[reflect.Type]) bool {
	if !visited.Add(from) {
		return false
	}

	supertypes, err := r.bridge.Supertypes(from)
	if err != nil {
		return false
	}

	for _, supertype := range supertypes {
		if supertype == to || r.sameIdentity(supertype, to) {
			return true
		}
	}
	for _, supertype := range supertypes {
		if r.derives(supertype, to, visited) {
			return true
		}
	}
	return false
}

func (r *MethodResolver) sameIdentity(a, b reflect.Type) bool {
	ida, err := r.bridge.Identify(a)
	if err != nil {
		return false
	}
	idb, err := r.bridge.Identify(b)
	if err != nil {
		return false
	}
	return ida.Equal(idb)
}

// Coerce turns value, of type from, into a value passable as to. Values
// that are not assignable are projected through the codec.
func (r *MethodResolver) Coerce(value reflect.Value, from, to reflect.Type) (reflect.Value, error) {
	if !value.IsValid() {
		return reflect.Zero(to), nil
	}
	if value.Type().AssignableTo(to) {
		return value, nil
	}

	bytea, err := r.codec.Serialize(value.Interface(), from)
	if err != nil {
		return reflect.Value{}, err
	}
	projected, err := r.codec.Deserialize(bytea, to)
	if err != nil {
		return reflect.Value{}, err
	}
	if projected == nil {
		return reflect.Zero(to), nil
	}
	return reflect.ValueOf(projected), nil
}

// producesType reports whether fnType returns a target, optionally followed by an error
func producesType(fnType reflect.Type, target reflect.Type) bool {
	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errorType {
			return false
		}
	default:
		return false
	}
	return fnType.Out(0).AssignableTo(target)
}

func toPanicError(r any) error {
	if err, ok := r.(error); ok {
		return gerrors.NewPanicError(err)
	}
	return gerrors.NewPanicError(fmt.Errorf("%v", r))
}
