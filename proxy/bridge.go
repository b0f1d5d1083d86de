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
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/sync/singleflight"

	"github.com/tochemey/alcproxy/domain"
	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/internal/xsync"
	"github.com/tochemey/alcproxy/typeid"
)

// TypeBridge resolves type identities into the types loaded in one domain,
// and identifies local types so they can be resolved elsewhere.
//
// Resolutions are cached for the lifetime of the domain. Concurrent first
// resolutions of the same identity are collapsed into one.
type TypeBridge struct {
	domain     domain.Domain
	types      *xsync.Map[string, reflect.Type]
	identities *xsync.Map[reflect.Type, typeid.TypeIdentity]
	group      singleflight.Group
}

// NewTypeBridge creates a TypeBridge for the given domain
func NewTypeBridge(d domain.Domain) *TypeBridge {
	return &TypeBridge{
		domain:     d,
		types:      xsync.NewMap[string, reflect.Type](),
		identities: xsync.NewMap[reflect.Type, typeid.TypeIdentity](),
	}
}

// Domain returns the domain the bridge resolves into
func (b *TypeBridge) Domain() domain.Domain {
	return b.domain
}

// Len returns the number of cached resolutions
func (b *TypeBridge) Len() int {
	return b.types.Len()
}

// Resolve returns the local type the identity denotes
func (b *TypeBridge) Resolve(id typeid.TypeIdentity) (reflect.Type, error) {
	key := id.Key()
	if t, ok := b.types.Get(key); ok {
		return t, nil
	}

	if b.domain.IsUnloaded() {
		return nil, gerrors.NewErrTypeNotFound(key, gerrors.NewErrDomainUnloaded(b.domain.ID()))
	}

	resolved, err, _ := b.group.Do(key, func() (any, error) {
		t, err := b.resolve(id)
		if err != nil {
			return nil, err
		}
		actual, _ := b.types.LoadOrStore(key, t)
		if !id.IsRuntime() {
			b.identities.LoadOrStore(actual, id)
		}
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return resolved.(reflect.Type), nil
}

// ResolveAll resolves the identities in order
func (b *TypeBridge) ResolveAll(ids []typeid.TypeIdentity) ([]reflect.Type, error) {
	out := make([]reflect.Type, len(ids))
	for i, id := range ids {
		t, err := b.Resolve(id)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (b *TypeBridge) resolve(id typeid.TypeIdentity) (reflect.Type, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	if id.IsRuntime() {
		return b.resolveRuntime(id)
	}

	module, err := b.module(id)
	if err != nil {
		return nil, err
	}

	def, ok := module.Type(id.Name)
	if !ok {
		return nil, gerrors.NewErrTypeNotFound(id.String(), fmt.Errorf("module (%s) does not declare it", module.Identity()))
	}

	if def.Generic == nil {
		if id.IsGeneric() {
			return nil, gerrors.NewErrTypeNotFound(id.String(), errors.New("type is not generic"))
		}
		return def.Type, nil
	}

	if len(id.Args) != def.Generic.Arity {
		return nil, gerrors.NewErrTypeNotFound(id.String(),
			fmt.Errorf("expected %d type arguments, got %d", def.Generic.Arity, len(id.Args)))
	}

	args, err := b.ResolveAll(id.Args)
	if err != nil {
		return nil, err
	}

	closed, err := def.Generic.Close(args)
	if err != nil {
		return nil, gerrors.NewErrTypeNotFound(id.String(), err)
	}
	return closed, nil
}

func (b *TypeBridge) resolveRuntime(id typeid.TypeIdentity) (reflect.Type, error) {
	if t, ok := typeid.Builtin(id.Name); ok && !id.IsGeneric() {
		return t, nil
	}

	if n, ok := id.ArrayLen(); ok && len(id.Args) == 1 {
		elem, err := b.Resolve(id.Args[0])
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(n, elem), nil
	}

	switch {
	case id.Name == typeid.NameSlice && len(id.Args) == 1:
		elem, err := b.Resolve(id.Args[0])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case id.Name == typeid.NamePointer && len(id.Args) == 1:
		elem, err := b.Resolve(id.Args[0])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil
	case id.Name == typeid.NameMap && len(id.Args) == 2:
		key, err := b.Resolve(id.Args[0])
		if err != nil {
			return nil, err
		}
		if !key.Comparable() {
			return nil, gerrors.NewErrTypeNotFound(id.String(), fmt.Errorf("map key (%s) is not comparable", key))
		}
		elem, err := b.Resolve(id.Args[1])
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(key, elem), nil
	}

	return nil, gerrors.NewErrTypeNotFound(id.String(), errors.New("unknown runtime type"))
}

// module finds the module owning id, loading it from its path when needed
func (b *TypeBridge) module(id typeid.TypeIdentity) (*domain.Module, error) {
	if module, ok := b.domain.Module(id.Module); ok {
		return module, nil
	}

	if id.Path == "" {
		return nil, gerrors.NewErrTypeNotFound(id.String(), fmt.Errorf("module (%s) is not loaded and has no path", id.Module))
	}

	module, err := b.domain.Load(id.Path)
	if err != nil {
		return nil, gerrors.NewErrTypeNotFound(id.String(), err)
	}
	if module.Identity() != id.Module {
		return nil, gerrors.NewErrTypeNotFound(id.String(),
			fmt.Errorf("path (%s) holds module (%s)", id.Path, module.Identity()))
	}
	return module, nil
}

// Identify returns the identity of a local type
func (b *TypeBridge) Identify(t reflect.Type) (typeid.TypeIdentity, error) {
	if t == nil {
		return typeid.TypeIdentity{}, gerrors.NewErrTypeNotFound("<nil>", nil)
	}

	if id, ok := b.identities.Get(t); ok {
		return id, nil
	}

	if id, ok := b.identifyModuleType(t); ok {
		b.identities.LoadOrStore(t, id)
		b.types.LoadOrStore(id.Key(), t)
		return id, nil
	}

	if name, ok := typeid.BuiltinName(t); ok {
		return typeid.Runtime(name), nil
	}

	switch t.Kind() {
	case reflect.Slice:
		elem, err := b.Identify(t.Elem())
		if err != nil {
			return typeid.TypeIdentity{}, err
		}
		return typeid.Runtime(typeid.NameSlice, elem), nil
	case reflect.Array:
		elem, err := b.Identify(t.Elem())
		if err != nil {
			return typeid.TypeIdentity{}, err
		}
		return typeid.Array(t.Len(), elem), nil
	case reflect.Pointer:
		elem, err := b.Identify(t.Elem())
		if err != nil {
			return typeid.TypeIdentity{}, err
		}
		return typeid.Runtime(typeid.NamePointer, elem), nil
	case reflect.Map:
		key, err := b.Identify(t.Key())
		if err != nil {
			return typeid.TypeIdentity{}, err
		}
		elem, err := b.Identify(t.Elem())
		if err != nil {
			return typeid.TypeIdentity{}, err
		}
		return typeid.Runtime(typeid.NameMap, key, elem), nil
	}

	return typeid.TypeIdentity{}, gerrors.NewErrTypeNotFound(t.String(),
		fmt.Errorf("type is not declared by any module of domain (%s)", b.domain.ID()))
}

// IdentifyValue returns the identity of the dynamic type of value.
// Nil values take the identity of the declared type.
func (b *TypeBridge) IdentifyValue(value any, declared reflect.Type) (typeid.TypeIdentity, reflect.Type, error) {
	t := declared
	if value != nil {
		t = reflect.TypeOf(value)
	}
	id, err := b.Identify(t)
	return id, t, err
}

func (b *TypeBridge) identifyModuleType(t reflect.Type) (typeid.TypeIdentity, bool) {
	for _, module := range b.domain.Modules() {
		if def, ok := module.Lookup(t); ok {
			return module.Ref(def.Name), true
		}
	}

	for _, module := range b.domain.Modules() {
		for _, def := range module.Generics() {
			if def.Generic.Open == nil {
				continue
			}
			args, ok := def.Generic.Open(t)
			if !ok {
				continue
			}
			ids := make([]typeid.TypeIdentity, len(args))
			for i, arg := range args {
				id, err := b.Identify(arg)
				if err != nil {
					return typeid.TypeIdentity{}, false
				}
				ids[i] = id
			}
			return module.Ref(def.Name, ids...), true
		}
	}
	return typeid.TypeIdentity{}, false
}

// Definition returns the module declaration of a local type
func (b *TypeBridge) Definition(t reflect.Type) (*domain.TypeDef, bool) {
	id, err := b.Identify(t)
	if err != nil || id.IsRuntime() {
		return nil, false
	}
	module, ok := b.domain.Module(id.Module)
	if !ok {
		return nil, false
	}
	return module.Type(id.Name)
}

// Supertypes returns the local types t declares as its bases and interfaces.
// Types without a module declaration have none.
func (b *TypeBridge) Supertypes(t reflect.Type) ([]reflect.Type, error) {
	def, ok := b.Definition(t)
	if !ok || len(def.Supertypes) == 0 {
		return nil, nil
	}
	return b.ResolveAll(def.Supertypes)
}
