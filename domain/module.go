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

package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/multierr"

	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/typeid"
)

// GenericDef describes an open generic type declared by a module.
//
// Close builds the closed type for the given resolved type arguments and Open
// does the reverse, returning the type arguments of a closed type produced by
// Close. Open is only needed on the caller side, to identify values of closed
// generic types.
type GenericDef struct {
	Arity int
	Close func(args []reflect.Type) (reflect.Type, error)
	Open  func(t reflect.Type) ([]reflect.Type, bool)
}

// Method is an entry of an explicit method table.
//
// A plain method sets Func to a function whose first parameter is the receiver.
// A generic method sets TypeParams and Instantiate; Instantiate receives the
// type arguments already resolved in the domain and returns such a function.
type Method struct {
	Name        string
	Func        any
	TypeParams  int
	Instantiate func(typeArgs []reflect.Type) (any, error)
}

// IsGeneric returns true for generic method entries
func (m Method) IsGeneric() bool {
	return m.TypeParams > 0
}

// TypeDef declares a named type of a module.
type TypeDef struct {
	// Name is the full name of the type within the module
	Name string
	// Type is the Go type values of this type take. Nil for generic definitions.
	Type reflect.Type
	// Supertypes lists the declared base types and interfaces of the type
	Supertypes []typeid.TypeIdentity
	// Constructors are functions returning an instance, optionally followed by an error
	Constructors []any
	// Methods is the explicit method table, consulted after the reflected methods
	Methods []Method
	// Generic is set for open generic type definitions
	Generic *GenericDef
}

func (d TypeDef) validate() error {
	var err error
	if strings.TrimSpace(d.Name) == "" {
		err = multierr.Append(err, errors.New("type name is required"))
	}
	if d.Type == nil && d.Generic == nil {
		err = multierr.Append(err, fmt.Errorf("type (%s) needs a Go type or a generic definition", d.Name))
	}
	if d.Type != nil && d.Generic != nil {
		err = multierr.Append(err, fmt.Errorf("type (%s) cannot be both closed and generic", d.Name))
	}
	if d.Generic != nil && (d.Generic.Arity <= 0 || d.Generic.Close == nil) {
		err = multierr.Append(err, fmt.Errorf("generic type (%s) needs a positive arity and a Close function", d.Name))
	}
	for _, ctor := range d.Constructors {
		if ctor == nil || reflect.TypeOf(ctor).Kind() != reflect.Func {
			err = multierr.Append(err, fmt.Errorf("constructor of (%s) must be a function", d.Name))
		}
	}
	for _, method := range d.Methods {
		switch {
		case method.Name == "":
			err = multierr.Append(err, fmt.Errorf("method of (%s) has no name", d.Name))
		case method.IsGeneric() && method.Instantiate == nil:
			err = multierr.Append(err, fmt.Errorf("generic method (%s.%s) has no Instantiate function", d.Name, method.Name))
		case !method.IsGeneric() && (method.Func == nil || reflect.TypeOf(method.Func).Kind() != reflect.Func || reflect.TypeOf(method.Func).NumIn() == 0):
			err = multierr.Append(err, fmt.Errorf("method (%s.%s) must be a function taking the receiver first", d.Name, method.Name))
		}
	}
	return err
}

// Module is the unit a domain loads: an independent copy of a set of named
// types. Two domains loading the same module path get two distinct Modules
// whose Go types are unrelated.
type Module struct {
	identity string
	path     string
	defs     []*TypeDef
	byName   map[string]*TypeDef
	byType   map[reflect.Type]*TypeDef
}

// NewModule creates a Module. Type names must be unique and closed Go types
// may only be declared once.
func NewModule(identity, path string, defs ...TypeDef) (*Module, error) {
	var violations error
	if strings.TrimSpace(identity) == "" {
		violations = multierr.Append(violations, errors.New("module identity is required"))
	}
	if identity == typeid.RuntimeModule {
		violations = multierr.Append(violations, fmt.Errorf("module identity (%s) is reserved", identity))
	}

	module := &Module{
		identity: identity,
		path:     path,
		defs:     make([]*TypeDef, 0, len(defs)),
		byName:   make(map[string]*TypeDef, len(defs)),
		byType:   make(map[reflect.Type]*TypeDef, len(defs)),
	}

	for i := range defs {
		def := defs[i]
		if err := def.validate(); err != nil {
			violations = multierr.Append(violations, err)
			continue
		}
		if _, ok := module.byName[def.Name]; ok {
			violations = multierr.Append(violations, fmt.Errorf("type (%s) is declared twice", def.Name))
			continue
		}
		if def.Type != nil {
			if _, ok := module.byType[def.Type]; ok {
				violations = multierr.Append(violations, fmt.Errorf("go type (%s) is declared twice", def.Type))
				continue
			}
			module.byType[def.Type] = &def
		}
		module.byName[def.Name] = &def
		module.defs = append(module.defs, &def)
	}

	if violations != nil {
		return nil, gerrors.NewErrInvalidModule(identity, violations)
	}
	return module, nil
}

// Identity returns the module identity
func (m *Module) Identity() string {
	return m.identity
}

// Path returns the path the module is loaded from
func (m *Module) Path() string {
	return m.path
}

// Type returns the definition declared under the given full name
func (m *Module) Type(name string) (*TypeDef, bool) {
	def, ok := m.byName[name]
	return def, ok
}

// Lookup returns the definition of a closed Go type declared by the module
func (m *Module) Lookup(t reflect.Type) (*TypeDef, bool) {
	def, ok := m.byType[t]
	return def, ok
}

// Types returns the definitions in declaration order
func (m *Module) Types() []*TypeDef {
	out := make([]*TypeDef, len(m.defs))
	copy(out, m.defs)
	return out
}

// Generics returns the open generic definitions in declaration order
func (m *Module) Generics() []*TypeDef {
	var out []*TypeDef
	for _, def := range m.defs {
		if def.Generic != nil {
			out = append(out, def)
		}
	}
	return out
}

// Ref returns the identity of a type declared by the module
func (m *Module) Ref(name string, args ...typeid.TypeIdentity) typeid.TypeIdentity {
	return typeid.New(m.identity, m.path, name, args...)
}

// String returns the module identity and path
func (m *Module) String() string {
	return fmt.Sprintf("%s (%s)", m.identity, m.path)
}
