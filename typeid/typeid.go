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

package typeid

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	gerrors "github.com/tochemey/alcproxy/errors"
)

// RuntimeModule is the module identity of the shared base runtime.
// Identities owned by it are domain-invariant and resolve without loading anything.
const RuntimeModule = "runtime"

// names of the runtime composite types. Their element types travel as Args.
const (
	NameVoid    = "void"
	NameSlice   = "slice"
	NameMap     = "map"
	NamePointer = "ptr"
	// NameArray prefixes array identities, whose length follows a colon: array:4
	NameArray = "array"
)

// Void is the identity carried by results of methods that return nothing.
var Void = Runtime(NameVoid)

var builtins = map[string]reflect.Type{
	"bool":       reflect.TypeFor[bool](),
	"int":        reflect.TypeFor[int](),
	"int8":       reflect.TypeFor[int8](),
	"int16":      reflect.TypeFor[int16](),
	"int32":      reflect.TypeFor[int32](),
	"int64":      reflect.TypeFor[int64](),
	"uint":       reflect.TypeFor[uint](),
	"uint8":      reflect.TypeFor[uint8](),
	"uint16":     reflect.TypeFor[uint16](),
	"uint32":     reflect.TypeFor[uint32](),
	"uint64":     reflect.TypeFor[uint64](),
	"float32":    reflect.TypeFor[float32](),
	"float64":    reflect.TypeFor[float64](),
	"complex64":  reflect.TypeFor[complex64](),
	"complex128": reflect.TypeFor[complex128](),
	"string":     reflect.TypeFor[string](),
	"bytes":      reflect.TypeFor[[]byte](),
	"any":        reflect.TypeFor[any](),
	"error":      reflect.TypeFor[error](),
}

var builtinNames = func() map[reflect.Type]string {
	out := make(map[reflect.Type]string, len(builtins))
	for name, t := range builtins {
		out[t] = name
	}
	return out
}()

// Builtin returns the runtime type registered under name
func Builtin(name string) (reflect.Type, bool) {
	t, ok := builtins[name]
	return t, ok
}

// BuiltinName returns the runtime name of t when t is one of the predeclared types.
// Named types declared in a module (e.g. type Celsius float64) are never builtins.
func BuiltinName(t reflect.Type) (string, bool) {
	name, ok := builtinNames[t]
	return name, ok
}

// TypeIdentity describes a type relative to the domain that owns it.
//
// It carries enough information to re-resolve the type in another domain: the
// owning module identity, the path the module is loaded from, the full type name
// and, for generic types, the ordered type arguments.
// Two identities are compared structurally, never by pointer.
type TypeIdentity struct {
	Module string         `cbor:"module" json:"module" yaml:"module" msgpack:"module"`
	Path   string         `cbor:"path,omitempty" json:"path,omitempty" yaml:"path,omitempty" msgpack:"path,omitempty"`
	Name   string         `cbor:"name" json:"name" yaml:"name" msgpack:"name"`
	Args   []TypeIdentity `cbor:"args,omitempty" json:"args,omitempty" yaml:"args,omitempty" msgpack:"args,omitempty"`
}

// New creates a module owned identity
func New(module, path, name string, args ...TypeIdentity) TypeIdentity {
	return TypeIdentity{
		Module: module,
		Path:   path,
		Name:   name,
		Args:   args,
	}
}

// Runtime creates an identity owned by the base runtime
func Runtime(name string, args ...TypeIdentity) TypeIdentity {
	return TypeIdentity{
		Module: RuntimeModule,
		Name:   name,
		Args:   args,
	}
}

// Array creates the runtime identity of an array of length n
func Array(n int, elem TypeIdentity) TypeIdentity {
	return Runtime(NameArray+":"+strconv.Itoa(n), elem)
}

// ArrayLen returns the length of an array identity
func (x TypeIdentity) ArrayLen() (int, bool) {
	if !x.IsRuntime() {
		return 0, false
	}
	size, ok := strings.CutPrefix(x.Name, NameArray+":")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(size)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// IsRuntime returns true when the identity is owned by the base runtime
func (x TypeIdentity) IsRuntime() bool {
	return x.Module == RuntimeModule
}

// IsGeneric returns true when the identity carries type arguments
func (x TypeIdentity) IsGeneric() bool {
	return len(x.Args) > 0
}

// IsVoid returns true for the void identity
func (x TypeIdentity) IsVoid() bool {
	return x.IsRuntime() && x.Name == NameVoid
}

// IsZero returns true when nothing has been set
func (x TypeIdentity) IsZero() bool {
	return x.Module == "" && x.Name == "" && len(x.Args) == 0
}

// Equal compares two identities structurally. The module path is a loading
// hint and does not take part in the comparison.
func (x TypeIdentity) Equal(other TypeIdentity) bool {
	if x.Module != other.Module || x.Name != other.Name || len(x.Args) != len(other.Args) {
		return false
	}
	for i := range x.Args {
		if !x.Args[i].Equal(other.Args[i]) {
			return false
		}
	}
	return true
}

// Key returns the canonical cache key of the identity
func (x TypeIdentity) Key() string {
	return x.String()
}

// Fingerprint returns a stable 64-bit hash of the identity
func (x TypeIdentity) Fingerprint() uint64 {
	return xxh3.HashString(x.Key())
}

// String renders the identity as Name[Arg, ...]@Module.
// Runtime identities omit the module suffix.
func (x TypeIdentity) String() string {
	var sb strings.Builder
	x.write(&sb)
	return sb.String()
}

func (x TypeIdentity) write(sb *strings.Builder) {
	sb.WriteString(x.Name)
	if len(x.Args) > 0 {
		sb.WriteByte('[')
		for i, arg := range x.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			arg.write(sb)
		}
		sb.WriteByte(']')
	}
	if !x.IsRuntime() {
		sb.WriteByte('@')
		sb.WriteString(x.Module)
	}
}

// Validate checks the identity is complete enough to be resolved
func (x TypeIdentity) Validate() error {
	if strings.TrimSpace(x.Name) == "" {
		return gerrors.NewErrTypeNotFound(x.String(), fmt.Errorf("type name is required"))
	}
	if strings.TrimSpace(x.Module) == "" {
		return gerrors.NewErrTypeNotFound(x.String(), fmt.Errorf("module identity is required"))
	}
	for _, arg := range x.Args {
		if err := arg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
