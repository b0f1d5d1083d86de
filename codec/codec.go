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

package codec

import (
	"errors"
	"fmt"
	"reflect"

	gerrors "github.com/tochemey/alcproxy/errors"
)

// Codec turns values into bytes and back.
//
// Serialize receives the type the value is declared as; Deserialize receives
// the local type the bytes must be decoded into and returns a value of exactly
// that type. Implementations must be safe for concurrent use.
type Codec interface {
	// Name identifies the codec
	Name() string
	// Serialize encodes value, declared as the given type
	Serialize(value any, declared reflect.Type) ([]byte, error)
	// Deserialize decodes data into a new value of the target type
	Deserialize(data []byte, target reflect.Type) (any, error)
}

var (
	// ErrNilTarget is returned when Deserialize is called without a target type
	ErrNilTarget = errors.New("target type is required")
	// ErrNotAssignable is returned when a value does not match its declared type
	ErrNotAssignable = errors.New("value is not assignable to its declared type")
)

// Default returns the default codec
func Default() Codec {
	return NewCBOR()
}

// checkDeclared ensures value can be held by the declared type.
// A nil declared type accepts any value.
func checkDeclared(value any, declared reflect.Type) error {
	if declared == nil || value == nil {
		return nil
	}
	if actual := reflect.TypeOf(value); !actual.AssignableTo(declared) {
		return fmt.Errorf("%w: %s is not %s", ErrNotAssignable, actual, declared)
	}
	return nil
}

// decode allocates a new value of the target type, lets unmarshal fill it
// through a pointer and returns the value itself
func decode(name string, target reflect.Type, unmarshal func(ptr any) error) (any, error) {
	if target == nil {
		return nil, gerrors.NewErrSerializationFailure(name, ErrNilTarget)
	}

	ptr := reflect.New(target)
	if err := unmarshal(ptr.Interface()); err != nil {
		return nil, gerrors.NewErrSerializationFailure(name, err)
	}
	return ptr.Elem().Interface(), nil
}

// encode validates the declared type and runs marshal
func encode(name string, value any, declared reflect.Type, marshal func(v any) ([]byte, error)) ([]byte, error) {
	if err := checkDeclared(value, declared); err != nil {
		return nil, gerrors.NewErrSerializationFailure(name, err)
	}
	bytea, err := marshal(value)
	if err != nil {
		return nil, gerrors.NewErrSerializationFailure(name, err)
	}
	return bytea, nil
}
