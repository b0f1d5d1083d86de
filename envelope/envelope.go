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

package envelope

import (
	"fmt"

	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/typeid"
)

// Argument is a serialized call argument together with the identity of its
// dynamic type in the sender's domain.
type Argument struct {
	Type  typeid.TypeIdentity
	Bytes []byte
}

// CallEnvelope is what crosses a domain boundary when a proxy forwards a call.
// It only carries domain-neutral data: names, identities and bytes.
type CallEnvelope struct {
	// Target is the handle of the server stub the call is addressed to
	Target string
	// Method describes the called method with its declared parameter identities
	Method typeid.MethodDescriptor
	// Args holds one entry per declared parameter
	Args []Argument
}

// Validate checks the envelope is internally consistent
func (x *CallEnvelope) Validate() error {
	if x == nil {
		return gerrors.NewErrInvalidEnvelope(fmt.Errorf("call envelope is nil"))
	}
	if len(x.Args) != len(x.Method.Params) {
		return gerrors.NewErrArgumentCountMismatch(len(x.Method.Params), len(x.Args))
	}
	return nil
}

// ArgTypes returns the identities of the arguments in order
func (x *CallEnvelope) ArgTypes() []typeid.TypeIdentity {
	out := make([]typeid.TypeIdentity, len(x.Args))
	for i, arg := range x.Args {
		out[i] = arg.Type
	}
	return out
}

// ResultEnvelope is the answer to a CallEnvelope: either a serialized value
// with its identity or a failure kind and message.
type ResultEnvelope struct {
	OK      bool
	Type    typeid.TypeIdentity
	Bytes   []byte
	Kind    gerrors.Kind
	Message string
}

// Success creates a successful result
func Success(identity typeid.TypeIdentity, bytea []byte) *ResultEnvelope {
	return &ResultEnvelope{
		OK:    true,
		Type:  identity,
		Bytes: bytea,
	}
}

// Void creates the successful result of a method returning nothing
func Void() *ResultEnvelope {
	return Success(typeid.Void, nil)
}

// Failure creates a failed result
func Failure(kind gerrors.Kind, message string) *ResultEnvelope {
	return &ResultEnvelope{
		Kind:    kind,
		Message: message,
	}
}

// FromError flattens err into a failed result. Only the kind and the
// message survive.
func FromError(err error) *ResultEnvelope {
	if err == nil {
		return Failure(gerrors.KindUnknown, "unknown failure")
	}
	return Failure(gerrors.KindOf(err), err.Error())
}

// IsVoid returns true for successful results of methods returning nothing
func (x *ResultEnvelope) IsVoid() bool {
	return x.OK && x.Type.IsVoid()
}

// Err rebuilds the failure in the receiving domain. It returns nil for
// successful results.
func (x *ResultEnvelope) Err() error {
	if x == nil {
		return gerrors.NewErrInvalidEnvelope(fmt.Errorf("result envelope is nil"))
	}
	if x.OK {
		return nil
	}
	kind := x.Kind
	if kind == "" {
		kind = gerrors.KindUnknown
	}
	return gerrors.FromKind(kind, x.Message)
}
