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
	"github.com/fxamacker/cbor/v2"

	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/typeid"
)

var (
	encOpts = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}
	decOpts = cbor.DecOptions{
		MaxNestedLevels:   64,
		IndefLength:       cbor.IndefLengthForbidden,
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}

	encMode, _ = encOpts.EncMode()
	decMode, _ = decOpts.DecMode()
)

type callWire struct {
	Target      string                `cbor:"target"`
	Method      string                `cbor:"method"`
	ParamTypes  []typeid.TypeIdentity `cbor:"paramTypes"`
	GenericArgs []typeid.TypeIdentity `cbor:"genericArgs"`
	ArgTypes    []typeid.TypeIdentity `cbor:"argTypes"`
	Args        [][]byte              `cbor:"args"`
}

type resultWire struct {
	OK        bool                `cbor:"ok"`
	Type      typeid.TypeIdentity `cbor:"type"`
	Bytes     []byte              `cbor:"bytes"`
	ErrorKind string              `cbor:"errorKind"`
	Message   string              `cbor:"message"`
}

// MarshalCall encodes a CallEnvelope into its wire form
func MarshalCall(env *CallEnvelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	wire := callWire{
		Target:      env.Target,
		Method:      env.Method.Name,
		ParamTypes:  env.Method.Params,
		GenericArgs: env.Method.GenericArgs,
		ArgTypes:    make([]typeid.TypeIdentity, len(env.Args)),
		Args:        make([][]byte, len(env.Args)),
	}
	for i, arg := range env.Args {
		wire.ArgTypes[i] = arg.Type
		wire.Args[i] = arg.Bytes
	}

	bytea, err := encMode.Marshal(wire)
	if err != nil {
		return nil, gerrors.NewErrSerializationFailure("cbor", err)
	}
	return bytea, nil
}

// UnmarshalCall decodes a CallEnvelope from its wire form
func UnmarshalCall(bytea []byte) (*CallEnvelope, error) {
	var wire callWire
	if err := decMode.Unmarshal(bytea, &wire); err != nil {
		return nil, gerrors.NewErrInvalidEnvelope(err)
	}
	if len(wire.ArgTypes) != len(wire.Args) {
		return nil, gerrors.NewErrArgumentCountMismatch(len(wire.ArgTypes), len(wire.Args))
	}

	env := &CallEnvelope{
		Target: wire.Target,
		Method: typeid.MethodDescriptor{
			Name:        wire.Method,
			Params:      wire.ParamTypes,
			GenericArgs: wire.GenericArgs,
		},
		Args: make([]Argument, len(wire.Args)),
	}
	for i := range wire.Args {
		env.Args[i] = Argument{Type: wire.ArgTypes[i], Bytes: wire.Args[i]}
	}
	return env, nil
}

// MarshalResult encodes a ResultEnvelope into its wire form
func MarshalResult(env *ResultEnvelope) ([]byte, error) {
	if env == nil {
		return nil, gerrors.NewErrInvalidEnvelope(nil)
	}

	bytea, err := encMode.Marshal(resultWire{
		OK:        env.OK,
		Type:      env.Type,
		Bytes:     env.Bytes,
		ErrorKind: string(env.Kind),
		Message:   env.Message,
	})
	if err != nil {
		return nil, gerrors.NewErrSerializationFailure("cbor", err)
	}
	return bytea, nil
}

// UnmarshalResult decodes a ResultEnvelope from its wire form
func UnmarshalResult(bytea []byte) (*ResultEnvelope, error) {
	var wire resultWire
	if err := decMode.Unmarshal(bytea, &wire); err != nil {
		return nil, gerrors.NewErrInvalidEnvelope(err)
	}
	return &ResultEnvelope{
		OK:      wire.OK,
		Type:    wire.Type,
		Bytes:   wire.Bytes,
		Kind:    gerrors.Kind(wire.ErrorKind),
		Message: wire.Message,
	}, nil
}
