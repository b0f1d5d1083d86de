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
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/typeid"
)

var circle = typeid.New("shapes@1.0.0", "shapes", "shapes.Circle")
var shape = typeid.New("shapes@1.0.0", "shapes", "shapes.IShape")

func TestCallEnvelope(t *testing.T) {
	t.Run("With matching arity", func(t *testing.T) {
		env := &CallEnvelope{
			Target: "handle",
			Method: typeid.MethodDescriptor{Name: "Describe", Params: []typeid.TypeIdentity{shape}},
			Args:   []Argument{{Type: circle, Bytes: []byte{0xa0}}},
		}
		require.NoError(t, env.Validate())
		require.Len(t, env.ArgTypes(), 1)
		assert.True(t, env.ArgTypes()[0].Equal(circle))
	})
	t.Run("With arity mismatch", func(t *testing.T) {
		env := &CallEnvelope{
			Method: typeid.MethodDescriptor{Name: "Describe", Params: []typeid.TypeIdentity{shape}},
		}
		err := env.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrArgumentCountMismatch)
	})
	t.Run("With nil envelope", func(t *testing.T) {
		var env *CallEnvelope
		assert.ErrorIs(t, env.Validate(), gerrors.ErrInvalidEnvelope)
	})
}

func TestResultEnvelope(t *testing.T) {
	t.Run("With success", func(t *testing.T) {
		env := Success(typeid.Runtime("int32"), []byte{0x01})
		assert.True(t, env.OK)
		assert.False(t, env.IsVoid())
		assert.NoError(t, env.Err())
	})
	t.Run("With void", func(t *testing.T) {
		env := Void()
		assert.True(t, env.IsVoid())
		assert.Empty(t, env.Bytes)
		assert.NoError(t, env.Err())
	})
	t.Run("With failure rebuilt as a typed error", func(t *testing.T) {
		env := FromError(gerrors.NewErrMethodNotFound("*Counter", "Decrement"))
		assert.False(t, env.OK)
		assert.Equal(t, gerrors.KindMethodNotFound, env.Kind)

		err := env.Err()
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrMethodNotFound)
		assert.Equal(t, gerrors.KindMethodNotFound, gerrors.KindOf(err))
		assert.Contains(t, err.Error(), "Decrement")
	})
	t.Run("With business failure flattened", func(t *testing.T) {
		env := FromError(gerrors.NewErrInvocationFailure("Divide", errors.New("division by zero")))
		err := env.Err()
		assert.ErrorIs(t, err, gerrors.ErrInvocationFailure)
		assert.Contains(t, err.Error(), "division by zero")
	})
	t.Run("With unknown failures", func(t *testing.T) {
		assert.Equal(t, gerrors.KindUnknown, FromError(nil).Kind)
		assert.Equal(t, gerrors.KindUnknown, FromError(errors.New("plain")).Kind)
		assert.Equal(t, gerrors.KindUnknown, gerrors.KindOf((&ResultEnvelope{Message: "x"}).Err()))
	})
	t.Run("With nil envelope", func(t *testing.T) {
		var env *ResultEnvelope
		assert.ErrorIs(t, env.Err(), gerrors.ErrInvalidEnvelope)
	})
}

func TestWire(t *testing.T) {
	t.Run("With call envelope", func(t *testing.T) {
		env := &CallEnvelope{
			Target: "3f1c",
			Method: typeid.MethodDescriptor{
				Name:        "Echo",
				Params:      []typeid.TypeIdentity{typeid.Runtime(typeid.NameSlice, circle)},
				GenericArgs: []typeid.TypeIdentity{circle},
			},
			Args: []Argument{{Type: typeid.Runtime(typeid.NameSlice, circle), Bytes: []byte{0x80}}},
		}

		bytea, err := MarshalCall(env)
		require.NoError(t, err)

		actual, err := UnmarshalCall(bytea)
		require.NoError(t, err)
		assert.Equal(t, env.Target, actual.Target)
		assert.Equal(t, env.Method.Name, actual.Method.Name)
		require.Len(t, actual.Method.Params, 1)
		assert.True(t, env.Method.Params[0].Equal(actual.Method.Params[0]))
		require.Len(t, actual.Method.GenericArgs, 1)
		assert.True(t, circle.Equal(actual.Method.GenericArgs[0]))
		assert.Equal(t, "shapes", actual.Method.GenericArgs[0].Path)
		require.Len(t, actual.Args, 1)
		assert.Equal(t, []byte{0x80}, actual.Args[0].Bytes)
	})
	t.Run("With contract field names", func(t *testing.T) {
		bytea, err := MarshalCall(&CallEnvelope{
			Target: "h",
			Method: typeid.MethodDescriptor{Name: "Increment"},
		})
		require.NoError(t, err)

		var fields map[string]any
		require.NoError(t, cbor.Unmarshal(bytea, &fields))
		for _, name := range []string{"target", "method", "paramTypes", "genericArgs", "argTypes", "args"} {
			assert.Contains(t, fields, name)
		}

		bytea, err = MarshalResult(Failure(gerrors.KindProxyUnloaded, "gone"))
		require.NoError(t, err)
		fields = nil
		require.NoError(t, cbor.Unmarshal(bytea, &fields))
		for _, name := range []string{"ok", "type", "bytes", "errorKind", "message"} {
			assert.Contains(t, fields, name)
		}
	})
	t.Run("With result envelopes", func(t *testing.T) {
		bytea, err := MarshalResult(Success(circle, []byte{0x01, 0x02}))
		require.NoError(t, err)
		actual, err := UnmarshalResult(bytea)
		require.NoError(t, err)
		assert.True(t, actual.OK)
		assert.True(t, circle.Equal(actual.Type))
		assert.Equal(t, []byte{0x01, 0x02}, actual.Bytes)

		bytea, err = MarshalResult(Failure(gerrors.KindProxyUnloaded, "gone"))
		require.NoError(t, err)
		actual, err = UnmarshalResult(bytea)
		require.NoError(t, err)
		assert.ErrorIs(t, actual.Err(), gerrors.ErrProxyUnloaded)
	})
	t.Run("With invalid payloads", func(t *testing.T) {
		_, err := MarshalCall(&CallEnvelope{Method: typeid.MethodDescriptor{Params: []typeid.TypeIdentity{circle}}})
		assert.ErrorIs(t, err, gerrors.ErrArgumentCountMismatch)

		_, err = MarshalResult(nil)
		assert.ErrorIs(t, err, gerrors.ErrInvalidEnvelope)

		_, err = UnmarshalCall([]byte{0xff})
		assert.ErrorIs(t, err, gerrors.ErrInvalidEnvelope)
		_, err = UnmarshalResult([]byte{0xff})
		assert.ErrorIs(t, err, gerrors.ErrInvalidEnvelope)

		unknown, err := cbor.Marshal(map[string]any{"unexpected": 1})
		require.NoError(t, err)
		_, err = UnmarshalResult(unknown)
		assert.ErrorIs(t, err, gerrors.ErrInvalidEnvelope)

		mismatch, err := cbor.Marshal(map[string]any{"argTypes": []any{}, "args": [][]byte{{0x01}}})
		require.NoError(t, err)
		_, err = UnmarshalCall(mismatch)
		assert.ErrorIs(t, err, gerrors.ErrArgumentCountMismatch)
	})
}
