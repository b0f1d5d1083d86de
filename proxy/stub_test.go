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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/alcproxy/codec"
	"github.com/tochemey/alcproxy/domain"
	"github.com/tochemey/alcproxy/envelope"
	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/internal/fixture/beta"
	pinned "github.com/tochemey/alcproxy/internal/fixture/twin/a/geo"
	plain "github.com/tochemey/alcproxy/internal/fixture/twin/b/geo"
	"github.com/tochemey/alcproxy/log"
	"github.com/tochemey/alcproxy/typeid"
)

func newStub(t *testing.T, instance any, iface reflect.Type) (*ServerStub, *domain.Local) {
	t.Helper()
	_, target := newDomains(t, nil)
	_, err := target.Load(beta.ModulePath)
	require.NoError(t, err)
	stub := newServerStub("stub-1", reflect.ValueOf(instance), iface, NewTypeBridge(target), codec.Default(), log.DiscardLogger)
	return stub, target
}

func decodeResult[T any](t *testing.T, res *envelope.ResultEnvelope) T {
	t.Helper()
	require.True(t, res.OK, res.Message)
	value, err := codec.Default().Deserialize(res.Bytes, reflect.TypeFor[T]())
	require.NoError(t, err)
	return value.(T)
}

type (
	iMarker interface{ Mark() string }
	iPinned interface{ Pin() string }
	iBoth   interface {
		Mark() string
		Pin() string
	}
)

type board struct{}

// geoLoader serves a module declaring two types whose Go types share the
// same reflect name, and a board whose Place overloads tell them apart
func geoLoader(path string) (*domain.Module, error) {
	return domain.NewModule("geo@1.0.0", path,
		domain.TypeDef{Name: "geo.Pin", Type: reflect.TypeFor[pinned.Marker]()},
		domain.TypeDef{Name: "geo.Flag", Type: reflect.TypeFor[plain.Marker]()},
		domain.TypeDef{Name: "geo.IBoth", Type: reflect.TypeFor[iBoth]()},
		domain.TypeDef{
			Name: "geo.Board",
			Type: reflect.TypeFor[*board](),
			Methods: []domain.Method{
				{Name: "Place", Func: func(_ *board, m iPinned) string { return m.Pin() }},
				{Name: "Place", Func: func(_ *board, m iMarker) string { return m.Mark() }},
			},
		},
	)
}

func TestServerStub(t *testing.T) {
	drawingIface := reflect.TypeFor[beta.IDrawing]()
	stringID := typeid.Runtime("string")

	t.Run("With structurally resolved argument", func(t *testing.T) {
		drawing := beta.NewDrawing()
		stub, _ := newStub(t, drawing, drawingIface)
		assert.Equal(t, "stub-1", stub.Handle())
		assert.Equal(t, drawingIface, stub.Interface())

		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Measure", Params: []typeid.TypeIdentity{fixtureRef("fixture.Shape")}},
			Args:   []envelope.Argument{argument(t, fixtureRef("fixture.Tile"), beta.Tile{Name: "floor", Side: 1})},
		})

		assert.True(t, res.Type.Equal(stringID))
		assert.Equal(t, "measured floor", decodeResult[string](t, res))
		assert.Equal(t, 1, drawing.Count())
	})
	t.Run("With interface result carrying its dynamic type", func(t *testing.T) {
		stub, _ := newStub(t, beta.NewDrawing(), drawingIface)
		circles := []beta.Circle{{Radius: 1}, {Radius: 3}}

		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{
				Name:   "Largest",
				Params: []typeid.TypeIdentity{typeid.Runtime(typeid.NameSlice, fixtureRef("fixture.Circle"))},
			},
			Args: []envelope.Argument{argument(t, typeid.Runtime(typeid.NameSlice, fixtureRef("fixture.Circle")), circles)},
		})

		assert.True(t, res.Type.Equal(fixtureRef("fixture.Circle")))
		assert.Equal(t, beta.Circle{Radius: 3}, decodeResult[beta.Circle](t, res))
	})
	t.Run("With variadic method receiving its tail as a slice", func(t *testing.T) {
		stub, _ := newStub(t, beta.NewDrawing(), drawingIface)
		parts := typeid.Runtime(typeid.NameSlice, stringID)
		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Join", Params: []typeid.TypeIdentity{stringID, parts}},
			Args: []envelope.Argument{
				argument(t, stringID, "+"),
				argument(t, parts, []string{"1", "2"}),
			},
		})
		assert.Equal(t, "1+2", decodeResult[string](t, res))
	})
	t.Run("With method cache keyed by argument identities", func(t *testing.T) {
		require.Equal(t, reflect.TypeFor[pinned.Marker]().String(), reflect.TypeFor[plain.Marker]().String())

		geo, err := domain.New("geo", geoLoader)
		require.NoError(t, err)
		stub := newServerStub("stub-1", reflect.ValueOf(&board{}), reflect.TypeFor[any](), NewTypeBridge(geo), codec.Default(), log.DiscardLogger)

		place := func(name string, value any) *envelope.ResultEnvelope {
			id := typeid.New("geo@1.0.0", "geo", name)
			return stub.Invoke(&envelope.CallEnvelope{
				Target: "stub-1",
				Method: typeid.MethodDescriptor{Name: "Place", Params: []typeid.TypeIdentity{typeid.New("geo@1.0.0", "geo", "geo.IBoth")}},
				Args:   []envelope.Argument{argument(t, id, value)},
			})
		}

		assert.Equal(t, "mark flag", decodeResult[string](t, place("geo.Flag", plain.Marker{Name: "flag"})))
		assert.Equal(t, "pin pin", decodeResult[string](t, place("geo.Pin", pinned.Marker{Name: "pin"})))
		assert.Len(t, stub.methods, 2)
	})
	t.Run("With void method", func(t *testing.T) {
		stub, _ := newStub(t, beta.NewDrawing(), drawingIface)
		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Reset"},
		})
		require.True(t, res.OK)
		assert.True(t, res.IsVoid())
		assert.Empty(t, res.Bytes)
	})
	t.Run("With argument count mismatch", func(t *testing.T) {
		drawing := beta.NewDrawing()
		stub, _ := newStub(t, drawing, drawingIface)
		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Measure", Params: []typeid.TypeIdentity{fixtureRef("fixture.Shape")}},
		})
		assert.False(t, res.OK)
		assert.Equal(t, gerrors.KindArgumentCountMismatch, res.Kind)
		assert.Zero(t, drawing.Count())
	})
	t.Run("With business error", func(t *testing.T) {
		stub, _ := newStub(t, beta.NewDrawing(), drawingIface)
		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Divide", Params: []typeid.TypeIdentity{typeid.Runtime("int32"), typeid.Runtime("int32")}},
			Args: []envelope.Argument{
				argument(t, typeid.Runtime("int32"), int32(1)),
				argument(t, typeid.Runtime("int32"), int32(0)),
			},
		})
		assert.False(t, res.OK)
		assert.Equal(t, gerrors.KindInvocationFailure, res.Kind)
		assert.Contains(t, res.Message, "division by zero")

		err := res.Err()
		assert.ErrorIs(t, err, gerrors.ErrInvocationFailure)
	})
	t.Run("With panicking method", func(t *testing.T) {
		stub, _ := newStub(t, beta.NewDrawing(), drawingIface)
		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Explode"},
		})
		assert.Equal(t, gerrors.KindInvocationFailure, res.Kind)
		assert.Contains(t, res.Message, "exploded")
	})
	t.Run("With unresolvable identity", func(t *testing.T) {
		stub, _ := newStub(t, beta.NewDrawing(), drawingIface)
		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Measure", Params: []typeid.TypeIdentity{fixtureRef("fixture.Unknown")}},
			Args:   []envelope.Argument{argument(t, fixtureRef("fixture.Shape"), beta.Shape{})},
		})
		assert.Equal(t, gerrors.KindTypeNotFound, res.Kind)
	})
	t.Run("With unknown method", func(t *testing.T) {
		stub, _ := newStub(t, beta.NewDrawing(), drawingIface)
		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Paint"},
		})
		assert.Equal(t, gerrors.KindMethodNotFound, res.Kind)
	})
	t.Run("With undecodable argument", func(t *testing.T) {
		stub, _ := newStub(t, beta.NewDrawing(), drawingIface)
		res := stub.Invoke(&envelope.CallEnvelope{
			Target: "stub-1",
			Method: typeid.MethodDescriptor{Name: "Tag", Params: []typeid.TypeIdentity{fixtureRef("fixture.Label")}},
			Args:   []envelope.Argument{{Type: fixtureRef("fixture.Label"), Bytes: []byte{0xff, 0x00}}},
		})
		assert.Equal(t, gerrors.KindSerializationFailure, res.Kind)
	})
	t.Run("With wrong target or released stub", func(t *testing.T) {
		drawing := beta.NewDrawing()
		stub, _ := newStub(t, drawing, drawingIface)
		reset := &envelope.CallEnvelope{Target: "stub-1", Method: typeid.MethodDescriptor{Name: "Count"}}

		res := stub.Invoke(&envelope.CallEnvelope{Target: "stub-2", Method: typeid.MethodDescriptor{Name: "Count"}})
		assert.Equal(t, gerrors.KindProxyUnloaded, res.Kind)

		require.True(t, stub.Invoke(reset).OK)
		stub.release()
		stub.release()
		assert.True(t, stub.Released())

		res = stub.Invoke(reset)
		assert.Equal(t, gerrors.KindProxyUnloaded, res.Kind)
		assert.False(t, stub.instance.IsValid())
	})
	t.Run("With unloaded domain", func(t *testing.T) {
		stub, target := newStub(t, beta.NewDrawing(), drawingIface)
		require.NoError(t, target.Unload())
		res := stub.Invoke(&envelope.CallEnvelope{Target: "stub-1", Method: typeid.MethodDescriptor{Name: "Count"}})
		assert.Equal(t, gerrors.KindProxyUnloaded, res.Kind)
	})
	t.Run("With concurrent calls executed one at a time", func(t *testing.T) {
		counter := beta.NewCounter()
		stub, _ := newStub(t, counter, reflect.TypeFor[beta.ICounter]())

		var wg sync.WaitGroup
		for range 64 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				stub.Invoke(&envelope.CallEnvelope{Target: "stub-1", Method: typeid.MethodDescriptor{Name: "Increment"}})
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 64, counter.Current())
	})
}
