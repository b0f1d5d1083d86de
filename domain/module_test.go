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
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/typeid"
)

type widget struct{ Size int }

func newWidget() *widget { return &widget{} }

func (w *widget) Grow(n int) int {
	w.Size += n
	return w.Size
}

type gadget struct{}

func TestNewModule(t *testing.T) {
	t.Run("With valid definitions", func(t *testing.T) {
		module, err := NewModule("toys@1.0.0", "toys",
			TypeDef{
				Name:         "toys.Widget",
				Type:         reflect.TypeFor[*widget](),
				Constructors: []any{newWidget},
				Methods: []Method{
					{Name: "Shrink", Func: func(w *widget, n int) int { w.Size -= n; return w.Size }},
				},
			},
			TypeDef{
				Name: "toys.Gadget",
				Type: reflect.TypeFor[gadget](),
			},
			TypeDef{
				Name: "toys.Crate",
				Generic: &GenericDef{
					Arity: 1,
					Close: func(args []reflect.Type) (reflect.Type, error) { return reflect.SliceOf(args[0]), nil },
				},
			})
		require.NoError(t, err)
		require.NotNil(t, module)

		assert.Equal(t, "toys@1.0.0", module.Identity())
		assert.Equal(t, "toys", module.Path())
		assert.Len(t, module.Types(), 3)
		assert.Len(t, module.Generics(), 1)
		assert.Equal(t, "toys@1.0.0 (toys)", module.String())

		def, ok := module.Type("toys.Widget")
		require.True(t, ok)
		assert.Equal(t, reflect.TypeFor[*widget](), def.Type)

		def, ok = module.Lookup(reflect.TypeFor[gadget]())
		require.True(t, ok)
		assert.Equal(t, "toys.Gadget", def.Name)

		_, ok = module.Type("toys.Missing")
		assert.False(t, ok)
		_, ok = module.Lookup(reflect.TypeFor[string]())
		assert.False(t, ok)

		ref := module.Ref("toys.Widget")
		assert.True(t, ref.Equal(typeid.New("toys@1.0.0", "elsewhere", "toys.Widget")))
	})
	t.Run("With reserved module identity", func(t *testing.T) {
		module, err := NewModule(typeid.RuntimeModule, "runtime")
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidModule)
		assert.Nil(t, module)
	})
	t.Run("With empty identity", func(t *testing.T) {
		_, err := NewModule("", "toys")
		assert.ErrorIs(t, err, gerrors.ErrInvalidModule)
	})
	t.Run("With duplicate names", func(t *testing.T) {
		_, err := NewModule("toys@1.0.0", "toys",
			TypeDef{Name: "toys.Widget", Type: reflect.TypeFor[*widget]()},
			TypeDef{Name: "toys.Widget", Type: reflect.TypeFor[gadget]()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared twice")
	})
	t.Run("With duplicate go types", func(t *testing.T) {
		_, err := NewModule("toys@1.0.0", "toys",
			TypeDef{Name: "toys.Widget", Type: reflect.TypeFor[*widget]()},
			TypeDef{Name: "toys.Other", Type: reflect.TypeFor[*widget]()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared twice")
	})
	t.Run("With invalid definitions", func(t *testing.T) {
		_, err := NewModule("toys@1.0.0", "toys",
			TypeDef{Name: "toys.Nothing"},
			TypeDef{Name: "toys.Both", Type: reflect.TypeFor[gadget](), Generic: &GenericDef{Arity: 1}},
			TypeDef{Name: "toys.BadCtor", Type: reflect.TypeFor[int](), Constructors: []any{42}},
			TypeDef{Name: "toys.BadMethod", Type: reflect.TypeFor[string](), Methods: []Method{
				{Name: "Nope", Func: func() {}},
				{Name: "Generic", TypeParams: 1},
				{Func: func(string) {}},
			}})
		require.Error(t, err)
		assert.ErrorIs(t, err, gerrors.ErrInvalidModule)
		assert.Contains(t, err.Error(), "needs a Go type or a generic definition")
		assert.Contains(t, err.Error(), "cannot be both closed and generic")
		assert.Contains(t, err.Error(), "must be a function")
		assert.Contains(t, err.Error(), "taking the receiver first")
		assert.Contains(t, err.Error(), "no Instantiate function")
		assert.Contains(t, err.Error(), "has no name")
	})
}

func TestMethodIsGeneric(t *testing.T) {
	assert.False(t, Method{Name: "Grow", Func: (*widget).Grow}.IsGeneric())
	assert.True(t, Method{Name: "Echo", TypeParams: 1}.IsGeneric())
}
