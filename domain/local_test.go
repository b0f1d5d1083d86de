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
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/log"
)

func toysLoader(calls *atomic.Int32) Loader {
	return func(path string) (*Module, error) {
		calls.Inc()
		switch path {
		case "toys", "toys/alias":
			return NewModule("toys@1.0.0", path, TypeDef{Name: "toys.Widget", Type: reflect.TypeFor[*widget]()})
		case "empty":
			return nil, nil
		default:
			return nil, errors.New("no such module")
		}
	}
}

func TestLocal(t *testing.T) {
	t.Run("With invalid arguments", func(t *testing.T) {
		_, err := New("", toysLoader(atomic.NewInt32(0)))
		require.Error(t, err)
		_, err = New("d1", nil)
		require.Error(t, err)
	})
	t.Run("With load caching", func(t *testing.T) {
		calls := atomic.NewInt32(0)
		local, err := New("d1", toysLoader(calls), WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		assert.Equal(t, "d1", local.ID())

		first, err := local.Load("toys")
		require.NoError(t, err)
		second, err := local.Load("toys")
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.EqualValues(t, 1, calls.Load())

		aliased, err := local.Load("toys/alias")
		require.NoError(t, err)
		assert.Same(t, first, aliased)

		module, ok := local.Module("toys@1.0.0")
		require.True(t, ok)
		assert.Same(t, first, module)
		assert.Len(t, local.Modules(), 1)
	})
	t.Run("With concurrent loads", func(t *testing.T) {
		calls := atomic.NewInt32(0)
		local, err := New("d1", toysLoader(calls))
		require.NoError(t, err)

		var wg sync.WaitGroup
		modules := make([]*Module, 16)
		for i := range modules {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				modules[i], _ = local.Load("toys")
			}(i)
		}
		wg.Wait()

		assert.EqualValues(t, 1, calls.Load())
		for _, module := range modules {
			assert.Same(t, modules[0], module)
		}
	})
	t.Run("With loader failures", func(t *testing.T) {
		local, err := New("d1", toysLoader(atomic.NewInt32(0)))
		require.NoError(t, err)

		_, err = local.Load("missing")
		assert.ErrorIs(t, err, gerrors.ErrTypeNotFound)
		_, err = local.Load("empty")
		assert.ErrorIs(t, err, gerrors.ErrTypeNotFound)
	})
	t.Run("With two domains loading their own copy", func(t *testing.T) {
		d1, err := New("d1", toysLoader(atomic.NewInt32(0)))
		require.NoError(t, err)
		d2, err := New("d2", toysLoader(atomic.NewInt32(0)))
		require.NoError(t, err)

		m1, err := d1.Load("toys")
		require.NoError(t, err)
		m2, err := d2.Load("toys")
		require.NoError(t, err)
		assert.NotSame(t, m1, m2)
	})
	t.Run("With unload", func(t *testing.T) {
		local, err := New("d1", toysLoader(atomic.NewInt32(0)))
		require.NoError(t, err)
		_, err = local.Load("toys")
		require.NoError(t, err)

		var order []int
		_, err = local.OnUnload(func() { order = append(order, 1) })
		require.NoError(t, err)
		_, err = local.OnUnload(func() { order = append(order, 2) })
		require.NoError(t, err)
		_, err = local.OnUnload(nil)
		require.NoError(t, err)
		assert.Equal(t, 2, local.UnloadHooks())

		require.False(t, local.IsUnloaded())
		require.NoError(t, local.Unload())
		require.True(t, local.IsUnloaded())
		assert.Equal(t, []int{1, 2}, order)

		// idempotent
		require.NoError(t, local.Unload())
		assert.Equal(t, []int{1, 2}, order)

		assert.Zero(t, local.UnloadHooks())
		_, err = local.OnUnload(func() {})
		assert.ErrorIs(t, err, gerrors.ErrDomainUnloaded)
		_, err = local.Load("toys")
		assert.ErrorIs(t, err, gerrors.ErrDomainUnloaded)
		_, ok := local.Module("toys@1.0.0")
		assert.False(t, ok)
		assert.Empty(t, local.Modules())
	})
	t.Run("With panicking callbacks", func(t *testing.T) {
		local, err := New("d1", toysLoader(atomic.NewInt32(0)))
		require.NoError(t, err)

		ran := atomic.NewBool(false)
		for _, fn := range []func(){
			func() { panic("boom") },
			func() { panic(errors.New("bang")) },
			func() { ran.Store(true) },
		} {
			_, err = local.OnUnload(fn)
			require.NoError(t, err)
		}

		err = local.Unload()
		require.Error(t, err)
		var panicErr *gerrors.PanicError
		assert.ErrorAs(t, err, &panicErr)
		assert.Contains(t, err.Error(), "boom")
		assert.Contains(t, err.Error(), "bang")
		assert.True(t, ran.Load())
	})
	t.Run("With cancelled callbacks", func(t *testing.T) {
		local, err := New("d1", toysLoader(atomic.NewInt32(0)))
		require.NoError(t, err)

		var order []int
		first, err := local.OnUnload(func() { order = append(order, 1) })
		require.NoError(t, err)
		_, err = local.OnUnload(func() { order = append(order, 2) })
		require.NoError(t, err)
		third, err := local.OnUnload(func() { order = append(order, 3) })
		require.NoError(t, err)

		first()
		first()
		assert.Equal(t, 2, local.UnloadHooks())

		require.NoError(t, local.Unload())
		assert.Equal(t, []int{2, 3}, order)

		// cancelling after the unload is a no-op
		third()
		assert.Zero(t, local.UnloadHooks())
	})
}
