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
	"slices"
	"strings"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"

	gerrors "github.com/tochemey/alcproxy/errors"
	"github.com/tochemey/alcproxy/internal/xsync"
	"github.com/tochemey/alcproxy/log"
)

// Local is an in-process Domain.
//
// Each Local loads its own copy of a module through the Loader it is given,
// so the Go types of two Locals never alias unless the Loader makes them.
type Local struct {
	id     string
	loader Loader
	logger log.Logger

	// modules keyed by identity and by path
	modules *xsync.Map[string, *Module]
	paths   *xsync.Map[string, *Module]
	order   []*Module
	loadMu  sync.Mutex

	callbacks  []unloadHook
	hookSeq    uint64
	callbackMu sync.Mutex
	unloaded   *atomic.Bool
	unloadOnce sync.Once
	unloadErr  error
}

// enforce compilation error
var _ Domain = (*Local)(nil)

type unloadHook struct {
	id uint64
	fn func()
}

// New creates a Local domain
func New(id string, loader Loader, opts ...Option) (*Local, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("domain id is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("domain=(%s) module loader is required", id)
	}

	local := &Local{
		id:       id,
		loader:   loader,
		logger:   log.DiscardLogger,
		modules:  xsync.NewMap[string, *Module](),
		paths:    xsync.NewMap[string, *Module](),
		unloaded: atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(local)
	}
	return local, nil
}

// ID returns the domain identifier
func (x *Local) ID() string {
	return x.id
}

// Module returns a loaded module by identity
func (x *Local) Module(identity string) (*Module, bool) {
	return x.modules.Get(identity)
}

// Load loads the module stored at path. The Loader is called at most once per path.
func (x *Local) Load(path string) (*Module, error) {
	if x.unloaded.Load() {
		return nil, gerrors.NewErrDomainUnloaded(x.id)
	}

	if module, ok := x.paths.Get(path); ok {
		return module, nil
	}

	x.loadMu.Lock()
	defer x.loadMu.Unlock()

	if module, ok := x.paths.Get(path); ok {
		return module, nil
	}

	module, err := x.loader(path)
	if err != nil {
		return nil, gerrors.NewErrTypeNotFound(path, err)
	}
	if module == nil {
		return nil, gerrors.NewErrTypeNotFound(path, errors.New("loader returned no module"))
	}

	if existing, ok := x.modules.Get(module.Identity()); ok {
		// the same module reached through another path keeps its first copy
		x.paths.Set(path, existing)
		return existing, nil
	}

	x.modules.Set(module.Identity(), module)
	x.paths.Set(path, module)
	x.order = append(x.order, module)
	x.logger.Debugf("domain=(%s) loaded module=(%s)", x.id, module)
	return module, nil
}

// Modules returns the loaded modules in load order
func (x *Local) Modules() []*Module {
	x.loadMu.Lock()
	defer x.loadMu.Unlock()
	out := make([]*Module, len(x.order))
	copy(out, x.order)
	return out
}

// OnUnload registers fn to run when the domain unloads. The returned cancel
// removes fn; it is safe to call more than once and after the unload.
func (x *Local) OnUnload(fn func()) (cancel func(), err error) {
	if fn == nil {
		return func() {}, nil
	}

	x.callbackMu.Lock()
	defer x.callbackMu.Unlock()
	if x.unloaded.Load() {
		return nil, gerrors.NewErrDomainUnloaded(x.id)
	}

	x.hookSeq++
	id := x.hookSeq
	x.callbacks = append(x.callbacks, unloadHook{id: id, fn: fn})
	return func() {
		x.callbackMu.Lock()
		x.callbacks = slices.DeleteFunc(x.callbacks, func(h unloadHook) bool { return h.id == id })
		x.callbackMu.Unlock()
	}, nil
}

// UnloadHooks returns the number of callbacks waiting for the unload
func (x *Local) UnloadHooks() int {
	x.callbackMu.Lock()
	defer x.callbackMu.Unlock()
	return len(x.callbacks)
}

// IsUnloaded returns true once Unload has been called
func (x *Local) IsUnloaded() bool {
	return x.unloaded.Load()
}

// Unload marks the domain as unloaded and runs the registered callbacks in
// registration order. It is idempotent; panics raised by callbacks are
// recovered and returned.
func (x *Local) Unload() error {
	x.unloadOnce.Do(func() {
		x.callbackMu.Lock()
		x.unloaded.Store(true)
		callbacks := x.callbacks
		x.callbacks = nil
		x.callbackMu.Unlock()

		for _, hook := range callbacks {
			x.unloadErr = multierr.Append(x.unloadErr, runCallback(hook.fn))
		}

		x.modules.Reset()
		x.paths.Reset()
		x.loadMu.Lock()
		x.order = nil
		x.loadMu.Unlock()

		if x.unloadErr != nil {
			x.logger.Errorf("domain=(%s) unloaded with errors: %v", x.id, x.unloadErr)
			return
		}
		x.logger.Infof("domain=(%s) unloaded", x.id)
	})
	return x.unloadErr
}

func runCallback(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = gerrors.NewPanicError(e)
				return
			}
			err = gerrors.NewPanicError(fmt.Errorf("%v", r))
		}
	}()
	fn()
	return nil
}
