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

// Loader produces a fresh copy of the module stored at path.
// Every call must return a Module whose Go types are private to the caller domain.
type Loader func(path string) (*Module, error)

// Domain is an isolation boundary owning its own type identities.
//
// Hosts provide the implementation; the proxy machinery only consumes it.
// Once a domain has unloaded no call may succeed through stubs bound to it.
type Domain interface {
	// ID returns the unique domain identifier
	ID() string
	// Module returns a loaded module by identity
	Module(identity string) (*Module, bool)
	// Load loads the module stored at path, returning the already loaded copy when present
	Load(path string) (*Module, error)
	// Modules returns the loaded modules
	Modules() []*Module
	// OnUnload registers fn to run once when the domain unloads and returns
	// a cancel func removing the registration. It fails when the domain has
	// already unloaded.
	OnUnload(fn func()) (cancel func(), err error)
	// IsUnloaded returns true once the domain has unloaded
	IsUnloaded() bool
}
