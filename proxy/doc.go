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

// Package proxy makes method calls across isolation domains.
//
// A Factory binds a concrete type of a module, instantiated in a target
// domain, to an interface of the same module as seen from a caller domain.
// The caller receives a ClientProxy; the instance is owned by a ServerStub.
// Every call is described with type identities rather than Go types,
// serialized with a codec, resolved again in the target domain by a
// TypeBridge and dispatched by a MethodResolver, which accepts arguments whose
// types only match structurally.
//
// Calls are synchronous. Once either domain unloads the proxy fails every
// call with errors.ErrProxyUnloaded.
//
//	factory, _ := proxy.NewFactory(proxy.WithLogger(log.DefaultLogger))
//	counter, err := factory.Bind(proxy.BindSpec{
//		Caller:     caller,
//		Target:     target,
//		Interface:  "counter.ICounter",
//		Concrete:   "counter.Counter",
//		ModulePath: "counter",
//	})
//	value, err := proxy.Invoke[int32](counter, "Increment")
package proxy
