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
	gerrors "github.com/tochemey/alcproxy/errors"
)

// topics the factory publishes lifecycle events on
const (
	TopicBound      = "alc.proxy.bound"
	TopicUnloaded   = "alc.proxy.unloaded"
	TopicCallFailed = "alc.proxy.call_failed"
)

// BoundEvent is published once a proxy has been bound
type BoundEvent struct {
	Handle    string
	Caller    string
	Target    string
	Interface string
	Concrete  string
}

// UnloadedEvent is published when a proxy reaches its terminal state
type UnloadedEvent struct {
	Handle    string
	Interface string
	Reason    string
}

// CallFailedEvent is published for every failed call
type CallFailedEvent struct {
	Handle  string
	Method  string
	Kind    gerrors.Kind
	Message string
}
