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

package errors

import "errors"

// Kind classifies a failure independently of the domain it was raised in.
// Only kinds and messages cross a domain boundary; error types never do.
type Kind string

const (
	KindUnknown                        Kind = "Unknown"
	KindTypeNotFound                   Kind = "TypeNotFound"
	KindMethodNotFound                 Kind = "MethodNotFound"
	KindArgumentCountMismatch          Kind = "ArgumentCountMismatch"
	KindProxyUnloaded                  Kind = "ProxyUnloaded"
	KindSerializationContractViolation Kind = "SerializationContractViolation"
	KindInvocationFailure              Kind = "InvocationFailure"
	KindSerializationFailure           Kind = "SerializationFailure"
)

// kinds is ordered: the first sentinel matched wins.
// InvocationFailure comes first since it may wrap any business error.
var kinds = []struct {
	kind     Kind
	sentinel error
}{
	{KindInvocationFailure, ErrInvocationFailure},
	{KindArgumentCountMismatch, ErrArgumentCountMismatch},
	{KindProxyUnloaded, ErrProxyUnloaded},
	{KindTypeNotFound, ErrTypeNotFound},
	{KindMethodNotFound, ErrMethodNotFound},
	{KindSerializationContractViolation, ErrSerializationContractViolation},
	{KindSerializationFailure, ErrSerializationFailure},
}

// String returns the kind name
func (k Kind) String() string {
	return string(k)
}

// Sentinel returns the sentinel error of the kind, nil for KindUnknown
func (k Kind) Sentinel() error {
	for _, entry := range kinds {
		if entry.kind == k {
			return entry.sentinel
		}
	}
	return nil
}

// KindOf classifies err. Errors that do not carry any known sentinel are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var remote *Error
	if errors.As(err, &remote) {
		return remote.kind
	}

	for _, entry := range kinds {
		if errors.Is(err, entry.sentinel) {
			return entry.kind
		}
	}
	return KindUnknown
}

// Error is a failure rebuilt on the caller side of a domain boundary from its
// kind and message. It matches the sentinel of its kind with errors.Is.
type Error struct {
	kind    Kind
	message string
}

// enforce compilation error
var _ error = (*Error)(nil)

// FromKind rebuilds a failure reported by another domain
func FromKind(kind Kind, message string) error {
	return &Error{kind: kind, message: message}
}

// Error implements the standard error interface
func (e *Error) Error() string {
	return e.message
}

// Kind returns the failure kind
func (e *Error) Kind() Kind {
	return e.kind
}

// Is reports whether target is the sentinel of the failure kind
func (e *Error) Is(target error) bool {
	sentinel := e.kind.Sentinel()
	return sentinel != nil && target == sentinel
}
