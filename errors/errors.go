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

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeNotFound is returned when a type identity cannot be resolved in a domain,
	// either because its module cannot be located or because the module does not declare it.
	ErrTypeNotFound = errors.New("type not found")

	// ErrMethodNotFound is returned when no method of the target instance matches
	// the requested name and resolved parameter types.
	ErrMethodNotFound = errors.New("method not found")

	// ErrArgumentCountMismatch is returned when the number of arguments disagrees with
	// the number of declared parameters. It always indicates a protocol level bug.
	ErrArgumentCountMismatch = errors.New("argument count mismatch")

	// ErrProxyUnloaded is returned when a call is attempted through a proxy whose domain
	// has been unloaded.
	ErrProxyUnloaded = errors.New("proxy is unloaded")

	// ErrSerializationContractViolation is returned when the type carried by a result
	// does not match the type the caller expects to deserialize into.
	ErrSerializationContractViolation = errors.New("serialization contract violation")

	// ErrInvocationFailure is returned when the invoked method itself failed inside the
	// target domain, either with an error or with a panic.
	ErrInvocationFailure = errors.New("invocation failed")

	// ErrSerializationFailure is returned when a codec cannot encode or decode a value.
	ErrSerializationFailure = errors.New("serialization failed")

	// ErrDomainUnloaded is returned when an operation targets a domain that has already unloaded.
	ErrDomainUnloaded = errors.New("domain is unloaded")

	// ErrInvalidBindSpec is returned when the bind request is incomplete or malformed.
	ErrInvalidBindSpec = errors.New("invalid bind specification")

	// ErrInvalidModule is returned when a module declaration is inconsistent.
	ErrInvalidModule = errors.New("invalid module")

	// ErrInvalidEnvelope is returned when an envelope cannot be decoded from its wire form.
	ErrInvalidEnvelope = errors.New("invalid envelope")
)

// NewErrTypeNotFound formats an ErrTypeNotFound for the given identity
func NewErrTypeNotFound(identity string, cause error) error {
	if cause == nil {
		return fmt.Errorf("type=(%s) %w", identity, ErrTypeNotFound)
	}
	return fmt.Errorf("type=(%s) %w: %w", identity, ErrTypeNotFound, cause)
}

// NewErrMethodNotFound formats an ErrMethodNotFound naming the target instance and the searched method
func NewErrMethodNotFound(instance, method string) error {
	return fmt.Errorf("instance=(%s) method=(%s) %w", instance, method, ErrMethodNotFound)
}

// NewErrArgumentCountMismatch formats an ErrArgumentCountMismatch
func NewErrArgumentCountMismatch(expected, actual int) error {
	return fmt.Errorf("expected=(%d) actual=(%d) %w", expected, actual, ErrArgumentCountMismatch)
}

// NewErrProxyUnloaded formats an ErrProxyUnloaded for the given server handle
func NewErrProxyUnloaded(handle string) error {
	return fmt.Errorf("handle=(%s) %w", handle, ErrProxyUnloaded)
}

// NewErrSerializationContractViolation formats an ErrSerializationContractViolation
func NewErrSerializationContractViolation(expected, actual string) error {
	return fmt.Errorf("expected=(%s) actual=(%s) %w", expected, actual, ErrSerializationContractViolation)
}

// NewErrInvocationFailure wraps a failure raised by the invoked method
func NewErrInvocationFailure(method string, err error) error {
	return fmt.Errorf("method=(%s) %w: %w", method, ErrInvocationFailure, err)
}

// NewErrSerializationFailure wraps a codec failure
func NewErrSerializationFailure(codec string, err error) error {
	return fmt.Errorf("codec=(%s) %w: %w", codec, ErrSerializationFailure, err)
}

// NewErrDomainUnloaded formats an ErrDomainUnloaded for the given domain
func NewErrDomainUnloaded(domain string) error {
	return fmt.Errorf("domain=(%s) %w", domain, ErrDomainUnloaded)
}

// NewErrInvalidBindSpec wraps the validation violations of a bind request
func NewErrInvalidBindSpec(err error) error {
	return errors.Join(ErrInvalidBindSpec, err)
}

// NewErrInvalidModule wraps the violations of a module declaration
func NewErrInvalidModule(module string, err error) error {
	return fmt.Errorf("module=(%s) %w: %w", module, ErrInvalidModule, err)
}

// NewErrInvalidEnvelope wraps a decoding failure of an envelope
func NewErrInvalidEnvelope(err error) error {
	return errors.Join(ErrInvalidEnvelope, err)
}

// PanicError defines the panic error
// wrapping the recovered value
type PanicError struct {
	err error
}

// enforce compilation error
var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

func (e *PanicError) Unwrap() error {
	return e.err
}
