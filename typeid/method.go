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

package typeid

import "strings"

// MethodDescriptor names a method together with the identities of its
// declared parameters and, for generic methods, its type arguments.
// Descriptors are created per call and never persisted.
type MethodDescriptor struct {
	Name        string         `cbor:"method" json:"method" yaml:"method" msgpack:"method"`
	Params      []TypeIdentity `cbor:"paramTypes" json:"paramTypes" yaml:"paramTypes" msgpack:"paramTypes"`
	GenericArgs []TypeIdentity `cbor:"genericArgs" json:"genericArgs" yaml:"genericArgs" msgpack:"genericArgs"`
}

// IsGeneric returns true when the descriptor carries generic arguments
func (x MethodDescriptor) IsGeneric() bool {
	return len(x.GenericArgs) > 0
}

// String renders the descriptor as Name[G, ...](P, ...)
func (x MethodDescriptor) String() string {
	var sb strings.Builder
	sb.WriteString(x.Name)
	if len(x.GenericArgs) > 0 {
		sb.WriteByte('[')
		for i, arg := range x.GenericArgs {
			if i > 0 {
				sb.WriteString(", ")
			}
			arg.write(&sb)
		}
		sb.WriteByte(']')
	}
	sb.WriteByte('(')
	for i, param := range x.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		param.write(&sb)
	}
	sb.WriteByte(')')
	return sb.String()
}
