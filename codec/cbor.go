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

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEncOpts = cbor.EncOptions{
		Sort:        cbor.SortNone,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnixDynamic,
	}
	cborDecOpts = cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8DecodeInvalid,
	}
)

// CBOR encodes values with CBOR (RFC 8949).
type CBOR struct {
	encMode cbor.EncMode // immutable after construction, thread-safe
	decMode cbor.DecMode // immutable after construction, thread-safe
}

var _ Codec = (*CBOR)(nil)

// NewCBOR creates a CBOR codec
func NewCBOR() *CBOR {
	encMode, _ := cborEncOpts.EncMode()
	decMode, _ := cborDecOpts.DecMode()
	return &CBOR{encMode: encMode, decMode: decMode}
}

// Name returns the codec name
func (c *CBOR) Name() string {
	return "cbor"
}

// Serialize encodes value
func (c *CBOR) Serialize(value any, declared reflect.Type) ([]byte, error) {
	return encode(c.Name(), value, declared, c.encMode.Marshal)
}

// Deserialize decodes data into a value of the target type
func (c *CBOR) Deserialize(data []byte, target reflect.Type) (any, error) {
	return decode(c.Name(), target, func(ptr any) error {
		return c.decMode.Unmarshal(data, ptr)
	})
}
