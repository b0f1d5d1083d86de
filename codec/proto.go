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
	"errors"
	"reflect"

	"google.golang.org/protobuf/proto"

	gerrors "github.com/tochemey/alcproxy/errors"
)

var protoMessageType = reflect.TypeFor[proto.Message]()

// Proto encodes protobuf messages with the protobuf binary format and hands
// every other value to a fallback codec.
type Proto struct {
	fallback Codec
}

var _ Codec = (*Proto)(nil)

// NewProto creates a protobuf codec. A nil fallback defaults to CBOR.
func NewProto(fallback Codec) *Proto {
	if fallback == nil {
		fallback = NewCBOR()
	}
	return &Proto{fallback: fallback}
}

// Name returns the codec name
func (c *Proto) Name() string {
	return "proto+" + c.fallback.Name()
}

// Serialize encodes value
func (c *Proto) Serialize(value any, declared reflect.Type) ([]byte, error) {
	message, ok := value.(proto.Message)
	if !ok {
		return c.fallback.Serialize(value, declared)
	}

	if err := checkDeclared(value, declared); err != nil {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), err)
	}

	bytea, err := proto.Marshal(message)
	if err != nil {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), err)
	}
	return bytea, nil
}

// Deserialize decodes data into a value of the target type.
// Only pointer message types such as *wrapperspb.StringValue use the protobuf format.
func (c *Proto) Deserialize(data []byte, target reflect.Type) (any, error) {
	if target == nil || target.Kind() != reflect.Pointer || !target.Implements(protoMessageType) {
		return c.fallback.Deserialize(data, target)
	}

	message, ok := reflect.New(target.Elem()).Interface().(proto.Message)
	if !ok {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), errors.New("target is not a protobuf message"))
	}

	if err := proto.Unmarshal(data, message); err != nil {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), err)
	}
	return message, nil
}
