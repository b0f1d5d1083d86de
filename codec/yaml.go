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

	"gopkg.in/yaml.v3"
)

// YAML encodes values with YAML.
type YAML struct{}

var _ Codec = (*YAML)(nil)

// NewYAML creates a YAML codec
func NewYAML() *YAML {
	return &YAML{}
}

// Name returns the codec name
func (c *YAML) Name() string {
	return "yaml"
}

// Serialize encodes value
func (c *YAML) Serialize(value any, declared reflect.Type) ([]byte, error) {
	return encode(c.Name(), value, declared, yaml.Marshal)
}

// Deserialize decodes data into a value of the target type
func (c *YAML) Deserialize(data []byte, target reflect.Type) (any, error) {
	return decode(c.Name(), target, func(ptr any) error {
		return yaml.Unmarshal(data, ptr)
	})
}
