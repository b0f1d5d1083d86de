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

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// typeNamePattern matches full type names such as shapes.Circle
var typeNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidatorFunc turns a function into a Validator
type ValidatorFunc func() error

// Validate runs the function
func (f ValidatorFunc) Validate() error {
	return f()
}

// NewAssertion fails with message when isTrue is false
func NewAssertion(isTrue bool, message string) Validator {
	return ValidatorFunc(func() error {
		if !isTrue {
			return errors.New(message)
		}
		return nil
	})
}

// NewRequired fails when value is blank
func NewRequired(field, value string) Validator {
	return ValidatorFunc(func() error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("the [%s] is required", field)
		}
		return nil
	})
}

// NewTypeName fails when value is blank or is not a dotted type name
func NewTypeName(field, value string) Validator {
	return ValidatorFunc(func() error {
		if err := NewRequired(field, value).Validate(); err != nil {
			return err
		}
		if !typeNamePattern.MatchString(value) {
			return fmt.Errorf("the [%s] (%s) is not a valid type name", field, value)
		}
		return nil
	})
}
