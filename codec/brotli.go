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
	"bytes"
	"io"
	"reflect"
	"sync"

	"github.com/andybalholm/brotli"

	gerrors "github.com/tochemey/alcproxy/errors"
)

// Brotli compresses the payloads of another codec with brotli.
// It trades speed for ratio and suits large structural arguments.
type Brotli struct {
	inner   Codec
	level   int
	writers sync.Pool
	readers sync.Pool
}

var _ Codec = (*Brotli)(nil)

// WithBrotli wraps inner with brotli compression at the given level.
// Levels outside [brotli.BestSpeed, brotli.BestCompression] use brotli.DefaultCompression.
func WithBrotli(inner Codec, level int) *Brotli {
	if inner == nil {
		inner = NewCBOR()
	}
	if level < brotli.BestSpeed || level > brotli.BestCompression {
		level = brotli.DefaultCompression
	}

	return &Brotli{
		inner: inner,
		level: level,
		writers: sync.Pool{
			New: func() any { return brotli.NewWriterLevel(nil, level) },
		},
		readers: sync.Pool{
			New: func() any { return brotli.NewReader(nil) },
		},
	}
}

// Name returns the codec name
func (c *Brotli) Name() string {
	return c.inner.Name() + "+br"
}

// Serialize encodes value with the inner codec and compresses the result
func (c *Brotli) Serialize(value any, declared reflect.Type) ([]byte, error) {
	raw, err := c.inner.Serialize(value, declared)
	if err != nil {
		return nil, err
	}

	out := bytes.NewBuffer(make([]byte, 0, len(raw)/2+16))
	writer := c.writers.Get().(*brotli.Writer)
	writer.Reset(out)
	defer func() {
		writer.Reset(nil)
		c.writers.Put(writer)
	}()

	if _, err := writer.Write(raw); err != nil {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), err)
	}
	if err := writer.Close(); err != nil {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), err)
	}
	return out.Bytes(), nil
}

// Deserialize decompresses data and decodes it with the inner codec
func (c *Brotli) Deserialize(data []byte, target reflect.Type) (any, error) {
	reader := c.readers.Get().(*brotli.Reader)
	if err := reader.Reset(bytes.NewReader(data)); err != nil {
		c.readers.Put(reader)
		return nil, gerrors.NewErrSerializationFailure(c.Name(), err)
	}

	raw, err := io.ReadAll(reader)
	c.readers.Put(reader)
	if err != nil {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), err)
	}
	return c.inner.Deserialize(raw, target)
}
