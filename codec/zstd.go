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
	"sync"

	"github.com/klauspost/compress/zstd"

	gerrors "github.com/tochemey/alcproxy/errors"
)

// Zstd compresses the payloads of another codec with zstd.
//
// Encoders and decoders are not safe for concurrent use, so every call borrows
// one from a pool and returns it when done.
type Zstd struct {
	inner    Codec
	encoders sync.Pool
	decoders sync.Pool
}

var _ Codec = (*Zstd)(nil)

// WithZstd wraps inner with zstd compression
func WithZstd(inner Codec) *Zstd {
	if inner == nil {
		inner = NewCBOR()
	}

	return &Zstd{
		inner: inner,
		encoders: sync.Pool{
			New: func() any {
				encoder, err := newEncoder()
				if err != nil {
					return err
				}
				return encoder
			},
		},
		decoders: sync.Pool{
			New: func() any {
				decoder, err := newDecoder()
				if err != nil {
					return err
				}
				return decoder
			},
		},
	}
}

// Name returns the codec name
func (c *Zstd) Name() string {
	return c.inner.Name() + "+zstd"
}

// Serialize encodes value with the inner codec and compresses the result
func (c *Zstd) Serialize(value any, declared reflect.Type) ([]byte, error) {
	raw, err := c.inner.Serialize(value, declared)
	if err != nil {
		return nil, err
	}

	pooled := c.encoders.Get()
	encoder, ok := pooled.(*zstd.Encoder)
	if !ok {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), pooled.(error))
	}
	defer c.encoders.Put(encoder)

	return encoder.EncodeAll(raw, make([]byte, 0, len(raw))), nil
}

// Deserialize decompresses data and decodes it with the inner codec
func (c *Zstd) Deserialize(data []byte, target reflect.Type) (any, error) {
	pooled := c.decoders.Get()
	decoder, ok := pooled.(*zstd.Decoder)
	if !ok {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), pooled.(error))
	}

	raw, err := decoder.DecodeAll(data, nil)
	c.decoders.Put(decoder)
	if err != nil {
		return nil, gerrors.NewErrSerializationFailure(c.Name(), err)
	}
	return c.inner.Deserialize(raw, target)
}

func newEncoder() (*zstd.Encoder, error) {
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
		zstd.WithLowerEncoderMem(false),
		zstd.WithEncoderPadding(1))
}

func newDecoder() (*zstd.Decoder, error) {
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
		zstd.WithDecoderMaxMemory(64<<20))
}
