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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"

	gerrors "github.com/tochemey/alcproxy/errors"
)

// two distinct Go types sharing one shape, as two domains would see them
type alphaPoint struct {
	X     int32
	Y     int32
	Label string
	Tags  []string
}

type betaPoint struct {
	X     int32
	Y     int32
	Label string
	Tags  []string
}

func allCodecs() []Codec {
	return []Codec{
		NewCBOR(),
		NewMsgPack(),
		NewJSON(),
		NewYAML(),
		NewProto(nil),
		WithZstd(NewCBOR()),
		WithZstd(NewJSON()),
		WithBrotli(NewMsgPack(), 5),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, codec := range allCodecs() {
		t.Run("With "+codec.Name(), func(t *testing.T) {
			point := alphaPoint{X: 3, Y: -4, Label: "origin", Tags: []string{"a", "b"}}

			bytea, err := codec.Serialize(point, reflect.TypeFor[alphaPoint]())
			require.NoError(t, err)

			// decoded into the receiver's own type of the same shape
			actual, err := codec.Deserialize(bytea, reflect.TypeFor[betaPoint]())
			require.NoError(t, err)
			require.IsType(t, betaPoint{}, actual)
			assert.Equal(t, betaPoint{X: 3, Y: -4, Label: "origin", Tags: []string{"a", "b"}}, actual)

			bytea, err = codec.Serialize(int32(7), reflect.TypeFor[int32]())
			require.NoError(t, err)
			actual, err = codec.Deserialize(bytea, reflect.TypeFor[int32]())
			require.NoError(t, err)
			assert.Equal(t, int32(7), actual)

			bytea, err = codec.Serialize(&point, reflect.TypeFor[*alphaPoint]())
			require.NoError(t, err)
			actual, err = codec.Deserialize(bytea, reflect.TypeFor[*betaPoint]())
			require.NoError(t, err)
			require.IsType(t, &betaPoint{}, actual)
			assert.Equal(t, "origin", actual.(*betaPoint).Label)

			bytea, err = codec.Serialize(map[string]int{"one": 1}, reflect.TypeFor[map[string]int]())
			require.NoError(t, err)
			actual, err = codec.Deserialize(bytea, reflect.TypeFor[map[string]int]())
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"one": 1}, actual)
		})
	}
}

func TestSerializeDeclaredType(t *testing.T) {
	for _, codec := range allCodecs() {
		t.Run("With "+codec.Name(), func(t *testing.T) {
			_, err := codec.Serialize("text", reflect.TypeFor[int]())
			require.Error(t, err)
			assert.ErrorIs(t, err, gerrors.ErrSerializationFailure)
			assert.ErrorIs(t, err, ErrNotAssignable)

			// values are accepted by the interfaces they implement
			_, err = codec.Serialize(alphaPoint{}, reflect.TypeFor[any]())
			require.NoError(t, err)
			// a nil declared type accepts anything
			_, err = codec.Serialize(alphaPoint{}, nil)
			require.NoError(t, err)
		})
	}
}

func TestDeserializeFailures(t *testing.T) {
	t.Run("With nil target", func(t *testing.T) {
		for _, codec := range allCodecs() {
			_, err := codec.Deserialize([]byte{0x01}, nil)
			require.Error(t, err, codec.Name())
		}
	})
	t.Run("With corrupted payload", func(t *testing.T) {
		for _, codec := range []Codec{NewCBOR(), NewMsgPack(), NewJSON(), WithZstd(NewCBOR())} {
			_, err := codec.Deserialize([]byte{0xff, 0xfe, 0x00}, reflect.TypeFor[betaPoint]())
			require.Error(t, err, codec.Name())
			assert.ErrorIs(t, err, gerrors.ErrSerializationFailure)
			assert.Equal(t, gerrors.KindSerializationFailure, gerrors.KindOf(err))
		}
	})
}

func TestNilValues(t *testing.T) {
	for _, codec := range []Codec{NewCBOR(), NewJSON(), NewMsgPack()} {
		t.Run("With "+codec.Name(), func(t *testing.T) {
			bytea, err := codec.Serialize(nil, reflect.TypeFor[*alphaPoint]())
			require.NoError(t, err)
			actual, err := codec.Deserialize(bytea, reflect.TypeFor[*betaPoint]())
			require.NoError(t, err)
			assert.Nil(t, actual)
		})
	}
}

func TestProto(t *testing.T) {
	codec := NewProto(NewMsgPack())
	assert.Equal(t, "proto+msgpack", codec.Name())

	bytea, err := codec.Serialize(wrapperspb.String("hello"), reflect.TypeFor[*wrapperspb.StringValue]())
	require.NoError(t, err)

	actual, err := codec.Deserialize(bytea, reflect.TypeFor[*wrapperspb.StringValue]())
	require.NoError(t, err)
	require.IsType(t, &wrapperspb.StringValue{}, actual)
	assert.Equal(t, "hello", actual.(*wrapperspb.StringValue).GetValue())

	_, err = codec.Serialize(wrapperspb.String("hello"), reflect.TypeFor[*wrapperspb.Int32Value]())
	assert.ErrorIs(t, err, ErrNotAssignable)

	_, err = codec.Deserialize([]byte{0xff, 0xff, 0xff}, reflect.TypeFor[*wrapperspb.StringValue]())
	assert.ErrorIs(t, err, gerrors.ErrSerializationFailure)
}

func TestZstd(t *testing.T) {
	codec := WithZstd(NewCBOR())
	assert.Equal(t, "cbor+zstd", codec.Name())
	assert.Equal(t, "cbor+zstd", WithZstd(nil).Name())

	tags := make([]string, 512)
	for i := range tags {
		tags[i] = "repetitive"
	}
	point := alphaPoint{Label: "compressed", Tags: tags}

	raw, err := NewCBOR().Serialize(point, nil)
	require.NoError(t, err)
	compressed, err := codec.Serialize(point, nil)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(raw))

	t.Run("With concurrent use", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 32)
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				bytea, err := codec.Serialize(alphaPoint{X: int32(i)}, nil)
				if err != nil {
					errs <- err
					return
				}
				actual, err := codec.Deserialize(bytea, reflect.TypeFor[betaPoint]())
				if err != nil {
					errs <- err
					return
				}
				if actual.(betaPoint).X != int32(i) {
					errs <- assert.AnError
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
	})
}

func TestBrotli(t *testing.T) {
	codec := WithBrotli(NewCBOR(), 42)
	assert.Equal(t, "cbor+br", codec.Name())
	assert.Equal(t, "cbor+br", WithBrotli(nil, 1).Name())

	tags := make([]string, 512)
	for i := range tags {
		tags[i] = "repetitive"
	}
	point := alphaPoint{Label: "compressed", Tags: tags}

	raw, err := NewCBOR().Serialize(point, nil)
	require.NoError(t, err)
	compressed, err := codec.Serialize(point, nil)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(raw))

	actual, err := codec.Deserialize(compressed, reflect.TypeFor[betaPoint]())
	require.NoError(t, err)
	assert.Equal(t, "compressed", actual.(betaPoint).Label)
	assert.Len(t, actual.(betaPoint).Tags, 512)

	t.Run("With truncated payload", func(t *testing.T) {
		_, err := codec.Deserialize(compressed[:len(compressed)/2], reflect.TypeFor[betaPoint]())
		assert.ErrorIs(t, err, gerrors.ErrSerializationFailure)
	})
	t.Run("With concurrent use", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 16 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				bytea, err := codec.Serialize(alphaPoint{X: int32(i)}, nil)
				if !assert.NoError(t, err) {
					return
				}
				actual, err := codec.Deserialize(bytea, reflect.TypeFor[betaPoint]())
				if assert.NoError(t, err) {
					assert.Equal(t, int32(i), actual.(betaPoint).X)
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "cbor", Default().Name())
}
