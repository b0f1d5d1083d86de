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

package eventstream

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream(t *testing.T) {
	t.Run("Message accessors", func(t *testing.T) {
		msg := NewMessage("topic", "payload")
		require.Equal(t, "topic", msg.Topic())
		require.Equal(t, "payload", msg.Payload())
	})
	t.Run("With Subscriber lifecycle", func(t *testing.T) {
		sub := newSubscriber()
		require.NotEmpty(t, sub.ID())
		require.True(t, sub.Active())

		for range sub.Iterator() {
			require.Fail(t, "iterator should be empty on new subscriber")
		}

		sub.subscribe("a")
		sub.subscribe("b")
		require.Len(t, sub.Topics(), 2)

		sub.signal(NewMessage("a", "one"))
		sub.signal(NewMessage("b", "two"))

		var seen []any
		for msg := range sub.Iterator() {
			seen = append(seen, msg.Payload())
		}
		require.Equal(t, []any{"one", "two"}, seen)

		sub.unsubscribe("a")
		require.Equal(t, []string{"b"}, sub.Topics())

		sub.signal(NewMessage("b", "pending"))
		sub.Shutdown()
		require.False(t, sub.Active())

		sub.signal(NewMessage("b", "three"))
		for range sub.Iterator() {
			require.Fail(t, "iterator should be empty after shutdown")
		}
	})
	t.Run("With publish and subscribe", func(t *testing.T) {
		stream := New()
		t.Cleanup(stream.Close)

		first := stream.AddSubscriber()
		second := stream.AddSubscriber()
		stream.Subscribe(first, "bound")
		stream.Subscribe(second, "bound")
		stream.Subscribe(second, "unloaded")
		assert.Equal(t, 2, stream.SubscribersCount("bound"))
		assert.Equal(t, 1, stream.SubscribersCount("unloaded"))
		assert.Zero(t, stream.SubscribersCount("missing"))

		stream.Publish("bound", "h1")
		stream.Publish("missing", "ignored")
		stream.Publish("bound", "h2")
		stream.Publish("unloaded", "h2")

		var firstSeen []any
		for msg := range first.Iterator() {
			firstSeen = append(firstSeen, msg.Payload())
		}
		assert.Equal(t, []any{"h1", "h2"}, firstSeen)

		topics := map[string]int{}
		for msg := range second.Iterator() {
			topics[msg.Topic()]++
		}
		assert.Equal(t, map[string]int{"bound": 2, "unloaded": 1}, topics)

		stream.Unsubscribe(first, "bound")
		assert.Equal(t, 1, stream.SubscribersCount("bound"))

		stream.RemoveSubscriber(second)
		assert.False(t, second.Active())
		assert.Zero(t, stream.SubscribersCount("bound"))
		assert.Zero(t, stream.SubscribersCount("unloaded"))

		// inactive subscribers cannot subscribe
		stream.Subscribe(second, "bound")
		assert.Zero(t, stream.SubscribersCount("bound"))
	})
	t.Run("With topics given at registration", func(t *testing.T) {
		stream := New()
		t.Cleanup(stream.Close)

		sub := stream.AddSubscriber("bound", "unloaded")
		assert.ElementsMatch(t, []string{"bound", "unloaded"}, sub.Topics())
		assert.Equal(t, 1, stream.SubscribersCount("bound"))
		assert.Equal(t, 1, stream.SubscribersCount("unloaded"))
	})
	t.Run("With full mailbox dropping the oldest messages", func(t *testing.T) {
		stream := New()
		t.Cleanup(stream.Close)
		sub := stream.AddSubscriber("calls")

		for i := range MailboxCapacity + 10 {
			stream.Publish("calls", i)
		}
		assert.EqualValues(t, 10, sub.Dropped())

		var seen []any
		for msg := range sub.Iterator() {
			seen = append(seen, msg.Payload())
		}
		require.Len(t, seen, MailboxCapacity)
		assert.Equal(t, 10, seen[0])
		assert.Equal(t, MailboxCapacity+9, seen[len(seen)-1])

		// draining frees the mailbox
		stream.Publish("calls", "next")
		assert.EqualValues(t, 10, sub.Dropped())
	})
	t.Run("With close", func(t *testing.T) {
		stream := New()
		sub := stream.AddSubscriber()
		stream.Subscribe(sub, "bound")
		stream.Close()
		assert.False(t, sub.Active())
		assert.Zero(t, stream.SubscribersCount("bound"))
	})
	t.Run("With concurrent publishers", func(t *testing.T) {
		stream := New()
		t.Cleanup(stream.Close)
		sub := stream.AddSubscriber()
		stream.Subscribe(sub, "calls")

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				stream.Publish("calls", i)
			}(i)
		}
		wg.Wait()

		count := 0
		for range sub.Iterator() {
			count++
		}
		assert.Equal(t, 50, count)
	})
}
