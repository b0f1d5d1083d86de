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

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// MailboxCapacity bounds the messages a subscriber keeps between two drains.
// Once full, the oldest message is dropped for each new one.
const MailboxCapacity = 1024

// Subscriber receives the messages published on its topics
type Subscriber interface {
	// ID returns the subscriber unique identifier
	ID() string
	// Active returns false once the subscriber has been shut down
	Active() bool
	// Topics returns the topics the subscriber listens to
	Topics() []string
	// Iterator drains the queued messages in arrival order
	Iterator() chan *Message
	// Shutdown stops the subscriber and drops the queued messages
	Shutdown()
	// Dropped returns the number of messages lost to a full mailbox
	Dropped() int64
	signal(message *Message)
	subscribe(topic string)
	unsubscribe(topic string)
}

type subscriber struct {
	id      string
	topics  mapset.Set[string]
	active  *atomic.Bool
	dropped *atomic.Int64

	mu      sync.Mutex
	mailbox []*Message
}

var _ Subscriber = (*subscriber)(nil)

func newSubscriber() *subscriber {
	return &subscriber{
		id:      uuid.NewString(),
		topics:  mapset.NewSet[string](),
		active:  atomic.NewBool(true),
		dropped: atomic.NewInt64(0),
	}
}

func (x *subscriber) ID() string {
	return x.id
}

func (x *subscriber) Active() bool {
	return x.active.Load()
}

func (x *subscriber) Topics() []string {
	return x.topics.ToSlice()
}

func (x *subscriber) Shutdown() {
	x.active.Store(false)
	x.mu.Lock()
	x.mailbox = nil
	x.mu.Unlock()
}

func (x *subscriber) Iterator() chan *Message {
	x.mu.Lock()
	pending := x.mailbox
	x.mailbox = nil
	x.mu.Unlock()

	out := make(chan *Message, len(pending))
	for _, msg := range pending {
		out <- msg
	}
	close(out)
	return out
}

func (x *subscriber) signal(message *Message) {
	x.mu.Lock()
	defer x.mu.Unlock()
	// checked under the lock so that Shutdown cannot be followed by a queued message
	if !x.active.Load() {
		return
	}
	if len(x.mailbox) >= MailboxCapacity {
		x.mailbox[0] = nil
		x.mailbox = x.mailbox[1:]
		x.dropped.Inc()
	}
	x.mailbox = append(x.mailbox, message)
}

func (x *subscriber) Dropped() int64 {
	return x.dropped.Load()
}

func (x *subscriber) subscribe(topic string) {
	x.topics.Add(topic)
}

func (x *subscriber) unsubscribe(topic string) {
	x.topics.Remove(topic)
}
