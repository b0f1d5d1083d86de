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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/alcproxy/internal/xsync"
)

// Stream fans published messages out to the subscribers of a topic.
// Publishing never blocks: messages are queued in the subscriber mailbox
// until the subscriber drains it.
type Stream interface {
	// AddSubscriber registers a new subscriber listening to the given topics
	AddSubscriber(topics ...string) Subscriber
	// RemoveSubscriber unsubscribes the subscriber from every topic and shuts it down
	RemoveSubscriber(sub Subscriber)
	// Subscribe adds a topic to an active subscriber
	Subscribe(sub Subscriber, topic string)
	// Unsubscribe removes a topic from a subscriber
	Unsubscribe(sub Subscriber, topic string)
	// SubscribersCount returns the number of subscribers of the topic
	SubscribersCount(topic string) int
	// Publish queues msg for the active subscribers of the topic
	Publish(topic string, msg any)
	// Close shuts every subscriber down
	Close()
}

type stream struct {
	subscribers *xsync.Map[string, Subscriber]
	// topics maps a topic to the IDs of its subscribers
	topics *xsync.Map[string, mapset.Set[string]]
}

var _ Stream = (*stream)(nil)

// New creates an empty Stream
func New() Stream {
	return &stream{
		subscribers: xsync.NewMap[string, Subscriber](),
		topics:      xsync.NewMap[string, mapset.Set[string]](),
	}
}

func (s *stream) AddSubscriber(topics ...string) Subscriber {
	sub := newSubscriber()
	s.subscribers.Set(sub.ID(), sub)
	for _, topic := range topics {
		s.Subscribe(sub, topic)
	}
	return sub
}

func (s *stream) RemoveSubscriber(sub Subscriber) {
	for _, topic := range sub.Topics() {
		s.Unsubscribe(sub, topic)
	}
	s.subscribers.Delete(sub.ID())
	sub.Shutdown()
}

func (s *stream) Subscribe(sub Subscriber, topic string) {
	if !sub.Active() {
		return
	}
	sub.subscribe(topic)
	ids, _ := s.topics.LoadOrCompute(topic, func() mapset.Set[string] { return mapset.NewSet[string]() })
	ids.Add(sub.ID())
}

func (s *stream) Unsubscribe(sub Subscriber, topic string) {
	sub.unsubscribe(topic)
	if ids, ok := s.topics.Get(topic); ok {
		ids.Remove(sub.ID())
	}
}

func (s *stream) SubscribersCount(topic string) int {
	if ids, ok := s.topics.Get(topic); ok {
		return ids.Cardinality()
	}
	return 0
}

func (s *stream) Publish(topic string, msg any) {
	ids, ok := s.topics.Get(topic)
	if !ok || ids.Cardinality() == 0 {
		return
	}

	message := NewMessage(topic, msg)
	for _, id := range ids.ToSlice() {
		if sub, ok := s.subscribers.Get(id); ok && sub.Active() {
			sub.signal(message)
		}
	}
}

func (s *stream) Close() {
	for _, sub := range s.subscribers.Values() {
		sub.Shutdown()
	}
	s.subscribers.Reset()
	s.topics.Reset()
}
