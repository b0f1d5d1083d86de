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

package xsync

import "sync"

// Map is a map safe for concurrent use. Readers share a lock; writers are
// exclusive. The zero value is not usable, create one with NewMap.
type Map[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// NewMap creates an empty Map
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{entries: make(map[K]V)}
}

// Get returns the value stored under k
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[k]
	return v, ok
}

// Set stores v under k, replacing any previous value
func (m *Map[K, V]) Set(k K, v V) {
	m.mu.Lock()
	m.entries[k] = v
	m.mu.Unlock()
}

// LoadOrStore returns the value stored under k when there is one and
// otherwise stores v. loaded reports which of the two happened.
func (m *Map[K, V]) LoadOrStore(k K, v V) (actual V, loaded bool) {
	return m.LoadOrCompute(k, func() V { return v })
}

// LoadOrCompute is LoadOrStore with a lazily built value. compute runs at most
// once per stored value, under the write lock, and must not use the map.
func (m *Map[K, V]) LoadOrCompute(k K, compute func() V) (actual V, loaded bool) {
	if v, ok := m.Get(k); ok {
		return v, true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.entries[k]; ok {
		return v, true
	}
	v := compute()
	m.entries[k] = v
	return v, false
}

// Delete removes k
func (m *Map[K, V]) Delete(k K) {
	m.mu.Lock()
	delete(m.entries, k)
	m.mu.Unlock()
}

// Len returns the number of entries
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Values returns a snapshot of the values
func (m *Map[K, V]) Values() []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values := make([]V, 0, len(m.entries))
	for _, v := range m.entries {
		values = append(values, v)
	}
	return values
}

// Reset removes every entry
func (m *Map[K, V]) Reset() {
	m.mu.Lock()
	clear(m.entries)
	m.mu.Unlock()
}
