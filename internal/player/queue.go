// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

package player

import "sync"

// Queue is a thread-safe FIFO of playback items. The head of the queue
// is the current song.
type Queue struct {
	mu    sync.Mutex
	items []Item
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an item to the end of the queue.
func (q *Queue) Push(it Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, it)
}

// Current returns the item at the head of the queue, false when empty.
func (q *Queue) Current() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Skip drops the current item and returns the new head, false when
// nothing is left to play.
func (q *Queue) Skip() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Item{}, false
	}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// List returns a snapshot of the queued items in play order.
func (q *Queue) List() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of queued items, the current one included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
