// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package prioqueue provides a min-heap of 256-bit priorities.
package prioqueue

import (
	"container/heap"

	"github.com/decred/dcrd/math/uint256"
)

// ErrEmptyQueue is returned when the minimum of an empty queue is requested.
const ErrEmptyQueue = queueError("priority queue is empty")

// queueError is the error type of the errors returned by the package.
type queueError string

// Error satisfies the error interface.
func (e queueError) Error() string {
	return string(e)
}

// priorityHeap implements heap.Interface over uint256 priorities ordered from
// lowest to highest.
type priorityHeap struct {
	items []uint256.Uint256
}

// Len returns the number of items in the heap.  It is part of the
// heap.Interface implementation.
func (h *priorityHeap) Len() int {
	return len(h.items)
}

// Less returns whether the item with index i should sort before the item
// with index j.  It is part of the heap.Interface implementation.
func (h *priorityHeap) Less(i, j int) bool {
	return h.items[i].Lt(&h.items[j])
}

// Swap swaps the items at the passed indices.  It is part of the
// heap.Interface implementation.
func (h *priorityHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

// Push pushes the passed item onto the heap.  It is part of the
// heap.Interface implementation.
func (h *priorityHeap) Push(x interface{}) {
	h.items = append(h.items, x.(uint256.Uint256))
}

// Pop removes the last item of the backing slice and returns it.  It is part
// of the heap.Interface implementation.
func (h *priorityHeap) Pop() interface{} {
	n := len(h.items)
	item := h.items[n-1]
	h.items = h.items[0 : n-1]
	return item
}

// Queue is a min-heap of 256-bit priorities.  Equal priorities may coexist.
//
// The queue is not safe for concurrent access.
type Queue struct {
	h priorityHeap
}

// New returns an empty queue that reserves the passed amount of space for
// the priorities.  The queue can grow larger than the reserved space.
func New(reserve int) *Queue {
	return &Queue{h: priorityHeap{items: make([]uint256.Uint256, 0, reserve)}}
}

// Len returns the number of priorities in the queue.
func (q *Queue) Len() int {
	return q.h.Len()
}

// Insert adds the passed priority to the queue.
func (q *Queue) Insert(priority *uint256.Uint256) {
	heap.Push(&q.h, *priority)
}

// Min returns the smallest priority without removing it.
func (q *Queue) Min() (uint256.Uint256, error) {
	if q.h.Len() == 0 {
		return uint256.Uint256{}, ErrEmptyQueue
	}
	return q.h.items[0], nil
}

// DelMin removes and returns the smallest priority.
func (q *Queue) DelMin() (uint256.Uint256, error) {
	if q.h.Len() == 0 {
		return uint256.Uint256{}, ErrEmptyQueue
	}
	return heap.Pop(&q.h).(uint256.Uint256), nil
}
