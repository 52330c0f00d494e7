/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package journalreader

import (
	"container/heap"

	"github.com/gravwell/logreaders/entry"
)

// ringItem is one entry waiting in the reorder ring, keyed by
// (effective_instant, ring_index) per §4.2.
type ringItem struct {
	key   entry.Key
	entry entry.LogEntry
}

// ringHeap is a min-heap over ringItem ordered by entry.Key, giving
// "pop the smallest key" in O(log RING) as required by §4.2 step 2.
type ringHeap []ringItem

func (h ringHeap) Len() int            { return len(h) }
func (h ringHeap) Less(i, j int) bool  { return h[i].key.Less(h[j].key) }
func (h ringHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *ringHeap) Push(x interface{}) { *h = append(*h, x.(ringItem)) }
func (h *ringHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*ringHeap)(nil)
