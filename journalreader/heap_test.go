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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/logreaders/entry"
)

func TestRingHeapPopsSmallestKeyFirst(t *testing.T) {
	var h ringHeap
	heap.Init(&h)

	heap.Push(&h, ringItem{key: entry.Key{Instant: 300, Encounter: 2}})
	heap.Push(&h, ringItem{key: entry.Key{Instant: 100, Encounter: 0}})
	heap.Push(&h, ringItem{key: entry.Key{Instant: 200, Encounter: 1}})

	var order []entry.Instant
	for h.Len() > 0 {
		order = append(order, heap.Pop(&h).(ringItem).key.Instant)
	}
	require.Equal(t, []entry.Instant{100, 200, 300}, order)
}

func TestRingHeapTieBreaksByEncounter(t *testing.T) {
	var h ringHeap
	heap.Init(&h)

	heap.Push(&h, ringItem{key: entry.Key{Instant: 100, Encounter: 5}})
	heap.Push(&h, ringItem{key: entry.Key{Instant: 100, Encounter: 1}})

	first := heap.Pop(&h).(ringItem)
	require.Equal(t, int64(1), first.key.Encounter)
}
