/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package blockreader specifies (and provides one default implementation
// of) the random-access, cached block I/O primitive FixedStructReader sits
// on top of (§2 step 2, §4.4 "Cache discipline"). The primitive itself is
// external to the CORE per spec.md §1; only the interface is specified
// there. This default is LRU-backed and good enough to exercise and test
// FixedStructReader standalone.
package blockreader

import (
	"container/list"
	"fmt"
	"io"
	"os"
	"sync"
)

// CacheStats tracks hit/miss/drop counters (§2 step 2).
type CacheStats struct {
	Hit  uint64
	Miss uint64
	Drop uint64
}

// BlockReader is the external interface FixedStructReader depends on.
type BlockReader interface {
	// ReadBlockAt returns exactly blockSize bytes starting at offset, or an
	// error (including io.EOF when offset is at or past the end of file).
	ReadBlockAt(offset int64) ([]byte, error)
	// DropEntries permits blocks strictly below offset to be evicted. It is
	// advisory and must be idempotent.
	DropEntries(offset int64) error
	// Stats returns a snapshot of the cache counters.
	Stats() CacheStats
	// Close releases the underlying file handle.
	Close() error
}

type cachedReader struct {
	f         *os.File
	blockSize int
	maxBlocks int

	mtx     sync.Mutex
	entries map[int64]*list.Element // offset -> lru element
	lru     *list.List              // front = most recently used
	stats   CacheStats
}

type cacheEntry struct {
	offset int64
	data   []byte
}

// New constructs a default LRU-backed BlockReader over f, caching up to
// cacheBlocks blocks of blockSize bytes each.
func New(f *os.File, blockSize, cacheBlocks int) BlockReader {
	if blockSize <= 0 {
		blockSize = 4096
	}
	if cacheBlocks <= 0 {
		cacheBlocks = 64
	}
	return &cachedReader{
		f:         f,
		blockSize: blockSize,
		maxBlocks: cacheBlocks,
		entries:   make(map[int64]*list.Element),
		lru:       list.New(),
	}
}

func (c *cachedReader) ReadBlockAt(offset int64) ([]byte, error) {
	c.mtx.Lock()
	if el, ok := c.entries[offset]; ok {
		c.lru.MoveToFront(el)
		c.stats.Hit++
		data := el.Value.(*cacheEntry).data
		c.mtx.Unlock()
		return data, nil
	}
	c.stats.Miss++
	c.mtx.Unlock()

	buff := make([]byte, c.blockSize)
	n, err := c.f.ReadAt(buff, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("blockreader: read at %d: %w", offset, err)
	}
	if n < c.blockSize {
		return nil, io.EOF
	}

	c.mtx.Lock()
	el := c.lru.PushFront(&cacheEntry{offset: offset, data: buff})
	c.entries[offset] = el
	if c.lru.Len() > c.maxBlocks {
		back := c.lru.Back()
		c.lru.Remove(back)
		delete(c.entries, back.Value.(*cacheEntry).offset)
	}
	c.mtx.Unlock()
	return buff, nil
}

// DropEntries evicts cached blocks strictly below offset. Dropping an
// offset with nothing cached there is a silent no-op (idempotence is the
// caller's invariant to enforce at the entry counting level, per §4.4; this
// cache only needs to not panic or double-free on a repeat call).
func (c *cachedReader) DropEntries(offset int64) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	for off, el := range c.entries {
		if off < offset {
			c.lru.Remove(el)
			delete(c.entries, off)
			c.stats.Drop++
		}
	}
	return nil
}

func (c *cachedReader) Stats() CacheStats {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.stats
}

func (c *cachedReader) Close() error {
	return c.f.Close()
}
