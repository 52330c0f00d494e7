/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package fixedstruct

import (
	"bytes"
	"container/heap"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gravwell/logreaders/blockreader"
	"github.com/gravwell/logreaders/decompress"
	"github.com/gravwell/logreaders/entry"
	gwlog "github.com/gravwell/logreaders/log"
)

// ringCap bounds how many decoded records Reader holds at once to absorb
// local out-of-order runs (§4.4 "Ordering") before it must emit the
// smallest one. utmpx/wtmp files are rarely reordered by more than a
// handful of records around a clock step, so this is far smaller than
// journalreader's RING.
const ringCap = 64

func fileTypeFor(t RecordType) decompress.FileType {
	switch t {
	case Utmpx:
		return decompress.FileTypeUtmpx
	case Lastlog:
		return decompress.FileTypeLastlog
	default:
		return decompress.FileTypeUnknown
	}
}

// Reader implements FixedStructReader (§4.4): a validity-scanned,
// sentinel-skipping, reorder-buffered walk over a fixed-record-size file.
type Reader struct {
	recType    RecordType
	recordSize int
	tz         int
	filter     entry.Filter

	br  blockreader.BlockReader
	log *gwlog.Logger

	size  int64
	mtime time.Time

	cursor   int64
	eof      bool
	fatalErr error

	havePrevProcessed bool
	prevProcessed     entry.Instant

	ring           orderHeap
	droppedThrough int64
	haveDropped    bool

	summary Summary
}

// Construct performs the validity scan of §4.4 "Construction": it infers
// or validates the record type, opens (or adopts) a BlockReader sized to
// that type's record geometry, and samples up to validityScanLimit
// candidate records to decide whether this file is worth reading at all.
func Construct(cfg Config) (*Reader, error) {
	recType := cfg.RecordType
	if recType == RecordTypeUnknown {
		if inferred, ok := inferRecordType(cfg.Path); ok {
			recType = inferred
		} else {
			return nil, fmt.Errorf("fixedstruct: cannot infer record type for %s and none was given", cfg.Path)
		}
	}
	l, ok := layoutFor(recType)
	if !ok {
		return nil, fmt.Errorf("fixedstruct: unknown record type %v", recType)
	}

	resolver := cfg.Reader
	var (
		br    blockreader.BlockReader
		size  int64
		mtime time.Time
	)
	if resolver == nil {
		res := decompress.Default
		resolved, err := res.Resolve(cfg.Path, fileTypeFor(recType))
		if err != nil {
			return nil, fmt.Errorf("fixedstruct: resolve %s: %w", cfg.Path, err)
		}
		size, mtime = resolved.Size, resolved.MTime

		f, err := os.Open(resolved.Path)
		if err != nil {
			return nil, fmt.Errorf("fixedstruct: open %s: %w", resolved.Path, err)
		}
		cacheBlocks := cfg.BlockSize
		if cacheBlocks <= 0 {
			cacheBlocks = 64
		}
		br = blockreader.New(f, l.recordSize, cacheBlocks)
	} else {
		br = resolver
		fi, err := os.Stat(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("fixedstruct: stat %s: %w", cfg.Path, err)
		}
		size, mtime = fi.Size(), fi.ModTime()
	}

	if size == 0 {
		return nil, ErrFileEmpty
	}
	if size < int64(l.recordSize) {
		return nil, ErrFileTooSmall
	}

	filter := entry.Filter{AfterOrAt: cfg.After, BeforeOrAt: cfg.Before}

	validFound, inWindowFound := 0, 0
	for i := 0; i < validityScanLimit; i++ {
		off := int64(i) * int64(l.recordSize)
		buf, err := br.ReadBlockAt(off)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fixedstruct: validity scan read at %d: %w", off, err)
		}
		if isSentinel(buf) {
			continue
		}
		rec, err := decode(recType, cfg.TZOffsetMinutes, buf)
		if err != nil {
			continue
		}
		if plausibilityScore(rec) < plausibilityThreshold {
			continue
		}
		validFound++
		if filter.Pass(rec.Time) == entry.InRange {
			inWindowFound++
		}
	}
	if validFound == 0 {
		return nil, ErrNoValidRecord
	}
	if !filter.IsZero() && inWindowFound == 0 {
		return nil, ErrNoRecordInWindow
	}

	r := &Reader{
		recType:    recType,
		recordSize: l.recordSize,
		tz:         cfg.TZOffsetMinutes,
		filter:     filter,
		br:         br,
		log:        gwlog.NewReaderLogger(cfg.Logger, "fixedstruct"),
		size:       size,
		mtime:      mtime,
	}
	heap.Init(&r.ring)
	r.log.Debug("constructed", gwlog.KV("path", cfg.Path), gwlog.KV("record_type", recType.String()))
	return r, nil
}

// processAt advances the cursor by exactly one record, classifying and
// (if it passes the filter and isn't a sentinel hole) pushing it onto the
// reorder ring. It never blocks on I/O beyond one ReadBlockAt call.
func (r *Reader) processAt() {
	off := r.cursor
	buf, err := r.br.ReadBlockAt(off)
	if err == io.EOF {
		r.eof = true
		return
	}
	if err != nil {
		r.eof = true
		r.fatalErr = fmt.Errorf("fixedstruct: read at %d: %w", off, err)
		return
	}
	r.cursor += int64(r.recordSize)

	if isSentinel(buf) {
		return
	}
	rec, err := decode(r.recType, r.tz, buf)
	if err != nil {
		return
	}

	r.summary.ObserveProcessed(rec.Time)
	if r.havePrevProcessed && rec.Time.Before(r.prevProcessed) {
		r.summary.OutOfOrder++
	}
	r.prevProcessed = rec.Time
	r.havePrevProcessed = true

	if r.filter.Pass(rec.Time) != entry.InRange {
		return
	}
	r.summary.ObserveAccepted(rec.Time)

	heap.Push(&r.ring, orderItem{
		key:        orderKey{ts: rec.Time, firstOffset: off},
		fileoffset: off,
		rec:        rec,
	})
	if uint64(len(r.ring)) > r.summary.MaxOrderedMapSize {
		r.summary.MaxOrderedMapSize = uint64(len(r.ring))
	}
}

// dropEntries applies the cache-discipline rule of §4.4: once an entry at
// fileoffset has been emitted, every block strictly before it is safe to
// evict. droppedThrough guards against issuing a redundant drop for an
// offset (or anything below it) already dropped.
func (r *Reader) dropEntries(fileoffset int64) {
	if r.haveDropped && fileoffset <= r.droppedThrough {
		return
	}
	if err := r.br.DropEntries(fileoffset); err != nil && r.log != nil {
		r.log.Warn("drop entries", gwlog.KVErr(err))
	}
	r.droppedThrough = fileoffset
	r.haveDropped = true
}

// Next implements the Reader iteration contract: it fills the reorder
// ring until it reaches ringCap or the file is exhausted, then emits the
// smallest buffered entry by (timestamp, first file offset).
func (r *Reader) Next() entry.NextResult {
	for !r.eof && len(r.ring) < ringCap {
		r.processAt()
		if r.fatalErr != nil {
			r.log.Error("fatal read error", gwlog.KVErr(r.fatalErr))
			return entry.Err(r.fatalErr)
		}
	}
	if len(r.ring) == 0 {
		return entry.Done()
	}

	item := heap.Pop(&r.ring).(orderItem)
	r.dropEntries(item.fileoffset)

	return entry.Found(renderEntry(item.rec))
}

// renderEntry turns a decoded Record into the uniform LogEntry output,
// locating the rendered timestamp text for DtSlice.
func renderEntry(rec Record) entry.LogEntry {
	line := renderLine(rec)
	ts := rec.Time.StandardTime().Format("Mon Jan  2 15:04:05 2006")
	var dt entry.DtSlice
	if idx := bytes.Index(line, []byte(ts)); idx >= 0 {
		dt = entry.DtSlice{Begin: idx, End: idx + len(ts)}
	}
	return entry.LogEntry{
		Bytes:   line,
		Instant: rec.Time,
		DtSlice: dt,
	}
}

// Summary returns a snapshot of the reader's accounting, including the
// underlying BlockReader's current cache counters.
func (r *Reader) Summary() Summary {
	s := r.summary
	if r.br != nil {
		s.CacheStats = r.br.Stats()
	}
	return s
}

// Close releases the underlying BlockReader.
func (r *Reader) Close() error {
	if r.br == nil {
		return nil
	}
	return r.br.Close()
}

var errRingEmpty = errors.New("fixedstruct: pop from empty ring")

// orderKey is the (timestamp, first file offset) total order of §4.4
// "Ordering": the first offset a timestamp was seen at breaks ties and
// keeps the order stable even across repeated identical-timestamp runs.
type orderKey struct {
	ts          entry.Instant
	firstOffset int64
}

func (k orderKey) less(o orderKey) bool {
	if k.ts != o.ts {
		return k.ts.Before(o.ts)
	}
	return k.firstOffset < o.firstOffset
}

type orderItem struct {
	key        orderKey
	fileoffset int64
	rec        Record
}

// orderHeap is a container/heap min-heap over orderItem by orderKey.
type orderHeap []orderItem

func (h orderHeap) Len() int            { return len(h) }
func (h orderHeap) Less(i, j int) bool  { return h[i].key.less(h[j].key) }
func (h orderHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *orderHeap) Push(x interface{}) { *h = append(*h, x.(orderItem)) }
func (h *orderHeap) Pop() interface{} {
	old := *h
	n := len(old)
	if n == 0 {
		panic(errRingEmpty)
	}
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*orderHeap)(nil)
