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
	"fmt"
	"strconv"
	"time"

	"github.com/gravwell/logreaders/decompress"
	"github.com/gravwell/logreaders/entry"
	gwlog "github.com/gravwell/logreaders/log"
	"github.com/gravwell/logreaders/sdjournal"
)

// Reader is StructuredJournalReader.
type Reader struct {
	path   string
	mode   OutputMode
	tz     int
	policy Policy
	fault  *FaultRange

	handle handle
	size   int64
	mtime  time.Time
	log    *gwlog.Logger

	prepared bool
	ringDone bool
	ring     ringHeap
	ringIdx  int64

	apiCalls int

	havePrevProcessed    bool
	prevProcessedInstant entry.Instant

	summary Summary
}

// Construct opens the journal via sd_journal_open_files with a
// single-element path array. No iteration occurs (§4.2).
func Construct(cfg Config) (*Reader, error) {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = decompress.Default
	}
	resolved, err := resolver.Resolve(cfg.Path, cfg.FileType)
	if err != nil {
		return nil, fmt.Errorf("journalreader: resolve %s: %w", cfg.Path, err)
	}

	h := cfg.Handle
	if h == nil {
		h, err = sdjournal.OpenFiles([]string{resolved.Path})
		if err != nil {
			return nil, fmt.Errorf("journalreader: open %s: %w", cfg.Path, err)
		}
	}

	policy := cfg.TimestampPolicy
	if policy == PolicyUnset {
		policy = AutoDetect
	}

	r := &Reader{
		path:   cfg.Path,
		mode:   cfg.Mode,
		tz:     cfg.TZOffsetMinutes,
		policy: policy,
		fault:  cfg.FaultInjection,
		handle: h,
		size:   resolved.Size,
		mtime:  resolved.MTime,
		log:    gwlog.NewReaderLogger(cfg.Logger, "journal"),
	}
	heap.Init(&r.ring)
	r.log.Debug("constructed", gwlog.KV("path", cfg.Path), gwlog.KV("mode", r.mode.String()))
	return r, nil
}

// Prepare seeks the journal cursor to the start of the requested window.
func (r *Reader) Prepare(after entry.OptionalInstant) error {
	var err error
	if after.Valid {
		err = r.handle.SeekRealtimeUsec(uint64(after.Instant.UnixMicro()))
	} else {
		err = r.handle.SeekHead()
	}
	if err != nil {
		return fmt.Errorf("journalreader: prepare: %w", err)
	}
	r.prepared = true
	return nil
}

type pullStatus int

const (
	pullOk pullStatus = iota
	pullDone
	pullFiltered
	pullErrIgnore
	pullErr
)

type pullOutcome struct {
	item ringItem
	err  error
}

// pullOne performs exactly one sd_journal_next advance plus the field
// fetches needed to format and order that entry (§4.2 step 2).
func (r *Reader) pullOne(before entry.OptionalInstant) (pullOutcome, pullStatus) {
	r.apiCalls++
	if r.fault != nil && r.apiCalls >= r.fault.Lo && r.apiCalls < r.fault.Hi {
		return pullOutcome{err: r.fault.Err}, pullErr
	}

	ok, err := r.handle.Next()
	if err != nil {
		return pullOutcome{err: fmt.Errorf("journalreader: next: %w", err)}, pullErr
	}
	if !ok {
		return pullOutcome{}, pullDone
	}

	realtimeUsec, err := r.handle.GetRealtimeUsec()
	if err != nil {
		return pullOutcome{err: fmt.Errorf("journalreader: get_realtime_usec: %w", err)}, pullErrIgnore
	}

	allFields, err := r.handle.EnumerateAllFields()
	if err != nil {
		return pullOutcome{err: fmt.Errorf("journalreader: enumerate_data: %w", err)}, pullErrIgnore
	}

	var sourceRT uint64
	haveSourceRT := false
	if raw, ok := allFields[fieldSourceRealtimeTimestamp]; ok {
		if v, perr := strconv.ParseUint(string(raw), 10, 64); perr == nil {
			sourceRT = v
			haveSourceRT = true
		}
	}

	effUsec, usedSource := pickEffective(r.policy, realtimeUsec, sourceRT, haveSourceRT)
	effInstant := entry.FromUnixMicro(int64(effUsec))

	tsSource := entry.Primary
	var sourceInstant entry.OptionalInstant
	if haveSourceRT {
		sourceInstant = entry.SomeInstant(entry.FromUnixMicro(int64(sourceRT)))
	}
	if usedSource {
		tsSource = entry.Secondary
	}

	r.summary.ObserveProcessed(effInstant)
	if r.havePrevProcessed && r.prevProcessedInstant.After(effInstant) {
		r.summary.OutOfOrder++
	}
	r.prevProcessedInstant = effInstant
	r.havePrevProcessed = true

	if before.Valid && !effInstant.Before(before.Instant) {
		return pullOutcome{}, pullFiltered
	}

	cursor, _ := r.handle.GetCursor()
	ff := fields{
		data:           allFields,
		realtimeUsec:   realtimeUsec,
		sourceRealtime: sourceRT,
		haveSourceRT:   haveSourceRT,
		cursor:         cursor,
	}
	le := render(r.mode, ff, r.tz, effInstant, tsSource, sourceInstant)
	r.summary.ObserveAccepted(effInstant)

	idx := r.ringIdx
	r.ringIdx++
	return pullOutcome{item: ringItem{key: entry.Key{Instant: effInstant, Encounter: idx}, entry: le}}, pullOk
}

// pickEffective returns the effective timestamp per the reader's policy,
// plus whether that value came from the source-realtime field rather than
// realtime (§3 "timestamp_source").
func pickEffective(policy Policy, realtime, sourceRT uint64, haveSourceRT bool) (uint64, bool) {
	switch policy {
	case PreferRealtime:
		return realtime, false
	case PreferSourceRealtime:
		if haveSourceRT {
			return sourceRT, true
		}
		return realtime, false
	default: // AutoDetect
		if haveSourceRT {
			return sourceRT, true
		}
		return realtime, false
	}
}

// Next implements §4.2 step 3. PreferRealtime bypasses the reorder ring
// entirely; the other two policies fill the ring to RING capacity (or
// until the source/​before-cutoff is reached) and then pop the smallest
// key, draining the remainder across subsequent calls once the source is
// exhausted.
func (r *Reader) Next(before entry.OptionalInstant) entry.NextResult {
	if !r.prepared {
		err := fmt.Errorf("journalreader: Next called before Prepare")
		r.log.Error("next called before prepare", gwlog.KVErr(err))
		return entry.Err(err)
	}

	if r.policy == PreferRealtime {
		outcome, status := r.pullOne(before)
		switch status {
		case pullOk:
			return entry.Found(outcome.item.entry)
		case pullDone, pullFiltered:
			return entry.Done()
		case pullErrIgnore:
			r.log.Warn("record fetch error", gwlog.KVErr(outcome.err))
			return entry.ErrIgnore(outcome.err)
		default:
			r.log.Error("fatal journal error", gwlog.KVErr(outcome.err))
			return entry.Err(outcome.err)
		}
	}

	if !r.ringDone {
		for r.ring.Len() < RING {
			outcome, status := r.pullOne(before)
			switch status {
			case pullOk:
				heap.Push(&r.ring, outcome.item)
			case pullDone, pullFiltered:
				r.ringDone = true
			case pullErrIgnore:
				r.log.Warn("record fetch error", gwlog.KVErr(outcome.err))
				return entry.ErrIgnore(outcome.err)
			case pullErr:
				r.log.Error("fatal journal error", gwlog.KVErr(outcome.err))
				return entry.Err(outcome.err)
			}
			if r.ringDone {
				break
			}
		}
	}

	if r.ring.Len() == 0 {
		return entry.Done()
	}
	popped := heap.Pop(&r.ring).(ringItem)
	return entry.Found(popped.entry)
}

// Summary returns a consistent, non-mutating snapshot.
func (r *Reader) Summary() Summary {
	s := r.summary
	s.APICalls = r.apiCalls
	return s
}

// Close releases the journal handle. Idempotent (§9).
func (r *Reader) Close() error {
	return r.handle.Close()
}
