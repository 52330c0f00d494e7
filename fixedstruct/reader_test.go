/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package fixedstruct

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/logreaders/entry"
)

func encodeRecord(t *testing.T, rt RecordType, pid int32, line, user, host string, when time.Time) []byte {
	t.Helper()
	l, ok := layoutFor(rt)
	require.True(t, ok)

	buf := make([]byte, l.recordSize)
	if l.pidOffset >= 0 {
		binary.LittleEndian.PutUint32(buf[l.pidOffset:], uint32(pid))
	}
	copy(buf[l.lineOffset:l.lineOffset+l.lineLen], line)
	if l.userOffset >= 0 {
		copy(buf[l.userOffset:l.userOffset+l.userLen], user)
	}
	copy(buf[l.hostOffset:l.hostOffset+l.hostLen], host)
	binary.LittleEndian.PutUint32(buf[l.tvSecOffset:], uint32(when.Unix()))
	if l.tvUsecOffset >= 0 {
		binary.LittleEndian.PutUint32(buf[l.tvUsecOffset:], 0)
	}
	return buf
}

func writeFixture(t *testing.T, name string, blocks ...[]byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	var content []byte
	for _, b := range blocks {
		content = append(content, b...)
	}
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func sentinelBlock(rt RecordType) []byte {
	l, _ := layoutFor(rt)
	return make([]byte, l.recordSize)
}

func TestConstructEmptyFile(t *testing.T) {
	path := writeFixture(t, "utmp", nil)
	_, err := Construct(Config{Path: path, RecordType: Utmpx})
	require.ErrorIs(t, err, ErrFileEmpty)
}

func TestConstructFileTooSmall(t *testing.T) {
	path := writeFixture(t, "utmp", []byte{1, 2, 3})
	_, err := Construct(Config{Path: path, RecordType: Utmpx})
	require.ErrorIs(t, err, ErrFileTooSmall)
}

func TestConstructAllSentinelsIsNoValidRecord(t *testing.T) {
	path := writeFixture(t, "utmp", sentinelBlock(Utmpx), sentinelBlock(Utmpx))
	_, err := Construct(Config{Path: path, RecordType: Utmpx})
	require.ErrorIs(t, err, ErrNoValidRecord)
}

func TestConstructCollapsedWindowAtExactInstant(t *testing.T) {
	when := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	rec := encodeRecord(t, Utmpx, 100, "tty1", "alice", "host1", when)
	path := writeFixture(t, "utmp", rec)

	at := entry.SomeInstant(entry.FromStandard(when))
	r, err := Construct(Config{Path: path, RecordType: Utmpx, After: at, Before: at})
	require.NoError(t, err)
	defer r.Close()

	res := r.Next()
	require.True(t, res.IsFound())
	got, _ := res.Entry()
	require.Equal(t, entry.FromStandard(when), got.Instant)
}

func TestReaderScenarioThreeRecordsFilteredWindow(t *testing.T) {
	base := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	const n = 1 * time.Second

	r0 := encodeRecord(t, Utmpx, 1, "tty1", "alice", "host1", base)
	r1 := encodeRecord(t, Utmpx, 2, "tty2", "bob", "host1", base.Add(n))
	r2 := encodeRecord(t, Utmpx, 3, "tty3", "carol", "host1", base.Add(2*n))
	path := writeFixture(t, "utmp", r0, r1, r2)

	after := entry.SomeInstant(entry.FromStandard(base.Add(500 * time.Millisecond)))
	before := entry.SomeInstant(entry.FromStandard(base.Add(1500 * time.Millisecond)))

	r, err := Construct(Config{Path: path, RecordType: Utmpx, After: after, Before: before})
	require.NoError(t, err)
	defer r.Close()

	res := r.Next()
	require.True(t, res.IsFound())
	got, _ := res.Entry()
	require.Equal(t, entry.FromStandard(base.Add(n)), got.Instant)
	require.Contains(t, string(got.Bytes), "bob")

	done := r.Next()
	require.True(t, done.IsDone())

	require.GreaterOrEqual(t, r.Summary().Processed, uint64(1))
	require.Equal(t, uint64(1), r.Summary().Accepted)
}

func TestReaderSkipsSentinelHoleBetweenRecords(t *testing.T) {
	base := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	r0 := encodeRecord(t, Utmpx, 1, "tty1", "alice", "host1", base)
	hole := sentinelBlock(Utmpx)
	r1 := encodeRecord(t, Utmpx, 2, "tty2", "bob", "host1", base.Add(time.Second))
	path := writeFixture(t, "utmp", r0, hole, r1)

	r, err := Construct(Config{Path: path, RecordType: Utmpx})
	require.NoError(t, err)
	defer r.Close()

	var seen []string
	for {
		res := r.Next()
		if res.IsDone() {
			break
		}
		require.True(t, res.IsFound())
		got, _ := res.Entry()
		seen = append(seen, string(got.Bytes))
	}
	require.Len(t, seen, 2)
	require.Equal(t, uint64(2), r.Summary().Processed)
}

func TestReaderInfersRecordTypeFromPath(t *testing.T) {
	when := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	rec := encodeRecord(t, Lastlog, 0, "tty1", "", "host1", when)
	path := writeFixture(t, "lastlog", rec)

	r, err := Construct(Config{Path: path})
	require.NoError(t, err)
	defer r.Close()

	res := r.Next()
	require.True(t, res.IsFound())
}

func TestReaderOutOfOrderRecordsStillEmitInTimestampOrder(t *testing.T) {
	base := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	// File order is 3, 1, 2 by timestamp; the reorder ring must emit 1, 2, 3.
	r2 := encodeRecord(t, Utmpx, 3, "tty3", "carol", "host1", base.Add(2*time.Second))
	r0 := encodeRecord(t, Utmpx, 1, "tty1", "alice", "host1", base)
	r1 := encodeRecord(t, Utmpx, 2, "tty2", "bob", "host1", base.Add(time.Second))
	path := writeFixture(t, "utmp", r2, r0, r1)

	r, err := Construct(Config{Path: path, RecordType: Utmpx})
	require.NoError(t, err)
	defer r.Close()

	var instants []entry.Instant
	for {
		res := r.Next()
		if res.IsDone() {
			break
		}
		require.True(t, res.IsFound())
		got, _ := res.Entry()
		instants = append(instants, got.Instant)
	}
	require.Len(t, instants, 3)
	for i := 1; i < len(instants); i++ {
		require.True(t, instants[i-1].Before(instants[i]) || instants[i-1].Equal(instants[i]))
	}
	require.Equal(t, uint64(1), r.Summary().OutOfOrder)
}

func TestReaderSummaryIncludesBlockCacheStats(t *testing.T) {
	base := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	r0 := encodeRecord(t, Utmpx, 1, "tty1", "alice", "host1", base)
	path := writeFixture(t, "utmp", r0)

	r, err := Construct(Config{Path: path, RecordType: Utmpx})
	require.NoError(t, err)
	defer r.Close()

	res := r.Next()
	require.True(t, res.IsFound())

	stats := r.Summary().CacheStats
	require.Greater(t, stats.Hit+stats.Miss, uint64(0))
}
