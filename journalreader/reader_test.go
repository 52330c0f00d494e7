/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package journalreader

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/logreaders/entry"
)

// fakeHandle scripts a sequence of journal entries as realtime/message pairs,
// letting tests drive Reader.Next without a real libsystemd.
type fakeHandle struct {
	realtimes []uint64
	messages  []string
	idx       int
	closed    bool
}

func (f *fakeHandle) SeekHead() error               { return nil }
func (f *fakeHandle) SeekRealtimeUsec(uint64) error { return nil }
func (f *fakeHandle) GetCursor() (string, error)    { return fmt.Sprintf("cursor-%d", f.idx), nil }
func (f *fakeHandle) Close() error                  { f.closed = true; return nil }

func (f *fakeHandle) Next() (bool, error) {
	if f.idx >= len(f.realtimes) {
		return false, nil
	}
	return true, nil
}

func (f *fakeHandle) GetRealtimeUsec() (uint64, error) {
	return f.realtimes[f.idx], nil
}

func (f *fakeHandle) EnumerateAllFields() (map[string][]byte, error) {
	msg := f.messages[f.idx]
	f.idx++
	return map[string][]byte{
		"MESSAGE":           []byte(msg),
		"_HOSTNAME":         []byte("host"),
		"SYSLOG_IDENTIFIER": []byte("svc"),
		"_PID":              []byte("1"),
	}, nil
}

func newTestReader(h handle, policy Policy) *Reader {
	return &Reader{
		mode:   Short,
		policy: policy,
		handle: h,
	}
}

func drain(t *testing.T, r *Reader, before entry.OptionalInstant) []string {
	t.Helper()
	var msgs []string
	for {
		res := r.Next(before)
		if res.IsDone() {
			break
		}
		require.True(t, res.IsFound(), "unexpected non-Found result: %#v", res)
		e, _ := res.Entry()
		msgs = append(msgs, string(e.Bytes))
	}
	return msgs
}

func TestJournalReaderPreferRealtimeBypassesRing(t *testing.T) {
	h := &fakeHandle{
		realtimes: []uint64{3_000_000, 1_000_000, 2_000_000},
		messages:  []string{"third", "first", "second"},
	}
	r := newTestReader(h, PreferRealtime)
	r.prepared = true

	msgs := drain(t, r, entry.OptionalInstant{})
	require.Len(t, msgs, 3)
	// PreferRealtime bypasses the ring entirely, so entries come back in
	// API (encounter) order even though they're not timestamp-sorted.
	require.Contains(t, msgs[0], "third")
	require.Contains(t, msgs[1], "first")
	require.Contains(t, msgs[2], "second")
}

func TestJournalReaderAutoDetectReordersWithinRing(t *testing.T) {
	h := &fakeHandle{
		realtimes: []uint64{3_000_000, 1_000_000, 2_000_000},
		messages:  []string{"third", "first", "second"},
	}
	r := newTestReader(h, AutoDetect)
	r.prepared = true

	msgs := drain(t, r, entry.OptionalInstant{})
	require.Len(t, msgs, 3)
	require.Contains(t, msgs[0], "first")
	require.Contains(t, msgs[1], "second")
	require.Contains(t, msgs[2], "third")
}

func TestJournalReaderBeforeCutoffStopsEarly(t *testing.T) {
	h := &fakeHandle{
		realtimes: []uint64{1_000_000, 2_000_000, 3_000_000, 4_000_000},
		messages:  []string{"one", "two", "three", "four"},
	}
	r := newTestReader(h, AutoDetect)
	r.prepared = true

	before := entry.SomeInstant(entry.FromUnixMicro(3_000_000))
	msgs := drain(t, r, before)
	require.Len(t, msgs, 2)
	require.Equal(t, uint64(3), r.Summary().Processed)
}

func TestJournalReaderNextBeforePrepareErrs(t *testing.T) {
	h := &fakeHandle{}
	r := newTestReader(h, AutoDetect)

	res := r.Next(entry.OptionalInstant{})
	require.True(t, res.IsErr())
}

func TestJournalReaderFaultInjectionYieldsErr(t *testing.T) {
	h := &fakeHandle{
		realtimes: []uint64{1_000_000, 2_000_000},
		messages:  []string{"one", "two"},
	}
	r := newTestReader(h, AutoDetect)
	r.prepared = true
	r.fault = &FaultRange{Lo: 1, Hi: 2, Err: fmt.Errorf("synthetic fault")}

	res := r.Next(entry.OptionalInstant{})
	require.True(t, res.IsErr())
	require.Contains(t, res.Error().Error(), "synthetic fault")
}

func TestJournalReaderSummaryAPICallsCounted(t *testing.T) {
	h := &fakeHandle{
		realtimes: []uint64{1_000_000, 2_000_000},
		messages:  []string{"one", "two"},
	}
	r := newTestReader(h, PreferRealtime)
	r.prepared = true

	drain(t, r, entry.OptionalInstant{})
	require.GreaterOrEqual(t, r.Summary().APICalls, 2)
}
