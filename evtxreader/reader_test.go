/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package evtxreader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/logreaders/entry"
	gwlog "github.com/gravwell/logreaders/log"
)

// fakeParser hands back a fixed, preordered sequence of records, mimicking
// the external parser without needing a real .evtx fixture on disk.
type fakeParser struct {
	recs   []Record
	errs   []error // parallel to recs; non-nil entries are surfaced instead
	i      int
	closed bool
}

func (p *fakeParser) Next() (Record, error) {
	if p.i >= len(p.recs) {
		return Record{}, ErrParserDone
	}
	idx := p.i
	p.i++
	if p.errs != nil && p.errs[idx] != nil {
		return Record{}, p.errs[idx]
	}
	return p.recs[idx], nil
}

func (p *fakeParser) Close() error {
	p.closed = true
	return nil
}

func mkRecord(seconds int64, body string) Record {
	return Record{
		Instant: entry.FromStandard(time.Unix(seconds, 0).UTC()),
		Bytes:   []byte(body + "\n"),
	}
}

func newTestReader(t *testing.T, recs []Record) *Reader {
	t.Helper()
	r := &Reader{
		parser:  &fakeParser{recs: recs},
		records: make(map[entry.Key]Record),
		log:     gwlog.NewReaderLogger(nil, "evtx"),
	}
	return r
}

func TestBinaryEventReaderInOrderSingleRecord(t *testing.T) {
	r := newTestReader(t, []Record{mkRecord(1000, "one")})
	require.NotNil(t, r)

	require.NoError(t, r.Ingest(entry.Filter{}))
	require.Equal(t, uint64(1), r.Summary().Processed)
	require.Equal(t, uint64(1), r.Summary().Accepted)
	require.Equal(t, uint64(0), r.Summary().OutOfOrder)

	res := r.Next()
	require.True(t, res.IsFound())
	e, _ := res.Entry()
	require.Equal(t, "one\n", string(e.Bytes))

	require.True(t, r.Next().IsDone())
}

func TestBinaryEventReaderOutOfOrderThreeRecords(t *testing.T) {
	// T2, T1, T3 arriving in that order: exactly one inversion (T2 > T1),
	// emission must still come out T1, T2, T3.
	t1 := mkRecord(100, "T1")
	t2 := mkRecord(200, "T2")
	t3 := mkRecord(300, "T3")

	r := newTestReader(t, []Record{t2, t1, t3})

	require.NoError(t, r.Ingest(entry.Filter{}))
	require.Equal(t, uint64(3), r.Summary().Processed)
	require.Equal(t, uint64(3), r.Summary().Accepted)
	require.Equal(t, uint64(1), r.Summary().OutOfOrder)

	var order []string
	for {
		res := r.Next()
		if res.IsDone() {
			break
		}
		require.True(t, res.IsFound())
		e, _ := res.Entry()
		order = append(order, string(e.Bytes))
	}
	require.Equal(t, []string{"T1\n", "T2\n", "T3\n"}, order)
}

func TestBinaryEventReaderAbsorbsPerRecordError(t *testing.T) {
	r := newTestReader(t, []Record{mkRecord(1, "ok")})
	r.parser = &fakeParser{
		recs: []Record{{}, mkRecord(5, "ok")},
		errs: []error{errBoom, nil},
	}

	require.NoError(t, r.Ingest(entry.Filter{}))
	require.Equal(t, uint64(1), r.Summary().Processed)
	require.Equal(t, uint64(1), r.Summary().Accepted)
	require.NotEmpty(t, r.Summary().Error)
}

func TestBinaryEventReaderNextBeforeIngest(t *testing.T) {
	r := newTestReader(t, nil)
	res := r.Next()
	require.True(t, res.IsErr())
}

var errBoom = &testErr{"boom"}

type testErr struct{ s string }

func (e *testErr) Error() string { return e.s }
