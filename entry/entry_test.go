/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantRoundTrip(t *testing.T) {
	now := time.Date(2020, 5, 25, 17, 59, 15, 554_000_000, time.UTC)
	i := FromStandard(now)
	assert.Equal(t, now, i.StandardTime())

	buff := make([]byte, InstantSize)
	i.Encode(buff)
	var got Instant
	require.NoError(t, got.Decode(buff))
	assert.Equal(t, i, got)
}

func TestInstantDecodeShortBuffer(t *testing.T) {
	var i Instant
	require.ErrorIs(t, i.Decode([]byte{1, 2, 3}), ErrInstantDataSizeInvalid)
}

func TestKeyOrdering(t *testing.T) {
	a := Key{Instant: 100, Encounter: 2}
	b := Key{Instant: 100, Encounter: 1}
	c := Key{Instant: 50, Encounter: 99}

	assert.True(t, b.Less(a))
	assert.False(t, a.Less(b))
	assert.True(t, c.Less(a))
	assert.Equal(t, 0, a.Compare(Key{Instant: 100, Encounter: 2}))
}

func TestFilterNoBounds(t *testing.T) {
	var f Filter
	assert.Equal(t, InRange, f.Pass(12345))
	assert.True(t, f.IsZero())
}

func TestFilterBothBounds(t *testing.T) {
	f := Filter{AfterOrAt: SomeInstant(10), BeforeOrAt: SomeInstant(20)}
	assert.Equal(t, BeforeRange, f.Pass(9))
	assert.Equal(t, InRange, f.Pass(10))
	assert.Equal(t, InRange, f.Pass(15))
	assert.Equal(t, InRange, f.Pass(20))
	assert.Equal(t, AfterRange, f.Pass(21))
}

func TestFilterCollapsedRange(t *testing.T) {
	f := Filter{AfterOrAt: SomeInstant(42), BeforeOrAt: SomeInstant(42)}
	assert.Equal(t, InRange, f.Pass(42))
}

func TestLogEntryValidate(t *testing.T) {
	ok := LogEntry{Bytes: []byte("hello\n"), DtSlice: DtSlice{0, 5}}
	require.NoError(t, ok.Validate())
	assert.Equal(t, []byte("hello"), ok.DatetimeText())

	noNL := LogEntry{Bytes: []byte("hello")}
	require.ErrorIs(t, noNL.Validate(), ErrEntryMissingTrailingNewline)

	badSlice := LogEntry{Bytes: []byte("hi\n"), DtSlice: DtSlice{2, 1}}
	require.ErrorIs(t, badSlice.Validate(), ErrEntryBadDtSlice)
}

func TestSummaryIsSnapshot(t *testing.T) {
	var s Summary
	s.ObserveProcessed(100)
	s.ObserveProcessed(50)
	s.ObserveAccepted(100)

	first := s
	second := s
	assert.Equal(t, first, second)
	assert.Equal(t, uint64(2), s.Processed)
	assert.Equal(t, uint64(1), s.Accepted)
	assert.Equal(t, Instant(50), s.FirstProcessed.Instant)
	assert.Equal(t, Instant(100), s.LastProcessed.Instant)
}

func TestNextResultKinds(t *testing.T) {
	e := LogEntry{Bytes: []byte("x\n")}
	r := Found(e)
	got, ok := r.Entry()
	require.True(t, ok)
	assert.Equal(t, e, got)
	assert.True(t, r.IsFound())

	d := Done()
	assert.True(t, d.IsDone())

	ei := ErrIgnore(ErrEntryBadDtSlice)
	assert.True(t, ei.IsErrIgnore())
	assert.Error(t, ei.Error())

	ef := Err(ErrEntryMissingTrailingNewline)
	assert.True(t, ef.IsErr())
}
