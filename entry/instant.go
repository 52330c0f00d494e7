/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package entry holds the data model shared by every Reader: the Instant
// timestamp types, the uniform LogEntry output record, the entry-key total
// order, time-window filters, and the Summary accounting structures.
package entry

import (
	"encoding/binary"
	"errors"
	"time"
)

const (
	// InstantSize is the number of bytes Instant.Encode writes.
	InstantSize int = 8

	microsPerSecond int64 = 1_000_000
)

var ErrInstantDataSizeInvalid = errors.New("byte slice too small to decode an Instant")

// Instant is an absolute point in time with microsecond resolution,
// expressed as microseconds since the Unix epoch (UTC). A bare int64 is
// sufficient for every format this module reads: evtx, journal, ETL/ASL/ODL,
// and fixed-struct account records all carry timestamps at or below
// microsecond precision.
type Instant int64

// Now returns the current instant, truncated to microsecond resolution.
func Now() Instant {
	return FromStandard(time.Now())
}

// FromStandard converts a time.Time to an Instant.
func FromStandard(t time.Time) Instant {
	return Instant(t.Unix()*microsPerSecond + int64(t.Nanosecond())/1000)
}

// FromUnixMicro builds an Instant directly from a microsecond epoch count.
func FromUnixMicro(us int64) Instant {
	return Instant(us)
}

// FromUnixMilli builds an Instant from a millisecond epoch count, as used by
// the subprocess event framing protocol (§4.3).
func FromUnixMilli(ms int64) Instant {
	return Instant(ms * 1000)
}

// StandardTime converts the Instant back to a time.Time in UTC.
func (i Instant) StandardTime() time.Time {
	return time.Unix(int64(i)/microsPerSecond, (int64(i)%microsPerSecond)*1000).UTC()
}

// UnixMicro returns the raw microsecond epoch count.
func (i Instant) UnixMicro() int64 {
	return int64(i)
}

// Before reports whether i occurs strictly before o.
func (i Instant) Before(o Instant) bool { return i < o }

// After reports whether i occurs strictly after o.
func (i Instant) After(o Instant) bool { return i > o }

// Equal reports whether i and o denote the same instant.
func (i Instant) Equal(o Instant) bool { return i == o }

// String renders the instant for diagnostics, not for LogEntry formatting.
func (i Instant) String() string {
	return i.StandardTime().Format(`2006-01-02 15:04:05.999999 -0700 MST`)
}

// Encode writes the instant to buff as a little-endian 8-byte integer. buff
// must be at least InstantSize bytes; the caller is responsible for that.
func (i Instant) Encode(buff []byte) {
	binary.LittleEndian.PutUint64(buff, uint64(i))
}

// Decode reads an instant previously written by Encode.
func (i *Instant) Decode(buff []byte) error {
	if len(buff) < InstantSize {
		return ErrInstantDataSizeInvalid
	}
	*i = Instant(binary.LittleEndian.Uint64(buff))
	return nil
}

// ZonedDateTime is an Instant annotated with a fixed UTC offset, used only
// when rendering a datetime into LogEntry bytes (§3); it carries no
// additional precision over Instant.
type ZonedDateTime struct {
	Instant    Instant
	OffsetMins int // minutes east of UTC
}

// StandardTime returns the zoned instant as a time.Time in its own offset.
func (z ZonedDateTime) StandardTime() time.Time {
	loc := time.FixedZone("", z.OffsetMins*60)
	return z.Instant.StandardTime().In(loc)
}

// OptionalInstant is a nullable Instant. The zero value is "unset".
type OptionalInstant struct {
	Instant Instant
	Valid   bool
}

// SomeInstant wraps a present Instant.
func SomeInstant(i Instant) OptionalInstant {
	return OptionalInstant{Instant: i, Valid: true}
}

// NoInstant is the canonical "unset" OptionalInstant.
var NoInstant = OptionalInstant{}

// Set updates o in place to hold i.
func (o *OptionalInstant) Set(i Instant) {
	o.Instant = i
	o.Valid = true
}

// OptionalZonedDateTime is a nullable ZonedDateTime.
type OptionalZonedDateTime struct {
	ZonedDateTime ZonedDateTime
	Valid         bool
}

// SomeZonedDateTime wraps a present ZonedDateTime.
func SomeZonedDateTime(z ZonedDateTime) OptionalZonedDateTime {
	return OptionalZonedDateTime{ZonedDateTime: z, Valid: true}
}
