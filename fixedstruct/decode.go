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
	"fmt"
	"time"

	"github.com/gravwell/logreaders/entry"
)

// Record is one decoded fixed-size entry.
type Record struct {
	Type RecordType
	PID  int32 // utmpx only; 0 for lastlog
	Line string
	User string // utmpx only; empty for lastlog
	Host string
	Time entry.Instant
}

// isSentinel reports whether buf is entirely 0x00, entirely 0xFF, or
// entirely 0xAA (§4.4 "sentinel detection").
func isSentinel(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	return allBytes(buf, 0x00) || allBytes(buf, 0xFF) || allBytes(buf, 0xAA)
}

func allBytes(buf []byte, v byte) bool {
	for _, b := range buf {
		if b != v {
			return false
		}
	}
	return true
}

func cstr(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

func isPrintableIdentifier(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

// decode parses a raw record-sized block per t's layout. It does not
// itself check for sentinels; callers must do that first.
func decode(t RecordType, tzOffsetMinutes int, buf []byte) (Record, error) {
	l, ok := layoutFor(t)
	if !ok {
		return Record{}, fmt.Errorf("fixedstruct: unknown record type %v", t)
	}
	if len(buf) < l.recordSize {
		return Record{}, fmt.Errorf("fixedstruct: short buffer: need %d, have %d", l.recordSize, len(buf))
	}

	r := Record{Type: t}
	if l.pidOffset >= 0 {
		r.PID = int32(binary.LittleEndian.Uint32(buf[l.pidOffset : l.pidOffset+4]))
	}
	if l.userOffset >= 0 {
		r.User = cstr(buf[l.userOffset : l.userOffset+l.userLen])
	}
	r.Line = cstr(buf[l.lineOffset : l.lineOffset+l.lineLen])
	r.Host = cstr(buf[l.hostOffset : l.hostOffset+l.hostLen])

	sec := int64(int32(binary.LittleEndian.Uint32(buf[l.tvSecOffset : l.tvSecOffset+4])))
	var usec int64
	if l.tvUsecOffset >= 0 {
		usec = int64(int32(binary.LittleEndian.Uint32(buf[l.tvUsecOffset : l.tvUsecOffset+4])))
	}
	loc := time.FixedZone("", tzOffsetMinutes*60)
	t0 := time.Unix(sec, usec*1000).In(loc)
	r.Time = entry.FromStandard(t0)

	return r, nil
}

// plausibilityScore rates a decoded record for the validity scan of §4.4
// "Construction": printable line/host text and a timestamp within a sane
// range contribute; anything implausible scores 0.
func plausibilityScore(r Record) int {
	score := 0
	if isPrintableIdentifier(r.Line) {
		score++
	}
	if isPrintableIdentifier(r.Host) {
		score++
	}
	if r.Type == Utmpx {
		if isPrintableIdentifier(r.User) {
			score++
		}
		if r.PID >= 0 && r.PID < 4_000_000 {
			score++
		}
	}
	t := r.Time.StandardTime()
	if t.Year() >= 1990 && t.Year() <= 2100 {
		score++
	}
	return score
}

// renderLine formats a Record into the printable text body a `last`- or
// `lastlog`-style tool would show, terminated with a trailing newline.
func renderLine(r Record) []byte {
	ts := r.Time.StandardTime().Format("Mon Jan  2 15:04:05 2006")
	if r.Type == Lastlog {
		return []byte(fmt.Sprintf("%-12s %-20s %s\n", r.Line, r.Host, ts))
	}
	return []byte(fmt.Sprintf("%-10s %-12s %-20s %s\n", r.User, r.Line, r.Host, ts))
}
