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
	"sort"
	"strings"
	"time"

	"github.com/gravwell/logreaders/entry"
)

// monotonicUnavailablePlaceholder is what ShortMonotonic renders when no
// monotonic timestamp is available. This implementation never binds
// sd_journal_get_monotonic_usec (see DESIGN.md), so this is always the
// branch taken, matching the reference tool's own fallback for a missing
// monotonic value.
const monotonicUnavailablePlaceholder = "[            ]"

// fields is the raw field set for one journal entry, keyed without the
// trailing "=" delimiter, plus the two candidate timestamps and cursor
// needed by every formatter.
type fields struct {
	data             map[string][]byte
	realtimeUsec     uint64
	sourceRealtime   uint64
	haveSourceRT     bool
	cursor           string
}

func (f fields) get(key string) (string, bool) {
	v, ok := f.data[key]
	if !ok {
		return "", false
	}
	return string(v), true
}

// pid prefers _PID over SYSLOG_PID (§4.2 "Body field rules").
func (f fields) pid() (string, bool) {
	if v, ok := f.get("_PID"); ok {
		return v, true
	}
	return f.get("SYSLOG_PID")
}

// ident prefers SYSLOG_IDENTIFIER over _COMM.
func (f fields) ident() (string, bool) {
	if v, ok := f.get("SYSLOG_IDENTIFIER"); ok {
		return v, true
	}
	return f.get("_COMM")
}

func (f fields) hostname() string {
	v, _ := f.get("_HOSTNAME")
	return v
}

func (f fields) message() string {
	v, _ := f.get("MESSAGE")
	return v
}

// formatted is the output of one formatter invocation.
type formatted struct {
	bytes   []byte
	dtBegin int
	dtEnd   int
}

// shortBody renders "IDENT[PID]: MESSAGE" (or a reduced form when the
// identifier/pid are absent), shared by every Short* mode.
func shortBody(f fields) string {
	var b strings.Builder
	if ident, ok := f.ident(); ok {
		b.WriteString(ident)
	}
	if pid, ok := f.pid(); ok {
		b.WriteString("[")
		b.WriteString(pid)
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(f.message())
	return b.String()
}

func effectiveTime(f fields, tzOffsetMinutes int) time.Time {
	loc := time.FixedZone("", tzOffsetMinutes*60)
	return time.UnixMicro(int64(f.realtimeUsec)).In(loc)
}

func strftimeMicros(t time.Time, layout string) string {
	s := t.Format(layout)
	// Go's fractional-second verbs require a literal ".000000" in the
	// layout; strftime-derived layouts below already include it where
	// needed, so this helper exists only to keep call sites uniform.
	return s
}

func formatShortLike(f fields, tzOffsetMinutes int, layout string) formatted {
	t := effectiveTime(f, tzOffsetMinutes)
	dt := strftimeMicros(t, layout)
	body := shortBody(f)
	line := dt + " " + f.hostname() + " " + body + "\n"
	return formatted{bytes: []byte(line), dtBegin: 0, dtEnd: len(dt)}
}

func formatShort(f fields, tz int) formatted {
	return formatShortLike(f, tz, "Jan 02 15:04:05")
}

func formatShortPrecise(f fields, tz int) formatted {
	return formatShortLike(f, tz, "Jan 02 15:04:05.000000")
}

func formatShortIso(f fields, tz int) formatted {
	return formatShortLike(f, tz, "2006-01-02 15:04:05")
}

func formatShortIsoPrecise(f fields, tz int) formatted {
	return formatShortLike(f, tz, "2006-01-02T15:04:05.000000-0700")
}

func formatShortFull(f fields, tz int) formatted {
	return formatShortLike(f, tz, "Mon 2006-01-02 15:04:05 MST")
}

func formatShortMonotonic(f fields) formatted {
	body := shortBody(f)
	line := monotonicUnavailablePlaceholder + " " + f.hostname() + " " + body + "\n"
	return formatted{bytes: []byte(line), dtBegin: 0, dtEnd: 0}
}

func formatShortUnix(f fields) formatted {
	secs := int64(f.realtimeUsec) / 1_000_000
	micros := int64(f.realtimeUsec) % 1_000_000
	dt := fmt.Sprintf("%d.%06d", secs, micros)
	body := shortBody(f)
	line := dt + " " + f.hostname() + " " + body + "\n"
	return formatted{bytes: []byte(line), dtBegin: 0, dtEnd: len(dt)}
}

func formatCat(f fields) formatted {
	return formatted{bytes: []byte(f.message() + "\n"), dtBegin: 0, dtEnd: 0}
}

// formatVerbose renders "--output=verbose": a precise header line with the
// cursor, then one four-space-indented "KEY=VALUE" line per field in
// fieldOrderVerbose, then any remaining fields sorted, then
// _SOURCE_REALTIME_TIMESTAMP last.
func formatVerbose(f fields, tz int) formatted {
	t := effectiveTime(f, tz)
	dt := t.Format("Mon 2006-01-02 15:04:05.000000 MST")

	var b strings.Builder
	b.WriteString(dt)
	b.WriteString(" [")
	b.WriteString(f.cursor)
	b.WriteString("]\n")

	remaining := make(map[string][]byte, len(f.data))
	for k, v := range f.data {
		remaining[k] = v
	}
	// _SELINUX_CONTEXT is trimmed of trailing null/CR/LF/space (§4.2).
	if v, ok := remaining["_SELINUX_CONTEXT"]; ok {
		remaining["_SELINUX_CONTEXT"] = []byte(strings.TrimRight(string(v), "\x00\r\n "))
	}

	writeField := func(key string, val []byte) {
		b.WriteString("    ")
		b.WriteString(key)
		b.WriteString("=")
		b.Write(val)
		b.WriteString("\n")
	}

	for _, key := range fieldOrderVerbose {
		if v, ok := remaining[key]; ok {
			writeField(key, v)
			delete(remaining, key)
		}
	}

	leftover := make([]string, 0, len(remaining))
	for k := range remaining {
		if k == fieldSourceRealtimeTimestamp {
			continue
		}
		leftover = append(leftover, k)
	}
	sort.Strings(leftover)
	for _, k := range leftover {
		writeField(k, remaining[k])
	}

	if v, ok := remaining[fieldSourceRealtimeTimestamp]; ok {
		writeField(fieldSourceRealtimeTimestamp, v)
	} else if f.haveSourceRT {
		writeField(fieldSourceRealtimeTimestamp, []byte(fmt.Sprintf("%d", f.sourceRealtime)))
	}

	return formatted{bytes: []byte(b.String()), dtBegin: 0, dtEnd: len(dt)}
}

// formatExport renders "--output=export" (§4.2): three prepended keys,
// then every field as KEY=VALUE, terminated by a blank line.
func formatExport(f fields) formatted {
	var b strings.Builder
	fmt.Fprintf(&b, "__CURSOR=%s\n", f.cursor)
	fmt.Fprintf(&b, "__REALTIME_TIMESTAMP=%d\n", f.realtimeUsec)
	fmt.Fprintf(&b, "__MONOTONIC_TIMESTAMP=0\n")

	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		if k == fieldSourceRealtimeTimestamp {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString("=")
		b.Write(f.data[k])
		b.WriteString("\n")
	}

	if v, ok := f.data[fieldSourceRealtimeTimestamp]; ok {
		b.WriteString(fieldSourceRealtimeTimestamp)
		b.WriteString("=")
		b.Write(v)
		b.WriteString("\n")
	} else if f.haveSourceRT {
		fmt.Fprintf(&b, "%s=%d\n", fieldSourceRealtimeTimestamp, f.sourceRealtime)
	}
	b.WriteString("\n")
	return formatted{bytes: []byte(b.String()), dtBegin: 0, dtEnd: 0}
}

// render dispatches to the selected mode and wraps the result as a
// LogEntry. source identifies which of the two candidate timestamps
// effInstant was picked from (§3 "timestamp_source"), and sourceInstant
// carries the entry's secondary (source-realtime) instant when available.
func render(mode OutputMode, f fields, tz int, inst entry.Instant, source entry.TimestampSource, sourceInstant entry.OptionalInstant) entry.LogEntry {
	var out formatted
	switch mode {
	case Short:
		out = formatShort(f, tz)
	case ShortPrecise:
		out = formatShortPrecise(f, tz)
	case ShortIso:
		out = formatShortIso(f, tz)
	case ShortIsoPrecise:
		out = formatShortIsoPrecise(f, tz)
	case ShortFull:
		out = formatShortFull(f, tz)
	case ShortMonotonic:
		out = formatShortMonotonic(f)
	case ShortUnix:
		out = formatShortUnix(f)
	case Verbose:
		out = formatVerbose(f, tz)
	case Export:
		out = formatExport(f)
	case Cat:
		out = formatCat(f)
	default:
		out = formatShort(f, tz)
	}

	return entry.LogEntry{
		Bytes:           out.bytes,
		Instant:         inst,
		SourceInstant:   sourceInstant,
		TimestampSource: source,
		DtSlice:         entry.DtSlice{Begin: out.dtBegin, End: out.dtEnd},
	}
}
