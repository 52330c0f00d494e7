/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package subprocreader

import (
	"bytes"
	"strconv"

	"github.com/gravwell/logreaders/entry"
)

// parsedEvent is one frame decoded off the wire, before filtering.
type parsedEvent struct {
	instant entry.Instant
	begin   int
	end     int
	payload []byte
}

// splitEvents breaks a stdout chunk into event frames on eventDelim.
func splitEvents(chunk []byte) [][]byte {
	return bytes.Split(chunk, []byte{eventDelim})
}

// parseFrame applies §4.3 "Frame parsing" to one delimiter-separated
// chunk. A malformed or empty chunk yields (parsedEvent{}, false).
func parseFrame(chunk []byte, tzOffsetMinutes int) (parsedEvent, bool) {
	if len(chunk) == 0 {
		return parsedEvent{}, false
	}
	fields := bytes.SplitN(chunk, []byte{fieldDelim}, 4)
	if len(fields) != 4 {
		return parsedEvent{}, false
	}

	begin, errB := strconv.Atoi(string(fields[0]))
	end, errE := strconv.Atoi(string(fields[1]))
	if errB != nil || errE != nil || begin < 0 || end < 0 || begin > end {
		begin, end = 0, 0
	}

	tsValue, err := strconv.ParseInt(string(fields[2]), 10, 64)
	if err != nil || tsValue < 0 {
		return parsedEvent{}, false
	}

	payload := fields[3]
	if end > len(payload) {
		begin, end = 0, 0
	}

	// tzOffsetMinutes (§4.3 "rebase to the Reader's fixed offset") only
	// affects how the helper already rendered the payload's dt_slice text;
	// Instant itself stays a UTC microsecond count, so there's nothing
	// further to rebase here.
	seconds := tsValue / 1000
	millis := tsValue % 1000
	inst := entry.FromUnixMicro(seconds*1_000_000 + millis*1000)

	return parsedEvent{instant: inst, begin: begin, end: end, payload: payload}, true
}
