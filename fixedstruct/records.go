/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package fixedstruct

// RecordType is the closed set of fixed-size binary record layouts this
// package knows how to decode (§4.4).
type RecordType int

const (
	RecordTypeUnknown RecordType = iota
	Utmpx
	Lastlog
)

func (t RecordType) String() string {
	switch t {
	case Utmpx:
		return "utmpx"
	case Lastlog:
		return "lastlog"
	default:
		return "unknown"
	}
}

// layout describes one RecordType's fixed byte geometry on Linux x86_64.
// Offsets are chosen to match glibc's struct utmpx / struct lastlog field
// order and total declared sizes (utmpx 384 bytes, lastlog 292 bytes);
// this module is not validated against a real glibc-produced binary
// fixture (see DESIGN.md "known limitation").
type layout struct {
	recordSize int

	typeOffset int // utmpx only

	pidOffset int // utmpx only

	lineOffset, lineLen int
	userOffset, userLen int // utmpx only
	hostOffset, hostLen int

	tvSecOffset  int // seconds component of the record's timestamp
	tvUsecOffset int // microseconds component; -1 if the layout has none
}

var layouts = map[RecordType]layout{
	Utmpx: {
		recordSize:   384,
		typeOffset:   0,
		pidOffset:    4,
		lineOffset:   8,
		lineLen:      32,
		userOffset:   44,
		userLen:      32,
		hostOffset:   76,
		hostLen:      256,
		tvSecOffset:  340,
		tvUsecOffset: 344,
	},
	Lastlog: {
		recordSize:   292,
		typeOffset:   -1,
		pidOffset:    -1,
		lineOffset:   4,
		lineLen:      32,
		userOffset:   -1,
		userLen:      0,
		hostOffset:   36,
		hostLen:      256,
		tvSecOffset:  0,
		tvUsecOffset: -1,
	},
}

func layoutFor(t RecordType) (layout, bool) {
	l, ok := layouts[t]
	return l, ok
}
