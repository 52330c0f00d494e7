/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package fixedstruct implements FixedStructReader (§4.4): the file is a
// sequence of fixed-size binary records (utmpx, lastlog); this package
// locates and emits valid entries, skips sentinel "hole" records, and
// exposes a total ordering by (timestamp, first file offset) even when
// the underlying file is not itself sorted.
package fixedstruct

import (
	"errors"

	"github.com/gravwell/logreaders/blockreader"
	"github.com/gravwell/logreaders/entry"
	gwlog "github.com/gravwell/logreaders/log"
)

// Construction outcomes (§4.4 "Construction"). Ok is represented by a nil
// error from Construct; the rest are sentinel errors a caller can compare
// against with errors.Is.
var (
	ErrFileEmpty        = errors.New("fixedstruct: file is empty")
	ErrFileTooSmall     = errors.New("fixedstruct: file smaller than one record")
	ErrNoValidRecord    = errors.New("fixedstruct: no record in the validity scan scored above threshold")
	ErrNoRecordInWindow = errors.New("fixedstruct: every scanned record falls outside the requested window")
)

// validityScanLimit bounds how many candidate records Construct samples
// before giving up (§4.4 "validity scan").
const validityScanLimit = 8

// plausibilityThreshold is the minimum plausibilityScore a sampled record
// needs to count as valid.
const plausibilityThreshold = 2

// Config configures Construct.
type Config struct {
	Path            string
	RecordType      RecordType // RecordTypeUnknown triggers doublestar-based inference from Path
	BlockSize       int
	TZOffsetMinutes int
	After, Before   entry.OptionalInstant
	Reader          blockreader.BlockReader // nil opens Path (via decompress.Default) behind a default blockreader; a non-nil Reader's underlying *os.File is the caller's
	Logger          *gwlog.Logger
}

// Summary extends entry.Summary with the high-water mark of §4.4
// "Ordering" plus the underlying BlockReader's cache hit/miss/drop counters
// (§3 "block cache metrics (fixed struct)").
type Summary struct {
	entry.Summary
	MaxOrderedMapSize uint64
	CacheStats        blockreader.CacheStats
}
