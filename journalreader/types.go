/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package journalreader implements StructuredJournalReader (§4.2): it
// drives libsystemd (via the sdjournal FFI seam) to walk a .journal file,
// formats each entry to one of ten output modes, and delivers a
// time-ordered stream through a bounded reorder ring.
package journalreader

import (
	"github.com/gravwell/logreaders/decompress"
	"github.com/gravwell/logreaders/entry"
	gwlog "github.com/gravwell/logreaders/log"
)

// handle is the subset of *sdjournal.Handle the Reader drives. It exists as
// an interface so tests can exercise the reorder ring and filter logic
// against a scripted fake instead of a real libsystemd (§4.2 "Testing
// affordance" covers fault injection; this covers everything else).
type handle interface {
	SeekHead() error
	SeekRealtimeUsec(usec uint64) error
	Next() (bool, error)
	GetRealtimeUsec() (uint64, error)
	EnumerateAllFields() (map[string][]byte, error)
	GetCursor() (string, error)
	Close() error
}

// RING is the reorder buffer's capacity (§4.2 "Buffer size").
const RING = 511

// OutputMode selects one of the ten journalctl-like rendering modes.
type OutputMode int

const (
	Short OutputMode = iota
	ShortPrecise
	ShortIso
	ShortIsoPrecise
	ShortFull
	ShortMonotonic
	ShortUnix
	Verbose
	Export
	Cat
)

func (m OutputMode) String() string {
	switch m {
	case Short:
		return "short"
	case ShortPrecise:
		return "short-precise"
	case ShortIso:
		return "short-iso"
	case ShortIsoPrecise:
		return "short-iso-precise"
	case ShortFull:
		return "short-full"
	case ShortMonotonic:
		return "short-monotonic"
	case ShortUnix:
		return "short-unix"
	case Verbose:
		return "verbose"
	case Export:
		return "export"
	case Cat:
		return "cat"
	default:
		return "unknown"
	}
}

// Policy selects which of an entry's two candidate timestamps is
// "effective" for ordering and display (§4.2 "Rationale").
//
// AutoDetect is the default (an Open Question in spec.md §9; see
// DESIGN.md): per entry, prefer _SOURCE_REALTIME_TIMESTAMP when present
// and prefer the journal's own realtime value otherwise, matching what the
// reference tool visibly displays while still letting PreferRealtime
// bypass the reorder ring entirely when a caller knows the file is already
// sorted by commit order.
type Policy int

const (
	// PolicyUnset is the zero value; Construct substitutes AutoDetect for
	// it so the documented default doesn't depend on enum ordinal luck.
	PolicyUnset Policy = iota
	PreferRealtime
	PreferSourceRealtime
	AutoDetect
)

// FaultRange is the test-only fault-injection affordance of §4.2
// ("Testing affordance"): API calls numbered in [Lo, Hi) synthesize Err
// instead of calling into sdjournal.
type FaultRange struct {
	Lo, Hi int
	Err    error
}

// Config configures Construct.
type Config struct {
	Path            string
	Mode            OutputMode
	TZOffsetMinutes int
	FileType        decompress.FileType
	TimestampPolicy Policy
	Resolver        decompress.Resolver
	Logger          *gwlog.Logger
	FaultInjection  *FaultRange
	Handle          handle // nil opens the real journal via sdjournal.OpenFiles
}

// Summary extends entry.Summary with the journal-specific API-call counter
// of §3 ("API-call counts (journal)").
type Summary struct {
	entry.Summary
	APICalls int
}
