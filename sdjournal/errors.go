/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package sdjournal

import "fmt"

// ErrKind classifies a libsystemd errno into a small typed set that
// StructuredJournalReader can branch on without string matching.
type ErrKind int

const (
	ErrKindUnknown ErrKind = iota
	ErrKindInvalidArgument
	ErrKindNotFound
	ErrKindPermissionDenied
	ErrKindOutOfMemory
	ErrKindNoData
	ErrKindAddrInUse
)

// Error wraps a negative sd_journal_* return value (libsystemd functions
// return -errno on failure) with the operation that produced it.
type Error struct {
	Kind  ErrKind
	Errno int32
	Op    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sdjournal: %s: errno %d (%s)", e.Op, e.Errno, e.Kind)
}

func (k ErrKind) String() string {
	switch k {
	case ErrKindInvalidArgument:
		return "invalid argument"
	case ErrKindNotFound:
		return "not found"
	case ErrKindPermissionDenied:
		return "permission denied"
	case ErrKindOutOfMemory:
		return "out of memory"
	case ErrKindNoData:
		return "no data"
	case ErrKindAddrInUse:
		return "address in use"
	default:
		return "unknown"
	}
}

// errFromErrno builds a typed Error from a raw libsystemd -errno return.
// The table covers the errno values the sd_journal_* calls this package
// exercises are documented to return; anything else falls back to
// ErrKindUnknown rather than guessing.
func errFromErrno(errno int32, op string) error {
	kind := ErrKindUnknown
	switch errno {
	case 2: // ENOENT
		kind = ErrKindNotFound
	case 12: // ENOMEM
		kind = ErrKindOutOfMemory
	case 13: // EACCES
		kind = ErrKindPermissionDenied
	case 22: // EINVAL
		kind = ErrKindInvalidArgument
	case 61: // ENODATA
		kind = ErrKindNoData
	case 98: // EADDRINUSE (journal file already opened for writing elsewhere)
		kind = ErrKindAddrInUse
	}
	return &Error{Kind: kind, Errno: errno, Op: op}
}
