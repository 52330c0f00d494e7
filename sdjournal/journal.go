/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package sdjournal

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Handle is one open sd_journal context over an explicit, caller-supplied
// set of journal files (sd_journal_open_files(3)). §4.2 never uses
// directory-discovery ("-D") semantics: the caller always names files.
//
// A Handle is not safe for concurrent use; StructuredJournalReader uses one
// Handle per Reader instance (§9 "single-threaded settings").
type Handle struct {
	l   *lib
	ptr uintptr

	mu     sync.Mutex
	closed bool
}

// OpenFiles opens the given journal files in the order given.
func OpenFiles(paths []string) (*Handle, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("sdjournal: OpenFiles requires at least one path")
	}
	l, err := loadLib()
	if err != nil {
		return nil, err
	}

	cstrs := make([][]byte, len(paths))
	argv := make([]uintptr, len(paths)+1)
	for i, p := range paths {
		cstrs[i] = append([]byte(p), 0)
		argv[i] = uintptr(unsafe.Pointer(&cstrs[i][0]))
	}
	argv[len(paths)] = 0

	var jptr uintptr
	ret, _, _ := purego.SyscallN(l.openFiles,
		uintptr(unsafe.Pointer(&jptr)),
		uintptr(unsafe.Pointer(&argv[0])),
		0,
	)
	runtime.KeepAlive(cstrs)
	runtime.KeepAlive(argv)
	if int32(ret) < 0 {
		return nil, errFromErrno(-int32(ret), "sd_journal_open_files")
	}
	return &Handle{l: l, ptr: jptr}, nil
}

// Close releases the journal context. It is idempotent: a second Close is a
// silent no-op, matching §4.2's "construction/teardown are idempotent".
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	purego.SyscallN(h.l.close, h.ptr)
	return nil
}

// SeekHead moves the read cursor before the first entry.
func (h *Handle) SeekHead() error {
	ret, _, _ := purego.SyscallN(h.l.seekHead, h.ptr)
	if int32(ret) < 0 {
		return errFromErrno(-int32(ret), "sd_journal_seek_head")
	}
	return nil
}

// SeekRealtimeUsec moves the read cursor to the first entry at or after usec.
func (h *Handle) SeekRealtimeUsec(usec uint64) error {
	ret, _, _ := purego.SyscallN(h.l.seekRealtime, h.ptr, uintptr(usec))
	if int32(ret) < 0 {
		return errFromErrno(-int32(ret), "sd_journal_seek_realtime_usec")
	}
	return nil
}

// Next advances the cursor by one entry. It returns false once the journal
// is exhausted (sd_journal_next returning 0), which is not an error.
func (h *Handle) Next() (bool, error) {
	ret, _, _ := purego.SyscallN(h.l.next, h.ptr)
	r := int32(ret)
	if r < 0 {
		return false, errFromErrno(-r, "sd_journal_next")
	}
	return r > 0, nil
}

// GetRealtimeUsec returns CLOCK_REALTIME for the entry under the cursor
// (the journal's own _SOURCE_REALTIME_TIMESTAMP-independent notion of
// "realtime", per sd_journal_get_realtime_usec(3)).
func (h *Handle) GetRealtimeUsec() (uint64, error) {
	var usec uint64
	ret, _, _ := purego.SyscallN(h.l.getRealtime, h.ptr, uintptr(unsafe.Pointer(&usec)))
	if int32(ret) < 0 {
		return 0, errFromErrno(-int32(ret), "sd_journal_get_realtime_usec")
	}
	return usec, nil
}

// GetData returns the raw value of one field ("FIELD=value", per
// sd_journal_get_data(3)) from the entry under the cursor. A field absent
// from this entry returns (nil, false, nil).
func (h *Handle) GetData(field string) ([]byte, bool, error) {
	cfield := append([]byte(field), 0)
	var dataPtr uintptr
	var dataLen uintptr
	ret, _, _ := purego.SyscallN(h.l.getData,
		h.ptr,
		uintptr(unsafe.Pointer(&cfield[0])),
		uintptr(unsafe.Pointer(&dataPtr)),
		uintptr(unsafe.Pointer(&dataLen)),
	)
	runtime.KeepAlive(cfield)
	r := int32(ret)
	if r < 0 {
		kind := errFromErrno(-r, "sd_journal_get_data")
		if e, ok := kind.(*Error); ok && e.Kind == ErrKindNoData {
			return nil, false, nil
		}
		return nil, false, kind
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(dataPtr)), int(dataLen))
	out := make([]byte, len(raw))
	copy(out, raw)

	eq := -1
	for i, b := range out {
		if b == '=' {
			eq = i
			break
		}
	}
	if eq < 0 {
		return out, true, nil
	}
	return out[eq+1:], true, nil
}

// RestartData rewinds the per-entry field enumeration cursor used by
// EnumerateAllFields back to the first field.
func (h *Handle) RestartData() {
	purego.SyscallN(h.l.restartData, h.ptr)
}

// EnumerateAllFields walks every field present on the entry under the
// cursor via sd_journal_enumerate_data(3), restarting the enumeration
// cursor first so repeated calls on the same entry are safe.
func (h *Handle) EnumerateAllFields() (map[string][]byte, error) {
	h.RestartData()
	fields := make(map[string][]byte)
	for {
		var dataPtr uintptr
		var dataLen uintptr
		ret, _, _ := purego.SyscallN(h.l.enumerateData,
			h.ptr,
			uintptr(unsafe.Pointer(&dataPtr)),
			uintptr(unsafe.Pointer(&dataLen)),
		)
		r := int32(ret)
		if r == 0 {
			break
		}
		if r < 0 {
			return fields, errFromErrno(-r, "sd_journal_enumerate_data")
		}
		raw := unsafe.Slice((*byte)(unsafe.Pointer(dataPtr)), int(dataLen))
		eq := -1
		for i, b := range raw {
			if b == '=' {
				eq = i
				break
			}
		}
		if eq < 0 {
			continue
		}
		name := string(raw[:eq])
		val := make([]byte, len(raw)-eq-1)
		copy(val, raw[eq+1:])
		fields[name] = val
	}
	return fields, nil
}

// GetCursor returns an opaque, stable position token for the entry under
// the cursor (sd_journal_get_cursor(3)); callers persist this to resume a
// following read later.
func (h *Handle) GetCursor() (string, error) {
	var cstr uintptr
	ret, _, _ := purego.SyscallN(h.l.getCursor, h.ptr, uintptr(unsafe.Pointer(&cstr)))
	if int32(ret) < 0 {
		return "", errFromErrno(-int32(ret), "sd_journal_get_cursor")
	}
	if cstr == 0 {
		return "", nil
	}
	return cStringToGo(cstr), nil
}

func cStringToGo(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := 0
	for {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(n)))
		if b == 0 {
			break
		}
		n++
	}
	out := make([]byte, n)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
	return string(out)
}
