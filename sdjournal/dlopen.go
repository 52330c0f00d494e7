/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package sdjournal is the FFI seam StructuredJournalReader (§4.2) sits on.
// It dlopens libsystemd at runtime via github.com/ebitengine/purego rather
// than linking against it with cgo, so a binary built against this module
// still runs (minus journal support) on a host with no libsystemd installed.
// The process-wide library handle is resolved at most once and is
// immutable thereafter; resolution failure is reported, never panicked.
package sdjournal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

// ErrLibraryUnavailable is returned (wrapped) whenever libsystemd cannot be
// dlopen'd, or a required symbol is missing from whatever version was
// found. §4.2 requires non-panicking, reportable failure here.
var ErrLibraryUnavailable = errors.New("sdjournal: libsystemd unavailable")

var sonames = []string{
	"libsystemd.so.0",
	"libsystemd.so",
}

type lib struct {
	handle uintptr

	openFiles     uintptr
	close         uintptr
	seekHead      uintptr
	seekTail      uintptr
	seekRealtime  uintptr
	next          uintptr
	previous      uintptr
	getRealtime   uintptr
	getData       uintptr
	enumerateData uintptr
	restartData   uintptr
	getCursor     uintptr
}

var (
	libOnce sync.Once
	libInst *lib
	libErr  error
)

func loadLib() (*lib, error) {
	libOnce.Do(func() {
		libInst, libErr = dlopenLib()
	})
	return libInst, libErr
}

func dlopenLib() (*lib, error) {
	var handle uintptr
	var dlErr error
	for _, name := range sonames {
		handle, dlErr = purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if dlErr == nil && handle != 0 {
			break
		}
	}
	if handle == 0 {
		return nil, fmt.Errorf("%w: %v", ErrLibraryUnavailable, dlErr)
	}

	l := &lib{handle: handle}
	var missing []string
	bind := func(dst *uintptr, name string) {
		s, err := purego.Dlsym(handle, name)
		if err != nil || s == 0 {
			missing = append(missing, name)
			return
		}
		*dst = s
	}

	bind(&l.openFiles, "sd_journal_open_files")
	bind(&l.close, "sd_journal_close")
	bind(&l.seekHead, "sd_journal_seek_head")
	bind(&l.seekTail, "sd_journal_seek_tail")
	bind(&l.seekRealtime, "sd_journal_seek_realtime_usec")
	bind(&l.next, "sd_journal_next")
	bind(&l.previous, "sd_journal_previous")
	bind(&l.getRealtime, "sd_journal_get_realtime_usec")
	bind(&l.getData, "sd_journal_get_data")
	bind(&l.enumerateData, "sd_journal_enumerate_data")
	bind(&l.restartData, "sd_journal_restart_data")
	bind(&l.getCursor, "sd_journal_get_cursor")

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing symbols %v", ErrLibraryUnavailable, missing)
	}
	return l, nil
}

// Available reports whether libsystemd was successfully resolved. The first
// call performs the resolution; later calls reuse its outcome.
func Available() bool {
	_, err := loadLib()
	return err == nil
}
