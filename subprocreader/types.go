/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package subprocreader implements SubprocessEventReader (§4.3): a helper
// interpreter process parses ETL/ASL/ODL files and streams rendered event
// frames back over stdout, with the parent applying flow control over
// stdin so the helper never runs far ahead of consumption.
package subprocreader

import (
	"github.com/inhies/go-bytesize"

	"github.com/gravwell/logreaders/decompress"
	"github.com/gravwell/logreaders/entry"
	gwlog "github.com/gravwell/logreaders/log"
)

// N is the flow-control period: after every N write/read cycles, the
// parent sends the cycle counter to the helper's stdin (§4.3).
const N = 5

// eventDelim separates events on stdout.
const eventDelim = 0x00

// fieldDelim (ASCII RS) separates the four fields within one event.
const fieldDelim = 0x1E

// maxPipeSize clamps an oversized configured pipe_size (§4.3
// "construction").
const maxPipeSize = 32 * 1024

// fillBufferCapacity is N+3 (§4.3 "Construction").
const fillBufferCapacity = N + 3

// Config configures Construct.
type Config struct {
	Path             string
	ETLParserVariant string
	FileType         decompress.FileType
	TZOffsetMinutes  int
	PipeSize         bytesize.ByteSize
	Resolver         decompress.Resolver
	Logger           *gwlog.Logger
	Runner           Runner // nil constructs the default os/exec-backed Runner
}

// Runner is the process-runner seam (§4.3's "runner").
type Runner interface {
	// WriteRead sends stdin (if non-nil) to the helper and returns
	// whatever stdout/stderr bytes have become available, plus whether the
	// process has exited.
	WriteRead(stdin []byte) (exited bool, stdout, stderr []byte, err error)
	// Close terminates the helper process (and its process group) and
	// releases its pipes.
	Close() error
}

// Summary extends entry.Summary with the two high-water marks of §4.3
// ("Resource rules").
type Summary struct {
	entry.Summary
	MaxEventsPerCycle uint64
	MaxBuffered       uint64
}
