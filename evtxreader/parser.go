/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package evtxreader

import (
	"errors"

	"github.com/gravwell/logreaders/entry"
)

// ErrParserDone is returned by Parser.Next once the underlying EVTX chunk
// set has been fully walked.
var ErrParserDone = errors.New("evtxreader: parser exhausted")

// Record is one raw record handed up by the external EVTX parser, before
// BinaryEventReader's own ordering and formatting is applied.
type Record struct {
	Instant entry.Instant
	Bytes   []byte // preformatted, printable, newline-terminated
}

// Parser is the seam onto the external EVTX parser (§4.1 "external
// parser"). Next returns (Record{}, ErrParserDone) at end of file. Any
// other non-nil error is a single-record parse failure: it is non-fatal
// per §4.1 ("errors on individual records are non-fatal to ingest") and
// Ingest must keep calling Next after observing one.
type Parser interface {
	Next() (Record, error)
	Close() error
}
