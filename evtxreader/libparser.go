/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package evtxreader

import (
	"fmt"
	"os"

	rawevtx "github.com/0xrawsec/golang-evtx/evtx"

	"github.com/gravwell/logreaders/entry"
)

// libEvtxParser adapts github.com/0xrawsec/golang-evtx, a push-style
// channel API, to the pull-style Parser seam above. §4.1 requires
// "single-threaded settings"; golang-evtx's FastEvents walks chunks on one
// goroutine internally, so a single buffered hand-off channel is enough —
// this wrapper adds no additional concurrency of its own.
type libEvtxParser struct {
	f       *os.File
	ef      *rawevtx.File
	events  chan *rawevtx.GoEvtxMap
	errs    chan error
	started bool
}

func newLibEvtxParser(path string) (*libEvtxParser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("evtxreader: open %s: %w", path, err)
	}
	ef, err := rawevtx.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("evtxreader: parse header of %s: %w", path, err)
	}
	return &libEvtxParser{f: f, ef: ef}, nil
}

func (p *libEvtxParser) ensureStarted() {
	if p.started {
		return
	}
	p.started = true
	p.events = make(chan *rawevtx.GoEvtxMap, 64)
	p.errs = make(chan error, 64)
	go func() {
		defer close(p.events)
		defer close(p.errs)
		for evt := range p.ef.FastEvents() {
			p.events <- evt
		}
	}()
}

func (p *libEvtxParser) Next() (Record, error) {
	p.ensureStarted()
	evt, ok := <-p.events
	if !ok {
		return Record{}, ErrParserDone
	}
	return recordFromEvent(evt)
}

func (p *libEvtxParser) Close() error {
	return p.f.Close()
}

// recordFromEvent renders one parsed event into a printable record. A
// malformed timestamp or unreadable payload is a per-record error, not a
// fatal one (§4.1).
func recordFromEvent(evt *rawevtx.GoEvtxMap) (Record, error) {
	ts, err := evt.GetEventTime()
	if err != nil {
		return Record{}, fmt.Errorf("evtxreader: record timestamp: %w", err)
	}
	js, err := evt.ToJSON()
	if err != nil {
		return Record{}, fmt.Errorf("evtxreader: render record: %w", err)
	}
	if len(js) == 0 || js[len(js)-1] != '\n' {
		js = append(js, '\n')
	}
	return Record{Instant: entry.FromStandard(ts), Bytes: js}, nil
}
