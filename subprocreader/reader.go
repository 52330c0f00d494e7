/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package subprocreader

import (
	"fmt"
	"time"

	"github.com/inhies/go-bytesize"

	"github.com/gravwell/logreaders/decompress"
	"github.com/gravwell/logreaders/entry"
	gwlog "github.com/gravwell/logreaders/log"
)

// Reader is SubprocessEventReader.
type Reader struct {
	path    string
	tz      int
	pipeSz  bytesize.ByteSize
	runner  Runner
	log     *gwlog.Logger

	writeReadCalls int64
	fillBuffer     []parsedEvent
	exited         bool
	exitErr        error
	stderrAccum    []byte

	size  int64
	mtime time.Time

	summary Summary
}

// Construct launches (or adopts, if Config.Runner is set) the helper
// process. pipe_size is clamped to 32 KiB (§4.3).
func Construct(cfg Config) (*Reader, error) {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = decompress.Default
	}
	resolved, err := resolver.Resolve(cfg.Path, cfg.FileType)
	if err != nil {
		return nil, fmt.Errorf("subprocreader: resolve %s: %w", cfg.Path, err)
	}

	pipeSz := cfg.PipeSize
	if pipeSz <= 0 {
		return nil, fmt.Errorf("subprocreader: pipe_size must be > 0")
	}
	if pipeSz > maxPipeSize {
		pipeSz = maxPipeSize
	}

	runner := cfg.Runner
	if runner == nil {
		argv, err := helperArgv(resolved.Path, cfg.FileType, cfg.ETLParserVariant)
		if err != nil {
			return nil, err
		}
		runner, err = newExecRunner(argv)
		if err != nil {
			return nil, err
		}
	}

	r := &Reader{
		path:       cfg.Path,
		tz:         cfg.TZOffsetMinutes,
		pipeSz:     pipeSz,
		runner:     runner,
		log:        gwlog.NewReaderLogger(cfg.Logger, "subproc"),
		size:       resolved.Size,
		mtime:      resolved.MTime,
		fillBuffer: make([]parsedEvent, 0, fillBufferCapacity),
	}
	r.log.Debug("constructed", gwlog.KV("path", cfg.Path))
	return r, nil
}

// Next implements the §4.3 operation loop: drive write_read cycles,
// parsing frames into fillBuffer until it has something to emit or the
// helper has exited and drained.
func (r *Reader) Next(filter entry.Filter) entry.NextResult {
	for {
		for len(r.fillBuffer) > 0 {
			ev := r.fillBuffer[0]
			r.fillBuffer = r.fillBuffer[1:]

			r.summary.ObserveProcessed(ev.instant)
			if filter.Pass(ev.instant) != entry.InRange {
				continue
			}
			r.summary.ObserveAccepted(ev.instant)
			return entry.Found(entry.LogEntry{
				Bytes:           ev.payload,
				Instant:         ev.instant,
				TimestampSource: entry.Primary,
				DtSlice:         entry.DtSlice{Begin: ev.begin, End: ev.end},
			})
		}
		if r.exited {
			if r.exitErr != nil {
				r.log.Error("helper exited abnormally", gwlog.KVErr(r.exitErr))
				return entry.Err(r.exitErr)
			}
			return entry.Done()
		}
		if err := r.cycle(); err != nil {
			r.log.Error("write_read cycle failed", gwlog.KVErr(err))
			return entry.Err(err)
		}
	}
}

// cycle performs one write_read round: optional flow-control stdin write,
// the runner call, frame parsing, and fillBuffer bookkeeping.
func (r *Reader) cycle() error {
	r.writeReadCalls++

	var stdin []byte
	if r.writeReadCalls%N == 0 {
		stdin = []byte(fmt.Sprintf("%d\n", r.writeReadCalls))
	}

	exited, stdout, stderr, err := r.runner.WriteRead(stdin)
	if err != nil {
		return fmt.Errorf("subprocreader: write_read: %w", err)
	}
	if len(stderr) > 0 {
		r.stderrAccum = append(r.stderrAccum, stderr...)
	}

	eventsThisCycle := uint64(0)
	for _, chunk := range splitEvents(stdout) {
		ev, ok := parseFrame(chunk, r.tz)
		if !ok {
			continue
		}
		r.fillBuffer = append(r.fillBuffer, ev)
		eventsThisCycle++
		if uint64(len(r.fillBuffer)) > r.summary.MaxBuffered {
			r.summary.MaxBuffered = uint64(len(r.fillBuffer))
		}
	}
	if eventsThisCycle > r.summary.MaxEventsPerCycle {
		r.summary.MaxEventsPerCycle = eventsThisCycle
	}

	if exited {
		r.exited = true
		if len(r.fillBuffer) == 0 && len(r.stderrAccum) > 0 {
			r.exitErr = fmt.Errorf("subprocreader: helper exited abnormally: %s", string(r.stderrAccum))
			r.summary.SetError(r.exitErr)
		}
	}
	return nil
}

// Summary returns a consistent, non-mutating snapshot.
func (r *Reader) Summary() Summary {
	return r.summary
}

// Close terminates the helper process and releases its pipes (§4.3
// "Cancellation").
func (r *Reader) Close() error {
	return r.runner.Close()
}
