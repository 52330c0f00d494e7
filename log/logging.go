/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package log is the leveled, RFC5424-structured logger every Reader in
// this module logs construction/seek/teardown diagnostics through. A
// Logger is constructed once per caller (or discarded, via
// NewDiscardLogger) and handed to each Reader's Config; NewReaderLogger
// then derives a per-Reader Logger tagged with a reader kind and a
// per-instance correlation ID, so a caller running many Readers
// concurrently (one per worker, per §5) can demux interleaved output.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
	"github.com/google/uuid"
)

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

const (
	defaultID = `gw@1`

	// callDepth skips output's own frame and Debug/Info/Warn/Error/Critical's
	// frame to land on the Reader call site for CallLoc.
	callDepth = 3

	maxHostname = 255
	maxAppname  = 48
	maxMsgID    = 32
)

// Level is a log verbosity threshold; a Logger drops anything below its
// configured Level.
type Level int

func (l Level) String() string {
	switch l {
	case OFF:
		return `OFF`
	case DEBUG:
		return `DEBUG`
	case INFO:
		return `INFO`
	case WARN:
		return `WARN`
	case ERROR:
		return `ERROR`
	case CRITICAL:
		return `CRITICAL`
	}
	return `UNKNOWN`
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	case CRITICAL:
		return rfc5424.User | rfc5424.Crit
	}
	return rfc5424.User | rfc5424.Debug
}

// Logger writes RFC5424 structured log lines to one or more writers.
// Loggers derived from one another via WithKV/NewReaderLogger share the
// same writer set and mutex but each carry their own persistent
// structured-data tags, so a reader-tagged Logger and its untagged parent
// never interleave output incorrectly.
type Logger struct {
	wtrs []io.Writer
	mtx  *sync.Mutex
	lvl  Level
	host string
	app  string
	sds  []rfc5424.SDParam
}

// New creates a Logger at level INFO writing to wtr.
func New(wtr io.Writer) *Logger {
	host, _ := os.Hostname()
	if len(host) > maxHostname {
		host = host[:maxHostname]
	}
	app := ``
	if len(os.Args) > 0 {
		app = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))
		if len(app) > maxAppname {
			app = app[:maxAppname]
		}
	}
	return &Logger{
		wtrs: []io.Writer{wtr},
		mtx:  &sync.Mutex{},
		lvl:  INFO,
		host: host,
		app:  app,
	}
}

// NewDiscardLogger returns a Logger that drops every line; it is what a nil
// Config.Logger is substituted with so Readers never need a nil check.
func NewDiscardLogger() *Logger {
	return New(io.Discard)
}

// SetLevel changes the verbosity threshold in place.
func (l *Logger) SetLevel(lvl Level) {
	l.mtx.Lock()
	l.lvl = lvl
	l.mtx.Unlock()
}

// WithKV returns a Logger that appends sds to every line logged through it,
// sharing this Logger's writers and mutex. The derived Logger starts at this
// Logger's current level; a later SetLevel on either does not affect the
// other.
func (l *Logger) WithKV(sds ...rfc5424.SDParam) *Logger {
	derived := make([]rfc5424.SDParam, 0, len(l.sds)+len(sds))
	derived = append(derived, l.sds...)
	derived = append(derived, sds...)
	return &Logger{
		wtrs: l.wtrs,
		mtx:  l.mtx,
		lvl:  l.lvl,
		host: l.host,
		app:  l.app,
		sds:  derived,
	}
}

// NewReaderLogger derives from l (nil substitutes a discard Logger) a
// Logger tagged with a reader kind and a fresh uuid correlation ID.
func NewReaderLogger(l *Logger, readerKind string) *Logger {
	if l == nil {
		l = NewDiscardLogger()
	}
	return l.WithKV(KV("reader", readerKind), KV("instance", uuid.NewString()))
}

func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam) error {
	return l.output(DEBUG, msg, sds...)
}

func (l *Logger) Info(msg string, sds ...rfc5424.SDParam) error {
	return l.output(INFO, msg, sds...)
}

func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam) error {
	return l.output(WARN, msg, sds...)
}

func (l *Logger) Error(msg string, sds ...rfc5424.SDParam) error {
	return l.output(ERROR, msg, sds...)
}

func (l *Logger) Critical(msg string, sds ...rfc5424.SDParam) error {
	return l.output(CRITICAL, msg, sds...)
}

func (l *Logger) output(lvl Level, msg string, sds ...rfc5424.SDParam) (err error) {
	if l == nil || l.lvl == OFF || lvl < l.lvl {
		return nil
	}
	all := make([]rfc5424.SDParam, 0, len(l.sds)+len(sds))
	all = append(all, l.sds...)
	all = append(all, sds...)
	b, err := genRFCMessage(time.Now(), lvl.priority(), l.host, l.app, callLoc(callDepth), msg, all...)
	if err != nil || len(b) == 0 {
		return err
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	for _, w := range l.wtrs {
		if _, lerr := w.Write(b); lerr != nil {
			err = lerr
		} else if _, lerr = io.WriteString(w, "\n"); lerr != nil {
			err = lerr
		}
	}
	return err
}

// genRFCMessage builds one RFC5424 structured log line. Per
// https://www.rfc-editor.org/rfc/rfc5424.html#section-6.2.7 Hostname,
// AppName and MsgID are length-bounded in the wire format; New/WithKV
// already keep Hostname/AppName within bounds, msgid is trimmed here.
func genRFCMessage(ts time.Time, prio rfc5424.Priority, hostname, appname, msgid, msg string, sds ...rfc5424.SDParam) ([]byte, error) {
	m := rfc5424.Message{
		Priority:  prio,
		Timestamp: ts,
		Hostname:  hostname,
		AppName:   appname,
		MessageID: trimPathLength(maxMsgID, msgid),
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{{
			ID:         defaultID,
			Parameters: sds,
		}}
	}
	return m.MarshalBinary()
}

// callLoc returns "file:line" of the caller skip frames up the stack, used
// as the RFC5424 MsgID so a log line can be traced back to its call site.
func callLoc(skip int) (s string) {
	if _, file, line, ok := runtime.Caller(skip); ok {
		dir, file := filepath.Split(file)
		file = filepath.Join(filepath.Base(dir), file)
		s = fmt.Sprintf("%s:%d", file, line)
	}
	return
}

// trimPathLength trims input to no more than n bytes of its basename, e.g.
// "journalreader/reader.go:352" -> "reader.go:352" when it overflows n.
func trimPathLength(n int, input string) string {
	if len(input) <= n {
		return input
	}
	base := filepath.Base(input)
	if len(base) > n {
		base = base[:n]
	}
	return base
}
