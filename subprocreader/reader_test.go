/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package subprocreader

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gravwell/logreaders/entry"
)

// fakeRunner hands back a scripted sequence of WriteRead results, letting
// tests drive the operation loop without a real helper process.
type fakeRunner struct {
	calls  [][]byte // stdout per call
	exitAt int      // index of the call that reports exited=true
	stderr []byte
	i      int
	closed bool
}

func (f *fakeRunner) WriteRead(stdin []byte) (bool, []byte, []byte, error) {
	idx := f.i
	f.i++
	var stdout []byte
	if idx < len(f.calls) {
		stdout = f.calls[idx]
	}
	exited := idx >= f.exitAt
	var stderr []byte
	if exited {
		stderr = f.stderr
	}
	return exited, stdout, stderr, nil
}

func (f *fakeRunner) Close() error {
	f.closed = true
	return nil
}

func buildFrame(begin, end int, tsMillis int64, payload string) []byte {
	return []byte(fmt.Sprintf("%d\x1e%d\x1e%d\x1e%s", begin, end, tsMillis, payload))
}

func joinEvents(frames [][]byte) []byte {
	return bytes.Join(frames, []byte{eventDelim})
}

func TestSubprocessFilteringScenario(t *testing.T) {
	// 21 events at t=0,1,2,...,20 seconds since epoch; after cutoff drops
	// the first 8 (t < 8), leaving 13 accepted.
	var frames [][]byte
	for i := 0; i < 21; i++ {
		frames = append(frames, buildFrame(0, 5, int64(i)*1000, fmt.Sprintf("event-%02d", i)))
	}

	r := &Reader{
		runner:     &fakeRunner{calls: [][]byte{joinEvents(frames)}, exitAt: 1},
		fillBuffer: make([]parsedEvent, 0, fillBufferCapacity),
	}

	after := entry.SomeInstant(entry.FromUnixMicro(8 * 1_000_000))
	filter := entry.Filter{AfterOrAt: after}

	accepted := 0
	for {
		res := r.Next(filter)
		if res.IsDone() {
			break
		}
		require.True(t, res.IsFound(), "unexpected result: %#v", res)
		accepted++
	}

	require.Equal(t, 21, int(r.Summary().Processed))
	require.Equal(t, 13, accepted)
	require.Equal(t, 13, int(r.Summary().Accepted))
}

func TestSubprocessAbnormalExitReturnsErrWithStderr(t *testing.T) {
	r := &Reader{
		runner:     &fakeRunner{calls: nil, exitAt: 0, stderr: []byte("boom: parse failure")},
		fillBuffer: make([]parsedEvent, 0, fillBufferCapacity),
	}

	res := r.Next(entry.Filter{})
	require.True(t, res.IsErr())
	require.Contains(t, res.Error().Error(), "boom: parse failure")
}

func TestParseFrameMalformedOffsetsClampToZero(t *testing.T) {
	frame := buildFrame(100, 2, 500, "short")
	ev, ok := parseFrame(frame, 0)
	require.True(t, ok)
	require.Equal(t, 0, ev.begin)
	require.Equal(t, 0, ev.end)
}

func TestParseFrameEmptyChunkSkipped(t *testing.T) {
	_, ok := parseFrame(nil, 0)
	require.False(t, ok)
}

func TestParseFrameBadTsValueDrops(t *testing.T) {
	frame := []byte("0\x1e3\x1enotanumber\x1epayload")
	_, ok := parseFrame(frame, 0)
	require.False(t, ok)
}
