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
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// recvTimeout bounds how long WriteRead waits for the helper to produce
// output on one cycle before returning whatever has arrived so far.
const recvTimeout = 2 * time.Second

// execRunner is the default Runner, launching the helper with its own
// process group so Close can take down every descendant it may have
// spawned, mirroring the parent's own process-group kill convention.
type execRunner struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu      sync.Mutex
	closed  bool
	outBuf  bytes.Buffer
	errBuf  bytes.Buffer
	waitErr error
	exited  bool
}

// newExecRunner starts argv[0] with the remaining elements as arguments.
func newExecRunner(argv []string) (*execRunner, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("subprocreader: empty argv")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocreader: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocreader: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("subprocreader: stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("subprocreader: start %s: %w", argv[0], err)
	}

	r := &execRunner{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}
	go r.drain(r.stdout, &r.outBuf)
	go r.drain(r.stderr, &r.errBuf)
	go r.waitForExit()
	return r, nil
}

// waitForExit reaps the helper once it exits. cmd.ProcessState is only
// populated by Wait, so WriteRead cannot just inspect it directly without
// this goroutine — without a call to Wait, ProcessState stays nil forever
// and the reader would never observe the helper exiting.
func (r *execRunner) waitForExit() {
	err := r.cmd.Wait()
	r.mu.Lock()
	r.waitErr = err
	r.exited = true
	r.mu.Unlock()
}

func (r *execRunner) drain(rd io.Reader, buf *bytes.Buffer) {
	chunk := make([]byte, 64*1024)
	for {
		n, err := rd.Read(chunk)
		if n > 0 {
			r.mu.Lock()
			buf.Write(chunk[:n])
			r.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (r *execRunner) WriteRead(stdin []byte) (bool, []byte, []byte, error) {
	if stdin != nil {
		if _, err := r.stdin.Write(stdin); err != nil {
			return false, nil, nil, fmt.Errorf("subprocreader: write stdin: %w", err)
		}
	}

	time.Sleep(recvTimeout)

	r.mu.Lock()
	stdout := make([]byte, r.outBuf.Len())
	copy(stdout, r.outBuf.Bytes())
	r.outBuf.Reset()
	stderr := make([]byte, r.errBuf.Len())
	copy(stderr, r.errBuf.Bytes())
	r.errBuf.Reset()
	exited := r.exited
	r.mu.Unlock()

	return exited, stdout, stderr, nil
}

// Close terminates the helper's entire process group and releases pipes
// (§4.3 "Cancellation"). It does not call cmd.Wait itself: waitForExit
// already owns that call and Wait must only ever be invoked once.
func (r *execRunner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	if r.cmd.Process != nil {
		pgid, err := unix.Getpgid(r.cmd.Process.Pid)
		if err == nil {
			unix.Kill(-pgid, unix.SIGTERM)
		}
	}
	r.stdin.Close()
	r.stdout.Close()
	r.stderr.Close()
	return nil
}
