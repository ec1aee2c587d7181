// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package tracee forks and execs a target executable under ptrace, waits
// for it to stop, and gives the rest of the core random-access reads and
// writes into its register file and address space. Every operation in
// this package requires the tracee to be stopped; none of them may be
// issued while it is running.
package tracee

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nativedbg/nativedbg/errors"
)

// x86-64 is always little-endian; word-granular ptrace peek/poke decode
// through this order rather than a field the ELF header would otherwise
// supply.
var nativeEndian = binary.LittleEndian

// StdioMode selects whether the tracee shares the debugger's stdio or
// communicates over a pair of pipes the debugger holds the other end of.
type StdioMode int

const (
	Inherit StdioMode = iota
	Piped
)

// Status classifies the outcome of a Wait call.
type Status struct {
	Exited   bool
	ExitCode int
	Signaled bool
	Signal   unix.Signal
	Stopped  bool
	StopSig  unix.Signal
}

// Tracee is a single traced child process. Single-threaded only: a
// multi-threaded tracee is out of scope, so one pid is the whole story.
type Tracee struct {
	Pid int

	cmd   *exec.Cmd
	mem   *os.File
	Stdin io.WriteCloser
	Stdout io.ReadCloser
}

// Launch forks, requests tracing, and execs path with args. It returns once
// the tracee has hit its initial post-exec stop (the kernel always stops a
// traced child immediately after exec succeeds).
func Launch(path string, args []string, mode StdioMode) (*Tracee, error) {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Ptrace: true}

	t := &Tracee{cmd: cmd}

	switch mode {
	case Piped:
		in, err := cmd.StdinPipe()
		if err != nil {
			return nil, errors.Errorf(errors.FatalLaunchError, err)
		}
		out, err := cmd.StdoutPipe()
		if err != nil {
			return nil, errors.Errorf(errors.FatalLaunchError, err)
		}
		cmd.Stderr = os.Stderr
		t.Stdin = in
		t.Stdout = out
	default:
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Errorf(errors.FatalLaunchError, err)
	}
	t.Pid = cmd.Process.Pid

	// the exec call inside the child raises SIGTRAP against itself the
	// moment exec succeeds (the traceme request from the child is implicit
	// in SysProcAttr.Ptrace); the parent's first wait collects that stop.
	var ws unix.WaitStatus
	if _, err := unix.Wait4(t.Pid, &ws, 0, nil); err != nil {
		return nil, errors.Errorf(errors.FatalLaunchError, err)
	}
	if !ws.Stopped() {
		return nil, errors.Errorf(errors.FatalLaunchError, fmt.Sprintf("unexpected initial wait status %v", ws))
	}

	mem, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", t.Pid), os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Errorf(errors.FatalLaunchError, err)
	}
	t.mem = mem

	return t, nil
}

// Regs reads the tracee's general purpose register file.
func (t *Tracee) Regs() (unix.PtraceRegs, error) {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(t.Pid, &regs); err != nil {
		return regs, errors.Errorf(errors.NoTracee, err)
	}
	return regs, nil
}

// SetRegs writes back a modified register file.
func (t *Tracee) SetRegs(regs *unix.PtraceRegs) error {
	if err := unix.PtraceSetRegs(t.Pid, regs); err != nil {
		return errors.Errorf(errors.NoTracee, err)
	}
	return nil
}

// PeekWord reads one 8-byte word at a runtime address via ptrace, used by
// the breakpoint table for its read-modify-write byte patch.
func (t *Tracee) PeekWord(addr uint64) (uint64, error) {
	buf := make([]byte, 8)
	n, err := unix.PtracePeekData(t.Pid, uintptr(addr), buf)
	if err != nil || n != len(buf) {
		return 0, errors.Errorf(errors.MemoryReadError, err)
	}
	return nativeEndian.Uint64(buf), nil
}

// PokeWord writes one 8-byte word at a runtime address via ptrace.
func (t *Tracee) PokeWord(addr uint64, word uint64) error {
	buf := make([]byte, 8)
	nativeEndian.PutUint64(buf, word)
	if _, err := unix.PtracePokeData(t.Pid, uintptr(addr), buf); err != nil {
		return errors.Errorf(errors.MemoryReadError, err)
	}
	return nil
}

// ReadMemory reads length bytes at a runtime address through
// /proc/<pid>/mem, the general-purpose random access path used by memory
// inspection (and, outside this spec's scope, the memory editor).
func (t *Tracee) ReadMemory(addr uint64, length int) ([]byte, error) {
	buf := make([]byte, length)
	n, err := t.mem.ReadAt(buf, int64(addr))
	if err != nil && n == 0 {
		return nil, errors.Errorf(errors.MemoryReadError, err)
	}
	return buf[:n], nil
}

// WriteMemory writes data at a runtime address through /proc/<pid>/mem.
func (t *Tracee) WriteMemory(addr uint64, data []byte) error {
	if _, err := t.mem.WriteAt(data, int64(addr)); err != nil {
		return errors.Errorf(errors.MemoryReadError, err)
	}
	return nil
}

// SingleStep issues PTRACE_SINGLESTEP and waits for the resulting stop.
func (t *Tracee) SingleStep() (Status, error) {
	if err := unix.PtraceSingleStep(t.Pid); err != nil {
		return Status{}, errors.Errorf(errors.NoTracee, err)
	}
	return t.Wait()
}

// Cont issues PTRACE_CONT and waits for the resulting stop.
func (t *Tracee) Cont() (Status, error) {
	if err := unix.PtraceCont(t.Pid, 0); err != nil {
		return Status{}, errors.Errorf(errors.NoTracee, err)
	}
	return t.Wait()
}

// Wait blocks until the tracee changes state and classifies the result.
func (t *Tracee) Wait() (Status, error) {
	var ws unix.WaitStatus
	if _, err := unix.Wait4(t.Pid, &ws, 0, nil); err != nil {
		return Status{}, errors.Errorf(errors.TraceeDied, err)
	}

	var st Status
	switch {
	case ws.Exited():
		st.Exited = true
		st.ExitCode = ws.ExitStatus()
	case ws.Signaled():
		st.Signaled = true
		st.Signal = ws.Signal()
	case ws.Stopped():
		st.Stopped = true
		st.StopSig = ws.StopSignal()
	}
	return st, nil
}

// Kill races a SIGKILL against any pending wait: send the
// signal first, then consume the resulting exit status so no zombie is
// left behind.
func (t *Tracee) Kill() error {
	if err := unix.Kill(t.Pid, unix.SIGKILL); err != nil {
		return errors.Errorf(errors.NoTracee, err)
	}
	_, _ = t.Wait()
	if t.mem != nil {
		_ = t.mem.Close()
	}
	return nil
}
