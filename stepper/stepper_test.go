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

package stepper_test

import (
	"testing"

	"golang.org/x/sys/unix"

	"github.com/nativedbg/nativedbg/breakpoints"
	"github.com/nativedbg/nativedbg/lineindex"
	"github.com/nativedbg/nativedbg/stepper"
	"github.com/nativedbg/nativedbg/tracee"
)

// fakeTracee is a tiny in-memory stand-in for a traced process: a flat byte
// array addressed directly by "runtime" address, stepped one byte at a time.
type fakeTracee struct {
	mem  map[uint64]byte
	rip  uint64
	rsp  uint64
}

func newFakeTracee() *fakeTracee {
	return &fakeTracee{mem: make(map[uint64]byte)}
}

func (f *fakeTracee) Regs() (unix.PtraceRegs, error) {
	var r unix.PtraceRegs
	r.Rip = f.rip
	r.Rsp = f.rsp
	return r, nil
}

func (f *fakeTracee) SetRegs(r *unix.PtraceRegs) error {
	f.rip = r.Rip
	f.rsp = r.Rsp
	return nil
}

func (f *fakeTracee) SingleStep() (tracee.Status, error) {
	f.rip++
	return tracee.Status{Stopped: true}, nil
}

func (f *fakeTracee) Cont() (tracee.Status, error) {
	return tracee.Status{Stopped: true}, nil
}

func (f *fakeTracee) PeekWord(addr uint64) (uint64, error) {
	word := uint64(0)
	for i := 0; i < 8; i++ {
		word |= uint64(f.mem[addr+uint64(i)]) << (8 * i)
	}
	return word, nil
}

func (f *fakeTracee) PokeWord(addr uint64, word uint64) error {
	for i := 0; i < 8; i++ {
		f.mem[addr+uint64(i)] = byte(word >> (8 * i))
	}
	return nil
}

func identity(a uint64) uint64 { return a }

func TestStepOverBreakpointRewindsAndReinstalls(t *testing.T) {
	ft := newFakeTracee()
	ft.mem[0x1000] = 0x55 // push rbp, the original byte under the trap

	bp := breakpoints.NewTable(ft, identity, identity)
	bp.AddPending(0x1000)
	if err := bp.Install(0x1000); err != nil {
		t.Fatalf("Install: %v", err)
	}

	// simulate the trap: the tracee has just executed the 0xCC and RIP now
	// sits one byte past it.
	ft.rip = 0x1001

	lines := &lineindex.Index{Addrs: map[uint64]lineindex.SourceIndex{}}
	ctrl := stepper.New(ft, bp, lines, identity)

	if _, err := ctrl.StepOverBreakpoint(); err != nil {
		t.Fatalf("StepOverBreakpoint: %v", err)
	}

	if ft.rip == 0x1000 {
		t.Errorf("expected RIP to have advanced past the breakpoint address, got %#x", ft.rip)
	}
	if !bp.Installed(0x1000) {
		t.Errorf("expected breakpoint to be reinstalled after stepping over it")
	}

	word, err := ft.PeekWord(0x1000)
	if err != nil {
		t.Fatalf("PeekWord: %v", err)
	}
	if byte(word) != 0xCC {
		t.Errorf("expected trap byte reinstalled, got %#x", byte(word))
	}
}

func TestStepOverBreakpointNotAtBreakpoint(t *testing.T) {
	ft := newFakeTracee()
	bp := breakpoints.NewTable(ft, identity, identity)
	lines := &lineindex.Index{Addrs: map[uint64]lineindex.SourceIndex{}}
	ctrl := stepper.New(ft, bp, lines, identity)

	ft.rip = 0x2000
	if _, err := ctrl.StepOverBreakpoint(); err == nil {
		t.Errorf("expected NotAtBreakpoint error when RIP-1 is not one of ours")
	}
}

func TestSourceStepStopsOnLineChange(t *testing.T) {
	ft := newFakeTracee()
	bp := breakpoints.NewTable(ft, identity, identity)

	lines := &lineindex.Index{Addrs: map[uint64]lineindex.SourceIndex{
		0x100: {Line: 1, Dir: "/src", Index: 0},
		0x101: {Line: 1, Dir: "/src", Index: 0},
		0x102: {Line: 2, Dir: "/src", Index: 0},
	}}
	ctrl := stepper.New(ft, bp, lines, identity)

	ft.rip = 0x100
	addr, si, err := ctrl.SourceStep()
	if err != nil {
		t.Fatalf("SourceStep: %v", err)
	}
	if addr != 0x102 {
		t.Errorf("expected to stop at 0x102, got %#x", addr)
	}
	if si.Line != 2 {
		t.Errorf("expected line 2, got %d", si.Line)
	}
}
