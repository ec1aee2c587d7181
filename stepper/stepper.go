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

// Package stepper composes the tracee and breakpoint table into the three
// stepping primitives the debugger exposes: a raw instruction step, a step
// that rewinds past a trap of our own making, and a step that runs until
// source position changes.
package stepper

import (
	"golang.org/x/sys/unix"

	"github.com/nativedbg/nativedbg/breakpoints"
	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/lineindex"
	"github.com/nativedbg/nativedbg/tracee"
)

// Tracee is the subset of tracee.Tracee the controller drives; *tracee.Tracee
// satisfies it directly, and tests can supply a fake.
type Tracee interface {
	Regs() (unix.PtraceRegs, error)
	SetRegs(*unix.PtraceRegs) error
	SingleStep() (tracee.Status, error)
	Cont() (tracee.Status, error)
}

// Status is an alias of tracee.Status so callers of this package don't need
// to import tracee themselves just to read a step result.
type Status = tracee.Status

// Controller is the C7 step controller.
type Controller struct {
	t      Tracee
	bp     *breakpoints.Table
	lines  *lineindex.Index
	toLink func(uint64) uint64
}

// New builds a Controller. toLink converts a runtime RIP to the link-time
// address used by the breakpoint table and line index.
func New(t Tracee, bp *breakpoints.Table, lines *lineindex.Index, toLink func(uint64) uint64) *Controller {
	return &Controller{t: t, bp: bp, lines: lines, toLink: toLink}
}

// SingleStep executes exactly one instruction, without regard to
// breakpoints. Callers that might be sitting on a trap should call
// StepOverBreakpoint instead.
func (c *Controller) SingleStep() (Status, error) {
	return c.t.SingleStep()
}

// StepOverBreakpoint performs the rewind-remove-step-reinstall dance
// required when the tracee has just stopped on one of our own int3s: the
// trap leaves RIP one byte past the patched address.
func (c *Controller) StepOverBreakpoint() (Status, error) {
	regs, err := c.t.Regs()
	if err != nil {
		return Status{}, err
	}

	trapAddr := regs.Rip - 1
	link := c.toLink(trapAddr)
	if !c.bp.IsBreakpoint(link) {
		return Status{}, errors.Errorf(errors.NotAtBreakpoint, trapAddr)
	}

	regs.Rip = trapAddr
	if err := c.t.SetRegs(&regs); err != nil {
		return Status{}, err
	}

	wasInstalled := c.bp.Installed(link)
	if wasInstalled {
		if err := c.bp.Remove(link); err != nil {
			return Status{}, err
		}
	}

	st, err := c.t.SingleStep()
	if err != nil {
		return Status{}, err
	}

	if wasInstalled {
		if err := c.bp.Install(link); err != nil {
			return Status{}, err
		}
	}

	return st, nil
}

// stepOnce steps a single instruction, first unwinding a trap if RIP is
// sitting on one of our breakpoints.
func (c *Controller) stepOnce() (Status, error) {
	regs, err := c.t.Regs()
	if err != nil {
		return Status{}, err
	}
	link := c.toLink(regs.Rip)
	if c.bp.Installed(link) {
		return c.StepOverBreakpoint()
	}
	return c.t.SingleStep()
}

// SourceStep single-steps until RIP lands on an address the line index
// knows about AND that address maps to a different SourceIndex than the
// one the step started from.
func (c *Controller) SourceStep() (uint64, lineindex.SourceIndex, error) {
	regs, err := c.t.Regs()
	if err != nil {
		return 0, lineindex.SourceIndex{}, err
	}
	startLink := c.toLink(regs.Rip)
	start, _ := c.lines.GetLine(startLink)

	for {
		st, err := c.stepOnce()
		if err != nil {
			return 0, lineindex.SourceIndex{}, err
		}
		if st.Exited || st.Signaled {
			return 0, lineindex.SourceIndex{}, errors.Errorf(errors.TraceeDied, "tracee stopped responding during source step")
		}

		regs, err = c.t.Regs()
		if err != nil {
			return 0, lineindex.SourceIndex{}, err
		}
		link := c.toLink(regs.Rip)

		si, ok := c.lines.GetLine(link)
		if !ok {
			continue
		}
		if si == start {
			continue
		}
		return link, si, nil
	}
}

// Continue resumes the tracee until the next breakpoint or exit, handling
// the case where RIP currently sits on one of our own traps.
func (c *Controller) Continue() (Status, error) {
	regs, err := c.t.Regs()
	if err != nil {
		return Status{}, err
	}
	link := c.toLink(regs.Rip)
	if c.bp.Installed(link) {
		st, err := c.StepOverBreakpoint()
		if err != nil {
			return Status{}, err
		}
		if st.Exited || st.Signaled {
			return st, nil
		}
	}

	if err := c.bp.EnableAll(); err != nil {
		return Status{}, err
	}

	return c.t.Cont()
}
