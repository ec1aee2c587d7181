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

// Package breakpoints maintains the set of software breakpoints installed
// in a tracee: which link-time addresses are patched, whether each is
// currently enabled, and the original byte displaced by the 0xCC trap.
package breakpoints

import (
	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/logger"
)

const trapByte = 0xCC

// WordReadWriter is the word-granular ptrace access the table patches
// through. tracee.Tracee satisfies it; tests supply a fake.
type WordReadWriter interface {
	PeekWord(addr uint64) (uint64, error)
	PokeWord(addr uint64, word uint64) error
}

type entry struct {
	saved     byte
	enabled   bool
	installed bool
}

// Table is the C6 data model: address -> (saved original byte, enabled
// flag). Addresses are link-time; the caller normalizes to runtime
// immediately before touching the tracee.
type Table struct {
	mem     WordReadWriter
	toLink  func(uint64) uint64
	toRun   func(uint64) uint64
	entries map[uint64]*entry
}

// NewTable creates an empty breakpoint table. toRun/toLink convert between
// link-time addresses (the table's keys) and the runtime addresses the
// tracee's memory is patched at; pass identity functions for a static
// (non-PIE) executable.
func NewTable(mem WordReadWriter, toRun, toLink func(uint64) uint64) *Table {
	return &Table{
		mem:     mem,
		toRun:   toRun,
		toLink:  toLink,
		entries: make(map[uint64]*entry),
	}
}

// AddPending records a breakpoint without touching the tracee. Used before
// a tracee is running, or to re-arm a breakpoint across a tracee restart.
func (t *Table) AddPending(addr uint64) {
	if _, ok := t.entries[addr]; ok {
		return
	}
	t.entries[addr] = &entry{}
}

// Install patches the trap byte at addr, saving the byte it displaces. A
// no-op if addr is already installed.
func (t *Table) Install(addr uint64) error {
	e, ok := t.entries[addr]
	if !ok {
		e = &entry{}
		t.entries[addr] = e
	}
	if e.installed {
		return nil
	}

	run := t.toRun(addr)
	word, err := t.mem.PeekWord(run)
	if err != nil {
		return err
	}

	e.saved = byte(word)
	e.enabled = true
	e.installed = true

	patched := (word &^ 0xff) | trapByte
	return t.mem.PokeWord(run, patched)
}

// Remove restores the original byte at addr. It is an error to remove an
// address that is not currently installed.
func (t *Table) Remove(addr uint64) error {
	e, ok := t.entries[addr]
	if !ok || !e.installed {
		return errors.Errorf(errors.BreakpointStateInconsistent, addr)
	}

	run := t.toRun(addr)
	word, err := t.mem.PeekWord(run)
	if err != nil {
		// a library unload can make the
		// address unmapped by the time we try to restore it. Drop silently
		// with a warning rather than surfacing the raw ptrace failure.
		logger.Logf(logger.Allow, "breakpoints", "dropping unreachable breakpoint at %#x: %v", addr, err)
		e.installed = false
		e.enabled = false
		return nil
	}

	restored := (word &^ 0xff) | uint64(e.saved)
	if err := t.mem.PokeWord(run, restored); err != nil {
		return err
	}

	e.installed = false
	e.enabled = false
	return nil
}

// Forget drops addr from the table entirely, removing the trap byte first
// if it is currently installed. Used by CLEAR, which unlike Remove is
// allowed on a breakpoint that was only ever pending.
func (t *Table) Forget(addr uint64) error {
	e, ok := t.entries[addr]
	if !ok {
		return errors.Errorf(errors.BreakpointStateInconsistent, addr)
	}
	if e.installed {
		if err := t.Remove(addr); err != nil {
			return err
		}
	}
	delete(t.entries, addr)
	return nil
}

// EnableAll installs every currently-disabled breakpoint.
func (t *Table) EnableAll() error {
	for addr, e := range t.entries {
		if !e.installed {
			if err := t.Install(addr); err != nil {
				return err
			}
		}
	}
	return nil
}

// DisableAll removes every currently-installed breakpoint.
func (t *Table) DisableAll() error {
	for addr, e := range t.entries {
		if e.installed {
			if err := t.Remove(addr); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsBreakpoint reports whether addr (link-time) has a recorded breakpoint,
// installed or pending.
func (t *Table) IsBreakpoint(addr uint64) bool {
	_, ok := t.entries[addr]
	return ok
}

// Installed reports whether the breakpoint at addr currently holds the
// trap byte in the tracee.
func (t *Table) Installed(addr uint64) bool {
	e, ok := t.entries[addr]
	return ok && e.installed
}

// SavedByte returns the byte that was displaced by the trap at addr.
func (t *Table) SavedByte(addr uint64) (byte, bool) {
	e, ok := t.entries[addr]
	if !ok {
		return 0, false
	}
	return e.saved, true
}

// Addresses returns every recorded breakpoint address, installed or not.
func (t *Table) Addresses() []uint64 {
	out := make([]uint64, 0, len(t.entries))
	for addr := range t.entries {
		out = append(out, addr)
	}
	return out
}

// Listing is one row of Table.List(): a breakpoint address and whether it
// is currently installed (trap byte live in the tracee) and enabled.
type Listing struct {
	Address   uint64
	Installed bool
	Enabled   bool
}

// List returns every recorded breakpoint with its installed/enabled state,
// for the "list breakpoints" command alongside EnableAll/DisableAll.
func (t *Table) List() []Listing {
	out := make([]Listing, 0, len(t.entries))
	for addr, e := range t.entries {
		out = append(out, Listing{Address: addr, Installed: e.installed, Enabled: e.enabled})
	}
	return out
}
