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

package unwind

import (
	"fmt"

	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/evalexpr"
)

// RegisterFile maps x86-64 DWARF register numbers (the System V ABI
// numbering: 0=rax .. 6=rbp, 7=rsp, 8=r8 .. 15=r15, 16=rip) to their
// current value. A register absent from the map is unknown.
type RegisterFile map[int]uint64

// MemReader supplies the 8-byte, native-endian words register restoration
// rules read out of the stack.
type MemReader interface {
	Read64(addr uint64) (uint64, error)
}

// Result is the outcome of unwinding one frame: the restored caller
// register file and the CFA computed for the callee's frame.
type Result struct {
	Registers RegisterFile
	CFA       uint64
}

// Covers reports whether any FDE in the view covers the link-time address
// addr. The frame decoder uses it to tell the normal end of a call stack
// (code outside any known FDE, e.g. a dynamic library) apart from a genuine
// CFI corruption once a covering FDE has been found.
func (v *View) Covers(addr uint64) bool {
	_, ok := v.lookup(addr)
	return ok
}

// Unwind finds the FDE covering the link-time address addr, computes its
// CFA against the given (callee) register file, and restores every
// register rule in the row to produce the caller's register file. RIP in
// the result holds the return address; RSP holds the caller's stack
// pointer, per the default CFA-relative rules most compilers emit.
func Unwind(view *View, addr uint64, current RegisterFile, mem MemReader) (Result, error) {
	fde, ok := view.lookup(addr)
	if !ok {
		return Result{}, errors.Errorf(errors.CorruptCFI, fmt.Sprintf("no FDE covers address %#x", addr))
	}

	row, err := fde.rowAt(addr)
	if err != nil {
		return Result{}, err
	}

	cfa, err := computeCFA(row.cfa, current, mem)
	if err != nil {
		return Result{}, err
	}

	next := make(RegisterFile, len(current))
	for r, v := range current {
		next[r] = v // SameValue is the default: carry the callee's value forward
	}

	for reg, rule := range row.registers {
		switch rule.Kind {
		case Offset:
			v, err := mem.Read64(uint64(int64(cfa) + rule.Operand))
			if err != nil {
				return Result{}, err
			}
			next[reg] = v

		case ValOffset:
			next[reg] = uint64(int64(cfa) + rule.Operand)

		case Register:
			v, ok := current[rule.Register]
			if !ok {
				return Result{}, errors.Errorf(errors.UnsupportedRegisterRule, fmt.Sprintf("source register %d of a Register rule is unknown", rule.Register))
			}
			next[reg] = v

		case Expression:
			addr, err := evalWithCFA(rule.Expr, current, cfa, mem)
			if err != nil {
				return Result{}, err
			}
			v, err := mem.Read64(addr)
			if err != nil {
				return Result{}, err
			}
			next[reg] = v

		case ValExpression:
			v, err := evalWithCFA(rule.Expr, current, cfa, mem)
			if err != nil {
				return Result{}, err
			}
			next[reg] = v

		case Constant:
			next[reg] = uint64(rule.Operand)

		case SameValue:
			// already carried forward above

		case Undefined:
			delete(next, reg)

		default:
			return Result{}, errors.Errorf(errors.UnsupportedRegisterRule, rule.Kind)
		}
	}

	// the caller's stack pointer is the CFA, unless the row restores RSP
	// through a rule of its own.
	if _, ok := row.registers[7]; !ok {
		next[7] = cfa
	}

	return Result{Registers: next, CFA: cfa}, nil
}

// computeCFA implements the CFA rule: either register+offset, or
// an expression that must not itself reference the CFA (it doesn't exist
// yet).
func computeCFA(rule CFA, current RegisterFile, mem MemReader) (uint64, error) {
	if rule.expr != nil {
		return evalWithCFA(rule.expr, current, 0, mem, true)
	}
	v, ok := current[rule.register]
	if !ok {
		return 0, errors.Errorf(errors.CorruptCFI, fmt.Sprintf("CFA register %d is unknown", rule.register))
	}
	return uint64(int64(v) + rule.offset), nil
}

// evalWithCFA runs a DWARF expression against the register file / memory
// available during unwinding. noCFA forbids the expression from consuming
// the CFA itself (used only while computing the CFA).
func evalWithCFA(expr []byte, regs RegisterFile, cfa uint64, mem MemReader, noCFA ...bool) (uint64, error) {
	forbidCFA := len(noCFA) > 0 && noCFA[0]
	ctx := unwindExprContext{regs: regs, mem: mem, cfa: cfa, forbidCFA: forbidCFA}

	pieces, err := evalexpr.Evaluate(expr, ctx)
	if err != nil {
		return 0, err
	}
	return pieces[0].Value, nil
}

type unwindExprContext struct {
	regs      RegisterFile
	mem       MemReader
	cfa       uint64
	forbidCFA bool
}

func (c unwindExprContext) Memory(addr uint64, size int) (uint64, error) {
	return c.mem.Read64(addr)
}

func (c unwindExprContext) Register(r int) (uint64, error) {
	v, ok := c.regs[r]
	if !ok {
		return 0, errors.Errorf(errors.UnsupportedRegisterRule, fmt.Sprintf("register %d unavailable during unwind", r))
	}
	return v, nil
}

func (c unwindExprContext) FrameBase() (uint64, error) {
	return 0, errors.Errorf(errors.NoFrameBase, "frame base is not available while unwinding CFI")
}

func (c unwindExprContext) CFA() (uint64, error) {
	if c.forbidCFA {
		return 0, errors.Errorf(errors.CorruptCFI, "CFA expression referenced the CFA it is computing")
	}
	return c.cfa, nil
}
