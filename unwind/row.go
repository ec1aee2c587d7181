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
	"github.com/nativedbg/nativedbg/leb128"
)

// RuleKind classifies how a register's caller value is recovered.
type RuleKind int

const (
	Undefined RuleKind = iota
	SameValue
	Offset
	ValOffset
	Register
	Expression
	ValExpression
	Constant
)

// Rule is one register-restoration rule. The CFA rule is held separately,
// as a CFA.
type Rule struct {
	Kind     RuleKind
	Operand  int64
	Register int
	Expr     []byte
}

// CFA describes how the CFA is computed at a given Row.
type CFA struct {
	register int
	offset   int64
	expr     []byte
}

// Row is the decoded table state at one program-counter location.
type Row struct {
	location  uint64
	cfa       CFA
	registers map[int]Rule
}

func newRow() Row {
	return Row{registers: make(map[int]Rule)}
}

func (r Row) clone() Row {
	c := Row{location: r.location, cfa: r.cfa, registers: make(map[int]Rule, len(r.registers))}
	for k, v := range r.registers {
		c.registers[k] = v
	}
	return c
}

// initialRow decodes a CIE's initial instructions into the Row every FDE
// of that CIE starts from; rowAt continues it with the FDE's own
// instructions.
func (c *cie) initialRow() (Row, error) {
	r := newRow()
	if err := applyInstructions(c.instructions, c, &r, nil); err != nil {
		return Row{}, err
	}
	return r, nil
}

// applyInstructions walks a CFI instruction stream starting from *cur,
// stopping once the running location exceeds targetAddr (when targetAddr is
// non-nil). It mutates *cur in place and uses stack for remember/restore.
func applyInstructions(instructions []byte, c *cie, cur *Row, targetAddr *uint64) error {
	var stack []Row

	i := 0
	for i < len(instructions) {
		if targetAddr != nil && cur.location > *targetAddr {
			break
		}

		op := instructions[i]
		i++

		primary := op & 0xc0
		extended := op & 0x3f

		switch {
		case primary == 0x40: // DW_CFA_advance_loc
			cur.location += uint64(extended) * c.codeAlignment

		case primary == 0x80: // DW_CFA_offset
			off, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			cur.registers[int(extended)] = Rule{Kind: Offset, Operand: int64(off) * c.dataAlignment}

		case primary == 0xc0: // DW_CFA_restore
			// approximates the CIE's initial rule for this register as SameValue.
			cur.registers[int(extended)] = Rule{Kind: SameValue}

		case op == 0x00: // DW_CFA_nop
			// padding

		case op == 0x01: // DW_CFA_set_loc
			cur.location = uint64(instructions[i]) | uint64(instructions[i+1])<<8 |
				uint64(instructions[i+2])<<16 | uint64(instructions[i+3])<<24 |
				uint64(instructions[i+4])<<32 | uint64(instructions[i+5])<<40 |
				uint64(instructions[i+6])<<48 | uint64(instructions[i+7])<<56
			i += 8

		case op == 0x02: // DW_CFA_advance_loc1
			cur.location += uint64(instructions[i]) * c.codeAlignment
			i++

		case op == 0x03: // DW_CFA_advance_loc2
			delta := uint64(instructions[i]) | uint64(instructions[i+1])<<8
			cur.location += delta * c.codeAlignment
			i += 2

		case op == 0x04: // DW_CFA_advance_loc4
			delta := uint64(instructions[i]) | uint64(instructions[i+1])<<8 |
				uint64(instructions[i+2])<<16 | uint64(instructions[i+3])<<24
			cur.location += delta * c.codeAlignment
			i += 4

		case op == 0x05: // DW_CFA_offset_extended
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			off, n2 := leb128.DecodeULEB128(instructions[i:])
			i += n2
			cur.registers[int(reg)] = Rule{Kind: Offset, Operand: int64(off) * c.dataAlignment}

		case op == 0x06: // DW_CFA_restore_extended
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			cur.registers[int(reg)] = Rule{Kind: SameValue}

		case op == 0x07: // DW_CFA_undefined
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			cur.registers[int(reg)] = Rule{Kind: Undefined}

		case op == 0x08: // DW_CFA_same_value
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			cur.registers[int(reg)] = Rule{Kind: SameValue}

		case op == 0x09: // DW_CFA_register
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			other, n2 := leb128.DecodeULEB128(instructions[i:])
			i += n2
			cur.registers[int(reg)] = Rule{Kind: Register, Register: int(other)}

		case op == 0x0a: // DW_CFA_remember_state
			stack = append(stack, cur.clone())

		case op == 0x0b: // DW_CFA_restore_state
			if len(stack) == 0 {
				return errors.Errorf(errors.CorruptCFI, "restore_state with empty stack")
			}
			loc := cur.location
			*cur = stack[len(stack)-1]
			cur.location = loc
			stack = stack[:len(stack)-1]

		case op == 0x0c: // DW_CFA_def_cfa
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			off, n2 := leb128.DecodeULEB128(instructions[i:])
			i += n2
			cur.cfa = CFA{register: int(reg), offset: int64(off)}

		case op == 0x0d: // DW_CFA_def_cfa_register
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			cur.cfa.register = int(reg)

		case op == 0x0e: // DW_CFA_def_cfa_offset
			off, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			cur.cfa.offset = int64(off)

		case op == 0x0f: // DW_CFA_def_cfa_expression
			length, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			cur.cfa = CFA{expr: instructions[i : i+int(length)]}
			i += int(length)

		case op == 0x10: // DW_CFA_expression
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			length, n2 := leb128.DecodeULEB128(instructions[i:])
			i += n2
			cur.registers[int(reg)] = Rule{Kind: Expression, Expr: instructions[i : i+int(length)]}
			i += int(length)

		case op == 0x11: // DW_CFA_offset_extended_sf
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			off, n2 := leb128.DecodeSLEB128(instructions[i:])
			i += n2
			cur.registers[int(reg)] = Rule{Kind: Offset, Operand: off * c.dataAlignment}

		case op == 0x12: // DW_CFA_def_cfa_sf
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			off, n2 := leb128.DecodeSLEB128(instructions[i:])
			i += n2
			cur.cfa = CFA{register: int(reg), offset: off * c.dataAlignment}

		case op == 0x13: // DW_CFA_def_cfa_offset_sf
			off, n := leb128.DecodeSLEB128(instructions[i:])
			i += n
			cur.cfa.offset = off * c.dataAlignment

		case op == 0x14: // DW_CFA_val_offset
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			off, n2 := leb128.DecodeULEB128(instructions[i:])
			i += n2
			cur.registers[int(reg)] = Rule{Kind: ValOffset, Operand: int64(off) * c.dataAlignment}

		case op == 0x15: // DW_CFA_val_offset_sf
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			off, n2 := leb128.DecodeSLEB128(instructions[i:])
			i += n2
			cur.registers[int(reg)] = Rule{Kind: ValOffset, Operand: off * c.dataAlignment}

		case op == 0x16: // DW_CFA_val_expression
			reg, n := leb128.DecodeULEB128(instructions[i:])
			i += n
			length, n2 := leb128.DecodeULEB128(instructions[i:])
			i += n2
			cur.registers[int(reg)] = Rule{Kind: ValExpression, Expr: instructions[i : i+int(length)]}
			i += int(length)

		default:
			return errors.Errorf(errors.CorruptCFI, fmt.Sprintf("unsupported CFA opcode %#x", op))
		}
	}
	return nil
}

// rowAt computes the decoded Row covering link-time address addr within f.
func (f *fde) rowAt(addr uint64) (Row, error) {
	r, err := f.cie.initialRow()
	if err != nil {
		return Row{}, err
	}
	r.location = f.initialLocation

	target := addr
	if err := applyInstructions(f.instructions, f.cie, &r, &target); err != nil {
		return Row{}, err
	}
	return r, nil
}
