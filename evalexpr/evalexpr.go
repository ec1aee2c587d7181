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

// Package evalexpr runs DWARF location expressions. It pauses on requests
// to the supplied Context for the values it cannot compute itself: a
// register, a memory word, the function's frame base, or the current CFA.
package evalexpr

import (
	"encoding/binary"

	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/leb128"
)

// Context supplies the values a location expression cannot derive from its
// own bytecode.
type Context interface {
	// Memory returns size bytes at addr, interpreted as unsigned, native endian.
	Memory(addr uint64, size int) (uint64, error)
	Register(r int) (uint64, error)
	FrameBase() (uint64, error)
	CFA() (uint64, error)
}

// PieceKind classifies a Piece.
type PieceKind int

const (
	ValueKind PieceKind = iota
	RegisterKind
	AddressKind
)

// Piece is one element of an expression's result. Every caller in the core
// inspects piece 0 and classifies it into a register, a memory address, or
// a literal value.
type Piece struct {
	Kind     PieceKind
	Value    uint64
	Register int
}

const (
	opAddr             = 0x03
	opDeref            = 0x06
	opConst1u          = 0x08
	opConst1s          = 0x09
	opConst2u          = 0x0a
	opConst2s          = 0x0b
	opConst4u          = 0x0c
	opConst4s          = 0x0d
	opConst8u          = 0x0e
	opConst8s          = 0x0f
	opConstu           = 0x10
	opConsts           = 0x11
	opDup              = 0x12
	opDrop             = 0x13
	opMinus            = 0x1c
	opPlus             = 0x22
	opPlusUconst       = 0x23
	opLit0             = 0x30
	opLit31            = 0x4f
	opReg0             = 0x50
	opReg31            = 0x6f
	opBreg0            = 0x70
	opBreg31           = 0x8f
	opRegx             = 0x90
	opFbreg            = 0x91
	opBregx            = 0x92
	opPiece            = 0x93
	opCallFrameCfa     = 0x9c
	opStackValue       = 0x9f
)

// Evaluate runs expr against ctx and returns its result pieces.
func Evaluate(expr []byte, ctx Context) ([]Piece, error) {
	if len(expr) == 0 {
		return nil, errors.Errorf(errors.DwarfCorruption, "empty expression")
	}

	var stack []uint64
	var asValue bool

	for i := 0; i < len(expr); {
		op := expr[i]
		i++

		switch {
		case op == opAddr:
			stack = append(stack, binary.LittleEndian.Uint64(expr[i:]))
			i += 8

		case op == opDeref:
			if len(stack) == 0 {
				return nil, errors.Errorf(errors.DwarfCorruption, "deref on empty stack")
			}
			addr := stack[len(stack)-1]
			v, err := ctx.Memory(addr, 8)
			if err != nil {
				return nil, err
			}
			stack[len(stack)-1] = v

		case op == opConst1u:
			stack = append(stack, uint64(expr[i]))
			i++
		case op == opConst1s:
			stack = append(stack, uint64(int64(int8(expr[i]))))
			i++
		case op == opConst2u:
			stack = append(stack, uint64(binary.LittleEndian.Uint16(expr[i:])))
			i += 2
		case op == opConst2s:
			stack = append(stack, uint64(int64(int16(binary.LittleEndian.Uint16(expr[i:])))))
			i += 2
		case op == opConst4u:
			stack = append(stack, uint64(binary.LittleEndian.Uint32(expr[i:])))
			i += 4
		case op == opConst4s:
			stack = append(stack, uint64(int64(int32(binary.LittleEndian.Uint32(expr[i:])))))
			i += 4
		case op == opConst8u || op == opConst8s:
			stack = append(stack, binary.LittleEndian.Uint64(expr[i:]))
			i += 8

		case op == opConstu:
			v, n := leb128.DecodeULEB128(expr[i:])
			stack = append(stack, v)
			i += n
		case op == opConsts:
			v, n := leb128.DecodeSLEB128(expr[i:])
			stack = append(stack, uint64(v))
			i += n

		case op == opDup:
			if len(stack) == 0 {
				return nil, errors.Errorf(errors.DwarfCorruption, "dup on empty stack")
			}
			stack = append(stack, stack[len(stack)-1])
		case op == opDrop:
			if len(stack) == 0 {
				return nil, errors.Errorf(errors.DwarfCorruption, "drop on empty stack")
			}
			stack = stack[:len(stack)-1]

		case op == opPlus:
			if len(stack) < 2 {
				return nil, errors.Errorf(errors.DwarfCorruption, "plus needs two operands")
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, a+b)
		case op == opMinus:
			if len(stack) < 2 {
				return nil, errors.Errorf(errors.DwarfCorruption, "minus needs two operands")
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, a-b)
		case op == opPlusUconst:
			v, n := leb128.DecodeULEB128(expr[i:])
			i += n
			if len(stack) == 0 {
				return nil, errors.Errorf(errors.DwarfCorruption, "plus_uconst on empty stack")
			}
			stack[len(stack)-1] += v

		case op >= opLit0 && op <= opLit31:
			stack = append(stack, uint64(op-opLit0))

		case op >= opReg0 && op <= opReg31:
			return []Piece{{Kind: RegisterKind, Register: int(op - opReg0)}}, nil
		case op == opRegx:
			r, n := leb128.DecodeULEB128(expr[i:])
			i += n
			return []Piece{{Kind: RegisterKind, Register: int(r)}}, nil

		case op >= opBreg0 && op <= opBreg31:
			off, n := leb128.DecodeSLEB128(expr[i:])
			i += n
			v, err := ctx.Register(int(op - opBreg0))
			if err != nil {
				return nil, err
			}
			stack = append(stack, uint64(int64(v)+off))
		case op == opBregx:
			r, n := leb128.DecodeULEB128(expr[i:])
			i += n
			off, n2 := leb128.DecodeSLEB128(expr[i:])
			i += n2
			v, err := ctx.Register(int(r))
			if err != nil {
				return nil, err
			}
			stack = append(stack, uint64(int64(v)+off))

		case op == opFbreg:
			off, n := leb128.DecodeSLEB128(expr[i:])
			i += n
			fb, err := ctx.FrameBase()
			if err != nil {
				return nil, errors.Errorf(errors.NoFrameBase, err)
			}
			stack = append(stack, uint64(int64(fb)+off))

		case op == opCallFrameCfa:
			cfa, err := ctx.CFA()
			if err != nil {
				return nil, errors.Errorf(errors.NoCfa, err)
			}
			stack = append(stack, cfa)

		case op == opStackValue:
			asValue = true

		case op == opPiece:
			_, n := leb128.DecodeULEB128(expr[i:])
			i += n
			// composite pieces of non-scalar variables are not decomposed
			// further; the core only inspects piece 0.

		default:
			return nil, errors.Errorf(errors.UnsupportedRegisterRule, op)
		}
	}

	if len(stack) == 0 {
		return nil, errors.Errorf(errors.DwarfCorruption, "expression produced no result")
	}

	top := stack[len(stack)-1]
	if asValue {
		return []Piece{{Kind: ValueKind, Value: top}}, nil
	}
	return []Piece{{Kind: AddressKind, Value: top}}, nil
}
