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

package frame

import (
	"golang.org/x/sys/unix"

	"github.com/nativedbg/nativedbg/unwind"
)

// x86-64 DWARF register numbers, per the System V AMD64 ABI psABI's CFI
// register number table. unwind.Rule.Register and evalexpr's regN/bregN
// opcodes are all expressed in this numbering.
const (
	RegRAX = 0
	RegRDX = 1
	RegRCX = 2
	RegRBX = 3
	RegRSI = 4
	RegRDI = 5
	RegRBP = 6
	RegRSP = 7
	RegR8  = 8
	RegR9  = 9
	RegR10 = 10
	RegR11 = 11
	RegR12 = 12
	RegR13 = 13
	RegR14 = 14
	RegR15 = 15
	RegRIP = 16
)

// FromPtraceRegs converts the kernel's register snapshot into the DWARF
// register numbering the unwinder and expression evaluator operate on.
func FromPtraceRegs(r unix.PtraceRegs) unwind.RegisterFile {
	return unwind.RegisterFile{
		RegRAX: r.Rax,
		RegRDX: r.Rdx,
		RegRCX: r.Rcx,
		RegRBX: r.Rbx,
		RegRSI: r.Rsi,
		RegRDI: r.Rdi,
		RegRBP: r.Rbp,
		RegRSP: r.Rsp,
		RegR8:  r.R8,
		RegR9:  r.R9,
		RegR10: r.R10,
		RegR11: r.R11,
		RegR12: r.R12,
		RegR13: r.R13,
		RegR14: r.R14,
		RegR15: r.R15,
		RegRIP: r.Rip,
	}
}

// ToPtraceRegs writes the fields FromPtraceRegs reads back into a
// PtraceRegs value; a register absent from rf is written as zero.
func ToPtraceRegs(rf unwind.RegisterFile, into *unix.PtraceRegs) {
	into.Rax = rf[RegRAX]
	into.Rdx = rf[RegRDX]
	into.Rcx = rf[RegRCX]
	into.Rbx = rf[RegRBX]
	into.Rsi = rf[RegRSI]
	into.Rdi = rf[RegRDI]
	into.Rbp = rf[RegRBP]
	into.Rsp = rf[RegRSP]
	into.R8 = rf[RegR8]
	into.R9 = rf[RegR9]
	into.R10 = rf[RegR10]
	into.R11 = rf[RegR11]
	into.R12 = rf[RegR12]
	into.R13 = rf[RegR13]
	into.R14 = rf[RegR14]
	into.R15 = rf[RegR15]
	into.Rip = rf[RegRIP]
}
