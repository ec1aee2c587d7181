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
	"encoding/binary"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/nativedbg/nativedbg/dwarfsec"
	"github.com/nativedbg/nativedbg/unwind"
)

func TestFromPtraceRegsRoundTrip(t *testing.T) {
	var r unix.PtraceRegs
	r.Rax, r.Rbx, r.Rbp, r.Rsp, r.Rip = 1, 2, 3, 4, 5
	r.R8, r.R15 = 8, 15

	rf := FromPtraceRegs(r)
	if rf[RegRAX] != 1 || rf[RegRBP] != 3 || rf[RegRSP] != 4 || rf[RegRIP] != 5 {
		t.Fatalf("unexpected register file: %+v", rf)
	}

	var back unix.PtraceRegs
	ToPtraceRegs(rf, &back)
	if back.Rax != r.Rax || back.Rbp != r.Rbp || back.Rsp != r.Rsp || back.Rip != r.Rip || back.R8 != r.R8 || back.R15 != r.R15 {
		t.Fatalf("round trip mismatch: got %+v, want %+v", back, r)
	}
}

func TestIsAbsoluteAddrExpr(t *testing.T) {
	absolute := append([]byte{0x03}, make([]byte, 8)...)
	if !isAbsoluteAddrExpr(absolute) {
		t.Errorf("expected a bare DW_OP_addr to be classified as absolute")
	}
	fbreg := []byte{0x91, 0x7c} // DW_OP_fbreg -4
	if isAbsoluteAddrExpr(fbreg) {
		t.Errorf("expected DW_OP_fbreg not to be classified as absolute")
	}
}

func TestResolveLocListFindsCoveringRange(t *testing.T) {
	var buf []byte
	put64 := func(v uint64) {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		buf = append(buf, b...)
	}
	put16 := func(v uint16) {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		buf = append(buf, b...)
	}

	// one range [0x1000, 0x1010) holding a one-byte expression, then the
	// (0,0) terminator.
	put64(0x1000)
	put64(0x1010)
	put16(1)
	buf = append(buf, 0x50) // DW_OP_reg0
	put64(0)
	put64(0)

	d := &Decoder{cache: &dwarfsec.Cache{DebugLoc: buf, ByteOrder: binary.LittleEndian}}

	expr, ok := d.resolveLocList(0, 0x1008)
	if !ok {
		t.Fatal("expected a covering range to be found")
	}
	if len(expr) != 1 || expr[0] != 0x50 {
		t.Errorf("unexpected expression bytes: %v", expr)
	}

	if _, ok := d.resolveLocList(0, 0x2000); ok {
		t.Errorf("expected no range to cover an address outside the list")
	}
}

func TestResolveLocListHonoursBaseAddressSelection(t *testing.T) {
	var buf []byte
	put64 := func(v uint64) {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		buf = append(buf, b...)
	}
	put16 := func(v uint16) {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		buf = append(buf, b...)
	}

	put64(^uint64(0))
	put64(0x5000) // base address selection: base = 0x5000
	put64(0x10)
	put64(0x20)
	put16(1)
	buf = append(buf, 0x51) // DW_OP_reg1
	put64(0)
	put64(0)

	d := &Decoder{cache: &dwarfsec.Cache{DebugLoc: buf, ByteOrder: binary.LittleEndian}}

	if _, ok := d.resolveLocList(0, 0x18); ok {
		t.Errorf("address without the base applied should not match")
	}
	expr, ok := d.resolveLocList(0, 0x5018)
	if !ok {
		t.Fatal("expected the base-adjusted range to match")
	}
	if len(expr) != 1 || expr[0] != 0x51 {
		t.Errorf("unexpected expression bytes: %v", expr)
	}
}

func TestFrameExprContextRegisterAndCFA(t *testing.T) {
	ctx := frameExprContext{
		regs:          unwind.RegisterFile{RegRBP: 0x7ffe},
		cfa:           0x8000,
		haveCFA:       true,
		frameBase:     0x7ff0,
		haveFrameBase: true,
	}

	v, err := ctx.Register(RegRBP)
	if err != nil || v != 0x7ffe {
		t.Fatalf("Register: got (%#x, %v)", v, err)
	}

	cfa, err := ctx.CFA()
	if err != nil || cfa != 0x8000 {
		t.Fatalf("CFA: got (%#x, %v)", cfa, err)
	}

	fb, err := ctx.FrameBase()
	if err != nil || fb != 0x7ff0 {
		t.Fatalf("FrameBase: got (%#x, %v)", fb, err)
	}

	if _, err := ctx.Register(99); err == nil {
		t.Error("expected an error reading an unknown register")
	}
}

func TestFrameExprContextRejectsMissingCFA(t *testing.T) {
	ctx := frameExprContext{}
	if _, err := ctx.CFA(); err == nil {
		t.Error("expected an error when no CFI covers the frame")
	}
	if _, err := ctx.FrameBase(); err == nil {
		t.Error("expected an error when the subprogram has no frame base")
	}
}

// fakeMemory is a flat byte-addressed store used to exercise Memory reads
// through frameExprContext and memReader.
type fakeMemory map[uint64]byte

func (m fakeMemory) ReadMemory(addr uint64, length int) ([]byte, error) {
	buf := make([]byte, length)
	for i := 0; i < length; i++ {
		buf[i] = m[addr+uint64(i)]
	}
	return buf, nil
}

func TestMemReaderRead64(t *testing.T) {
	mem := fakeMemory{0x2000: 0x0d, 0x2001: 0xf0, 0x2002: 0xad, 0x2003: 0xba}
	r := memReader{mem: mem}
	v, err := r.Read64(0x2000)
	if err != nil {
		t.Fatalf("Read64: %v", err)
	}
	if v != 0xbaadf00d {
		t.Errorf("expected 0xbaadf00d, got %#x", v)
	}
}
