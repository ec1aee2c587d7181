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

package evalexpr

import (
	"testing"

	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/test"
)

type mockContext struct {
	registers map[int]uint64
	memory    map[uint64]uint64
	frameBase uint64
	cfa       uint64
}

func (m *mockContext) Memory(addr uint64, size int) (uint64, error) {
	v, ok := m.memory[addr]
	if !ok {
		return 0, errors.Errorf(errors.MemoryReadError, addr)
	}
	return v, nil
}

func (m *mockContext) Register(r int) (uint64, error) {
	return m.registers[r], nil
}

func (m *mockContext) FrameBase() (uint64, error) { return m.frameBase, nil }
func (m *mockContext) CFA() (uint64, error)        { return m.cfa, nil }

func TestEvaluateRegisterLocation(t *testing.T) {
	// DW_OP_reg5
	pieces, err := Evaluate([]byte{opReg0 + 5}, &mockContext{})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pieces[0].Kind, RegisterKind)
	test.ExpectEquality(t, pieces[0].Register, 5)
}

func TestEvaluateFbregAddress(t *testing.T) {
	// DW_OP_fbreg -8
	pieces, err := Evaluate([]byte{opFbreg, 0x78}, &mockContext{frameBase: 0x1000})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pieces[0].Kind, AddressKind)
	test.ExpectEquality(t, pieces[0].Value, uint64(0xff8))
}

func TestEvaluateAddrLiteral(t *testing.T) {
	expr := []byte{opAddr, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	pieces, err := Evaluate(expr, &mockContext{})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pieces[0].Value, uint64(0x1000))
}

func TestEvaluateCallFrameCfaStackValue(t *testing.T) {
	expr := []byte{opCallFrameCfa, opPlusUconst, 0x04, opStackValue}
	pieces, err := Evaluate(expr, &mockContext{cfa: 0x2000})
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, pieces[0].Kind, ValueKind)
	test.ExpectEquality(t, pieces[0].Value, uint64(0x2004))
}

func TestEvaluateEmptyExpression(t *testing.T) {
	_, err := Evaluate(nil, &mockContext{})
	test.ExpectFailure(t, err)
}
