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

package funcindex

import (
	"debug/dwarf"
	"testing"

	"github.com/nativedbg/nativedbg/test"
)

func TestAddrRangeInRange(t *testing.T) {
	r := AddrRange{Start: 0x1000, End: 0x1010}
	test.ExpectSuccess(t, r.InRange(0x1000))
	test.ExpectSuccess(t, r.InRange(0x100f))
	test.ExpectFailure(t, r.InRange(0x1010))
	test.ExpectFailure(t, r.InRange(0x0fff))
}

func TestParentName(t *testing.T) {
	test.ExpectEquality(t, parentName(nil), "")
	test.ExpectEquality(t, parentName([]string{"Foo"}), "Foo")
	test.ExpectEquality(t, parentName([]string{"Foo", "Bar"}), "Foo::Bar")
}

func TestGetFunctionLinearScan(t *testing.T) {
	fi := &FunctionIndex{
		FuncHash:   map[uint64]dwarf.Offset{0x1000: 10, 0x2000: 20},
		RangeHash:  map[dwarf.Offset][]AddrRange{5: {{Start: 0x1000, End: 0x1020, DIE: 10}, {Start: 0x2000, End: 0x2030, DIE: 20}}},
		ParentHash: map[dwarf.Offset]string{},
	}

	die, ok := fi.GetFunction(0x1005, 5)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, die, dwarf.Offset(10))

	_, ok = fi.GetFunction(0x3000, 5)
	test.ExpectFailure(t, ok)
}
