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

package lineindex

import (
	"testing"

	"github.com/nativedbg/nativedbg/test"
)

func TestHashingDirectoryRelative(t *testing.T) {
	dir, rel := hashingDirectory("/home/user/src", "main.c")
	test.ExpectEquality(t, dir, "/home/user/src")
	test.ExpectEquality(t, rel, "main.c")
}

func TestHashingDirectoryAbsoluteWithPrefix(t *testing.T) {
	dir, rel := hashingDirectory("/home/user/src", "/home/user/src/lib/other.c")
	test.ExpectEquality(t, dir, "/home/user/src")
	test.ExpectEquality(t, rel, "lib/other.c")
}

func TestHashingDirectoryAbsoluteNoPrefix(t *testing.T) {
	dir, rel := hashingDirectory("/home/user/src", "/usr/include/stdio.h")
	test.ExpectEquality(t, dir, "/usr/include")
	test.ExpectEquality(t, rel, "stdio.h")
}

func TestInsertReusesIndex(t *testing.T) {
	idx := &Index{Map: make(map[string][]SourceFile), Addrs: make(map[uint64]SourceIndex)}

	si1 := idx.insert("/home/user/src", SourceFile{RelPath: "main.c"}, 2)
	si2 := idx.insert("/home/user/src", SourceFile{RelPath: "main.c"}, 5)
	si3 := idx.insert("/home/user/src", SourceFile{RelPath: "other.c"}, 3)

	test.ExpectEquality(t, si1.Index, 0)
	test.ExpectEquality(t, si2.Index, 0)
	test.ExpectEquality(t, si3.Index, 1)
	test.ExpectEquality(t, len(idx.Map["/home/user/src"]), 2)
}

func TestGetLineSkipsEndSequence(t *testing.T) {
	idx := &Index{Map: make(map[string][]SourceFile), Addrs: make(map[uint64]SourceIndex)}
	idx.Addrs[0x1000] = SourceIndex{Line: 2, Dir: "d", Index: 0}
	idx.Addrs[0x1010] = noSource

	_, ok := idx.GetLine(0x1000)
	test.ExpectSuccess(t, ok)

	_, ok = idx.GetLine(0x1010)
	test.ExpectFailure(t, ok)
}

func TestGetAddressRoundTrip(t *testing.T) {
	idx := &Index{Map: make(map[string][]SourceFile), Addrs: make(map[uint64]SourceIndex)}
	si := idx.insert("/home/user/src", SourceFile{RelPath: "main.c"}, 2)
	idx.Addrs[0x1149] = si

	addr, ok := idx.GetAddress(si)
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, addr, uint64(0x1149))
}
