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

// Package dwarfsec holds a LoadedImage's parsed DWARF data, its byte order
// and the raw bytes of two further sections; the typed views over them are
// built by other packages. debug/dwarf already owns the decoding of .debug_info,
// .debug_abbrev and .debug_str; this cache supplements it with the raw
// sections debug/dwarf does not interpret: .eh_frame and .debug_loc.
package dwarfsec

import (
	"debug/dwarf"
	"encoding/binary"

	"github.com/nativedbg/nativedbg/elfimage"
	"github.com/nativedbg/nativedbg/errors"
)

// Cache borrows section byte slices from a LoadedImage for the lifetime of
// a single debugging session. Every view handed out (lineindex.Index,
// funcindex.FunctionIndex, unwind.View, ...) borrows from this cache; the
// cache must outlive them all.
type Cache struct {
	Data      *dwarf.Data
	ByteOrder binary.ByteOrder

	EhFrame  []byte
	DebugLoc []byte
}

// NewCache parses the image's DWARF debug_info tree and borrows its
// .eh_frame and .debug_loc sections.
func NewCache(li *elfimage.LoadedImage) (*Cache, error) {
	data, err := li.ELF.DWARF()
	if err != nil {
		return nil, errors.Errorf(errors.DwarfCorruption, err)
	}

	return &Cache{
		Data:      data,
		ByteOrder: li.ByteOrder,
		EhFrame:   li.Section(".eh_frame"),
		DebugLoc:  li.Section(".debug_loc"),
	}, nil
}
