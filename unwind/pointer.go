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
	"encoding/binary"
	"fmt"

	"github.com/nativedbg/nativedbg/errors"
)

// DW_EH_PE encoding bytes, as used by GCC/Clang's .eh_frame augmentation
// data. The low nibble is the value format, the high nibble (minus the
// indirect bit) is how the value is applied relative to other addresses.
const (
	peOmit   = 0xff
	peAbsptr = 0x00
	peULEB   = 0x01
	peUData2 = 0x02
	peUData4 = 0x03
	peUData8 = 0x04
	peSLEB   = 0x09
	peSData2 = 0x0a
	peSData4 = 0x0b
	peSData8 = 0x0c

	peFormatMask = 0x0f
	peIndirect   = 0x80
	peApplPCRel  = 0x10
)

// peSize reports the encoded width in bytes, or -1 for variable-length
// (ULEB128/SLEB128) encodings, which decodePointer rejects.
func peSize(encoding byte) int {
	switch encoding & peFormatMask {
	case peAbsptr:
		return 8
	case peUData2, peSData2:
		return 2
	case peUData4, peSData4:
		return 4
	case peUData8, peSData8:
		return 8
	}
	return -1
}

// decodePointer reads one encoded pointer from data, returning its
// resolved value and the number of bytes consumed. pcrelBase is the
// runtime address of the byte that follows the section's frame pointer
// (the position the pcrel application is relative to).
func decodePointer(data []byte, encoding byte, order binary.ByteOrder, pcrelBase uint64) (uint64, int, error) {
	if encoding == peOmit {
		return 0, 0, nil
	}

	var v uint64
	var n int

	switch encoding & peFormatMask {
	case peAbsptr:
		v = order.Uint64(data)
		n = 8
	case peUData2:
		v = uint64(order.Uint16(data))
		n = 2
	case peSData2:
		v = uint64(int64(int16(order.Uint16(data))))
		n = 2
	case peUData4:
		v = uint64(order.Uint32(data))
		n = 4
	case peSData4:
		v = uint64(int64(int32(order.Uint32(data))))
		n = 4
	case peUData8, peSData8:
		v = order.Uint64(data)
		n = 8
	default:
		return 0, 0, errors.Errorf(errors.CorruptCFI, fmt.Sprintf("unsupported pointer encoding %#x", encoding))
	}

	if encoding&0x70 == peApplPCRel {
		v += pcrelBase
	}
	return v, n, nil
}
