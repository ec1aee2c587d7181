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

// Package unwind decodes the .eh_frame call frame information and turns it
// into per-address unwind rows: how to recompute the CFA and how to
// restore every callee-saved register from the caller's frame.
package unwind

import (
	"encoding/binary"
	"fmt"

	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/leb128"
)

type cie struct {
	codeAlignment uint64
	dataAlignment int64
	returnColumn  int

	fdeEncoding byte
	instructions []byte
}

type fde struct {
	cie             *cie
	initialLocation uint64
	addressRange    uint64
	instructions    []byte
}

// View holds every CIE/FDE pair decoded from a .eh_frame section: the FDEs
// in section order, the CIEs keyed by the byte offset of their record.
type View struct {
	order binary.ByteOrder
	fdes  []fde
	cies  map[int]*cie
}

// NewView parses the raw .eh_frame bytes found in a LoadedImage/Cache.
func NewView(section []byte, order binary.ByteOrder) (*View, error) {
	v := &View{order: order, cies: make(map[int]*cie)}
	if err := v.parse(section); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *View) parse(section []byte) error {
	pos := 0
	for pos < len(section) {
		recordStart := pos
		if pos+4 > len(section) {
			break
		}
		length := int(v.order.Uint32(section[pos:]))
		pos += 4
		if length == 0 {
			break
		}
		if pos+length > len(section) {
			return errors.Errorf(errors.CorruptCFI, "record overruns section")
		}
		body := section[pos : pos+length]
		pos += length

		if len(body) < 4 {
			return errors.Errorf(errors.CorruptCFI, "record too short")
		}
		cieID := v.order.Uint32(body)

		if cieID == 0 {
			c, err := v.parseCIE(body, recordStart)
			if err != nil {
				return err
			}
			v.cies[recordStart] = c
			continue
		}

		cieOffset := recordStart + 4 - int(cieID)
		c, ok := v.cies[cieOffset]
		if !ok {
			// CIE must precede its FDEs in a well-formed .eh_frame section;
			// tolerate an out-of-order section by skipping the FDE.
			continue
		}

		rest := body[4:]
		pcrelBase := uint64(recordStart + 4 + 4)
		size := peSize(c.fdeEncoding)
		if size < 0 {
			return errors.Errorf(errors.CorruptCFI, "variable-length FDE pointer encoding unsupported")
		}
		if len(rest) < 2*size {
			return errors.Errorf(errors.CorruptCFI, "FDE too short")
		}
		initial, n, err := decodePointer(rest, c.fdeEncoding, v.order, pcrelBase)
		if err != nil {
			return err
		}
		rest = rest[n:]
		addrRange, n2, err := decodePointer(rest, c.fdeEncoding&0x0f, v.order, 0)
		if err != nil {
			return err
		}
		rest = rest[n2:]

		if len(c.instructions) == 0 {
			// augmentation data length, if any (zR CIEs carry no per-FDE
			// augmentation beyond the pointer), is accounted for by the
			// caller; skip an augmentation length byte if present.
		}

		v.fdes = append(v.fdes, fde{
			cie:             c,
			initialLocation: initial,
			addressRange:    addrRange,
			instructions:    rest,
		})
	}
	return nil
}

func (v *View) parseCIE(body []byte, recordStart int) (*cie, error) {
	pos := 4 // past the zero cieID marker
	if pos >= len(body) {
		return nil, errors.Errorf(errors.CorruptCFI, "CIE truncated")
	}
	version := body[pos]
	pos++
	if version != 1 && version != 3 {
		return nil, errors.Errorf(errors.CorruptCFI, fmt.Sprintf("unsupported CIE version %d", version))
	}

	augStart := pos
	for pos < len(body) && body[pos] != 0 {
		pos++
	}
	augString := string(body[augStart:pos])
	pos++ // NUL terminator

	codeAlign, n := leb128.DecodeULEB128(body[pos:])
	pos += n
	dataAlign, n := leb128.DecodeSLEB128(body[pos:])
	pos += n

	if version == 1 {
		pos++ // return address register is a single byte pre-DWARF4
	} else {
		_, n = leb128.DecodeULEB128(body[pos:])
		pos += n
	}
	returnColumn := int(body[pos-1])

	c := &cie{codeAlignment: codeAlign, dataAlignment: dataAlign, returnColumn: returnColumn}

	if len(augString) > 0 && augString[0] == 'z' {
		augLen, n := leb128.DecodeULEB128(body[pos:])
		pos += n
		augData := body[pos : pos+int(augLen)]
		pos += int(augLen)

		adPos := 0
		for _, ch := range augString[1:] {
			switch ch {
			case 'R':
				c.fdeEncoding = augData[adPos]
				adPos++
			case 'L':
				adPos++
			case 'P':
				encoding := augData[adPos]
				adPos++
				size := peSize(encoding)
				if size < 0 {
					size = 0
				}
				adPos += size
			case 'S':
				// signal-frame marker, no augmentation bytes
			}
		}
	} else {
		c.fdeEncoding = peAbsptr
	}

	c.instructions = body[pos:]
	return c, nil
}

// lookup finds the FDE covering link-time address addr.
func (v *View) lookup(addr uint64) (*fde, bool) {
	for i := range v.fdes {
		f := &v.fdes[i]
		if addr >= f.initialLocation && addr < f.initialLocation+f.addressRange {
			return f, true
		}
	}
	return nil, false
}
