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

// Package funcindex walks every subprogram DIE and builds the lookup
// structures the frame decoder needs to turn a stopped address into the
// DWARF entry describing the function it falls in.
package funcindex

import (
	"debug/dwarf"

	"github.com/nativedbg/nativedbg/errors"
)

// AddrRange is a half-open [Start, End) address range belonging to one
// subprogram.
type AddrRange struct {
	Start, End uint64
	DIE        dwarf.Offset
}

func (r AddrRange) InRange(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// FunctionIndex is the C4 data model: range-start -> function DIE offset,
// compilation-unit offset -> ordered ranges, and function DIE offset ->
// optional enclosing namespace/class name.
type FunctionIndex struct {
	FuncHash   map[uint64]dwarf.Offset
	RangeHash  map[dwarf.Offset][]AddrRange
	ParentHash map[dwarf.Offset]string
}

type declParent struct {
	parent string
}

// Build walks every DIE in data, maintaining a stack of enclosing
// namespace/struct/class names, and indexes every subprogram it finds.
func Build(data *dwarf.Data) (*FunctionIndex, error) {
	fi := &FunctionIndex{
		FuncHash:   make(map[uint64]dwarf.Offset),
		RangeHash:  make(map[dwarf.Offset][]AddrRange),
		ParentHash: make(map[dwarf.Offset]string),
	}

	// declarations encountered (no code ranges) recorded by DIE offset so a
	// later `specification` DIE can look up the declaration's parent name.
	declarations := make(map[dwarf.Offset]declParent)

	r := data.Reader()

	var cuOffset dwarf.Offset
	var stack []string

	// sentinel marking "this pushed stack frame corresponds to a real
	// namespace/class entry with children", used to know when to pop on a
	// null (Tag 0, end-of-children) entry.
	var pushDepth []bool

	for {
		entry, err := r.Next()
		if err != nil {
			return nil, errors.Errorf(errors.DwarfCorruption, err)
		}
		if entry == nil {
			// end of data
			break
		}
		if entry.Tag == 0 {
			// end of a sibling list: pop one level if the enclosing frame
			// pushed a name.
			if len(pushDepth) > 0 {
				popped := pushDepth[len(pushDepth)-1]
				pushDepth = pushDepth[:len(pushDepth)-1]
				if popped {
					stack = stack[:len(stack)-1]
				}
			}
			continue
		}

		switch entry.Tag {
		case dwarf.TagCompileUnit:
			cuOffset = entry.Offset
		case dwarf.TagNamespace, dwarf.TagStructType, dwarf.TagClassType, dwarf.TagUnionType:
			if name, ok := entry.Val(dwarf.AttrName).(string); ok {
				stack = append(stack, name)
				pushDepth = append(pushDepth, true)
			} else {
				pushDepth = append(pushDepth, false)
			}
			if entry.Children {
				continue
			}
			// no children despite the tag: undo immediately
			if len(pushDepth) > 0 && pushDepth[len(pushDepth)-1] {
				stack = stack[:len(stack)-1]
			}
			pushDepth = pushDepth[:len(pushDepth)-1]
			continue
		case dwarf.TagSubprogram:
			if err := fi.indexSubprogram(data, entry, cuOffset, stack, declarations); err != nil {
				return nil, err
			}
		}

		if entry.Children {
			pushDepth = append(pushDepth, false)
		}
	}

	return fi, nil
}

func parentName(stack []string) string {
	if len(stack) == 0 {
		return ""
	}
	out := stack[0]
	for _, s := range stack[1:] {
		out += "::" + s
	}
	return out
}

func (fi *FunctionIndex) indexSubprogram(data *dwarf.Data, entry *dwarf.Entry, cuOffset dwarf.Offset, stack []string, declarations map[dwarf.Offset]declParent) error {
	parent := parentName(stack)

	if _, ok := entry.Val(dwarf.AttrDeclaration).(bool); ok {
		declarations[entry.Offset] = declParent{parent: parent}
		return nil
	}

	if spec, ok := entry.Val(dwarf.AttrSpecification).(dwarf.Offset); ok {
		if decl, ok := declarations[spec]; ok {
			parent = decl.parent
		}
	}

	fi.ParentHash[entry.Offset] = parent

	var ranges [][2]uint64

	if _, ok := entry.Val(dwarf.AttrRanges).(int64); ok {
		rs, err := data.Ranges(entry)
		if err != nil {
			return errors.Errorf(errors.DwarfCorruption, err)
		}
		ranges = rs
	} else if low, lok := entry.Val(dwarf.AttrLowpc).(uint64); lok {
		switch high := entry.Val(dwarf.AttrHighpc).(type) {
		case uint64:
			ranges = append(ranges, [2]uint64{low, high})
		case int64:
			// offset form: high_pc is the length of the range past low_pc
			ranges = append(ranges, [2]uint64{low, low + uint64(high)})
		}
	}
	// a subprogram with neither ranges nor low_pc is silently skipped.

	for _, rg := range ranges {
		ar := AddrRange{Start: rg[0], End: rg[1], DIE: entry.Offset}
		fi.FuncHash[rg[0]] = entry.Offset
		fi.RangeHash[cuOffset] = append(fi.RangeHash[cuOffset], ar)
	}

	return nil
}

// GetFunction returns the DIE offset of the function range containing addr
// within unit cu. Linear scan bounded by the unit's function count; cu is
// already selected in O(1) via the line index.
func (fi *FunctionIndex) GetFunction(addr uint64, cu dwarf.Offset) (dwarf.Offset, bool) {
	for _, r := range fi.RangeHash[cu] {
		if r.InRange(addr) {
			return r.DIE, true
		}
	}
	return 0, false
}
