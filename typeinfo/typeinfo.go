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

// Package typeinfo resolves a DWARF type DIE offset into a tagged
// description of that type. It is pure with respect to the DWARF sections
// and performs no tracee I/O.
package typeinfo

import (
	"debug/dwarf"

	"github.com/nativedbg/nativedbg/errors"
)

// Kind classifies a TypeDescription.
type Kind int

const (
	Base Kind = iota
	Pointer
	Modifier
	Array
	Struct
	Enum
	Typedef
)

// Member is one field of a struct/union/class.
type Member struct {
	Name       string
	Type       dwarf.Offset
	ByteOffset int64
}

// Enumerator is one named constant of an enumeration_type.
type Enumerator struct {
	Name  string
	Value int64
}

// TypeDescription is the C11 data model: a sum type over Base / Pointer /
// Modifier / Array / Struct / Enum / Typedef, carrying only the attributes
// that kind needs.
type TypeDescription struct {
	Kind Kind
	Name string

	// Base
	Encoding  int64
	ByteSize  int64
	BigEndian bool

	// Pointer / Modifier / Array element / Typedef alias
	RefType dwarf.Offset

	// Modifier
	ModifierKind string

	// Array
	ElementCount int64

	// Struct/Union/Class
	Members []Member

	// Enum
	Enumerators []Enumerator
}

// Decode classifies the DIE at offset by tag and extracts its attributes.
func Decode(data *dwarf.Data, offset dwarf.Offset) (TypeDescription, error) {
	r := data.Reader()
	r.Seek(offset)
	entry, err := r.Next()
	if err != nil {
		return TypeDescription{}, errors.Errorf(errors.DwarfCorruption, err)
	}
	if entry == nil {
		return TypeDescription{}, errors.Errorf(errors.DwarfCorruption, "no DIE at offset")
	}

	name, _ := entry.Val(dwarf.AttrName).(string)

	switch entry.Tag {
	case dwarf.TagBaseType:
		td := TypeDescription{Kind: Base, Name: name}
		td.Encoding, _ = entry.Val(dwarf.AttrEncoding).(int64)
		if bs, ok := entry.Val(dwarf.AttrByteSize).(int64); ok {
			td.ByteSize = bs
		} else if bits, ok := entry.Val(dwarf.AttrBitSize).(int64); ok {
			td.ByteSize = (bits + 7) / 8
		}
		if end, ok := entry.Val(dwarf.AttrEndianity).(int64); ok {
			td.BigEndian = end == 1 // DW_END_big
		}
		return td, nil

	case dwarf.TagPointerType, dwarf.TagReferenceType:
		td := TypeDescription{Kind: Pointer, Name: name}
		td.RefType, _ = entry.Val(dwarf.AttrType).(dwarf.Offset)
		if bs, ok := entry.Val(dwarf.AttrByteSize).(int64); ok {
			td.ByteSize = bs
		} else {
			td.ByteSize = 8
		}
		return td, nil

	case dwarf.TagConstType, dwarf.TagVolatileType, dwarf.TagRestrictType,
		dwarf.TagAtomicType, dwarf.TagImmutableType, dwarf.TagSharedType:
		td := TypeDescription{Kind: Modifier, Name: name, ModifierKind: modifierName(entry.Tag)}
		td.RefType, _ = entry.Val(dwarf.AttrType).(dwarf.Offset)
		return td, nil

	case dwarf.TagArrayType:
		td := TypeDescription{Kind: Array, Name: name}
		td.RefType, _ = entry.Val(dwarf.AttrType).(dwarf.Offset)
		td.ElementCount = arrayElementCount(r, entry)
		return td, nil

	case dwarf.TagStructType, dwarf.TagUnionType, dwarf.TagClassType:
		td := TypeDescription{Kind: Struct, Name: name}
		td.ByteSize, _ = entry.Val(dwarf.AttrByteSize).(int64)
		td.Members = decodeMembers(r, entry)
		return td, nil

	case dwarf.TagEnumerationType:
		td := TypeDescription{Kind: Enum, Name: name}
		td.RefType, _ = entry.Val(dwarf.AttrType).(dwarf.Offset)
		td.ByteSize, _ = entry.Val(dwarf.AttrByteSize).(int64)
		td.Enumerators = decodeEnumerators(r, entry)
		return td, nil

	case dwarf.TagTypedef:
		td := TypeDescription{Kind: Typedef, Name: name}
		td.RefType, _ = entry.Val(dwarf.AttrType).(dwarf.Offset)
		return td, nil
	}

	return TypeDescription{}, errors.Errorf(errors.UnsupportedType, entry.Tag)
}

func modifierName(tag dwarf.Tag) string {
	switch tag {
	case dwarf.TagConstType:
		return "const"
	case dwarf.TagVolatileType:
		return "volatile"
	case dwarf.TagRestrictType:
		return "restrict"
	case dwarf.TagAtomicType:
		return "atomic"
	case dwarf.TagImmutableType:
		return "immutable"
	case dwarf.TagSharedType:
		return "shared"
	}
	return ""
}

// decodeMembers walks the children of a struct/union/class entry for
// TagMember children, stopping at the terminating null (Tag 0) entry.
func decodeMembers(r *dwarf.Reader, parent *dwarf.Entry) []Member {
	if !parent.Children {
		return nil
	}
	var members []Member
	for {
		child, err := r.Next()
		if err != nil || child == nil || child.Tag == 0 {
			break
		}
		if child.Tag == dwarf.TagMember {
			m := Member{}
			m.Name, _ = child.Val(dwarf.AttrName).(string)
			m.Type, _ = child.Val(dwarf.AttrType).(dwarf.Offset)
			m.ByteOffset, _ = child.Val(dwarf.AttrDataMemberLoc).(int64)
			members = append(members, m)
		}
		if child.Children {
			r.SkipChildren()
		}
	}
	return members
}

// decodeEnumerators walks the children of an enumeration_type entry for
// TagEnumerator children.
func decodeEnumerators(r *dwarf.Reader, parent *dwarf.Entry) []Enumerator {
	if !parent.Children {
		return nil
	}
	var enumerators []Enumerator
	for {
		child, err := r.Next()
		if err != nil || child == nil || child.Tag == 0 {
			break
		}
		if child.Tag == dwarf.TagEnumerator {
			e := Enumerator{}
			e.Name, _ = child.Val(dwarf.AttrName).(string)
			e.Value, _ = child.Val(dwarf.AttrConstValue).(int64)
			enumerators = append(enumerators, e)
		}
		if child.Children {
			r.SkipChildren()
		}
	}
	return enumerators
}

// arrayElementCount looks for a subrange_type child carrying either a
// count or an upper_bound attribute (upper_bound is inclusive, so the
// count is upper_bound+1), multiplied by the element's own size where the
// array has several dimensions is left to the caller.
func arrayElementCount(r *dwarf.Reader, parent *dwarf.Entry) int64 {
	if !parent.Children {
		return 0
	}
	var count int64
	for {
		child, err := r.Next()
		if err != nil || child == nil || child.Tag == 0 {
			break
		}
		if child.Tag == dwarf.TagSubrangeType {
			if c, ok := child.Val(dwarf.AttrCount).(int64); ok {
				count = c
			} else if ub, ok := child.Val(dwarf.AttrUpperBound).(int64); ok {
				count = ub + 1
			}
		}
		if child.Children {
			r.SkipChildren()
		}
	}
	return count
}
