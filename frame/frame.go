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

// Package frame decodes a stopped tracee's call stack: one Frame per active
// subprogram, each carrying its formal parameters and in-scope local
// variables with their decoded locations. It is the point where every other
// package in the core comes together: elfimage for address translation,
// dwarfsec/lineindex/funcindex for the DWARF indices, unwind for CFI-driven
// register restoration, and evalexpr for the location expressions
// themselves.
package frame

import (
	"debug/dwarf"

	"github.com/nativedbg/nativedbg/dwarfsec"
	"github.com/nativedbg/nativedbg/elfimage"
	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/evalexpr"
	"github.com/nativedbg/nativedbg/funcindex"
	"github.com/nativedbg/nativedbg/lineindex"
	"github.com/nativedbg/nativedbg/unwind"
)

// Memory is the random-access byte source frame decoding reads location
// expressions and unwind rows against. *tracee.Tracee satisfies this
// directly.
type Memory interface {
	ReadMemory(addr uint64, length int) ([]byte, error)
}

// LocationKind classifies where a Variable's value currently lives.
type LocationKind int

const (
	// LocNone means the location expression could not be decoded (no
	// location attribute, or an unresolved location-list).
	LocNone LocationKind = iota
	LocRegister
	LocAddress
	LocValue
)

// Location is the decoded home of a variable or parameter at the moment its
// enclosing Frame was captured.
type Location struct {
	Kind     LocationKind
	Register int
	Address  uint64
	Value    uint64
}

// Variable is a decoded formal_parameter or variable DIE.
type Variable struct {
	Name          string
	Type          dwarf.Offset
	HasType       bool
	Location      Location
	ConstValue    int64
	HasConstValue bool
}

// Frame is one entry of a decoded call stack.
type Frame struct {
	PC            uint64 // link-time
	FunctionName  string
	DIE           dwarf.Offset
	ReturnType    dwarf.Offset
	HasReturnType bool
	Parameters    []Variable
	Variables     []Variable
}

// Decoder wires together the indices a running debug session has already
// built once at load time.
type Decoder struct {
	image *elfimage.LoadedImage
	cache *dwarfsec.Cache
	lines *lineindex.Index
	funcs *funcindex.FunctionIndex
	eh    *unwind.View
	mem   Memory
}

// NewDecoder builds a frame Decoder. The indices and view are expected to
// already be built against the same LoadedImage's DWARF data.
func NewDecoder(image *elfimage.LoadedImage, cache *dwarfsec.Cache, lines *lineindex.Index, funcs *funcindex.FunctionIndex, eh *unwind.View, mem Memory) *Decoder {
	return &Decoder{image: image, cache: cache, lines: lines, funcs: funcs, eh: eh, mem: mem}
}

// CallStack decodes the call stack starting at the tracee's current
// registers. It walks frame by frame, unwinding with the CFI view, until it
// reaches the program's entry frame (a function named "main", or failing
// that the ELF entry point) or runs off the end of known DWARF-covered code
// -- a stop outside known code (a PLT stub, a dynamic
// library with no symbols) ends the call stack at the last known frame
// without error.
func (d *Decoder) CallStack(regs unwind.RegisterFile) ([]Frame, error) {
	var frames []Frame
	cur := regs

	for i := 0; i < 1024; i++ { // hard ceiling against a corrupt CFI loop
		rip, ok := cur[RegRIP]
		if !ok {
			break
		}
		link := d.image.ToLink(rip)

		si, ok := d.lines.GetLine(link)
		if !ok {
			break
		}
		files := d.lines.Map[si.Dir]
		if si.Index >= len(files) {
			break
		}
		cuOffset := files[si.Index].CUOffset

		dieOff, ok := d.funcs.GetFunction(link, cuOffset)
		if !ok {
			break
		}

		if !d.eh.Covers(link) {
			// no FDE covers this address at all: a normal call-stack
			// boundary (code outside known DWARF), not a failure.
			break
		}

		// unwound once per frame: the CFA also anchors frame_base and any
		// location expression built on DW_OP_call_frame_cfa.
		result, unwErr := unwind.Unwind(d.eh, link, cur, memReader{d.mem})
		haveCFA := unwErr == nil

		f, err := d.decodeFrame(link, dieOff, si.Line, cur, result.CFA, haveCFA)
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)

		if f.FunctionName == "main" || link == d.image.ELF.Entry {
			break
		}
		if !haveCFA {
			// the FDE was found but restoring it failed: a genuine CFI
			// corruption, not a normal stack boundary. Keep the frames
			// gathered so far and mark where reconstruction gave up.
			frames = append(frames, Frame{FunctionName: "<unwind failed>"})
			break
		}
		cur = result.Registers
	}

	return frames, nil
}

// decodeFrame builds one Frame for the subprogram at dieOff, evaluating its
// frame_base and walking its immediate children for parameters and
// in-scope locals.
func (d *Decoder) decodeFrame(link uint64, dieOff dwarf.Offset, sourceLine int, regs unwind.RegisterFile, cfa uint64, haveCFA bool) (Frame, error) {
	r := d.cache.Data.Reader()
	r.Seek(dieOff)
	entry, err := r.Next()
	if err != nil {
		return Frame{}, errors.Errorf(errors.DwarfCorruption, err)
	}
	if entry == nil {
		return Frame{}, errors.Errorf(errors.DwarfCorruption, "subprogram DIE missing")
	}

	f := Frame{PC: link, DIE: dieOff}
	f.FunctionName = d.resolveName(entry)
	if ret, ok := d.resolveType(entry); ok {
		f.ReturnType = ret
		f.HasReturnType = true
	}

	var frameBase uint64
	haveFrameBase := false
	if raw, ok := entry.Val(dwarf.AttrFrameBase).([]byte); ok && len(raw) > 0 {
		ctx := frameExprContext{regs: regs, mem: d.mem, cfa: cfa, haveCFA: haveCFA}
		pieces, err := evalexpr.Evaluate(raw, ctx)
		if err == nil && len(pieces) > 0 {
			switch pieces[0].Kind {
			case evalexpr.RegisterKind:
				if v, ok := regs[pieces[0].Register]; ok {
					frameBase = v
					haveFrameBase = true
				}
			default:
				frameBase = pieces[0].Value
				haveFrameBase = true
			}
		}
	}

	if !entry.Children {
		return f, nil
	}

	for {
		child, err := r.Next()
		if err != nil {
			return Frame{}, errors.Errorf(errors.DwarfCorruption, err)
		}
		if child == nil || child.Tag == 0 {
			break
		}

		switch child.Tag {
		case dwarf.TagVariable:
			if declLine, ok := child.Val(dwarf.AttrDeclLine).(int64); ok && int(declLine) > sourceLine {
				if child.Children {
					r.SkipChildren()
				}
				continue
			}
			f.Variables = append(f.Variables, d.decodeVariable(child, regs, cfa, haveCFA, frameBase, haveFrameBase, link))
			if child.Children {
				r.SkipChildren()
			}

		case dwarf.TagFormalParameter:
			f.Parameters = append(f.Parameters, d.decodeVariable(child, regs, cfa, haveCFA, frameBase, haveFrameBase, link))
			if child.Children {
				r.SkipChildren()
			}

		case dwarf.TagSubprogram, dwarf.TagInlinedSubroutine, dwarf.TagLexDwarfBlock:
			// nested functions and inlined subtrees don't leak their locals
			// into the enclosing frame; lexical blocks are not distinguished
			// by scope here, so their contents are still visible, matching
			// the variable's own decl_line filter carrying the real scoping
			// information.
			if child.Tag == dwarf.TagLexDwarfBlock {
				if err := d.walkLexBlock(r, child, &f, regs, cfa, haveCFA, frameBase, haveFrameBase, sourceLine, link); err != nil {
					return Frame{}, err
				}
				continue
			}
			if child.Children {
				r.SkipChildren()
			}

		default:
			if child.Children {
				r.SkipChildren()
			}
		}
	}

	return f, nil
}

// walkLexBlock descends into a lexical block's children, which are reached
// via the same DIE stream as the enclosing subprogram's.
func (d *Decoder) walkLexBlock(r *dwarf.Reader, block *dwarf.Entry, f *Frame, regs unwind.RegisterFile, cfa uint64, haveCFA bool, frameBase uint64, haveFrameBase bool, sourceLine int, link uint64) error {
	if !block.Children {
		return nil
	}
	for {
		child, err := r.Next()
		if err != nil {
			return errors.Errorf(errors.DwarfCorruption, err)
		}
		if child == nil || child.Tag == 0 {
			return nil
		}
		switch child.Tag {
		case dwarf.TagVariable:
			if declLine, ok := child.Val(dwarf.AttrDeclLine).(int64); ok && int(declLine) > sourceLine {
				if child.Children {
					r.SkipChildren()
				}
				continue
			}
			f.Variables = append(f.Variables, d.decodeVariable(child, regs, cfa, haveCFA, frameBase, haveFrameBase, link))
			if child.Children {
				r.SkipChildren()
			}
		case dwarf.TagLexDwarfBlock:
			if err := d.walkLexBlock(r, child, f, regs, cfa, haveCFA, frameBase, haveFrameBase, sourceLine, link); err != nil {
				return err
			}
		default:
			if child.Children {
				r.SkipChildren()
			}
		}
	}
}

// resolveName returns entry's name, following a specification attribute to
// a separate declaration DIE if the definition itself carries no name.
func (d *Decoder) resolveName(entry *dwarf.Entry) string {
	if name, ok := entry.Val(dwarf.AttrName).(string); ok && name != "" {
		return name
	}
	if spec, ok := entry.Val(dwarf.AttrSpecification).(dwarf.Offset); ok {
		r := d.cache.Data.Reader()
		r.Seek(spec)
		if decl, err := r.Next(); err == nil && decl != nil {
			if name, ok := decl.Val(dwarf.AttrName).(string); ok {
				return name
			}
		}
	}
	return ""
}

// resolveType returns entry's DW_AT_type, following a specification
// attribute the same way resolveName does.
func (d *Decoder) resolveType(entry *dwarf.Entry) (dwarf.Offset, bool) {
	if t, ok := entry.Val(dwarf.AttrType).(dwarf.Offset); ok {
		return t, true
	}
	if spec, ok := entry.Val(dwarf.AttrSpecification).(dwarf.Offset); ok {
		r := d.cache.Data.Reader()
		r.Seek(spec)
		if decl, err := r.Next(); err == nil && decl != nil {
			if t, ok := decl.Val(dwarf.AttrType).(dwarf.Offset); ok {
				return t, true
			}
		}
	}
	return 0, false
}

// decodeVariable extracts a variable or formal_parameter's name, type,
// const_value, and location.
func (d *Decoder) decodeVariable(entry *dwarf.Entry, regs unwind.RegisterFile, cfa uint64, haveCFA bool, frameBase uint64, haveFrameBase bool, pc uint64) Variable {
	v := Variable{}
	v.Name, _ = entry.Val(dwarf.AttrName).(string)
	if t, ok := entry.Val(dwarf.AttrType).(dwarf.Offset); ok {
		v.Type = t
		v.HasType = true
	}
	if cv, ok := entry.Val(dwarf.AttrConstValue).(int64); ok {
		v.ConstValue = cv
		v.HasConstValue = true
	}

	expr, absolute, ok := d.locationExpr(entry.Val(dwarf.AttrLocation), pc)
	if !ok {
		return v
	}

	ctx := frameExprContext{regs: regs, mem: d.mem, cfa: cfa, haveCFA: haveCFA, frameBase: frameBase, haveFrameBase: haveFrameBase}
	pieces, err := evalexpr.Evaluate(expr, ctx)
	if err != nil || len(pieces) == 0 {
		return v
	}

	switch pieces[0].Kind {
	case evalexpr.RegisterKind:
		v.Location = Location{Kind: LocRegister, Register: pieces[0].Register}
	case evalexpr.ValueKind:
		v.Location = Location{Kind: LocValue, Value: pieces[0].Value}
	case evalexpr.AddressKind:
		addr := pieces[0].Value
		if absolute {
			addr = d.image.ToRuntime(addr)
		}
		v.Location = Location{Kind: LocAddress, Address: addr}
	}

	return v
}

// isAbsoluteAddrExpr reports whether expr is nothing more than a single
// DW_OP_addr: a global variable's location, carrying a link-time constant
// that must be shifted to a runtime address before it can be dereferenced.
// Every other addressing form (fbreg, bregN, the CFI-derived CFA) already
// computes its result from register values the tracee reports, which are
// runtime addresses already.
func isAbsoluteAddrExpr(expr []byte) bool {
	return len(expr) == 9 && expr[0] == 0x03
}

// locationExpr resolves entry's location value, which debug/dwarf hands
// back either as a literal expression ([]byte, for DW_FORM_exprloc/block)
// or as a raw section offset (int64, for DW_FORM_sec_offset loclistptr)
// into .debug_loc.
func (d *Decoder) locationExpr(raw interface{}, pc uint64) (expr []byte, absolute bool, ok bool) {
	switch v := raw.(type) {
	case []byte:
		return v, isAbsoluteAddrExpr(v), true
	case int64:
		e, ok := d.resolveLocList(uint64(v), pc)
		return e, false, ok
	case uint64:
		e, ok := d.resolveLocList(v, pc)
		return e, false, ok
	}
	return nil, false, false
}

// resolveLocList scans a classic (pre-DWARF5) .debug_loc range list
// starting at offset for the entry covering pc. Each record is a pair of
// 8-byte link-time addresses, a base-relative [begin, end) range, followed
// by a 2-byte length and the expression bytes themselves; the list ends at
// a (0, 0) entry. A (0xFFFFFFFFFFFFFFFF, base) entry resets the base
// address used by subsequent ranges.
func (d *Decoder) resolveLocList(offset uint64, pc uint64) ([]byte, bool) {
	data := d.cache.DebugLoc
	order := d.cache.ByteOrder
	if data == nil {
		return nil, false
	}

	pos := int(offset)
	var base uint64
	for pos+16 <= len(data) {
		begin := order.Uint64(data[pos:])
		end := order.Uint64(data[pos+8:])
		pos += 16

		if begin == 0 && end == 0 {
			return nil, false
		}
		if begin == ^uint64(0) {
			base = end
			continue
		}
		if pos+2 > len(data) {
			return nil, false
		}
		length := int(order.Uint16(data[pos:]))
		pos += 2
		if pos+length > len(data) {
			return nil, false
		}
		expr := data[pos : pos+length]
		pos += length

		if pc >= base+begin && pc < base+end {
			return expr, true
		}
	}
	return nil, false
}

// frameExprContext adapts a captured register file, CFA, and frame_base
// into the evalexpr.Context a variable's location expression is evaluated
// against.
type frameExprContext struct {
	regs          unwind.RegisterFile
	mem           Memory
	cfa           uint64
	haveCFA       bool
	frameBase     uint64
	haveFrameBase bool
}

func (c frameExprContext) Memory(addr uint64, size int) (uint64, error) {
	buf, err := c.mem.ReadMemory(addr, size)
	if err != nil {
		return 0, errors.Errorf(errors.MemoryReadError, err)
	}
	var v uint64
	for i := 0; i < len(buf) && i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v, nil
}

func (c frameExprContext) Register(r int) (uint64, error) {
	v, ok := c.regs[r]
	if !ok {
		return 0, errors.Errorf(errors.UnsupportedRegisterRule, r)
	}
	return v, nil
}

func (c frameExprContext) FrameBase() (uint64, error) {
	if !c.haveFrameBase {
		return 0, errors.Errorf(errors.NoFrameBase, "subprogram has no usable frame_base")
	}
	return c.frameBase, nil
}

func (c frameExprContext) CFA() (uint64, error) {
	if !c.haveCFA {
		return 0, errors.Errorf(errors.NoCfa, "no CFI covers this frame")
	}
	return c.cfa, nil
}

// memReader adapts a Memory into the unwind.MemReader the unwinder reads
// saved registers through.
type memReader struct {
	mem Memory
}

func (m memReader) Read64(addr uint64) (uint64, error) {
	buf, err := m.mem.ReadMemory(addr, 8)
	if err != nil {
		return 0, errors.Errorf(errors.MemoryReadError, err)
	}
	var v uint64
	for i := 0; i < len(buf) && i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v, nil
}
