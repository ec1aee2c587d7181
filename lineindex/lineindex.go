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

// Package lineindex walks every compilation unit's line program and builds
// the two maps that let the debugger translate between runtime addresses
// and source positions: address -> SourceIndex, and
// compilation-directory -> ordered list of SourceFiles.
package lineindex

import (
	"debug/dwarf"
	"io"
	"path/filepath"
	"strings"

	"github.com/nativedbg/nativedbg/errors"
)

// SourceFile pairs a path (relative to its hashing directory) with the
// offset of the compilation unit that defined it. Two SourceFiles are
// equal iff both fields are equal.
type SourceFile struct {
	RelPath  string
	CUOffset dwarf.Offset
}

// SourceIndex uniquely identifies a source position: a line number inside
// the ordered file list of a hashing directory.
type SourceIndex struct {
	Line  int
	Dir   string
	Index int
}

// noSource is the sentinel SourceIndex assigned to an end_sequence row: it
// marks the last valid address of a sequence without claiming to identify a
// real source line (see DESIGN.md, open question 2).
var noSource = SourceIndex{Line: -1}

// Index is the combined Source/Line index for one LoadedImage.
type Index struct {
	// Map is compilation-directory -> ordered SourceFiles defined within it.
	Map map[string][]SourceFile

	// Addrs is runtime (in practice link-time, pre-normalization) instruction
	// address -> SourceIndex.
	Addrs map[uint64]SourceIndex
}

// Build walks every compilation unit's line program in data.
func Build(data *dwarf.Data) (*Index, error) {
	idx := &Index{
		Map:   make(map[string][]SourceFile),
		Addrs: make(map[uint64]SourceIndex),
	}

	r := data.Reader()
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, errors.Errorf(errors.DwarfCorruption, err)
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}

		compDir, _ := entry.Val(dwarf.AttrCompDir).(string)

		lr, err := data.LineReader(entry)
		if err != nil {
			// not every unit carries a line program
			r.SkipChildren()
			continue
		}
		if lr == nil {
			r.SkipChildren()
			continue
		}

		if err := idx.walkLineProgram(lr, compDir, entry.Offset); err != nil {
			return nil, err
		}

		r.SkipChildren()
	}

	return idx, nil
}

func (idx *Index) walkLineProgram(lr *dwarf.LineReader, compDir string, cuOffset dwarf.Offset) error {
	var le dwarf.LineEntry
	for {
		err := lr.Next(&le)
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Errorf(errors.DwarfCorruption, err)
		}

		if le.EndSequence {
			idx.Addrs[le.Address] = noSource
			continue
		}
		if le.Line == 0 {
			continue
		}

		hashDir, relPath := hashingDirectory(compDir, le.File.Name)

		si := idx.insert(hashDir, SourceFile{RelPath: relPath, CUOffset: cuOffset}, le.Line)
		idx.Addrs[le.Address] = si
	}
	return nil
}

// hashingDirectory implements the three cases: a relative
// path hashes under the compilation directory; an absolute path that has
// the compilation directory as a prefix is stripped down to a relative
// path under the same hashing directory; anything else hashes under its
// own directory.
func hashingDirectory(compDir, filePath string) (hashDir, relPath string) {
	if !filepath.IsAbs(filePath) {
		return compDir, filePath
	}
	if compDir != "" && strings.HasPrefix(filePath, compDir) {
		rel := strings.TrimPrefix(filePath, compDir)
		rel = strings.TrimPrefix(rel, string(filepath.Separator))
		return compDir, rel
	}
	return filepath.Dir(filePath), filepath.Base(filePath)
}

// insert records sf in the ordered file list for dir, reusing its index on
// duplicate, and returns the SourceIndex for line within that file.
func (idx *Index) insert(dir string, sf SourceFile, line int) SourceIndex {
	list := idx.Map[dir]
	for i, existing := range list {
		if existing == sf {
			return SourceIndex{Line: line, Dir: dir, Index: i}
		}
	}
	idx.Map[dir] = append(list, sf)
	return SourceIndex{Line: line, Dir: dir, Index: len(list)}
}

// GetLine returns the SourceIndex for a link-time address, in O(1).
func (idx *Index) GetLine(addr uint64) (SourceIndex, bool) {
	si, ok := idx.Addrs[addr]
	if !ok || si == noSource {
		return SourceIndex{}, false
	}
	return si, true
}

// GetAddress scans every recorded address for one that maps back to si.
// Acceptable because the only caller is a user-driven breakpoint set.
func (idx *Index) GetAddress(si SourceIndex) (uint64, bool) {
	for addr, candidate := range idx.Addrs {
		if candidate == si {
			return addr, true
		}
	}
	return 0, false
}
