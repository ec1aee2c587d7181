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

// Package elfimage parses an ELF64 x86-64 executable, exposes its sections
// as borrowed byte ranges, and discovers the runtime load shift of a PIE
// binary once its tracee has stopped for the first time.
package elfimage

import (
	"bufio"
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nativedbg/nativedbg/errors"
)

// LoadedImage holds the raw bytes and parsed ELF of an executable, its
// detected endianness, and — once a tracee is running — the dynamic load
// shift that maps link-time addresses to runtime addresses.
//
// All lookups into DWARF indices are performed on link-time addresses; the
// load shift is applied only at the boundary with the tracee (registers,
// memory addresses, breakpoint addresses).
type LoadedImage struct {
	Path      string
	Raw       []byte
	ELF       *elf.File
	ByteOrder binary.ByteOrder

	// LoadShift is zero until ResolveLoadShift has been called.
	LoadShift uint64
}

// Load parses path as an ELF64 x86-64 executable.
func Load(path string) (*LoadedImage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf(errors.FileNotExecutable, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Errorf(errors.FileNotExecutable, err)
	}
	if info.Mode()&0111 == 0 {
		return nil, errors.Errorf(errors.FileNotExecutable, path)
	}

	ef, err := elf.NewFile(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Errorf(errors.MalformedBinary, err)
	}

	if ef.Class != elf.ELFCLASS64 {
		return nil, errors.Errorf(errors.MalformedBinary, fmt.Sprintf("not an ELF64 file: %v", ef.Class))
	}
	if ef.Machine != elf.EM_X86_64 {
		return nil, errors.Errorf(errors.UnsupportedTarget, ef.Machine)
	}

	return &LoadedImage{
		Path:      path,
		Raw:       raw,
		ELF:       ef,
		ByteOrder: ef.ByteOrder,
	}, nil
}

// Section returns the borrowed bytes of the named section, or nil if the
// executable has no such section.
func (li *LoadedImage) Section(name string) []byte {
	sec := li.ELF.Section(name)
	if sec == nil {
		return nil
	}
	data, err := sec.Data()
	if err != nil {
		return nil
	}
	return data
}

// ToRuntime converts a link-time address (as found in DWARF/ELF) to the
// address it occupies in the running tracee.
func (li *LoadedImage) ToRuntime(addr uint64) uint64 {
	return addr + li.LoadShift
}

// ToLink converts a runtime address (from registers or memory reads) back
// to its link-time counterpart, the form used for all DWARF index lookups.
func (li *LoadedImage) ToLink(addr uint64) uint64 {
	return addr - li.LoadShift
}

type mapping struct {
	start, end uint64
	offset     uint64
	pathname   string
}

// ResolveLoadShift reads /proc/<pid>/maps, locates the mapping whose
// pathname matches the loaded executable, and computes the load shift as
// mapping.start - mapping.offset. A non-PIE (ET_EXEC) binary is linked at
// its final runtime address already, so its shift is always zero; the maps
// scan only runs for ET_DYN (PIE) executables, where the kernel picks the
// base at load time.
func (li *LoadedImage) ResolveLoadShift(pid int) error {
	if li.ELF.Type != elf.ET_DYN {
		li.LoadShift = 0
		return nil
	}

	abs, err := filepath.Abs(li.Path)
	if err != nil {
		abs = li.Path
	}

	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return errors.Errorf(errors.NoTracee, err)
	}
	defer f.Close()

	exec, err := lowestOffsetMapping(f, abs)
	if err != nil {
		return errors.Errorf(errors.NoTracee, err)
	}

	if exec == nil {
		li.LoadShift = 0
		return nil
	}

	li.LoadShift = exec.start - exec.offset
	return nil
}

// lowestOffsetMapping scans a /proc/<pid>/maps stream for the mapping
// belonging to path (matched by full path or basename, since the maps
// entry may have been resolved through a symlink) with the lowest file
// offset -- that is the segment containing the ELF header, whose start
// address is the runtime load base.
func lowestOffsetMapping(r io.Reader, path string) (*mapping, error) {
	var exec *mapping

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m, ok := parseMapsLine(sc.Text())
		if !ok {
			continue
		}
		if m.pathname == "" {
			continue
		}
		if m.pathname != path && filepath.Base(m.pathname) != filepath.Base(path) {
			continue
		}
		if exec == nil || m.offset < exec.offset {
			exec = &m
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return exec, nil
}

// parseMapsLine decodes a single row of /proc/<pid>/maps, e.g.:
// 555555554000-555555555000 r-xp 00000000 08:01 123456 /home/user/a.out
func parseMapsLine(line string) (mapping, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return mapping{}, false
	}

	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return mapping{}, false
	}
	start, err := strconv.ParseUint(addrs[0], 16, 64)
	if err != nil {
		return mapping{}, false
	}
	end, err := strconv.ParseUint(addrs[1], 16, 64)
	if err != nil {
		return mapping{}, false
	}
	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return mapping{}, false
	}

	m := mapping{start: start, end: end, offset: offset}
	if len(fields) >= 6 {
		m.pathname = fields[5]
	}
	return m, true
}
