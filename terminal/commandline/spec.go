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

// Package commandline compiles a fixed command grammar -- the debugger's
// BREAK, STEP, PRINT and friends -- from a small template language into a
// tree that can validate a tokenised input line and drive tab completion
// against it.
//
// A template word is one of:
//
//	LITERAL      matched case-insensitively, e.g. BREAK
//	%KIND        a placeholder consuming exactly one token
//	%<label>KIND a labelled placeholder (the label only documents intent)
//	[a|b|c]      a required group: exactly one alternative must match
//	(a|b|c)      an optional group: an alternative matches if present
//	{a}          a repeating group: matches zero or more times
//
// KIND is one of N (number), S (string), F (file path) or P (any value);
// commandline does not itself distinguish their semantics, leaving that to
// whatever dispatches on the matched command.
package commandline

import (
	"strings"

	"github.com/nativedbg/nativedbg/errors"
)

type argKind byte

const (
	argNumber      argKind = 'N'
	argPlaceholder argKind = 'P'
	argString      argKind = 'S'
	argFile        argKind = 'F'
)

type groupKind int

const (
	groupRequired groupKind = iota
	groupOptional
	groupRepeat
)

type termKind int

const (
	termLiteral termKind = iota
	termArg
	termGroup
)

// term is one element of a command's grammar: a literal keyword, a
// placeholder consuming one token, or a bracketed group of alternatives.
type term struct {
	kind termKind

	literal string

	arg   argKind
	label string

	group groupKind
	alts  [][]term
}

// command is a compiled template: a leading literal name and the sequence
// of terms that must follow it.
type command struct {
	name string
	seq  []term
}

// ParseCommandTemplate compiles each template string into a command. Every
// template's first word is taken as the command's literal name.
func ParseCommandTemplate(templates []string) (*Commands, error) {
	cmds := &Commands{index: make(map[string]*command)}

	for _, tmpl := range templates {
		p := &templateParser{src: []rune(tmpl)}
		p.skipSpace()

		name := p.readBareword()
		if name == "" {
			return nil, errors.Errorf(errors.InputInvalidCommand, tmpl)
		}

		seq, err := p.parseSeq()
		if err != nil {
			return nil, errors.Errorf(errors.InputInvalidCommand, err)
		}

		c := &command{name: strings.ToUpper(name), seq: seq}
		if _, exists := cmds.index[c.name]; exists {
			return nil, errors.Errorf(errors.InputInvalidCommand, "duplicate command: "+c.name)
		}
		cmds.index[c.name] = c
		cmds.cmds = append(cmds.cmds, c)
	}

	return cmds, nil
}

// templateParser walks a single template string, turning its bracket
// syntax into a tree of term values.
type templateParser struct {
	src []rune
	pos int
}

func (p *templateParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *templateParser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

// readBareword reads a run of non-space, non-grammar characters.
func (p *templateParser) readBareword() string {
	start := p.pos
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '[', ']', '(', ')', '{', '}', '%', '|':
			return string(p.src[start:p.pos])
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

// parseSeq parses a run of terms until end of input or one of stop's
// runes is next (unconsumed).
func (p *templateParser) parseSeq(stop ...rune) ([]term, error) {
	var seq []term
	for {
		p.skipSpace()
		r, ok := p.peek()
		if !ok {
			return seq, nil
		}
		for _, s := range stop {
			if r == s {
				return seq, nil
			}
		}

		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		seq = append(seq, t)
	}
}

func (p *templateParser) parseTerm() (term, error) {
	r, _ := p.peek()
	switch r {
	case '%':
		return p.parsePlaceholder()
	case '[':
		return p.parseGroup('[', ']', groupRequired)
	case '(':
		return p.parseGroup('(', ')', groupOptional)
	case '{':
		return p.parseGroup('{', '}', groupRepeat)
	default:
		word := p.readBareword()
		if word == "" {
			return term{}, errors.Errorf(errors.InputInvalidCommand, "unexpected character in template")
		}
		return term{kind: termLiteral, literal: strings.ToUpper(word)}, nil
	}
}

// parsePlaceholder parses %KIND or %<label>KIND.
func (p *templateParser) parsePlaceholder() (term, error) {
	p.pos++ // consume '%'

	var label string
	if r, ok := p.peek(); ok && r == '<' {
		p.pos++
		start := p.pos
		for {
			r, ok := p.peek()
			if !ok {
				return term{}, errors.Errorf(errors.InputInvalidCommand, "unterminated placeholder label")
			}
			if r == '>' {
				break
			}
			p.pos++
		}
		label = string(p.src[start:p.pos])
		p.pos++ // consume '>'
	}

	r, ok := p.peek()
	if !ok {
		return term{}, errors.Errorf(errors.InputInvalidCommand, "placeholder missing kind")
	}
	p.pos++

	return term{kind: termArg, arg: argKind(r), label: label}, nil
}

// parseGroup parses a bracketed group, splitting its body on '|' into
// alternatives.
func (p *templateParser) parseGroup(open, close rune, kind groupKind) (term, error) {
	p.pos++ // consume open bracket

	var alts [][]term
	for {
		seq, err := p.parseSeq(close, '|')
		if err != nil {
			return term{}, err
		}
		alts = append(alts, seq)

		r, ok := p.peek()
		if !ok {
			return term{}, errors.Errorf(errors.InputInvalidCommand, "unterminated group")
		}
		if r == '|' {
			p.pos++
			continue
		}
		if r == close {
			p.pos++
			break
		}
		return term{}, errors.Errorf(errors.InputInvalidCommand, "malformed group")
	}
	_ = open

	return term{kind: termGroup, group: kind, alts: alts}, nil
}
