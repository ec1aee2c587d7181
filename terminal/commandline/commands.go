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

package commandline

import (
	"sort"
	"strings"

	"github.com/nativedbg/nativedbg/errors"
)

// Commands is a compiled set of command templates, ready to validate
// tokenised input lines and answer help queries.
type Commands struct {
	cmds  []*command
	index map[string]*command
	helps map[string]string
}

// Len, Less and Swap implement sort.Interface so a REPL can present
// commands to the user (and to tab completion) in a stable, alphabetical
// order regardless of template declaration order.
func (cmds *Commands) Len() int      { return len(cmds.cmds) }
func (cmds *Commands) Swap(i, j int) { cmds.cmds[i], cmds.cmds[j] = cmds.cmds[j], cmds.cmds[i] }
func (cmds *Commands) Less(i, j int) bool {
	return cmds.cmds[i].name < cmds.cmds[j].name
}

// AddHelp compiles a HELP command accepting any existing command name as
// an optional keyword, and records helps as the per-command help text
// returned by Help.
func (cmds *Commands) AddHelp(cmdHelp string, helps map[string]string) error {
	if len(cmds.cmds) == 0 {
		return errors.Errorf(errors.InputInvalidCommand, "no commands to build help for")
	}

	names := make([]string, 0, len(cmds.cmds))
	for _, c := range cmds.cmds {
		names = append(names, c.name)
	}
	sort.Strings(names)

	var alts [][]term
	for _, n := range names {
		alts = append(alts, []term{{kind: termLiteral, literal: n}})
	}

	c := &command{
		name: strings.ToUpper(cmdHelp),
		seq:  []term{{kind: termGroup, group: groupOptional, alts: alts}},
	}
	if _, exists := cmds.index[c.name]; exists {
		return errors.Errorf(errors.InputInvalidCommand, "duplicate command: "+c.name)
	}
	cmds.index[c.name] = c
	cmds.cmds = append(cmds.cmds, c)
	cmds.helps = helps

	return nil
}

// Help returns the registered help text for keyword, matched
// case-insensitively, or a fallback message if keyword names no command.
func (cmds *Commands) Help(keyword string) string {
	keyword = strings.ToUpper(keyword)
	for name, text := range cmds.helps {
		if strings.ToUpper(name) == keyword {
			return text
		}
	}
	return "no help available for " + keyword
}

// HelpOverview lists every command name in alphabetical order, for a bare
// HELP with no keyword.
func (cmds *Commands) HelpOverview() string {
	names := make([]string, 0, len(cmds.cmds))
	for _, c := range cmds.cmds {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Validate tokenises input and validates it against the compiled
// commands.
func (cmds *Commands) Validate(input string) error {
	return cmds.ValidateTokens(TokeniseInput(input))
}

// ValidateTokens checks that tokens forms a complete, valid invocation of
// one of the compiled commands, without consuming the cursor -- the
// caller is expected to Reset and re-walk tokens afterwards to dispatch.
func (cmds *Commands) ValidateTokens(tokens *Tokens) error {
	start := tokens.pos
	defer func() { tokens.pos = start }()

	name, ok := tokens.Get()
	if !ok {
		return errors.Errorf(errors.InputInvalidCommand, "")
	}

	c, ok := cmds.index[strings.ToUpper(name)]
	if !ok {
		return errors.Errorf(errors.InputInvalidCommand, name)
	}

	if err := matchSeq(c.seq, tokens); err != nil {
		return err
	}
	if tokens.Remaining() > 0 {
		return errors.Errorf(errors.InputInvalidCommand, "too many arguments to "+c.name)
	}

	return nil
}

// matchSeq consumes tokens against seq in order, failing on the first
// term that cannot be matched.
func matchSeq(seq []term, tokens *Tokens) error {
	for _, t := range seq {
		switch t.kind {
		case termLiteral:
			w, ok := tokens.Get()
			if !ok || !strings.EqualFold(w, t.literal) {
				return errors.Errorf(errors.InputInvalidCommand, "expected "+t.literal)
			}

		case termArg:
			if _, ok := tokens.Get(); !ok {
				return errors.Errorf(errors.InputInvalidCommand, "missing argument")
			}

		case termGroup:
			switch t.group {
			case groupRequired:
				if ok := matchAlts(t.alts, tokens); !ok {
					return errors.Errorf(errors.InputInvalidCommand, "missing required argument")
				}
			case groupOptional:
				matchAlts(t.alts, tokens)
			case groupRepeat:
				for matchAlts(t.alts, tokens) {
				}
			}
		}
	}
	return nil
}

// matchAlts tries each alternative of a group in turn, committing to and
// consuming the first one that matches. It reports whether any
// alternative matched.
func matchAlts(alts [][]term, tokens *Tokens) bool {
	for _, alt := range alts {
		mark := tokens.pos
		if matchSeq(alt, tokens) == nil {
			return true
		}
		tokens.pos = mark
	}
	return false
}
