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
)

// TabCompletion completes the command-name word of a line against a
// Commands set, cycling through matches on repeated completion of the
// same prefix -- satisfies terminal.TabCompletion.
type TabCompletion struct {
	cmds *Commands

	lastPrefix string
	matches    []string
	next       int
}

// NewTabCompletion builds a TabCompletion over cmds.
func NewTabCompletion(cmds *Commands) *TabCompletion {
	return &TabCompletion{cmds: cmds}
}

// Complete returns input with its final word expanded to the next
// matching command name, or input unchanged if there is no match or more
// than one word has already been typed.
func (tc *TabCompletion) Complete(input string) string {
	words := splitWords(input)
	if len(words) != 1 {
		return input
	}
	prefix := strings.ToUpper(words[0])

	if prefix != tc.lastPrefix {
		tc.lastPrefix = prefix
		tc.matches = tc.matchingNames(prefix)
		tc.next = 0
	}
	if len(tc.matches) == 0 {
		return input
	}

	m := tc.matches[tc.next%len(tc.matches)]
	tc.next++
	return m
}

func (tc *TabCompletion) matchingNames(prefix string) []string {
	var names []string
	for _, c := range tc.cmds.cmds {
		if strings.HasPrefix(c.name, prefix) {
			names = append(names, c.name)
		}
	}
	sort.Strings(names)
	return names
}
