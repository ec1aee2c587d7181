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

package errors_test

import (
	"fmt"
	"testing"

	"github.com/nativedbg/nativedbg/errors"
	"github.com/nativedbg/nativedbg/test"
)

func TestErrorfFormatsArgs(t *testing.T) {
	e := errors.Errorf(errors.NoTracee, "exit status 1")
	test.Equate(t, e.Error(), "no tracee: exit status 1")
}

func TestRewrappingUnderSameCategoryCollapses(t *testing.T) {
	inner := errors.Errorf(errors.NoTracee, "exit status 1")
	outer := errors.Errorf(errors.NoTracee, inner)
	test.Equate(t, outer.Error(), "no tracee: exit status 1")
}

func TestRewrappingUnderDifferentCategoryKeepsBothHeads(t *testing.T) {
	inner := errors.Errorf(errors.NoTracee, "exit status 1")
	outer := errors.Errorf(errors.FatalLaunchError, inner)
	test.Equate(t, outer.Error(), "fatal launch error: no tracee: exit status 1")
}

func TestIsMatchesOnlyTheOutermostHead(t *testing.T) {
	inner := errors.Errorf(errors.NoTracee, "exit status 1")
	outer := errors.Errorf(errors.FatalLaunchError, inner)

	test.ExpectSuccess(t, errors.Is(outer, errors.FatalLaunchError))
	test.ExpectFailure(t, errors.Is(outer, errors.NoTracee))
}

func TestHasSearchesTheWholeChain(t *testing.T) {
	inner := errors.Errorf(errors.NoTracee, "exit status 1")
	outer := errors.Errorf(errors.FatalLaunchError, inner)

	test.ExpectSuccess(t, errors.Has(outer, errors.FatalLaunchError))
	test.ExpectSuccess(t, errors.Has(outer, errors.NoTracee))
	test.ExpectFailure(t, errors.Has(outer, errors.MalformedBinary))
}

func TestIsAny(t *testing.T) {
	e := errors.Errorf(errors.NoTracee, "exit status 1")
	test.ExpectSuccess(t, errors.IsAny(e))

	plain := fmt.Errorf("plain error, not built by this package")
	test.ExpectFailure(t, errors.IsAny(plain))
}

func TestHeadFallsBackToErrorForPlainErrors(t *testing.T) {
	plain := fmt.Errorf("plain error")
	test.Equate(t, errors.Head(plain), "plain error")

	e := errors.Errorf(errors.NoTracee, "exit status 1")
	test.Equate(t, errors.Head(e), errors.NoTracee)
}

func TestHasOnPlainErrorIsFalse(t *testing.T) {
	plain := fmt.Errorf("plain error")
	test.ExpectFailure(t, errors.Has(plain, errors.NoTracee))
}
