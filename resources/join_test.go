// This file is part of Lockstep.
//
// Lockstep is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lockstep is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lockstep.  If not, see <https://www.gnu.org/licenses/>.

//go:build !release

package resources_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jetsetilly/lockstep/resources"
	"github.com/jetsetilly/lockstep/test"
)

func TestJoinPath(t *testing.T) {
	t.Chdir(t.TempDir())

	p, err := resources.JoinPath("sub", "file")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, p, filepath.Join(".lockstep", "sub", "file"))

	// directory is created but the file is not
	info, err := os.Stat(filepath.Dir(p))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, info.IsDir(), true)
	_, err = os.Stat(p)
	test.ExpectFailure(t, err)

	// base path is not prepended twice
	q, err := resources.JoinPath(p)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, q, p)
}

func TestPortable(t *testing.T) {
	t.Chdir(t.TempDir())
	test.DemandSuccess(t, os.Mkdir("lockstep_portable", 0o700))

	p, err := resources.JoinPath("preferences")
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, p, filepath.Join("lockstep_portable", "preferences"))
}
