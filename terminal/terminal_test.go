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

package terminal_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jetsetilly/lockstep/terminal"
	"github.com/jetsetilly/lockstep/test"
)

func TestKeys(t *testing.T) {
	k := terminal.NewKeys(strings.NewReader(" sq"))

	for _, want := range []byte{' ', 's', 'q'} {
		b, err := k.Read()
		test.DemandSuccess(t, err)
		test.ExpectEquality(t, b, want)
	}

	_, err := k.Read()
	test.ExpectEquality(t, errors.Is(err, io.EOF), true)
	test.ExpectSuccess(t, k.Close())
}
