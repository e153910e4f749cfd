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

// Package terminal reads single key presses from the controlling terminal. The
// terminal is put into cbreak mode so that keys are delivered without
// waiting for the return key. The previous mode is restored by Close().
package terminal

import (
	"io"

	"github.com/pkg/term"

	"github.com/jetsetilly/lockstep/curated"
)

// TTY is the device opened by OpenTTY().
const TTY = "/dev/tty"

// Keys delivers key presses one at a time.
type Keys struct {
	r   io.Reader
	tty *term.Term
}

// NewKeys reads key presses from any reader.
func NewKeys(r io.Reader) *Keys {
	return &Keys{r: r}
}

// OpenTTY opens the controlling terminal in cbreak mode.
func OpenTTY() (*Keys, error) {
	t, err := term.Open(TTY, term.CBreakMode)
	if err != nil {
		return nil, curated.Errorf("terminal: %v", err)
	}
	return &Keys{r: t, tty: t}, nil
}

// Read the next key. Returns io.EOF when there are no more keys.
func (k *Keys) Read() (byte, error) {
	var b [1]byte
	for {
		n, err := k.r.Read(b[:])
		if n == 1 {
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Close restores the terminal to its previous mode. Has no effect if the
// keys are not being read from the terminal.
func (k *Keys) Close() error {
	if k.tty == nil {
		return nil
	}
	if err := k.tty.Restore(); err != nil {
		return curated.Errorf("terminal: %v", err)
	}
	if err := k.tty.Close(); err != nil {
		return curated.Errorf("terminal: %v", err)
	}
	return nil
}
