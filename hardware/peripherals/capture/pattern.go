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

package capture

import (
	"github.com/jetsetilly/lockstep/random"
)

// Pattern is a Grabber that produces a test card with some noise.
type Pattern struct {
	rnd *random.Random
}

// NewPattern is the preferred method of initialisation for the Pattern type.
func NewPattern(rnd *random.Random) *Pattern {
	return &Pattern{rnd: rnd}
}

// Grab implements the Grabber interface.
func (pat *Pattern) Grab(port int, frame []byte) error {
	for i := 0; i < len(frame); i += 2 {
		x := (i / 2) % Width
		bar := byte(x * 8 / Width)
		frame[i] = bar<<5 | byte(port)
		frame[i+1] = byte(pat.rnd.Intn(16))
	}
	return nil
}
