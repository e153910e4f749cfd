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

package multicore

import "fmt"

// Mode is the decision made by the Driver in an iteration.
type Mode int

// List of driver modes.
const (
	Lockstep Mode = iota
	CatchUp
)

func (m Mode) String() string {
	switch m {
	case Lockstep:
		return "lockstep"
	case CatchUp:
		return "catch-up"
	}
	return ""
}

// Report describes what happened in a single iteration of the Driver.
type Report struct {
	Mode Mode

	// the core that was caught up. only valid in CatchUp mode
	Core int

	// the slice granted to the laggard in CatchUp mode or the shared slice in
	// Lockstep mode
	Slice int64

	// the global tick count at the end of the iteration
	GlobalTicks int64
}

func (r Report) String() string {
	if r.Mode == CatchUp {
		return fmt.Sprintf("%s: core %d by %d cycles (global %d)", r.Mode, r.Core, r.Slice, r.GlobalTicks)
	}
	return fmt.Sprintf("%s: slice %d cycles (global %d)", r.Mode, r.Slice, r.GlobalTicks)
}
