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

// Package core contains a synthetic execution engine for an emulated core.
// It does not decode instructions. Instead it retires pending work in blocks
// of a random number of cycles, checking the timer's downcount only between
// blocks. This is how a JIT behaves and means that the slice granted by the
// scheduler is usually overshot by a small amount.
//
// Work is given to a core with the Interrupt() function. Peripherals call it
// from their event callbacks to model the handling of an interrupt.
package core
