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

// Package random should be used in preference to the math/rand package when a
// random number is required inside the emulation. For example, the initial
// tick count of each timer when the initTicksType preference is RANDOM.
//
// Numbers are drawn from a single sequence for each Random instance. If the
// same sequence is required every single time then set ZeroSeed to true before
// the first number is drawn, or call Reset() afterwards. This is useful for
// testing purposes and for normalised emulations.
package random
