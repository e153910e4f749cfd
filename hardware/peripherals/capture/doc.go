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

// Package capture implements the camera. A capture is performed by the host
// on its own goroutine. When the host has the frame the completion is
// injected into the scheduler through the thread safe path, with a delay that
// models the frame rate of the port.
//
// Host goroutines are managed by an errgroup. The first error returned by a
// Grabber cancels the group and is returned by Wait().
package capture
