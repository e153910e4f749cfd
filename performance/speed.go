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

package performance

import "github.com/jetsetilly/lockstep/hardware/timing"

// CalcSpeed takes the number of emulated cycles and the duration (in seconds)
// and returns the cycles-per-second and the accuracy of that value as a
// percentage of the console's clock rate.
func CalcSpeed(cycles int64, duration float64) (rate float64, accuracy float64) {
	if duration <= 0 {
		return 0, 0
	}
	rate = float64(cycles) / duration
	accuracy = 100 * rate / float64(timing.BaseClockRate)
	return rate, accuracy
}
