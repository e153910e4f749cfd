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

package timing

import (
	"math"
	"time"

	"github.com/jetsetilly/lockstep/logger"
)

// BaseClockRate is the frequency of the general purpose cores in Hz.
const BaseClockRate int64 = 268111856

// MaxSliceLength is the largest number of cycles a timer is granted when no
// events are pending. It also sets the clamp for events scheduled through the
// thread-safe path.
const MaxSliceLength int64 = 20000

// MaxCycles is the largest value returned by the conversion functions. It
// leaves room for the value to be added to any realistic tick count.
const MaxCycles int64 = math.MaxInt64 / 4

// cyclesFrom converts v, measured in units per second, to cycles. the whole
// seconds and the remainder are converted separately so that the intermediate
// value never overflows. results outside of MaxCycles are clamped
func cyclesFrom(v int64, perSecond int64, unit string) int64 {
	whole := v / perSecond
	if whole > MaxCycles/BaseClockRate || whole < -MaxCycles/BaseClockRate {
		logger.Logf(logger.Allow, "timing", "%d%s is too large to convert to cycles. clamped", v, unit)
		if v < 0 {
			return -MaxCycles
		}
		return MaxCycles
	}
	return whole*BaseClockRate + (v%perSecond)*BaseClockRate/perSecond
}

// CyclesFromMs converts milliseconds to cycles.
func CyclesFromMs(ms int64) int64 {
	return cyclesFrom(ms, 1000, "ms")
}

// CyclesFromUs converts microseconds to cycles.
func CyclesFromUs(us int64) int64 {
	return cyclesFrom(us, 1000000, "us")
}

// CyclesFromNs converts nanoseconds to cycles.
func CyclesFromNs(ns int64) int64 {
	return cyclesFrom(ns, 1000000000, "ns")
}

// CyclesFromDuration converts a time.Duration to cycles.
func CyclesFromDuration(d time.Duration) int64 {
	return CyclesFromNs(d.Nanoseconds())
}

// CyclesToUs converts cycles to microseconds.
func CyclesToUs(cycles int64) int64 {
	return cycles/BaseClockRate*1000000 + (cycles%BaseClockRate)*1000000/BaseClockRate
}

// CyclesToDuration converts cycles to a time.Duration.
func CyclesToDuration(cycles int64) time.Duration {
	ns := cycles/BaseClockRate*int64(time.Second) + (cycles%BaseClockRate)*int64(time.Second)/BaseClockRate
	return time.Duration(ns)
}

// ClockScale returns the multiplier applied to consumed cycles for a clock
// speed expressed as a percentage of the base clock rate. A percentage of
// zero or less is treated as 100.
func ClockScale(percentage int) float64 {
	if percentage <= 0 {
		return 1.0
	}
	return 100.0 / float64(percentage)
}
