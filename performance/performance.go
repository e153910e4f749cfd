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

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jetsetilly/lockstep/govern"
	"github.com/jetsetilly/lockstep/hardware"
	"github.com/jetsetilly/lockstep/hardware/multicore"
)

// sentinal error returned by Run() loop.
var timedOut = errors.New("performance timed out")

// Check the performance of the emulator by running the system for the
// specified duration of wall time.
//
// A leadtime allows the goroutines to settle before the measurement starts.
// The result is written to output.
func Check(ctx context.Context, output io.Writer, profile Profile, sys *hardware.System, duration time.Duration, leadtime time.Duration) error {
	var startTicks int64
	var startTime time.Time

	runner := func() error {
		// the leadtime will put false on the timerChan. the conclusion of the
		// measurement period will put true on the timerChan
		timerChan := make(chan bool, 1)

		lead := time.AfterFunc(leadtime, func() {
			timerChan <- false
		})
		defer lead.Stop()

		var measure *time.Timer
		defer func() {
			if measure != nil {
				measure.Stop()
			}
		}()

		startTicks = sys.Scheduler.GlobalTicks()
		startTime = time.Now()

		// only check for end of measurement period every PerformanceBrake
		// iterations
		performanceBrake := 0

		return sys.Run(ctx, func(r multicore.Report) (govern.State, error) {
			performanceBrake++
			if performanceBrake < hardware.PerformanceBrake {
				return govern.Running, nil
			}
			performanceBrake = 0

			select {
			case v := <-timerChan:
				if v {
					return govern.Ending, timedOut
				}

				// leadtime has concluded. measurement begins now
				startTicks = r.GlobalTicks
				startTime = time.Now()
				measure = time.AfterFunc(duration, func() {
					timerChan <- true
				})
			default:
			}

			return govern.Running, nil
		})
	}

	err := RunProfiler(profile, "performance", runner)
	if err != nil && !errors.Is(err, timedOut) {
		return fmt.Errorf("performance: %w", err)
	}

	elapsed := time.Since(startTime).Seconds()
	cycles := sys.Scheduler.GlobalTicks() - startTicks
	rate, accuracy := CalcSpeed(cycles, elapsed)
	fmt.Fprintf(output, "%.0f cycles/sec (%d cycles in %.2f seconds) %.1f%%\n", rate, cycles, elapsed, accuracy)

	return nil
}
