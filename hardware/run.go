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

package hardware

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/govern"
	"github.com/jetsetilly/lockstep/hardware/multicore"
)

// While the continueCheck() function only runs once per driver iteration, it
// can still be expensive to do a full continue check every time.
//
// The PerformanceBrake is a standard value that can be used to filter out
// expensive code paths within a continueCheck() implementation. For example:
//
//	performanceFilter++
//	if performanceFilter >= hardware.PerformanceBrake {
//		performanceFilter = 0
//		if end_condition == true {
//			return govern.Ending, nil
//		}
//	}
//	return govern.Running, nil
const PerformanceBrake = 100

// Run the driver until continueCheck() returns govern.Ending or the context
// is cancelled. The report of the most recent iteration is passed to
// continueCheck(). In the Paused state no iterations are run but
// continueCheck() is still called.
//
// The DSP goroutine, if the DSP is threaded, and the camera's host goroutines
// run for the duration of the call. The first error from any of them ends the
// emulation.
func (sys *System) Run(ctx context.Context, continueCheck func(r multicore.Report) (govern.State, error)) error {
	if continueCheck == nil {
		continueCheck = func(multicore.Report) (govern.State, error) { return govern.Running, nil }
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	sys.Camera.Start(ctx)

	if sys.DSP.Threaded() {
		g.Go(func() error {
			return sys.DSP.Run(ctx)
		})
	}

	g.Go(func() error {
		// stop the DSP goroutine when the loop ends
		defer cancel()

		sys.Driver.Claim()

		var r multicore.Report
		var err error

		state := govern.Running
		for state != govern.Ending {
			switch state {
			case govern.Running, govern.Stepping:
				r, err = sys.Step()
				if err != nil {
					return err
				}
			case govern.Paused:
			default:
				return curated.Errorf("hardware: unsupported emulation state (%s) in Run() function", state)
			}

			if ctx.Err() != nil {
				return nil
			}

			state, err = continueCheck(r)
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return sys.Camera.Wait()
}

// RunForIterations runs the driver for the specified number of iterations.
func (sys *System) RunForIterations(ctx context.Context, iterations int, continueCheck func(r multicore.Report) (govern.State, error)) error {
	var n int
	return sys.Run(ctx, func(r multicore.Report) (govern.State, error) {
		n++
		if n >= iterations {
			return govern.Ending, nil
		}
		if continueCheck != nil {
			return continueCheck(r)
		}
		return govern.Running, nil
	})
}

// RunForDuration runs the driver until the global tick count has advanced
// by the number of cycles.
func (sys *System) RunForDuration(ctx context.Context, cycles int64, continueCheck func(r multicore.Report) (govern.State, error)) error {
	target := sys.Scheduler.GlobalTicks() + cycles
	return sys.Run(ctx, func(r multicore.Report) (govern.State, error) {
		if r.GlobalTicks >= target {
			return govern.Ending, nil
		}
		if continueCheck != nil {
			return continueCheck(r)
		}
		return govern.Running, nil
	})
}
