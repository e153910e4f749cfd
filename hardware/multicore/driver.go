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

import (
	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/timing"
)

// Driver runs the cores against the scheduler's timers.
type Driver struct {
	env   *environment.Environment
	sched *timing.Scheduler
	cores []Core
}

// NewDriver is the preferred method of initialisation for the Driver type.
// There must be one core for every timer in the scheduler, in core order.
func NewDriver(env *environment.Environment, sched *timing.Scheduler, cores []Core) (*Driver, error) {
	if len(cores) != sched.NumCores() {
		return nil, curated.Errorf("multicore: %d cores for %d timers", len(cores), sched.NumCores())
	}
	for i, c := range cores {
		if c.ID() != i {
			return nil, curated.Errorf("multicore: core %d has ID %d", i, c.ID())
		}
	}

	return &Driver{
		env:   env,
		sched: sched,
		cores: cores,
	}, nil
}

// Claim makes the calling goroutine the owner of every timer. Should be called
// by the goroutine that calls Step().
func (drv *Driver) Claim() {
	for _, tmr := range drv.sched.Timers() {
		tmr.Claim()
	}
}

// threshold is read from the preferences on every iteration so that changes
// take effect immediately
func (drv *Driver) threshold() int64 {
	return int64(drv.env.Prefs.Timing.CatchUpThreshold.Get().(int))
}

// Step runs a single iteration.
func (drv *Driver) Step() Report {
	global := drv.sched.GlobalTicks()

	laggard := -1
	var delay int64
	for i, tmr := range drv.sched.Timers() {
		if d := global - tmr.Ticks(); d > delay {
			delay = d
			laggard = i
		}
	}

	if laggard >= 0 && delay > drv.threshold() {
		drv.catchUp(laggard, delay)
		return Report{
			Mode:        CatchUp,
			Core:        laggard,
			Slice:       delay,
			GlobalTicks: drv.sched.GlobalTicks(),
		}
	}

	slice := drv.lockstep()
	return Report{
		Mode:        Lockstep,
		Core:        -1,
		Slice:       slice,
		GlobalTicks: drv.sched.GlobalTicks(),
	}
}

// run the core if it has work, otherwise idle it for the rest of the slice
func (drv *Driver) execute(core Core, tmr *timing.Timer) {
	if tmr.Downcount() > 0 && core.HasWork() {
		core.Run(tmr)
	} else {
		tmr.Idle()
	}
}

func (drv *Driver) catchUp(laggard int, delay int64) {
	tmr := drv.sched.Timer(laggard)
	drv.sched.SetCurrent(laggard)
	tmr.Advance()
	tmr.GrantSlice(delay)
	drv.execute(drv.cores[laggard], tmr)
}

// returns the shared slice
func (drv *Driver) lockstep() int64 {
	timers := drv.sched.Timers()

	for i, tmr := range timers {
		drv.sched.SetCurrent(i)
		tmr.Advance()
	}

	slice := timing.MaxSliceLength
	for _, tmr := range timers {
		slice = min(slice, tmr.MaxSliceLength())
	}
	shared := slice

	// a core that finishes early tightens the slice of the cores that follow
	for i, tmr := range timers {
		drv.sched.SetCurrent(i)
		tmr.GrantSlice(slice)
		start := tmr.Ticks()
		drv.execute(drv.cores[i], tmr)
		slice = tmr.Ticks() - start
	}

	return shared
}
