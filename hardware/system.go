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
	"time"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/core"
	"github.com/jetsetilly/lockstep/hardware/multicore"
	"github.com/jetsetilly/lockstep/hardware/peripherals/capture"
	"github.com/jetsetilly/lockstep/hardware/peripherals/dsp"
	"github.com/jetsetilly/lockstep/hardware/peripherals/kerneltimer"
	"github.com/jetsetilly/lockstep/hardware/peripherals/poller"
	"github.com/jetsetilly/lockstep/hardware/peripherals/sharedpage"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/prefs"
)

// Periods of the polled peripherals, in cycles.
const (
	VBlankPeriod = timing.BaseClockRate / 60
	PadPeriod    = timing.BaseClockRate / 234
)

// Work given to a core by each poll.
const (
	VBlankCycles = 5000
	PadCycles    = 300
)

// System is the root of the emulation. It contains the scheduler, the cores,
// the driver and every peripheral that schedules events.
type System struct {
	env *environment.Environment

	Scheduler *timing.Scheduler
	Cores     []*core.Synthetic
	Driver    *multicore.Driver

	DSP        *dsp.DSP
	SharedPage *sharedpage.SharedPage
	VBlank     *poller.Poller
	Pad        *poller.Poller
	Timers     *kerneltimer.Manager
	Camera     *capture.Capture
}

// NewSystem creates a new System and everything associated with it. The
// number of cores is taken from the environment's preferences. The base time
// is the console time at the start of emulation.
//
// The peripherals are started and their first events are scheduled.
func NewSystem(env *environment.Environment, base time.Time) (*System, error) {
	sys := &System{env: env}

	sys.Scheduler = timing.NewScheduler(env)

	cs := make([]multicore.Core, sys.Scheduler.NumCores())
	sys.Cores = make([]*core.Synthetic, len(cs))
	for i := range cs {
		sys.Cores[i] = core.NewSynthetic(env, i, core.DefaultMaxBlock)
		cs[i] = sys.Cores[i]
	}

	var err error
	sys.Driver, err = multicore.NewDriver(env, sys.Scheduler, cs)
	if err != nil {
		return nil, curated.Errorf("hardware: %v", err)
	}

	first := sys.Cores[0]
	last := sys.Cores[len(sys.Cores)-1]

	sys.DSP = dsp.NewDSP(env, sys.Scheduler, first)
	sys.SharedPage = sharedpage.NewSharedPage(env, sys.Scheduler, base)
	sys.Timers = kerneltimer.NewManager(env, sys.Scheduler)
	sys.Camera = capture.NewCapture(env, sys.Scheduler, last.ID(), last, capture.NewPattern(env.Random))

	sys.VBlank, err = poller.NewPoller(env, sys.Scheduler, "GPU_VBlank", first.ID(), VBlankPeriod,
		poller.HandlerFunc(func(_ uint64, _ int64) {
			first.Interrupt(VBlankCycles)
		}))
	if err != nil {
		return nil, curated.Errorf("hardware: %v", err)
	}

	sys.Pad, err = poller.NewPoller(env, sys.Scheduler, "HID_Pad", last.ID(), PadPeriod,
		poller.HandlerFunc(func(_ uint64, _ int64) {
			last.Interrupt(PadCycles)
		}))
	if err != nil {
		return nil, curated.Errorf("hardware: %v", err)
	}

	// changes to the clock percentage take effect immediately
	env.Prefs.Timing.ClockPercentage.SetHookPost(func(v prefs.Value) error {
		sys.Scheduler.UpdateClockSpeed(v.(int))
		return nil
	})

	sys.start()

	return sys, nil
}

// schedule the first event of every peripheral. events for cores other than
// the current core go through the inbox
func (sys *System) start() {
	sys.Scheduler.SetCurrent(0)
	sys.SharedPage.Start()
	sys.DSP.Start()
	sys.VBlank.Start()
	sys.Pad.Start()
}

func (sys *System) String() string {
	return sys.Scheduler.String()
}

// Step runs a single iteration of the driver.
func (sys *System) Step() (multicore.Report, error) {
	r := sys.Driver.Step()
	if err := sys.DSP.Err(); err != nil {
		return r, curated.Errorf("hardware: %v", err)
	}
	return r, nil
}

// Shutdown discards every pending cross-thread request. Returns the number of
// requests discarded.
func (sys *System) Shutdown() int {
	return sys.Scheduler.Shutdown()
}
