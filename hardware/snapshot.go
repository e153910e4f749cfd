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
	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/hardware/core"
	"github.com/jetsetilly/lockstep/hardware/peripherals/capture"
	"github.com/jetsetilly/lockstep/hardware/peripherals/dsp"
	"github.com/jetsetilly/lockstep/hardware/peripherals/kerneltimer"
	"github.com/jetsetilly/lockstep/hardware/peripherals/poller"
	"github.com/jetsetilly/lockstep/hardware/peripherals/sharedpage"
	"github.com/jetsetilly/lockstep/hardware/timing"
)

// State stores the System sub-systems. It is produced by the Snapshot()
// function and can be restored with the Plumb() function.
type State struct {
	Timing     *timing.State     `yaml:"timing"`
	Cores      []core.State      `yaml:"cores"`
	DSP        dsp.State         `yaml:"dsp"`
	SharedPage sharedpage.State  `yaml:"sharedPage"`
	VBlank     poller.State      `yaml:"vblank"`
	Pad        poller.State      `yaml:"pad"`
	Timers     kerneltimer.State `yaml:"timers"`
	Camera     capture.State     `yaml:"camera"`
}

// Snapshot the state of the System sub-systems. Must be called by the
// goroutine that steps the cores.
func (sys *System) Snapshot() *State {
	st := &State{
		Timing:     sys.Scheduler.Snapshot(),
		Cores:      make([]core.State, len(sys.Cores)),
		DSP:        sys.DSP.Snapshot(),
		SharedPage: sys.SharedPage.Snapshot(),
		VBlank:     sys.VBlank.Snapshot(),
		Pad:        sys.Pad.Snapshot(),
		Timers:     sys.Timers.Snapshot(),
		Camera:     sys.Camera.Snapshot(),
	}
	for i, c := range sys.Cores {
		st.Cores[i] = c.Snapshot()
	}
	return st
}

// Plumb a previously snapshotted system. The event queue is locked for the
// duration so that nothing the peripherals do while they are being restored
// can add to the queue.
//
// The number of cores in the state must match the number of cores in the
// System.
func (sys *System) Plumb(st *State) error {
	if st == nil || st.Timing == nil {
		return curated.Errorf("hardware: cannot plumb in a nil state")
	}
	if len(st.Cores) != len(sys.Cores) {
		return curated.Errorf("hardware: state has %d cores, system has %d", len(st.Cores), len(sys.Cores))
	}

	sys.Scheduler.LockEventQueue()
	defer sys.Scheduler.UnlockEventQueue()

	// callbacks must be bound before the timers are restored so that every
	// pending event can find its type by name
	for i, c := range sys.Cores {
		c.Plumb(st.Cores[i])
	}
	sys.DSP.Plumb(st.DSP)
	sys.SharedPage.Plumb(st.SharedPage)
	sys.VBlank.Plumb(st.VBlank)
	sys.Pad.Plumb(st.Pad)
	sys.Timers.Plumb(st.Timers)
	sys.Camera.Plumb(st.Camera)

	if err := sys.Scheduler.Restore(st.Timing); err != nil {
		return curated.Errorf("hardware: %v", err)
	}

	return nil
}
