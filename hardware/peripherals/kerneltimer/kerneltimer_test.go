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

package kerneltimer_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/peripherals/kerneltimer"
	"github.com/jetsetilly/lockstep/hardware/preferences"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/logger"
	"github.com/jetsetilly/lockstep/test"
)

func newScheduler(t *testing.T) (*environment.Environment, *timing.Scheduler) {
	t.Helper()
	prf, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "prefs"))
	test.DemandSuccess(t, err)
	env, err := environment.NewEnvironment(environment.MainEmulation, prf)
	test.DemandSuccess(t, err)
	env.Normalise()
	test.DemandSuccess(t, prf.Timing.Cores.Set(1))
	test.DemandSuccess(t, prf.Timing.InitTicksType.Set(preferences.InitTicksFixed))
	return env, timing.NewScheduler(env)
}

// run the timer up to the tick count without overshooting
func runTo(tmr *timing.Timer, ticks int64) {
	for tmr.Ticks() < ticks {
		tmr.Advance()
		tmr.GrantSlice(ticks - tmr.Ticks())
		tmr.Idle()
	}
	tmr.Advance()
}

func TestOneShot(t *testing.T) {
	env, sched := newScheduler(t)
	tmr := sched.Timer(0)
	m := kerneltimer.NewManager(env, sched)

	h := m.Create("timer-a", kerneltimer.OneShot)
	test.DemandSuccess(t, m.Set(h, time.Millisecond, 0))

	at := timing.CyclesFromUs(1000)
	runTo(tmr, at-1)
	sig, err := m.Signaled(h)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, sig, false)

	runTo(tmr, at)
	sig, _ = m.Signaled(h)
	test.ExpectEquality(t, sig, true)

	// the first waiter acquires the signal
	ok, err := m.Wait(h)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, ok, true)
	ok, _ = m.Wait(h)
	test.ExpectEquality(t, ok, false)

	// no interval so nothing is pending
	test.ExpectEquality(t, tmr.Pending(), 0)
}

func TestPeriodic(t *testing.T) {
	env, sched := newScheduler(t)
	tmr := sched.Timer(0)
	m := kerneltimer.NewManager(env, sched)

	h := m.Create("timer-b", kerneltimer.Sticky)
	test.DemandSuccess(t, m.Set(h, 100*time.Microsecond, 250*time.Microsecond))

	initial := timing.CyclesFromUs(100)
	interval := timing.CyclesFromUs(250)
	runTo(tmr, initial+4*interval)

	o, err := m.Get(h)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, o.Fired, uint64(5))
	test.ExpectEquality(t, o.Signaled, true)

	test.DemandSuccess(t, m.Cancel(h))
	runTo(tmr, initial+10*interval)
	test.ExpectEquality(t, o.Fired, uint64(5))

	// a sticky timer stays signaled until it is cleared
	ok, _ := m.Wait(h)
	test.ExpectEquality(t, ok, true)
	ok, _ = m.Wait(h)
	test.ExpectEquality(t, ok, true)
	test.DemandSuccess(t, m.Clear(h))
	ok, _ = m.Wait(h)
	test.ExpectEquality(t, ok, false)
}

func TestPulse(t *testing.T) {
	env, sched := newScheduler(t)
	m := kerneltimer.NewManager(env, sched)

	h := m.Create("timer-c", kerneltimer.Pulse)
	ok, err := m.Wait(h)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, ok, false)
	ok, _ = m.Wait(h)
	test.ExpectEquality(t, ok, false)

	// a zero initial delay signals immediately
	test.DemandSuccess(t, m.Set(h, 0, 0))

	o, _ := m.Get(h)
	test.ExpectEquality(t, o.Woken, uint64(2))
	test.ExpectEquality(t, o.Waiting, 0)
	test.ExpectEquality(t, o.Signaled, false)
}

func TestSetCancelsPending(t *testing.T) {
	env, sched := newScheduler(t)
	tmr := sched.Timer(0)
	m := kerneltimer.NewManager(env, sched)

	h := m.Create("timer-d", kerneltimer.OneShot)
	test.DemandSuccess(t, m.Set(h, time.Millisecond, 0))
	test.DemandSuccess(t, m.Set(h, 2*time.Millisecond, 0))
	test.ExpectEquality(t, tmr.Pending(), 1)

	runTo(tmr, timing.CyclesFromUs(1500))
	sig, _ := m.Signaled(h)
	test.ExpectEquality(t, sig, false)
}

func TestInvalidHandle(t *testing.T) {
	env, sched := newScheduler(t)
	tmr := sched.Timer(0)
	m := kerneltimer.NewManager(env, sched)

	err := m.Set(kerneltimer.Handle(99), time.Millisecond, 0)
	test.ExpectEquality(t, curated.Is(err, kerneltimer.InvalidHandle), true)
	test.ExpectFailure(t, m.Clear(0))

	h := m.Create("timer-e", kerneltimer.OneShot)
	err = m.Set(h, -time.Millisecond, 0)
	test.ExpectEquality(t, curated.Is(err, kerneltimer.NegativeDelay), true)
	test.DemandSuccess(t, m.Set(h, time.Millisecond, 0))

	// closing the timer removes its event. an event that fires for a handle
	// that has gone is logged
	test.DemandSuccess(t, m.Close(h))
	test.ExpectEquality(t, tmr.Pending(), 0)
	test.ExpectFailure(t, m.Close(h))

	logger.Clear()
	et, ok := sched.Registry().Lookup("KernelTimer_Callback")
	test.DemandEquality(t, ok, true)
	sched.Schedule(10, et, timing.Payload(h))
	runTo(tmr, tmr.Ticks()+10)

	var s strings.Builder
	logger.Write(&s)
	test.ExpectEquality(t, strings.Contains(s.String(), "invalid timer"), true)
}

func TestSnapshotPlumb(t *testing.T) {
	env, sched := newScheduler(t)
	m := kerneltimer.NewManager(env, sched)
	a := m.Create("timer-a", kerneltimer.OneShot)
	b := m.Create("timer-b", kerneltimer.Pulse)
	test.DemandSuccess(t, m.Set(a, 0, 0))

	st := m.Snapshot()
	n := kerneltimer.NewManager(env, sched)
	n.Plumb(st)
	test.ExpectEquality(t, len(n.Handles()), 2)

	sig, err := n.Signaled(a)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, sig, true)

	// the next handle carries on from the restored state
	c := n.Create("timer-c", kerneltimer.Sticky)
	test.ExpectEquality(t, c > b, true)
}

func TestLongDelay(t *testing.T) {
	env, sched := newScheduler(t)
	tmr := sched.Timer(0)
	m := kerneltimer.NewManager(env, sched)

	h := m.Create("timer-long", kerneltimer.OneShot)
	test.DemandSuccess(t, m.Set(h, 10*time.Hour, 0))

	runTo(tmr, timing.MaxSliceLength)
	sig, err := m.Signaled(h)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, sig, false)

	st := sched.Snapshot()
	test.DemandEquality(t, len(st.Timers[0].Events), 1)
	test.ExpectEquality(t, st.Timers[0].Events[0].Deadline, timing.BaseClockRate*36000)
}
