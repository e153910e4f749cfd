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

package timing_test

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/preferences"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/logger"
	"github.com/jetsetilly/lockstep/test"
)

func newEnvironment(t *testing.T, cores int) *environment.Environment {
	t.Helper()

	prf, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "prefs"))
	test.DemandSuccess(t, err)

	env, err := environment.NewEnvironment(environment.MainEmulation, prf)
	test.DemandSuccess(t, err)
	env.Normalise()

	test.DemandSuccess(t, prf.Timing.Cores.Set(cores))
	test.DemandSuccess(t, prf.Timing.InitTicksType.Set(preferences.InitTicksFixed))

	return env
}

func newScheduler(t *testing.T, cores int) *timing.Scheduler {
	t.Helper()
	return timing.NewScheduler(newEnvironment(t, cores))
}

// recorder keeps a list of fired events in the form "name:payload:late"
type recorder struct {
	fired []string
}

func (r *recorder) callback(name string) timing.Callback {
	return timing.CallbackFunc(func(payload timing.Payload, cyclesLate int64) {
		r.fired = append(r.fired, fmt.Sprintf("%s:%d:%d", name, payload, cyclesLate))
	})
}

func (r *recorder) take() []string {
	f := r.fired
	r.fired = nil
	return f
}

// pretend the core executed everything up to cpuDowncount, advance the timer
// and grant a new slice
func advanceAndCheck(t *testing.T, tmr *timing.Timer, rec *recorder, expected []string, downcount int64, cpuDowncount int64) {
	t.Helper()

	tmr.AddConsumed(tmr.Downcount() - cpuDowncount)
	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)

	test.ExpectEquality(t, strings.Join(rec.take(), ","), strings.Join(expected, ","))
	test.ExpectEquality(t, tmr.Downcount(), downcount)
}

func TestBasicOrder(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))
	b := s.RegisterType("callbackB", rec.callback("B"))
	c := s.RegisterType("callbackC", rec.callback("C"))
	d := s.RegisterType("callbackD", rec.callback("D"))
	e := s.RegisterType("callbackE", rec.callback("E"))

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	test.ExpectEquality(t, tmr.Downcount(), timing.MaxSliceLength)

	// D -> B -> C -> A -> E
	s.Schedule(1000, a, 42)
	test.ExpectEquality(t, tmr.Downcount(), int64(1000))
	s.Schedule(500, b, 144)
	test.ExpectEquality(t, tmr.Downcount(), int64(500))
	s.Schedule(800, c, 93)
	test.ExpectEquality(t, tmr.Downcount(), int64(500))
	s.Schedule(100, d, 1026)
	test.ExpectEquality(t, tmr.Downcount(), int64(100))
	s.Schedule(1200, e, 0xffff7ffff7ffff)
	test.ExpectEquality(t, tmr.Downcount(), int64(100))

	advanceAndCheck(t, tmr, &rec, []string{"D:1026:0"}, 400, 0)
	advanceAndCheck(t, tmr, &rec, []string{"B:144:0"}, 300, 0)
	advanceAndCheck(t, tmr, &rec, []string{"C:93:0"}, 200, 0)
	advanceAndCheck(t, tmr, &rec, []string{"A:42:0"}, 200, 0)
	advanceAndCheck(t, tmr, &rec, []string{fmt.Sprintf("E:%d:0", uint64(0xffff7ffff7ffff))}, timing.MaxSliceLength, 0)

	test.ExpectEquality(t, tmr.Ticks(), int64(1200))
}

func TestSharedSlot(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var rec recorder
	names := []string{"A", "B", "C", "D", "E"}
	for i, n := range names {
		et := s.RegisterType("callback"+n, rec.callback(n))
		s.Schedule(1000, et, timing.Payload(i))
	}

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	test.ExpectEquality(t, tmr.Downcount(), int64(1000))

	// equal deadlines fire in the order they were scheduled
	advanceAndCheck(t, tmr, &rec, []string{"A:0:0", "B:1:0", "C:2:0", "D:3:0", "E:4:0"}, timing.MaxSliceLength, 0)
}

func TestPredictableLateness(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))
	b := s.RegisterType("callbackB", rec.callback("B"))

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)

	s.Schedule(100, a, 42)
	s.Schedule(200, b, 144)

	// the core overshoots the slice by 10 and then by 50 cycles
	advanceAndCheck(t, tmr, &rec, []string{"A:42:10"}, 90, -10)
	advanceAndCheck(t, tmr, &rec, []string{"B:144:50"}, timing.MaxSliceLength, -50)
}

func TestChainScheduling(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))
	b := s.RegisterType("callbackB", rec.callback("B"))
	c := s.RegisterType("callbackC", rec.callback("C"))

	reschedules := 3
	var rs *timing.EventType
	rs = s.RegisterType("callbackReschedule", timing.CallbackFunc(func(payload timing.Payload, cyclesLate int64) {
		reschedules--
		rec.fired = append(rec.fired, fmt.Sprintf("RS:%d:%d", payload, cyclesLate))
		if reschedules > 0 {
			s.Schedule(1000, rs, payload)
		}
	}))

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)

	s.Schedule(800, a, 0)
	s.Schedule(1000, b, 1)
	s.Schedule(2200, c, 2)
	s.Schedule(1000, rs, 3)
	test.ExpectEquality(t, tmr.Downcount(), int64(800))

	advanceAndCheck(t, tmr, &rec, []string{"A:0:0"}, 200, 0)
	advanceAndCheck(t, tmr, &rec, []string{"B:1:0", "RS:3:0"}, 1000, 0)
	test.ExpectEquality(t, reschedules, 2)

	advanceAndCheck(t, tmr, &rec, []string{"RS:3:0"}, 200, 0)
	test.ExpectEquality(t, reschedules, 1)

	advanceAndCheck(t, tmr, &rec, []string{"C:2:0"}, 800, 0)

	advanceAndCheck(t, tmr, &rec, []string{"RS:3:0"}, timing.MaxSliceLength, 0)
	test.ExpectEquality(t, reschedules, 0)
}

func TestZeroCycleShrink(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	tmr.AddConsumed(5000)
	test.ExpectEquality(t, tmr.Ticks(), int64(5000))

	s.Schedule(0, a, 1)
	test.ExpectEquality(t, tmr.Downcount(), int64(0))
	test.ExpectEquality(t, tmr.SliceLength(), int64(5000))
	test.ExpectEquality(t, tmr.Ticks(), int64(5000))

	tmr.Advance()
	test.ExpectEquality(t, strings.Join(rec.take(), ","), "A:1:0")
}

func TestZeroCycleWhileSettled(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var rec recorder
	b := s.RegisterType("callbackB", rec.callback("B"))
	a := s.RegisterType("callbackA", timing.CallbackFunc(func(payload timing.Payload, cyclesLate int64) {
		rec.fired = append(rec.fired, "A")
		test.ExpectEquality(t, tmr.Phase(), timing.Settled)
		s.Schedule(0, b, 2)
	}))

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	s.Schedule(100, a, 1)

	// an event scheduled for zero cycles during the firing pass fires in the
	// same pass
	advanceAndCheck(t, tmr, &rec, []string{"A", "B:2:0"}, timing.MaxSliceLength, 0)
}

func TestDueEventWhenQueried(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var rec recorder
	c := s.RegisterType("callbackC", rec.callback("C"))

	logger.Clear()

	// scheduling directly after Advance() means the event is due at the
	// current tick and has not been fired
	tmr.Advance()
	tmr.ScheduleLocal(0, c, 3)
	test.ExpectEquality(t, tmr.MaxSliceLength(), int64(0))
	test.ExpectEquality(t, logContains("has not been fired"), true)

	tmr.GrantSlice(timing.MaxSliceLength)
	test.ExpectEquality(t, tmr.Downcount(), int64(0))

	tmr.Advance()
	test.ExpectEquality(t, strings.Join(rec.take(), ","), "C:3:0")
}

func logContains(s string) bool {
	var found bool
	logger.BorrowLog(func(entries []logger.Entry) {
		for _, e := range entries {
			if e.Tag == "timing" && strings.Contains(e.Detail, s) {
				found = true
			}
		}
	})
	return found
}

func TestCrossThreadClamp(t *testing.T) {
	s := newScheduler(t, 2)
	tmr := s.Timer(1)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	tmr.AddConsumed(300)
	ticks := tmr.Ticks()

	// core 1 is not the current core so the event goes to the inbox
	s.ScheduleOnCore(10, a, 1, 1, false)
	test.ExpectEquality(t, tmr.Pending(), 0)

	tmr.Advance()
	test.ExpectEquality(t, tmr.Pending(), 1)

	st := s.Snapshot()
	test.DemandEquality(t, len(st.Timers[1].Events), 1)
	test.ExpectEquality(t, st.Timers[1].Events[0].Deadline, ticks+2*timing.MaxSliceLength)

	// a request further in the future is not changed
	s.ScheduleOnCore(3*timing.MaxSliceLength, a, 2, 1, true)
	tmr.Advance()
	st = s.Snapshot()
	test.DemandEquality(t, len(st.Timers[1].Events), 2)
	test.ExpectEquality(t, st.Timers[1].Events[1].Deadline, tmr.Ticks()+3*timing.MaxSliceLength)
}

func TestThreadSafeOnCurrent(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)

	// the thread-safe path does not shrink the slice even for the current core
	s.ScheduleThreadSafe(100, a, 1)
	test.ExpectEquality(t, tmr.Downcount(), timing.MaxSliceLength)
	test.ExpectEquality(t, tmr.Pending(), 0)
}

func TestUnschedule(t *testing.T) {
	s := newScheduler(t, 2)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))
	b := s.RegisterType("callbackB", rec.callback("B"))

	for _, tmr := range s.Timers() {
		tmr.Advance()
		tmr.GrantSlice(timing.MaxSliceLength)
		tmr.ScheduleLocal(400, a, 1)
		tmr.ScheduleLocal(100, a, 2)
		tmr.ScheduleLocal(300, b, 1)
		tmr.ScheduleLocal(200, a, 1)
		tmr.ScheduleLocal(500, b, 2)
	}

	s.Unschedule(a, 1)

	// unscheduling something that doesn't exist is not an error
	s.Unschedule(b, 3)

	for i, tmr := range s.Timers() {
		test.ExpectEquality(t, tmr.Pending(), 3, i)
		test.ExpectEquality(t, s.IsScheduled(a), true, i)

		var order []string
		for range 3 {
			tmr.AddConsumed(tmr.Downcount())
			tmr.Advance()
			tmr.GrantSlice(timing.MaxSliceLength)
			order = append(order, rec.take()...)
		}
		test.ExpectEquality(t, strings.Join(order, ","), "A:2:0,B:1:0,B:2:0", i)
	}

	test.ExpectEquality(t, s.IsScheduled(b), false)
}

func TestRemove(t *testing.T) {
	s := newScheduler(t, 2)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))
	b := s.RegisterType("callbackB", rec.callback("B"))

	for _, tmr := range s.Timers() {
		tmr.ScheduleLocal(100, a, 1)
		tmr.ScheduleLocal(200, b, 1)
		tmr.ScheduleLocal(300, a, 2)
	}

	s.Remove(a)
	test.ExpectEquality(t, s.IsScheduled(a), false)
	for _, tmr := range s.Timers() {
		test.ExpectEquality(t, tmr.Pending(), 1)
	}
}

func TestGlobalTicks(t *testing.T) {
	s := newScheduler(t, 3)

	for i, tmr := range s.Timers() {
		tmr.Advance()
		tmr.GrantSlice(timing.MaxSliceLength)
		tmr.AddConsumed(int64(100 * (i + 1)))
	}

	test.ExpectEquality(t, s.GlobalTicks(), int64(300))

	s.Timer(0).Idle()
	test.ExpectEquality(t, s.GlobalTicks(), timing.MaxSliceLength)

	for _, tmr := range s.Timers() {
		var m int64
		for _, o := range s.Timers() {
			m = max(m, o.Ticks())
		}
		test.ExpectEquality(t, s.GlobalTicks(), m)
		tmr.Advance()
		test.ExpectEquality(t, s.GlobalTicks(), m)
	}
}

func TestGlobalTime(t *testing.T) {
	env := newEnvironment(t, 1)
	test.DemandSuccess(t, env.Prefs.Timing.InitTicks.Set(int(timing.BaseClockRate)))
	s := timing.NewScheduler(env)
	test.ExpectApproximate(t, s.GlobalTime().Seconds(), 1.0, 0.0001)
}

func TestIdle(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	tmr.AddConsumed(300)
	tmr.Idle()

	test.ExpectEquality(t, tmr.IdleTicks(), timing.MaxSliceLength-300)
	test.ExpectEquality(t, tmr.Downcount(), int64(0))
	test.ExpectEquality(t, tmr.Ticks(), timing.MaxSliceLength)

	// idling an overshot slice does nothing
	tmr.Advance()
	tmr.GrantSlice(100)
	tmr.AddConsumed(150)
	tmr.Idle()
	test.ExpectEquality(t, tmr.IdleTicks(), timing.MaxSliceLength-300)
	test.ExpectEquality(t, tmr.Downcount(), int64(-50))

	tmr.Advance()
	test.ExpectEquality(t, tmr.Ticks(), timing.MaxSliceLength+150)
}

func TestClockSpeed(t *testing.T) {
	s := newScheduler(t, 2)
	s.UpdateClockSpeed(50)

	tmr := s.Timer(1)
	test.ExpectEquality(t, tmr.ClockScale(), 2.0)

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	tmr.AddConsumed(100)
	test.ExpectEquality(t, tmr.Ticks(), int64(200))
}

func TestMissingCallback(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	logger.Clear()

	x := s.RegisterType("unbound", nil)
	s.Schedule(10, x, 0)
	tmr.AddConsumed(10)
	tmr.Advance()

	test.ExpectEquality(t, tmr.Pending(), 0)
	test.ExpectEquality(t, logContains("has no callback"), true)
}

func TestRebind(t *testing.T) {
	s := newScheduler(t, 1)
	tmr := s.Timer(0)

	var first, second recorder
	a := s.RegisterType("callbackA", first.callback("first"))
	s.Schedule(10, a, 1)

	b := s.RegisterType("callbackA", second.callback("second"))
	test.ExpectEquality(t, a, b)

	tmr.Advance()
	tmr.GrantSlice(timing.MaxSliceLength)
	tmr.AddConsumed(10)
	tmr.Advance()
	test.ExpectEquality(t, len(first.fired), 0)
	test.ExpectEquality(t, strings.Join(second.take(), ","), "second:1:0")
}

func TestLockEventQueue(t *testing.T) {
	s := newScheduler(t, 2)

	var rec recorder
	a := s.RegisterType("callbackA", rec.callback("A"))

	s.LockEventQueue()
	test.ExpectEquality(t, s.Locked(), true)
	s.Schedule(10, a, 1)
	s.ScheduleOnCore(10, a, 1, 1, true)
	s.Timer(1).Advance()
	test.ExpectEquality(t, s.IsScheduled(a), false)

	s.UnlockEventQueue()
	s.Schedule(10, a, 1)
	test.ExpectEquality(t, s.IsScheduled(a), true)
}

func TestInvalidCore(t *testing.T) {
	s := newScheduler(t, 2)
	a := s.RegisterType("callbackA", nil)

	// invalid cores are ignored in non-assertion builds
	s.ScheduleOnCore(10, a, 1, 5, false)
	test.ExpectEquality(t, s.IsScheduled(a), false)
	test.ExpectEquality(t, s.Timer(2) == nil, true)
}

func TestShutdown(t *testing.T) {
	s := newScheduler(t, 2)
	a := s.RegisterType("callbackA", nil)

	s.ScheduleOnCore(10, a, 1, 1, true)
	s.ScheduleOnCore(10, a, 2, 1, true)
	s.ScheduleOnCore(10, a, 3, 0, true)
	test.ExpectEquality(t, s.Shutdown(), 3)
	test.ExpectEquality(t, s.Shutdown(), 0)
}

func TestSummary(t *testing.T) {
	s := newScheduler(t, 1)
	a := s.RegisterType("callbackA", nil)
	s.Schedule(1000, a, 0x10)
	s.ScheduleThreadSafe(1000, a, 0x20)

	summary := s.Summary()
	test.ExpectEquality(t, strings.Contains(summary, "callbackA : 1000 0x10"), true)
	test.ExpectEquality(t, strings.Contains(summary, "(1 in inbox)"), true)
}

func TestRandomInitTicks(t *testing.T) {
	env := newEnvironment(t, 4)
	test.DemandSuccess(t, env.Prefs.Timing.InitTicksType.Set(preferences.InitTicksRandom))
	s := timing.NewScheduler(env)

	ticks := s.Timer(0).Ticks()
	test.ExpectEquality(t, ticks >= 0 && ticks < 1<<32, true)
	for _, tmr := range s.Timers() {
		test.ExpectEquality(t, tmr.Ticks(), ticks)
	}
}

func TestRegistryNames(t *testing.T) {
	r := timing.NewRegistry()
	r.Register("b", nil)
	r.Register("a", nil)
	r.Register("b", nil)
	test.ExpectEquality(t, slices.Equal(r.Names(), []string{"a", "b"}), true)

	_, ok := r.Lookup("c")
	test.ExpectEquality(t, ok, false)
}
