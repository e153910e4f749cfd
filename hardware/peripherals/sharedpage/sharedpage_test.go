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

package sharedpage_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/peripherals/sharedpage"
	"github.com/jetsetilly/lockstep/hardware/preferences"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/test"
)

func newScheduler(t *testing.T) *timing.Scheduler {
	t.Helper()
	prf, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "prefs"))
	test.DemandSuccess(t, err)
	env, err := environment.NewEnvironment(environment.MainEmulation, prf)
	test.DemandSuccess(t, err)
	env.Normalise()
	test.DemandSuccess(t, prf.Timing.Cores.Set(1))
	test.DemandSuccess(t, prf.Timing.InitTicksType.Set(preferences.InitTicksFixed))
	return timing.NewScheduler(env)
}

// jump the timer to the next pending event and fire it
func next(tmr *timing.Timer) {
	tmr.Advance()
	tmr.GrantSlice(1 << 60)
	tmr.Idle()
	tmr.Advance()
}

func TestHourlyUpdate(t *testing.T) {
	sched := newScheduler(t)
	tmr := sched.Timer(0)

	base := time.Date(2020, time.June, 1, 12, 0, 0, 0, time.UTC)
	p := sharedpage.NewSharedPage(nil, sched, base)
	p.Start()

	// the first update happens at tick zero
	tmr.Advance()
	test.ExpectEquality(t, p.Counter(), uint32(1))
	test.ExpectEquality(t, p.Latest().UpdateTick, int64(0))

	first := p.Latest().DateTime
	test.ExpectEquality(t, first, uint64(3155673600000+base.Sub(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)).Milliseconds()))

	next(tmr)
	test.ExpectEquality(t, p.Counter(), uint32(2))
	test.ExpectEquality(t, p.Latest().UpdateTick, sharedpage.UpdatePeriod)

	// an hour has passed in console time, give or take the rounding of the
	// cycle conversion
	test.ExpectApproximate(t, int64(p.Latest().DateTime-first), int64(time.Hour/time.Millisecond), 0.001)

	next(tmr)
	test.ExpectEquality(t, p.Counter(), uint32(3))
	test.ExpectEquality(t, p.Latest().UpdateTick, 2*sharedpage.UpdatePeriod)
}

func TestBefore2000(t *testing.T) {
	sched := newScheduler(t)
	p := sharedpage.NewSharedPage(nil, sched, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC))
	test.ExpectEquality(t, p.SystemTime(), uint64(3155673600000))
}

func TestSnapshotPlumb(t *testing.T) {
	sched := newScheduler(t)
	p := sharedpage.NewSharedPage(nil, sched, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Start()
	sched.Timer(0).Advance()

	st := p.Snapshot()
	q := sharedpage.NewSharedPage(nil, sched, time.Now())
	q.Plumb(st)
	test.ExpectEquality(t, q.Snapshot(), st)
	test.ExpectEquality(t, q.SystemTime(), p.SystemTime())
}
