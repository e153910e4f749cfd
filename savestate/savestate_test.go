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

package savestate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware"
	"github.com/jetsetilly/lockstep/hardware/peripherals/kerneltimer"
	"github.com/jetsetilly/lockstep/hardware/preferences"
	"github.com/jetsetilly/lockstep/savestate"
	"github.com/jetsetilly/lockstep/test"
)

func newSystem(t *testing.T) *hardware.System {
	t.Helper()
	prf, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "prefs"))
	test.DemandSuccess(t, err)
	env, err := environment.NewEnvironment(environment.MainEmulation, prf)
	test.DemandSuccess(t, err)
	env.Normalise()
	test.DemandSuccess(t, prf.Timing.InitTicksType.Set(preferences.InitTicksFixed))
	test.DemandSuccess(t, prf.Timing.InitTicks.Set(12345))

	sys, err := hardware.NewSystem(env, time.Date(2023, 5, 5, 0, 0, 0, 0, time.UTC))
	test.DemandSuccess(t, err)
	return sys
}

func TestSaveLoad(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "state.yaml")

	a := newSystem(t)
	test.DemandSuccess(t, a.RunForIterations(context.Background(), 500, nil))
	a.Driver.Claim()

	h := a.Timers.Create("timer", kerneltimer.Sticky)
	test.DemandSuccess(t, a.Timers.Set(h, 3*time.Millisecond, 500*time.Microsecond))

	st := a.Snapshot()
	test.DemandSuccess(t, savestate.Save(fn, st))

	ld, err := savestate.Load(fn)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(ld.Timing.Timers), len(st.Timing.Timers))
	test.ExpectEquality(t, ld.SharedPage, st.SharedPage)
	test.ExpectEquality(t, ld.Camera, st.Camera)

	o := ld.Timers.Objects[h]
	test.ExpectEquality(t, o.Interval, 500*time.Microsecond)
	test.ExpectEquality(t, o.Reset, kerneltimer.Sticky)

	b := newSystem(t)
	test.DemandSuccess(t, b.Plumb(ld))
	test.ExpectEquality(t, b.Scheduler.Summary(), a.Scheduler.Summary())
}

func TestWrongVersion(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "state.yaml")
	test.DemandSuccess(t, os.WriteFile(fn, []byte("version: something else\ncores: 0\n"), 0o644))

	_, err := savestate.Load(fn)
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, curated.Is(err, savestate.WrongVersion), true)
}

func TestEmpty(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "state.yaml")
	test.ExpectFailure(t, savestate.Save(fn, nil))

	test.DemandSuccess(t, os.WriteFile(fn, []byte("version: "+savestate.Version+"\n"), 0o644))
	_, err := savestate.Load(fn)
	test.ExpectEquality(t, curated.Is(err, savestate.NoState), true)

	_, err = savestate.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	test.ExpectFailure(t, err)
}
