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

package inspect_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/hardware/preferences"
	"github.com/jetsetilly/lockstep/hardware/timing"
	"github.com/jetsetilly/lockstep/inspect"
	"github.com/jetsetilly/lockstep/test"
)

func TestDump(t *testing.T) {
	prf, err := preferences.NewPreferencesFromFile(filepath.Join(t.TempDir(), "prefs"))
	test.DemandSuccess(t, err)
	env, err := environment.NewEnvironment(environment.MainEmulation, prf)
	test.DemandSuccess(t, err)
	env.Normalise()

	sched := timing.NewScheduler(env)
	et := sched.RegisterType("Inspect_Event", timing.CallbackFunc(func(timing.Payload, int64) {}))
	sched.Schedule(1000, et, 42)

	var b strings.Builder
	test.DemandSuccess(t, inspect.Dump(&b, sched.Snapshot()))

	out := b.String()
	test.ExpectEquality(t, strings.HasPrefix(out, "digraph"), true)
	test.ExpectEquality(t, strings.Contains(out, "Inspect_Event"), true)

	test.ExpectFailure(t, inspect.Dump(&b, nil))

	fn := filepath.Join(t.TempDir(), "state.dot")
	test.DemandSuccess(t, inspect.DumpFile(fn, sched.Snapshot()))
}
