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

package prefs_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jetsetilly/lockstep/prefs"
	"github.com/jetsetilly/lockstep/test"
)

func cmpPrefFile(t *testing.T, fn string, expected string) {
	t.Helper()

	data, err := os.ReadFile(fn)
	if err != nil {
		t.Errorf("error reading prefs file: %v", err)
		return
	}

	expected = fmt.Sprintf("%s\n%s", prefs.WarningBoilerPlate, expected)
	test.ExpectEquality(t, string(data), expected)
}

func TestBool(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var v prefs.Bool
	var w prefs.Bool
	test.ExpectSuccess(t, dsk.Add("test", &v))
	test.ExpectSuccess(t, dsk.Add("testB", &w))

	test.ExpectSuccess(t, v.Set(true))
	test.ExpectSuccess(t, w.Set("foo"))
	test.ExpectSuccess(t, dsk.Save())

	cmpPrefFile(t, fn, "test :: true\ntestB :: false\n")

	test.ExpectFailure(t, v.Set(10))
}

func TestInt(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var v prefs.Int
	test.ExpectSuccess(t, dsk.Add("number", &v))
	test.ExpectSuccess(t, v.Set(" 10 "))
	test.ExpectEquality(t, v.Get().(int), 10)
	test.ExpectFailure(t, v.Set("ten"))
	test.ExpectEquality(t, v.Get().(int), 10)
	test.ExpectSuccess(t, dsk.Save())

	cmpPrefFile(t, fn, "number :: 10\n")
}

func TestFloat(t *testing.T) {
	var v prefs.Float
	test.ExpectSuccess(t, v.Set("0.25"))
	test.ExpectEquality(t, v.Get().(float64), 0.25)
	test.ExpectEquality(t, v.String(), "0.250")
	test.ExpectSuccess(t, v.Set(2))
	test.ExpectEquality(t, v.Get().(float64), 2.0)
	test.ExpectFailure(t, v.Set(true))
}

func TestString(t *testing.T) {
	var v prefs.String
	test.ExpectSuccess(t, v.Set("hello world"))
	v.SetMaxLen(5)
	test.ExpectEquality(t, v.String(), "hello")
	test.ExpectSuccess(t, v.Set(123456))
	test.ExpectEquality(t, v.String(), "12345")
}

func TestHooks(t *testing.T) {
	var v prefs.Int

	var post int
	v.SetHookPre(func(nv prefs.Value) error {
		if nv.(int) < 0 {
			return errors.New("negative")
		}
		return nil
	})
	v.SetHookPost(func(nv prefs.Value) error {
		post = nv.(int)
		return nil
	})

	test.ExpectSuccess(t, v.Set(5))
	test.ExpectEquality(t, post, 5)

	// the pre hook rejects the value so neither the value nor the post hook
	// are changed
	test.ExpectFailure(t, v.Set(-1))
	test.ExpectEquality(t, v.Get().(int), 5)
	test.ExpectEquality(t, post, 5)
}

func TestSharedFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")

	dskA, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	dskB, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var a prefs.Int
	var b prefs.Bool
	test.ExpectSuccess(t, dskA.Add("alpha", &a))
	test.ExpectSuccess(t, dskB.Add("beta", &b))

	test.ExpectSuccess(t, a.Set(1))
	test.ExpectSuccess(t, dskA.Save())
	test.ExpectSuccess(t, b.Set(true))
	test.ExpectSuccess(t, dskB.Save())

	cmpPrefFile(t, fn, "alpha :: 1\nbeta :: true\n")

	// loading into fresh values
	var c prefs.Int
	dskC, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, dskC.Add("alpha", &c))
	test.ExpectSuccess(t, dskC.Load())
	test.ExpectEquality(t, c.Get().(int), 1)
}

func TestMissingFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var v prefs.Int
	test.ExpectSuccess(t, v.Set(7))
	test.ExpectSuccess(t, dsk.Add("number", &v))

	err = dsk.Load()
	test.ExpectEquality(t, errors.Is(err, prefs.NoPrefsFile), true)
	test.ExpectEquality(t, v.Get().(int), 7)
}

func TestIllegalKey(t *testing.T) {
	dsk, err := prefs.NewDisk(filepath.Join(t.TempDir(), "prefs"))
	test.DemandSuccess(t, err)

	var v prefs.Int
	test.ExpectFailure(t, dsk.Add("bad key", &v))
	test.ExpectFailure(t, dsk.Add("bad::key", &v))
	test.ExpectFailure(t, dsk.Add("", &v))
}

func TestDefunctKeys(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "prefs")
	content := fmt.Sprintf("%s\ntiming.maxSliceLength :: 100\nnumber :: 3\n", prefs.WarningBoilerPlate)
	test.DemandSuccess(t, os.WriteFile(fn, []byte(content), 0o600))

	dsk, err := prefs.NewDisk(fn)
	test.DemandSuccess(t, err)

	var v prefs.Int
	test.ExpectSuccess(t, dsk.Add("number", &v))
	test.ExpectSuccess(t, dsk.Load())
	test.ExpectSuccess(t, dsk.Save())

	cmpPrefFile(t, fn, "number :: 3\n")
}
