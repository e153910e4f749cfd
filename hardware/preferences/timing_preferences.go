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

package preferences

import (
	"fmt"

	"github.com/jetsetilly/lockstep/prefs"
)

// Valid values for the InitTicksType preference.
const (
	InitTicksFixed  = "FIXED"
	InitTicksRandom = "RANDOM"
)

// Limits for the timing preferences.
const (
	MinCores           = 1
	MaxCores           = 8
	MinClockPercentage = 5
	MaxClockPercentage = 400
)

type TimingPreferences struct {
	dsk *prefs.Disk

	// number of general purpose cores driven by the scheduler
	Cores prefs.Int

	// speed of the emulated cores as a percentage of the base clock. a value
	// of 50 means that each cycle counts for two cycles of elapsed time
	ClockPercentage prefs.Int

	// whether the initial tick count of each timer is fixed or random
	InitTicksType prefs.String

	// the initial tick count when InitTicksType is FIXED
	InitTicks prefs.Int

	// the delay in cycles a core must lag behind the leading core before the
	// driver switches to catch-up mode
	CatchUpThreshold prefs.Int

	// run the audio co-processor in its own goroutine
	DSPThread prefs.Bool
}

func (p *TimingPreferences) String() string {
	return p.dsk.String()
}

func newTimingPreferences(pth string) (*TimingPreferences, error) {
	p := &TimingPreferences{}

	p.Cores.SetHookPre(func(v prefs.Value) error {
		if c := v.(int); c < MinCores || c > MaxCores {
			return fmt.Errorf("timing.cores must be between %d and %d", MinCores, MaxCores)
		}
		return nil
	})
	p.ClockPercentage.SetHookPre(func(v prefs.Value) error {
		if c := v.(int); c < MinClockPercentage || c > MaxClockPercentage {
			return fmt.Errorf("timing.clockPercentage must be between %d and %d", MinClockPercentage, MaxClockPercentage)
		}
		return nil
	})
	p.InitTicksType.SetHookPre(func(v prefs.Value) error {
		switch v.(string) {
		case InitTicksFixed, InitTicksRandom:
			return nil
		}
		return fmt.Errorf("timing.initTicksType must be %s or %s", InitTicksFixed, InitTicksRandom)
	})
	p.InitTicks.SetHookPre(func(v prefs.Value) error {
		if v.(int) < 0 {
			return fmt.Errorf("timing.initTicks must not be negative")
		}
		return nil
	})
	p.CatchUpThreshold.SetHookPre(func(v prefs.Value) error {
		if v.(int) < 0 {
			return fmt.Errorf("timing.catchUpThreshold must not be negative")
		}
		return nil
	})

	p.SetDefaults()

	var err error
	p.dsk, err = prefs.NewDisk(pth)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.cores", &p.Cores)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.clockPercentage", &p.ClockPercentage)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.initTicksType", &p.InitTicksType)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.initTicks", &p.InitTicks)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.catchUpThreshold", &p.CatchUpThreshold)
	if err != nil {
		return nil, err
	}
	err = p.dsk.Add("timing.dspThread", &p.DSPThread)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *TimingPreferences) SetDefaults() {
	_ = p.Cores.Set(2)
	_ = p.ClockPercentage.Set(100)
	_ = p.InitTicksType.Set(InitTicksRandom)
	_ = p.InitTicks.Set(0)
	_ = p.CatchUpThreshold.Set(100)
	_ = p.DSPThread.Set(false)
}

// Load timing preferences from disk.
func (p *TimingPreferences) Load() error {
	return p.dsk.Load()
}

// Save current timing preferences to disk.
func (p *TimingPreferences) Save() error {
	return p.dsk.Save()
}
