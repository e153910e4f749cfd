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

// Package preferences contains the preference values for the emulated
// hardware. The values are stored on disk with the prefs package.
package preferences

import (
	"errors"

	"github.com/jetsetilly/lockstep/prefs"
	"github.com/jetsetilly/lockstep/resources"
)

// Preferences defines and collates all the preference values used by the
// hardware.
type Preferences struct {
	Timing *TimingPreferences
}

func (p *Preferences) String() string {
	return p.Timing.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values are loaded from the default preferences file in
// the resources directory.
func NewPreferences() (*Preferences, error) {
	pth, err := resources.JoinPath(prefs.DefaultPrefsFile)
	if err != nil {
		return nil, err
	}
	return NewPreferencesFromFile(pth)
}

// NewPreferencesFromFile is like NewPreferences() but with an explicit path
// to the preferences file. A missing file is not an error.
func NewPreferencesFromFile(pth string) (*Preferences, error) {
	p := &Preferences{}

	var err error
	p.Timing, err = newTimingPreferences(pth)
	if err != nil {
		return nil, err
	}

	err = p.Load()
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *Preferences) SetDefaults() {
	p.Timing.SetDefaults()
}

// Load hardware preferences from disk. A missing preferences file is not
// an error.
func (p *Preferences) Load() error {
	err := p.Timing.Load()
	if err != nil && !errors.Is(err, prefs.NoPrefsFile) {
		return err
	}
	return nil
}

// Save current hardware preferences to disk.
func (p *Preferences) Save() error {
	return p.Timing.Save()
}
