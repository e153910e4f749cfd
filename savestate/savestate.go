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

// Package savestate writes and reads the state of a hardware.System as a YAML
// document.
//
// The document records the number of cores alongside the state so that a
// mismatch can be reported before any attempt is made to plumb the state into
// a system.
package savestate

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jetsetilly/lockstep/curated"
	"github.com/jetsetilly/lockstep/hardware"
)

// Version is written to every file. Files with a different version cannot be
// loaded.
const Version = "lockstep state v1"

// Sentinel error patterns.
const (
	WrongVersion = "savestate: wrong version (%s)"
	NoState      = "savestate: file contains no state"
)

type document struct {
	Version string          `yaml:"version"`
	Cores   int             `yaml:"cores"`
	State   *hardware.State `yaml:"state"`
}

// Save the state to the named file.
func Save(filename string, st *hardware.State) error {
	if st == nil {
		return curated.Errorf(NoState)
	}

	data, err := yaml.Marshal(document{
		Version: Version,
		Cores:   len(st.Cores),
		State:   st,
	})
	if err != nil {
		return curated.Errorf("savestate: %v", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return curated.Errorf("savestate: %v", err)
	}

	return nil
}

// Load the state from the named file.
func Load(filename string) (*hardware.State, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, curated.Errorf("savestate: %v", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, curated.Errorf("savestate: %v", err)
	}

	if doc.Version != Version {
		return nil, curated.Errorf(WrongVersion, doc.Version)
	}
	if doc.State == nil || doc.State.Timing == nil {
		return nil, curated.Errorf(NoState)
	}
	if doc.Cores != len(doc.State.Cores) {
		return nil, curated.Errorf("savestate: file claims %d cores but has state for %d", doc.Cores, len(doc.State.Cores))
	}

	return doc.State, nil
}
