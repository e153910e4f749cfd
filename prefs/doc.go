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

// Package prefs facilitates the storage of preferential values in the program.
// The Bool, Int, Float and String types are values that can be stored and
// retrieved safely from any goroutine. Each type can have a function attached
// to it that is called just before (SetHookPre()) and just after
// (SetHookPost()) the value changes. For example, the clock speed preference
// uses a post hook to push the new value into the scheduler's timers.
//
// Values are associated with a key and saved to disk with the Disk type.
// Several Disk instances can share the same file. The Save() function merges
// the values belonging to the instance with the values already in the file
// that belong to other instances:
//
//	dsk, _ := prefs.NewDisk(pth)
//	_ = dsk.Add("timing.cores", &p.Cores)
//	_ = dsk.Load()
//
// The file is a plain text file of "key :: value" lines, sorted by key and
// headed by WarningBoilerPlate.
//
// Preferences can also be set from the command line. A string of the form
// "key::value; key::value" is pushed onto the command line stack with
// PushCommandLineStack(). The next call to Disk.Load() consumes any matching
// keys from the top of the stack, overriding the values found in the file.
package prefs
