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

// Package modalflag is a wrapper for the flag package in the Go standard
// library. It handles program modes, each with its own set of flags.
//
// The arguments are given to NewArgs() and then parsed with Parse(). Before
// each call to Parse() the flags and sub-modes of the current mode are added.
// For example, the lockstep command has a RUN and a STEP mode, with RUN being
// the default:
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "STEP")
//
//	switch p, err := md.Parse(); p {
//	case modalflag.ParseHelp:
//		return nil
//	case modalflag.ParseError:
//		return err
//	}
//
//	switch md.Mode() {
//	case "RUN":
//		md.NewMode()
//		iterations := md.AddInt("iterations", 1000, "number of driver iterations")
//		...
//	}
//
// Sub-mode comparisons are case insensitive. If the first argument after the
// flags is not a sub-mode then the default sub-mode is selected and the
// argument is left for RemainingArgs().
//
// Modes can be nested to any depth. The Path() function returns every mode
// selected so far, separated by a slash.
package modalflag
