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

// Package dsp is the audio co-processor. It produces a frame of stereo audio
// every FrameTicks cycles and raises an interrupt on core 0 when the frame is
// ready.
//
// The frame tick is an event on core 0 that re-arms itself, compensating for
// the number of cycles it fired late. When the dspThread preference is set
// the frame is produced by a dedicated goroutine (see Run()) and the
// interrupt is raised through the scheduler's thread-safe path. Otherwise the
// frame is produced inside the event callback.
//
// Audio samples come from a Source. The PCM type is a Source that loops over
// the audio in a WAV or MP3 file. Frames are passed to a Sink, if one has been
// attached. The wavwriter package provides a Sink that writes a WAV file.
package dsp
