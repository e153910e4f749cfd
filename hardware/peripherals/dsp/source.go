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

package dsp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/jetsetilly/lockstep/environment"
	"github.com/jetsetilly/lockstep/logger"
)

// Source provides audio samples to the DSP.
type Source interface {
	// fill the frame with interleaved stereo samples
	Read(frame []int16)
}

// PCM is a Source that loops over decoded audio data.
type PCM struct {
	// interleaved stereo samples
	data []int16
	pos  int

	// the sample rate of the decoded audio. the data is not resampled
	SampleRate int
}

// NewPCM creates a PCM source from interleaved stereo samples.
func NewPCM(data []int16, sampleRate int) *PCM {
	return &PCM{
		data:       data,
		SampleRate: sampleRate,
	}
}

// Read implements the Source interface.
func (p *PCM) Read(frame []int16) {
	if len(p.data) == 0 {
		clear(frame)
		return
	}
	for i := range frame {
		frame[i] = p.data[p.pos]
		p.pos++
		if p.pos >= len(p.data) {
			p.pos = 0
		}
	}
}

// Len returns the number of stereo samples in the source.
func (p *PCM) Len() int {
	return len(p.data) / Channels
}

// LoadPCM decodes a WAV or MP3 file. The file type is decided by the file
// extension.
func LoadPCM(env *environment.Environment, filename string) (*PCM, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("dsp: %w", err)
	}
	defer f.Close()

	var p *PCM

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		p, err = decodeWAV(f)
	case ".mp3":
		p, err = decodeMP3(f)
	default:
		err = fmt.Errorf("unsupported file type (%s)", filepath.Ext(filename))
	}
	if err != nil {
		return nil, fmt.Errorf("dsp: %w", err)
	}

	logger.Logf(env, logTag, "loaded %s: %d samples at %dHz", filepath.Base(filename), p.Len(), p.SampleRate)

	return p, nil
}

func decodeWAV(r io.ReadSeeker) (*PCM, error) {
	dec := wav.NewDecoder(r)
	if dec == nil {
		return nil, errors.New("wav: error decoding")
	}
	if !dec.IsValidFile() {
		return nil, errors.New("wav: not a valid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}

	chans := int(dec.NumChans)
	if chans < 1 {
		return nil, errors.New("wav: no channels")
	}

	// convert to 16 bit samples
	depth := int(dec.BitDepth)
	to16 := func(v int) int16 {
		switch {
		case depth == 8:
			return int16((v - 128) << 8)
		case depth > 16:
			return int16(v >> (depth - 16))
		}
		return int16(v)
	}

	// take the first two channels. mono files are duplicated into both
	// channels
	data := make([]int16, 0, len(buf.Data)/chans*Channels)
	for i := 0; i+chans <= len(buf.Data); i += chans {
		l := to16(buf.Data[i])
		r := l
		if chans > 1 {
			r = to16(buf.Data[i+1])
		}
		data = append(data, l, r)
	}

	return NewPCM(data, int(dec.SampleRate)), nil
}

func decodeMP3(r io.Reader) (*PCM, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	// the stream is always 16 bit little endian stereo
	var data []int16
	chunk := make([]byte, 4096)
	for {
		n, err := dec.Read(chunk)
		for i := 0; i+1 < n; i += 2 {
			data = append(data, int16(uint16(chunk[i])|uint16(chunk[i+1])<<8))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mp3: %w", err)
		}
	}

	return NewPCM(data, dec.SampleRate()), nil
}

// Tone is a Source that produces a sine wave in both channels.
type Tone struct {
	step  float64
	phase float64
	amp   float64
}

// NewTone creates a Tone source of the frequency in Hz at the DSP sample rate.
func NewTone(freq float64) *Tone {
	return &Tone{
		step: 2 * math.Pi * freq / SampleRate,
		amp:  math.MaxInt16 / 4,
	}
}

// Read implements the Source interface.
func (t *Tone) Read(frame []int16) {
	for i := 0; i+1 < len(frame); i += Channels {
		v := int16(t.amp * math.Sin(t.phase))
		frame[i] = v
		frame[i+1] = v
		t.phase += t.step
		if t.phase > 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
}
