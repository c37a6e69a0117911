// Package audio is chippy's sound shell. The VM emits one beep event each time its
// sound timer runs down from 1 to 0, and this package plays a short fixed-length tone
// for each event. It synthesizes that tone itself with a square wave streamer rather than depending on a
// bundled audio asset, so it has nothing to load from disk and nothing that can go
// missing at runtime.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	tone       = 220.0 // Hz, a low A
	amplitude  = 0.25
	beepLength = 150 * time.Millisecond
)

// Beeper owns the speaker device and plays a short square-wave tone each time it
// receives a beep event. Safe for one goroutine to drive via Manage.
type Beeper struct {
	mu      sync.Mutex
	playing int
}

// New initializes the speaker device at sampleRate with a low-latency buffer.
func New() (*Beeper, error) {
	bufferSize := sampleRate.N(time.Second / 30)
	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return nil, err
	}
	return &Beeper{}, nil
}

// squareWave streams beepLength worth of a square wave at tone Hz, then reports done.
type squareWave struct {
	phase    float64
	step     float64
	samples  int
	consumed int
}

func newSquareWave() *squareWave {
	return &squareWave{
		step:    2 * math.Pi * tone / float64(sampleRate),
		samples: sampleRate.N(beepLength),
	}
}

func (s *squareWave) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.consumed >= s.samples {
			return i, i > 0
		}
		v := amplitude
		if math.Sin(s.phase) < 0 {
			v = -amplitude
		}
		samples[i][0], samples[i][1] = v, v

		s.phase += s.step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
		s.consumed++
	}
	return len(samples), true
}

func (s *squareWave) Err() error { return nil }

// Beep plays one short tone. Safe to call repeatedly; overlapping calls simply layer
// more tones on the shared speaker mixer.
func (b *Beeper) Beep() {
	b.mu.Lock()
	b.playing++
	b.mu.Unlock()

	speaker.Play(beep.Seq(newSquareWave(), beep.Callback(func() {
		b.mu.Lock()
		b.playing--
		b.mu.Unlock()
	})))
}

// IsPlaying reports whether a tone is currently sounding.
func (b *Beeper) IsPlaying() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing > 0
}

// Manage drains events off beeps, playing a tone for each one, until the channel is
// closed. Intended to run on its own goroutine, reading only VM-independent events so
// it never needs access to machine state.
func (b *Beeper) Manage(beeps <-chan struct{}) {
	for range beeps {
		b.Beep()
	}
}
