// Package sound turns episode events into short sine tones.
//
// The tones are mixed with beep. Speaker output needs cgo and, on Linux, the
// ALSA headers, so it is only compiled in with the sound build tag; other
// builds get a New that fails with ErrUnavailable.
package sound

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"

	"github.com/baldhumanity/flappy-neat/flappy"
)

const sampleRate = beep.SampleRate(44100)

type tone struct {
	freq     float64
	duration time.Duration
}

var (
	flapTone   = tone{freq: 660, duration: 30 * time.Millisecond}
	scoreTone  = tone{freq: 880, duration: 80 * time.Millisecond}
	retireTone = tone{freq: 220, duration: 60 * time.Millisecond}
)

// Sound plays short sine tones for gameplay events. With a whole population
// flapping at once, tones of the same kind are spaced by at least MinGap.
type Sound struct {
	MinGap time.Duration

	log   *slog.Logger
	mu    sync.Mutex
	last  map[tone]time.Time
	now   func() time.Time
	play  func(beep.Streamer)
	close func()
}

func newSound(play func(beep.Streamer), log *slog.Logger) *Sound {
	if log == nil {
		log = slog.Default()
	}
	return &Sound{
		MinGap: 50 * time.Millisecond,
		log:    log,
		last:   make(map[tone]time.Time),
		now:    time.Now,
		play:   play,
	}
}

func (s *Sound) emit(t tone) {
	s.mu.Lock()
	now := s.now()
	if last, ok := s.last[t]; ok && now.Sub(last) < s.MinGap {
		s.mu.Unlock()
		return
	}
	s.last[t] = now
	s.mu.Unlock()

	sine, err := generators.SineTone(sampleRate, t.freq)
	if err != nil {
		s.log.Warn("failed to generate tone", "freq", t.freq, "error", err)
		return
	}
	s.play(beep.Take(sampleRate.N(t.duration), sine))
}

// OnJump implements flappy.Observer.
func (s *Sound) OnJump(int) { s.emit(flapTone) }

// OnScore implements flappy.Observer.
func (s *Sound) OnScore(int) { s.emit(scoreTone) }

// OnRetire implements flappy.Observer.
func (s *Sound) OnRetire(int, flappy.RetireReason) { s.emit(retireTone) }

// Close stops playback.
func (s *Sound) Close() {
	if s.close != nil {
		s.close()
	}
}
