package sound

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"

	"github.com/baldhumanity/flappy-neat/flappy"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSoundSpacesRepeatedTones(t *testing.T) {
	var played []beep.Streamer
	s := newSound(func(st beep.Streamer) { played = append(played, st) }, discard())
	now := time.Unix(0, 0)
	s.now = func() time.Time { return now }

	s.OnJump(1)
	s.OnJump(2)
	assert.Len(t, played, 1, "second flap in the same instant is dropped")

	s.OnScore(1)
	s.OnRetire(3, flappy.RetireCollision)
	assert.Len(t, played, 3, "different events are not throttled by each other")

	now = now.Add(s.MinGap)
	s.OnJump(1)
	assert.Len(t, played, 4)
}

func TestSoundToneLength(t *testing.T) {
	var played []beep.Streamer
	s := newSound(func(st beep.Streamer) { played = append(played, st) }, discard())

	s.OnScore(1)
	if assert.Len(t, played, 1) {
		buf := make([][2]float64, 1024)
		total := 0
		for {
			n, ok := played[0].Stream(buf)
			total += n
			if !ok {
				break
			}
		}
		assert.Equal(t, sampleRate.N(scoreTone.duration), total)
	}
}

func TestSoundLogsBadTone(t *testing.T) {
	var logs bytes.Buffer
	var played []beep.Streamer
	s := newSound(func(st beep.Streamer) { played = append(played, st) }, slog.New(slog.NewTextHandler(&logs, nil)))

	// Above the Nyquist frequency of the sample rate.
	s.emit(tone{freq: 30000, duration: time.Millisecond})
	assert.Empty(t, played)
	assert.Contains(t, logs.String(), "failed to generate tone")
	assert.Contains(t, logs.String(), "freq=30000")
}

func TestSoundCloseWithoutSpeaker(t *testing.T) {
	s := newSound(nil, nil)
	assert.NotPanics(t, s.Close)
}
