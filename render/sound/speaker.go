//go:build sound

package sound

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Available reports whether speaker output was compiled in.
const Available = true

// New opens the speaker. It may only be called once per process.
func New(log *slog.Logger) (*Sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to initialise speaker: %w", err)
	}
	mixer := &beep.Mixer{}
	s := newSound(func(st beep.Streamer) {
		speaker.Lock()
		mixer.Add(st)
		speaker.Unlock()
	}, log)
	s.close = speaker.Clear
	speaker.Play(mixer)
	return s, nil
}
