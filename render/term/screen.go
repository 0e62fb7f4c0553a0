// Package term draws the game in a terminal with tcell and reads the jump and
// stop keys.
package term

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/baldhumanity/flappy-neat/flappy"
)

const (
	pipeRune   = '█'
	groundRune = '='
	groundAlt  = '-'
)

// birdRunes is indexed by BirdView.WingFrame.
var birdRunes = [3]rune{'^', '>', 'v'}

var (
	pipeStyle   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	birdStyle   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	groundStyle = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
)

// Projection maps world pixels onto terminal cells.
type Projection struct {
	Cols, Rows    int
	Width, Height int
}

// NewProjection scales a world of the given window size onto cols x rows cells.
func NewProjection(cols, rows int, w flappy.WindowConfig) Projection {
	return Projection{Cols: cols, Rows: rows, Width: w.Width, Height: w.Height}
}

// Col returns the cell column holding world x.
func (p Projection) Col(x float64) int {
	return int(math.Floor(x * float64(p.Cols) / float64(p.Width)))
}

// Row returns the cell row holding world y.
func (p Projection) Row(y float64) int {
	return int(math.Floor(y * float64(p.Rows) / float64(p.Height)))
}

// Columns returns the half-open column range covering world [x, x+w),
// clipped to the screen. The range is empty when nothing is visible.
func (p Projection) Columns(x, w float64) (from, to int) {
	from, to = p.Col(x), p.Col(x+w)
	if to == from {
		to++
	}
	return max(from, 0), min(to, p.Cols)
}

// RowRange returns the half-open row range covering world [top, bottom),
// clipped to the screen.
func (p Projection) RowRange(top, bottom float64) (from, to int) {
	return max(p.Row(top), 0), min(p.Row(bottom), p.Rows)
}

// Screen renders frames to a tcell screen. Esc, Ctrl-C or q make the next
// Render return flappy.ErrStop; space and the up arrow press the latch.
type Screen struct {
	screen tcell.Screen
	latch  *flappy.Latch

	stopped atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// New initialises the terminal and starts polling keys. latch may be nil
// when no bird is flown by hand.
func New(latch *flappy.Latch) (*Screen, error) {
	ts, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal screen: %w", err)
	}
	if err := ts.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise terminal screen: %w", err)
	}
	s := newScreen(ts, latch)
	s.done = make(chan struct{})
	go s.poll()
	return s, nil
}

func newScreen(ts tcell.Screen, latch *flappy.Latch) *Screen {
	return &Screen{screen: ts, latch: latch}
}

func (s *Screen) poll() {
	defer close(s.done)
	for {
		switch ev := s.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventKey:
			s.handleKey(ev.Key(), ev.Rune())
		case *tcell.EventResize:
			s.screen.Sync()
		}
	}
}

func (s *Screen) handleKey(key tcell.Key, r rune) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		s.stopped.Store(true)
	case tcell.KeyUp:
		s.press()
	case tcell.KeyRune:
		switch r {
		case ' ':
			s.press()
		case 'q':
			s.stopped.Store(true)
		}
	}
}

func (s *Screen) press() {
	if s.latch != nil {
		s.latch.Press()
	}
}

// Stopped reports whether the user asked to quit.
func (s *Screen) Stopped() bool { return s.stopped.Load() }

// Render implements flappy.Renderer.
func (s *Screen) Render(f flappy.Frame) error {
	if s.stopped.Load() {
		return flappy.ErrStop
	}
	cols, rows := s.screen.Size()
	p := NewProjection(cols, rows, f.Config.Window)

	s.screen.Clear()
	for _, pv := range f.Pipes {
		s.drawPipe(p, pv, float64(f.Config.Pipe.Width), f.Config.Base.Y)
	}
	s.drawGround(p, f)
	for _, b := range f.Birds {
		s.drawBird(p, b)
	}
	s.drawText(0, 0, fmt.Sprintf("gen %d  score %d  alive %d", f.Generation, f.Score, f.Alive), statusStyle)
	s.screen.Show()
	return nil
}

func (s *Screen) drawPipe(p Projection, pv flappy.PipeView, width, ground float64) {
	c0, c1 := p.Columns(pv.X, width)
	top0, top1 := p.RowRange(0, pv.GapTop)
	bot0, bot1 := p.RowRange(pv.GapBottom, ground)
	for c := c0; c < c1; c++ {
		for r := top0; r < top1; r++ {
			s.screen.SetContent(c, r, pipeRune, nil, pipeStyle)
		}
		for r := bot0; r < bot1; r++ {
			s.screen.SetContent(c, r, pipeRune, nil, pipeStyle)
		}
	}
}

// drawGround fills everything below the base line with a pattern that
// scrolls with the first base tile.
func (s *Screen) drawGround(p Projection, f flappy.Frame) {
	r0, r1 := p.RowRange(f.Config.Base.Y, float64(f.Config.Window.Height))
	cell := float64(p.Width) / float64(p.Cols)
	for c := 0; c < p.Cols; c++ {
		x := float64(c)*cell - f.BaseX1
		ch := groundRune
		if int(math.Floor(x/24))%2 != 0 {
			ch = groundAlt
		}
		for r := r0; r < r1; r++ {
			s.screen.SetContent(c, r, ch, nil, groundStyle)
		}
	}
}

func (s *Screen) drawBird(p Projection, b flappy.BirdView) {
	c, r := p.Col(b.X), p.Row(b.Y)
	if c < 0 || c >= p.Cols || r < 0 || r >= p.Rows {
		return
	}
	frame := b.WingFrame
	if frame < 0 || frame >= len(birdRunes) {
		frame = 1
	}
	s.screen.SetContent(c, r, birdRunes[frame], nil, birdStyle)
}

func (s *Screen) drawText(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// Close restores the terminal.
func (s *Screen) Close() {
	s.once.Do(func() {
		s.screen.Fini()
		if s.done != nil {
			<-s.done
		}
	})
}
