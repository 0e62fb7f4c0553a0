package term

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/flappy-neat/flappy"
)

// fakeScreen records cell writes; every other tcell.Screen method panics.
type fakeScreen struct {
	tcell.Screen
	cols, rows int
	cells      map[[2]int]rune
	shown      int
}

func newFakeScreen(cols, rows int) *fakeScreen {
	return &fakeScreen{cols: cols, rows: rows, cells: make(map[[2]int]rune)}
}

func (f *fakeScreen) Size() (int, int) { return f.cols, f.rows }
func (f *fakeScreen) Clear()           { clear(f.cells) }
func (f *fakeScreen) Show()            { f.shown++ }

func (f *fakeScreen) SetContent(x, y int, r rune, _ []rune, _ tcell.Style) {
	f.cells[[2]int{x, y}] = r
}

func (f *fakeScreen) text(y, from, n int) string {
	out := make([]rune, 0, n)
	for x := from; x < from+n; x++ {
		out = append(out, f.cells[[2]int{x, y}])
	}
	return string(out)
}

func TestProjection(t *testing.T) {
	p := NewProjection(100, 40, flappy.DefaultConfig().Window)

	assert.Equal(t, 46, p.Col(230))
	assert.Equal(t, 17, p.Row(350))
	assert.Equal(t, -2, p.Col(-10))
	assert.Equal(t, 100, p.Col(500))

	from, to := p.Columns(300, 104)
	assert.Equal(t, [2]int{60, 80}, [2]int{from, to})

	from, to = p.Columns(-50, 104)
	assert.Equal(t, [2]int{0, 10}, [2]int{from, to})

	from, to = p.Columns(700, 104)
	assert.GreaterOrEqual(t, from, to, "offscreen pipe covers no columns")

	from, to = p.Columns(10, 1)
	assert.Equal(t, 1, to-from, "a sliver still covers one column")

	from, to = p.RowRange(500, 730)
	assert.Equal(t, [2]int{25, 36}, [2]int{from, to})

	from, to = p.RowRange(-100, 900)
	assert.Equal(t, [2]int{0, 40}, [2]int{from, to})
}

func TestScreenRender(t *testing.T) {
	cfg := flappy.DefaultConfig()
	fs := newFakeScreen(100, 40)
	s := newScreen(fs, nil)

	f := flappy.Frame{
		Config:     cfg,
		Birds:      []flappy.BirdView{{ID: 1, X: 230, Y: 350, WingFrame: 2}},
		Pipes:      []flappy.PipeView{{X: 300, GapTop: 300, GapBottom: 500}},
		BaseX2:     float64(cfg.Base.Width),
		Score:      2,
		Generation: 3,
		Alive:      1,
	}
	require.NoError(t, s.Render(f))
	assert.Equal(t, 1, fs.shown)

	assert.Equal(t, 'v', fs.cells[[2]int{46, 17}])
	assert.Equal(t, pipeRune, fs.cells[[2]int{70, 5}], "top pipe")
	assert.Equal(t, pipeRune, fs.cells[[2]int{70, 30}], "bottom pipe")
	assert.NotContains(t, fs.cells, [2]int{70, 20}, "gap is empty")
	assert.NotContains(t, fs.cells, [2]int{59, 5})
	assert.NotContains(t, fs.cells, [2]int{80, 5})

	assert.Equal(t, groundRune, fs.cells[[2]int{0, 36}])
	assert.Equal(t, groundAlt, fs.cells[[2]int{5, 39}])
	assert.NotContains(t, fs.cells, [2]int{0, 35})

	assert.Equal(t, "gen 3  score 2  alive 1", fs.text(0, 0, 23))
}

func TestScreenRenderClearsPreviousFrame(t *testing.T) {
	cfg := flappy.DefaultConfig()
	fs := newFakeScreen(100, 40)
	s := newScreen(fs, nil)

	require.NoError(t, s.Render(flappy.Frame{Config: cfg, Birds: []flappy.BirdView{{X: 230, Y: 350}}}))
	require.NoError(t, s.Render(flappy.Frame{Config: cfg, Birds: []flappy.BirdView{{X: 230, Y: 500, WingFrame: 7}}}))

	assert.NotContains(t, fs.cells, [2]int{46, 17})
	assert.Equal(t, '>', fs.cells[[2]int{46, 25}], "unknown wing frame falls back to the middle sprite")
}

func TestScreenKeys(t *testing.T) {
	tests := []struct {
		name    string
		key     tcell.Key
		r       rune
		stop    bool
		pressed bool
	}{
		{name: "space", key: tcell.KeyRune, r: ' ', pressed: true},
		{name: "up", key: tcell.KeyUp, pressed: true},
		{name: "q", key: tcell.KeyRune, r: 'q', stop: true},
		{name: "escape", key: tcell.KeyEscape, stop: true},
		{name: "ctrl-c", key: tcell.KeyCtrlC, stop: true},
		{name: "other rune", key: tcell.KeyRune, r: 'x'},
		{name: "enter", key: tcell.KeyEnter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			latch := &flappy.Latch{}
			s := newScreen(newFakeScreen(10, 10), latch)

			s.handleKey(tt.key, tt.r)

			assert.Equal(t, tt.stop, s.Stopped())
			out, err := latch.Decide(flappy.Observation{})
			require.NoError(t, err)
			assert.Equal(t, tt.pressed, out > 0)

			err = s.Render(flappy.Frame{Config: flappy.DefaultConfig()})
			if tt.stop {
				assert.ErrorIs(t, err, flappy.ErrStop)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScreenKeysWithoutLatch(t *testing.T) {
	s := newScreen(newFakeScreen(10, 10), nil)
	assert.NotPanics(t, func() { s.handleKey(tcell.KeyRune, ' ') })
	assert.False(t, s.Stopped())
}
