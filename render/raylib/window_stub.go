//go:build !raylib

package raylib

import (
	"errors"

	"github.com/baldhumanity/flappy-neat/flappy"
)

// ErrUnavailable is returned by Open in builds without the raylib tag.
var ErrUnavailable = errors.New("windowed rendering not compiled in, rebuild with -tags raylib")

// Available reports whether windowed rendering was compiled in.
const Available = false

// Window is a placeholder in builds without the raylib tag.
type Window struct{}

// Open always fails with ErrUnavailable.
func Open(*flappy.Config, *flappy.Latch) (*Window, error) { return nil, ErrUnavailable }

// Render implements flappy.Renderer.
func (*Window) Render(flappy.Frame) error { return ErrUnavailable }

// Close does nothing.
func (*Window) Close() {}
