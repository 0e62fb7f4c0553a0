//go:build !sound

package sound

import (
	"errors"
	"log/slog"
)

// ErrUnavailable is returned by New in builds without the sound tag.
var ErrUnavailable = errors.New("speaker output not compiled in, rebuild with -tags sound")

// Available reports whether speaker output was compiled in.
const Available = false

// New always fails with ErrUnavailable.
func New(*slog.Logger) (*Sound, error) { return nil, ErrUnavailable }
