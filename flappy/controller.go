package flappy

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Observation is what a controller sees each frame.
type Observation struct {
	Y          float64 // bird y
	DistTop    float64 // |y - lead pipe gap top|
	DistBottom float64 // |y - lead pipe gap bottom|
}

// Inputs returns the observation as a network input vector.
func (o Observation) Inputs() []float64 {
	return []float64{o.Y, o.DistTop, o.DistBottom}
}

// Controller turns an observation into a decision scalar. The bird jumps when
// the scalar exceeds the configured threshold.
type Controller interface {
	Decide(obs Observation) (float64, error)
}

// ControllerFunc adapts a function to Controller.
type ControllerFunc func(obs Observation) (float64, error)

// Decide implements Controller.
func (f ControllerFunc) Decide(obs Observation) (float64, error) { return f(obs) }

// Always returns a controller that outputs v forever.
func Always(v float64) Controller {
	return ControllerFunc(func(Observation) (float64, error) { return v, nil })
}

// Activator is the part of a phenotype network the game needs.
type Activator interface {
	Activate(inputs []float64) ([]float64, error)
}

// NetworkController feeds observations to a network and reads its first output.
type NetworkController struct {
	Net Activator
}

// Decide implements Controller.
func (c NetworkController) Decide(obs Observation) (float64, error) {
	out, err := c.Net.Activate(obs.Inputs())
	if err != nil {
		return 0, fmt.Errorf("activating network: %w", err)
	}
	if len(out) == 0 {
		return 0, errors.New("network produced no output")
	}
	return out[0], nil
}

// Latch is a controller driven by an external input source such as a keyboard.
// Press may be called from any goroutine; the next Decide consumes it.
type Latch struct {
	pressed atomic.Bool
}

// Press requests a jump on the next frame.
func (l *Latch) Press() { l.pressed.Store(true) }

// Decide implements Controller.
func (l *Latch) Decide(Observation) (float64, error) {
	if l.pressed.Swap(false) {
		return 1, nil
	}
	return 0, nil
}
