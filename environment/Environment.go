// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mlexamples/gymrl/timestep"
)

// Environment implements a simulated environment. Environments may be
// backed by remote simulators, so every interaction can fail and
// returns an error.
type Environment interface {
	// Reset resets the environment between episodes, returning the
	// first timestep of the new episode
	Reset() (timestep.TimeStep, error)

	// Step takes a single environmental step, returning the resulting
	// timestep and whether the episode has ended
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	// CurrentTimeStep returns the last timestep seen in the environment
	CurrentTimeStep() timestep.TimeStep

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec

	// Close performs resource cleanup once the environment is no
	// longer needed
	Close() error
}

// Renderer is an Environment that can render episodes on the
// simulator for a human to watch
type Renderer interface {
	Environment
	Render() error
}
