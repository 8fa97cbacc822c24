// Package wrappers provides environment wrappers that modify the
// actions, observations, or rewards of the environments they wrap
package wrappers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/mlexamples/gymrl/environment"
	ts "github.com/mlexamples/gymrl/timestep"
)

// ActionScale wraps an environment and multiplies every action by a
// constant factor before passing it on. The action specification of
// the wrapped environment is reported unchanged, so agents keep
// producing actions in their own range while the environment receives
// the scaled values.
type ActionScale struct {
	env.Environment
	scale float64
}

// NewActionScale wraps an environment so that actions are scaled by
// the given factor
func NewActionScale(e env.Environment, scale float64) *ActionScale {
	return &ActionScale{Environment: e, scale: scale}
}

// Step scales the action and takes a single environmental step
func (a *ActionScale) Step(action *mat.VecDense) (ts.TimeStep, bool,
	error) {
	scaled := mat.NewVecDense(action.Len(), nil)
	scaled.ScaleVec(a.scale, action)

	return a.Environment.Step(scaled)
}

// Render renders the wrapped environment if it supports rendering
func (a *ActionScale) Render() error {
	if r, ok := a.Environment.(env.Renderer); ok {
		return r.Render()
	}
	return fmt.Errorf("render: wrapped environment does not support " +
		"rendering")
}
