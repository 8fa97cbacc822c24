// Package gym provides access to remote OpenAI Gym environments
// served over a TCP bridge.
//
// The bridge exposes the full Gym suite; any environment name the
// remote side can construct is legal here. Environments are driven
// one synchronous request/response exchange per step.
package gym

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/gymclient"
	ts "github.com/mlexamples/gymrl/timestep"
)

// Env implements access to a single environment instance on a remote
// bridge
type Env struct {
	client *gymclient.Client

	currentStep ts.TimeStep
	discount    float64
	render      bool

	observations gymclient.Space
	actions      gymclient.Space
}

// New connects to the bridge at host:port, constructs the named
// environment on it, and returns the environment along with the first
// timestep of the first episode.
func New(host, port, name string, discount float64) (*Env, ts.TimeStep,
	error) {
	client, err := gymclient.Dial(host, port)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	return NewFromClient(client, name, discount)
}

// NewFromClient constructs the named environment on an existing
// bridge connection
func NewFromClient(client *gymclient.Client, name string,
	discount float64) (*Env, ts.TimeStep, error) {
	if err := client.Make(name); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment: %v", err)
	}

	observations, err := client.ObservationSpace()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	actions, err := client.ActionSpace()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	gymEnv := &Env{
		client:       client,
		discount:     discount,
		observations: observations,
		actions:      actions,
	}

	step, err := gymEnv.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, err
	}

	return gymEnv, step, nil
}

// Reset resets the environment to some starting state
func (g *Env) Reset() (ts.TimeStep, error) {
	obs, err := g.client.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, mat.NewVecDense(len(obs), obs), 0)
	g.currentStep = t

	return t, nil
}

// Step takes a single environmental step
func (g *Env) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	result, err := g.client.Step(a.RawVector().Data, g.render)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"environment: %v", err)
	}

	obs := mat.NewVecDense(len(result.Observation), result.Observation)
	t := ts.New(ts.Mid, result.Reward, g.discount, obs,
		g.currentStep.Number+1)
	if result.Done {
		// Terminal timesteps carry no discount so that TD targets do
		// not bootstrap through the end of an episode
		t.StepType = ts.Last
		t.Discount = 0.0
	}
	g.currentStep = t

	return t, result.Done, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *Env) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// Render asks the bridge to render the current frame and enables
// rendering for all subsequent steps
func (g *Env) Render() error {
	if err := g.client.Render(); err != nil {
		return fmt.Errorf("render: %v", err)
	}
	g.render = true
	return nil
}

// StartMonitor records episode videos under the given directory on
// the bridge host
func (g *Env) StartMonitor(directory string) error {
	if err := g.client.MonitorStart(directory, true, true); err != nil {
		return fmt.Errorf("startmonitor: %v", err)
	}
	return nil
}

// URL returns the HTTP address on which the bridge serves recorded
// episodes
func (g *Env) URL() (string, error) {
	return g.client.URL()
}

// ObservationSpec returns the observation specification of the
// environment
func (g *Env) ObservationSpec() env.Spec {
	low := mat.NewVecDense(g.observations.Len(), g.observations.Low)
	high := mat.NewVecDense(g.observations.Len(), g.observations.High)
	shape := mat.NewVecDense(g.observations.Len(), nil)

	return env.NewSpec(shape, env.Observation, low, high, env.Continuous)
}

// ActionSpec returns the action specification of the environment
func (g *Env) ActionSpec() env.Spec {
	if g.actions.Discrete() {
		shape := mat.NewVecDense(1, nil)
		low := mat.NewVecDense(1, []float64{0})
		high := mat.NewVecDense(1, []float64{float64(g.actions.N - 1)})

		return env.NewSpec(shape, env.Action, low, high, env.Discrete)
	}

	low := mat.NewVecDense(g.actions.Len(), g.actions.Low)
	high := mat.NewVecDense(g.actions.Len(), g.actions.High)
	shape := mat.NewVecDense(g.actions.Len(), nil)

	return env.NewSpec(shape, env.Action, low, high, env.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (g *Env) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	discount := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, discount, discount,
		env.Continuous)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *Env) Close() error {
	return g.client.Close()
}
