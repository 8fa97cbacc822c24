package deepq

import (
	"fmt"

	"github.com/mlexamples/gymrl/expreplay"
	"github.com/mlexamples/gymrl/initwfn"
	"github.com/mlexamples/gymrl/network"
	"github.com/mlexamples/gymrl/solver"
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	PolicyLayers []int                 // Hidden layer sizes in neural net
	Biases       []bool                // Whether each layer should have a bias
	Activations  []*network.Activation // Activation of each layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Epsilon is the initial exploration rate of the behaviour policy.
	// If AnnealSteps > 0, epsilon is annealed linearly from Epsilon to
	// MinEpsilon over AnnealSteps action selections, after which it
	// stays at MinEpsilon.
	Epsilon     float64
	MinEpsilon  float64
	AnnealSteps int

	// Experience replay parameters
	ExpReplay expreplay.Config

	// Target net updates
	Tau                  float64 // Polyak averaging constant
	TargetUpdateInterval int     // Number of gradient steps between updates
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.SampleSize
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("deepq: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}

	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("deepq: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}

	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("deepq: target networks must be updated at "+
			"positive timestep intervals \n\twant(>0) \n\thave(%v)",
			c.TargetUpdateInterval)
	}

	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("deepq: epsilon must be in [0, 1] \n\thave(%v)",
			c.Epsilon)
	}

	if c.AnnealSteps > 0 && c.MinEpsilon > c.Epsilon {
		return fmt.Errorf("deepq: minimum epsilon (%v) cannot exceed "+
			"initial epsilon (%v)", c.MinEpsilon, c.Epsilon)
	}

	if c.Solver == nil {
		return fmt.Errorf("deepq: no solver provided")
	}

	if c.InitWFn == nil {
		return fmt.Errorf("deepq: no weight initializer provided")
	}

	return nil
}
