package ddpg

import (
	"fmt"

	"github.com/mlexamples/gymrl/expreplay"
	"github.com/mlexamples/gymrl/initwfn"
	"github.com/mlexamples/gymrl/network"
	"github.com/mlexamples/gymrl/solver"
)

// Config implements a configuration for a DDPG agent
type Config struct {
	// Actor network. A final layer with a TanH activation and one
	// output per action dimension is always added.
	ActorLayers      []int
	ActorBiases      []bool
	ActorActivations []*network.Activation
	ActorSolver      *solver.Solver

	// Critic network. A final linear layer with a single output is
	// always added.
	CriticLayers      []int
	CriticBiases      []bool
	CriticActivations []*network.Activation
	CriticSolver      *solver.Solver

	// Initialization algorithm for weights of both networks
	InitWFn *initwfn.InitWFn

	// Experience replay parameters
	ExpReplay expreplay.Config

	// Target net updates
	Tau                float64 // Polyak averaging constant
	TargetSyncInterval int     // Gradient steps between target updates

	// UpdateInterval is the number of environment steps between
	// gradient updates
	UpdateInterval int

	// Ornstein-Uhlenbeck exploration noise parameters
	NoiseMu    float64
	NoiseTheta float64
	NoiseSigma float64
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.SampleSize
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDPG agent.
func (c Config) Validate() error {
	if len(c.ActorLayers) != len(c.ActorBiases) {
		return fmt.Errorf("ddpg: invalid number of actor biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorBiases))
	}

	if len(c.ActorLayers) != len(c.ActorActivations) {
		return fmt.Errorf("ddpg: invalid number of actor activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorActivations))
	}

	if len(c.CriticLayers) != len(c.CriticBiases) {
		return fmt.Errorf("ddpg: invalid number of critic biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticBiases))
	}

	if len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("ddpg: invalid number of critic activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticActivations))
	}

	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("ddpg: tau must be in (0, 1] \n\thave(%v)",
			c.Tau)
	}

	if c.TargetSyncInterval < 1 {
		return fmt.Errorf("ddpg: target networks must be updated at "+
			"positive gradient step intervals \n\twant(>0) \n\thave(%v)",
			c.TargetSyncInterval)
	}

	if c.UpdateInterval < 1 {
		return fmt.Errorf("ddpg: gradient updates must happen at "+
			"positive environment step intervals \n\twant(>0) "+
			"\n\thave(%v)", c.UpdateInterval)
	}

	if c.NoiseSigma < 0 {
		return fmt.Errorf("ddpg: noise sigma must be non-negative "+
			"\n\thave(%v)", c.NoiseSigma)
	}

	if c.ActorSolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("ddpg: both actor and critic solvers must be " +
			"provided")
	}

	if c.InitWFn == nil {
		return fmt.Errorf("ddpg: no weight initializer provided")
	}

	return nil
}
