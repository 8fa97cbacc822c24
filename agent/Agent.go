// Package agent defines an agent interface
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mlexamples/gymrl/network"
	"github.com/mlexamples/gymrl/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action led to some timestep
	Observe(action mat.Vector, nextStep timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. Agents usually have a
// behaviour policy used during training and a deterministic policy
// used during evaluation; Eval and Train toggle between the two.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// NNPolicy represents a policy that uses neural network function
// approximation.
//
// An NNPolicy populates a computational graph but does not own a VM.
// An external VM must run the policy's graph before SelectAction is
// called; the same VM is shared between the policy and the Learner so
// that weight updates are reflected in the actions the policy chooses.
type NNPolicy interface {
	// Network returns the neural network function approximator that
	// the policy uses
	Network() network.NeuralNet

	// ClonePolicy clones the policy onto a new computational graph
	ClonePolicy() (NNPolicy, error)

	// ClonePolicyWithBatch clones the policy onto a new computational
	// graph with a new input batch size
	ClonePolicyWithBatch(int) (NNPolicy, error)

	// SelectAction returns an action based on the data generated by
	// the last run of the policy's computational graph, along with
	// the approximated value of that action
	SelectAction() (*mat.VecDense, float64)
}

// EGreedyNNPolicy implements an epsilon greedy policy using neural
// network function approximation. Any neural network can be used to
// approximate the policy as long as the epsilon value for the epsilon
// greedy policy can be set and retrieved.
type EGreedyNNPolicy interface {
	NNPolicy
	SetEpsilon(float64)
	Epsilon() float64

	// Anneal decays epsilon one step along the policy's annealing
	// schedule, never below the schedule's minimum
	Anneal()
}
