// Package policy implements policies using neural network function
// approximation with Gorgonia
package policy

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/mlexamples/gymrl/agent"
	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/network"
	"github.com/mlexamples/gymrl/utils/floatutils"
)

// MultiHeadEGreedyMLP implements an epsilon greedy policy using a
// feedforward neural network/MLP. Given an environment with N actions,
// the neural network will produce N outputs, each predicting the
// value of a distinct action.
//
// MultiHeadEGreedyMLP simply populates a gorgonia.ExprGraph with
// the neural network function approximator and selects actions
// based on the output of this neural network. The struct does not
// have a VM of its own. An external VM should be used to run the
// computational graph of the policy, and should always be run before
// selecting an action with the policy:
//
//	Set up VM with policy's graph:	vm = NewTapeMachine(p.Network().Graph())
//	Set input to policy's network:	p.Network().SetInput(obs)
//	Predict the action values:	vm.RunAll()
//	Select an action:		action, _ = p.SelectAction()
//
// The policy optionally anneals epsilon linearly from its initial
// value down to a minimum over a fixed number of Anneal calls.
type MultiHeadEGreedyMLP struct {
	network.NeuralNet
	epsilon    float64
	minEpsilon float64
	decrement  float64

	rng  *rand.Rand
	seed int64
}

// NewMultiHeadEGreedyMLP creates and returns a new MultiHeadEGreedyMLP.
// The hiddenSizes parameter defines the number of nodes in each hidden
// layer. The biases parameter outlines which layers should include
// bias units. The activations parameter determines the activation
// function for each layer. The batch parameter determines the number
// of inputs in a batch.
//
// Note that this constructor will always add an additional final
// linear layer (with a bias unit and no activation) such that the
// number of network outputs equals the number of actions in the
// environment.
func NewMultiHeadEGreedyMLP(epsilon float64, e env.Environment,
	batch int, g *G.ExprGraph, hiddenSizes []int, biases []bool,
	init G.InitWFn, activations []*network.Activation,
	seed int64) (*MultiHeadEGreedyMLP, error) {
	// Calculate the number of actions and state features
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	features := e.ObservationSpec().Shape.Len()

	net, err := network.NewMultiHeadMLP(features, batch, numActions, g,
		hiddenSizes, biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy: %v", err)
	}

	// Create RNG for sampling actions
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &MultiHeadEGreedyMLP{
		NeuralNet:  net,
		epsilon:    epsilon,
		minEpsilon: epsilon,
		rng:        rng,
		seed:       seed,
	}, nil
}

// SetAnnealing sets a linear annealing schedule on epsilon: each call
// to Anneal moves epsilon 1/annealSteps of the way from its initial
// value to minEpsilon.
func (e *MultiHeadEGreedyMLP) SetAnnealing(minEpsilon float64,
	annealSteps int) error {
	if minEpsilon > e.epsilon {
		return fmt.Errorf("setannealing: minimum epsilon (%v) cannot "+
			"exceed current epsilon (%v)", minEpsilon, e.epsilon)
	}
	if annealSteps < 1 {
		return fmt.Errorf("setannealing: annealSteps must be positive")
	}

	e.minEpsilon = minEpsilon
	e.decrement = (e.epsilon - minEpsilon) / float64(annealSteps)
	return nil
}

// Anneal decays epsilon one step along the annealing schedule
func (e *MultiHeadEGreedyMLP) Anneal() {
	e.epsilon = floatutils.Clip(e.epsilon-e.decrement, e.minEpsilon,
		e.epsilon)
}

// Network returns the neural network function approximator that the
// policy uses.
func (e *MultiHeadEGreedyMLP) Network() network.NeuralNet {
	return e.NeuralNet
}

// ClonePolicy clones a MultiHeadEGreedyMLP
func (e *MultiHeadEGreedyMLP) ClonePolicy() (agent.NNPolicy, error) {
	return e.ClonePolicyWithBatch(e.BatchSize())
}

// ClonePolicyWithBatch clones a MultiHeadEGreedyMLP with a new input
// batch size.
func (e *MultiHeadEGreedyMLP) ClonePolicyWithBatch(
	batchSize int) (agent.NNPolicy, error) {
	net, err := e.NeuralNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("clonepolicywithbatch: could not clone "+
			"policy: %v", err)
	}

	// Create RNG for sampling actions
	source := rand.NewSource(e.seed)
	rng := rand.New(source)

	return &MultiHeadEGreedyMLP{
		NeuralNet:  net,
		epsilon:    e.epsilon,
		minEpsilon: e.minEpsilon,
		decrement:  e.decrement,
		rng:        rng,
		seed:       e.seed,
	}, nil
}

// SetEpsilon sets the value for epsilon in the epsilon greedy policy.
func (e *MultiHeadEGreedyMLP) SetEpsilon(epsilon float64) {
	e.epsilon = epsilon
	if e.minEpsilon > epsilon {
		e.minEpsilon = epsilon
	}
}

// Epsilon gets the value of epsilon for the policy.
func (e *MultiHeadEGreedyMLP) Epsilon() float64 {
	return e.epsilon
}

// SelectAction selects an action according to the action values
// generated from the last run of the computational graph. This
// function returns the action selected as well as the approximated
// value of that action.
func (e *MultiHeadEGreedyMLP) SelectAction() (*mat.VecDense, float64) {
	if e.Output() == nil {
		panic("selectaction: vm must be run before selecting an action")
	}

	// Get the action values from the last run of the computational
	// graph
	actionValues := e.Output()[0].Data().([]float64)

	// With probability epsilon return a random action
	if probability := e.rng.Float64(); probability < e.epsilon {
		action := e.rng.Intn(e.numActions())
		return mat.NewVecDense(1, []float64{float64(action)}),
			actionValues[action]
	}

	// Get the actions of maximum value
	_, maxIndices := floatutils.MaxSlice(actionValues)

	// If multiple actions have max value, return a random max-valued
	// action
	action := maxIndices[e.rng.Intn(len(maxIndices))]
	return mat.NewVecDense(1, []float64{float64(action)}),
		actionValues[action]
}

// numActions returns the number of actions that the policy chooses
// between.
func (e *MultiHeadEGreedyMLP) numActions() int {
	return e.Outputs()
}
