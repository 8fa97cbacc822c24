package policy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/mlexamples/gymrl/agent"
	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/network"
	"github.com/mlexamples/gymrl/utils/floatutils"
)

// DeterministicActorMLP implements a deterministic policy over
// continuous actions using a feedforward neural network/MLP. The
// network ends in a TanH head, so raw network outputs lie in [-1, 1];
// SelectAction then clips actions to the environment's action bounds.
//
// Like MultiHeadEGreedyMLP, the struct does not have a VM of its own,
// and an external VM must run the policy's computational graph before
// an action is selected. Exploration noise, if any, is the
// responsibility of the agent using the policy.
type DeterministicActorMLP struct {
	network.NeuralNet
	actionDims int
	lowerBound mat.Vector
	upperBound mat.Vector

	// Data needed for cloning
	environment env.Environment
	prefix      string
	suffix      string
}

// NewDeterministicActorMLP creates and returns a new
// DeterministicActorMLP. The hiddenSizes, biases, and activations
// parameters describe the hidden layers of the network. A final layer
// with a bias unit and TanH activation is always added, with one
// output per action dimension of the environment.
//
// Node names in the graph g are decorated with prefix and suffix so
// that an actor can share a graph with other networks.
func NewDeterministicActorMLP(e env.Environment, batch int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*network.Activation, prefix,
	suffix string) (*DeterministicActorMLP, error) {
	actionSpec := e.ActionSpec()
	if actionSpec.Cardinality != env.Continuous {
		return nil, fmt.Errorf("newdeterministicactormlp: actions must " +
			"be continuous")
	}
	actionDims := actionSpec.Shape.Len()
	features := e.ObservationSpec().Shape.Len()

	// Add the TanH output head
	hiddenSizes = append(append([]int{}, hiddenSizes...), actionDims)
	biases = append(append([]bool{}, biases...), true)
	activations = append(append([]*network.Activation{}, activations...),
		network.TanH())

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName(fmt.Sprintf("%vinput%v", prefix, suffix)),
		G.WithInit(G.Zeroes()))

	net, err := network.NewMultiHeadMLPFromInputs([]*G.Node{input},
		actionDims, g, hiddenSizes, biases, init, activations, prefix,
		suffix, false)
	if err != nil {
		return nil, fmt.Errorf("newdeterministicactormlp: could not "+
			"create policy network: %v", err)
	}

	return &DeterministicActorMLP{
		NeuralNet:   net,
		actionDims:  actionDims,
		lowerBound:  actionSpec.LowerBound,
		upperBound:  actionSpec.UpperBound,
		environment: e,
		prefix:      prefix,
		suffix:      suffix,
	}, nil
}

// Network returns the neural network function approximator that the
// policy uses.
func (d *DeterministicActorMLP) Network() network.NeuralNet {
	return d.NeuralNet
}

// ClonePolicy clones a DeterministicActorMLP
func (d *DeterministicActorMLP) ClonePolicy() (agent.NNPolicy, error) {
	return d.ClonePolicyWithBatch(d.BatchSize())
}

// ClonePolicyWithBatch clones a DeterministicActorMLP with a new input
// batch size.
func (d *DeterministicActorMLP) ClonePolicyWithBatch(
	batchSize int) (agent.NNPolicy, error) {
	net, err := d.NeuralNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("clonepolicywithbatch: could not clone "+
			"policy: %v", err)
	}

	return &DeterministicActorMLP{
		NeuralNet:   net,
		actionDims:  d.actionDims,
		lowerBound:  d.lowerBound,
		upperBound:  d.upperBound,
		environment: d.environment,
		prefix:      d.prefix,
		suffix:      d.suffix,
	}, nil
}

// SelectAction returns the action computed by the last run of the
// policy's computational graph, clipped to the environment's action
// bounds. The second return value is always 0: a deterministic actor
// predicts actions, not action values.
func (d *DeterministicActorMLP) SelectAction() (*mat.VecDense, float64) {
	if d.Output() == nil {
		panic("selectaction: vm must be run before selecting an action")
	}

	raw := d.Output()[0].Data().([]float64)
	action := make([]float64, d.actionDims)
	for i := 0; i < d.actionDims; i++ {
		action[i] = floatutils.Clip(raw[i], d.lowerBound.AtVec(i),
			d.upperBound.AtVec(i))
	}

	return mat.NewVecDense(d.actionDims, action), 0.0
}
