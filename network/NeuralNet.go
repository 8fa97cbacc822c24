// Package network implements neural network function approximators
// using Gorgonia
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network which populates a Gorgonia
// computational graph. NeuralNets do not own a VM: an external VM
// should be used to run the computational graph of the network, and
// the same VM can then be shared between a network and the code that
// learns its weights.
type NeuralNet interface {
	// Graph returns the computational graph the network populates
	Graph() *G.ExprGraph

	// Clone clones the network into a new computational graph
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network into a new computational
	// graph, changing the batch size of the network's input
	CloneWithBatch(int) (NeuralNet, error)

	// CloneWithInputsTo clones the network onto an existing graph,
	// reading its input from the given nodes. Multiple input nodes
	// are concatenated along the given axis. This is how critics are
	// wired to read (state, action) pairs or another network's
	// prediction.
	CloneWithInputsTo(axis int, inputs []*G.Node,
		graph *G.ExprGraph) (NeuralNet, error)

	// BatchSize returns the number of inputs the network acts on at
	// a time
	BatchSize() int

	// Features returns the number of features in a single input
	// vector
	Features() int

	// Outputs returns the number of values the network predicts per
	// input
	Outputs() int

	// SetInput sets the value of the network's input node before
	// running the forward pass. SetInput requires the network to own
	// its input node; networks created with CloneWithInputsTo must
	// have their input nodes set externally with gorgonia.Let.
	SetInput([]float64) error

	// Set sets the weights of the network to those of another network
	Set(NeuralNet) error

	// Polyak sets the weights of the network to a polyak average
	// between its current weights and those of another network
	Polyak(NeuralNet, float64) error

	// Learnables returns the nodes of the network whose values are
	// learned
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the value of the network's prediction after the
	// graph has been run
	Output() []G.Value

	// Prediction returns the nodes of the graph that store the
	// network's prediction
	Prediction() []*G.Node
}
