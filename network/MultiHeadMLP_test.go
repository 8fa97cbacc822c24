package network_test

import (
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/mlexamples/gymrl/network"
)

func newTestMLP(t *testing.T, batch int) network.NeuralNet {
	t.Helper()

	g := G.NewGraph()
	net, err := network.NewMultiHeadMLP(4, batch, 3, g, []int{16, 8},
		[]bool{true, true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU(), network.ReLU()})
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}
	return net
}

func TestMultiHeadMLPShape(t *testing.T) {
	net := newTestMLP(t, 1)

	if net.Features() != 4 {
		t.Errorf("features: want 4, have %v", net.Features())
	}
	if net.Outputs() != 3 {
		t.Errorf("outputs: want 3, have %v", net.Outputs())
	}
	if net.BatchSize() != 1 {
		t.Errorf("batch size: want 1, have %v", net.BatchSize())
	}

	// Two hidden layers plus the final linear layer, each with a
	// weight matrix and a bias
	if len(net.Learnables()) != 6 {
		t.Errorf("learnables: want 6, have %v", len(net.Learnables()))
	}
	if len(net.Model()) != len(net.Learnables()) {
		t.Errorf("model size %v does not match learnables %v",
			len(net.Model()), len(net.Learnables()))
	}
}

func TestMultiHeadMLPInvalidConfig(t *testing.T) {
	g := G.NewGraph()
	_, err := network.NewMultiHeadMLP(4, 1, 3, g, []int{16, 8},
		[]bool{true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU(), network.ReLU()})
	if err == nil {
		t.Error("mismatched biases should be a construction error")
	}

	g = G.NewGraph()
	_, err = network.NewMultiHeadMLP(4, 1, 3, g, []int{16},
		[]bool{true}, G.GlorotU(1.0), nil)
	if err == nil {
		t.Error("missing activations should be a construction error")
	}
}

func TestCloneWithBatch(t *testing.T) {
	net := newTestMLP(t, 1)

	clone, err := net.CloneWithBatch(32)
	if err != nil {
		t.Fatalf("could not clone network: %v", err)
	}

	if clone.BatchSize() != 32 {
		t.Errorf("clone batch size: want 32, have %v", clone.BatchSize())
	}
	if clone.Features() != net.Features() ||
		clone.Outputs() != net.Outputs() {
		t.Error("clone changed the network's shape")
	}
	if clone.Graph() == net.Graph() {
		t.Error("clone shares the original's graph")
	}
	if len(clone.Learnables()) != len(net.Learnables()) {
		t.Errorf("clone learnables: want %v, have %v",
			len(net.Learnables()), len(clone.Learnables()))
	}
}

func TestSetInput(t *testing.T) {
	net := newTestMLP(t, 2)

	if err := net.SetInput(make([]float64, 8)); err != nil {
		t.Errorf("set input: %v", err)
	}
	if err := net.SetInput(make([]float64, 3)); err == nil {
		t.Error("wrong input size should be an error")
	}
}

func TestConcatInputsRejectSetInput(t *testing.T) {
	g := G.NewGraph()
	states := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 4),
		G.WithName("states"), G.WithInit(G.Zeroes()))
	actions := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 1),
		G.WithName("actions"), G.WithInit(G.Zeroes()))

	net, err := network.NewMultiHeadMLPFromInputs(
		[]*G.Node{states, actions}, 1, g, []int{8}, []bool{true},
		G.GlorotU(1.0), []*network.Activation{network.ReLU()}, "Q", "",
		true)
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	if net.Features() != 5 {
		t.Errorf("features: want 5 (4 state + 1 action), have %v",
			net.Features())
	}
	if err := net.SetInput(make([]float64, 10)); err == nil {
		t.Error("networks with concatenated inputs must reject SetInput")
	}
}
