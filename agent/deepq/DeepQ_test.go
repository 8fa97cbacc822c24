package deepq_test

import (
	"testing"

	"github.com/mlexamples/gymrl/agent"
	"github.com/mlexamples/gymrl/agent/deepq"
	"github.com/mlexamples/gymrl/expreplay"
	"github.com/mlexamples/gymrl/initwfn"
	"github.com/mlexamples/gymrl/network"
	"github.com/mlexamples/gymrl/solver"
)

// DeepQ owns the virtual machines for its graphs, so drivers must be
// able to close it
var _ agent.Closer = (*deepq.DeepQ)(nil)

func validConfig(t *testing.T) deepq.Config {
	t.Helper()

	adam, err := solver.NewDefaultAdam(0.01, 32)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}
	gaussian, err := initwfn.NewGaussian(0.0, 1.0)
	if err != nil {
		t.Fatalf("could not create weight initializer: %v", err)
	}

	return deepq.Config{
		PolicyLayers: []int{128},
		Biases:       []bool{true},
		Activations:  []*network.Activation{network.ReLU()},
		Solver:       adam,
		InitWFn:      gaussian,

		Epsilon:     1.0,
		MinEpsilon:  0.1,
		AnnealSteps: 2000,

		ExpReplay: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			SampleSize:        32,
			MaxReplayCapacity: 1000,
			MinReplayCapacity: 100,
		},

		Tau:                  1.0,
		TargetUpdateInterval: 100,
	}
}

func TestConfigValidate(t *testing.T) {
	config := validConfig(t)
	if err := config.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	mismatched := validConfig(t)
	mismatched.Biases = []bool{true, false}
	if err := mismatched.Validate(); err == nil {
		t.Error("mismatched layer and bias counts should be an error")
	}

	badInterval := validConfig(t)
	badInterval.TargetUpdateInterval = 0
	if err := badInterval.Validate(); err == nil {
		t.Error("non-positive target update interval should be an error")
	}

	badEpsilon := validConfig(t)
	badEpsilon.Epsilon = 1.5
	if err := badEpsilon.Validate(); err == nil {
		t.Error("epsilon outside [0, 1] should be an error")
	}

	badMin := validConfig(t)
	badMin.MinEpsilon = 2.0
	if err := badMin.Validate(); err == nil {
		t.Error("minimum epsilon above initial epsilon should be an error")
	}

	noSolver := validConfig(t)
	noSolver.Solver = nil
	if err := noSolver.Validate(); err == nil {
		t.Error("missing solver should be an error")
	}
}

func TestConfigBatchSize(t *testing.T) {
	config := validConfig(t)
	if config.BatchSize() != 32 {
		t.Errorf("batch size: want 32, have %v", config.BatchSize())
	}
}
