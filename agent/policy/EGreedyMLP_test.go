package policy_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/mlexamples/gymrl/agent/policy"
	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/network"
	ts "github.com/mlexamples/gymrl/timestep"
)

// discreteEnv is an environment stub with four actions and
// 4-dimensional observations
type discreteEnv struct{}

func (d discreteEnv) Reset() (ts.TimeStep, error) { return ts.TimeStep{}, nil }

func (d discreteEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	return ts.TimeStep{}, false, nil
}

func (d discreteEnv) CurrentTimeStep() ts.TimeStep { return ts.TimeStep{} }

func (d discreteEnv) ObservationSpec() env.Spec {
	bound := mat.NewVecDense(4, nil)
	return env.NewSpec(mat.NewVecDense(4, nil), env.Observation, bound,
		bound, env.Continuous)
}

func (d discreteEnv) ActionSpec() env.Spec {
	low := mat.NewVecDense(1, []float64{0})
	high := mat.NewVecDense(1, []float64{3})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Action, low, high,
		env.Discrete)
}

func (d discreteEnv) DiscountSpec() env.Spec {
	bound := mat.NewVecDense(1, []float64{0.99})
	return env.NewSpec(mat.NewVecDense(1, nil), env.Discount, bound,
		bound, env.Continuous)
}

func (d discreteEnv) Close() error { return nil }

func newTestPolicy(t *testing.T,
	epsilon float64) *policy.MultiHeadEGreedyMLP {
	t.Helper()

	g := G.NewGraph()
	p, err := policy.NewMultiHeadEGreedyMLP(epsilon, discreteEnv{}, 1, g,
		[]int{16}, []bool{true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU()}, 14)
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}
	return p
}

func TestEpsilonAnnealing(t *testing.T) {
	p := newTestPolicy(t, 1.0)
	if err := p.SetAnnealing(0.2, 4); err != nil {
		t.Fatalf("set annealing: %v", err)
	}

	want := []float64{0.8, 0.6, 0.4, 0.2}
	for i, w := range want {
		p.Anneal()
		if math.Abs(p.Epsilon()-w) > 1e-12 {
			t.Errorf("anneal step %v: want epsilon %v, have %v", i+1, w,
				p.Epsilon())
		}
	}

	// Further annealing never decays epsilon below the minimum
	p.Anneal()
	p.Anneal()
	if math.Abs(p.Epsilon()-0.2) > 1e-12 {
		t.Errorf("epsilon decayed below minimum: %v", p.Epsilon())
	}
}

func TestSetAnnealingValidation(t *testing.T) {
	p := newTestPolicy(t, 0.5)

	if err := p.SetAnnealing(0.9, 10); err == nil {
		t.Error("minimum above current epsilon should be an error")
	}
	if err := p.SetAnnealing(0.1, 0); err == nil {
		t.Error("non-positive anneal steps should be an error")
	}
}

func TestAnnealWithoutSchedule(t *testing.T) {
	p := newTestPolicy(t, 0.7)

	// Without a schedule, Anneal leaves epsilon untouched
	p.Anneal()
	if p.Epsilon() != 0.7 {
		t.Errorf("want epsilon 0.7, have %v", p.Epsilon())
	}
}

func TestClonePreservesEpsilon(t *testing.T) {
	p := newTestPolicy(t, 1.0)
	if err := p.SetAnnealing(0.1, 9); err != nil {
		t.Fatalf("set annealing: %v", err)
	}
	p.Anneal()

	clone, err := p.ClonePolicyWithBatch(8)
	if err != nil {
		t.Fatalf("could not clone policy: %v", err)
	}

	egreedy := clone.(*policy.MultiHeadEGreedyMLP)
	if math.Abs(egreedy.Epsilon()-p.Epsilon()) > 1e-12 {
		t.Errorf("clone epsilon: want %v, have %v", p.Epsilon(),
			egreedy.Epsilon())
	}
	if egreedy.Network().BatchSize() != 8 {
		t.Errorf("clone batch size: want 8, have %v",
			egreedy.Network().BatchSize())
	}

	// The clone anneals on its own schedule
	egreedy.SetEpsilon(0.05)
	if p.Epsilon() == 0.05 {
		t.Error("setting the clone's epsilon changed the original")
	}
}
