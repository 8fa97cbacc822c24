package timestep_test

import (
	"testing"

	ts "github.com/mlexamples/gymrl/timestep"
	"gonum.org/v1/gonum/mat"
)

func TestStepTypePredicates(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0.1, -0.5})

	first := ts.New(ts.First, 0, 0.99, obs, 0)
	if !first.First() || first.Mid() || first.Last() {
		t.Errorf("first timestep misreports its step type")
	}

	mid := ts.New(ts.Mid, 1.0, 0.99, obs, 1)
	if mid.First() || !mid.Mid() || mid.Last() {
		t.Errorf("mid timestep misreports its step type")
	}

	last := ts.New(ts.Last, -1.0, 0.0, obs, 2)
	if last.First() || last.Mid() || !last.Last() {
		t.Errorf("last timestep misreports its step type")
	}
}

func TestNewTransition(t *testing.T) {
	state := mat.NewVecDense(2, []float64{-0.4, 0.0})
	nextState := mat.NewVecDense(2, []float64{-0.35, 0.02})
	action := mat.NewVecDense(1, []float64{1})
	nextAction := mat.NewVecDense(1, []float64{0})

	step := ts.New(ts.First, 0, 0.99, state, 0)
	nextStep := ts.New(ts.Mid, -1.0, 0.99, nextState, 1)

	transition := ts.NewTransition(step, action, nextStep, nextAction)

	if transition.Reward != nextStep.Reward {
		t.Errorf("transition reward: want %v, have %v", nextStep.Reward,
			transition.Reward)
	}
	if transition.Discount != nextStep.Discount {
		t.Errorf("transition discount: want %v, have %v", nextStep.Discount,
			transition.Discount)
	}
	if !mat.Equal(transition.State, state) {
		t.Errorf("transition state does not match originating observation")
	}
	if !mat.Equal(transition.NextState, nextState) {
		t.Errorf("transition next state does not match next observation")
	}
}
