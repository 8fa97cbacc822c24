package wrappers_test

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/environment/wrappers"
	ts "github.com/mlexamples/gymrl/timestep"
)

// recordingEnv records the last action it was stepped with
type recordingEnv struct {
	lastAction *mat.VecDense
}

func (r *recordingEnv) Reset() (ts.TimeStep, error) {
	return ts.TimeStep{}, nil
}

func (r *recordingEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	r.lastAction = a
	return ts.TimeStep{}, false, nil
}

func (r *recordingEnv) CurrentTimeStep() ts.TimeStep { return ts.TimeStep{} }

func (r *recordingEnv) spec() env.Spec {
	bound := mat.NewVecDense(1, nil)
	return env.NewSpec(mat.NewVecDense(1, nil), env.Action, bound, bound,
		env.Continuous)
}

func (r *recordingEnv) ObservationSpec() env.Spec { return r.spec() }
func (r *recordingEnv) ActionSpec() env.Spec      { return r.spec() }
func (r *recordingEnv) DiscountSpec() env.Spec    { return r.spec() }
func (r *recordingEnv) Close() error              { return nil }

func TestActionScale(t *testing.T) {
	inner := &recordingEnv{}
	scaled := wrappers.NewActionScale(inner, 2.0)

	if _, _, err := scaled.Step(mat.NewVecDense(1,
		[]float64{0.75})); err != nil {
		t.Fatalf("step: %v", err)
	}

	if got := inner.lastAction.AtVec(0); got != 1.5 {
		t.Errorf("scaled action: want 1.5, have %v", got)
	}

	// The reported action spec must stay in the agent's range
	if scaled.ActionSpec().UpperBound.AtVec(0) != 0 {
		t.Error("action spec should be reported unchanged")
	}
}
