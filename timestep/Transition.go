package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together a single environmental transition
// (S, A, R, γ, S', A') for storage in an experience replay buffer.
// The reward and discount are those emitted on the transition into
// NextState.
type Transition struct {
	State      *mat.VecDense
	Action     *mat.VecDense
	Reward     float64
	Discount   float64
	NextState  *mat.VecDense
	NextAction *mat.VecDense
}

// NewTransition constructs a Transition from two sequential timesteps
// and the actions taken at each
func NewTransition(step TimeStep, action *mat.VecDense, nextStep TimeStep,
	nextAction *mat.VecDense) Transition {
	return Transition{
		State:      vecDense(step.Observation),
		Action:     action,
		Reward:     nextStep.Reward,
		Discount:   nextStep.Discount,
		NextState:  vecDense(nextStep.Observation),
		NextAction: nextAction,
	}
}

// vecDense converts a mat.Vector to a *mat.VecDense, copying only when
// the underlying type requires it
func vecDense(v mat.Vector) *mat.VecDense {
	if dense, ok := v.(*mat.VecDense); ok {
		return dense
	}

	dense := mat.NewVecDense(v.Len(), nil)
	for i := 0; i < v.Len(); i++ {
		dense.SetVec(i, v.AtVec(i))
	}
	return dense
}
