package ddpg

import (
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// OUNoise implements an Ornstein-Uhlenbeck process for temporally
// correlated exploration noise:
//
//	dx = θ * (μ - x) + σ * N(0, 1)
//
// The process state decays toward μ at rate θ while being perturbed
// with Gaussian noise of scale σ.
type OUNoise struct {
	state []float64
	mu    float64
	theta float64
	sigma float64

	dist distuv.Normal
}

// NewOUNoise returns a new Ornstein-Uhlenbeck process over size
// dimensions
func NewOUNoise(size int, mu, theta, sigma float64,
	seed uint64) *OUNoise {
	noise := &OUNoise{
		state: make([]float64, size),
		mu:    mu,
		theta: theta,
		sigma: sigma,
		dist: distuv.Normal{
			Mu:    0.0,
			Sigma: 1.0,
			Src:   exprand.NewSource(seed),
		},
	}
	noise.Reset()

	return noise
}

// Reset sets the process state back to μ. Reset should be called at
// the start of each episode so that noise does not correlate across
// episode boundaries.
func (o *OUNoise) Reset() {
	for i := range o.state {
		o.state[i] = o.mu
	}
}

// Sample advances the process one step and returns a copy of its new
// state
func (o *OUNoise) Sample() []float64 {
	for i, x := range o.state {
		dx := o.theta*(o.mu-x) + o.sigma*o.dist.Rand()
		o.state[i] = x + dx
	}

	sample := make([]float64, len(o.state))
	copy(sample, o.state)
	return sample
}
