package ddpg_test

import (
	"math"
	"testing"

	"github.com/mlexamples/gymrl/agent"
	"github.com/mlexamples/gymrl/agent/ddpg"
)

// DDPG owns the virtual machines for its graphs, so drivers must be
// able to close it
var _ agent.Closer = (*ddpg.DDPG)(nil)

// TestOUNoiseReset ensures the process state returns to μ on reset
func TestOUNoiseReset(t *testing.T) {
	mu := 0.5
	noise := ddpg.NewOUNoise(3, mu, 1.0, 0.1, 42)

	for i := 0; i < 10; i++ {
		noise.Sample()
	}
	noise.Reset()

	sample := noise.Sample()
	if len(sample) != 3 {
		t.Fatalf("got sample of size %v, want 3", len(sample))
	}

	// After a reset, the drift term θ(μ - x) vanishes, so the first
	// sample deviates from μ only by the σ-scaled Gaussian term
	for i, x := range sample {
		if math.Abs(x-mu) > 1.0 {
			t.Errorf("dimension %v: sample %v too far from mu %v after "+
				"reset", i, x, mu)
		}
	}
}

// TestOUNoiseZeroSigma ensures that without a stochastic term the
// process decays deterministically toward μ
func TestOUNoiseZeroSigma(t *testing.T) {
	noise := ddpg.NewOUNoise(1, 0.0, 0.5, 0.0, 1)

	// State starts at μ = 0 and σ = 0, so every sample stays at 0
	for i := 0; i < 5; i++ {
		sample := noise.Sample()
		if sample[0] != 0.0 {
			t.Fatalf("sample %v: got %v, want 0", i, sample[0])
		}
	}
}

// TestOUNoiseTemporalCorrelation ensures successive samples share the
// process state rather than being drawn independently
func TestOUNoiseTemporalCorrelation(t *testing.T) {
	noise := ddpg.NewOUNoise(1, 0.0, 0.0, 0.1, 7)

	// With θ = 0 the process is a pure random walk: the state is the
	// cumulative sum of the Gaussian terms, so consecutive samples
	// must differ by the latest increment only
	prev := noise.Sample()[0]
	for i := 0; i < 100; i++ {
		cur := noise.Sample()[0]
		if math.Abs(cur-prev) > 1.0 {
			t.Fatalf("sample %v: increment %v too large for sigma 0.1",
				i, math.Abs(cur-prev))
		}
		prev = cur
	}
}
