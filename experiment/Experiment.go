// Package experiment implements training and evaluation drivers for
// agents acting in environments
package experiment

import (
	"fmt"

	"github.com/gosuri/uilive"

	"github.com/mlexamples/gymrl/agent"
	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/experiment/trackers"
	ts "github.com/mlexamples/gymrl/timestep"
)

// MovingAverage computes the average over a sliding window of the
// most recent values added to it. Until the window fills, the average
// is taken over the values added so far.
type MovingAverage struct {
	values []float64
	insert int
	filled int
}

// NewMovingAverage returns a new MovingAverage over a window of the
// given size
func NewMovingAverage(size int) *MovingAverage {
	if size < 1 {
		panic(fmt.Sprintf("moving average window must be positive, "+
			"got %v", size))
	}
	return &MovingAverage{values: make([]float64, size)}
}

// Add adds a value to the window, evicting the oldest value once the
// window is full
func (m *MovingAverage) Add(value float64) {
	m.values[m.insert] = value
	m.insert = (m.insert + 1) % len(m.values)
	if m.filled < len(m.values) {
		m.filled++
	}
}

// Count returns the number of values currently in the window
func (m *MovingAverage) Count() int {
	return m.filled
}

// Average returns the average of the values currently in the window
func (m *MovingAverage) Average() float64 {
	if m.filled == 0 {
		return 0.0
	}

	var sum float64
	for i := 0; i < m.filled; i++ {
		sum += m.values[i]
	}
	return sum / float64(m.filled)
}

// Train runs an agent on an environment until at least steps
// environment steps have elapsed. The step budget is checked between
// episodes, so the episode in progress when the budget runs out is
// always finished.
//
// A sliding window of the last window episodic returns is maintained,
// and every logEvery episodes a progress line with the window average
// is written to an auto-refreshing console line. Any trackers are fed
// every timestep of the run.
//
// Train returns the total number of environment steps taken.
func Train(e env.Environment, a agent.Agent, steps, window,
	logEvery int, t ...trackers.Tracker) (int, error) {
	a.Train()

	writer := uilive.New()
	writer.Start()
	defer writer.Stop()

	avgReturn := NewMovingAverage(window)
	totalSteps := 0
	episodes := 0

	for totalSteps < steps {
		episodeReturn, episodeSteps, err := trainEpisode(e, a, t)
		if err != nil {
			return totalSteps, fmt.Errorf("train: %v", err)
		}

		totalSteps += episodeSteps
		episodes++
		avgReturn.Add(episodeReturn)

		if episodes%logEvery == 0 {
			fmt.Fprintf(writer, "Avg return in last %d episodes: %.2f\t"+
				"Episode return: %.2f\tTotal steps: %d\n",
				avgReturn.Count(), avgReturn.Average(), episodeReturn,
				totalSteps)
		}
	}

	return totalSteps, nil
}

// trainEpisode runs a single training episode, returning the episodic
// return and the number of environment steps taken
func trainEpisode(e env.Environment, a agent.Agent,
	t []trackers.Tracker) (float64, int, error) {
	step, err := e.Reset()
	if err != nil {
		return 0, 0, fmt.Errorf("could not reset environment: %v", err)
	}
	if err := a.ObserveFirst(step); err != nil {
		return 0, 0, err
	}
	track(t, step)

	episodeReturn := 0.0
	episodeSteps := 0

	for !step.Last() {
		action := a.SelectAction(step)

		step, _, err = e.Step(action)
		if err != nil {
			return episodeReturn, episodeSteps,
				fmt.Errorf("could not step environment: %v", err)
		}
		track(t, step)

		if err := a.Observe(action, step); err != nil {
			return episodeReturn, episodeSteps, err
		}
		if err := a.Step(); err != nil {
			return episodeReturn, episodeSteps, err
		}

		episodeReturn += step.Reward
		episodeSteps++
	}
	a.EndEpisode()

	return episodeReturn, episodeSteps, nil
}

// Evaluate runs a single deterministic episode of the agent on the
// environment and returns the episodic return and the number of steps
// taken. The agent is placed in evaluation mode for the duration of
// the episode, so no exploration is performed and no learning occurs.
// If render is true and the environment supports rendering, each step
// of the episode is rendered.
func Evaluate(e env.Environment, a agent.Agent, render bool) (float64,
	int, error) {
	a.Eval()
	defer a.Train()

	if render {
		if r, ok := e.(env.Renderer); ok {
			if err := r.Render(); err != nil {
				return 0, 0, fmt.Errorf("evaluate: could not enable "+
					"rendering: %v", err)
			}
		}
	}

	step, err := e.Reset()
	if err != nil {
		return 0, 0, fmt.Errorf("evaluate: could not reset "+
			"environment: %v", err)
	}

	totalReward := 0.0
	steps := 0
	for !step.Last() {
		action := a.SelectAction(step)

		step, _, err = e.Step(action)
		if err != nil {
			return totalReward, steps, fmt.Errorf("evaluate: could not "+
				"step environment: %v", err)
		}

		totalReward += step.Reward
		steps++
	}

	return totalReward, steps, nil
}

// track feeds a timestep to each tracker
func track(t []trackers.Tracker, step ts.TimeStep) {
	for _, tracker := range t {
		tracker.Track(step)
	}
}
