package gym_test

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"

	"gonum.org/v1/gonum/mat"

	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/environment/gym"
	"github.com/mlexamples/gymrl/gymclient"
	ts "github.com/mlexamples/gymrl/timestep"
)

// fakeBridge answers the bridge protocol for a discrete-action
// environment with 2-dimensional observations whose episodes last
// three steps
func fakeBridge(conn net.Conn) {
	defer conn.Close()

	dec := json.NewDecoder(bufio.NewReader(conn))
	enc := json.NewEncoder(conn)

	step := 0
	for {
		var req map[string]interface{}
		if err := dec.Decode(&req); err != nil {
			return
		}

		var resp map[string]interface{}
		switch {
		case req["env"] != nil:
			resp = map[string]interface{}{}

		case req["reset"] == true:
			step = 0
			resp = map[string]interface{}{
				"observation": []float64{0.1, 0.2},
			}

		case req["step"] != nil:
			step++
			resp = map[string]interface{}{
				"observation": []float64{0.3, 0.4},
				"reward":      1.5,
				"done":        step >= 3,
			}

		case req["actionspace"] == true:
			resp = map[string]interface{}{
				"info": map[string]interface{}{"name": "Discrete", "n": 3},
			}

		case req["observationspace"] == true:
			resp = map[string]interface{}{
				"info": map[string]interface{}{
					"name":  "Box",
					"shape": []int{2},
					"low":   []float64{-1.0, -2.0},
					"high":  []float64{1.0, 2.0},
				},
			}

		case req["close"] == true:
			return

		default:
			resp = map[string]interface{}{}
		}

		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func newTestEnv(t *testing.T) *gym.Env {
	t.Helper()

	server, client := net.Pipe()
	go fakeBridge(server)

	e, first, err := gym.NewFromClient(gymclient.NewClient(client),
		"TestEnv-v0", 0.99)
	if err != nil {
		t.Fatalf("could not create environment: %v", err)
	}
	if !first.First() {
		t.Fatal("environment construction should yield a First timestep")
	}
	t.Cleanup(func() { e.Close() })

	return e
}

func TestEpisodeTimeSteps(t *testing.T) {
	e := newTestEnv(t)

	step, err := e.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !step.First() || step.Number != 0 {
		t.Errorf("reset: want First timestep 0, have %v", step)
	}
	if step.Observation.Len() != 2 {
		t.Errorf("reset: observation length: want 2, have %v",
			step.Observation.Len())
	}

	action := mat.NewVecDense(1, []float64{1})
	for i := 1; i <= 2; i++ {
		var done bool
		step, done, err = e.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if done || !step.Mid() {
			t.Errorf("step %v: want Mid timestep, have %v", i, step)
		}
		if step.Reward != 1.5 {
			t.Errorf("step %v: reward: want 1.5, have %v", i, step.Reward)
		}
		if step.Discount != 0.99 {
			t.Errorf("step %v: discount: want 0.99, have %v", i,
				step.Discount)
		}
		if step.Number != i {
			t.Errorf("step %v: number: want %v, have %v", i, i,
				step.Number)
		}
	}

	step, done, err := e.Step(action)
	if err != nil {
		t.Fatalf("final step: %v", err)
	}
	if !done || !step.Last() {
		t.Errorf("final step: want Last timestep, have %v", step)
	}

	if e.CurrentTimeStep().Number != step.Number {
		t.Error("current timestep does not match the last step taken")
	}
}

// Terminal timesteps must carry a zero discount so that TD targets
// built from the stored transition do not bootstrap through the end
// of an episode
func TestTerminalDiscountIsZero(t *testing.T) {
	e := newTestEnv(t)

	if _, err := e.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	action := mat.NewVecDense(1, []float64{1})
	prev := e.CurrentTimeStep()

	var step ts.TimeStep
	var done bool
	var err error
	for !done {
		prev = e.CurrentTimeStep()
		step, done, err = e.Step(action)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	if !step.Last() {
		t.Fatalf("want Last timestep at episode end, have %v", step)
	}
	if step.Discount != 0.0 {
		t.Errorf("terminal discount: want 0, have %v", step.Discount)
	}

	transition := ts.NewTransition(prev, action, step, action)
	if transition.Discount != 0.0 {
		t.Errorf("terminal transition discount: want 0, have %v",
			transition.Discount)
	}
}

func TestSpecs(t *testing.T) {
	e := newTestEnv(t)

	actions := e.ActionSpec()
	if actions.Cardinality != env.Discrete {
		t.Error("actionspec: discrete bridge space reported as continuous")
	}
	if actions.LowerBound.AtVec(0) != 0 || actions.UpperBound.AtVec(0) != 2 {
		t.Errorf("actionspec: want bounds [0, 2], have [%v, %v]",
			actions.LowerBound.AtVec(0), actions.UpperBound.AtVec(0))
	}

	observations := e.ObservationSpec()
	if observations.Cardinality != env.Continuous {
		t.Error("observationspec: Box space reported as discrete")
	}
	if observations.Shape.Len() != 2 {
		t.Errorf("observationspec: shape length: want 2, have %v",
			observations.Shape.Len())
	}
	if observations.LowerBound.AtVec(1) != -2.0 {
		t.Errorf("observationspec: lower bound: want -2, have %v",
			observations.LowerBound.AtVec(1))
	}

	discount := e.DiscountSpec()
	if discount.LowerBound.AtVec(0) != 0.99 {
		t.Errorf("discountspec: want 0.99, have %v",
			discount.LowerBound.AtVec(0))
	}
}
