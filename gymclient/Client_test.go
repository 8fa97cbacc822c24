package gymclient_test

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"

	"github.com/mlexamples/gymrl/gymclient"
)

// fakeBridge implements just enough of the bridge protocol to exercise
// the client: one JSON response line per request line.
func fakeBridge(t *testing.T, conn net.Conn) {
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
				"observation": []float64{-0.5, 0.0},
			}

		case req["step"] != nil:
			step++
			resp = map[string]interface{}{
				"observation": []float64{-0.45, 0.01},
				"reward":      -1.0,
				"done":        step >= 3,
			}

		case req["actionspace"] == true:
			resp = map[string]interface{}{
				"info": map[string]interface{}{"name": "Discrete", "n": 4},
			}

		case req["observationspace"] == true:
			resp = map[string]interface{}{
				"info": map[string]interface{}{
					"name":  "Box",
					"shape": []int{2},
					"low":   []float64{-1.2, -0.07},
					"high":  []float64{0.6, 0.07},
				},
			}

		case req["url"] == true:
			resp = map[string]interface{}{"url": "http://bridge:4040"}

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

func newTestClient(t *testing.T) *gymclient.Client {
	t.Helper()

	server, client := net.Pipe()
	go fakeBridge(t, server)

	c := gymclient.NewClient(client)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMakeResetStep(t *testing.T) {
	c := newTestClient(t)

	if err := c.Make("MountainCar-v0"); err != nil {
		t.Fatalf("make: %v", err)
	}
	if c.EnvName() != "MountainCar-v0" {
		t.Errorf("envname: want MountainCar-v0, have %v", c.EnvName())
	}

	obs, err := c.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("reset: observation length: want 2, have %v", len(obs))
	}

	var done bool
	for i := 0; i < 3; i++ {
		result, err := c.Step([]float64{1}, false)
		if err != nil {
			t.Fatalf("step %v: %v", i, err)
		}
		if result.Reward != -1.0 {
			t.Errorf("step %v: reward: want -1, have %v", i, result.Reward)
		}
		done = result.Done
	}
	if !done {
		t.Error("step: episode should be done after three steps")
	}
}

func TestSpaces(t *testing.T) {
	c := newTestClient(t)

	actions, err := c.ActionSpace()
	if err != nil {
		t.Fatalf("actionspace: %v", err)
	}
	if !actions.Discrete() || actions.N != 4 {
		t.Errorf("actionspace: want Discrete with 4 actions, have %+v",
			actions)
	}

	observations, err := c.ObservationSpace()
	if err != nil {
		t.Fatalf("observationspace: %v", err)
	}
	if observations.Discrete() {
		t.Error("observationspace: Box space reported as discrete")
	}
	if observations.Len() != 2 {
		t.Errorf("observationspace: length: want 2, have %v",
			observations.Len())
	}
}

func TestURL(t *testing.T) {
	c := newTestClient(t)

	url, err := c.URL()
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if url != "http://bridge:4040" {
		t.Errorf("url: want http://bridge:4040, have %v", url)
	}
}
