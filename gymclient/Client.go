// Package gymclient implements a client for a remote OpenAI
// Gym-compatible simulator exposed over a TCP bridge.
//
// The bridge speaks newline-delimited JSON over a single TCP
// connection. Each request is answered by exactly one response line.
// A client first selects a named environment with Make, after which
// Reset and Step drive episodes on the remote simulator.
package gymclient

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// DialTimeout bounds how long Dial waits for the bridge to accept the
// connection.
const DialTimeout = 10 * time.Second

// request is a single JSON message sent to the bridge. Exactly one of
// the fields is set per message.
type request struct {
	Env     *envRequest     `json:"env,omitempty"`
	Reset   bool            `json:"reset,omitempty"`
	Step    *stepRequest    `json:"step,omitempty"`
	Render  bool            `json:"render,omitempty"`
	Monitor *monitorRequest `json:"monitor,omitempty"`

	ActionSpace      bool `json:"actionspace,omitempty"`
	ObservationSpace bool `json:"observationspace,omitempty"`

	URL   bool `json:"url,omitempty"`
	Close bool `json:"close,omitempty"`
}

type envRequest struct {
	Name string `json:"name"`
}

type stepRequest struct {
	Action []float64 `json:"action"`
	Render bool      `json:"render"`
}

type monitorRequest struct {
	Directory string `json:"directory"`
	Force     bool   `json:"force"`
	Resume    bool   `json:"resume"`
}

// response is a single JSON message read back from the bridge. The
// bridge only populates the fields relevant to the request that
// produced it.
type response struct {
	Observation []float64 `json:"observation,omitempty"`
	Reward      float64   `json:"reward,omitempty"`
	Done        bool      `json:"done,omitempty"`
	Info        *Space    `json:"info,omitempty"`
	URL         string    `json:"url,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// StepResult holds the remote simulator's reply to a single step.
type StepResult struct {
	Observation []float64
	Reward      float64
	Done        bool
}

// Client drives a single environment instance on a remote bridge.
// Clients are not safe for concurrent use: the protocol is a
// synchronous request/response exchange per simulation step.
type Client struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder

	envName string
}

// Dial connects to the bridge at the given host and port
func Dial(host, port string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port),
		DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial: could not connect to gym bridge: %v",
			err)
	}

	return NewClient(conn), nil
}

// NewClient wraps an existing connection to a bridge
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(bufio.NewReader(conn)),
	}
}

// roundTrip sends a single request and reads back its response
func (c *Client) roundTrip(op string, req request) (response, error) {
	if err := c.enc.Encode(req); err != nil {
		return response{}, fmt.Errorf("%v: could not send request: %v", op,
			err)
	}

	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		return response{}, fmt.Errorf("%v: could not read response: %v", op,
			err)
	}
	if resp.Error != "" {
		return response{}, fmt.Errorf("%v: bridge error: %v", op, resp.Error)
	}

	return resp, nil
}

// Make selects the named environment on the bridge. Make must be
// called before any other operation on the environment.
func (c *Client) Make(name string) error {
	_, err := c.roundTrip("make", request{Env: &envRequest{Name: name}})
	if err != nil {
		return err
	}

	c.envName = name
	return nil
}

// EnvName returns the name of the environment selected with Make
func (c *Client) EnvName() string {
	return c.envName
}

// Reset resets the remote environment and returns the first
// observation of the new episode
func (c *Client) Reset() ([]float64, error) {
	resp, err := c.roundTrip("reset", request{Reset: true})
	if err != nil {
		return nil, err
	}
	if resp.Observation == nil {
		return nil, fmt.Errorf("reset: bridge returned no observation")
	}

	return resp.Observation, nil
}

// Step takes a single step on the remote environment. If render is
// true, the bridge renders the resulting frame on its GUI.
func (c *Client) Step(action []float64, render bool) (StepResult, error) {
	resp, err := c.roundTrip("step", request{
		Step: &stepRequest{Action: action, Render: render},
	})
	if err != nil {
		return StepResult{}, err
	}
	if resp.Observation == nil {
		return StepResult{}, fmt.Errorf("step: bridge returned no observation")
	}

	return StepResult{
		Observation: resp.Observation,
		Reward:      resp.Reward,
		Done:        resp.Done,
	}, nil
}

// Render asks the bridge to render the current frame
func (c *Client) Render() error {
	_, err := c.roundTrip("render", request{Render: true})
	return err
}

// MonitorStart starts the bridge's episode monitor, which records
// videos of episodes under the given directory on the bridge host
func (c *Client) MonitorStart(directory string, force, resume bool) error {
	_, err := c.roundTrip("monitor", request{
		Monitor: &monitorRequest{
			Directory: directory,
			Force:     force,
			Resume:    resume,
		},
	})
	return err
}

// ActionSpace queries the action space of the environment
func (c *Client) ActionSpace() (Space, error) {
	resp, err := c.roundTrip("actionspace", request{ActionSpace: true})
	if err != nil {
		return Space{}, err
	}
	if resp.Info == nil {
		return Space{}, fmt.Errorf("actionspace: bridge returned no space info")
	}

	return *resp.Info, nil
}

// ObservationSpace queries the observation space of the environment
func (c *Client) ObservationSpace() (Space, error) {
	resp, err := c.roundTrip("observationspace",
		request{ObservationSpace: true})
	if err != nil {
		return Space{}, err
	}
	if resp.Info == nil {
		return Space{}, fmt.Errorf("observationspace: bridge returned no " +
			"space info")
	}

	return *resp.Info, nil
}

// URL returns the HTTP address on which the bridge serves recorded
// episodes
func (c *Client) URL() (string, error) {
	resp, err := c.roundTrip("url", request{URL: true})
	if err != nil {
		return "", err
	}

	return resp.URL, nil
}

// Close tells the bridge to dispose of the environment and closes the
// connection
func (c *Client) Close() error {
	// Best effort: the bridge may already have dropped the connection
	_ = c.enc.Encode(request{Close: true})

	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("close: could not close connection: %v", err)
	}
	return nil
}
