// Command lunarlander trains a deep Q-learning agent on the
// LunarLander-v2 environment served by a gym_tcp_api bridge, then
// evaluates the learned policy with monitoring and rendering enabled.
package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mlexamples/gymrl/agent/deepq"
	"github.com/mlexamples/gymrl/environment/gym"
	"github.com/mlexamples/gymrl/experiment"
	"github.com/mlexamples/gymrl/experiment/trackers"
	"github.com/mlexamples/gymrl/expreplay"
	"github.com/mlexamples/gymrl/initwfn"
	"github.com/mlexamples/gymrl/network"
	"github.com/mlexamples/gymrl/solver"
)

var (
	host    string
	port    string
	envName string

	trainSteps int
	extraSteps int
	window     int
	logEvery   int
	seed       int64

	stepSize         float64
	discount         float64
	epsilon          float64
	minEpsilon       float64
	annealSteps      int
	batchSize        int
	replayCapacity   int
	explorationSteps int
	targetInterval   int

	monitorDir  string
	returnsFile string
	lengthsFile string
	plotFile    string
)

var rootCmd = &cobra.Command{
	Use:   "lunarlander",
	Short: "Train a DQN agent on LunarLander-v2 over a TCP gym bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&host, "host", "localhost", "gym bridge host")
	flags.StringVar(&port, "port", "4040", "gym bridge port")
	flags.StringVar(&envName, "env", "LunarLander-v2",
		"environment to construct on the bridge")

	flags.IntVar(&trainSteps, "train-steps", 10000,
		"environment steps in the first training phase")
	flags.IntVar(&extraSteps, "extra-steps", 100000,
		"environment steps in the second training phase")
	flags.IntVar(&window, "window", 50,
		"number of episodic returns to average over")
	flags.IntVar(&logEvery, "log-every", 5,
		"episodes between progress lines")
	flags.Int64Var(&seed, "seed", 42, "random seed")

	flags.Float64Var(&stepSize, "step-size", 0.01, "Adam step size")
	flags.Float64Var(&discount, "discount", 0.99, "discount factor")
	flags.Float64Var(&epsilon, "epsilon", 1.0,
		"initial exploration rate")
	flags.Float64Var(&minEpsilon, "min-epsilon", 0.1,
		"exploration rate after annealing")
	flags.IntVar(&annealSteps, "anneal-steps", 2000,
		"action selections over which epsilon is annealed")
	flags.IntVar(&batchSize, "batch-size", 64, "replay sample size")
	flags.IntVar(&replayCapacity, "replay-capacity", 100000,
		"maximum replay buffer size")
	flags.IntVar(&explorationSteps, "exploration-steps", 100,
		"transitions recorded before learning starts")
	flags.IntVar(&targetInterval, "target-interval", 100,
		"gradient steps between target network updates")

	flags.StringVar(&monitorDir, "monitor-dir", "./dummy/",
		"directory on the bridge host for recorded episodes")
	flags.StringVar(&returnsFile, "returns-file", "",
		"if set, save episodic returns to this file")
	flags.StringVar(&lengthsFile, "lengths-file", "",
		"if set, save episode lengths to this file")
	flags.StringVar(&plotFile, "plot-file", "",
		"if set, save a learning curve image to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("lunarlander: %v", err)
	}
}

func run() error {
	adam, err := solver.NewDefaultAdam(stepSize, batchSize)
	if err != nil {
		return fmt.Errorf("could not create solver: %v", err)
	}
	gaussian, err := initwfn.NewGaussian(0.0, 1.0)
	if err != nil {
		return fmt.Errorf("could not create weight initializer: %v", err)
	}

	config := deepq.Config{
		PolicyLayers: []int{128},
		Biases:       []bool{true},
		Activations:  []*network.Activation{network.ReLU()},
		Solver:       adam,
		InitWFn:      gaussian,

		Epsilon:     epsilon,
		MinEpsilon:  minEpsilon,
		AnnealSteps: annealSteps,

		ExpReplay: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			SampleSize:        batchSize,
			MaxReplayCapacity: replayCapacity,
			MinReplayCapacity: explorationSteps,
		},

		Tau:                  1.0,
		TargetUpdateInterval: targetInterval,
	}

	trainEnv, _, err := gym.New(host, port, envName, discount)
	if err != nil {
		return fmt.Errorf("could not connect to bridge: %v", err)
	}
	defer trainEnv.Close()

	agent, err := deepq.New(trainEnv, config, seed)
	if err != nil {
		return fmt.Errorf("could not create agent: %v", err)
	}
	defer agent.Close()

	returns := trackers.NewReturn(returnsFile)
	lengths := trackers.NewEpisodeLength(lengthsFile)

	// First training phase
	fmt.Printf("Training for %d steps.\n", trainSteps)
	if _, err := experiment.Train(trainEnv, agent, trainSteps, window,
		logEvery, returns, lengths); err != nil {
		return err
	}

	// Evaluate on a fresh environment with monitoring and rendering
	testEnv, _, err := gym.New(host, port, envName, discount)
	if err != nil {
		return fmt.Errorf("could not connect to bridge: %v", err)
	}
	defer testEnv.Close()

	if err := evaluate(testEnv, agent); err != nil {
		return err
	}

	// A little more training
	fmt.Printf("Training for %d steps.\n", extraSteps)
	if _, err := experiment.Train(trainEnv, agent, extraSteps, window,
		logEvery, returns, lengths); err != nil {
		return err
	}

	if err := evaluate(testEnv, agent); err != nil {
		return err
	}

	if returnsFile != "" {
		if err := returns.Save(); err != nil {
			return err
		}
	}
	if lengthsFile != "" {
		if err := lengths.Save(); err != nil {
			return err
		}
	}
	if plotFile != "" {
		if err := returns.SavePlot(plotFile); err != nil {
			return err
		}
	}
	return nil
}

// evaluate runs a monitored, rendered evaluation episode and prints
// the totals along with the URL the recording is served on
func evaluate(testEnv *gym.Env, agent *deepq.DeepQ) error {
	if err := testEnv.StartMonitor(monitorDir); err != nil {
		return err
	}

	totalReward, totalSteps, err := experiment.Evaluate(testEnv, agent,
		true)
	if err != nil {
		return err
	}
	fmt.Printf(" Total steps: %d\t Total reward: %.2f\n", totalSteps,
		totalReward)

	url, err := testEnv.URL()
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}
