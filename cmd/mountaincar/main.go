// Command mountaincar trains a deep deterministic policy gradient
// agent on the MountainCarContinuous-v0 environment served by a
// gym_tcp_api bridge, then evaluates the learned policy with
// rendering enabled.
package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mlexamples/gymrl/agent/ddpg"
	"github.com/mlexamples/gymrl/environment/gym"
	"github.com/mlexamples/gymrl/environment/wrappers"
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
	window     int
	logEvery   int
	seed       int64

	stepSize         float64
	discount         float64
	actionScale      float64
	batchSize        int
	replayCapacity   int
	explorationSteps int
	targetInterval   int
	updateInterval   int
	tau              float64

	noiseMu    float64
	noiseTheta float64
	noiseSigma float64

	returnsFile string
	lengthsFile string
	plotFile    string
)

var rootCmd = &cobra.Command{
	Use: "mountaincar",
	Short: "Train a DDPG agent on MountainCarContinuous-v0 over a TCP " +
		"gym bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&host, "host", "localhost", "gym bridge host")
	flags.StringVar(&port, "port", "4040", "gym bridge port")
	flags.StringVar(&envName, "env", "MountainCarContinuous-v0",
		"environment to construct on the bridge")

	flags.IntVar(&trainSteps, "train-steps", 10000,
		"environment steps to train for")
	flags.IntVar(&window, "window", 25,
		"number of episodic returns to average over")
	flags.IntVar(&logEvery, "log-every", 4,
		"episodes between progress lines")
	flags.Int64Var(&seed, "seed", 42, "random seed")

	flags.Float64Var(&stepSize, "step-size", 0.01, "Adam step size")
	flags.Float64Var(&discount, "discount", 0.99, "discount factor")
	flags.Float64Var(&actionScale, "action-scale", 2.0,
		"factor actions are scaled by before stepping the environment")
	flags.IntVar(&batchSize, "batch-size", 32, "replay sample size")
	flags.IntVar(&replayCapacity, "replay-capacity", 10000,
		"maximum replay buffer size")
	flags.IntVar(&explorationSteps, "exploration-steps", 3200,
		"transitions recorded before learning starts")
	flags.IntVar(&targetInterval, "target-interval", 1,
		"gradient steps between target network updates")
	flags.IntVar(&updateInterval, "update-interval", 1,
		"environment steps between gradient updates")
	flags.Float64Var(&tau, "tau", 0.005,
		"polyak averaging constant for target network updates")

	flags.Float64Var(&noiseMu, "noise-mu", 0.0,
		"Ornstein-Uhlenbeck noise mean")
	flags.Float64Var(&noiseTheta, "noise-theta", 1.0,
		"Ornstein-Uhlenbeck noise decay rate")
	flags.Float64Var(&noiseSigma, "noise-sigma", 0.1,
		"Ornstein-Uhlenbeck noise scale")

	flags.StringVar(&returnsFile, "returns-file", "",
		"if set, save episodic returns to this file")
	flags.StringVar(&lengthsFile, "lengths-file", "",
		"if set, save episode lengths to this file")
	flags.StringVar(&plotFile, "plot-file", "",
		"if set, save a learning curve image to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("mountaincar: %v", err)
	}
}

func run() error {
	actorSolver, err := solver.NewDefaultAdam(stepSize, batchSize)
	if err != nil {
		return fmt.Errorf("could not create actor solver: %v", err)
	}
	criticSolver, err := solver.NewDefaultAdam(stepSize, batchSize)
	if err != nil {
		return fmt.Errorf("could not create critic solver: %v", err)
	}
	gaussian, err := initwfn.NewGaussian(0.0, 0.01)
	if err != nil {
		return fmt.Errorf("could not create weight initializer: %v", err)
	}

	config := ddpg.Config{
		ActorLayers: []int{128, 128},
		ActorBiases: []bool{true, true},
		ActorActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},
		ActorSolver: actorSolver,

		CriticLayers: []int{128, 128},
		CriticBiases: []bool{true, true},
		CriticActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},
		CriticSolver: criticSolver,

		InitWFn: gaussian,

		ExpReplay: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			SampleSize:        batchSize,
			MaxReplayCapacity: replayCapacity,
			MinReplayCapacity: explorationSteps,
		},

		Tau:                tau,
		TargetSyncInterval: targetInterval,
		UpdateInterval:     updateInterval,

		NoiseMu:    noiseMu,
		NoiseTheta: noiseTheta,
		NoiseSigma: noiseSigma,
	}

	bridgeEnv, _, err := gym.New(host, port, envName, discount)
	if err != nil {
		return fmt.Errorf("could not connect to bridge: %v", err)
	}
	defer bridgeEnv.Close()

	// The actor's TanH output lies in [-1, 1]; the environment
	// receives actions scaled by actionScale
	trainEnv := wrappers.NewActionScale(bridgeEnv, actionScale)

	agent, err := ddpg.New(trainEnv, config, seed)
	if err != nil {
		return fmt.Errorf("could not create agent: %v", err)
	}
	defer agent.Close()

	returns := trackers.NewReturn(returnsFile)
	lengths := trackers.NewEpisodeLength(lengthsFile)

	fmt.Printf("Training for %d steps.\n", trainSteps)
	if _, err := experiment.Train(trainEnv, agent, trainSteps, window,
		logEvery, returns, lengths); err != nil {
		return err
	}

	// Evaluate on a fresh environment with rendering
	testBridgeEnv, _, err := gym.New(host, port, envName, discount)
	if err != nil {
		return fmt.Errorf("could not connect to bridge: %v", err)
	}
	defer testBridgeEnv.Close()
	testEnv := wrappers.NewActionScale(testBridgeEnv, actionScale)

	totalReward, totalSteps, err := experiment.Evaluate(testEnv, agent,
		true)
	if err != nil {
		return err
	}
	fmt.Printf(" Total steps: %d\t Total reward: %.2f\n", totalSteps,
		totalReward)

	url, err := testBridgeEnv.URL()
	if err != nil {
		return err
	}
	fmt.Println(url)

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
