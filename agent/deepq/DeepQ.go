// Package deepq implements the deep Q-learning algorithm
package deepq

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/mlexamples/gymrl/agent"
	"github.com/mlexamples/gymrl/agent/policy"
	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/expreplay"
	ts "github.com/mlexamples/gymrl/timestep"
)

// DeepQ implements the deep Q-learning algorithm with experience
// replay and a target network. The algorithm uses the MSE TD loss:
//
//	(r + γ * max_a' Q_target(s', a') - Q(s, a))²
//
// Action values are predicted by a multi-head MLP with one output per
// action. During training, actions are selected epsilon greedily with
// an optionally annealed epsilon; during evaluation, actions are
// selected greedily.
type DeepQ struct {
	// Action selection policies
	behaviourPolicy   agent.EGreedyNNPolicy // Behaviour egreedy policy
	behaviourPolicyVM G.VM
	targetPolicy      agent.EGreedyNNPolicy // Target greedy policy
	targetPolicyVM    G.VM

	// Policy for learning weights that takes in batches of inputs
	trainNet   agent.EGreedyNNPolicy
	trainNetVM G.VM
	solver     G.Solver // Adapts the weights of trainNet

	// Network that provides the update target for a batch of inputs.
	// Note that this is a target network, providing the update target.
	// It is not the network for the target policy.
	targetNet   agent.EGreedyNNPolicy
	targetNetVM G.VM

	// Variables to track target network updates
	tau                  float64 // Polyak averaging constant
	targetUpdateInterval int     // Gradient steps between target updates
	gradientSteps        int

	selectedActions *G.Node // One-hot actions taken at previous states
	numActions      int

	replay expreplay.ExperienceReplayer

	// nextStateActionValues is the input node in the graph of trainNet
	// that is given the action values of the next state, computed by
	// targetNet.
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node

	// Previous states and actions to add to the replay buffer
	prevStep   ts.TimeStep
	prevAction int
	nextStep   ts.TimeStep

	batchSize int
	annealing bool
	eval      bool
}

// New creates and returns a new DeepQ agent
func New(e env.Environment, config Config, seed int64) (*DeepQ, error) {
	// Ensure environment has discrete actions
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("deepq: cannot use non-discrete actions")
	}

	// Ensure actions are one-dimensional
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("deepq: actions must be 1-dimensional")
	}

	// Ensure actions are enumerated from 0
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("deepq: actions must be enumerated " +
			"starting from 0")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Extract configuration variables
	batchSize := config.BatchSize()
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	hiddenSizes := config.PolicyLayers
	biases := config.Biases
	activations := config.Activations
	init := config.InitWFn.InitWFn()

	// Behaviour network for selecting actions
	g := G.NewGraph()
	behaviourPolicy, err := policy.NewMultiHeadEGreedyMLP(
		config.Epsilon,
		e,
		1, // The behaviour policy selects a single action at a time
		g,
		hiddenSizes,
		biases,
		init,
		activations,
		seed,
	)
	if err != nil {
		return nil, err
	}
	if config.AnnealSteps > 0 {
		err := behaviourPolicy.SetAnnealing(config.MinEpsilon,
			config.AnnealSteps)
		if err != nil {
			return nil, fmt.Errorf("deepq: %v", err)
		}
	}
	behaviourPolicyVM := G.NewTapeMachine(g)

	// Create the target policy for greedy action selection
	targetPolicyClone, err := behaviourPolicy.ClonePolicy()
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create target policy: %v",
			err)
	}
	targetPolicy := targetPolicyClone.(agent.EGreedyNNPolicy)
	targetPolicy.SetEpsilon(0.0)
	targetPolicyVM := G.NewTapeMachine(targetPolicy.Network().Graph())

	// Create the target network which provides the update target
	targetNetClone, err := behaviourPolicy.ClonePolicyWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create target "+
			"network: %v", err)
	}
	targetNet := targetNetClone.(agent.EGreedyNNPolicy)
	targetNet.SetEpsilon(0.0)
	targetNetVM := G.NewTapeMachine(targetNet.Network().Graph())

	// Create a training network which learns the weights
	trainNetClone, err := behaviourPolicy.ClonePolicyWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create learning "+
			"network: %v", err)
	}
	trainNet := trainNetClone.(agent.EGreedyNNPolicy)
	gTrain := trainNet.Network().Graph()

	// Create nodes to compute the update target: r + γ max_a'[Q(s', a')]
	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	rewards := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("reward"))
	discounts := G.NewVector(gTrain, tensor.Float64,
		G.WithShape(batchSize), G.WithName("discount"))

	// Compute the update target
	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// Actions selected in the previous states, as one-hot vectors.
	// These pick out the single action value per row that the loss is
	// computed on, since the network outputs one value per action.
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batchSize, numActions),
	)
	selectedActionsValue := G.Must(G.HadamardProd(
		trainNet.Network().Prediction()[0], selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Compute the mean squared TD error
	losses := G.Must(G.Sub(updateTarget, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	_, err = G.Grad(cost, trainNet.Network().Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("deepq: could not compute gradient: %v",
			err)
	}

	// Compile the trainNet graph into a VM
	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Network().Learnables()...),
	)

	// Create the experience replay buffer. The buffer stores selected
	// actions as one-hot vectors.
	numFeatures := e.ObservationSpec().Shape.Len()
	replay, err := config.ExpReplay.Create(numFeatures, numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create experience "+
			"replay buffer: %v", err)
	}

	return &DeepQ{
		behaviourPolicy:       behaviourPolicy,
		behaviourPolicyVM:     behaviourPolicyVM,
		targetPolicy:          targetPolicy,
		targetPolicyVM:        targetPolicyVM,
		trainNet:              trainNet,
		trainNetVM:            trainNetVM,
		solver:                config.Solver,
		targetNet:             targetNet,
		targetNetVM:           targetNetVM,
		tau:                   config.Tau,
		targetUpdateInterval:  config.TargetUpdateInterval,
		selectedActions:       selectedActions,
		numActions:            numActions,
		replay:                replay,
		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,
		discounts:             discounts,
		batchSize:             batchSize,
		annealing:             config.AnnealSteps > 0,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DeepQ) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %d is not the first "+
			"of an episode", t.Number)
	}
	d.prevStep = ts.TimeStep{}
	d.nextStep = t
	return nil
}

// Observe observes and records any timestep other than the first
func (d *DeepQ) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods do not support "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}

	// Add to replay buffer
	if !d.nextStep.First() {
		prevAction := mat.NewVecDense(d.numActions, nil)
		prevAction.SetVec(d.prevAction, 1.0)

		nextAction := mat.NewVecDense(d.numActions, nil)
		nextAction.SetVec(int(action.AtVec(0)), 1.0)

		transition := ts.NewTransition(d.prevStep, prevAction, d.nextStep,
			nextAction)
		if err := d.replay.Add(transition); err != nil {
			return fmt.Errorf("observe: could not add to replay "+
				"buffer: %v", err)
		}
	}

	d.prevStep = d.nextStep
	d.nextStep = nextStep
	d.prevAction = int(action.AtVec(0))
	return nil
}

// Step updates the weights of the agent's policies
func (d *DeepQ) Step() error {
	if d.eval {
		return nil
	}

	// Don't update until the replay buffer has enough samples
	S, A, R, discount, NextS, _, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) ||
		expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("step: could not sample replay buffer: %v", err)
	}

	// Previous action one-hot vectors
	prevActions := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(A),
	)
	if err := G.Let(d.selectedActions, prevActions); err != nil {
		return fmt.Errorf("step: could not set selected actions: %v", err)
	}

	// Predict the action values in states S
	if err := d.trainNet.Network().SetInput(S); err != nil {
		return fmt.Errorf("step: could not set trainNet input: %v", err)
	}

	// Predict the action values in the next states NextS
	if err := d.targetNet.Network().SetInput(NextS); err != nil {
		return fmt.Errorf("step: could not set target net input: %v", err)
	}
	if err := d.targetNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run target network: %v", err)
	}

	// Set the action values for the actions in the next states
	err = G.Let(d.nextStateActionValues, d.targetNet.Network().Output()[0])
	if err != nil {
		return fmt.Errorf("step: could not set next state-action "+
			"values: %v", err)
	}

	rewardTensor := tensor.New(tensor.WithBacking(R),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.rewards, rewardTensor); err != nil {
		return fmt.Errorf("step: could not set rewards: %v", err)
	}

	discountTensor := tensor.New(tensor.WithBacking(discount),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.discounts, discountTensor); err != nil {
		return fmt.Errorf("step: could not set discounts: %v", err)
	}

	d.targetNetVM.Reset()

	// Run the learning step
	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run training network: %v", err)
	}
	if err := d.solver.Step(d.trainNet.Network().Model()); err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	d.trainNetVM.Reset()
	d.gradientSteps++

	// Update the target network by moving its weights toward the newly
	// learned weights
	if d.gradientSteps%d.targetUpdateInterval == 0 {
		if d.tau == 1.0 {
			err = d.targetNet.Network().Set(d.trainNet.Network())
		} else {
			err = d.targetNet.Network().Polyak(d.trainNet.Network(), d.tau)
		}
		if err != nil {
			return fmt.Errorf("step: could not update target "+
				"network: %v", err)
		}
	}

	// Action selection policies always use the latest weights
	err = d.targetPolicy.Network().Set(d.trainNet.Network())
	if err != nil {
		return fmt.Errorf("step: could not update target policy: %v", err)
	}
	err = d.behaviourPolicy.Network().Set(d.trainNet.Network())
	if err != nil {
		return fmt.Errorf("step: could not update behaviour policy: %v",
			err)
	}
	return nil
}

// SelectAction runs the necessary VMs and returns an action selected
// by the behaviour policy, or by the greedy target policy when in
// evaluation mode.
func (d *DeepQ) SelectAction(t ts.TimeStep) *mat.VecDense {
	var p agent.NNPolicy
	var vm G.VM

	if d.eval {
		p = d.targetPolicy
		vm = d.targetPolicyVM
	} else {
		p = d.behaviourPolicy
		vm = d.behaviourPolicyVM
	}

	obs := t.Observation.(*mat.VecDense).RawVector().Data
	if err := p.Network().SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	// Run the policy's computational graph
	if err := vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	action, _ := p.SelectAction()
	vm.Reset()

	if !d.eval && d.annealing {
		d.behaviourPolicy.Anneal()
	}
	return action
}

// Epsilon returns the current exploration rate of the behaviour policy
func (d *DeepQ) Epsilon() float64 {
	return d.behaviourPolicy.Epsilon()
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() { d.eval = true }

// Train sets the agent into training mode
func (d *DeepQ) Train() { d.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool { return d.eval }

// EndEpisode performs cleanup at the end of an episode
func (d *DeepQ) EndEpisode() {}

// Close releases the virtual machines backing the agent's
// computational graphs. The agent cannot learn or select actions
// after it has been closed.
func (d *DeepQ) Close() error {
	vms := []G.VM{d.behaviourPolicyVM, d.targetPolicyVM, d.trainNetVM,
		d.targetNetVM}
	for _, vm := range vms {
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return nil
}
