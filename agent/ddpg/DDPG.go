// Package ddpg implements the deep deterministic policy gradient
// algorithm
package ddpg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/mlexamples/gymrl/agent/policy"
	env "github.com/mlexamples/gymrl/environment"
	"github.com/mlexamples/gymrl/expreplay"
	"github.com/mlexamples/gymrl/network"
	ts "github.com/mlexamples/gymrl/timestep"
	"github.com/mlexamples/gymrl/utils/floatutils"
)

// DDPG implements the deep deterministic policy gradient algorithm
// for continuous action spaces.
//
// A deterministic actor μ(s) and a critic Q(s, a) are learned
// together. The critic is regressed toward the bootstrapped target
//
//	y = r + γ * Q_target(s', μ_target(s'))
//
// with an MSE loss, and the actor follows the deterministic policy
// gradient by minimizing -mean(Q(s, μ(s))) with gradients taken only
// through the actor's weights. Target copies of both networks track
// the learned weights with polyak averaging. During training,
// Ornstein-Uhlenbeck noise is added to the actor's output and the
// result is clipped to the environment's action bounds.
//
// Four computational graphs are maintained: the behaviour actor
// (batch 1) for action selection, the critic together with its MSE
// loss, the policy improvement graph on which the critic is rebuilt
// on top of the training actor's output, and the target graph on
// which the target critic reads the target actor's output.
type DDPG struct {
	// Action selection
	behaviour   *policy.DeterministicActorMLP
	behaviourVM G.VM
	noise       *OUNoise

	// Critic and its loss graph
	critic        network.NeuralNet
	criticVM      G.VM
	criticSolver  G.Solver
	criticStates  *G.Node
	criticActions *G.Node
	criticTarget  *G.Node

	// Policy improvement graph: the training actor feeds a copy of
	// the critic, whose weights are refreshed from the critic before
	// each actor update
	trainActor  network.NeuralNet
	actorCritic network.NeuralNet
	actorVM     G.VM
	actorSolver G.Solver

	// Target networks, sharing one graph so a single VM run computes
	// Q_target(s', μ_target(s'))
	targetActor  network.NeuralNet
	targetCritic network.NeuralNet
	targetVM     G.VM

	tau                float64
	targetSyncInterval int
	updateInterval     int
	gradientSteps      int
	envSteps           int

	replay expreplay.ExperienceReplayer

	prevStep   ts.TimeStep
	prevAction *mat.VecDense
	nextStep   ts.TimeStep

	actionDims int
	lowerBound mat.Vector
	upperBound mat.Vector
	batchSize  int
	eval       bool
}

// New creates and returns a new DDPG agent
func New(e env.Environment, config Config, seed int64) (*DDPG, error) {
	if e.ActionSpec().Cardinality != env.Continuous {
		return nil, fmt.Errorf("ddpg: cannot use non-continuous actions")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	batchSize := config.BatchSize()
	features := e.ObservationSpec().Shape.Len()
	actionDims := e.ActionSpec().Shape.Len()
	init := config.InitWFn.InitWFn()

	// Behaviour actor for selecting single actions
	gBehaviour := G.NewGraph()
	behaviour, err := policy.NewDeterministicActorMLP(e, 1, gBehaviour,
		config.ActorLayers, config.ActorBiases, init,
		config.ActorActivations, "Actor", "")
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create actor: %v", err)
	}
	behaviourVM := G.NewTapeMachine(gBehaviour)

	// Critic and its MSE loss toward an externally computed target
	gCritic := G.NewGraph()
	criticStates := G.NewMatrix(gCritic, tensor.Float64,
		G.WithShape(batchSize, features), G.WithName("CriticStates"),
		G.WithInit(G.Zeroes()))
	criticActions := G.NewMatrix(gCritic, tensor.Float64,
		G.WithShape(batchSize, actionDims), G.WithName("CriticActions"),
		G.WithInit(G.Zeroes()))

	critic, err := network.NewMultiHeadMLPFromInputs(
		[]*G.Node{criticStates, criticActions}, 1, gCritic,
		config.CriticLayers, config.CriticBiases, init,
		config.CriticActivations, "Critic", "", true)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create critic: %v", err)
	}

	criticTarget := G.NewMatrix(gCritic, tensor.Float64,
		G.WithShape(critic.Prediction()[0].Shape()...),
		G.WithName("CriticUpdateTarget"))
	criticLoss := G.Must(G.Sub(critic.Prediction()[0], criticTarget))
	criticLoss = G.Must(G.Square(criticLoss))
	criticLoss = G.Must(G.Mean(criticLoss))

	if _, err := G.Grad(criticLoss, critic.Learnables()...); err != nil {
		return nil, fmt.Errorf("ddpg: could not compute critic "+
			"gradient: %v", err)
	}
	criticVM := G.NewTapeMachine(gCritic,
		G.BindDualValues(critic.Learnables()...))

	// Policy improvement graph. The critic copy reads the training
	// actor's output, so the deterministic policy gradient flows back
	// through the critic into the actor's weights; only the actor's
	// weights are updated on this graph.
	gActor := G.NewGraph()
	actorStates := G.NewMatrix(gActor, tensor.Float64,
		G.WithShape(batchSize, features), G.WithName("ActorStates"),
		G.WithInit(G.Zeroes()))

	trainActor, err := behaviour.Network().CloneWithInputsTo(1,
		[]*G.Node{actorStates}, gActor)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create training "+
			"actor: %v", err)
	}

	actorCritic, err := critic.CloneWithInputsTo(1,
		[]*G.Node{actorStates, trainActor.Prediction()[0]}, gActor)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not connect critic to "+
			"actor: %v", err)
	}

	actorLoss := G.Must(G.Mean(actorCritic.Prediction()[0]))
	actorLoss = G.Must(G.Neg(actorLoss))

	if _, err := G.Grad(actorLoss, trainActor.Learnables()...); err != nil {
		return nil, fmt.Errorf("ddpg: could not compute actor "+
			"gradient: %v", err)
	}
	actorVM := G.NewTapeMachine(gActor,
		G.BindDualValues(trainActor.Learnables()...))

	// Target networks
	gTarget := G.NewGraph()
	targetStates := G.NewMatrix(gTarget, tensor.Float64,
		G.WithShape(batchSize, features), G.WithName("TargetStates"),
		G.WithInit(G.Zeroes()))

	targetActor, err := behaviour.Network().CloneWithInputsTo(1,
		[]*G.Node{targetStates}, gTarget)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create target actor: %v",
			err)
	}

	targetCritic, err := critic.CloneWithInputsTo(1,
		[]*G.Node{targetStates, targetActor.Prediction()[0]}, gTarget)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create target "+
			"critic: %v", err)
	}
	targetVM := G.NewTapeMachine(gTarget)

	// Experience replay. Next actions are not stored: the target
	// actor recomputes them.
	replay, err := config.ExpReplay.Create(features, actionDims, seed)
	if err != nil {
		return nil, fmt.Errorf("ddpg: could not create experience "+
			"replay buffer: %v", err)
	}

	noise := NewOUNoise(actionDims, config.NoiseMu, config.NoiseTheta,
		config.NoiseSigma, uint64(seed))

	return &DDPG{
		behaviour:   behaviour,
		behaviourVM: behaviourVM,
		noise:       noise,

		critic:        critic,
		criticVM:      criticVM,
		criticSolver:  config.CriticSolver,
		criticStates:  criticStates,
		criticActions: criticActions,
		criticTarget:  criticTarget,

		trainActor:  trainActor,
		actorCritic: actorCritic,
		actorVM:     actorVM,
		actorSolver: config.ActorSolver,

		targetActor:  targetActor,
		targetCritic: targetCritic,
		targetVM:     targetVM,

		tau:                config.Tau,
		targetSyncInterval: config.TargetSyncInterval,
		updateInterval:     config.UpdateInterval,

		replay: replay,

		actionDims: actionDims,
		lowerBound: e.ActionSpec().LowerBound,
		upperBound: e.ActionSpec().UpperBound,
		batchSize:  batchSize,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep,
// resetting the exploration noise process for the new episode
func (d *DDPG) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %d is not the first "+
			"of an episode", t.Number)
	}
	d.prevStep = ts.TimeStep{}
	d.nextStep = t
	d.noise.Reset()
	return nil
}

// Observe observes and records any timestep other than the first
func (d *DDPG) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != d.actionDims {
		return fmt.Errorf("observe: invalid action dimensions "+
			"\n\twant(%v)\n\thave(%v)", d.actionDims, action.Len())
	}

	if !d.nextStep.First() {
		// The next action is recomputed by the target actor during
		// updates, so a zero placeholder is stored
		nextAction := mat.NewVecDense(d.actionDims, nil)
		transition := ts.NewTransition(d.prevStep, d.prevAction,
			d.nextStep, nextAction)
		if err := d.replay.Add(transition); err != nil {
			return fmt.Errorf("observe: could not add to replay "+
				"buffer: %v", err)
		}
	}

	d.prevStep = d.nextStep
	d.nextStep = nextStep
	d.prevAction = mat.VecDenseCopyOf(action)
	return nil
}

// Step updates the weights of the agent's actor and critic
func (d *DDPG) Step() error {
	if d.eval {
		return nil
	}

	d.envSteps++
	if d.envSteps%d.updateInterval != 0 {
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

	// Compute Q_target(s', μ_target(s'))
	if err := d.targetActor.SetInput(NextS); err != nil {
		return fmt.Errorf("step: could not set target actor input: %v",
			err)
	}
	if err := d.targetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run target networks: %v", err)
	}
	nextQ := d.targetCritic.Output()[0].Data().([]float64)
	d.targetVM.Reset()

	// Bootstrapped critic target y = r + γ * Q_target(s', μ_target(s'))
	target := make([]float64, d.batchSize)
	for i := range target {
		target[i] = R[i] + discount[i]*nextQ[i]
	}

	// Critic update
	states := tensor.New(tensor.WithShape(d.batchSize,
		d.critic.Features()-d.actionDims), tensor.WithBacking(S))
	if err := G.Let(d.criticStates, states); err != nil {
		return fmt.Errorf("step: could not set critic states: %v", err)
	}
	actions := tensor.New(tensor.WithShape(d.batchSize, d.actionDims),
		tensor.WithBacking(A))
	if err := G.Let(d.criticActions, actions); err != nil {
		return fmt.Errorf("step: could not set critic actions: %v", err)
	}
	targetTensor := tensor.New(tensor.WithShape(d.batchSize, 1),
		tensor.WithBacking(target))
	if err := G.Let(d.criticTarget, targetTensor); err != nil {
		return fmt.Errorf("step: could not set critic target: %v", err)
	}

	if err := d.criticVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run critic: %v", err)
	}
	if err := d.criticSolver.Step(d.critic.Model()); err != nil {
		return fmt.Errorf("step: could not step critic solver: %v", err)
	}
	d.criticVM.Reset()

	// Actor update with the freshly learned critic weights
	if err := d.actorCritic.Set(d.critic); err != nil {
		return fmt.Errorf("step: could not refresh actor's critic: %v",
			err)
	}
	if err := d.trainActor.SetInput(S); err != nil {
		return fmt.Errorf("step: could not set training actor "+
			"input: %v", err)
	}
	if err := d.actorVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run actor: %v", err)
	}
	if err := d.actorSolver.Step(d.trainActor.Model()); err != nil {
		return fmt.Errorf("step: could not step actor solver: %v", err)
	}
	d.actorVM.Reset()
	d.gradientSteps++

	// The behaviour actor always uses the latest weights
	if err := d.behaviour.Network().Set(d.trainActor); err != nil {
		return fmt.Errorf("step: could not update behaviour actor: %v",
			err)
	}

	// Move the target networks toward the learned weights
	if d.gradientSteps%d.targetSyncInterval == 0 {
		if err := d.syncTargets(); err != nil {
			return fmt.Errorf("step: %v", err)
		}
	}
	return nil
}

// syncTargets updates the target networks toward the learned weights
func (d *DDPG) syncTargets() error {
	if d.tau == 1.0 {
		if err := d.targetActor.Set(d.trainActor); err != nil {
			return fmt.Errorf("could not update target actor: %v", err)
		}
		return d.targetCritic.Set(d.critic)
	}

	if err := d.targetActor.Polyak(d.trainActor, d.tau); err != nil {
		return fmt.Errorf("could not update target actor: %v", err)
	}
	return d.targetCritic.Polyak(d.critic, d.tau)
}

// SelectAction runs the behaviour actor and returns its action. In
// training mode, Ornstein-Uhlenbeck noise is added to the action
// before clipping it to the environment's action bounds.
func (d *DDPG) SelectAction(t ts.TimeStep) *mat.VecDense {
	obs := t.Observation.(*mat.VecDense).RawVector().Data
	if err := d.behaviour.Network().SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	if err := d.behaviourVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	action, _ := d.behaviour.SelectAction()
	d.behaviourVM.Reset()

	if !d.eval {
		noise := d.noise.Sample()
		for i := 0; i < d.actionDims; i++ {
			noisy := floatutils.Clip(action.AtVec(i)+noise[i],
				d.lowerBound.AtVec(i), d.upperBound.AtVec(i))
			action.SetVec(i, noisy)
		}
	}

	return action
}

// Eval sets the agent into evaluation mode
func (d *DDPG) Eval() { d.eval = true }

// Train sets the agent into training mode
func (d *DDPG) Train() { d.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (d *DDPG) IsEval() bool { return d.eval }

// EndEpisode performs cleanup at the end of an episode
func (d *DDPG) EndEpisode() {}

// Close releases the virtual machines backing the agent's
// computational graphs. The agent cannot learn or select actions
// after it has been closed.
func (d *DDPG) Close() error {
	vms := []G.VM{d.behaviourVM, d.criticVM, d.actorVM, d.targetVM}
	for _, vm := range vms {
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return nil
}
