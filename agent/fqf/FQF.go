// Package fqf implements an agent that learns a fully parameterized
// quantile function of the return: a fraction proposal network places
// the probability levels at which the return distribution is
// summarized, and a quantile value network estimates the return
// quantiles at those levels. Action values are Riemann sums of the
// quantile function, and the two networks are trained by separate
// solvers against the quantile regression objective.
package fqf

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/samuelfneumann/gofqf/environment"
	"github.com/samuelfneumann/gofqf/expreplay"
	ts "github.com/samuelfneumann/gofqf/timestep"
	"github.com/samuelfneumann/gofqf/tracker"
	"github.com/samuelfneumann/gofqf/utils/floatutils"
	"gonum.org/v1/gonum/mat"
)

// FQF implements the fully parameterized quantile function algorithm
type FQF struct {
	model  *valueModel
	replay expreplay.ExperienceReplayer

	numActions   int
	epsilon      float64
	evalEpsilon  float64
	gamma        float64
	entropyCoeff float64

	startSteps         int
	updatePeriod       int
	targetUpdatePeriod int

	envSteps   int
	learnSteps int

	// Previous state, to construct transitions for the replay buffer
	prevStep ts.TimeStep

	rng  *rand.Rand
	eval bool

	recorder  tracker.Recorder
	logPeriod int // Learning steps between metric records
}

// New creates and returns a new FQF agent
func New(env environment.Environment, config Config,
	seed int64) (*FQF, error) {
	// Ensure environment has discrete actions
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("fqf: cannot use non-discrete actions")
	}

	// Ensure actions are one-dimensional
	if env.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("fqf: actions must be 1-dimensional")
	}

	// Ensure actions are enumerated from 0
	if env.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("fqf: actions must be enumerated " +
			"starting from 0")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	numActions := int(env.ActionSpec().UpperBound.AtVec(0)) + 1
	numFeatures := env.ObservationSpec().Shape.Len()

	model, err := newValueModel(numFeatures, numActions, config)
	if err != nil {
		return nil, fmt.Errorf("fqf: %v", err)
	}

	replay, err := config.Replay.Create(numFeatures, config.Gamma, seed)
	if err != nil {
		return nil, fmt.Errorf("fqf: could not create experience replay "+
			"buffer: %v", err)
	}

	return &FQF{
		model:  model,
		replay: replay,

		numActions:   numActions,
		epsilon:      config.Epsilon,
		evalEpsilon:  config.EvalEpsilon,
		gamma:        config.Gamma,
		entropyCoeff: config.EntropyCoeff,

		startSteps:         config.StartSteps,
		updatePeriod:       config.UpdatePeriod,
		targetUpdatePeriod: config.TargetUpdatePeriod,

		rng:       rand.New(rand.NewSource(seed)),
		logPeriod: 1,
	}, nil
}

// SetRecorder sets the Recorder that learning metrics are reported to,
// recording once every period learning steps
func (f *FQF) SetRecorder(recorder tracker.Recorder, period int) {
	if period < 1 {
		period = 1
	}
	f.recorder = recorder
	f.logPeriod = period
}

// ObserveFirst observes and records the first episodic timestep
func (f *FQF) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n",
			t.Number)
	}
	f.prevStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep. During evaluation, observed transitions are discarded so
// that evaluation episodes never reach the replay buffer.
func (f *FQF) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods cannot have "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}

	if !f.eval {
		transition := ts.NewTransition(f.prevStep, int(action.AtVec(0)),
			nextStep, f.gamma)
		if err := f.replay.Add(transition); err != nil {
			return fmt.Errorf("observe: could not add to replay "+
				"buffer: %v", err)
		}
		f.envSteps++
	}

	f.prevStep = nextStep
	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (f *FQF) EndEpisode() {}

// Step updates the weights of the agent's networks. Nothing happens
// before the warmup period ends or between scheduled learning steps.
func (f *FQF) Step() error {
	if f.eval {
		return nil
	}
	if f.envSteps < f.startSteps || f.envSteps%f.updatePeriod != 0 {
		return nil
	}

	states, actions, rewards, discounts, nextStates, err := f.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("step: could not sample replay buffer: %v", err)
	}

	// The target network is synced before the learning step so that
	// the step's regression targets come from the freshly synced
	// weights
	f.learnSteps++
	if f.learnSteps%f.targetUpdatePeriod == 0 {
		if err := f.model.SyncTarget(); err != nil {
			return fmt.Errorf("step: %v", err)
		}
	}

	stats, err := f.model.Learn(states, actions, rewards, discounts,
		nextStates)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}

	if f.recorder != nil && f.learnSteps%f.logPeriod == 0 {
		f.recorder.Scalar("loss/fraction_loss", f.envSteps,
			stats.FractionLoss)
		f.recorder.Scalar("loss/quantile_loss", f.envSteps,
			stats.QuantileLoss)
		f.recorder.Scalar("loss/entropy_loss", f.envSteps,
			-f.entropyCoeff*stats.Entropy)
		f.recorder.Scalar("stats/mean_Q", f.envSteps, stats.MeanQ)
		f.recorder.Scalar("stats/entropy", f.envSteps, stats.Entropy)
	}
	return nil
}

// SelectAction returns an action selected by the ε-greedy behaviour
// policy, or by the near-greedy evaluation policy in evaluation mode.
// During the warmup period actions are uniformly random.
func (f *FQF) SelectAction(t ts.TimeStep) *mat.VecDense {
	epsilon := f.epsilon
	if f.eval {
		epsilon = f.evalEpsilon
	} else if f.envSteps < f.startSteps {
		epsilon = 1.0
	}

	var action int
	if f.rng.Float64() < epsilon {
		action = f.rng.Intn(f.numActions)
	} else {
		obs := make([]float64, t.Observation.Len())
		for i := range obs {
			obs[i] = t.Observation.AtVec(i)
		}
		action = floatutils.ArgMax(f.model.ActionValues(obs))
	}

	return mat.NewVecDense(1, []float64{float64(action)})
}

// Eval sets the agent to evaluation mode
func (f *FQF) Eval() { f.eval = true }

// Train sets the agent to training mode
func (f *FQF) Train() { f.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (f *FQF) IsEval() bool { return f.eval }

// Save writes the weights of the agent's networks to the directory dir
func (f *FQF) Save(dir string) error {
	return f.model.Save(dir)
}

// Load restores the weights of the agent's networks from a directory
// written by Save
func (f *FQF) Load(dir string) error {
	return f.model.Load(dir)
}
