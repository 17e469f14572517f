// Package experiment implements functionality for running an
// agent-environment interaction loop and tracking the data it
// generates.
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/gofqf/agent"
	env "github.com/samuelfneumann/gofqf/environment"
	"github.com/samuelfneumann/gofqf/experiment/checkpointer"
	"github.com/samuelfneumann/gofqf/tracker"
	"gonum.org/v1/gonum/stat"
)

// Default evaluation settings
const (
	EvalEpisodes      int = 5
	TrainReturnWindow int = 100
)

// Online is an Experiment that trains an agent online, periodically
// pausing training to evaluate the agent's near-greedy policy on a
// separate copy of the environment.
type Online struct {
	environment env.Environment
	evalEnv     env.Environment
	agent       agent.Agent

	maxSteps     int
	currentSteps int

	evalInterval int // Environment steps between evaluations
	evalEpisodes int

	recorder      tracker.Recorder
	trainReturn   *tracker.RunningMean
	checkpointers []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment training the
// agent a on environment e for the given number of steps. Every
// evalInterval steps, the agent is evaluated for EvalEpisodes episodes
// on evalEnv; evalEnv must be a separate instance so evaluation never
// disturbs the training episode's state. Metrics are reported to the
// recorder and each checkpointer runs once per environment step.
func NewOnline(e, evalEnv env.Environment, a agent.Agent, steps,
	evalInterval int, recorder tracker.Recorder,
	checkpointers ...checkpointer.Checkpointer) *Online {
	return &Online{
		environment:   e,
		evalEnv:       evalEnv,
		agent:         a,
		maxSteps:      steps,
		evalInterval:  evalInterval,
		evalEpisodes:  EvalEpisodes,
		recorder:      recorder,
		trainReturn:   tracker.NewRunningMean(TrainReturnWindow),
		checkpointers: checkpointers,
	}
}

// RunEpisode runs a single training episode, returning whether the
// experiment's step limit has been reached
func (o *Online) RunEpisode() (bool, error) {
	step := o.environment.Reset()
	if err := o.agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runepisode: %v", err)
	}
	episodeReturn := 0.0

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in environment
		action := o.agent.SelectAction(step)
		step, _ = o.environment.Step(action)
		episodeReturn += step.Reward

		// Observe the timestep and step the agent
		if err := o.agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}
		if err := o.agent.Step(); err != nil {
			return false, fmt.Errorf("runepisode: %v", err)
		}

		if o.evalInterval > 0 && o.currentSteps%o.evalInterval == 0 {
			if err := o.evaluate(); err != nil {
				return false, fmt.Errorf("runepisode: %v", err)
			}
		}
		for _, c := range o.checkpointers {
			if err := c.Checkpoint(o.currentSteps); err != nil {
				return false, fmt.Errorf("runepisode: could not "+
					"checkpoint: %v", err)
			}
		}
	}

	if step.Last() {
		o.trainReturn.Add(episodeReturn)
		if o.recorder != nil {
			o.recorder.Scalar("reward/train", o.currentSteps,
				o.trainReturn.Mean())
		}
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	ended := false
	var err error

	for !ended {
		if ended, err = o.RunEpisode(); err != nil {
			return err
		}
	}

	if o.recorder != nil {
		return o.recorder.Save()
	}
	return nil
}

// evaluate runs the agent's evaluation policy for a fixed number of
// episodes on the evaluation environment and reports the mean and
// population standard deviation of the episodic returns
func (o *Online) evaluate() error {
	o.agent.Eval()
	defer o.agent.Train()

	returns := make([]float64, o.evalEpisodes)
	for i := range returns {
		step := o.evalEnv.Reset()
		if err := o.agent.ObserveFirst(step); err != nil {
			return fmt.Errorf("evaluate: %v", err)
		}

		for !step.Last() {
			action := o.agent.SelectAction(step)
			step, _ = o.evalEnv.Step(action)
			returns[i] += step.Reward

			if err := o.agent.Observe(action, step); err != nil {
				return fmt.Errorf("evaluate: %v", err)
			}
		}
	}

	if o.recorder != nil {
		o.recorder.Scalar("reward/test", o.currentSteps,
			stat.Mean(returns, nil))
		o.recorder.Scalar("reward/test_std", o.currentSteps,
			stat.PopStdDev(returns, nil))
	}
	return nil
}

// Evaluate runs a standalone evaluation of the agent, returning the
// mean and population standard deviation of the episodic returns over
// episodes episodes
func Evaluate(evalEnv env.Environment, a agent.Agent,
	episodes int) (mean, stdDev float64, err error) {
	a.Eval()
	defer a.Train()

	returns := make([]float64, episodes)
	for i := range returns {
		step := evalEnv.Reset()
		if err := a.ObserveFirst(step); err != nil {
			return 0, 0, fmt.Errorf("evaluate: %v", err)
		}

		for !step.Last() {
			action := a.SelectAction(step)
			step, _ = evalEnv.Step(action)
			returns[i] += step.Reward

			if err := a.Observe(action, step); err != nil {
				return 0, 0, fmt.Errorf("evaluate: %v", err)
			}
		}
	}

	return stat.Mean(returns, nil), stat.PopStdDev(returns, nil), nil
}
