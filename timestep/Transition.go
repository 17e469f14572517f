package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together a single (s, a, r, s', done) tuple of
// the agent-environment interaction. The Discount field holds the
// bootstrap discount that should multiply any value estimated at
// NextState: it is 0 when the transition ends an episode.
type Transition struct {
	State     mat.Vector
	Action    int
	Reward    float64
	Discount  float64
	NextState mat.Vector
	Done      bool
}

// NewTransition packages two adjacent timesteps and the action taken
// between them into a Transition. The gamma parameter is the discount
// to bootstrap with when the transition does not end the episode.
func NewTransition(step TimeStep, action int, nextStep TimeStep,
	gamma float64) Transition {
	discount := gamma
	if nextStep.Last() {
		discount = 0.0
	}

	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		Discount:  discount,
		NextState: nextStep.Observation,
		Done:      nextStep.Last(),
	}
}
