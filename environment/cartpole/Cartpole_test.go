package cartpole

import (
	"math"
	"testing"

	env "github.com/samuelfneumann/gofqf/environment"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newTestCartpole(t *testing.T, episodeSteps int) *Cartpole {
	t.Helper()

	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.05, Max: 0.05}
	}
	starter := env.NewUniformStarter(bounds, 1)
	task := NewBalance(starter, episodeSteps, FailAngle)

	cartpole, step := New(task, 0.99)
	if !step.First() {
		t.Fatal("initial timestep is not a First step")
	}
	if step.Observation.Len() != ObservationDims {
		t.Fatalf("observation dims: got %v, want %v",
			step.Observation.Len(), ObservationDims)
	}
	return cartpole
}

func TestCartpoleSpecs(t *testing.T) {
	cartpole := newTestCartpole(t, 500)

	actionSpec := cartpole.ActionSpec()
	if actionSpec.Cardinality != env.Discrete {
		t.Error("action spec is not discrete")
	}
	if actionSpec.LowerBound.AtVec(0) != float64(MinDiscreteAction) ||
		actionSpec.UpperBound.AtVec(0) != float64(MaxDiscreteAction) {
		t.Errorf("action bounds: got [%v, %v], want [%v, %v]",
			actionSpec.LowerBound.AtVec(0), actionSpec.UpperBound.AtVec(0),
			MinDiscreteAction, MaxDiscreteAction)
	}

	obsSpec := cartpole.ObservationSpec()
	if obsSpec.Shape.Len() != ObservationDims {
		t.Errorf("observation shape: got %v, want %v", obsSpec.Shape.Len(),
			ObservationDims)
	}
}

func TestCartpoleEpisodeTerminates(t *testing.T) {
	episodeSteps := 50
	cartpole := newTestCartpole(t, episodeSteps)

	// Pushing in one direction tips the pole over well before the
	// step limit, but either ender may fire first.
	action := mat.NewVecDense(1, []float64{0})
	for i := 0; i < episodeSteps; i++ {
		step, last := cartpole.Step(action)
		if step.Reward != 1.0 && step.Reward != -1.0 {
			t.Errorf("reward: got %v, want +/- 1.0", step.Reward)
		}
		if math.Abs(step.Observation.AtVec(2)) > FailAngle+1e-8 && !last {
			t.Fatal("episode continued past the failure angle")
		}
		if last {
			if !step.Last() {
				t.Error("final step not marked Last")
			}
			return
		}
	}
	t.Error("episode did not terminate within the step limit")
}

func TestCartpoleReset(t *testing.T) {
	cartpole := newTestCartpole(t, 500)

	action := mat.NewVecDense(1, []float64{1})
	for i := 0; i < 10; i++ {
		cartpole.Step(action)
	}

	step := cartpole.Reset()
	if !step.First() {
		t.Error("reset did not produce a First step")
	}
	for i := 0; i < ObservationDims; i++ {
		if math.Abs(step.Observation.AtVec(i)) > 0.05+1e-12 {
			t.Errorf("start state feature %v out of bounds: %v", i,
				step.Observation.AtVec(i))
		}
	}
}
