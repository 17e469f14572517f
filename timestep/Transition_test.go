package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewTransition(t *testing.T) {
	state := mat.NewVecDense(2, []float64{0.1, 0.2})
	nextState := mat.NewVecDense(2, []float64{0.3, 0.4})

	step := New(Mid, 0.0, 1.0, state, 3)
	nextStep := New(Mid, 1.5, 1.0, nextState, 4)

	transition := NewTransition(step, 1, nextStep, 0.99)
	if transition.Discount != 0.99 {
		t.Errorf("discount: got %v, want 0.99", transition.Discount)
	}
	if transition.Reward != 1.5 {
		t.Errorf("reward: got %v, want 1.5", transition.Reward)
	}
	if transition.Done {
		t.Error("mid-episode transition marked done")
	}
	if transition.Action != 1 {
		t.Errorf("action: got %v, want 1", transition.Action)
	}
	if transition.State.AtVec(0) != 0.1 ||
		transition.NextState.AtVec(1) != 0.4 {
		t.Error("transition states do not match input timesteps")
	}
}

func TestNewTransitionTerminal(t *testing.T) {
	state := mat.NewVecDense(1, []float64{0.0})
	nextState := mat.NewVecDense(1, []float64{1.0})

	step := New(Mid, 0.0, 1.0, state, 10)
	nextStep := New(Last, -1.0, 0.0, nextState, 11)

	transition := NewTransition(step, 0, nextStep, 0.99)
	if transition.Discount != 0.0 {
		t.Errorf("terminal discount: got %v, want 0", transition.Discount)
	}
	if !transition.Done {
		t.Error("terminal transition not marked done")
	}
}

func TestEnd(t *testing.T) {
	step := New(Mid, 0.0, 1.0, mat.NewVecDense(1, []float64{0.0}), 5)
	if step.Last() {
		t.Fatal("mid step reported as last")
	}
	step.End()
	if !step.Last() {
		t.Error("End did not mark the step as last")
	}
}
