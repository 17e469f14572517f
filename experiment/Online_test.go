package experiment

import (
	"math"
	"testing"

	env "github.com/samuelfneumann/gofqf/environment"
	"github.com/samuelfneumann/gofqf/environment/cartpole"
	ts "github.com/samuelfneumann/gofqf/timestep"
	"github.com/samuelfneumann/gofqf/tracker"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// constantAgent always selects the same action and never learns
type constantAgent struct {
	action int
	steps  int
	eval   bool
}

func (c *constantAgent) Step() error { c.steps++; return nil }

func (c *constantAgent) Observe(_ mat.Vector, _ ts.TimeStep) error {
	return nil
}

func (c *constantAgent) ObserveFirst(_ ts.TimeStep) error { return nil }

func (c *constantAgent) EndEpisode() {}

func (c *constantAgent) SelectAction(_ ts.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(c.action)})
}

func (c *constantAgent) Eval()        { c.eval = true }
func (c *constantAgent) Train()       { c.eval = false }
func (c *constantAgent) IsEval() bool { return c.eval }

func newTestEnv(t *testing.T, seed uint64, episodeSteps int) env.Environment {
	t.Helper()

	bounds := make([]r1.Interval, cartpole.ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.05, Max: 0.05}
	}
	starter := env.NewUniformStarter(bounds, seed)
	task := cartpole.NewBalance(starter, episodeSteps, cartpole.FailAngle)
	e, _ := cartpole.New(task, 0.99)
	return e
}

func TestOnlineRun(t *testing.T) {
	trainEnv := newTestEnv(t, 1, 10)
	evalEnv := newTestEnv(t, 2, 10)
	agent := &constantAgent{action: 1}
	recorder := tracker.NewGob(t.TempDir() + "/metrics.bin")

	maxSteps := 50
	experiment := NewOnline(trainEnv, evalEnv, agent, maxSteps, 25,
		recorder)
	if err := experiment.Run(); err != nil {
		t.Fatal(err)
	}

	if agent.steps != maxSteps {
		t.Errorf("agent steps: got %v, want %v", agent.steps, maxSteps)
	}
	if agent.IsEval() {
		t.Error("agent left in evaluation mode after the experiment")
	}

	if len(recorder.Series("reward/train")) == 0 {
		t.Error("no training returns recorded")
	}
	testSeries := recorder.Series("reward/test")
	if len(testSeries) != 2 {
		t.Errorf("evaluations in %v steps at interval 25: got %v, want 2",
			maxSteps, len(testSeries))
	}
	if len(recorder.Series("reward/test_std")) != len(testSeries) {
		t.Error("test return deviations not recorded with test returns")
	}
}

func TestEvaluate(t *testing.T) {
	evalEnv := newTestEnv(t, 3, 10)
	agent := &constantAgent{action: 1}

	mean, stdDev, err := Evaluate(evalEnv, agent, 4)
	if err != nil {
		t.Fatal(err)
	}

	// Each 10-step episode earns a +/- 1 reward per step
	if mean < -10 || mean > 10 {
		t.Errorf("mean return out of range: %v", mean)
	}
	if stdDev < 0 || math.IsNaN(stdDev) {
		t.Errorf("invalid return deviation: %v", stdDev)
	}
	if agent.IsEval() {
		t.Error("Evaluate did not restore training mode")
	}
}
