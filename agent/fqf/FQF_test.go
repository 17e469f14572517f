package fqf

import (
	"testing"

	env "github.com/samuelfneumann/gofqf/environment"
	"github.com/samuelfneumann/gofqf/environment/cartpole"
	"github.com/samuelfneumann/gofqf/expreplay"
	"gonum.org/v1/gonum/spatial/r1"
	G "gorgonia.org/gorgonia"
)

// tinyConfig returns a configuration small enough to learn with in a
// unit test
func tinyConfig(t *testing.T) Config {
	t.Helper()

	config := DefaultConfig()
	config.EncoderLayers = []int{8}
	config.EmbeddingDim = 4
	config.QuantileLayers = []int{8}
	config.NumFractions = 4
	config.NumCosines = 8
	config.Replay = expreplay.Config{
		MaxReplayCapacity: 100,
		MinReplayCapacity: 4,
		BatchSize:         4,
		NStep:             1,
	}
	config.StartSteps = 8
	config.UpdatePeriod = 1
	config.TargetUpdatePeriod = 2
	return config
}

func newTestEnv(t *testing.T, seed uint64) env.Environment {
	t.Helper()

	bounds := make([]r1.Interval, cartpole.ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.05, Max: 0.05}
	}
	starter := env.NewUniformStarter(bounds, seed)
	task := cartpole.NewBalance(starter, 100, cartpole.FailAngle)
	e, _ := cartpole.New(task, 0.99)
	return e
}

func TestFQFInteraction(t *testing.T) {
	e := newTestEnv(t, 1)
	agent, err := New(e, tinyConfig(t), 14)
	if err != nil {
		t.Fatal(err)
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1

	step := e.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		action := agent.SelectAction(step)
		a := int(action.AtVec(0))
		if a < 0 || a >= numActions {
			t.Fatalf("selected action out of range: %v", a)
		}

		nextStep, last := e.Step(action)
		if err := agent.Observe(action, nextStep); err != nil {
			t.Fatal(err)
		}
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}

		step = nextStep
		if last {
			agent.EndEpisode()
			step = e.Reset()
			if err := agent.ObserveFirst(step); err != nil {
				t.Fatal(err)
			}
		}
	}

	if agent.learnSteps == 0 {
		t.Error("no learning steps were taken")
	}
}

func TestFQFEvalModeSkipsReplay(t *testing.T) {
	e := newTestEnv(t, 2)
	agent, err := New(e, tinyConfig(t), 14)
	if err != nil {
		t.Fatal(err)
	}

	agent.Eval()
	if !agent.IsEval() {
		t.Fatal("agent not in evaluation mode after Eval()")
	}

	step := e.Reset()
	agent.ObserveFirst(step)
	for i := 0; i < 5; i++ {
		action := agent.SelectAction(step)
		nextStep, last := e.Step(action)
		if err := agent.Observe(action, nextStep); err != nil {
			t.Fatal(err)
		}
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
		step = nextStep
		if last {
			step = e.Reset()
			agent.ObserveFirst(step)
		}
	}

	if agent.envSteps != 0 {
		t.Errorf("evaluation episodes were recorded: envSteps = %v",
			agent.envSteps)
	}
	if agent.learnSteps != 0 {
		t.Errorf("agent learned during evaluation: learnSteps = %v",
			agent.learnSteps)
	}

	agent.Train()
	if agent.IsEval() {
		t.Error("agent still in evaluation mode after Train()")
	}
}

func TestFQFGreedyWhenEpsilonZero(t *testing.T) {
	e := newTestEnv(t, 4)
	config := tinyConfig(t)
	config.EvalEpsilon = 0.0

	agent, err := New(e, config, 14)
	if err != nil {
		t.Fatal(err)
	}
	agent.Eval()

	step := e.Reset()
	obs := make([]float64, step.Observation.Len())
	for i := range obs {
		obs[i] = step.Observation.AtVec(i)
	}
	values := agent.model.ActionValues(obs)

	greedy := 0
	for a := 1; a < len(values); a++ {
		if values[a] > values[greedy] {
			greedy = a
		}
	}

	// With epsilon 0, selection is the deterministic argmax
	for i := 0; i < 10; i++ {
		action := int(agent.SelectAction(step).AtVec(0))
		if action != greedy {
			t.Fatalf("selected action %v, want greedy action %v", action,
				greedy)
		}
	}
}

func TestFQFSaveLoad(t *testing.T) {
	e := newTestEnv(t, 3)
	src, err := New(e, tinyConfig(t), 14)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := New(e, tinyConfig(t), 37)
	if err != nil {
		t.Fatal(err)
	}

	obs := []float64{0.01, -0.02, 0.03, -0.04}
	srcValues := src.model.ActionValues(obs)
	if len(srcValues) != src.numActions {
		t.Fatalf("action values: got %v values, want %v", len(srcValues),
			src.numActions)
	}

	dir := t.TempDir()
	if err := src.Save(dir); err != nil {
		t.Fatal(err)
	}
	if err := dst.Load(dir); err != nil {
		t.Fatal(err)
	}

	dstValues := dst.model.ActionValues(obs)
	for i := range srcValues {
		if srcValues[i] != dstValues[i] {
			t.Fatalf("action values differ at %v after Load: %v != %v", i,
				srcValues[i], dstValues[i])
		}
	}
}

// runSteps drives the agent through count environment interactions,
// resetting the environment at episode boundaries
func runSteps(t *testing.T, agent *FQF, e env.Environment, count int) {
	t.Helper()

	step := e.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < count; i++ {
		action := agent.SelectAction(step)
		nextStep, last := e.Step(action)
		if err := agent.Observe(action, nextStep); err != nil {
			t.Fatal(err)
		}
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
		step = nextStep
		if last {
			agent.EndEpisode()
			step = e.Reset()
			if err := agent.ObserveFirst(step); err != nil {
				t.Fatal(err)
			}
		}
	}
}

// snapshotLearnables copies the current value of each learnable node
func snapshotLearnables(t *testing.T, nodes G.Nodes) [][]float64 {
	t.Helper()

	snapshot := make([][]float64, len(nodes))
	for i, node := range nodes {
		data := node.Value().Data().([]float64)
		snapshot[i] = make([]float64, len(data))
		copy(snapshot[i], data)
	}
	return snapshot
}

func TestFQFTargetFrozenBetweenSyncs(t *testing.T) {
	e := newTestEnv(t, 5)
	config := tinyConfig(t)
	config.TargetUpdatePeriod = 1000

	agent, err := New(e, config, 14)
	if err != nil {
		t.Fatal(err)
	}
	if err := agent.model.SyncTarget(); err != nil {
		t.Fatal(err)
	}

	targetNodes := append(append(G.Nodes{},
		agent.model.targetEncoder.Learnables()...),
		agent.model.targetQNet.Learnables()...)
	onlineNodes := append(append(G.Nodes{},
		agent.model.encoder.Learnables()...),
		agent.model.quantileNet.Learnables()...)
	targetBefore := snapshotLearnables(t, targetNodes)
	onlineBefore := snapshotLearnables(t, onlineNodes)

	runSteps(t, agent, e, 20)
	if agent.learnSteps == 0 {
		t.Fatal("no learning steps were taken")
	}

	targetAfter := snapshotLearnables(t, targetNodes)
	for i := range targetBefore {
		for j := range targetBefore[i] {
			if targetAfter[i][j] != targetBefore[i][j] {
				t.Fatalf("target weights changed without a sync: "+
					"learnable %v index %v: %v != %v", i, j,
					targetAfter[i][j], targetBefore[i][j])
			}
		}
	}

	onlineAfter := snapshotLearnables(t, onlineNodes)
	changed := false
	for i := range onlineBefore {
		for j := range onlineBefore[i] {
			if onlineAfter[i][j] != onlineBefore[i][j] {
				changed = true
			}
		}
	}
	if !changed {
		t.Error("online weights did not change during learning")
	}
}

func TestFQFActionWeightsCurrentAfterLearning(t *testing.T) {
	e := newTestEnv(t, 6)
	agent, err := New(e, tinyConfig(t), 14)
	if err != nil {
		t.Fatal(err)
	}

	runSteps(t, agent, e, 20)
	if agent.learnSteps == 0 {
		t.Fatal("no learning steps were taken")
	}

	online := snapshotLearnables(t, append(append(G.Nodes{},
		agent.model.encoder.Learnables()...),
		agent.model.quantileNet.Learnables()...))
	act := snapshotLearnables(t, append(append(G.Nodes{},
		agent.model.actEncoder.Learnables()...),
		agent.model.actQNet.Learnables()...))

	for i := range online {
		for j := range online[i] {
			if act[i][j] != online[i][j] {
				t.Fatalf("action selection weights lag the online "+
					"weights: learnable %v index %v: %v != %v", i, j,
					act[i][j], online[i][j])
			}
		}
	}
}
