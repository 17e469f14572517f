package expreplay

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gofqf/timestep"
	"gonum.org/v1/gonum/mat"
)

const testGamma float64 = 0.99

// transition returns a single-step transition with constant state
// vectors and the given reward
func transition(state, reward float64, done bool) timestep.Transition {
	discount := testGamma
	if done {
		discount = 0.0
	}
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{state, state}),
		Action:    1,
		Reward:    reward,
		Discount:  discount,
		NextState: mat.NewVecDense(2, []float64{state + 1, state + 1}),
		Done:      done,
	}
}

func TestSampleErrors(t *testing.T) {
	buffer, err := New(2, 10, 2, 1, 2, testGamma, 1)
	if err != nil {
		t.Fatal(err)
	}

	_, _, _, _, _, err = buffer.Sample()
	if !IsEmptyBuffer(err) {
		t.Errorf("expected empty buffer error, got %v", err)
	}

	buffer.Add(transition(0, 1, false))
	_, _, _, _, _, err = buffer.Sample()
	if !IsInsufficientSamples(err) {
		t.Errorf("expected insufficient samples error, got %v", err)
	}

	buffer.Add(transition(1, 1, false))
	_, _, _, _, _, err = buffer.Sample()
	if err != nil {
		t.Errorf("expected successful sample, got %v", err)
	}
}

func TestMultiStepAggregation(t *testing.T) {
	// With a 3-step horizon, three unit rewards aggregate to
	// 1 + γ + γ², and the bootstrap discount is γ³
	buffer, err := New(1, 10, 1, 3, 2, testGamma, 1)
	if err != nil {
		t.Fatal(err)
	}

	buffer.Add(transition(0, 1, false))
	buffer.Add(transition(1, 1, false))
	if buffer.Capacity() != 0 {
		t.Fatalf("aggregated before %v transitions arrived", 3)
	}

	buffer.Add(transition(2, 1, false))
	if buffer.Capacity() != 1 {
		t.Fatalf("expected 1 stored transition, got %v", buffer.Capacity())
	}

	states, actions, rewards, discounts, nextStates, err := buffer.Sample()
	if err != nil {
		t.Fatal(err)
	}

	wantReward := 1.0 + testGamma + testGamma*testGamma // 2.9701
	if math.Abs(rewards[0]-wantReward) > 1e-12 {
		t.Errorf("aggregated reward: got %v, want %v", rewards[0],
			wantReward)
	}
	wantDiscount := math.Pow(testGamma, 3) // 0.970299
	if math.Abs(discounts[0]-wantDiscount) > 1e-12 {
		t.Errorf("aggregated discount: got %v, want %v", discounts[0],
			wantDiscount)
	}
	if states[0] != 0 || states[1] != 0 {
		t.Errorf("stored state should be the oldest state, got %v",
			states[:2])
	}
	if nextStates[0] != 3 || nextStates[1] != 3 {
		t.Errorf("bootstrap state should be the newest next state, got %v",
			nextStates[:2])
	}
	if actions[0] != 1 {
		t.Errorf("stored action: got %v, want 1", actions[0])
	}
}

func TestTerminalFlush(t *testing.T) {
	// A terminal transition flushes every pending transition with a
	// shortened horizon and zero bootstrap discount
	buffer, err := New(1, 10, 1, 3, 2, testGamma, 1)
	if err != nil {
		t.Fatal(err)
	}

	buffer.Add(transition(0, 1, false))
	buffer.Add(transition(1, 2, true))

	// Two pending transitions flush: (r=1 + γ·2) and (r=2)
	if buffer.Capacity() != 2 {
		t.Fatalf("expected 2 stored transitions, got %v", buffer.Capacity())
	}
}

func TestRingOverwrite(t *testing.T) {
	buffer, err := New(1, 2, 1, 1, 2, testGamma, 1)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		buffer.Add(transition(float64(i), float64(i), false))
	}

	if buffer.Capacity() != buffer.MaxCapacity() {
		t.Fatalf("expected full buffer, got capacity %v", buffer.Capacity())
	}

	// Only the two newest transitions (rewards 3 and 4) remain
	seen := map[float64]bool{}
	for i := 0; i < 100; i++ {
		_, _, rewards, _, _, err := buffer.Sample()
		if err != nil {
			t.Fatal(err)
		}
		seen[rewards[0]] = true
	}
	for reward := range seen {
		if reward != 3 && reward != 4 {
			t.Errorf("sampled overwritten transition with reward %v", reward)
		}
	}
}
