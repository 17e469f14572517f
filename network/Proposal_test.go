package network

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// newTestProposer builds a proposer on zero-initialized weights, so
// every proposal is the uniform distribution
func newTestProposer(t *testing.T, batch, embDim,
	n int) (*G.ExprGraph, *G.Node, *FractionProposer) {
	t.Helper()

	g := G.NewGraph()
	emb := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, embDim),
		G.WithName("embedding"), G.WithInit(G.Zeroes()))

	proposer, err := NewFractionProposer(g, emb, embDim, batch, n,
		G.Zeroes(), "fraction")
	if err != nil {
		t.Fatal(err)
	}
	return g, emb, proposer
}

func TestFractionProposerUniform(t *testing.T) {
	batch, embDim, n := 2, 3, 4
	g, emb, proposer := newTestProposer(t, batch, embDim, n)

	err := G.Let(emb, tensor.New(
		tensor.WithShape(batch, embDim),
		tensor.WithBacking([]float64{1, -2, 3, 0.5, 0, -1}),
	))
	if err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	taus := proposer.TausValue().Data().([]float64)
	hats := proposer.HatTausValue().Data().([]float64)
	entropy := proposer.EntropyValue().Data().([]float64)

	// The probability buffer feeds the levels, the midpoints, and the
	// entropy; it must still hold probabilities after the graph runs,
	// not the logs taken from it for the entropy
	probs := proposer.ProbsValue().Data().([]float64)
	for i, p := range probs {
		if math.Abs(p-1.0/float64(n)) > 1e-12 {
			t.Errorf("prob %v: got %v, want %v", i, p, 1.0/float64(n))
		}
	}

	for b := 0; b < batch; b++ {
		row := taus[b*(n+1) : (b+1)*(n+1)]

		// Endpoints pinned at 0 and 1
		if row[0] != 0.0 {
			t.Errorf("row %v: first level must be exactly 0, got %v", b,
				row[0])
		}
		if math.Abs(row[n]-1.0) > 1e-12 {
			t.Errorf("row %v: last level: got %v, want 1", b, row[n])
		}

		// Zero weights give uniform, hence evenly spaced, levels
		for i := 0; i <= n; i++ {
			want := float64(i) / float64(n)
			if math.Abs(row[i]-want) > 1e-12 {
				t.Errorf("row %v level %v: got %v, want %v", b, i, row[i],
					want)
			}
		}

		// Sorted levels
		for i := 0; i < n; i++ {
			if row[i+1] < row[i] {
				t.Errorf("row %v: levels not sorted at %v: %v < %v", b,
					i, row[i+1], row[i])
			}
		}

		// Midpoints between adjacent levels
		for i := 0; i < n; i++ {
			want := (row[i] + row[i+1]) / 2
			if math.Abs(hats[b*n+i]-want) > 1e-12 {
				t.Errorf("row %v midpoint %v: got %v, want %v", b, i,
					hats[b*n+i], want)
			}
		}

		// Entropy of the uniform distribution over n outcomes
		if math.Abs(entropy[b]-math.Log(float64(n))) > 1e-12 {
			t.Errorf("row %v entropy: got %v, want %v", b, entropy[b],
				math.Log(float64(n)))
		}
	}
}

func TestFractionProposerSet(t *testing.T) {
	batch, embDim, n := 1, 3, 4

	g1 := G.NewGraph()
	emb1 := G.NewMatrix(g1, tensor.Float64, G.WithShape(batch, embDim),
		G.WithName("embedding"), G.WithInit(G.Zeroes()))
	src, err := NewFractionProposer(g1, emb1, embDim, batch, n,
		G.GlorotU(1.0), "fraction")
	if err != nil {
		t.Fatal(err)
	}

	_, emb2, dst := newTestProposer(t, batch, embDim, n)
	if err := dst.Set(src); err != nil {
		t.Fatal(err)
	}
	_ = emb2

	for i, learnable := range dst.Learnables() {
		got := learnable.Value().Data().([]float64)
		want := src.Learnables()[i].Value().Data().([]float64)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("learnable %v differs at %v after Set", i, j)
			}
		}
	}
}
