package network

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// runMatrixOp binds data to the input node and runs the graph,
// returning the value read from out
func runMatrixOp(t *testing.T, g *G.ExprGraph, input *G.Node,
	data []float64, out *G.Value) {
	t.Helper()

	backing := make([]float64, len(data))
	copy(backing, data)
	err := G.Let(input, tensor.New(
		tensor.WithShape(input.Shape()...),
		tensor.WithBacking(backing),
	))
	if err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
}

func TestHuber(t *testing.T) {
	g := G.NewGraph()
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 4),
		G.WithName("x"), G.WithInit(G.Zeroes()))

	var out G.Value
	G.Read(Huber(x, 1.0), &out)

	// Quadratic inside |x| <= κ, linear outside
	runMatrixOp(t, g, x, []float64{-2.0, -0.5, 0.5, 3.0}, &out)

	want := []float64{1.5, 0.125, 0.125, 2.5}
	got := out.Data().([]float64)
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("huber[%v]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRepeatRows(t *testing.T) {
	g := G.NewGraph()
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 2),
		G.WithName("x"), G.WithInit(G.Zeroes()))

	var out G.Value
	G.Read(RepeatRows(x, 2, 3), &out)

	runMatrixOp(t, g, x, []float64{1, 2, 3, 4}, &out)

	want := []float64{
		1, 2,
		1, 2,
		1, 2,
		3, 4,
		3, 4,
		3, 4,
	}
	got := out.Data().([]float64)
	if len(got) != len(want) {
		t.Fatalf("repeated rows length: got %v, want %v", len(got),
			len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("repeated[%v]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSumRowGroupsInvertsRepeatRows(t *testing.T) {
	g := G.NewGraph()
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 2),
		G.WithName("x"), G.WithInit(G.Zeroes()))

	repeated := RepeatRows(x, 2, 3)
	var out G.Value
	G.Read(SumRowGroups(repeated, 2, 3), &out)

	runMatrixOp(t, g, x, []float64{1, 2, 3, 4}, &out)

	// Each group sums three copies of its row
	want := []float64{3, 6, 9, 12}
	got := out.Data().([]float64)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("grouped[%v]: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCumsumMatrix(t *testing.T) {
	g := G.NewGraph()
	probs := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 3),
		G.WithName("probs"), G.WithInit(G.Zeroes()))

	var out G.Value
	G.Read(G.Must(G.Mul(probs, cumsumMatrix(g, 3))), &out)

	runMatrixOp(t, g, probs, []float64{0.2, 0.3, 0.5}, &out)

	got := out.Data().([]float64)
	if got[0] != 0.0 {
		t.Errorf("leading cumulative sum must be exactly 0, got %v", got[0])
	}

	want := []float64{0.0, 0.2, 0.5, 1.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("cumsum[%v]: got %v, want %v", i, got[i], want[i])
		}
	}
}
