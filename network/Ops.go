package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// RepeatRows repeats each row of the matrix node x (shape [batch, m])
// k times consecutively, producing a node of shape [batch*k, m]. Row
// b*k+j of the output equals row b of the input for all j < k.
//
// The repetition is expressed as multiplication by a constant
// expansion matrix so that gradients flow through x unchanged.
func RepeatRows(x *G.Node, batch, k int) *G.Node {
	backing := make([]float64, batch*k*batch)
	for b := 0; b < batch; b++ {
		for j := 0; j < k; j++ {
			backing[(b*k+j)*batch+b] = 1.0
		}
	}
	expand := G.NewConstant(
		tensor.New(
			tensor.WithShape(batch*k, batch),
			tensor.WithBacking(backing),
		),
		G.WithName(fmt.Sprintf("repeatRows%vx%v/%v", batch, k, x.Name())),
	)

	return G.Must(G.Mul(expand, x))
}

// Huber adds the elementwise Huber loss of a node to its graph:
// quadratic (0.5x²) for |x| ≤ κ and linear (κ(|x| − κ/2)) beyond.
func Huber(x *G.Node, kappa float64) *G.Node {
	kappaNode := G.NewConstant(kappa, G.WithName("kappa"))
	half := G.NewConstant(0.5)

	abs := G.Must(G.Abs(x))

	// 0/1 masks partitioning the quadratic and linear regions
	quadMask := G.Must(G.Lte(abs, kappaNode, true))
	linMask := G.Must(G.Gt(abs, kappaNode, true))

	quad := G.Must(G.Square(x))
	quad = G.Must(G.HadamardProd(quad, half))

	// κ/2 is folded in Go: constants carry no graph until they meet
	// a graph-bound operand, so they may not be combined directly.
	lin := G.Must(G.Sub(abs, G.NewConstant(0.5*kappa, G.WithName("halfKappa"))))
	lin = G.Must(G.HadamardProd(lin, kappaNode))

	quad = G.Must(G.HadamardProd(quad, quadMask))
	lin = G.Must(G.HadamardProd(lin, linMask))

	return G.Must(G.Add(quad, lin))
}

// SumRowGroups sums consecutive groups of k rows of the matrix node x
// (shape [batch*k, m]), producing a node of shape [batch, m]. Row b of
// the output is the sum of rows b*k through b*k+k-1 of the input. It
// inverts the row layout produced by RepeatRows.
func SumRowGroups(x *G.Node, batch, k int) *G.Node {
	backing := make([]float64, batch*batch*k)
	for b := 0; b < batch; b++ {
		for j := 0; j < k; j++ {
			backing[b*batch*k+(b*k+j)] = 1.0
		}
	}
	group := G.NewConstant(
		tensor.New(
			tensor.WithShape(batch, batch*k),
			tensor.WithBacking(backing),
		),
		G.WithName(fmt.Sprintf("sumRowGroups%vx%v/%v", batch, k, x.Name())),
	)

	return G.Must(G.Mul(group, x))
}

// identityMatrix returns a constant n×n identity matrix. Multiplying a
// matrix node by it copies the node into a fresh buffer: the tape
// machine executes some unary ops in place on their operand's buffer,
// and the copy keeps the operand's other consumers intact.
func identityMatrix(n int) *G.Node {
	backing := make([]float64, n*n)
	for i := 0; i < n; i++ {
		backing[i*n+i] = 1.0
	}

	return G.NewConstant(
		tensor.New(
			tensor.WithShape(n, n),
			tensor.WithBacking(backing),
		),
		G.WithName(fmt.Sprintf("identity%v", n)),
	)
}

// cumsumMatrix returns a constant [n, n+1] matrix M with M[j][i] = 1
// for j < i. For a row-stochastic matrix P of shape [batch, n], P×M
// yields the cumulative sums of each row with a leading exact zero
// column; the final column is the full row sum.
func cumsumMatrix(g *G.ExprGraph, n int) *G.Node {
	backing := make([]float64, n*(n+1))
	for j := 0; j < n; j++ {
		for i := j + 1; i < n+1; i++ {
			backing[j*(n+1)+i] = 1.0
		}
	}

	return G.NewConstant(
		tensor.New(
			tensor.WithShape(n, n+1),
			tensor.WithBacking(backing),
		),
		G.WithName(fmt.Sprintf("cumsum%v", n)),
	)
}
