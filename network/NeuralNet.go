// Package network implements Gorgonia-backed neural network function
// approximators: fully-connected state encoders, the fraction proposal
// head, and the cosine-embedding quantile value network.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// NeuralNet is a neural network function approximator whose forward
// pass has been added to a Gorgonia computational graph. An external
// VM runs the graph; the network only wires nodes and tracks its
// learnable weights.
type NeuralNet interface {
	Graph() *G.ExprGraph
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}

// setLearnables copies the weight values of src into dst. The two
// learnable sets must describe the same architecture in the same
// order.
func setLearnables(dst, src G.Nodes) error {
	if len(dst) != len(src) {
		return fmt.Errorf("set: network architectures do not match "+
			"\n\twant(%v learnables) \n\thave(%v)", len(dst), len(src))
	}

	for i, dstLearnable := range dst {
		srcLearnable := src[i].Clone()
		err := G.Let(dstLearnable, srcLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}
