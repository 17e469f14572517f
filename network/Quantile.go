package network

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gofqf/utils/tensorutils"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// QuantileNet predicts the quantiles of the return distribution for
// each action, at arbitrary probability levels. Levels are embedded
// through a cosine basis, passed through a single fully-connected
// layer, and merged with the state embedding by elementwise
// multiplication before the final fully-connected layers predict one
// quantile value per action.
//
// Like FractionProposer, a QuantileNet is a graph component: it
// attaches to an embedding node and a levels node on the same
// computational graph. For a batch of b states and k levels per state,
// the network outputs a (b*k, actions) matrix where row b*k+j holds
// the quantile values of state b at level j.
type QuantileNet struct {
	g        *G.ExprGraph
	cosLayer Layer
	layers   []Layer

	batchSize  int
	numLevels  int
	numCosines int
	numActions int

	quantiles *G.Node
	quantVal  G.Value

	learnables G.Nodes
	model      []G.ValueGrad
}

// NewQuantileNet creates and returns a new QuantileNet on the graph g,
// attached to the embedding node of shape (batch, embDim) and the
// levels node of shape (batch, numLevels). The cosine basis has
// numCosines features. For index i, hiddenSizes[i], biases[i], and
// activations[i] describe hidden layer i; a final linear layer
// predicting numActions values is always added.
func NewQuantileNet(g *G.ExprGraph, embedding, levels *G.Node, embDim,
	batch, numLevels, numCosines, numActions int, hiddenSizes []int,
	biases []bool, activations []*Activation, init G.InitWFn,
	prefix string) (*QuantileNet, error) {
	if len(hiddenSizes) != len(activations) {
		msg := "newquantilenet: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newquantilenet: invalid number of biases" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	cosLayer := newFCLayer(g, numCosines, embDim, true, ReLU(), init,
		prefix, "Cosine")

	hiddenSizes = append([]int{}, hiddenSizes...)
	biases = append([]bool{}, biases...)
	activations = append([]*Activation{}, activations...)
	hiddenSizes = append(hiddenSizes, numActions)
	biases = append(biases, true)
	activations = append(activations, Identity())

	layers := addfcLayers(g, hiddenSizes, biases, activations, init,
		embDim, prefix, "Quantile")

	q := &QuantileNet{
		g:          g,
		cosLayer:   cosLayer,
		layers:     layers,
		batchSize:  batch,
		numLevels:  numLevels,
		numCosines: numCosines,
		numActions: numActions,
	}
	if err := q.fwd(embedding, levels); err != nil {
		return nil, fmt.Errorf("newquantilenet: could not compute "+
			"forward pass: %v", err)
	}
	return q, nil
}

// fwd computes the quantile values at the input levels
func (q *QuantileNet) fwd(embedding, levels *G.Node) error {
	rows := q.batchSize * q.numLevels

	flat := G.Must(G.Reshape(levels, tensor.Shape{rows, 1}))

	// Cosine basis cos(πjτ) for j = 1, ..., numCosines
	basis := make([]float64, q.numCosines)
	for j := range basis {
		basis[j] = math.Pi * float64(j+1)
	}
	jPi := G.NewConstant(
		tensor.New(
			tensor.WithShape(1, q.numCosines),
			tensor.WithBacking(basis),
		),
		G.WithName("cosineBasis"),
	)
	angles := G.Must(G.Mul(flat, jPi))
	cosines := G.Must(G.Cos(angles))

	cosEmb, err := q.cosLayer.fwd(cosines)
	if err != nil {
		return fmt.Errorf("fwd: could not embed levels: %v", err)
	}

	// Merge the level embeddings with the state embedding. Each state
	// row is repeated once per level so the rows line up.
	stateRep := RepeatRows(embedding, q.batchSize, q.numLevels)
	pred := G.Must(G.HadamardProd(stateRep, cosEmb))

	for i, l := range q.layers {
		if pred, err = l.fwd(pred); err != nil {
			msg := "fwd: could not compute forward pass of layer %v: %v"
			return fmt.Errorf(msg, i, err)
		}
	}

	q.quantiles = pred
	G.Read(q.quantiles, &q.quantVal)
	return nil
}

// Riemann adds the Riemann sum of the quantile function to the graph,
// returning a node of shape (batch, actions) holding the action values
// Q(s, a) = Σᵢ (τᵢ₊₁ - τᵢ) q(s, a, τ̂ᵢ). The taus node must have shape
// (batch, numLevels+1) and the network must have been built with its
// levels node holding the midpoints of taus.
func (q *QuantileNet) Riemann(taus *G.Node) *G.Node {
	n := q.numLevels
	lower := G.Must(G.Slice(taus, nil, tensorutils.NewSlice(0, n, 1)))
	upper := G.Must(G.Slice(taus, nil, tensorutils.NewSlice(1, n+1, 1)))
	widths := G.Must(G.Sub(upper, lower))

	wCol := G.Must(G.Reshape(widths, tensor.Shape{q.batchSize * n, 1}))
	weighted := G.Must(G.BroadcastHadamardProd(q.quantiles, wCol, nil,
		[]byte{1}))

	return SumRowGroups(weighted, q.batchSize, n)
}

// BatchSize returns the number of states the network operates on
func (q *QuantileNet) BatchSize() int {
	return q.batchSize
}

// NumLevels returns the number of levels evaluated per state
func (q *QuantileNet) NumLevels() int {
	return q.numLevels
}

// NumActions returns the number of actions quantiles are predicted for
func (q *QuantileNet) NumActions() int {
	return q.numActions
}

// Quantiles returns the node holding the predicted quantile values, of
// shape (batch*numLevels, actions)
func (q *QuantileNet) Quantiles() *G.Node {
	return q.quantiles
}

// QuantilesValue returns the predicted quantile values after the graph
// has last been run
func (q *QuantileNet) QuantilesValue() G.Value {
	return q.quantVal
}

// Learnables returns the learnable nodes of the network
func (q *QuantileNet) Learnables() G.Nodes {
	if q.learnables == nil {
		learnables := make([]*G.Node, 0, 2*(len(q.layers)+1))
		learnables = append(learnables, q.cosLayer.Weights(),
			q.cosLayer.Bias())
		for i := range q.layers {
			learnables = append(learnables, q.layers[i].Weights())
			if bias := q.layers[i].Bias(); bias != nil {
				learnables = append(learnables, bias)
			}
		}
		q.learnables = G.Nodes(learnables)
	}
	return q.learnables
}

// Model returns the learnable nodes with their gradients
func (q *QuantileNet) Model() []G.ValueGrad {
	if q.model == nil {
		model := make([]G.ValueGrad, 0, len(q.Learnables()))
		for _, node := range q.Learnables() {
			model = append(model, node)
		}
		q.model = model
	}
	return q.model
}

// Set sets the weights of the network to be equal to those of another
// QuantileNet with the same architecture
func (q *QuantileNet) Set(source *QuantileNet) error {
	return setLearnables(q.Learnables(), source.Learnables())
}
