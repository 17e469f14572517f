package network

import (
	"fmt"

	"github.com/samuelfneumann/gofqf/utils/tensorutils"
	G "gorgonia.org/gorgonia"
)

// FractionProposer proposes the probability levels at which the return
// distribution is summarized. It is a single linear layer on top of a
// state embedding. The layer's outputs are pushed through a softmax to
// get a probability vector per state, and the cumulative sums of the
// probabilities form a sorted sequence of levels in [0, 1] with the
// endpoints pinned at exactly 0 and 1.
//
// A FractionProposer is a graph component, not a standalone network:
// it attaches to the embedding node of an encoder on the same
// computational graph, and its outputs are read after that graph runs.
type FractionProposer struct {
	g            *G.ExprGraph
	layer        Layer
	batchSize    int
	numFractions int

	probs    *G.Node
	taus     *G.Node // shape (batch, numFractions+1)
	hatTaus  *G.Node // shape (batch, numFractions)
	entropy  *G.Node // shape (batch), entropy of each proposal
	meanEnt  *G.Node // scalar
	probsVal G.Value
	tausVal  G.Value
	hatsVal  G.Value
	entVal   G.Value
}

// NewFractionProposer creates and returns a new FractionProposer on
// the graph g, attached to the embedding node. The embedding must have
// shape (batch, embDim). The proposer outputs numFractions+1 levels
// per input row.
func NewFractionProposer(g *G.ExprGraph, embedding *G.Node, embDim,
	batch, numFractions int, init G.InitWFn,
	prefix string) (*FractionProposer, error) {
	if numFractions < 2 {
		return nil, fmt.Errorf("newfractionproposer: need at least 2 "+
			"fractions \n\thave(%v)", numFractions)
	}

	layer := newFCLayer(g, embDim, numFractions, true, Identity(), init,
		prefix, "Proposal")

	p := &FractionProposer{
		g:            g,
		layer:        layer,
		batchSize:    batch,
		numFractions: numFractions,
	}
	if err := p.fwd(embedding); err != nil {
		return nil, fmt.Errorf("newfractionproposer: could not compute "+
			"forward pass: %v", err)
	}
	return p, nil
}

// fwd computes the proposed levels, their midpoints, and the entropy
// of each proposal.
func (p *FractionProposer) fwd(embedding *G.Node) error {
	logits, err := p.layer.fwd(embedding)
	if err != nil {
		return fmt.Errorf("fwd: could not compute logits: %v", err)
	}

	probs := G.Must(G.SoftMax(logits, 1))
	p.probs = probs
	G.Read(p.probs, &p.probsVal)

	// Cumulative sums of the probabilities. The leading column of the
	// accumulation matrix is all zeros and its final column sums an
	// entire probability row, so the first and last levels are exactly
	// 0 and 1 up to floating point summation error.
	p.taus = G.Must(G.Mul(probs, cumsumMatrix(p.g, p.numFractions)))
	G.Read(p.taus, &p.tausVal)

	// Midpoints between adjacent levels
	n := p.numFractions
	lower := G.Must(G.Slice(p.taus, nil, tensorutils.NewSlice(0, n, 1)))
	upper := G.Must(G.Slice(p.taus, nil, tensorutils.NewSlice(1, n+1, 1)))
	half := G.NewConstant(0.5)
	p.hatTaus = G.Must(G.Mul(half, G.Must(G.Add(lower, upper))))
	G.Read(p.hatTaus, &p.hatsVal)

	// Entropy of each proposal distribution. Log runs in place on its
	// operand's buffer under the tape machine, so the probabilities are
	// first copied through an identity product to keep the level and
	// midpoint consumers reading probabilities rather than logs.
	probsCopy := G.Must(G.Mul(probs, identityMatrix(p.numFractions)))
	logProbs := G.Must(G.Log(probsCopy))
	pLogP := G.Must(G.HadamardProd(probs, logProbs))
	p.entropy = G.Must(G.Neg(G.Must(G.Sum(pLogP, 1))))
	G.Read(p.entropy, &p.entVal)

	p.meanEnt = G.Must(G.Mean(p.entropy))
	return nil
}

// BatchSize returns the number of input rows the proposer operates on
func (p *FractionProposer) BatchSize() int {
	return p.batchSize
}

// NumFractions returns the number of probability intervals the
// proposer produces. The proposer outputs NumFractions()+1 levels and
// NumFractions() midpoints per input row.
func (p *FractionProposer) NumFractions() int {
	return p.numFractions
}

// Taus returns the node holding the proposed levels, of shape
// (batch, NumFractions()+1)
func (p *FractionProposer) Taus() *G.Node {
	return p.taus
}

// HatTaus returns the node holding the midpoints between adjacent
// proposed levels, of shape (batch, NumFractions())
func (p *FractionProposer) HatTaus() *G.Node {
	return p.hatTaus
}

// Entropy returns the node holding the entropy of each row's proposal
// distribution, of shape (batch)
func (p *FractionProposer) Entropy() *G.Node {
	return p.entropy
}

// MeanEntropy returns the scalar node holding the mean entropy over
// the batch
func (p *FractionProposer) MeanEntropy() *G.Node {
	return p.meanEnt
}

// ProbsValue returns the proposal probabilities after the graph has
// last been run
func (p *FractionProposer) ProbsValue() G.Value {
	return p.probsVal
}

// TausValue returns the proposed levels after the graph has last been
// run
func (p *FractionProposer) TausValue() G.Value {
	return p.tausVal
}

// HatTausValue returns the level midpoints after the graph has last
// been run
func (p *FractionProposer) HatTausValue() G.Value {
	return p.hatsVal
}

// EntropyValue returns the per-row proposal entropies after the graph
// has last been run
func (p *FractionProposer) EntropyValue() G.Value {
	return p.entVal
}

// Learnables returns the learnable nodes of the proposer
func (p *FractionProposer) Learnables() G.Nodes {
	return G.Nodes{p.layer.Weights(), p.layer.Bias()}
}

// Model returns the learnable nodes with their gradients
func (p *FractionProposer) Model() []G.ValueGrad {
	learnables := p.Learnables()
	model := make([]G.ValueGrad, len(learnables))
	for i, node := range learnables {
		model[i] = node
	}
	return model
}

// Set sets the weights of the proposer to be equal to those of another
// FractionProposer with the same architecture
func (p *FractionProposer) Set(source *FractionProposer) error {
	return setLearnables(p.Learnables(), source.Learnables())
}
