package fqf

import (
	"fmt"

	"github.com/samuelfneumann/gofqf/network"
	"github.com/samuelfneumann/gofqf/solver"
	"github.com/samuelfneumann/gofqf/utils/tensorutils"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// LearnStats holds the diagnostic values produced by a single learning
// step
type LearnStats struct {
	FractionLoss float64
	QuantileLoss float64
	Entropy      float64
	MeanQ        float64
}

// valueModel holds the networks of the algorithm and the computational
// graphs that run and train them.
//
// Gorgonia graphs are static, so each distinct computation gets its
// own graph with its own copy of the networks it needs. The canonical
// weights live on the two loss graphs, where the solvers update them:
// the encoder and quantile network on the quantile loss graph, and the
// fraction proposer on the fraction loss graph. Every other graph
// holds forward-only copies that are overwritten from the canonical
// weights at the start of each learning step, and the two target
// copies are overwritten only when the target network is synced. This
// split also realizes the gradient-stopping the losses require: the
// fraction loss sees the state embedding as a plain input, and the
// quantile loss sees the proposed levels as plain inputs, so neither
// loss reaches the other's weights.
type valueModel struct {
	features     int
	numActions   int
	numFractions int
	embDim       int
	batchSize    int
	kappa        float64
	entropyCoeff float64

	// Quantile loss graph: canonical encoder and quantile network,
	// trained by quantileSolver
	encoder        network.NeuralNet
	quantileNet    *network.QuantileNet
	qlHatTaus      *G.Node // (batch, numFractions)
	qlActions      *G.Node // (batch*numFractions, actions), one-hot
	qlTarget       *G.Node // (batch*numFractions, 1)
	qlEntropy      *G.Node // scalar entropy bonus
	qlLossVal      G.Value
	quantileVM     G.VM
	quantileSolver *solver.Solver

	// Fraction loss graph: canonical proposer, trained by fracSolver
	proposer   *network.FractionProposer
	flEmb      *G.Node // (batch, embDim)
	flSignal   *G.Node // (batch, numFractions-1)
	flLossVal  G.Value
	fracVM     G.VM
	fracSolver *solver.Solver

	// Proposal graph: forward pass of encoder and proposer on the
	// sampled states
	proposeEncoder  network.NeuralNet
	proposeProposer *network.FractionProposer
	proposeVM       G.VM

	// Fraction gradient graph: forward pass of the quantile network at
	// externally supplied embeddings and levels
	gradEmb    *G.Node // (batch, embDim)
	gradLevels *G.Node // (batch, 2*numFractions-1)
	gradQNet   *network.QuantileNet
	gradVM     G.VM

	// Next-state graph: online copies select the greedy bootstrap
	// action, target copies evaluate it
	nextEncoder   network.NeuralNet
	nextProposer  *network.FractionProposer
	nextQNet      *network.QuantileNet
	nextQVal      G.Value // (batch, actions) online action values
	targetEncoder network.NeuralNet
	targetQNet    *network.QuantileNet
	nextVM        G.VM

	// Action selection graph, batch size 1
	actEncoder  network.NeuralNet
	actProposer *network.FractionProposer
	actQNet     *network.QuantileNet
	actQVal     G.Value // (1, actions)
	actVM       G.VM
}

// newValueModel creates the networks and computational graphs for an
// agent acting on observations of size features with the given number
// of discrete actions.
func newValueModel(features, numActions int,
	config Config) (*valueModel, error) {
	batch := config.Replay.BatchSize
	n := config.NumFractions
	embDim := config.EmbeddingDim
	init := config.InitWFn.InitWFn()

	m := &valueModel{
		features:       features,
		numActions:     numActions,
		numFractions:   n,
		embDim:         embDim,
		batchSize:      batch,
		kappa:          config.Kappa,
		entropyCoeff:   config.EntropyCoeff,
		quantileSolver: config.QuantileSolver,
		fracSolver:     config.FractionSolver,
	}

	newEncoder := func(g *G.ExprGraph, batchSize int,
		prefix string) (network.NeuralNet, error) {
		return network.NewMLP(features, batchSize, embDim, g,
			config.EncoderLayers, config.EncoderBiases, init,
			config.EncoderActivations, prefix)
	}
	newQNet := func(g *G.ExprGraph, embedding, levels *G.Node, batchSize,
		numLevels int, prefix string) (*network.QuantileNet, error) {
		return network.NewQuantileNet(g, embedding, levels, embDim,
			batchSize, numLevels, config.NumCosines, numActions,
			config.QuantileLayers, config.QuantileBiases,
			config.QuantileActivations, init, prefix)
	}

	if err := m.buildQuantileLoss(config, newEncoder, newQNet); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}
	if err := m.buildFractionLoss(config, init); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}
	if err := m.buildPropose(init, newEncoder); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}
	if err := m.buildFractionGradient(newQNet); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}
	if err := m.buildNextState(init, newEncoder, newQNet); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}
	if err := m.buildAct(init, newEncoder, newQNet); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}

	// The forward copies start from randomly initialized weights of
	// their own; overwrite them so every copy agrees with the
	// canonical weights from the first step.
	if err := m.syncForward(); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}
	if err := m.syncAct(); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}
	if err := m.SyncTarget(); err != nil {
		return nil, fmt.Errorf("newvaluemodel: %v", err)
	}
	return m, nil
}

// buildQuantileLoss constructs the graph holding the canonical encoder
// and quantile network and their regression loss.
//
// The loss is the asymmetric Huber quantile regression loss between
// each target quantile and each predicted quantile of the taken
// action, summed over the target quantiles and averaged over
// everything else. The pairwise differences are laid out as a
// (batch*n, n) matrix whose row b*n+j holds target j of state b minus
// every prediction of state b.
func (m *valueModel) buildQuantileLoss(config Config,
	newEncoder func(*G.ExprGraph, int, string) (network.NeuralNet, error),
	newQNet func(*G.ExprGraph, *G.Node, *G.Node, int, int,
		string) (*network.QuantileNet, error)) error {
	g := G.NewGraph()
	batch := m.batchSize
	n := m.numFractions

	encoder, err := newEncoder(g, batch, "encoder")
	if err != nil {
		return fmt.Errorf("could not create encoder: %v", err)
	}
	m.encoder = encoder

	m.qlHatTaus = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, n),
		G.WithName("levelMidpoints"), G.WithInit(G.Zeroes()))

	qNet, err := newQNet(g, encoder.Prediction(), m.qlHatTaus, batch, n,
		"quantile")
	if err != nil {
		return fmt.Errorf("could not create quantile network: %v", err)
	}
	m.quantileNet = qNet

	m.qlActions = G.NewMatrix(g, tensor.Float64,
		G.WithShape(batch*n, m.numActions), G.WithName("takenActions"),
		G.WithInit(G.Zeroes()))
	m.qlTarget = G.NewMatrix(g, tensor.Float64, G.WithShape(batch*n, 1),
		G.WithName("regressionTarget"), G.WithInit(G.Zeroes()))
	m.qlEntropy = G.NewScalar(g, tensor.Float64,
		G.WithName("entropyBonus"))
	if err := G.Let(m.qlEntropy, 0.0); err != nil {
		return fmt.Errorf("could not initialize entropy bonus: %v", err)
	}

	// Quantiles of the taken action, one column per level
	selected := G.Must(G.HadamardProd(qNet.Quantiles(), m.qlActions))
	selected = G.Must(G.Sum(selected, 1))
	current := G.Must(G.Reshape(selected, tensor.Shape{batch, n}))
	currentRep := network.RepeatRows(current, batch, n)

	// td[b*n+j][i] = target(b, j) - current(b, i)
	td := G.Must(G.BroadcastSub(m.qlTarget, currentRep, []byte{1}, nil))

	huber := network.Huber(td, m.kappa)
	below := G.Must(G.Lt(td, G.NewConstant(0.0), true))
	tauRep := network.RepeatRows(m.qlHatTaus, batch, n)
	weight := G.Must(G.Abs(G.Must(G.Sub(tauRep, below))))

	loss := G.Must(G.HadamardProd(weight, huber))
	loss = G.Must(G.Mul(loss, G.NewConstant(1.0/m.kappa)))

	// Mean over batch and prediction index, sum over target index
	total := G.Must(G.Mean(loss))
	total = G.Must(G.Mul(total, G.NewConstant(float64(n))))

	// The entropy bonus is constant on this graph, so it shifts the
	// reported loss without touching the gradients
	bonus := G.Must(G.Mul(G.NewConstant(m.entropyCoeff), m.qlEntropy))
	total = G.Must(G.Sub(total, bonus))
	G.Read(total, &m.qlLossVal)

	learnables := append(encoder.Learnables(), qNet.Learnables()...)
	if _, err := G.Grad(total, learnables...); err != nil {
		return fmt.Errorf("could not compute quantile loss gradient: %v",
			err)
	}
	m.quantileVM = G.NewTapeMachine(g, G.BindDualValues(learnables...))
	return nil
}

// buildFractionLoss constructs the graph holding the canonical
// fraction proposer and its loss. The embedding arrives as a plain
// input, so the loss gradient stops at the proposer. The placement
// signal arrives precomputed; the loss couples it to the proposed
// interior levels so that its gradient with respect to the proposer
// weights is the fraction gradient of the quantile regression
// objective.
func (m *valueModel) buildFractionLoss(config Config, init G.InitWFn) error {
	g := G.NewGraph()
	batch := m.batchSize
	n := m.numFractions

	m.flEmb = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, m.embDim),
		G.WithName("embedding"), G.WithInit(G.Zeroes()))
	m.flSignal = G.NewMatrix(g, tensor.Float64, G.WithShape(batch, n-1),
		G.WithName("placementSignal"), G.WithInit(G.Zeroes()))

	proposer, err := network.NewFractionProposer(g, m.flEmb, m.embDim,
		batch, n, init, "fraction")
	if err != nil {
		return fmt.Errorf("could not create fraction proposer: %v", err)
	}
	m.proposer = proposer

	interior := G.Must(G.Slice(proposer.Taus(), nil,
		tensorutils.NewSlice(1, n, 1)))
	coupled := G.Must(G.HadamardProd(m.flSignal, interior))
	loss := G.Must(G.Mean(G.Must(G.Sum(coupled, 1))))

	bonus := G.Must(G.Mul(G.NewConstant(m.entropyCoeff),
		proposer.MeanEntropy()))
	loss = G.Must(G.Sub(loss, bonus))
	G.Read(loss, &m.flLossVal)

	if _, err := G.Grad(loss, proposer.Learnables()...); err != nil {
		return fmt.Errorf("could not compute fraction loss gradient: %v",
			err)
	}
	m.fracVM = G.NewTapeMachine(g,
		G.BindDualValues(proposer.Learnables()...))
	return nil
}

// buildPropose constructs the forward graph producing embeddings and
// proposed levels for the sampled states.
func (m *valueModel) buildPropose(init G.InitWFn,
	newEncoder func(*G.ExprGraph, int, string) (network.NeuralNet,
		error)) error {
	g := G.NewGraph()

	encoder, err := newEncoder(g, m.batchSize, "encoder")
	if err != nil {
		return fmt.Errorf("could not create proposal encoder: %v", err)
	}
	m.proposeEncoder = encoder

	proposer, err := network.NewFractionProposer(g, encoder.Prediction(),
		m.embDim, m.batchSize, m.numFractions, init, "fraction")
	if err != nil {
		return fmt.Errorf("could not create proposal head: %v", err)
	}
	m.proposeProposer = proposer

	m.proposeVM = G.NewTapeMachine(g)
	return nil
}

// buildFractionGradient constructs the forward graph evaluating the
// quantile network at externally packed levels. One run per learning
// step yields the quantile values at both the interior levels and the
// midpoints, from which the placement signal is assembled.
func (m *valueModel) buildFractionGradient(newQNet func(*G.ExprGraph,
	*G.Node, *G.Node, int, int, string) (*network.QuantileNet,
	error)) error {
	g := G.NewGraph()
	k := 2*m.numFractions - 1

	m.gradEmb = G.NewMatrix(g, tensor.Float64,
		G.WithShape(m.batchSize, m.embDim), G.WithName("embedding"),
		G.WithInit(G.Zeroes()))
	m.gradLevels = G.NewMatrix(g, tensor.Float64,
		G.WithShape(m.batchSize, k), G.WithName("packedLevels"),
		G.WithInit(G.Zeroes()))

	qNet, err := newQNet(g, m.gradEmb, m.gradLevels, m.batchSize, k,
		"quantile")
	if err != nil {
		return fmt.Errorf("could not create quantile network copy: %v", err)
	}
	m.gradQNet = qNet

	m.gradVM = G.NewTapeMachine(g)
	return nil
}

// buildNextState constructs the forward graph computing the bootstrap
// values: online copies of the networks pick the greedy action of each
// next state, and target copies produce the quantiles that evaluate
// it. The target copies share the proposed levels of the online
// proposer.
func (m *valueModel) buildNextState(init G.InitWFn,
	newEncoder func(*G.ExprGraph, int, string) (network.NeuralNet, error),
	newQNet func(*G.ExprGraph, *G.Node, *G.Node, int, int,
		string) (*network.QuantileNet, error)) error {
	g := G.NewGraph()
	batch := m.batchSize
	n := m.numFractions

	encoder, err := newEncoder(g, batch, "encoder")
	if err != nil {
		return fmt.Errorf("could not create next-state encoder: %v", err)
	}
	m.nextEncoder = encoder

	proposer, err := network.NewFractionProposer(g, encoder.Prediction(),
		m.embDim, batch, n, init, "fraction")
	if err != nil {
		return fmt.Errorf("could not create next-state proposer: %v", err)
	}
	m.nextProposer = proposer

	qNet, err := newQNet(g, encoder.Prediction(), proposer.HatTaus(),
		batch, n, "quantile")
	if err != nil {
		return fmt.Errorf("could not create next-state quantile "+
			"network: %v", err)
	}
	m.nextQNet = qNet
	G.Read(qNet.Riemann(proposer.Taus()), &m.nextQVal)

	targetEncoder, err := newEncoder(g, batch, "targetEncoder")
	if err != nil {
		return fmt.Errorf("could not create target encoder: %v", err)
	}
	m.targetEncoder = targetEncoder

	targetQNet, err := newQNet(g, targetEncoder.Prediction(),
		proposer.HatTaus(), batch, n, "targetQuantile")
	if err != nil {
		return fmt.Errorf("could not create target quantile network: %v",
			err)
	}
	m.targetQNet = targetQNet

	m.nextVM = G.NewTapeMachine(g)
	return nil
}

// buildAct constructs the batch size 1 forward graph used for action
// selection.
func (m *valueModel) buildAct(init G.InitWFn,
	newEncoder func(*G.ExprGraph, int, string) (network.NeuralNet, error),
	newQNet func(*G.ExprGraph, *G.Node, *G.Node, int, int,
		string) (*network.QuantileNet, error)) error {
	g := G.NewGraph()

	encoder, err := newEncoder(g, 1, "encoder")
	if err != nil {
		return fmt.Errorf("could not create action encoder: %v", err)
	}
	m.actEncoder = encoder

	proposer, err := network.NewFractionProposer(g, encoder.Prediction(),
		m.embDim, 1, m.numFractions, init, "fraction")
	if err != nil {
		return fmt.Errorf("could not create action proposer: %v", err)
	}
	m.actProposer = proposer

	qNet, err := newQNet(g, encoder.Prediction(), proposer.HatTaus(), 1,
		m.numFractions, "quantile")
	if err != nil {
		return fmt.Errorf("could not create action quantile network: %v",
			err)
	}
	m.actQNet = qNet
	G.Read(qNet.Riemann(proposer.Taus()), &m.actQVal)

	m.actVM = G.NewTapeMachine(g)
	return nil
}

// syncForward overwrites the weights of the forward-only copies used
// within a learning step with the canonical weights
func (m *valueModel) syncForward() error {
	if err := m.proposeEncoder.Set(m.encoder); err != nil {
		return fmt.Errorf("syncforward: %v", err)
	}
	if err := m.proposeProposer.Set(m.proposer); err != nil {
		return fmt.Errorf("syncforward: %v", err)
	}
	if err := m.gradQNet.Set(m.quantileNet); err != nil {
		return fmt.Errorf("syncforward: %v", err)
	}
	if err := m.nextEncoder.Set(m.encoder); err != nil {
		return fmt.Errorf("syncforward: %v", err)
	}
	if err := m.nextProposer.Set(m.proposer); err != nil {
		return fmt.Errorf("syncforward: %v", err)
	}
	if err := m.nextQNet.Set(m.quantileNet); err != nil {
		return fmt.Errorf("syncforward: %v", err)
	}
	return nil
}

// syncAct overwrites the action selection copies with the canonical
// weights. It runs after the solver steps so that action selection
// between learning steps uses the freshly updated weights.
func (m *valueModel) syncAct() error {
	if err := m.actEncoder.Set(m.encoder); err != nil {
		return fmt.Errorf("syncact: %v", err)
	}
	if err := m.actProposer.Set(m.proposer); err != nil {
		return fmt.Errorf("syncact: %v", err)
	}
	if err := m.actQNet.Set(m.quantileNet); err != nil {
		return fmt.Errorf("syncact: %v", err)
	}
	return nil
}

// SyncTarget overwrites the target network weights with the canonical
// online weights
func (m *valueModel) SyncTarget() error {
	if err := m.targetEncoder.Set(m.encoder); err != nil {
		return fmt.Errorf("synctarget: %v", err)
	}
	if err := m.targetQNet.Set(m.quantileNet); err != nil {
		return fmt.Errorf("synctarget: %v", err)
	}
	return nil
}

// ActionValues runs the action selection graph on a single observation
// and returns the estimated value of each action
func (m *valueModel) ActionValues(obs []float64) []float64 {
	if err := m.actEncoder.SetInput(obs); err != nil {
		panic(fmt.Sprintf("actionvalues: could not set input: %v", err))
	}
	if err := m.actVM.RunAll(); err != nil {
		panic(fmt.Sprintf("actionvalues: could not run graph: %v", err))
	}

	q := make([]float64, m.numActions)
	copy(q, m.actQVal.Data().([]float64))
	m.actVM.Reset()
	return q
}

// Learn performs one full learning step on a sampled batch of
// multi-step transitions: it proposes levels for the sampled states,
// assembles the placement signal and the regression targets, then
// updates the fraction proposer and the encoder and quantile network
// with their respective solvers.
func (m *valueModel) Learn(states []float64, actions []int, rewards,
	discounts, nextStates []float64) (LearnStats, error) {
	batch := m.batchSize
	n := m.numFractions

	if err := m.syncForward(); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}

	// Propose levels for the sampled states
	if err := m.proposeEncoder.SetInput(states); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not set states: %v",
			err)
	}
	if err := m.proposeVM.RunAll(); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not propose "+
			"levels: %v", err)
	}
	frac := fractions{
		taus:    copyOf(m.proposeProposer.TausValue()),
		hatTaus: copyOf(m.proposeProposer.HatTausValue()),
		entropy: copyOf(m.proposeProposer.EntropyValue()),
	}
	emb := copyOf(m.proposeEncoder.Output())
	m.proposeVM.Reset()

	// Evaluate the quantile network at the interior levels and the
	// midpoints to assemble the placement signal
	if err := m.letMatrix(m.gradEmb, emb, batch, m.embDim); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}
	packed := concatLevels(frac, batch, n)
	if err := m.letMatrix(m.gradLevels, packed, batch, 2*n-1); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}
	if err := m.gradVM.RunAll(); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not evaluate "+
			"quantiles: %v", err)
	}
	packedQuantiles := copyOf(m.gradQNet.QuantilesValue())
	m.gradVM.Reset()

	signal := placementSignal(packedQuantiles, batch, n, m.numActions)
	meanQ := meanActionValue(packedQuantiles, frac, batch, n, m.numActions)

	// Bootstrap values for the regression targets. The online copies
	// pick the greedy action of each next state; the target copies
	// evaluate it.
	if err := m.nextEncoder.SetInput(nextStates); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not set next "+
			"states: %v", err)
	}
	if err := m.targetEncoder.SetInput(nextStates); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not set next "+
			"states: %v", err)
	}
	if err := m.nextVM.RunAll(); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not compute "+
			"bootstrap values: %v", err)
	}
	qNext := copyOf(m.nextQVal)
	targetQuantiles := copyOf(m.targetQNet.QuantilesValue())
	m.nextVM.Reset()

	target := bellmanTarget(qNext, targetQuantiles, rewards, discounts,
		batch, n, m.numActions)

	// Fraction proposer update
	if err := m.letMatrix(m.flEmb, emb, batch, m.embDim); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}
	if err := m.letMatrix(m.flSignal, signal, batch, n-1); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}
	if err := m.fracVM.RunAll(); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not compute "+
			"fraction loss: %v", err)
	}
	fractionLoss := m.flLossVal.Data().(float64)
	if err := m.fracSolver.Step(m.proposer.Model()); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not step fraction "+
			"solver: %v", err)
	}
	m.fracVM.Reset()

	// Encoder and quantile network update
	if err := m.encoder.SetInput(states); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not set states: %v",
			err)
	}
	if err := m.letMatrix(m.qlHatTaus, frac.hatTaus, batch, n); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}
	taken := expandActions(actions, batch, n, m.numActions)
	if err := m.letMatrix(m.qlActions, taken, batch*n,
		m.numActions); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}
	if err := m.letMatrix(m.qlTarget, target, batch*n, 1); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}
	entropy := frac.meanEntropy()
	if err := G.Let(m.qlEntropy, entropy); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not set entropy "+
			"bonus: %v", err)
	}
	if err := m.quantileVM.RunAll(); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not compute "+
			"quantile loss: %v", err)
	}
	quantileLoss := m.qlLossVal.Data().(float64)
	model := append(m.encoder.Model(), m.quantileNet.Model()...)
	if err := m.quantileSolver.Step(model); err != nil {
		return LearnStats{}, fmt.Errorf("learn: could not step quantile "+
			"solver: %v", err)
	}
	m.quantileVM.Reset()

	if err := m.syncAct(); err != nil {
		return LearnStats{}, fmt.Errorf("learn: %v", err)
	}

	return LearnStats{
		FractionLoss: fractionLoss,
		QuantileLoss: quantileLoss,
		Entropy:      entropy,
		MeanQ:        meanQ,
	}, nil
}

// letMatrix binds a row major backing slice to a matrix input node
func (m *valueModel) letMatrix(node *G.Node, data []float64, rows,
	cols int) error {
	if len(data) != rows*cols {
		panic(fmt.Sprintf("letmatrix: invalid data size \n\twant(%v) "+
			"\n\thave(%v)", rows*cols, len(data)))
	}
	backing := make([]float64, len(data))
	copy(backing, data)
	err := G.Let(node, tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(backing),
	))
	if err != nil {
		return fmt.Errorf("could not set input %v: %v", node.Name(), err)
	}
	return nil
}

// copyOf copies the float64 backing of a graph value. Graph values are
// reused between runs, so callers that keep data across runs must copy
// it out.
func copyOf(value G.Value) []float64 {
	data := value.Data().([]float64)
	out := make([]float64, len(data))
	copy(out, data)
	return out
}
