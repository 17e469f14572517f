package fqf

import (
	"fmt"

	"github.com/samuelfneumann/gofqf/agent"
	env "github.com/samuelfneumann/gofqf/environment"
	"github.com/samuelfneumann/gofqf/expreplay"
	"github.com/samuelfneumann/gofqf/initwfn"
	"github.com/samuelfneumann/gofqf/network"
	"github.com/samuelfneumann/gofqf/solver"
)

// Config implements a configuration for an FQF agent
type Config struct {
	// State encoder architecture. The encoder always ends with a
	// linear layer predicting EmbeddingDim features.
	EncoderLayers      []int
	EncoderBiases      []bool
	EncoderActivations []*network.Activation
	EmbeddingDim       int

	// Quantile network architecture after the cosine embedding. A
	// final linear layer predicting one value per action is always
	// added.
	QuantileLayers      []int
	QuantileBiases      []bool
	QuantileActivations []*network.Activation

	NumFractions int // Probability intervals proposed per state
	NumCosines   int // Features of the cosine level embedding

	Kappa        float64 // Huber loss threshold
	EntropyCoeff float64 // Proposal entropy bonus coefficient

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// FractionSolver adapts the fraction proposer weights;
	// QuantileSolver adapts the encoder and quantile network weights
	FractionSolver *solver.Solver
	QuantileSolver *solver.Solver

	Epsilon     float64 // Behaviour policy epsilon
	EvalEpsilon float64 // Evaluation policy epsilon

	Gamma float64 // Per-step discount factor

	// Experience replay parameters. The replay batch size is the batch
	// size of every learning graph.
	Replay expreplay.Config

	// StartSteps environment steps are taken with a uniform random
	// policy, and no learning happens, before training begins
	StartSteps int

	// UpdatePeriod is the number of environment steps between learning
	// steps; TargetUpdatePeriod the number of learning steps between
	// target network syncs
	UpdatePeriod       int
	TargetUpdatePeriod int
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.Replay.BatchSize
}

// Validate checks a Config to ensure it is a valid configuration of an
// FQF agent.
func (c Config) Validate() error {
	if len(c.EncoderLayers) != len(c.EncoderBiases) {
		return fmt.Errorf("config: invalid number of encoder biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.EncoderLayers),
			len(c.EncoderBiases))
	}
	if len(c.EncoderLayers) != len(c.EncoderActivations) {
		return fmt.Errorf("config: invalid number of encoder activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.EncoderLayers),
			len(c.EncoderActivations))
	}
	if len(c.QuantileLayers) != len(c.QuantileBiases) {
		return fmt.Errorf("config: invalid number of quantile biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.QuantileLayers),
			len(c.QuantileBiases))
	}
	if len(c.QuantileLayers) != len(c.QuantileActivations) {
		return fmt.Errorf("config: invalid number of quantile activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.QuantileLayers),
			len(c.QuantileActivations))
	}
	if c.EmbeddingDim < 1 {
		return fmt.Errorf("config: embedding dimension must be positive"+
			"\n\thave(%v)", c.EmbeddingDim)
	}
	if c.NumFractions < 2 {
		return fmt.Errorf("config: need at least 2 fractions"+
			"\n\thave(%v)", c.NumFractions)
	}
	if c.NumCosines < 1 {
		return fmt.Errorf("config: need at least 1 cosine feature"+
			"\n\thave(%v)", c.NumCosines)
	}
	if c.Kappa <= 0 {
		return fmt.Errorf("config: kappa must be positive \n\thave(%v)",
			c.Kappa)
	}
	if c.InitWFn == nil {
		return fmt.Errorf("config: no weight initializer given")
	}
	if c.FractionSolver == nil || c.QuantileSolver == nil {
		return fmt.Errorf("config: both solvers must be given")
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("config: epsilon must be in [0, 1] \n\thave(%v)",
			c.Epsilon)
	}
	if c.EvalEpsilon < 0 || c.EvalEpsilon > 1 {
		return fmt.Errorf("config: evaluation epsilon must be in [0, 1]"+
			" \n\thave(%v)", c.EvalEpsilon)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("config: gamma must be in [0, 1] \n\thave(%v)",
			c.Gamma)
	}
	if c.UpdatePeriod < 1 {
		return fmt.Errorf("config: learning must happen at positive "+
			"step intervals \n\twant(>0) \n\thave(%v)", c.UpdatePeriod)
	}
	if c.TargetUpdatePeriod < 1 {
		return fmt.Errorf("config: target networks must be updated at "+
			"positive intervals \n\twant(>0) \n\thave(%v)",
			c.TargetUpdatePeriod)
	}
	if c.StartSteps < 0 {
		return fmt.Errorf("config: start steps must be non-negative"+
			" \n\thave(%v)", c.StartSteps)
	}
	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*FQF)
	return ok
}

// CreateAgent creates a new FQF agent based on the configuration
func (c Config) CreateAgent(e env.Environment, seed int64) (agent.Agent,
	error) {
	return New(e, c, seed)
}

// DefaultConfig returns a Config with reasonable settings for
// low-dimensional control environments
func DefaultConfig() Config {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}

	// The proposer's learning rate is orders of magnitude below the
	// quantile network's: proposed levels should drift slowly relative
	// to the quantile estimates they are placed against.
	fractionSolver, err := solver.NewDefaultRMSProp(2.5e-9, 32)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}
	quantileSolver, err := solver.NewAdam(5e-5, 3.125e-4, 0.9, 0.999, 32)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}

	return Config{
		EncoderLayers:      []int{128},
		EncoderBiases:      []bool{true},
		EncoderActivations: []*network.Activation{network.ReLU()},
		EmbeddingDim:       64,

		QuantileLayers:      []int{128},
		QuantileBiases:      []bool{true},
		QuantileActivations: []*network.Activation{network.ReLU()},

		NumFractions: 32,
		NumCosines:   64,
		Kappa:        1.0,
		EntropyCoeff: 0.0,

		InitWFn:        init,
		FractionSolver: fractionSolver,
		QuantileSolver: quantileSolver,

		Epsilon:     0.1,
		EvalEpsilon: 0.001,
		Gamma:       0.99,

		Replay: expreplay.Config{
			MaxReplayCapacity: 50000,
			MinReplayCapacity: 1000,
			BatchSize:         32,
			NStep:             1,
		},

		StartSteps:         1000,
		UpdatePeriod:       4,
		TargetUpdatePeriod: 1000,
	}
}
