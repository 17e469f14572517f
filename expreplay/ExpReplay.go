// Package expreplay implements experience replay buffers for online
// reinforcement learning. The buffer aggregates consecutive
// transitions into multi-step transitions before storing them, so that
// sampled batches already carry multi-step returns and bootstrap
// discounts.
package expreplay

import (
	"fmt"
	"math/rand"

	"github.com/samuelfneumann/gofqf/timestep"
	"github.com/samuelfneumann/gofqf/utils/intutils"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	MaxReplayCapacity int
	MinReplayCapacity int
	BatchSize         int
	NStep             int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config. The featureSize parameter is the length of a state
// observation vector, gamma the per-step discount used when
// aggregating multi-step transitions, and seed the seed of the
// sampling distribution.
func (c Config) Create(featureSize int, gamma float64,
	seed int64) (ExperienceReplayer, error) {
	return New(c.MinReplayCapacity, c.MaxReplayCapacity, c.BatchSize,
		c.NStep, featureSize, gamma, seed)
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of multi-step transitions from the buffer
	// and returns the batched states, actions, rewards, bootstrap
	// discounts, and bootstrap states
	Sample() ([]float64, []int, []float64, []float64, []float64, error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer. Stored transitions
// are kept in flat caches indexed by a ring position: once the cache
// is full, the oldest transition is overwritten first.
type cache struct {
	stateCache     []float64
	actionCache    []int
	rewardCache    []float64
	discountCache  []float64
	nextStateCache []float64

	next int // ring position of the next insert
	size int

	// Transitions waiting for enough successors to form a full
	// multi-step transition
	pending []timestep.Transition

	rng *rand.Rand

	minCapacity int
	maxCapacity int
	batchSize   int
	nStep       int
	featureSize int
	gamma       float64
}

// New creates and returns a new ExperienceReplayer storing nStep-step
// transitions. The featureSize parameter defines the size of the state
// observation vectors.
//
// Pixel observations should be flattened before adding to the buffer.
func New(minCapacity, maxCapacity, batchSize, nStep, featureSize int,
	gamma float64, seed int64) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if maxCapacity < batchSize {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > max "+
			"buffer capacity (%v)", batchSize, maxCapacity)
	}
	if nStep < 1 {
		return nil, fmt.Errorf("new: nStep must be >= 1 \n\thave(%v)", nStep)
	}
	if gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("new: gamma must be in [0, 1] \n\thave(%v)",
			gamma)
	}

	source := rand.NewSource(seed)

	return &cache{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]int, maxCapacity),
		rewardCache:    make([]float64, maxCapacity),
		discountCache:  make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),

		pending: make([]timestep.Transition, 0, nStep),
		rng:     rand.New(source),

		// Sampling begins only once a full batch can be drawn
		minCapacity: intutils.Max(minCapacity, batchSize),
		maxCapacity: maxCapacity,
		batchSize:   batchSize,
		nStep:       nStep,
		featureSize: featureSize,
		gamma:       gamma,
	}, nil
}

// Add adds a single-step transition to the buffer. Consecutive calls
// must follow the trajectory of the behaviour policy: once nStep
// transitions accumulate, the oldest is aggregated with its successors
// into a single multi-step transition and stored. When a terminal
// transition arrives, all waiting transitions are aggregated over the
// remaining, shorter horizons and stored before the pending trajectory
// is cleared.
func (c *cache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v) "+
			"\n\thave(%v)", c.featureSize, t.State.Len())
	}

	c.pending = append(c.pending, t)
	if len(c.pending) == c.nStep {
		c.insert(c.aggregate())
		c.pending = c.pending[1:]
	}

	if t.Done {
		for len(c.pending) > 0 {
			c.insert(c.aggregate())
			c.pending = c.pending[1:]
		}
	}
	return nil
}

// aggregate folds the pending transitions into a single multi-step
// transition starting at the oldest pending state. The aggregated
// reward is the discounted sum of the pending rewards; the aggregated
// discount is the product of the pending discounts, so it is 0 when
// the horizon ends at a terminal state and γⁿ otherwise.
func (c *cache) aggregate() timestep.Transition {
	reward := 0.0
	discount := 1.0
	for _, t := range c.pending {
		reward += discount * t.Reward
		discount *= t.Discount
	}

	last := c.pending[len(c.pending)-1]
	return timestep.Transition{
		State:     c.pending[0].State,
		Action:    c.pending[0].Action,
		Reward:    reward,
		Discount:  discount,
		NextState: last.NextState,
		Done:      last.Done,
	}
}

// insert stores an aggregated transition at the ring position of the
// next insert, overwriting the oldest transition when full
func (c *cache) insert(t timestep.Transition) {
	start := c.next * c.featureSize
	for i := 0; i < c.featureSize; i++ {
		c.stateCache[start+i] = t.State.AtVec(i)
		c.nextStateCache[start+i] = t.NextState.AtVec(i)
	}
	c.actionCache[c.next] = t.Action
	c.rewardCache[c.next] = t.Reward
	c.discountCache[c.next] = t.Discount

	c.next = (c.next + 1) % c.maxCapacity
	if c.size < c.maxCapacity {
		c.size++
	}
}

// Sample samples and returns a batch of multi-step transitions from
// the replay buffer
func (c *cache) Sample() ([]float64, []int, []float64, []float64,
	[]float64, error) {
	if c.Capacity() == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyCache,
		}
		return nil, nil, nil, nil, nil, err
	}
	if c.Capacity() < c.MinCapacity() {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, err
	}

	stateBatch := make([]float64, c.batchSize*c.featureSize)
	nextStateBatch := make([]float64, c.batchSize*c.featureSize)
	actionBatch := make([]int, c.batchSize)
	rewardBatch := make([]float64, c.batchSize)
	discountBatch := make([]float64, c.batchSize)

	for i := 0; i < c.batchSize; i++ {
		index := c.rng.Intn(c.size)

		batchStartInd := i * c.featureSize
		expStartInd := index * c.featureSize
		copy(stateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.stateCache[expStartInd:expStartInd+c.featureSize],
		)
		copy(nextStateBatch[batchStartInd:batchStartInd+c.featureSize],
			c.nextStateCache[expStartInd:expStartInd+c.featureSize],
		)

		actionBatch[i] = c.actionCache[index]
		rewardBatch[i] = c.rewardCache[index]
		discountBatch[i] = c.discountCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, discountBatch,
		nextStateBatch, nil
}

// Capacity returns the current number of elements in the cache that
// are available for sampling
func (c *cache) Capacity() int {
	return c.size
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *cache) MinCapacity() int {
	return c.minCapacity
}

// BatchSize returns the number of samples sampled using Sample()
func (c *cache) BatchSize() int {
	return c.batchSize
}

// String returns the string representation of the cache
func (c *cache) String() string {
	baseStr := "Capacity: %v \nStates: %v \nActions: %v \nRewards: %v" +
		" \nDiscounts: %v \nNext States: %v"
	return fmt.Sprintf(baseStr, c.size, c.stateCache, c.actionCache,
		c.rewardCache, c.discountCache, c.nextStateCache)
}
