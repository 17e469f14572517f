package fqf

import (
	"github.com/samuelfneumann/gofqf/utils/floatutils"
)

// fractions holds the probability levels proposed for a batch of
// states, their midpoints, and the entropy of each proposal. All
// slices are in row major order: taus has numFractions+1 columns,
// hatTaus has numFractions columns, and entropy has one entry per
// state.
type fractions struct {
	taus    []float64
	hatTaus []float64
	entropy []float64
}

// meanEntropy returns the mean proposal entropy over the batch
func (f fractions) meanEntropy() float64 {
	sum := 0.0
	for _, e := range f.entropy {
		sum += e
	}
	return sum / float64(len(f.entropy))
}

// concatLevels packs the interior levels and the midpoints of a batch
// of proposals into a single (batch, 2n-1) row major matrix, where n
// is the number of fractions. For each state, columns [0, n-1) hold
// the interior levels τ₁, ..., τₙ₋₁ and columns [n-1, 2n-1) hold the
// midpoints τ̂₀, ..., τ̂ₙ₋₁. Evaluating the quantile network once at
// these packed levels yields every value the fraction gradient needs.
func concatLevels(f fractions, batch, n int) []float64 {
	k := 2*n - 1
	levels := make([]float64, batch*k)
	for b := 0; b < batch; b++ {
		for i := 1; i < n; i++ {
			levels[b*k+(i-1)] = f.taus[b*(n+1)+i]
		}
		for i := 0; i < n; i++ {
			levels[b*k+(n-1)+i] = f.hatTaus[b*n+i]
		}
	}
	return levels
}

// placementSignal computes the gradient of the expected quantile
// regression loss with respect to each interior level. The quantiles
// parameter holds the quantile network's output at the levels packed
// by concatLevels, in row major order with one action per column. The
// returned (batch, n-1) row major matrix holds, for interior level τᵢ
// of state b,
//
//	2 q(τᵢ) - q(τ̂ᵢ) - q(τ̂ᵢ₋₁)
//
// summed over the actions. A level sitting exactly at the optimal
// placement between its neighbouring midpoints yields a zero entry.
func placementSignal(quantiles []float64, batch, n,
	numActions int) []float64 {
	k := 2*n - 1
	signal := make([]float64, batch*(n-1))
	for b := 0; b < batch; b++ {
		for i := 1; i < n; i++ {
			// Row offsets into the packed quantile matrix
			atTau := (b*k + (i - 1)) * numActions
			atHat := (b*k + (n - 1) + i) * numActions
			atPrevHat := (b*k + (n - 1) + i - 1) * numActions

			sum := 0.0
			for a := 0; a < numActions; a++ {
				sum += 2*quantiles[atTau+a] - quantiles[atHat+a] -
					quantiles[atPrevHat+a]
			}
			signal[b*(n-1)+(i-1)] = sum
		}
	}
	return signal
}

// bellmanTarget computes the quantile regression targets for a batch
// of multi-step transitions. The online action values qOnline (row
// major, (batch, numActions)) select the greedy bootstrap action for
// each transition, and the target network's quantiles (row major,
// (batch*n, numActions)) evaluate it. Entry b*n+j of the returned
// slice holds
//
//	rewardᵦ + discountᵦ · q⁻(s'ᵦ, a*ᵦ, τ̂ⱼ)
//
// where a*ᵦ is the greedy action of the online estimate. Ties in the
// online estimate break toward the lowest action index.
func bellmanTarget(qOnline, targetQuantiles, rewards,
	discounts []float64, batch, n, numActions int) []float64 {
	target := make([]float64, batch*n)
	for b := 0; b < batch; b++ {
		greedy := floatutils.ArgMax(qOnline[b*numActions : (b+1)*numActions])
		for j := 0; j < n; j++ {
			row := (b*n + j) * numActions
			target[b*n+j] = rewards[b] +
				discounts[b]*targetQuantiles[row+greedy]
		}
	}
	return target
}

// meanActionValue computes the mean, over the batch, of the summed
// Riemann action values of every action. The quantiles parameter holds
// the quantile network's output at the levels packed by concatLevels.
func meanActionValue(quantiles []float64, f fractions, batch, n,
	numActions int) float64 {
	k := 2*n - 1
	sum := 0.0
	for b := 0; b < batch; b++ {
		for i := 0; i < n; i++ {
			width := f.taus[b*(n+1)+i+1] - f.taus[b*(n+1)+i]
			atHat := (b*k + (n - 1) + i) * numActions
			for a := 0; a < numActions; a++ {
				sum += width * quantiles[atHat+a]
			}
		}
	}
	return sum / float64(batch)
}

// expandActions one-hot encodes the taken actions, repeated once per
// quantile level, producing a (batch*n, numActions) row major matrix.
// Multiplying the quantile network's output elementwise by this matrix
// and summing over columns selects the quantiles of the taken actions.
func expandActions(actions []int, batch, n, numActions int) []float64 {
	expanded := make([]float64, batch*n*numActions)
	for b := 0; b < batch; b++ {
		for j := 0; j < n; j++ {
			expanded[(b*n+j)*numActions+actions[b]] = 1.0
		}
	}
	return expanded
}
