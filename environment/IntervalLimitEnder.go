package environment

import (
	"gonum.org/v1/gonum/spatial/r1"
	"github.com/samuelfneumann/gofqf/timestep"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature in a feature vector leaves some interval
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
}

// NewIntervalLimit creates and returns a new interval limit. The
// limits parameter holds the legal interval for each watched feature,
// and obsIndices holds the index of each watched feature in the
// observation vector.
func NewIntervalLimit(limits []r1.Interval, obsIndices []int) Ender {
	if len(limits) != len(obsIndices) {
		panic("limits should have same length as observation indices")
	}

	return &IntervalLimit{limits, obsIndices}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended, End modifies the timestep so that it is the last in
// its episode.
func (i *IntervalLimit) End(t *timestep.TimeStep) bool {
	for j, index := range i.indices {
		feature := t.Observation.AtVec(index)
		if feature < i.intervals[j].Min || feature > i.intervals[j].Max {
			t.End()
			return true
		}
	}
	return false
}
