package tracker

// RunningMean tracks the mean of the last n values added to it
type RunningMean struct {
	values []float64
	next   int
	size   int
	sum    float64
}

// NewRunningMean creates and returns a new RunningMean over a window
// of n values. NewRunningMean panics if n < 1.
func NewRunningMean(n int) *RunningMean {
	if n < 1 {
		panic("newrunningmean: window must be >= 1")
	}
	return &RunningMean{values: make([]float64, n)}
}

// Add adds a value to the window, evicting the oldest value if the
// window is full
func (r *RunningMean) Add(value float64) {
	if r.size == len(r.values) {
		r.sum -= r.values[r.next]
	} else {
		r.size++
	}
	r.values[r.next] = value
	r.sum += value
	r.next = (r.next + 1) % len(r.values)
}

// Mean returns the mean of the values currently in the window, or 0
// if no values have been added
func (r *RunningMean) Mean() float64 {
	if r.size == 0 {
		return 0
	}
	return r.sum / float64(r.size)
}

// Count returns the number of values currently in the window
func (r *RunningMean) Count() int {
	return r.size
}
