// Package tracker implements functionality for tracking and saving
// scalar metrics generated during an experiment, such as episodic
// returns, losses, and evaluation scores.
package tracker

// Recorder tracks scalar metrics during an experiment. Each metric is
// identified by a tag and recorded against the environment step at
// which it was measured.
type Recorder interface {
	// Scalar records the value of the metric with the given tag at the
	// given environment step
	Scalar(tag string, step int, value float64)

	// Save flushes all tracked metrics to their backing store
	Save() error
}

// multi broadcasts each metric to a group of Recorders
type multi struct {
	recorders []Recorder
}

// Multi returns a Recorder that forwards every metric to each of the
// given Recorders
func Multi(recorders ...Recorder) Recorder {
	return &multi{recorders: recorders}
}

// Scalar implements the Recorder interface
func (m *multi) Scalar(tag string, step int, value float64) {
	for _, r := range m.recorders {
		r.Scalar(tag, step, value)
	}
}

// Save implements the Recorder interface
func (m *multi) Save() error {
	for _, r := range m.recorders {
		if err := r.Save(); err != nil {
			return err
		}
	}
	return nil
}
