// Package checkpointer implements periodic saving of agents during an
// experiment.
package checkpointer

import "fmt"

// Saver is an object that can save its state to a directory
type Saver interface {
	Save(dir string) error
}

// Checkpointer saves objects based on the current environment step
type Checkpointer interface {
	Checkpoint(step int) error
}

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	saver    Saver

	// dir returns the directory to save the next checkpoint in
	dir func() string
}

// NewNStep returns a checkpointer that saves the Saver every n steps.
// The dir function names the directory of each checkpoint; use Fixed
// to overwrite a single directory or Enumerated to keep every
// checkpoint.
func NewNStep(n int, saver Saver, dir func() string) Checkpointer {
	return &nStep{
		interval: n,
		saver:    saver,
		dir:      dir,
	}
}

// Checkpoint saves the tracked Saver if the step is on the checkpoint
// interval
func (n *nStep) Checkpoint(step int) error {
	if step%n.interval == 0 {
		return n.saver.Save(n.dir())
	}
	return nil
}

// Fixed returns a directory naming function that always names the same
// directory, so each checkpoint overwrites the previous one
func Fixed(dir string) func() string {
	return func() string { return dir }
}

// Enumerated returns a directory naming function that numbers each
// checkpoint directory in sequence: prefix0, prefix1, ...
func Enumerated(prefix string) func() string {
	i := -1
	return func() string {
		i++
		return fmt.Sprintf("%v%v", prefix, i)
	}
}
