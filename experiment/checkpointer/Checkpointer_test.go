package checkpointer

import "testing"

// spySaver records the directories it was asked to save to
type spySaver struct {
	dirs []string
}

func (s *spySaver) Save(dir string) error {
	s.dirs = append(s.dirs, dir)
	return nil
}

func TestNStepInterval(t *testing.T) {
	saver := &spySaver{}
	c := NewNStep(5, saver, Fixed("checkpoints"))

	for step := 1; step <= 12; step++ {
		if err := c.Checkpoint(step); err != nil {
			t.Fatal(err)
		}
	}

	if len(saver.dirs) != 2 {
		t.Fatalf("saves in 12 steps with interval 5: got %v, want 2",
			len(saver.dirs))
	}
	for _, dir := range saver.dirs {
		if dir != "checkpoints" {
			t.Errorf("fixed directory: got %v, want checkpoints", dir)
		}
	}
}

func TestEnumerated(t *testing.T) {
	saver := &spySaver{}
	c := NewNStep(1, saver, Enumerated("run"))

	for step := 1; step <= 3; step++ {
		if err := c.Checkpoint(step); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"run0", "run1", "run2"}
	for i, dir := range want {
		if saver.dirs[i] != dir {
			t.Errorf("checkpoint %v directory: got %v, want %v", i,
				saver.dirs[i], dir)
		}
	}
}
