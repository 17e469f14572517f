package tracker

import (
	"math"
	"path/filepath"
	"testing"
)

func TestRunningMeanWindow(t *testing.T) {
	r := NewRunningMean(3)

	if r.Count() != 0 {
		t.Errorf("count before any Add: got %v, want 0", r.Count())
	}

	r.Add(1.0)
	r.Add(2.0)
	if got := r.Mean(); got != 1.5 {
		t.Errorf("partial window mean: got %v, want 1.5", got)
	}

	r.Add(3.0)
	r.Add(4.0) // evicts 1.0
	if got := r.Mean(); got != 3.0 {
		t.Errorf("full window mean: got %v, want 3.0", got)
	}
	if r.Count() != 3 {
		t.Errorf("count after overflow: got %v, want 3", r.Count())
	}
}

func TestGobRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "metrics.bin")

	g := NewGob(filename)
	g.Scalar("reward/train", 10, 1.5)
	g.Scalar("reward/train", 20, 2.5)
	g.Scalar("loss/quantile_loss", 10, 0.25)

	if err := g.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := LoadGob(filename)
	if err != nil {
		t.Fatal(err)
	}

	train := data["reward/train"]
	if len(train) != 2 {
		t.Fatalf("reward/train length: got %v, want 2", len(train))
	}
	if train[0].Step != 10 || train[0].Value != 1.5 {
		t.Errorf("first point: got %+v, want {10 1.5}", train[0])
	}
	if train[1].Step != 20 || train[1].Value != 2.5 {
		t.Errorf("second point: got %+v, want {20 2.5}", train[1])
	}

	loss := data["loss/quantile_loss"]
	if len(loss) != 1 || math.Abs(loss[0].Value-0.25) > 1e-12 {
		t.Errorf("loss series: got %+v, want one point with value 0.25",
			loss)
	}
}

func TestSeriesReturnsCopy(t *testing.T) {
	g := NewGob(filepath.Join(t.TempDir(), "metrics.bin"))
	g.Scalar("stats/mean_Q", 1, 0.5)

	series := g.Series("stats/mean_Q")
	series[0].Value = -1.0

	if got := g.Series("stats/mean_Q")[0].Value; got != 0.5 {
		t.Errorf("internal series mutated through copy: got %v, want 0.5",
			got)
	}
}
