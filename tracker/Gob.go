package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
	"sync"
)

// Point is a single measurement of a metric
type Point struct {
	Step  int
	Value float64
}

// Gob tracks metrics in memory and saves them to disk as a
// gob-encoded map from metric tags to measurement series.
type Gob struct {
	mutex    sync.Mutex
	filename string
	series   map[string][]Point
}

// NewGob creates and returns a new Gob Recorder which saves its data
// to the file at filename
func NewGob(filename string) *Gob {
	return &Gob{
		filename: filename,
		series:   map[string][]Point{},
	}
}

// Scalar implements the Recorder interface
func (g *Gob) Scalar(tag string, step int, value float64) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.series[tag] = append(g.series[tag], Point{Step: step, Value: value})
}

// Series returns the measurements recorded so far for the metric with
// the given tag
func (g *Gob) Series(tag string) []Point {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	series := make([]Point, len(g.series[tag]))
	copy(series, g.series[tag])
	return series
}

// Save saves the data tracked by the Gob Recorder to disk
func (g *Gob) Save() error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	file, err := os.Create(g.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(g.series); err != nil {
		return fmt.Errorf("save: could not encode metric data: %v", err)
	}
	return nil
}

// LoadGob loads the metric series saved by a Gob Recorder from the
// file at filename
func LoadGob(filename string) (map[string][]Point, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadgob: could not open file: %v", err)
	}
	defer file.Close()

	series := map[string][]Point{}
	de := gob.NewDecoder(file)
	if err := de.Decode(&series); err != nil {
		return nil, fmt.Errorf("loadgob: could not decode metric data: %v",
			err)
	}
	return series, nil
}
