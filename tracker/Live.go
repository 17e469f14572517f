package tracker

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gosuri/uilive"
)

// Live displays the latest value of each tracked metric in-place on
// the terminal, updating as new measurements arrive.
type Live struct {
	mutex  sync.Mutex
	writer *uilive.Writer
	latest map[string]Point
}

// NewLive creates, starts, and returns a new Live Recorder
func NewLive() *Live {
	writer := uilive.New()
	writer.Start()

	return &Live{
		writer: writer,
		latest: map[string]Point{},
	}
}

// Scalar implements the Recorder interface
func (l *Live) Scalar(tag string, step int, value float64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.latest[tag] = Point{Step: step, Value: value}
	l.render()
}

// render repaints the full metric block. The writer redraws all lines
// on each flush, so every metric is rewritten every time.
func (l *Live) render() {
	tags := make([]string, 0, len(l.latest))
	for tag := range l.latest {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		point := l.latest[tag]
		fmt.Fprintf(l.writer.Newline(), "%-24v %12.4f    (step %v)\n",
			tag, point.Value, point.Step)
	}
}

// Save implements the Recorder interface. The Live Recorder has no
// backing store: Save stops the terminal writer after a final repaint.
func (l *Live) Save() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.writer.Stop()
	return nil
}
